package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher 基于 kafka-go 的事件投递
type KafkaPublisher struct {
	writer       *kafka.Writer
	topicByEvent map[string]string
}

// NewKafkaPublisher 创建 Kafka 投递器
func NewKafkaPublisher(brokers []string, topicByEvent map[string]string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topicByEvent: topicByEvent,
	}, nil
}

// Publish 写入事件，分区键相同的事件落在同一分区
func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topicFor(eventType),
		Key:   []byte(partitionKey),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

// topicFor 配置键使用下划线（viper 会把点号当作层级）
func (p *KafkaPublisher) topicFor(eventType string) string {
	key := strings.ReplaceAll(eventType, ".", "_")
	if mapped, ok := p.topicByEvent[key]; ok && mapped != "" {
		return mapped
	}
	return eventType
}

// Close 关闭写入器
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
