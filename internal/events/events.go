// Package events 负责把业务事件投递到外部消息系统。
//
// 投递语义为至多一次、尽力而为：调用方记录失败日志，但不回滚业务状态。
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/agd-funnel/internal/config"

	"github.com/google/uuid"
)

const (
	schemaVersion = "1.0"
	sourceService = "agd-funnel"
)

// Publisher 业务事件投递接口
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
	Close() error
}

// Envelope 事件外层结构
type Envelope struct {
	EventID       string      `json:"event_id"`
	EventType     string      `json:"event_type"`
	OccurredAt    string      `json:"occurred_at"`
	SourceService string      `json:"source_service"`
	SchemaVersion string      `json:"schema_version"`
	PartitionKey  string      `json:"partition_key"`
	Data          interface{} `json:"data"`
}

// Encode 生成带信封的事件载荷
func Encode(eventType, partitionKey string, occurredAt time.Time, data interface{}) ([]byte, error) {
	return json.Marshal(Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		OccurredAt:    occurredAt.UTC().Format(time.RFC3339),
		SourceService: sourceService,
		SchemaVersion: schemaVersion,
		PartitionKey:  partitionKey,
		Data:          data,
	})
}

// NoopPublisher 未启用事件投递时使用
type NoopPublisher struct{}

// Publish 丢弃事件
func (NoopPublisher) Publish(context.Context, string, []byte, string) error { return nil }

// Close 无资源需要释放
func (NoopPublisher) Close() error { return nil }

// New 按配置创建事件投递器，未启用时返回 NoopPublisher
func New(cfg config.EventsConfig) (Publisher, error) {
	if !cfg.Enabled {
		return NoopPublisher{}, nil
	}
	publisher, err := NewKafkaPublisher(cfg.Brokers, cfg.Topics)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}
