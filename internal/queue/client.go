package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/constants"

	"github.com/hibiken/asynq"
)

// 队列名称：涉及资金状态的任务走 critical
const (
	DefaultQueue  = constants.QueueDefault
	CriticalQueue = constants.QueueCritical
)

// Client 队列客户端封装，未启用时所有投递直接返回
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(buildRedisOpt(cfg))}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// enqueue 投递任务；带 TaskID 的任务重复投递视为成功
func (c *Client) enqueue(task *asynq.Task, queue string, opts ...asynq.Option) error {
	options := append([]asynq.Option{asynq.Queue(queue)}, opts...)
	_, err := c.client.Enqueue(task, options...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// EnqueueLeadSubmitted 推送漏斗提交任务，以会话ID去重
func (c *Client) EnqueueLeadSubmitted(payload LeadSubmittedPayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewLeadSubmittedTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, DefaultQueue, asynq.TaskID("lead:"+payload.SessionID), asynq.MaxRetry(3))
}

// EnqueueAffiliateClick 推送推广点击任务，计数为参考值，仅重试一次
func (c *Client) EnqueueAffiliateClick(payload AffiliateClickPayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewAffiliateClickTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, DefaultQueue, asynq.MaxRetry(1))
}

// EnqueueSaleConfirmed 推送销售确认事件，以认购ID去重
func (c *Client) EnqueueSaleConfirmed(payload SaleConfirmedPayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewSaleConfirmedTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, CriticalQueue,
		asynq.TaskID(fmt.Sprintf("sale:%d", payload.InvestmentID)),
		asynq.MaxRetry(3),
	)
}

// EnqueueInvestmentPixExpire 在 PIX 到期时取消仍待支付的认购
func (c *Client) EnqueueInvestmentPixExpire(payload InvestmentPixExpirePayload, delay time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewInvestmentPixExpireTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, CriticalQueue,
		asynq.TaskID(fmt.Sprintf("pix_expire:%d", payload.InvestmentID)),
		asynq.ProcessIn(max(delay, 0)),
	)
}

// BuildServerConfig 生成队列服务配置，默认 critical 优先级高于 default
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{CriticalQueue: 6, DefaultQueue: 3},
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return buildRedisOpt(cfg), serverCfg
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
