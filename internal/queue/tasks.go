package queue

import (
	"encoding/json"
	"time"

	"github.com/agd-funnel/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskLeadSubmitted 漏斗提交落库与事件投递
	TaskLeadSubmitted = constants.TaskLeadSubmitted
	// TaskAffiliateClick 推广点击记录
	TaskAffiliateClick = constants.TaskAffiliateClick
	// TaskSaleConfirmed 销售确认事件投递
	TaskSaleConfirmed = constants.TaskSaleConfirmed
	// TaskInvestmentPixExpire PIX 收款超时取消
	TaskInvestmentPixExpire = constants.TaskInvestmentPixExpire
)

// LeadSubmittedPayload 漏斗提交任务载荷
type LeadSubmittedPayload struct {
	SessionID     string    `json:"session_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Profile       string    `json:"profile"`
	Language      string    `json:"language"`
	Tokens        int       `json:"tokens"`
	Branch        string    `json:"branch"`
	VisitorKey    string    `json:"visitor_key"`
	AffiliateCode string    `json:"affiliate_code"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// AffiliateClickPayload 推广点击任务载荷
type AffiliateClickPayload struct {
	AffiliateCode string `json:"affiliate_code"`
	VisitorKey    string `json:"visitor_key"`
	Destination   string `json:"destination"`
	Source        string `json:"source"`
	Referrer      string `json:"referrer"`
	ClientIP      string `json:"client_ip"`
	UserAgent     string `json:"user_agent"`
}

// SaleConfirmedPayload 销售确认任务载荷
type SaleConfirmedPayload struct {
	InvestmentID uint `json:"investment_id"`
}

// InvestmentPixExpirePayload PIX 超时任务载荷
type InvestmentPixExpirePayload struct {
	InvestmentID uint `json:"investment_id"`
}

func newJSONTask(taskType string, payload interface{}) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}

// NewLeadSubmittedTask 创建漏斗提交任务
func NewLeadSubmittedTask(payload LeadSubmittedPayload) (*asynq.Task, error) {
	return newJSONTask(TaskLeadSubmitted, payload)
}

// NewAffiliateClickTask 创建推广点击任务
func NewAffiliateClickTask(payload AffiliateClickPayload) (*asynq.Task, error) {
	return newJSONTask(TaskAffiliateClick, payload)
}

// NewSaleConfirmedTask 创建销售确认任务
func NewSaleConfirmedTask(payload SaleConfirmedPayload) (*asynq.Task, error) {
	return newJSONTask(TaskSaleConfirmed, payload)
}

// NewInvestmentPixExpireTask 创建 PIX 超时任务
func NewInvestmentPixExpireTask(payload InvestmentPixExpirePayload) (*asynq.Task, error) {
	return newJSONTask(TaskInvestmentPixExpire, payload)
}
