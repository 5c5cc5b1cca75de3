package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/logger"
	"github.com/agd-funnel/internal/provider"
	"github.com/agd-funnel/internal/queue"
	"github.com/agd-funnel/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskLeadSubmitted, c.handleLeadSubmitted)
	mux.HandleFunc(queue.TaskAffiliateClick, c.handleAffiliateClick)
	mux.HandleFunc(queue.TaskSaleConfirmed, c.handleSaleConfirmed)
	mux.HandleFunc(queue.TaskInvestmentPixExpire, c.handleInvestmentPixExpire)
}

func (c *Consumer) handleLeadSubmitted(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.LeadSubmittedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_lead_submitted_unmarshal_failed", "error", err)
		return err
	}
	if strings.TrimSpace(payload.SessionID) == "" {
		logger.Debugw("worker_lead_submitted_skip_invalid_payload")
		return nil
	}
	if err := c.FunnelService.PersistLead(ctx, payload); err != nil {
		logger.Warnw("worker_lead_submitted_persist_failed", "session_id", payload.SessionID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleAffiliateClick(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.AffiliateClickPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_affiliate_click_unmarshal_failed", "error", err)
		return err
	}
	recorded, err := c.AttributionService.RecordClick(service.AffiliateClickInput{
		AffiliateCode: payload.AffiliateCode,
		VisitorKey:    payload.VisitorKey,
		Destination:   payload.Destination,
		Source:        payload.Source,
		Referrer:      payload.Referrer,
		ClientIP:      payload.ClientIP,
		UserAgent:     payload.UserAgent,
	})
	if err != nil {
		// 推广码失效或参数错误重试无意义
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrValidation) {
			logger.Debugw("worker_affiliate_click_skip", "affiliate_code", payload.AffiliateCode, "error", err)
			return nil
		}
		logger.Warnw("worker_affiliate_click_record_failed", "affiliate_code", payload.AffiliateCode, "error", err)
		return err
	}
	logger.Debugw("worker_affiliate_click_done", "affiliate_code", payload.AffiliateCode, "recorded", recorded)
	return nil
}

func (c *Consumer) handleSaleConfirmed(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.SaleConfirmedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_sale_confirmed_unmarshal_failed", "error", err)
		return err
	}
	if payload.InvestmentID == 0 {
		return nil
	}
	investment, err := c.InvestmentRepo.GetByID(payload.InvestmentID)
	if err != nil {
		logger.Warnw("worker_sale_confirmed_fetch_failed", "investment_id", payload.InvestmentID, "error", err)
		return err
	}
	if investment == nil || investment.Status != constants.InvestmentStatusConfirmed {
		logger.Debugw("worker_sale_confirmed_skip", "investment_id", payload.InvestmentID)
		return nil
	}
	if err := c.CommissionService.PublishSaleConfirmed(ctx, investment); err != nil {
		logger.Warnw("worker_sale_confirmed_publish_failed", "investment_id", investment.ID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleInvestmentPixExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.InvestmentPixExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_pix_expire_unmarshal_failed", "error", err)
		return err
	}
	if payload.InvestmentID == 0 {
		return nil
	}
	expired, err := c.InvestmentService.ExpirePixCharge(payload.InvestmentID)
	if err != nil {
		logger.Warnw("worker_pix_expire_failed", "investment_id", payload.InvestmentID, "error", err)
		return err
	}
	logger.Debugw("worker_pix_expire_done", "investment_id", payload.InvestmentID, "expired", expired)
	return nil
}
