package public

import (
	"errors"
	"io"
	"strconv"

	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/i18n"
	"github.com/agd-funnel/internal/payment/pix"
	"github.com/agd-funnel/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const pixWebhookMaxBody = 1 << 20

// CreateInvestmentRequest 认购请求
type CreateInvestmentRequest struct {
	PlanID string          `json:"plan_id" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// CreateInvestment 创建认购并发起 PIX 收款
func (h *Handler) CreateInvestment(c *gin.Context) {
	identityID, ok := getIdentityID(c)
	if !ok {
		return
	}
	var req CreateInvestmentRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	checkout, err := h.InvestmentService.Create(c.Request.Context(), service.CreateInvestmentInput{
		IdentityID:  identityID,
		PlanID:      req.PlanID,
		Amount:      req.Amount,
		Attribution: h.attributionSession(c),
	})
	if err != nil {
		// 认购已落库但收款单未生成，返回认购信息以便前端重试支付
		if errors.Is(err, service.ErrPixUnavailable) && checkout != nil {
			handlershared.RequestLog(c).Warnw("investment_pix_unavailable",
				"investment_id", checkout.Investment.ID,
				"error", err,
			)
			response.ErrorWithData(c, response.CodeBadGateway,
				i18n.T(i18n.ResolveLocale(c), "error.pix_unavailable"), checkout)
			return
		}
		respondServiceError(c, err)
		return
	}
	response.Success(c, checkout)
}

// ListMyInvestments 查询当前买家的认购
func (h *Handler) ListMyInvestments(c *gin.Context) {
	identityID, ok := getIdentityID(c)
	if !ok {
		return
	}
	rows, err := h.InvestmentService.ListByIdentity(identityID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, rows)
}

// GetMyInvestment 查询单笔认购
func (h *Handler) GetMyInvestment(c *gin.Context) {
	identityID, ok := getIdentityID(c)
	if !ok {
		return
	}
	investmentID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	investment, err := h.InvestmentService.GetForIdentity(identityID, investmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, investment)
}

// QuoteWithdrawal 赎回试算
func (h *Handler) QuoteWithdrawal(c *gin.Context) {
	identityID, ok := getIdentityID(c)
	if !ok {
		return
	}
	investmentID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	early, _ := strconv.ParseBool(c.DefaultQuery("early", "false"))
	quote, err := h.InvestmentService.QuoteWithdrawal(identityID, investmentID, early)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, quote)
}

// PixWebhook PIX 网关异步通知
func (h *Handler) PixWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, pixWebhookMaxBody))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.InvestmentService.HandlePixWebhook(c.Request.Context(), body, c.GetHeader(pix.SignatureHeader)); err != nil {
		handlershared.RequestLog(c).Warnw("pix_webhook_rejected", "error", err)
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"received": true})
}
