package pix

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("pix config invalid")
	ErrRequestFailed    = errors.New("pix request failed")
	ErrResponseInvalid  = errors.New("pix response invalid")
	ErrSignatureInvalid = errors.New("pix signature invalid")
)

// 收款状态常量
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusExpired = "expired"
	StatusFailed  = "failed"
)

// SignatureHeader 回调签名请求头
const SignatureHeader = "X-Pix-Signature"

// Config PIX 网关配置
type Config struct {
	GatewayURL     string // 网关地址，如 https://pix.example.com
	APIToken       string // API Token
	WebhookSecret  string // 回调签名密钥
	NotifyURL      string // 异步通知地址
	ExpireMinutes  int    // 收款码有效期（分钟）
	TimeoutSeconds int    // 请求超时（秒）
}

// CreateInput 创建收款输入
type CreateInput struct {
	Reference   string          // 商户单号
	PayerID     string          // 付款人标识（邮箱）
	Amount      decimal.Decimal // 金额（BRL）
	Description string
	NotifyURL   string
}

// CreateResult 创建收款结果
type CreateResult struct {
	ChargeID  string                 // 网关收款单号
	Reference string                 // 商户单号
	CopyPaste string                 // PIX 复制粘贴码
	QRCode    string                 // 二维码图片（base64）
	ExpiresAt time.Time              // 过期时间
	Raw       map[string]interface{} // 原始响应
}

// WebhookEvent 网关回调数据
type WebhookEvent struct {
	ChargeID  string `json:"charge_id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
	PaidAt    string `json:"paid_at"`
}

// AmountDecimal 解析回调金额
func (e *WebhookEvent) AmountDecimal() (decimal.Decimal, error) {
	if e == nil {
		return decimal.Zero, ErrResponseInvalid
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(e.Amount))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount", ErrResponseInvalid)
	}
	return amount.Round(2), nil
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.GatewayURL) == "" {
		return fmt.Errorf("%w: gateway_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.APIToken) == "" {
		return fmt.Errorf("%w: api_token is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	c.GatewayURL = strings.TrimRight(strings.TrimSpace(c.GatewayURL), "/")
	c.APIToken = strings.TrimSpace(c.APIToken)
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.NotifyURL = strings.TrimSpace(c.NotifyURL)
	if c.ExpireMinutes <= 0 {
		c.ExpireMinutes = 30
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
}

// Client PIX 网关客户端
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

// NewClient 创建网关客户端
func NewClient(cfg Config) (*Client, error) {
	cfg.normalize()
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		now:        time.Now,
	}, nil
}

// WebhookSecret 返回回调签名密钥
func (c *Client) WebhookSecret() string {
	if c == nil {
		return ""
	}
	return c.cfg.WebhookSecret
}

// CreateCharge 创建 PIX 收款
func (c *Client) CreateCharge(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if c == nil {
		return nil, ErrConfigInvalid
	}
	if strings.TrimSpace(input.Reference) == "" || !input.Amount.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: reference and positive amount are required", ErrConfigInvalid)
	}
	notifyURL := input.NotifyURL
	if notifyURL == "" {
		notifyURL = c.cfg.NotifyURL
	}
	params := map[string]interface{}{
		"reference":      input.Reference,
		"payer_id":       strings.TrimSpace(input.PayerID),
		"amount":         input.Amount.StringFixed(2),
		"currency":       "BRL",
		"expire_seconds": c.cfg.ExpireMinutes * 60,
	}
	if notifyURL != "" {
		params["notify_url"] = notifyURL
	}
	if input.Description != "" {
		params["description"] = input.Description
	}

	respBytes, err := c.postJSON(ctx, c.cfg.GatewayURL+"/v1/charges", params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	var resp struct {
		ChargeID  string `json:"charge_id"`
		Reference string `json:"reference"`
		CopyPaste string `json:"copy_paste"`
		QRCode    string `json:"qr_code_base64"`
		ExpiresAt string `json:"expires_at"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if strings.TrimSpace(resp.ChargeID) == "" || strings.TrimSpace(resp.CopyPaste) == "" {
		return nil, fmt.Errorf("%w: missing charge_id or copy_paste", ErrResponseInvalid)
	}

	expiresAt := c.now().Add(time.Duration(c.cfg.ExpireMinutes) * time.Minute)
	if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(resp.ExpiresAt)); err == nil {
		expiresAt = parsed
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &CreateResult{
		ChargeID:  resp.ChargeID,
		Reference: resp.Reference,
		CopyPaste: resp.CopyPaste,
		QRCode:    resp.QRCode,
		ExpiresAt: expiresAt,
		Raw:       raw,
	}, nil
}

// ParseWebhook 解析回调数据
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	if len(body) == 0 {
		return nil, ErrResponseInvalid
	}
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	event.ChargeID = strings.TrimSpace(event.ChargeID)
	event.Status = strings.ToLower(strings.TrimSpace(event.Status))
	if event.ChargeID == "" {
		return nil, fmt.Errorf("%w: charge_id is required", ErrResponseInvalid)
	}
	return &event, nil
}

// VerifyWebhook 校验回调签名（HMAC-SHA256，十六进制，可带 sha256= 前缀）
func VerifyWebhook(secret string, body []byte, signature string) error {
	if strings.TrimSpace(secret) == "" {
		return ErrConfigInvalid
	}
	provided := strings.TrimSpace(signature)
	provided = strings.TrimPrefix(strings.ToLower(provided), "sha256=")
	if provided == "" {
		return ErrSignatureInvalid
	}
	expected := Sign(secret, body)
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return ErrSignatureInvalid
	}
	return nil
}

// Sign 生成回调签名
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) postJSON(ctx context.Context, endpoint string, params map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ToInvestmentAction 将收款状态映射为销售处理动作
func ToInvestmentAction(status string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case StatusPaid:
		return "confirm", true
	case StatusExpired, StatusFailed:
		return "cancel", true
	default:
		return "", false
	}
}
