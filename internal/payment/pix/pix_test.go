package pix

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewClientValidatesConfig(t *testing.T) {
	if _, err := NewClient(Config{GatewayURL: "https://pix.example.com"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config invalid, got %v", err)
	}
	client, err := NewClient(Config{
		GatewayURL:    " https://pix.example.com/ ",
		APIToken:      " token ",
		WebhookSecret: "secret",
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client.cfg.GatewayURL != "https://pix.example.com" {
		t.Fatalf("gateway url not normalized, got: %s", client.cfg.GatewayURL)
	}
	if client.cfg.ExpireMinutes != 30 || client.cfg.TimeoutSeconds != 10 {
		t.Fatalf("defaults not applied: %+v", client.cfg)
	}
}

func TestCreateCharge(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/charges" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Fatalf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"charge_id":"ch_1","reference":"INV-1","copy_paste":"000201pix","qr_code_base64":"aGVsbG8=","expires_at":"2026-03-01T10:00:00Z"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{GatewayURL: server.URL, APIToken: "token", WebhookSecret: "secret"})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	result, err := client.CreateCharge(context.Background(), CreateInput{
		Reference: "INV-1",
		PayerID:   "buyer@example.com",
		Amount:    decimal.RequireFromString("3000"),
	})
	if err != nil {
		t.Fatalf("CreateCharge error: %v", err)
	}
	if result.ChargeID != "ch_1" || result.CopyPaste != "000201pix" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.ExpiresAt.Year() != 2026 {
		t.Fatalf("expires_at not parsed: %v", result.ExpiresAt)
	}
	if got["amount"] != "3000.00" || got["currency"] != "BRL" {
		t.Fatalf("unexpected request body: %+v", got)
	}
}

func TestCreateChargeUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, _ := NewClient(Config{GatewayURL: server.URL, APIToken: "token", WebhookSecret: "secret"})
	_, err := client.CreateCharge(context.Background(), CreateInput{Reference: "INV-2", Amount: decimal.NewFromInt(10)})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected request failed, got %v", err)
	}
}

func TestVerifyWebhook(t *testing.T) {
	body := []byte(`{"charge_id":"ch_1","status":"paid","amount":"3000.00"}`)
	signature := Sign("secret", body)
	if err := VerifyWebhook("secret", body, signature); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := VerifyWebhook("secret", body, "sha256="+signature); err != nil {
		t.Fatalf("prefixed signature rejected: %v", err)
	}
	if err := VerifyWebhook("secret", body, "deadbeef"); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature invalid, got %v", err)
	}
	if err := VerifyWebhook("", body, signature); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config invalid for empty secret, got %v", err)
	}
}

func TestParseWebhook(t *testing.T) {
	event, err := ParseWebhook([]byte(`{"charge_id":" ch_1 ","status":"PAID","amount":"3000"}`))
	if err != nil {
		t.Fatalf("ParseWebhook error: %v", err)
	}
	if event.ChargeID != "ch_1" || event.Status != StatusPaid {
		t.Fatalf("unexpected event: %+v", event)
	}
	amount, err := event.AmountDecimal()
	if err != nil || !amount.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("unexpected amount %v err=%v", amount, err)
	}
	if _, err := ParseWebhook([]byte(`{"status":"paid"}`)); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected invalid response without charge id, got %v", err)
	}
}

func TestToInvestmentAction(t *testing.T) {
	cases := map[string]string{"paid": "confirm", "expired": "cancel", "failed": "cancel"}
	for status, want := range cases {
		got, ok := ToInvestmentAction(status)
		if !ok || got != want {
			t.Fatalf("%s: want %s, got %s %v", status, want, got, ok)
		}
	}
	if _, ok := ToInvestmentAction("pending"); ok {
		t.Fatalf("pending should not map to an action")
	}
}
