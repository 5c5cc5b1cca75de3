package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agd-funnel/internal/cache"
	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/service"

	"github.com/gin-gonic/gin"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

func TestJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(JWTAuthMiddleware("", nil))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

type fakeAdminParser struct {
	claims *service.JWTClaims
	state  *cache.AdminAuthState
}

func (f *fakeAdminParser) ParseJWT(tokenString string) (*service.JWTClaims, error) {
	if tokenString != "good" || f.claims == nil {
		return nil, service.ErrInvalidToken
	}
	return f.claims, nil
}

func (f *fakeAdminParser) ResolveAuthState(_ context.Context, _ uint) (*cache.AdminAuthState, error) {
	if f.state == nil {
		return nil, service.ErrAdminNotFound
	}
	return f.state, nil
}

type fakeIdentityParser struct {
	claims *service.IdentityJWTClaims
	state  *cache.IdentityAuthState
	err    error
}

func (f *fakeIdentityParser) ParseJWT(tokenString string) (*service.IdentityJWTClaims, error) {
	if tokenString != "good" || f.claims == nil {
		return nil, service.ErrInvalidToken
	}
	return f.claims, nil
}

func (f *fakeIdentityParser) ResolveAuthState(_ context.Context, _ uint) (*cache.IdentityAuthState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

func decodeStatusCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func serveWithAuth(r *gin.Engine, path, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddlewareChecksTokenVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)

	parser := &fakeAdminParser{
		claims: &service.JWTClaims{AdminID: 7, Username: "ops", TokenVersion: 2},
		state:  &cache.AdminAuthState{AdminID: 7, TokenVersion: 2, IsSuper: true},
	}
	r := gin.New()
	r.Use(JWTAuthMiddleware("secret", parser))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"admin_id": c.GetUint(handlershared.ContextAdminID),
			"is_super": c.GetBool(handlershared.ContextAdminIsSuper),
			"username": c.GetString(handlershared.ContextAdminUsername),
		})
	})

	w := serveWithAuth(r, "/admin/ping", "Bearer good")
	if !strings.Contains(w.Body.String(), `"admin_id":7`) || !strings.Contains(w.Body.String(), `"is_super":true`) {
		t.Fatalf("expected admin context, got %s", w.Body.String())
	}

	parser.state.TokenVersion = 3
	if code := decodeStatusCode(t, serveWithAuth(r, "/admin/ping", "Bearer good")); code != 401 {
		t.Fatalf("revoked token should be 401, got %d", code)
	}
	if code := decodeStatusCode(t, serveWithAuth(r, "/admin/ping", "Token good")); code != 401 {
		t.Fatalf("invalid header should be 401, got %d", code)
	}
	if code := decodeStatusCode(t, serveWithAuth(r, "/admin/ping", "")); code != 401 {
		t.Fatalf("missing header should be 401, got %d", code)
	}
}

func TestUserJWTAuthMiddlewareRejectsDisabledIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	parser := &fakeIdentityParser{
		claims: &service.IdentityJWTClaims{IdentityID: 11, Email: "ana@example.com", TokenVersion: 1},
		state:  &cache.IdentityAuthState{IdentityID: 11, Status: "active", TokenVersion: 1},
	}
	r := gin.New()
	r.Use(UserJWTAuthMiddleware("secret", parser))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"identity_id": c.GetUint(handlershared.ContextIdentityID)})
	})

	w := serveWithAuth(r, "/me", "Bearer good")
	if !strings.Contains(w.Body.String(), `"identity_id":11`) {
		t.Fatalf("expected identity context, got %s", w.Body.String())
	}

	parser.state.Status = "disabled"
	if code := decodeStatusCode(t, serveWithAuth(r, "/me", "Bearer good")); code != 401 {
		t.Fatalf("disabled identity should be 401, got %d", code)
	}

	parser.err = errors.New("db down")
	if code := decodeStatusCode(t, serveWithAuth(r, "/me", "Bearer good")); code != 401 {
		t.Fatalf("state lookup failure should be 401, got %d", code)
	}
	if code := decodeStatusCode(t, serveWithAuth(r, "/me", "Bearer bad")); code != 401 {
		t.Fatalf("bad token should be 401, got %d", code)
	}
}

func TestAdminRBACMiddlewareWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(handlershared.ContextAdminID, uint(1))
		c.Next()
	}, AdminRBACMiddleware(nil))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	if code := decodeStatusCode(t, serveWithAuth(r, "/admin/ping", "")); code != 401 {
		t.Fatalf("missing authz service should be 401, got %d", code)
	}
}
