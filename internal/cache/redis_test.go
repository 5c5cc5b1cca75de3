package cache

import (
	"context"
	"testing"
	"time"

	"github.com/agd-funnel/internal/funnel"
)

func TestBuildKeyUsesPrefix(t *testing.T) {
	UseClient(nil, "")
	if got := BuildKey("funnel:session:abc"); got != "agd:funnel:session:abc" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := BuildKey("  "); got != "agd" {
		t.Fatalf("expected bare prefix for empty key, got %s", got)
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	UseClient(nil, "agd")
	ctx := context.Background()
	store := NewRedisFunnelStore()
	session := funnel.NewSession("abc", "pt", "visitor-1", time.Now())
	if err := store.Save(ctx, session, time.Minute); err != nil {
		t.Fatalf("save on disabled cache should not fail: %v", err)
	}
	loaded, hit, err := store.Load(ctx, "abc")
	if err != nil {
		t.Fatalf("load on disabled cache should not fail: %v", err)
	}
	if hit || loaded != nil {
		t.Fatalf("disabled cache should never hit")
	}
}

func TestCaptchaStoreDisabledNeverVerifies(t *testing.T) {
	UseClient(nil, "agd")
	store := NewCaptchaStore(0)
	if store.ttl != 5*time.Minute {
		t.Fatalf("default ttl want 5m got %s", store.ttl)
	}
	if err := store.Set("cid", "1234"); err != nil {
		t.Fatalf("set on disabled cache should not fail: %v", err)
	}
	if store.Verify("cid", "1234", true) {
		t.Fatalf("disabled store should not verify answers")
	}
	if captchaKey(" cid ") != "captcha:cid" {
		t.Fatalf("unexpected captcha key: %s", captchaKey(" cid "))
	}
}
