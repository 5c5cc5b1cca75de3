package service

import (
	"errors"
	"testing"
	"time"

	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/models"
)

func TestAttributionCaptureAndResolve(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.createIdentity(t, "owner@example.com", "")
	profile := env.createProfile(t, owner.ID, "AGD123456", nil)

	session := &AttributionSession{VisitorKey: "visitor-1"}
	resolved, err := env.attribution.Capture(session, " agd123456 ", "instagram", "/funnel")
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if resolved.Code != "AGD123456" || resolved.AffiliateProfileID != profile.ID {
		t.Fatalf("unexpected resolved attribution: %+v", resolved)
	}
	if !resolved.ExpiresAt.Equal(env.now.Add(48 * time.Hour)) {
		t.Fatalf("expected 48h ttl, got %v", resolved.ExpiresAt)
	}
	if session.Fast == nil || session.Fast.Code != "AGD123456" {
		t.Fatalf("expected fast snapshot to be written")
	}

	// 短期存储丢失后回退到长期存储
	fresh := &AttributionSession{VisitorKey: "visitor-1"}
	again, err := env.attribution.Resolve(fresh)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if again == nil || again.Source != attributionSourceStore || again.SourceChannel != "instagram" {
		t.Fatalf("expected store attribution, got %+v", again)
	}
	if fresh.Fast == nil {
		t.Fatalf("expected fast snapshot to be refreshed from store")
	}

	fromFast, err := env.attribution.Resolve(fresh)
	if err != nil || fromFast == nil || fromFast.Source != attributionSourceFast {
		t.Fatalf("expected fast attribution, got %+v err=%v", fromFast, err)
	}
}

func TestAttributionFirstTouchWins(t *testing.T) {
	env := setupServiceTest(t)
	first := env.createIdentity(t, "first@example.com", "")
	second := env.createIdentity(t, "second@example.com", "")
	env.createProfile(t, first.ID, "AGD111111", nil)
	env.createProfile(t, second.ID, "AGD222222", nil)

	session := &AttributionSession{VisitorKey: "visitor-2"}
	if _, err := env.attribution.Capture(session, "AGD111111", "", "/"); err != nil {
		t.Fatalf("first capture failed: %v", err)
	}
	resolved, err := env.attribution.Capture(session, "AGD222222", "", "/")
	if err != nil {
		t.Fatalf("second capture failed: %v", err)
	}
	if resolved.Code != "AGD111111" {
		t.Fatalf("first touch should win, got %s", resolved.Code)
	}
	if resolved.SourceChannel != constants.SourceChannelDirect {
		t.Fatalf("empty channel should default to direct, got %s", resolved.SourceChannel)
	}
}

func TestAttributionExpiresAfterTTL(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.createIdentity(t, "owner@example.com", "")
	env.createProfile(t, owner.ID, "AGD123456", nil)

	session := &AttributionSession{VisitorKey: "visitor-3"}
	if _, err := env.attribution.Capture(session, "AGD123456", "", "/"); err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	env.now = env.now.Add(48*time.Hour - time.Second)
	resolved, err := env.attribution.Resolve(session)
	if err != nil || resolved == nil {
		t.Fatalf("attribution should still be active before ttl: %+v err=%v", resolved, err)
	}

	env.now = env.now.Add(time.Second)
	resolved, err = env.attribution.Resolve(session)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved != nil {
		t.Fatalf("attribution should expire at ttl, got %+v", resolved)
	}
	if session.Fast != nil {
		t.Fatalf("expired fast snapshot should be cleared")
	}
	var count int64
	env.db.Model(&models.AffiliateAttribution{}).Count(&count)
	if count != 0 {
		t.Fatalf("expired store record should be removed, got %d", count)
	}

	// 过期后可以被新的推广码归因
	resolvedNew, err := env.attribution.Capture(session, "AGD123456", "email", "/")
	if err != nil || resolvedNew == nil || !resolvedNew.CapturedAt.Equal(env.now) {
		t.Fatalf("recapture after expiry failed: %+v err=%v", resolvedNew, err)
	}
}

func TestAttributionFastSnapshotBoundedByTTL(t *testing.T) {
	env := setupServiceTest(t)
	capturedAt := env.now
	session := &AttributionSession{
		VisitorKey: "visitor-forged",
		Fast: &FastAttribution{
			Code:       "AGD123456",
			CapturedAt: capturedAt,
			ExpiresAt:  capturedAt.Add(30 * 24 * time.Hour),
		},
	}

	env.now = capturedAt.Add(47 * time.Hour)
	resolved, err := env.attribution.Resolve(session)
	if err != nil || resolved == nil {
		t.Fatalf("snapshot should be active inside ttl: %+v err=%v", resolved, err)
	}
	if !resolved.ExpiresAt.Equal(capturedAt.Add(48 * time.Hour)) {
		t.Fatalf("expires_at should be capped at captured_at+ttl, got %s", resolved.ExpiresAt)
	}

	env.now = capturedAt.Add(49 * time.Hour)
	resolved, err = env.attribution.Resolve(session)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved != nil || session.Fast != nil {
		t.Fatalf("snapshot past captured_at+ttl must resolve to none, got %+v", resolved)
	}

	future := &AttributionSession{
		VisitorKey: "visitor-future",
		Fast: &FastAttribution{
			Code:       "AGD123456",
			CapturedAt: env.now.Add(time.Hour),
			ExpiresAt:  env.now.Add(2 * time.Hour),
		},
	}
	if resolved, err := env.attribution.Resolve(future); err != nil || resolved != nil {
		t.Fatalf("snapshot captured in the future must be ignored, got %+v err=%v", resolved, err)
	}
}

func TestAttributionCaptureRejectsInvalidInput(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.createIdentity(t, "owner@example.com", "")
	blocked := env.createProfile(t, owner.ID, "AGD999999", nil)
	if err := env.affiliateRepo.UpdateProfileStatus(blocked.ID, constants.AffiliateStatusBlocked, env.now); err != nil {
		t.Fatalf("block profile failed: %v", err)
	}

	if _, err := env.attribution.Capture(&AttributionSession{}, "AGD999999", "", "/"); !errors.Is(err, ErrAttributionVisitorEmpty) {
		t.Fatalf("expected visitor empty error, got %v", err)
	}
	if _, err := env.attribution.Capture(&AttributionSession{VisitorKey: "v"}, "  ", "", "/"); !errors.Is(err, ErrAffiliateCodeRequired) {
		t.Fatalf("expected code required error, got %v", err)
	}
	if _, err := env.attribution.Capture(&AttributionSession{VisitorKey: "v"}, "AGD000000", "", "/"); !errors.Is(err, ErrAffiliateNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if _, err := env.attribution.Capture(&AttributionSession{VisitorKey: "v"}, "AGD999999", "", "/"); !errors.Is(err, ErrAffiliateInactive) {
		t.Fatalf("expected inactive error, got %v", err)
	}
	if !errors.Is(ErrAffiliateInactive, ErrNotFound) {
		t.Fatalf("inactive affiliate should be categorized as not found")
	}
}

func TestRecordClickDedupe(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.createIdentity(t, "owner@example.com", "")
	profile := env.createProfile(t, owner.ID, "AGD123456", nil)

	input := AffiliateClickInput{AffiliateCode: "AGD123456", VisitorKey: "visitor-4", Destination: "/funnel"}
	recorded, err := env.attribution.RecordClick(input)
	if err != nil || !recorded {
		t.Fatalf("first click should be recorded: %v %v", recorded, err)
	}
	recorded, err = env.attribution.RecordClick(input)
	if err != nil || recorded {
		t.Fatalf("duplicate click should be skipped: %v %v", recorded, err)
	}

	input.Destination = "/plans"
	if recorded, err = env.attribution.RecordClick(input); err != nil || !recorded {
		t.Fatalf("different destination should be recorded: %v %v", recorded, err)
	}

	env.now = env.now.Add(11 * time.Minute)
	input.Destination = "/funnel"
	if recorded, err = env.attribution.RecordClick(input); err != nil || !recorded {
		t.Fatalf("click after dedupe window should be recorded: %v %v", recorded, err)
	}

	if got := env.reloadProfile(t, profile.ID).ClickCount; got != 3 {
		t.Fatalf("expected 3 clicks, got %d", got)
	}
	if _, err := env.attribution.RecordClick(AffiliateClickInput{AffiliateCode: "AGD000000"}); !errors.Is(err, ErrAffiliateNotFound) {
		t.Fatalf("expected not found for unknown code, got %v", err)
	}
}

func TestPurgeExpiredAttributions(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.createIdentity(t, "owner@example.com", "")
	env.createProfile(t, owner.ID, "AGD123456", nil)

	for _, key := range []string{"a", "b"} {
		if _, err := env.attribution.Capture(&AttributionSession{VisitorKey: key}, "AGD123456", "", "/"); err != nil {
			t.Fatalf("capture %s failed: %v", key, err)
		}
	}
	env.now = env.now.Add(24 * time.Hour)
	if _, err := env.attribution.Capture(&AttributionSession{VisitorKey: "c"}, "AGD123456", "", "/"); err != nil {
		t.Fatalf("capture c failed: %v", err)
	}

	env.now = env.now.Add(25 * time.Hour)
	removed, err := env.attribution.PurgeExpired()
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 expired attributions removed, got %d", removed)
	}
}
