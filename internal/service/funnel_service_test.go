package service

import (
	"errors"
	"testing"
	"time"

	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/funnel"
	"github.com/agd-funnel/internal/models"
	"github.com/agd-funnel/internal/queue"
	"github.com/agd-funnel/internal/repository"
)

func newFunnelTestService(env *serviceTestEnv) *FunnelService {
	store := NewMemoryFunnelStore()
	store.now = func() time.Time { return env.now }
	svc := NewFunnelService(store, repository.NewLeadRepository(env.db), env.attribution, nil, env.publisher, time.Hour)
	svc.now = func() time.Time { return env.now }
	return svc
}

func TestFunnelCompletesWithThirtyTokens(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.createIdentity(t, "owner@example.com", "")
	env.createProfile(t, owner.ID, "AGD123456", nil)
	svc := newFunnelTestService(env)
	ctx := t.Context()

	visitor := &AttributionSession{VisitorKey: "visitor-1"}
	if _, err := env.attribution.Capture(visitor, "AGD123456", "whatsapp", "/funnel"); err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	session, err := svc.Start(ctx, "pt-BR", "visitor-1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if session.Language != funnel.LanguagePt {
		t.Fatalf("expected pt, got %s", session.Language)
	}
	for _, input := range []string{"Maria", "Maria@Example.com", "beginner"} {
		if _, _, err := svc.Advance(ctx, session.ID, input, visitor); err != nil {
			t.Fatalf("advance %q failed: %v", input, err)
		}
	}

	final, err := svc.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if final.Tokens != funnel.CompletionTotal {
		t.Fatalf("expected 30 tokens, got %d", final.Tokens)
	}
	if final.Branch != constants.FunnelBranchReward || !final.Done() {
		t.Fatalf("unexpected final session: %+v", final)
	}

	var lead models.Lead
	if err := env.db.Where("session_id = ?", session.ID).First(&lead).Error; err != nil {
		t.Fatalf("lead should be persisted: %v", err)
	}
	if lead.Email != "maria@example.com" || lead.AffiliateCode != "AGD123456" || lead.TokensEarned != 30 {
		t.Fatalf("unexpected lead: %+v", lead)
	}
	if env.publisher.count(constants.EventLeadSubmitted) != 1 {
		t.Fatalf("expected one lead event")
	}

	if _, _, err := svc.Advance(ctx, session.ID, "again", visitor); !errors.Is(err, ErrFunnelAlreadySubmitted) {
		t.Fatalf("expected already submitted, got %v", err)
	}
}

func TestFunnelDistrustfulBranchesToOptOut(t *testing.T) {
	env := setupServiceTest(t)
	svc := newFunnelTestService(env)
	ctx := t.Context()

	session, err := svc.Start(ctx, "", "")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	for _, input := range []string{"João", "joao@example.com", "Distrustful"} {
		if _, _, err := svc.Advance(ctx, session.ID, input, nil); err != nil {
			t.Fatalf("advance %q failed: %v", input, err)
		}
	}
	final, _ := svc.Get(ctx, session.ID)
	if final.Branch != constants.FunnelBranchOptOut {
		t.Fatalf("expected opt_out branch, got %s", final.Branch)
	}
	if final.Tokens != 30 {
		t.Fatalf("opt_out still earns 30 tokens, got %d", final.Tokens)
	}
}

func TestFunnelValidationKeepsState(t *testing.T) {
	env := setupServiceTest(t)
	svc := newFunnelTestService(env)
	ctx := t.Context()

	if _, err := svc.Start(ctx, "fr", ""); !errors.Is(err, ErrFunnelLanguageInvalid) {
		t.Fatalf("expected invalid language, got %v", err)
	}
	session, err := svc.Start(ctx, "en", "")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, _, err := svc.Advance(ctx, session.ID, "   ", nil); !errors.Is(err, ErrFunnelNameRequired) {
		t.Fatalf("expected name required, got %v", err)
	}
	if _, _, err := svc.Advance(ctx, session.ID, "Ana", nil); err != nil {
		t.Fatalf("advance name failed: %v", err)
	}
	_, result, err := svc.Advance(ctx, session.ID, "not-an-email", nil)
	if !errors.Is(err, ErrFunnelEmailInvalid) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected invalid email, got %v", err)
	}
	if result.Step != funnel.StepEmail {
		t.Fatalf("step should stay on email, got %s", result.Step)
	}
	current, _ := svc.Get(ctx, session.ID)
	if current.Tokens != funnel.RewardName {
		t.Fatalf("tokens should stay at %d, got %d", funnel.RewardName, current.Tokens)
	}
	if _, _, err := svc.Advance(ctx, "missing", "x", nil); !errors.Is(err, ErrFunnelSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestFunnelSessionExpires(t *testing.T) {
	env := setupServiceTest(t)
	svc := newFunnelTestService(env)
	session, err := svc.Start(t.Context(), "", "")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	env.now = env.now.Add(time.Hour)
	if _, err := svc.Get(t.Context(), session.ID); !errors.Is(err, ErrFunnelSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestPersistLeadOncePerSession(t *testing.T) {
	env := setupServiceTest(t)
	svc := newFunnelTestService(env)
	payload := queue.LeadSubmittedPayload{
		SessionID:   "session-1",
		Name:        "Ana",
		Email:       "ana@example.com",
		Profile:     constants.ProfileAdvanced,
		Language:    funnel.LanguageEs,
		Tokens:      30,
		Branch:      constants.FunnelBranchReward,
		SubmittedAt: env.now,
	}
	for i := 0; i < 3; i++ {
		if err := svc.PersistLead(t.Context(), payload); err != nil {
			t.Fatalf("persist lead failed: %v", err)
		}
	}
	var total int64
	env.db.Model(&models.Lead{}).Count(&total)
	if total != 1 {
		t.Fatalf("expected one lead, got %d", total)
	}
	if env.publisher.count(constants.EventLeadSubmitted) != 1 {
		t.Fatalf("expected one lead event, got %d", env.publisher.count(constants.EventLeadSubmitted))
	}

	rows, count, err := svc.ListLeads(repository.LeadListFilter{Page: 1, PageSize: 10})
	if err != nil || count != 1 || len(rows) != 1 {
		t.Fatalf("list leads failed: count=%d err=%v", count, err)
	}
}
