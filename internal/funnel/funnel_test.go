package funnel

import (
	"errors"
	"testing"
	"time"

	"github.com/agd-funnel/internal/constants"
)

func TestAdvanceFullFlowAwardsThirtyTokens(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("s1", "pt-BR", "v1", now)

	steps := []struct {
		input   string
		awarded int
		next    Step
	}{
		{input: "  Maria  ", awarded: 5, next: StepEmail},
		{input: "Maria@Example.com", awarded: 10, next: StepProfile},
		{input: "Intermediate", awarded: 15, next: StepSubmitted},
	}
	for _, step := range steps {
		result, err := Advance(s, step.input, now)
		if err != nil {
			t.Fatalf("advance %q failed: %v", step.input, err)
		}
		if result.Awarded != step.awarded || result.Step != step.next {
			t.Fatalf("advance %q: unexpected result %+v", step.input, result)
		}
	}
	if s.Tokens != CompletionTotal || CompletionTotal != 30 {
		t.Fatalf("want 30 tokens, got %d", s.Tokens)
	}
	if s.Name != "Maria" || s.Email != "maria@example.com" || s.Profile != constants.ProfileIntermediate {
		t.Fatalf("unexpected session fields: %+v", s)
	}
	if s.Branch != constants.FunnelBranchReward {
		t.Fatalf("want reward branch, got %s", s.Branch)
	}
	if s.SubmittedAt == nil || !s.Done() {
		t.Fatalf("session should be submitted")
	}
}

func TestAdvanceRejectsInvalidInputWithoutMoving(t *testing.T) {
	now := time.Now()
	s := NewSession("s2", "", "", now)

	if _, err := Advance(s, "   ", now); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("want ErrInvalidName, got %v", err)
	}
	if s.Step != StepName || s.Tokens != 0 {
		t.Fatalf("session moved on invalid name: %+v", s)
	}

	if _, err := Advance(s, "Ana", now); err != nil {
		t.Fatalf("advance name failed: %v", err)
	}
	for _, bad := range []string{"", "ana", "ana@", "ana@example", "a b@example.com"} {
		if _, err := Advance(s, bad, now); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("email %q: want ErrInvalidEmail, got %v", bad, err)
		}
	}
	if s.Step != StepEmail || s.Tokens != RewardName {
		t.Fatalf("session moved on invalid email: %+v", s)
	}

	if _, err := Advance(s, "ana@example.com", now); err != nil {
		t.Fatalf("advance email failed: %v", err)
	}
	if _, err := Advance(s, "expert", now); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("want ErrInvalidProfile, got %v", err)
	}
	if s.Step != StepProfile || s.Tokens != RewardName+RewardEmail {
		t.Fatalf("session moved on invalid profile: %+v", s)
	}
}

func TestDistrustfulRoutesToOptOut(t *testing.T) {
	now := time.Now()
	s := NewSession("s3", "en", "", now)
	for _, input := range []string{"John", "john@example.org", "distrustful"} {
		if _, err := Advance(s, input, now); err != nil {
			t.Fatalf("advance %q failed: %v", input, err)
		}
	}
	if s.Branch != constants.FunnelBranchOptOut {
		t.Fatalf("want opt_out branch, got %s", s.Branch)
	}
	if s.Tokens != 30 {
		t.Fatalf("distrustful still completes the funnel, got %d tokens", s.Tokens)
	}
}

func TestAdvanceAfterSubmitIsRejected(t *testing.T) {
	now := time.Now()
	s := NewSession("s4", "es", "", now)
	for _, input := range []string{"Lucia", "lucia@example.es", "advanced"} {
		if _, err := Advance(s, input, now); err != nil {
			t.Fatalf("advance %q failed: %v", input, err)
		}
	}
	if _, err := Advance(s, "again", now); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("want ErrAlreadySubmitted, got %v", err)
	}
	if s.Tokens != 30 {
		t.Fatalf("tokens changed after submit: %d", s.Tokens)
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{"": "pt", "PT-br": "pt", "en_US": "en", "es": "es"}
	for raw, want := range cases {
		got, err := NormalizeLanguage(raw)
		if err != nil || got != want {
			t.Fatalf("normalize %q: want %s, got %s (%v)", raw, want, got, err)
		}
	}
	if _, err := NormalizeLanguage("fr"); !errors.Is(err, ErrInvalidLanguage) {
		t.Fatalf("want ErrInvalidLanguage, got %v", err)
	}
	s := NewSession("s5", "fr", "", time.Now())
	if s.Language != LanguagePt {
		t.Fatalf("unsupported language should fall back to pt, got %s", s.Language)
	}
}
