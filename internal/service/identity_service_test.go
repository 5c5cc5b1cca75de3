package service

import (
	"errors"
	"testing"
	"time"

	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/repository"
)

func newIdentityTestService(env *serviceTestEnv) *IdentityService {
	captcha := NewCaptchaService(env.settings, env.cfg.Captcha)
	svc := NewIdentityService(env.cfg, env.identityRepo, captcha, env.attribution)
	svc.now = func() time.Time { return env.now }
	return svc
}

func TestRegisterRecordsReferralCode(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.createIdentity(t, "owner@example.com", "")
	env.createProfile(t, owner.ID, "AGD123456", nil)
	svc := newIdentityTestService(env)

	session := &AttributionSession{VisitorKey: "visitor-1"}
	if _, err := env.attribution.Capture(session, "AGD123456", "", "/"); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	identity, token, expiresAt, err := svc.Register(RegisterInput{
		Email:       " New.Buyer@Example.com ",
		Password:    "secret123",
		Name:        "Buyer",
		Locale:      "en-US",
		Attribution: session,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if identity.Email != "new.buyer@example.com" || identity.ReferredByCode != "AGD123456" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if identity.Locale != constants.LocaleEnUS {
		t.Fatalf("expected en-US locale, got %s", identity.Locale)
	}
	if token == "" || !expiresAt.Equal(env.now.Add(72*time.Hour)) {
		t.Fatalf("unexpected token expiry: %v", expiresAt)
	}

	svc.now = time.Now
	fresh, _, err := svc.GenerateJWT(identity)
	if err != nil {
		t.Fatalf("generate jwt failed: %v", err)
	}
	claims, err := svc.ParseJWT(fresh)
	if err != nil || claims.IdentityID != identity.ID || claims.Email != identity.Email {
		t.Fatalf("claims should carry identity: %+v err=%v", claims, err)
	}

	if _, _, _, err := svc.Register(RegisterInput{Email: "new.buyer@example.com", Password: "secret123"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected email exists, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := setupServiceTest(t)
	svc := newIdentityTestService(env)

	if _, _, _, err := svc.Register(RegisterInput{Email: "not-an-email", Password: "secret123"}); !errors.Is(err, ErrEmailInvalid) {
		t.Fatalf("expected invalid email, got %v", err)
	}
	_, _, _, err := svc.Register(RegisterInput{Email: "a@example.com", Password: "short1"})
	if !errors.Is(err, ErrPasswordWeak) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected weak password, got %v", err)
	}
	var policyErr interface{ Key() string }
	if !errors.As(err, &policyErr) || policyErr.Key() != "error.password_min_length" {
		t.Fatalf("expected min length key, got %v", err)
	}
	if _, _, _, err := svc.Register(RegisterInput{Email: "a@example.com", Password: "onlyletters"}); !errors.Is(err, ErrPasswordWeak) {
		t.Fatalf("expected number requirement, got %v", err)
	}

	_, _, _, err = svc.Register(RegisterInput{Email: "maria@example.com", Password: "maria2024x"})
	if !errors.As(err, &policyErr) || policyErr.Key() != "error.password_contains_email" {
		t.Fatalf("expected email-in-password rejection, got %v", err)
	}

	identity, _, _, err := svc.Register(RegisterInput{Email: "plain@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if identity.Locale != constants.LocalePtBR || identity.ReferredByCode != "" {
		t.Fatalf("unexpected defaults: %+v", identity)
	}
}

func TestIdentityLogin(t *testing.T) {
	env := setupServiceTest(t)
	svc := newIdentityTestService(env)
	registered, _, _, err := svc.Register(RegisterInput{Email: "login@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	identity, token, _, err := svc.Login("LOGIN@example.com", "secret123", CaptchaVerifyPayload{})
	if err != nil || token == "" || identity.ID != registered.ID {
		t.Fatalf("login failed: %v", err)
	}
	if _, _, _, err := svc.Login("login@example.com", "wrong-pass1", CaptchaVerifyPayload{}); !IsCredentialError(err) {
		t.Fatalf("expected credential error, got %v", err)
	}
	if _, _, _, err := svc.Login("missing@example.com", "secret123", CaptchaVerifyPayload{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	if err := env.db.Model(registered).Update("status", constants.IdentityStatusDisabled).Error; err != nil {
		t.Fatalf("disable identity failed: %v", err)
	}
	if _, _, _, err := svc.Login("login@example.com", "secret123", CaptchaVerifyPayload{}); !errors.Is(err, ErrIdentityDisabled) {
		t.Fatalf("expected disabled, got %v", err)
	}
	if _, err := svc.ParseJWT("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestRegisterRequiresCaptchaWhenEnabled(t *testing.T) {
	env := setupServiceTest(t)
	setting := CaptchaDefaultSetting(env.cfg.Captcha)
	setting.Enabled = true
	setting.SceneRegister = true
	if _, err := env.settings.Update(constants.SettingKeyCaptchaConfig, CaptchaSettingToMap(setting)); err != nil {
		t.Fatalf("update captcha setting failed: %v", err)
	}
	svc := newIdentityTestService(env)

	_, _, _, err := svc.Register(RegisterInput{Email: "cap@example.com", Password: "secret123"})
	if !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("expected captcha required, got %v", err)
	}
	_, _, _, err = svc.Register(RegisterInput{
		Email:    "cap@example.com",
		Password: "secret123",
		Captcha:  CaptchaVerifyPayload{CaptchaID: "missing", CaptchaCode: "12345"},
	})
	if !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("expected captcha invalid, got %v", err)
	}
}

func TestAdminLoginAndEnsure(t *testing.T) {
	env := setupServiceTest(t)
	svc := NewAuthService(env.cfg, repository.NewAdminRepository(env.db))
	svc.now = func() time.Time { return env.now }

	admin, created, err := svc.EnsureAdmin("root", "Admin123", true)
	if err != nil || !created || !admin.IsSuper {
		t.Fatalf("ensure admin failed: created=%v err=%v", created, err)
	}
	again, created, err := svc.EnsureAdmin("root", "other", false)
	if err != nil || created || again.ID != admin.ID {
		t.Fatalf("ensure admin should be idempotent: created=%v err=%v", created, err)
	}

	_, token, expiresAt, err := svc.Login("root", "Admin123")
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	if !expiresAt.Equal(env.now.Add(12 * time.Hour)) {
		t.Fatalf("expected 12h admin token, got %v", expiresAt)
	}
	if _, _, _, err := svc.Login("root", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
}
