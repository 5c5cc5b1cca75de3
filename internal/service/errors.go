package service

import (
	"errors"
	"fmt"
)

// 错误分类，具体错误通过 errors.Is 同时匹配自身与所属分类
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrUpstream   = errors.New("upstream failure")
	ErrTracking   = errors.New("tracking failure")
)

// categorized 携带分类的业务错误
type categorized struct {
	msg      string
	category error
}

func (e *categorized) Error() string { return e.msg }

func (e *categorized) Unwrap() error { return e.category }

func newError(category error, msg string) error {
	return &categorized{msg: msg, category: category}
}

// 漏斗
var (
	ErrFunnelNameRequired     = newError(ErrValidation, "funnel name is required")
	ErrFunnelEmailInvalid     = newError(ErrValidation, "funnel email is invalid")
	ErrFunnelProfileInvalid   = newError(ErrValidation, "funnel profile is invalid")
	ErrFunnelAlreadySubmitted = newError(ErrValidation, "funnel already submitted")
	ErrFunnelLanguageInvalid  = newError(ErrValidation, "funnel language is invalid")
	ErrFunnelSessionNotFound  = newError(ErrNotFound, "funnel session not found")
)

// 归因与推广
var (
	ErrAffiliateCodeRequired   = newError(ErrValidation, "affiliate code is required")
	ErrAffiliateNotFound       = newError(ErrNotFound, "affiliate not found")
	ErrAffiliateInactive       = newError(ErrNotFound, "affiliate is not active")
	ErrAffiliateNotEligible    = newError(ErrValidation, "identity is not eligible for affiliate")
	ErrAffiliateAlreadyExists  = newError(ErrConflict, "affiliate profile already exists")
	ErrAffiliateStatusInvalid  = newError(ErrValidation, "affiliate status is invalid")
	ErrAffiliateCodeExhausted  = errors.New("affiliate code generation exhausted")
	ErrAttributionVisitorEmpty = newError(ErrValidation, "attribution visitor key is required")
	ErrClickTrackingFailed     = newError(ErrTracking, "affiliate click tracking failed")
)

// 套餐与投资
var (
	ErrPlanNotFound            = newError(ErrValidation, "plan not found")
	ErrAmountBelowPlan         = newError(ErrValidation, "amount is below plan monthly value")
	ErrInvestmentNotFound      = newError(ErrNotFound, "investment not found")
	ErrInvestmentStatusInvalid = newError(ErrConflict, "investment status does not allow this operation")
	ErrInvestmentNotConfirmed  = newError(ErrValidation, "investment is not confirmed")
)

// 佣金
var (
	ErrCommissionNotFound      = newError(ErrNotFound, "commission not found")
	ErrCommissionStatusInvalid = newError(ErrConflict, "commission status does not allow this operation")
)

// 身份与后台
var (
	ErrEmailInvalid          = newError(ErrValidation, "email is invalid")
	ErrEmailExists           = newError(ErrConflict, "email already registered")
	ErrPasswordWeak          = newError(ErrValidation, "password does not meet policy")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrIdentityDisabled      = errors.New("identity disabled")
	ErrIdentityNotFound      = newError(ErrNotFound, "identity not found")
	ErrAdminNotFound         = newError(ErrNotFound, "admin not found")
	ErrInvalidToken          = errors.New("invalid token")
	ErrCaptchaRequired       = newError(ErrValidation, "captcha required")
	ErrCaptchaInvalid        = newError(ErrValidation, "captcha invalid")
	ErrCaptchaConfigInvalid  = errors.New("captcha config invalid")
	ErrSettingInvalid        = newError(ErrValidation, "setting invalid")
	ErrPixUnavailable        = newError(ErrUpstream, "pix gateway unavailable")
	ErrPixSignatureInvalid   = newError(ErrValidation, "pix webhook signature invalid")
	ErrPixChargeNotFound     = newError(ErrNotFound, "pix charge not found")
	ErrPixAmountMismatch     = newError(ErrValidation, "pix amount mismatch")
	ErrDashboardRangeInvalid = newError(ErrValidation, "dashboard range invalid")
)

// upstream 包装外部依赖错误，保留原始错误链
func upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}
