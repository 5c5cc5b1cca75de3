package shared

import (
	"errors"

	"github.com/agd-funnel/internal/catalog"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/i18n"
	"github.com/agd-funnel/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedError 业务错误到接口错误码与文案的映射
type mappedError struct {
	target error
	code   int
	key    string
}

var serviceErrorRules = []mappedError{
	{service.ErrFunnelNameRequired, response.CodeBadRequest, "error.funnel_name_required"},
	{service.ErrFunnelEmailInvalid, response.CodeBadRequest, "error.funnel_email_invalid"},
	{service.ErrFunnelProfileInvalid, response.CodeBadRequest, "error.funnel_profile_invalid"},
	{service.ErrFunnelAlreadySubmitted, response.CodeBadRequest, "error.funnel_already_submitted"},
	{service.ErrFunnelLanguageInvalid, response.CodeBadRequest, "error.funnel_language_invalid"},
	{service.ErrFunnelSessionNotFound, response.CodeNotFound, "error.funnel_session_not_found"},
	{service.ErrAffiliateCodeRequired, response.CodeBadRequest, "error.affiliate_code_required"},
	{service.ErrAffiliateNotFound, response.CodeNotFound, "error.affiliate_not_found"},
	{service.ErrAffiliateInactive, response.CodeNotFound, "error.affiliate_not_found"},
	{service.ErrAffiliateAlreadyExists, response.CodeConflict, "error.affiliate_exists"},
	{service.ErrAffiliateStatusInvalid, response.CodeBadRequest, "error.affiliate_status_invalid"},
	{service.ErrAttributionVisitorEmpty, response.CodeBadRequest, "error.bad_request"},
	{service.ErrPlanNotFound, response.CodeBadRequest, "error.plan_not_found"},
	{service.ErrAmountBelowPlan, response.CodeBadRequest, "error.amount_below_plan"},
	{service.ErrInvestmentNotFound, response.CodeNotFound, "error.investment_not_found"},
	{service.ErrInvestmentStatusInvalid, response.CodeConflict, "error.investment_status_invalid"},
	{service.ErrInvestmentNotConfirmed, response.CodeBadRequest, "error.investment_not_confirmed"},
	{service.ErrCommissionNotFound, response.CodeNotFound, "error.commission_not_found"},
	{service.ErrCommissionStatusInvalid, response.CodeConflict, "error.commission_status_invalid"},
	{service.ErrEmailInvalid, response.CodeBadRequest, "error.email_invalid"},
	{service.ErrEmailExists, response.CodeConflict, "error.email_exists"},
	{service.ErrPasswordWeak, response.CodeBadRequest, "error.password_weak"},
	{service.ErrInvalidCredentials, response.CodeUnauthorized, "error.invalid_credentials"},
	{service.ErrIdentityDisabled, response.CodeUnauthorized, "error.identity_disabled"},
	{service.ErrIdentityNotFound, response.CodeNotFound, "error.not_found"},
	{service.ErrAdminNotFound, response.CodeNotFound, "error.not_found"},
	{service.ErrInvalidToken, response.CodeUnauthorized, "error.token_invalid"},
	{service.ErrCaptchaRequired, response.CodeBadRequest, "error.captcha_required"},
	{service.ErrCaptchaInvalid, response.CodeBadRequest, "error.captcha_invalid"},
	{service.ErrSettingInvalid, response.CodeBadRequest, "error.setting_invalid"},
	{service.ErrPixUnavailable, response.CodeBadGateway, "error.pix_unavailable"},
	{service.ErrPixSignatureInvalid, response.CodeUnauthorized, "error.pix_signature_invalid"},
	{service.ErrPixChargeNotFound, response.CodeNotFound, "error.not_found"},
	{service.ErrPixAmountMismatch, response.CodeBadRequest, "error.bad_request"},
	{service.ErrDashboardRangeInvalid, response.CodeBadRequest, "error.dashboard_range_invalid"},
}

// 未命中具体规则时按错误分类兜底
var categoryErrorRules = []mappedError{
	{service.ErrValidation, response.CodeBadRequest, "error.bad_request"},
	{service.ErrConflict, response.CodeConflict, "error.conflict"},
	{service.ErrNotFound, response.CodeNotFound, "error.not_found"},
	{service.ErrUpstream, response.CodeBadGateway, "error.upstream"},
}

type localizedError interface {
	Key() string
	Args() []interface{}
}

// RespondServiceError 将 service 层错误映射为接口响应；上游与未知错误会记录日志。
func RespondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	locale := i18n.ResolveLocale(c)

	var localized localizedError
	if errors.As(err, &localized) {
		RespondErrorWithMsg(c, response.CodeBadRequest, i18n.Sprintf(locale, localized.Key(), localized.Args()...), nil)
		return
	}
	if errors.Is(err, service.ErrAffiliateNotEligible) {
		minimum := catalog.MinimumEligibleAmount().StringFixed(2)
		RespondErrorWithMsg(c, response.CodeBadRequest, i18n.Sprintf(locale, "error.affiliate_not_eligible", minimum), nil)
		return
	}
	for _, rule := range serviceErrorRules {
		if errors.Is(err, rule.target) {
			var logged error
			if rule.code == response.CodeBadGateway {
				logged = err
			}
			RespondError(c, rule.code, rule.key, logged)
			return
		}
	}
	for _, rule := range categoryErrorRules {
		if errors.Is(err, rule.target) {
			var logged error
			if rule.code == response.CodeBadGateway {
				logged = err
			}
			RespondError(c, rule.code, rule.key, logged)
			return
		}
	}
	RespondError(c, response.CodeInternal, "error.internal", err)
}
