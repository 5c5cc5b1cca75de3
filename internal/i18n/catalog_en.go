package i18n

var messagesEN = map[string]string{
	"error.bad_request":               "Invalid request",
	"error.unauthorized":              "Not authenticated",
	"error.forbidden":                 "Permission denied",
	"error.not_found":                 "Resource not found",
	"error.conflict":                  "Conflicts with current state",
	"error.upstream":                  "External service unavailable",
	"error.internal":                  "Internal error, please retry",
	"error.too_many_requests":         "Too many attempts, please wait",
	"error.funnel_name_required":      "Please tell us your name",
	"error.funnel_email_invalid":      "Please enter a valid email",
	"error.funnel_profile_invalid":    "Please choose an investor profile",
	"error.funnel_already_submitted":  "You have already completed this step",
	"error.funnel_session_not_found":  "Session expired, please start again",
	"error.funnel_language_invalid":   "Language not supported",
	"error.affiliate_code_required":   "Affiliate code is required",
	"error.affiliate_not_found":       "Affiliate not found",
	"error.affiliate_not_eligible":    "A confirmed investment of at least R$ %s is required",
	"error.affiliate_exists":          "You are already an affiliate",
	"error.affiliate_status_invalid":  "Invalid affiliate status",
	"error.plan_not_found":            "Unknown plan",
	"error.amount_below_plan":         "Amount is below the plan minimum",
	"error.investment_not_found":      "Investment not found",
	"error.investment_status_invalid": "Investment status does not allow this operation",
	"error.investment_not_confirmed":  "Investment is not confirmed yet",
	"error.commission_not_found":      "Commission not found",
	"error.commission_status_invalid": "Commission status does not allow this operation",
	"error.email_invalid":             "Invalid email",
	"error.email_exists":              "Email already registered",
	"error.password_weak":             "Password does not meet the security policy",
	"error.invalid_credentials":       "Wrong email or password",
	"error.identity_disabled":         "Account disabled",
	"error.captcha_required":          "Captcha required",
	"error.captcha_invalid":           "Wrong captcha",
	"error.pix_unavailable":           "PIX payment is unavailable right now",
	"error.pix_signature_invalid":     "Invalid webhook signature",
	"error.setting_invalid":           "Invalid setting",

	"funnel.step.name.title":        "What should we call you?",
	"funnel.step.email.title":       "Where should we send your tokens?",
	"funnel.step.profile.title":     "What is your investor profile?",
	"funnel.profile.beginner":       "Beginner",
	"funnel.profile.intermediate":   "Intermediate",
	"funnel.profile.advanced":       "Advanced",
	"funnel.profile.distrustful":    "Still skeptical",
	"funnel.reward.title":           "Congratulations! You earned %d AGD tokens",
	"funnel.reward.cta":             "Choose my plan",
	"funnel.opt_out.title":          "No rush",
	"funnel.opt_out.body":           "We will send you material so you can get to know the project.",
	"funnel.progress.tokens":        "%d tokens earned",
	"checkout.pix.instructions":     "Copy the PIX code or scan the QR code in your bank app",
	"checkout.pix.expires":          "The code expires in %d minutes",
	"affiliate.dashboard.title":     "Affiliate dashboard",
	"error.token_invalid":           "Invalid or expired token",
	"error.token_revoked":           "Token revoked, please sign in again",
	"error.auth_header_missing":     "Missing Authorization header",
	"error.auth_header_invalid":     "Malformed Authorization header",
	"error.jwt_secret_missing":      "Authentication is not configured",
	"error.dashboard_range_invalid": "Invalid dashboard date range",
	"error.password_min_length":     "Password must have at least %d characters",
	"error.password_require_upper":  "Password must contain an uppercase letter",
	"error.password_require_lower":  "Password must contain a lowercase letter",
	"error.password_require_number": "Password must contain a number",
	"error.password_contains_email": "Password must not contain your email",
	"error.login_too_many":          "Too many login attempts, retry in %d seconds",
	"error.rate_limited":            "Too many requests, retry in %d seconds",
	"error.rate_limit_unavailable":  "Rate limiter unavailable, please retry",
	"affiliate.share.instructions":  "Share your link. Referrals are remembered for 48 hours.",
}
