package service

import (
	"strings"
	"unicode"

	"github.com/agd-funnel/internal/config"
)

// passwordPolicyError 携带 i18n 键与参数的密码策略错误
type passwordPolicyError struct {
	key  string
	args []interface{}
}

func (e passwordPolicyError) Error() string { return e.key }

func (e passwordPolicyError) Is(target error) bool {
	return target == ErrPasswordWeak || target == ErrValidation
}

func (e passwordPolicyError) Key() string { return e.key }

func (e passwordPolicyError) Args() []interface{} { return e.args }

type passwordClasses struct {
	upper, lower, digit bool
}

func classifyPassword(password string) passwordClasses {
	var classes passwordClasses
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			classes.upper = true
		case unicode.IsLower(r):
			classes.lower = true
		case unicode.IsDigit(r):
			classes.digit = true
		}
	}
	return classes
}

// validatePassword 按策略逐条校验，返回第一条不满足的规则；
// email 非空时额外拒绝包含邮箱用户名的密码
func validatePassword(policy config.PasswordPolicyConfig, email, password string) error {
	if policy.MinLength > 0 && len([]rune(password)) < policy.MinLength {
		return passwordPolicyError{key: "error.password_min_length", args: []interface{}{policy.MinLength}}
	}

	classes := classifyPassword(password)
	rules := []struct {
		required bool
		present  bool
		key      string
	}{
		{policy.RequireUpper, classes.upper, "error.password_require_upper"},
		{policy.RequireLower, classes.lower, "error.password_require_lower"},
		{policy.RequireNumber, classes.digit, "error.password_require_number"},
	}
	for _, rule := range rules {
		if rule.required && !rule.present {
			return passwordPolicyError{key: rule.key}
		}
	}

	if local, _, ok := strings.Cut(strings.ToLower(email), "@"); ok && len(local) >= 4 {
		if strings.Contains(strings.ToLower(password), local) {
			return passwordPolicyError{key: "error.password_contains_email"}
		}
	}
	return nil
}
