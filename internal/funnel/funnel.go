// Package funnel 实现落地页多步漏斗的状态机。
//
// 会话以显式值的形式在调用方之间传递，状态机本身不做任何持久化或副作用。
package funnel

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/agd-funnel/internal/constants"
)

// Step 漏斗步骤
type Step int

const (
	StepName Step = iota
	StepEmail
	StepProfile
	StepSubmitted
)

// 每一步推进奖励的代币积分
const (
	RewardName    = 5
	RewardEmail   = 10
	RewardProfile = 15
)

// CompletionTotal 完整走完漏斗可获得的积分
const CompletionTotal = RewardName + RewardEmail + RewardProfile

var (
	ErrInvalidName      = errors.New("name is required")
	ErrInvalidEmail     = errors.New("email is invalid")
	ErrInvalidProfile   = errors.New("profile is invalid")
	ErrAlreadySubmitted = errors.New("funnel already submitted")
	ErrInvalidLanguage  = errors.New("language is not supported")
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// 漏斗支持的语言代码
const (
	LanguagePt = "pt"
	LanguageEn = "en"
	LanguageEs = "es"
)

var profileSegments = map[string]struct{}{
	constants.ProfileBeginner:     {},
	constants.ProfileIntermediate: {},
	constants.ProfileAdvanced:     {},
	constants.ProfileDistrustful:  {},
}

// String 返回步骤名称
func (s Step) String() string {
	switch s {
	case StepName:
		return "name"
	case StepEmail:
		return "email"
	case StepProfile:
		return "profile"
	case StepSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Session 访客的漏斗会话
type Session struct {
	ID          string     `json:"id"`
	Step        Step       `json:"step"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Profile     string     `json:"profile"`
	Language    string     `json:"language"`
	Tokens      int        `json:"tokens"`
	Branch      string     `json:"branch"`
	VisitorKey  string     `json:"visitor_key"`
	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// Result 单次推进结果
type Result struct {
	Awarded   int  `json:"awarded"`
	Step      Step `json:"step"`
	Submitted bool `json:"submitted"`
}

// NewSession 创建新的漏斗会话
func NewSession(id, language, visitorKey string, now time.Time) *Session {
	lang, err := NormalizeLanguage(language)
	if err != nil {
		lang = LanguagePt
	}
	return &Session{
		ID:         id,
		Step:       StepName,
		Language:   lang,
		VisitorKey: strings.TrimSpace(visitorKey),
		StartedAt:  now,
	}
}

// NormalizeLanguage 归一化语言代码，空值回退为葡萄牙语
func NormalizeLanguage(raw string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.IndexAny(normalized, "-_"); idx > 0 {
		normalized = normalized[:idx]
	}
	switch normalized {
	case "":
		return LanguagePt, nil
	case LanguagePt, LanguageEn, LanguageEs:
		return normalized, nil
	default:
		return "", ErrInvalidLanguage
	}
}

// IsValidEmail 校验邮箱格式
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// IsValidProfile 校验投资者画像
func IsValidProfile(profile string) bool {
	_, ok := profileSegments[strings.ToLower(strings.TrimSpace(profile))]
	return ok
}

// BranchFor 返回画像对应的漏斗分支
func BranchFor(profile string) string {
	if strings.ToLower(strings.TrimSpace(profile)) == constants.ProfileDistrustful {
		return constants.FunnelBranchOptOut
	}
	return constants.FunnelBranchReward
}

// Advance 按当前步骤校验输入并推进会话，校验失败时会话保持不变
func Advance(s *Session, input string, now time.Time) (Result, error) {
	value := strings.TrimSpace(input)
	switch s.Step {
	case StepName:
		if value == "" {
			return Result{Step: s.Step}, ErrInvalidName
		}
		s.Name = value
		return s.award(RewardName, StepEmail), nil
	case StepEmail:
		if !emailPattern.MatchString(value) {
			return Result{Step: s.Step}, ErrInvalidEmail
		}
		s.Email = strings.ToLower(value)
		return s.award(RewardEmail, StepProfile), nil
	case StepProfile:
		profile := strings.ToLower(value)
		if _, ok := profileSegments[profile]; !ok {
			return Result{Step: s.Step}, ErrInvalidProfile
		}
		s.Profile = profile
		s.Branch = BranchFor(profile)
		submittedAt := now
		s.SubmittedAt = &submittedAt
		result := s.award(RewardProfile, StepSubmitted)
		result.Submitted = true
		return result, nil
	default:
		return Result{Step: s.Step}, ErrAlreadySubmitted
	}
}

func (s *Session) award(tokens int, next Step) Result {
	s.Tokens += tokens
	s.Step = next
	return Result{Awarded: tokens, Step: next}
}

// Done 会话是否已提交
func (s *Session) Done() bool {
	return s.Step == StepSubmitted
}
