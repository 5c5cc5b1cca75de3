package constants

// 投资（销售）状态常量
const (
	InvestmentStatusPending   = "pending"
	InvestmentStatusConfirmed = "confirmed"
	InvestmentStatusCancelled = "cancelled"
)

// 推广用户状态常量
const (
	AffiliateStatusActive  = "active"
	AffiliateStatusPending = "pending"
	AffiliateStatusBlocked = "blocked"
)

// 佣金状态常量
const (
	CommissionStatusPending   = "pending"
	CommissionStatusPaid      = "paid"
	CommissionStatusCancelled = "cancelled"
)

// 佣金类型常量
const (
	CommissionTypeDirect = "direct"
	CommissionTypeLeader = "leader"
)

// 推广等级常量
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
	TierElite    = "elite"
)

// 漏斗投资者画像常量
const (
	ProfileBeginner     = "beginner"
	ProfileIntermediate = "intermediate"
	ProfileAdvanced     = "advanced"
	ProfileDistrustful  = "distrustful"
)

// 漏斗分支常量
const (
	FunnelBranchReward = "reward"
	FunnelBranchOptOut = "opt_out"
)

// 身份状态常量
const (
	IdentityStatusActive   = "active"
	IdentityStatusDisabled = "disabled"
)

// 归因来源渠道常量
const (
	SourceChannelDirect = "direct"
	SourceChannelLink   = "link"
)

// 支付提供方常量
const (
	PaymentProviderPix = "pix"
)

// PIX 回调状态常量
const (
	PixChargeStatusPaid    = "paid"
	PixChargeStatusExpired = "expired"
	PixChargeStatusFailed  = "failed"
)

// 验证码校验场景常量
const (
	CaptchaSceneRegister   = "register"    // 买家注册
	CaptchaSceneLogin      = "login"       // 买家登录
	CaptchaSceneAdminLogin = "admin_login" // 后台登录
)

// 后台审计动作常量
const (
	AuditActionSaleConfirm      = "sale_confirm"
	AuditActionSaleCancel       = "sale_cancel"
	AuditActionCommissionPay    = "commission_pay"
	AuditActionCommissionCancel = "commission_cancel"
	AuditActionAffiliateStatus  = "affiliate_status"
	AuditActionSettingUpdate    = "setting_update"
)

// 队列常量
const (
	QueueDefault            = "default"
	QueueCritical           = "critical"
	TaskLeadSubmitted       = "lead:submitted"
	TaskAffiliateClick      = "affiliate:click"
	TaskSaleConfirmed       = "sale:confirmed"
	TaskInvestmentPixExpire = "investment:pix_expire"
)

// 事件类型常量
const (
	EventLeadSubmitted  = "lead.submitted"
	EventSaleConfirmed  = "sale.confirmed"
	EventAffiliateClick = "affiliate.click"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "agd"
)

// 设置键常量
const (
	SettingKeyCommissionConfig = "commission_config"
	SettingKeyCaptchaConfig    = "captcha_config"
)

// 币种常量
const (
	SiteCurrencyDefault = "BRL"
)

// 站点语言常量
const (
	LocalePtBR = "pt-BR"
	LocaleEnUS = "en-US"
	LocaleEsES = "es-ES"
)

// 支持的站点语言顺序（首位为默认语言）
var SupportedLocales = []string{LocalePtBR, LocaleEnUS, LocaleEsES}
