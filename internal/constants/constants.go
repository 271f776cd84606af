package constants

// 联盟网络常量
const (
	NetworkCuelinks    = "cuelinks"
	NetworkTrackier    = "trackier"
	NetworkVcommission = "vcommission"
	NetworkExtrape     = "extrape"
	NetworkRealcash    = "realcash"
	NetworkManual      = "manual"
)

// 交易状态常量（钱包口径三态 + 人工复核）
const (
	TransactionStatusPending     = "pending"
	TransactionStatusConfirmed   = "confirmed"
	TransactionStatusCancelled   = "cancelled"
	TransactionStatusUnderReview = "under_review"
)

// 佣金状态常量
const (
	CommissionStatusPending  = "pending"
	CommissionStatusApproved = "approved"
	CommissionStatusPaid     = "paid"
	CommissionStatusReversed = "reversed"
	CommissionStatusRejected = "rejected"
)

// 佣金计算方式
const (
	CommissionTypePercentage = "percentage"
	CommissionTypeFixed      = "fixed"
)

// 命中规则来源
const (
	CommissionRuleProductOverride = "product_override"
	CommissionRuleStoreCategory   = "store_category"
	CommissionRuleGlobalCategory  = "global_category"
	CommissionRuleStoreDefault    = "store_default"
	CommissionRuleNetworkReported = "network_reported"
)

// 回调事件状态常量
const (
	WebhookEventStatusReceived  = "received"
	WebhookEventStatusProcessed = "processed"
	WebhookEventStatusError     = "error"
)

// 回调事件类型
const (
	WebhookEventTypeConversion = "conversion"
)

// 邀请奖励状态常量
const (
	ReferralRewardStatusCredited = "credited"
	ReferralRewardStatusReversed = "reversed"
)

// 邀请奖励计算方式
const (
	ReferralBonusTypePercentage = "percentage"
	ReferralBonusTypeFixed      = "fixed"
)

// 推广链接生成模式
const (
	LinkModeEager = "eager"
	LinkModeLazy  = "lazy"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 管理员角色
const (
	AdminRoleSuper    = "super_admin"
	AdminRoleFinance  = "finance"
	AdminRoleOps      = "operations"
	AdminRoleAuditor  = "readonly_auditor"
	AdminRoleFallback = AdminRoleAuditor
)

// 设置键
const (
	SettingKeyReferralBonus = "referral_bonus"
)

// 队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskNotifyDispatch    = "notify:dispatch"
	TaskCommissionProcess = "commission:process"
)

// 通知事件类型
const (
	NotifyEventConversionRecorded = "conversion.recorded"
	NotifyEventTransactionStatus  = "transaction.status_changed"
	NotifyEventProviderConfig     = "ops.provider_config_missing"
	NotifyEventProviderAuth       = "ops.provider_auth_failed"
	NotifyEventTransitionRejected = "ops.transition_rejected"
	NotifyEventWebhookStale       = "ops.webhook_stale"
)

// 通知级别
const (
	NotifyLevelInfo  = "info"
	NotifyLevelWarn  = "warn"
	NotifyLevelError = "error"
)
