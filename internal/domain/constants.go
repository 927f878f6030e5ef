package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

const (
	InvestmentActive    = "active"
	InvestmentCompleted = "completed"
	InvestmentCancelled = "cancelled"
)

// Payment and withdrawal requests share one state machine: pending -> approved | rejected.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

const (
	PaymentMethodMobileMoney = "mobile_money"
	PaymentMethodManual      = "manual"
)

const (
	PaymentTypeActivation   = "activation"
	PaymentTypeTopUp        = "top_up"
	PaymentTypeManualCredit = "manual_credit"
)

// Ledger entry types. Amounts are signed: credits positive, debits negative.
const (
	LedgerDeposit            = "DEPOSIT"
	LedgerManualCredit       = "MANUAL_CREDIT"
	LedgerInvestment         = "INVESTMENT"
	LedgerMaturityPayout     = "MATURITY_PAYOUT"
	LedgerWithdrawal         = "WITHDRAWAL"
	LedgerWithdrawalReversal = "WITHDRAWAL_REVERSAL"
	LedgerReferralBonus      = "REFERRAL_BONUS"
)

const (
	NotifyPaymentApproved    = "PAYMENT_APPROVED"
	NotifyPaymentRejected    = "PAYMENT_REJECTED"
	NotifyManualCredit       = "MANUAL_CREDIT"
	NotifyInvestmentMatured  = "INVESTMENT_MATURED"
	NotifyWithdrawalApproved = "WITHDRAWAL_APPROVED"
	NotifyWithdrawalRejected = "WITHDRAWAL_REJECTED"
	NotifyReferralBonus      = "REFERRAL_BONUS"
	NotifyAccountStatus      = "ACCOUNT_STATUS"
)

// System setting keys.
const (
	SettingMinWithdrawal        = "min_withdrawal"
	SettingWithdrawalFeePercent = "withdrawal_fee_percent"
	SettingReferralsRequired    = "referrals_required"
	SettingReferralBonus        = "referral_bonus"
)

const (
	ActorAccount = "account"
	ActorAdmin   = "admin"
)

const ReferralCodeLength = 6
