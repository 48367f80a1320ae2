package models

// Kind names a numeric UserRecord field that the ledger can move.
type Kind string

const (
	KindXP                      Kind = "xp"
	KindWeeklyXP                Kind = "weekly_xp"
	KindStoreCredit             Kind = "store_credit"
	KindMessageCount            Kind = "message_count"
	KindPurchaseCount           Kind = "purchase_count"
	KindPurchaseTotalValue      Kind = "purchase_total_value"
	KindWarnings                Kind = "warnings"
	KindReferralCount           Kind = "referral_count"
	KindAffiliateEarnings       Kind = "affiliate_earnings"
	KindWeeklyAffiliateEarnings Kind = "weekly_affiliate_earnings"
	KindAffiliateSaleCount      Kind = "affiliate_sale_count"
	KindCashoutCount            Kind = "cashout_count"
)

// Kinds lists every ledger kind.
var Kinds = []Kind{
	KindXP, KindWeeklyXP, KindStoreCredit, KindMessageCount, KindPurchaseCount,
	KindPurchaseTotalValue, KindWarnings, KindReferralCount, KindAffiliateEarnings,
	KindWeeklyAffiliateEarnings, KindAffiliateSaleCount, KindCashoutCount,
}

// Transaction is an immutable log entry. Amount is a delta, never an absolute value.
type Transaction struct {
	Timestamp   int64   `json:"timestamp"`
	Kind        Kind    `json:"kind"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}
