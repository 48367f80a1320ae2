package models

type BoostKind string

const (
	BoostXP         BoostKind = "xp"
	BoostCommission BoostKind = "commission"
)

type BoostSource string

const (
	SourceShop        BoostSource = "shop"
	SourceLeaderboard BoostSource = "leaderboard"
)

// Boost is a time limited rate bonus. It is inert once ExpiresAt has passed.
type Boost struct {
	Kind      BoostKind   `json:"kind"`
	Source    BoostSource `json:"source"`
	Rate      float64     `json:"rate"`
	ExpiresAt int64       `json:"expires_at"`
}

func (b Boost) Active(now int64) bool {
	return b.ExpiresAt > now
}

// Entitlement is a time boxed subscription such as VIP premium or affiliate pro.
type Entitlement struct {
	EndTimestamp       int64 `json:"end_timestamp"`
	ConsecutivePeriods int   `json:"consecutive_periods"`
}

// Active reports whether e is set and not yet expired.
func (e *Entitlement) Active(now int64) bool {
	return e != nil && e.EndTimestamp > now
}

type PrestigeChallenge struct {
	ID          string `json:"id"`
	Level       int    `json:"level"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Mission struct {
	ID         string `json:"id"`
	Metric     string `json:"metric"`
	Target     int    `json:"target"`
	Progress   int    `json:"progress"`
	RewardXP   int    `json:"reward_xp"`
	AssignedAt int64  `json:"assigned_at"`
}

type UserRecord struct {
	ID string `json:"id"`

	XP                      int64   `json:"xp"`
	Level                   int     `json:"level"`
	WeeklyXP                int64   `json:"weekly_xp"`
	StoreCredit             float64 `json:"store_credit"`
	MessageCount            int64   `json:"message_count"`
	PurchaseCount           int64   `json:"purchase_count"`
	PurchaseTotalValue      float64 `json:"purchase_total_value"`
	Warnings                int64   `json:"warnings"`
	ReferralCount           int64   `json:"referral_count"`
	AffiliateEarnings       float64 `json:"affiliate_earnings"`
	WeeklyAffiliateEarnings float64 `json:"weekly_affiliate_earnings"`
	AffiliateSaleCount      int64   `json:"affiliate_sale_count"`
	CashoutCount            int64   `json:"cashout_count"`

	JoinedAt      int64 `json:"joined_at"`
	LastMessageAt int64 `json:"last_message_at"`

	ReferrerID               string             `json:"referrer_id,omitempty"`
	ReferralMilestonePaid    bool               `json:"referral_milestone_paid"`
	GuildID                  string             `json:"guild_id,omitempty"`
	XPGated                  bool               `json:"xp_gated"`
	CurrentPrestigeChallenge *PrestigeChallenge `json:"current_prestige_challenge"`

	Achievements        []string      `json:"achievements"`
	ActiveBoosts        []Boost       `json:"active_boosts"`
	CompletedChallenges []string      `json:"completed_challenges"`
	TransactionLog      []Transaction `json:"transaction_log"`
	ActiveMission       *Mission      `json:"active_mission,omitempty"`

	VIPPremium   *Entitlement `json:"vip_premium"`
	AffiliatePro *Entitlement `json:"affiliate_pro"`

	LoyaltyCommissionBonus float64 `json:"loyalty_commission_bonus"`
	LoyaltyXPBonus         float64 `json:"loyalty_xp_bonus"`
}

// NewUserRecord returns the zero state for a member seen for the first time.
func NewUserRecord(id string, now int64) *UserRecord {
	return &UserRecord{
		ID:                  id,
		Level:               1,
		JoinedAt:            now,
		Achievements:        []string{},
		ActiveBoosts:        []Boost{},
		CompletedChallenges: []string{},
		TransactionLog:      []Transaction{},
	}
}

func (u *UserRecord) HasAchievement(id string) bool {
	return contains(u.Achievements, id)
}

// AddAchievement records id and reports whether it was new.
func (u *UserRecord) AddAchievement(id string) bool {
	if u.HasAchievement(id) {
		return false
	}
	u.Achievements = append(u.Achievements, id)
	return true
}

func (u *UserRecord) HasCompletedChallenge(id string) bool {
	return contains(u.CompletedChallenges, id)
}

func (u *UserRecord) CompleteChallenge(id string) {
	if !u.HasCompletedChallenge(id) {
		u.CompletedChallenges = append(u.CompletedChallenges, id)
	}
}

// PruneBoosts drops expired boosts and returns how many were removed.
func (u *UserRecord) PruneBoosts(now int64) int {
	kept := u.ActiveBoosts[:0]
	for _, b := range u.ActiveBoosts {
		if b.Active(now) {
			kept = append(kept, b)
		}
	}
	removed := len(u.ActiveBoosts) - len(kept)
	u.ActiveBoosts = kept
	return removed
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
