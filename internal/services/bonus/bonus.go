package bonus

import (
	"github.com/MyelinBots/resellboost-go/config"
	"github.com/MyelinBots/resellboost-go/internal/models"
)

// Resolver turns a user's tier, boosts, subscription and loyalty state into effective rates.
// It has no side effects; now is always passed in as a unix timestamp.
type Resolver struct {
	cfg config.GamificationConfig
}

func New(cfg config.GamificationConfig) *Resolver {
	return &Resolver{cfg: cfg}
}

// highest returns the last tier whose threshold is <= value. tiers must be sorted ascending.
func highest[T any](tiers []T, threshold func(T) int, value int) (T, bool) {
	var best T
	found := false
	for _, t := range tiers {
		if threshold(t) > value {
			break
		}
		best, found = t, true
	}
	return best, found
}

func (r *Resolver) PrestigeXPBonus(level int) float64 {
	t, ok := highest(r.cfg.PrestigeBonuses, func(t config.LevelBonus) int { return t.Level }, level)
	if !ok {
		return 0
	}
	return t.Bonus
}

func (r *Resolver) VIPTierForPeriods(periods int) (config.VIPTier, bool) {
	return highest(r.cfg.VIP.Tiers, func(t config.VIPTier) int { return t.Periods }, periods)
}

func (r *Resolver) activeVIPTier(u *models.UserRecord, now int64) (config.VIPTier, bool) {
	if !u.VIPPremium.Active(now) {
		return config.VIPTier{}, false
	}
	return r.VIPTierForPeriods(u.VIPPremium.ConsecutivePeriods)
}

func (r *Resolver) VIPXPBonus(u *models.UserRecord, now int64) float64 {
	t, _ := r.activeVIPTier(u, now)
	return t.XPBoost
}

func (r *Resolver) VIPCommissionBonus(u *models.UserRecord, now int64) float64 {
	t, _ := r.activeVIPTier(u, now)
	return t.CommissionBonus
}

// ActiveXPBoosts sums every non-expired XP boost. XP boosts stack.
func (r *Resolver) ActiveXPBoosts(u *models.UserRecord, now int64) float64 {
	var sum float64
	for _, b := range u.ActiveBoosts {
		if b.Kind == models.BoostXP && b.Active(now) {
			sum += b.Rate
		}
	}
	return sum
}

// XPMultiplier is 1 + prestige + VIP + loyalty + active XP boosts.
func (r *Resolver) XPMultiplier(u *models.UserRecord, now int64) float64 {
	return 1 + r.PrestigeXPBonus(u.Level) + r.VIPXPBonus(u, now) + u.LoyaltyXPBonus + r.ActiveXPBoosts(u, now)
}

func (r *Resolver) bestCommissionBoost(u *models.UserRecord, now int64, source models.BoostSource) float64 {
	var best float64
	for _, b := range u.ActiveBoosts {
		if b.Kind == models.BoostCommission && b.Source == source && b.Active(now) && b.Rate > best {
			best = b.Rate
		}
	}
	return best
}

func (r *Resolver) LeaderboardBooster(u *models.UserRecord, now int64) float64 {
	return r.bestCommissionBoost(u, now, models.SourceLeaderboard)
}

func (r *Resolver) ShopCommissionBooster(u *models.UserRecord, now int64) float64 {
	return r.bestCommissionBoost(u, now, models.SourceShop)
}

// BestTemporaryCommissionBooster picks the single largest temporary booster; they never add up.
func (r *Resolver) BestTemporaryCommissionBooster(u *models.UserRecord, now int64) float64 {
	return max(r.LeaderboardBooster(u, now), r.ShopCommissionBooster(u, now))
}

func (r *Resolver) BaseCommissionRate(level int) float64 {
	t, ok := highest(r.cfg.Affiliate.CommissionByLevel, func(t config.CommissionTier) int { return t.Level }, level)
	if !ok {
		return 0
	}
	return t.Rate
}

// NextCommissionTier returns the first tier above level, for level-up previews.
func (r *Resolver) NextCommissionTier(level int) (config.CommissionTier, bool) {
	for _, t := range r.cfg.Affiliate.CommissionByLevel {
		if t.Level > level {
			return t, true
		}
	}
	return config.CommissionTier{}, false
}

// Rates is the breakdown behind a total commission rate.
type Rates struct {
	Base      float64
	Temporary float64
	Loyalty   float64
	VIP       float64
}

func (r Rates) Total() float64 {
	return r.Base + r.Temporary + r.Loyalty + r.VIP
}

func (r *Resolver) CommissionRates(referrer *models.UserRecord, now int64) Rates {
	return Rates{
		Base:      r.BaseCommissionRate(referrer.Level),
		Temporary: r.BestTemporaryCommissionBooster(referrer, now),
		Loyalty:   referrer.LoyaltyCommissionBonus,
		VIP:       r.VIPCommissionBonus(referrer, now),
	}
}

// TotalCommissionRate adds base, best temporary booster, loyalty and VIP bonuses.
func (r *Resolver) TotalCommissionRate(referrer *models.UserRecord, now int64) float64 {
	return r.CommissionRates(referrer, now).Total()
}

// CashoutMinimum returns the minimum credits a user of level may cash out, and false
// when the level is below every configured tier.
func (r *Resolver) CashoutMinimum(level int) (float64, bool) {
	if level < r.cfg.Cashout.MinLevel {
		return 0, false
	}
	t, ok := highest(r.cfg.Cashout.Tiers, func(t config.CashoutTier) int { return t.Level }, level)
	if !ok {
		return 0, false
	}
	return t.MinCredits, true
}

func (r *Resolver) LeaderboardBoosterForRank(rank int) (float64, bool) {
	for _, b := range r.cfg.Affiliate.LeaderboardBoosters {
		if b.Rank == rank {
			return b.Rate, true
		}
	}
	return 0, false
}
