package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/MyelinBots/resellboost-go/internal/metrics"
	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/bonus"
	"github.com/MyelinBots/resellboost-go/internal/services/ledger"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"github.com/MyelinBots/resellboost-go/internal/store"
	"go.uber.org/zap"
)

const day = int64(24 * time.Hour / time.Second)

var ErrInvalidBooster = errors.New("booster rate and duration must be positive")

// Monitor owns time boxed entitlements and boosters: activation, expiry and the weekly rollover.
// It must only be called from the serialized command queue.
type Monitor struct {
	cfg    config.GamificationConfig
	roles  config.RolesConfig
	repo   store.Repository
	ledger *ledger.Ledger
	bonus  *bonus.Resolver
	notify *platform.Notifier
	log    *zap.Logger
	now    func() time.Time
}

func New(
	cfg config.GamificationConfig,
	roles config.RolesConfig,
	repo store.Repository,
	l *ledger.Ledger,
	b *bonus.Resolver,
	n *platform.Notifier,
	log *zap.Logger,
) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{cfg: cfg, roles: roles, repo: repo, ledger: l, bonus: b, notify: n, log: log, now: time.Now}
}

func (m *Monitor) WithClock(now func() time.Time) *Monitor {
	m.now = now
	return m
}

// renew extends e by one period. A renewal before expiry counts as consecutive;
// anything else starts a new streak at 1.
func renew(e *models.Entitlement, now int64, periodDays int) *models.Entitlement {
	length := int64(periodDays) * day
	if e.Active(now) {
		return &models.Entitlement{EndTimestamp: e.EndTimestamp + length, ConsecutivePeriods: e.ConsecutivePeriods + 1}
	}
	return &models.Entitlement{EndTimestamp: now + length, ConsecutivePeriods: 1}
}

// ActivateVIP starts or renews one VIP premium period for userID.
func (m *Monitor) ActivateVIP(ctx context.Context, userID string) (*models.Entitlement, error) {
	u := m.repo.GetOrCreateUser(userID)
	now := m.now().Unix()
	if u.VIPPremium != nil && !u.VIPPremium.Active(now) {
		m.lapseVIP(ctx, u)
	}
	u.VIPPremium = renew(u.VIPPremium, now, m.cfg.VIP.PeriodDays)
	m.notify.AddRole(ctx, u.ID, m.roles.Premium)

	tier, _ := m.bonus.VIPTierForPeriods(u.VIPPremium.ConsecutivePeriods)
	m.log.Info("vip activated",
		zap.String("user_id", u.ID),
		zap.Int("consecutive_periods", u.VIPPremium.ConsecutivePeriods),
		zap.Int64("end", u.VIPPremium.EndTimestamp))
	m.notify.DM(ctx, u.ID, fmt.Sprintf("👑 VIP Premium active until <t:%d:D> (%d consecutive periods): +%.0f%% XP, +%.0f%% commission.",
		u.VIPPremium.EndTimestamp, u.VIPPremium.ConsecutivePeriods, tier.XPBoost*100, tier.CommissionBonus*100))
	return u.VIPPremium, m.repo.SaveUsers(ctx)
}

// ActivateAffiliatePro starts or renews one affiliate pro period for userID.
func (m *Monitor) ActivateAffiliatePro(ctx context.Context, userID string) (*models.Entitlement, error) {
	u := m.repo.GetOrCreateUser(userID)
	u.AffiliatePro = renew(u.AffiliatePro, m.now().Unix(), m.cfg.AffiliatePro.PeriodDays)
	m.notify.AddRole(ctx, u.ID, m.roles.AffiliatePro)

	m.log.Info("affiliate pro activated",
		zap.String("user_id", u.ID),
		zap.Int("consecutive_periods", u.AffiliatePro.ConsecutivePeriods),
		zap.Int64("end", u.AffiliatePro.EndTimestamp))
	m.notify.DM(ctx, u.ID, fmt.Sprintf("💼 Affiliate Pro active until <t:%d:D>. You now earn %.0f%% on your referrals' cashouts.",
		u.AffiliatePro.EndTimestamp, m.cfg.AffiliatePro.Rate*100))
	return u.AffiliatePro, m.repo.SaveUsers(ctx)
}

// lapseVIP turns an expired VIP subscription into a permanent loyalty bonus worth half of
// its best tier. Loyalty never goes down.
func (m *Monitor) lapseVIP(ctx context.Context, u *models.UserRecord) {
	periods := u.VIPPremium.ConsecutivePeriods
	if tier, ok := m.bonus.VIPTierForPeriods(periods); ok {
		u.LoyaltyCommissionBonus = max(u.LoyaltyCommissionBonus, tier.CommissionBonus/2)
		u.LoyaltyXPBonus = max(u.LoyaltyXPBonus, tier.XPBoost/2)
	}
	u.VIPPremium = nil
	m.notify.RemoveRole(ctx, u.ID, m.roles.Premium)
	m.notify.AddRole(ctx, u.ID, m.roles.Loyalty)
	metrics.SubscriptionLapses.WithLabelValues("vip").Inc()

	m.log.Info("vip lapsed",
		zap.String("user_id", u.ID),
		zap.Int("consecutive_periods", periods),
		zap.Float64("loyalty_commission_bonus", u.LoyaltyCommissionBonus),
		zap.Float64("loyalty_xp_bonus", u.LoyaltyXPBonus))
	m.notify.DM(ctx, u.ID, fmt.Sprintf("⌛ Your VIP Premium expired. Thanks for your loyalty: you keep +%.1f%% XP and +%.1f%% commission for good.",
		u.LoyaltyXPBonus*100, u.LoyaltyCommissionBonus*100))
}

func (m *Monitor) lapseAffiliatePro(ctx context.Context, u *models.UserRecord) {
	u.AffiliatePro = nil
	m.notify.RemoveRole(ctx, u.ID, m.roles.AffiliatePro)
	metrics.SubscriptionLapses.WithLabelValues("affiliate_pro").Inc()
	m.log.Info("affiliate pro lapsed", zap.String("user_id", u.ID))
	m.notify.DM(ctx, u.ID, "⌛ Your Affiliate Pro subscription expired.")
}

// SweepResult counts what one Sweep changed.
type SweepResult struct {
	VIPLapsed          int
	AffiliateProLapsed int
	BoostsPruned       int
}

// Sweep processes every expired entitlement and prunes expired boosters.
func (m *Monitor) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := m.now().Unix()
	for _, u := range m.repo.Users() {
		if u.VIPPremium != nil && !u.VIPPremium.Active(now) {
			m.lapseVIP(ctx, u)
			res.VIPLapsed++
		}
		if u.AffiliatePro != nil && !u.AffiliatePro.Active(now) {
			m.lapseAffiliatePro(ctx, u)
			res.AffiliateProLapsed++
		}
		res.BoostsPruned += u.PruneBoosts(now)
	}

	if res == (SweepResult{}) {
		return res, nil
	}
	m.log.Info("subscription sweep",
		zap.Int("vip_lapsed", res.VIPLapsed),
		zap.Int("affiliate_pro_lapsed", res.AffiliateProLapsed),
		zap.Int("boosts_pruned", res.BoostsPruned))
	return res, m.repo.SaveUsers(ctx)
}

// AddBooster grants a temporary XP or commission booster.
func (m *Monitor) AddBooster(ctx context.Context, userID string, kind models.BoostKind, source models.BoostSource, rate float64, d time.Duration) (models.Boost, error) {
	if !ledger.Finite(rate) || rate <= 0 || d <= 0 {
		return models.Boost{}, ErrInvalidBooster
	}
	u := m.repo.GetOrCreateUser(userID)
	b := models.Boost{Kind: kind, Source: source, Rate: rate, ExpiresAt: m.now().Add(d).Unix()}
	u.ActiveBoosts = append(u.ActiveBoosts, b)
	m.log.Info("booster added",
		zap.String("user_id", u.ID),
		zap.String("kind", string(kind)),
		zap.String("source", string(source)),
		zap.Float64("rate", rate),
		zap.Int64("expires_at", b.ExpiresAt))
	m.notify.DM(ctx, u.ID, fmt.Sprintf("⚡ +%.0f%% %s booster active until <t:%d:f>.", rate*100, kind, b.ExpiresAt))
	return b, m.repo.SaveUsers(ctx)
}
