package subscription

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/bonus"
	"github.com/MyelinBots/resellboost-go/internal/services/ledger"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"github.com/MyelinBots/resellboost-go/internal/services/platform/mocks"
	"github.com/MyelinBots/resellboost-go/internal/services/platform/platformtest"
	"github.com/MyelinBots/resellboost-go/internal/store"
	"go.uber.org/mock/gomock"
)

var roles = config.RolesConfig{Premium: "premium", Loyalty: "loyalty", AffiliatePro: "affpro"}

func testConfig() config.GamificationConfig {
	return config.GamificationConfig{
		Affiliate: config.AffiliateConfig{
			LeaderboardBoosters:    []config.LeaderboardBooster{{Rank: 1, Rate: 0.08}, {Rank: 2, Rate: 0.05}},
			LeaderboardBoosterDays: 7,
		},
		VIP: config.VIPConfig{
			Tiers: []config.VIPTier{
				{Periods: 1, CommissionBonus: 0.02, XPBoost: 0.10},
				{Periods: 3, CommissionBonus: 0.04, XPBoost: 0.20},
			},
			PeriodDays: 30,
		},
		AffiliatePro:      config.AffiliateProConfig{Rate: 0.05, PeriodDays: 30},
		TransactionLogMax: 50,
	}
}

type fixture struct {
	monitor *Monitor
	store   *store.Store
	rec     *platformtest.Recorder
	now     time.Time
}

func newFixture(t *testing.T, p platform.Platform) *fixture {
	t.Helper()
	f := &fixture{now: time.Unix(1_700_000_000, 0)}
	clock := func() time.Time { return f.now }
	if p == nil {
		f.rec = platformtest.New()
		p = f.rec
	}
	cfg := testConfig()
	f.store = store.New(store.NewMemoryBackend(), nil).WithClock(clock)
	l := ledger.New(f.store, cfg.TransactionLogMax).WithClock(clock)
	f.monitor = New(cfg, roles, f.store, l, bonus.New(cfg), platform.NewNotifier(p, nil), nil).WithClock(clock)
	return f
}

func TestActivateVIPRenewals(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	start := f.now.Unix()

	e, err := f.monitor.ActivateVIP(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if e.ConsecutivePeriods != 1 || e.EndTimestamp != start+30*day {
		t.Fatalf("first activation = %+v", e)
	}
	if !f.rec.HasRole("1", "premium") {
		t.Error("premium role not granted")
	}

	f.now = f.now.Add(10 * 24 * time.Hour)
	e, _ = f.monitor.ActivateVIP(ctx, "1")
	if e.ConsecutivePeriods != 2 || e.EndTimestamp != start+60*day {
		t.Errorf("renewal before expiry = %+v, want 2 periods ending at +60d", e)
	}

	f.now = time.Unix(start+61*day, 0)
	e, _ = f.monitor.ActivateVIP(ctx, "1")
	if e.ConsecutivePeriods != 1 || e.EndTimestamp != f.now.Unix()+30*day {
		t.Errorf("renewal after lapse = %+v, want a fresh streak", e)
	}
	u, _ := f.store.User("1")
	if u.LoyaltyCommissionBonus != 0.01 || u.LoyaltyXPBonus != 0.05 {
		t.Errorf("lapsed streak left loyalty %v/%v, want 0.01/0.05", u.LoyaltyCommissionBonus, u.LoyaltyXPBonus)
	}
}

func TestShorterLaterStreakKeepsLoyalty(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.monitor.ActivateVIP(ctx, "1"); err != nil {
			t.Fatal(err)
		}
	}
	u, _ := f.store.User("1")
	f.now = time.Unix(u.VIPPremium.EndTimestamp+1, 0)
	if _, err := f.monitor.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	if u.LoyaltyCommissionBonus != 0.02 || u.LoyaltyXPBonus != 0.10 {
		t.Fatalf("after three periods loyalty = %v/%v, want 0.02/0.10", u.LoyaltyCommissionBonus, u.LoyaltyXPBonus)
	}

	if _, err := f.monitor.ActivateVIP(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	f.now = time.Unix(u.VIPPremium.EndTimestamp+1, 0)
	if _, err := f.monitor.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	if u.VIPPremium != nil {
		t.Fatalf("vip still set: %+v", u.VIPPremium)
	}
	if u.LoyaltyCommissionBonus != 0.02 || u.LoyaltyXPBonus != 0.10 {
		t.Errorf("single period lowered loyalty to %v/%v, want 0.02/0.10", u.LoyaltyCommissionBonus, u.LoyaltyXPBonus)
	}
}

func TestSweepConvertsLapsedVIPToLoyalty(t *testing.T) {
	tests := []struct {
		name           string
		periods        int
		prevCommission float64
		wantCommission float64
		wantXP         float64
	}{
		{"single period", 1, 0, 0.01, 0.05},
		{"long streak", 4, 0, 0.02, 0.10},
		{"loyalty never shrinks", 1, 0.03, 0.03, 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			u := f.store.GetOrCreateUser("1")
			u.LoyaltyCommissionBonus = tt.prevCommission
			u.VIPPremium = &models.Entitlement{EndTimestamp: f.now.Unix() - 1, ConsecutivePeriods: tt.periods}
			_ = f.rec.AddRole(context.Background(), "1", "premium")

			res, err := f.monitor.Sweep(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if res.VIPLapsed != 1 {
				t.Errorf("VIPLapsed = %d, want 1", res.VIPLapsed)
			}
			if u.VIPPremium != nil {
				t.Error("vip entitlement not cleared")
			}
			if u.LoyaltyCommissionBonus != tt.wantCommission || u.LoyaltyXPBonus != tt.wantXP {
				t.Errorf("loyalty = %v/%v, want %v/%v", u.LoyaltyCommissionBonus, u.LoyaltyXPBonus, tt.wantCommission, tt.wantXP)
			}
			if f.rec.HasRole("1", "premium") || !f.rec.HasRole("1", "loyalty") {
				t.Error("premium role not swapped for loyalty")
			}
		})
	}
}

func TestSweepSwapsRoles(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)
	gomock.InOrder(
		p.EXPECT().RemoveRole(gomock.Any(), "1", "premium").Return(nil),
		p.EXPECT().AddRole(gomock.Any(), "1", "loyalty").Return(nil),
	)
	p.EXPECT().RemoveRole(gomock.Any(), "2", "affpro").Return(nil)
	p.EXPECT().SendDirectMessage(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("dms closed")).AnyTimes()

	f := newFixture(t, p)
	f.store.GetOrCreateUser("1").VIPPremium = &models.Entitlement{EndTimestamp: f.now.Unix() - 1, ConsecutivePeriods: 1}
	f.store.GetOrCreateUser("2").AffiliatePro = &models.Entitlement{EndTimestamp: f.now.Unix() - 1, ConsecutivePeriods: 2}
	f.store.GetOrCreateUser("3").AffiliatePro = &models.Entitlement{EndTimestamp: f.now.Unix() + 100, ConsecutivePeriods: 1}

	res, err := f.monitor.Sweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.VIPLapsed != 1 || res.AffiliateProLapsed != 1 {
		t.Errorf("result = %+v", res)
	}
	if u, _ := f.store.User("3"); u.AffiliatePro == nil {
		t.Error("active affiliate pro was cleared")
	}
}

func TestSweepPrunesBoostsAndIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	now := f.now.Unix()
	u := f.store.GetOrCreateUser("1")
	u.ActiveBoosts = []models.Boost{
		{Kind: models.BoostXP, Source: models.SourceShop, Rate: 0.1, ExpiresAt: now - 10},
		{Kind: models.BoostCommission, Source: models.SourceShop, Rate: 0.1, ExpiresAt: now + 10},
	}

	res, _ := f.monitor.Sweep(context.Background())
	if res.BoostsPruned != 1 || len(u.ActiveBoosts) != 1 {
		t.Errorf("pruned=%d remaining=%d, want 1 1", res.BoostsPruned, len(u.ActiveBoosts))
	}
	res, _ = f.monitor.Sweep(context.Background())
	if res != (SweepResult{}) {
		t.Errorf("second sweep = %+v, want no changes", res)
	}
}

func TestAffiliateProActivation(t *testing.T) {
	f := newFixture(t, nil)
	e, err := f.monitor.ActivateAffiliatePro(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}
	if e.ConsecutivePeriods != 1 || !f.rec.HasRole("1", "affpro") {
		t.Errorf("activation = %+v role=%v", e, f.rec.HasRole("1", "affpro"))
	}
}

func TestAddBooster(t *testing.T) {
	f := newFixture(t, nil)
	b, err := f.monitor.AddBooster(context.Background(), "1", models.BoostXP, models.SourceShop, 0.25, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if b.ExpiresAt != f.now.Add(time.Hour).Unix() {
		t.Errorf("ExpiresAt = %d", b.ExpiresAt)
	}
	for _, rate := range []float64{0, math.NaN(), math.Inf(1)} {
		if _, err := f.monitor.AddBooster(context.Background(), "1", models.BoostXP, models.SourceShop, rate, time.Hour); !errors.Is(err, ErrInvalidBooster) {
			t.Errorf("rate %v: err = %v, want ErrInvalidBooster", rate, err)
		}
	}
	u, _ := f.store.User("1")
	if len(u.ActiveBoosts) != 1 {
		t.Errorf("boosts = %+v, want only the valid one", u.ActiveBoosts)
	}
	if err := f.store.SaveUsers(context.Background()); err != nil {
		t.Errorf("users document no longer encodes: %v", err)
	}
}

func TestWeeklyRollover(t *testing.T) {
	f := newFixture(t, nil)
	earnings := map[string]float64{"a": 50, "b": 30, "c": 10}
	for id, v := range earnings {
		u := f.store.GetOrCreateUser(id)
		u.WeeklyAffiliateEarnings = v
		u.AffiliateEarnings = v
		u.WeeklyXP = 120
		u.XP = 500
	}
	f.store.PutGuild(&models.GuildRecord{ID: "g", Name: "G", TotalXP: 900, WeeklyXP: 300})

	res, err := f.monitor.WeeklyRollover(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Winners) != 2 || res.Winners[0].UserID != "a" || res.Winners[1].UserID != "b" {
		t.Fatalf("winners = %+v", res.Winners)
	}
	if res.Reset != 3 {
		t.Errorf("Reset = %d, want 3", res.Reset)
	}

	a, _ := f.store.User("a")
	if len(a.ActiveBoosts) != 1 || a.ActiveBoosts[0].Rate != 0.08 || a.ActiveBoosts[0].Source != models.SourceLeaderboard {
		t.Errorf("rank 1 boosters = %+v", a.ActiveBoosts)
	}
	c, _ := f.store.User("c")
	if len(c.ActiveBoosts) != 0 {
		t.Errorf("rank 3 got a booster: %+v", c.ActiveBoosts)
	}

	for _, u := range f.store.Users() {
		if u.WeeklyXP != 0 || u.WeeklyAffiliateEarnings != 0 {
			t.Errorf("user %s weekly counters not reset", u.ID)
		}
		if u.XP != 500 || u.AffiliateEarnings != earnings[u.ID] {
			t.Errorf("user %s lifetime counters changed", u.ID)
		}
		if len(u.TransactionLog) != 2 {
			t.Errorf("user %s has %d log entries, want 2 reset entries", u.ID, len(u.TransactionLog))
		}
	}
	g, _ := f.store.Guild("g")
	if g.WeeklyXP != 0 || g.TotalXP != 900 {
		t.Errorf("guild xp weekly=%d total=%d", g.WeeklyXP, g.TotalXP)
	}
}
