package commission

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/achievements"
	"github.com/MyelinBots/resellboost-go/internal/services/bonus"
	"github.com/MyelinBots/resellboost-go/internal/services/ledger"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"github.com/MyelinBots/resellboost-go/internal/services/platform/mocks"
	"github.com/MyelinBots/resellboost-go/internal/services/platform/platformtest"
	"github.com/MyelinBots/resellboost-go/internal/services/progression"
	"github.com/MyelinBots/resellboost-go/internal/store"
	"go.uber.org/mock/gomock"
)

var epoch = time.Unix(1_700_000_000, 0)

func testConfig() config.GamificationConfig {
	return config.GamificationConfig{
		XP: config.XPConfig{BaseXP: 100, Multiplier: 1.5, PurchaseXPPerUnit: 10},
		Affiliate: config.AffiliateConfig{
			CommissionByLevel: []config.CommissionTier{{Level: 1, Rate: 0.05}, {Level: 5, Rate: 0.10}},
			MarginPolicy:      config.MarginGross,
		},
		AffiliatePro:      config.AffiliateProConfig{Rate: 0.05},
		Cashout:           config.CashoutConfig{EuroPerCredit: 0.5, MinLevel: 1, Tiers: []config.CashoutTier{{Level: 1, MinCredits: 20}}},
		TransactionLogMax: 100,
	}
}

func newEngine(t *testing.T, cfg config.GamificationConfig, p platform.Platform) (*Engine, *store.Store) {
	t.Helper()
	clock := func() time.Time { return epoch }
	s := store.New(store.NewMemoryBackend(), nil).WithClock(clock)
	l := ledger.New(s, cfg.TransactionLogMax).WithClock(clock)
	b := bonus.New(cfg)
	n := platform.NewNotifier(p, nil)
	a := achievements.NewTracker(n, nil)
	prog := progression.New(cfg, "levelup", s, l, b, n, a, nil).WithClock(clock)
	return New(cfg, "approvals", s, l, b, prog, n, a, nil).WithClock(clock), s
}

func TestCommissionUsesLargestTemporaryBooster(t *testing.T) {
	e, s := newEngine(t, testConfig(), platformtest.New())
	now := epoch.Unix()

	referrer := s.GetOrCreateUser("ref")
	referrer.Level = 5
	referrer.ActiveBoosts = []models.Boost{
		{Kind: models.BoostCommission, Source: models.SourceShop, Rate: 0.05, ExpiresAt: now + 3600},
		{Kind: models.BoostCommission, Source: models.SourceLeaderboard, Rate: 0.08, ExpiresAt: now + 3600},
	}
	buyer := s.GetOrCreateUser("buyer")
	buyer.ReferrerID = "ref"

	res, err := e.RecordPurchase(context.Background(), "buyer", 100, 0)
	if err != nil {
		t.Fatalf("RecordPurchase: %v", err)
	}
	if res.Commission == nil || res.Commission.Amount.StringFixed(2) != "18.00" {
		t.Fatalf("commission = %+v, want 18.00", res.Commission)
	}
	if res.Commission.Rates.Temporary != 0.08 {
		t.Errorf("temporary rate = %v, want 0.08", res.Commission.Rates.Temporary)
	}
	if referrer.StoreCredit != 18 || referrer.AffiliateEarnings != 18 || referrer.WeeklyAffiliateEarnings != 18 {
		t.Errorf("referrer balances credit=%v earnings=%v weekly=%v", referrer.StoreCredit, referrer.AffiliateEarnings, referrer.WeeklyAffiliateEarnings)
	}
	if referrer.AffiliateSaleCount != 1 {
		t.Errorf("AffiliateSaleCount = %d, want 1", referrer.AffiliateSaleCount)
	}
	if buyer.PurchaseCount != 1 || buyer.PurchaseTotalValue != 100 || res.XP != 1000 || buyer.XP != 1000 {
		t.Errorf("buyer purchases=%d total=%v xp=%d", buyer.PurchaseCount, buyer.PurchaseTotalValue, buyer.XP)
	}
}

func TestNetMarginPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Affiliate.MarginPolicy = config.MarginNet

	tests := []struct {
		name       string
		price      float64
		cost       float64
		wantCredit float64
		wantSales  int64
	}{
		{"profitable sale", 100, 40, 3, 1},
		{"sold at a loss", 100, 120, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s := newEngine(t, cfg, platformtest.New())
			referrer := s.GetOrCreateUser("ref")
			s.GetOrCreateUser("buyer").ReferrerID = "ref"

			if _, err := e.RecordPurchase(context.Background(), "buyer", tt.price, tt.cost); err != nil {
				t.Fatal(err)
			}
			if referrer.StoreCredit != tt.wantCredit || referrer.AffiliateSaleCount != tt.wantSales {
				t.Errorf("credit=%v sales=%d, want %v %d", referrer.StoreCredit, referrer.AffiliateSaleCount, tt.wantCredit, tt.wantSales)
			}
		})
	}
}

func TestPurchaseWithoutReferrer(t *testing.T) {
	e, _ := newEngine(t, testConfig(), platformtest.New())
	res, err := e.RecordPurchase(context.Background(), "buyer", 25, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Commission != nil {
		t.Errorf("unexpected commission %+v", res.Commission)
	}
	if _, err := e.RecordPurchase(context.Background(), "buyer", 0, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestNonFiniteAmountsAreRejected(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		cost  float64
	}{
		{"nan price", math.NaN(), 0},
		{"infinite price", math.Inf(1), 0},
		{"nan cost", 100, math.NaN()},
		{"negative cost", 100, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s := newEngine(t, testConfig(), platformtest.New())
			buyer := s.GetOrCreateUser("buyer")
			buyer.ReferrerID = "ref"
			referrer := s.GetOrCreateUser("ref")

			if _, err := e.RecordPurchase(context.Background(), "buyer", tt.price, tt.cost); !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("err = %v, want ErrInvalidAmount", err)
			}
			if buyer.PurchaseCount != 0 || buyer.PurchaseTotalValue != 0 || len(buyer.TransactionLog) != 0 || referrer.StoreCredit != 0 {
				t.Errorf("rejected purchase booked: %+v", buyer)
			}
			if err := s.SaveUsers(context.Background()); err != nil {
				t.Errorf("users document no longer encodes: %v", err)
			}
		})
	}
}

func TestCashoutRoundTrip(t *testing.T) {
	tests := []struct {
		name        string
		resolve     func(e *Engine, id string) error
		wantCredit  float64
		wantCashout int64
	}{
		{
			name: "approve",
			resolve: func(e *Engine, id string) error {
				_, err := e.ApproveCashout(context.Background(), id, "staff")
				return err
			},
			wantCredit:  30,
			wantCashout: 1,
		},
		{
			name: "deny",
			resolve: func(e *Engine, id string) error {
				_, err := e.DenyCashout(context.Background(), id, "staff", "wrong iban")
				return err
			},
			wantCredit:  50,
			wantCashout: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := platformtest.New()
			e, s := newEngine(t, testConfig(), rec)
			u := s.GetOrCreateUser("1")
			u.StoreCredit = 50

			p, err := e.RequestCashout(context.Background(), "1", 20, "FR76 0000")
			if err != nil {
				t.Fatalf("RequestCashout: %v", err)
			}
			if u.StoreCredit != 30 {
				t.Fatalf("credit after request = %v, want 30", u.StoreCredit)
			}
			if p.EuroAmount != 10 {
				t.Errorf("euro amount = %v, want 10", p.EuroAmount)
			}
			if got := rec.MessagesIn("approvals"); len(got) != 1 {
				t.Fatalf("approval messages = %d, want 1", len(got))
			}
			if _, ok := s.PendingCashout(p.MessageID); !ok {
				t.Fatal("pending cashout not stored")
			}

			if err := tt.resolve(e, p.MessageID); err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if err := tt.resolve(e, p.MessageID); !errors.Is(err, ErrAlreadyResolved) {
				t.Errorf("second resolve err = %v, want ErrAlreadyResolved", err)
			}

			if u.StoreCredit != tt.wantCredit || u.CashoutCount != tt.wantCashout {
				t.Errorf("credit=%v cashouts=%d, want %v %d", u.StoreCredit, u.CashoutCount, tt.wantCredit, tt.wantCashout)
			}
			if _, ok := s.PendingCashout(p.MessageID); ok {
				t.Error("pending cashout left behind")
			}
		})
	}
}

func TestRequestCashoutRejections(t *testing.T) {
	tests := []struct {
		name    string
		level   int
		credits float64
		wantErr error
	}{
		{"below minimum", 1, 10, ErrBelowMinimum},
		{"insufficient credit", 1, 100, ErrInsufficientCredit},
		{"not positive", 1, 0, ErrInvalidAmount},
		{"nan", 1, math.NaN(), ErrInvalidAmount},
		{"infinite", 1, math.Inf(1), ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := platformtest.New()
			e, s := newEngine(t, testConfig(), rec)
			u := s.GetOrCreateUser("1")
			u.Level = tt.level
			u.StoreCredit = 50

			if _, err := e.RequestCashout(context.Background(), "1", tt.credits, "iban"); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if u.StoreCredit != 50 || len(u.TransactionLog) != 0 || len(rec.ChannelMessages) != 0 {
				t.Errorf("rejected request mutated state: credit=%v log=%d", u.StoreCredit, len(u.TransactionLog))
			}
		})
	}
}

func TestRequestCashoutRefundsWhenPostingFails(t *testing.T) {
	rec := platformtest.New()
	rec.FailChannelMessages = true
	e, s := newEngine(t, testConfig(), rec)
	u := s.GetOrCreateUser("1")
	u.StoreCredit = 50

	if _, err := e.RequestCashout(context.Background(), "1", 20, "iban"); err == nil {
		t.Fatal("expected error")
	}
	if u.StoreCredit != 50 {
		t.Errorf("credit = %v, want 50", u.StoreCredit)
	}
	if len(u.TransactionLog) != 2 {
		t.Errorf("expected escrow and refund entries, got %d", len(u.TransactionLog))
	}
}

func TestRequestCashoutWithoutNotifier(t *testing.T) {
	e, s := newEngine(t, testConfig(), platformtest.New())
	e.notify = nil
	u := s.GetOrCreateUser("1")
	u.StoreCredit = 50

	if _, err := e.RequestCashout(context.Background(), "1", 20, "iban"); !errors.Is(err, ErrNoApprovalChannel) {
		t.Fatalf("err = %v, want ErrNoApprovalChannel", err)
	}
	if u.StoreCredit != 50 || len(u.TransactionLog) != 0 {
		t.Errorf("credit=%v log=%d, want untouched", u.StoreCredit, len(u.TransactionLog))
	}
}

func TestRequestCashoutPostsToApprovalChannel(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)
	p.EXPECT().SendChannelMessage(gomock.Any(), "approvals", gomock.Any()).Return("m-42", nil)

	e, s := newEngine(t, testConfig(), p)
	s.GetOrCreateUser("1").StoreCredit = 20

	pending, err := e.RequestCashout(context.Background(), "1", 20, "iban")
	if err != nil {
		t.Fatal(err)
	}
	if pending.MessageID != "m-42" {
		t.Errorf("MessageID = %q, want m-42", pending.MessageID)
	}
}

func TestAffiliateProCommissionOnApproval(t *testing.T) {
	tests := []struct {
		name   string
		end    int64
		wantTo float64
	}{
		{"active subscription", epoch.Unix() + 3600, 1},
		{"expired subscription", epoch.Unix() - 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s := newEngine(t, testConfig(), platformtest.New())
			referrer := s.GetOrCreateUser("ref")
			referrer.AffiliatePro = &models.Entitlement{EndTimestamp: tt.end, ConsecutivePeriods: 1}
			u := s.GetOrCreateUser("1")
			u.ReferrerID = "ref"
			u.StoreCredit = 40

			p, err := e.RequestCashout(context.Background(), "1", 40, "iban")
			if err != nil {
				t.Fatal(err)
			}
			if _, err := e.ApproveCashout(context.Background(), p.MessageID, "staff"); err != nil {
				t.Fatal(err)
			}
			// 40 credits -> 20 EUR -> 5%
			if referrer.StoreCredit != tt.wantTo || referrer.AffiliateEarnings != tt.wantTo {
				t.Errorf("referrer credit=%v earnings=%v, want %v", referrer.StoreCredit, referrer.AffiliateEarnings, tt.wantTo)
			}
		})
	}
}

func TestSetReferrer(t *testing.T) {
	e, s := newEngine(t, testConfig(), platformtest.New())
	ctx := context.Background()

	var hooked []string
	e.OnReferral(func(ctx context.Context, u *models.UserRecord) { hooked = append(hooked, u.ID) })

	if err := e.SetReferrer(ctx, "1", "1"); !errors.Is(err, ErrSelfReferral) {
		t.Errorf("err = %v, want ErrSelfReferral", err)
	}
	if err := e.SetReferrer(ctx, "1", "ref"); !errors.Is(err, ErrUnknownReferrer) {
		t.Errorf("err = %v, want ErrUnknownReferrer", err)
	}
	if _, ok := s.User("ref"); ok {
		t.Error("unknown referrer got a record")
	}
	if u, ok := s.User("1"); ok && u.ReferrerID != "" {
		t.Errorf("referrer bound to an unknown member: %q", u.ReferrerID)
	}

	s.GetOrCreateUser("ref")
	s.GetOrCreateUser("other")
	if err := e.SetReferrer(ctx, "1", "ref"); err != nil {
		t.Fatal(err)
	}
	if err := e.SetReferrer(ctx, "1", "other"); !errors.Is(err, ErrReferrerAlreadySet) {
		t.Errorf("err = %v, want ErrReferrerAlreadySet", err)
	}

	u, _ := s.User("1")
	ref, _ := s.User("ref")
	if u.ReferrerID != "ref" || ref.ReferralCount != 1 {
		t.Errorf("referrer=%q count=%d", u.ReferrerID, ref.ReferralCount)
	}
	if len(hooked) != 1 || hooked[0] != "ref" {
		t.Errorf("referral hooks = %v", hooked)
	}
	if !ref.HasAchievement("first_referral") {
		t.Error("first_referral achievement missing")
	}
}
