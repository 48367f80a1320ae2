package commission

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/MyelinBots/resellboost-go/internal/metrics"
	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/achievements"
	"github.com/MyelinBots/resellboost-go/internal/services/bonus"
	"github.com/MyelinBots/resellboost-go/internal/services/ledger"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"github.com/MyelinBots/resellboost-go/internal/services/progression"
	"github.com/MyelinBots/resellboost-go/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	PathwayPurchase     = "purchase"
	PathwayAffiliatePro = "affiliate_pro"
)

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrLevelTooLow        = errors.New("level too low to cash out")
	ErrBelowMinimum       = errors.New("amount below the cashout minimum")
	ErrInsufficientCredit = errors.New("insufficient store credit")
	ErrAlreadyResolved    = errors.New("cashout already resolved")
	ErrSelfReferral       = errors.New("members cannot refer themselves")
	ErrReferrerAlreadySet = errors.New("referrer already set")
	ErrUnknownReferrer    = errors.New("referrer is not a known member")
	ErrNoApprovalChannel  = errors.New("no platform to post the cashout request to")
)

// Commission is the audit record of one commission computation.
type Commission struct {
	ReferrerID string
	Pathway    string
	Base       decimal.Decimal
	Rates      bonus.Rates
	Amount     decimal.Decimal
}

// Purchase summarizes what RecordPurchase booked.
type Purchase struct {
	BuyerID    string
	XP         int64
	Commission *Commission
}

// Engine books purchases, affiliate commissions and the cashout lifecycle.
// It must only be called from the serialized command queue.
type Engine struct {
	cfg             config.GamificationConfig
	approvalChannel string
	repo            store.Repository
	ledger          *ledger.Ledger
	bonus           *bonus.Resolver
	progression     *progression.Engine
	notify          *platform.Notifier
	achievements    *achievements.Tracker
	log             *zap.Logger
	now             func() time.Time

	saleHooks     []progression.Hook
	referralHooks []progression.Hook
}

func New(
	cfg config.GamificationConfig,
	approvalChannel string,
	repo store.Repository,
	l *ledger.Ledger,
	b *bonus.Resolver,
	p *progression.Engine,
	n *platform.Notifier,
	a *achievements.Tracker,
	log *zap.Logger,
) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:             cfg,
		approvalChannel: approvalChannel,
		repo:            repo,
		ledger:          l,
		bonus:           b,
		progression:     p,
		notify:          n,
		achievements:    a,
		log:             log,
		now:             time.Now,
	}
}

func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// OnSale registers a hook run on the referrer after a commission was booked.
func (e *Engine) OnSale(h progression.Hook) {
	e.saleHooks = append(e.saleHooks, h)
}

// OnReferral registers a hook run on the referrer after a new referral was recorded.
func (e *Engine) OnReferral(h progression.Hook) {
	e.referralHooks = append(e.referralHooks, h)
}

func cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Commissionable is the part of a sale eligible for commission under the margin policy.
func (e *Engine) Commissionable(price, cost float64) decimal.Decimal {
	p := decimal.NewFromFloat(price)
	if e.cfg.Affiliate.MarginPolicy != config.MarginNet {
		return p
	}
	net := p.Sub(decimal.NewFromFloat(cost))
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// Compute returns the commission referrer earns on a sale without booking it.
func (e *Engine) Compute(referrer *models.UserRecord, price, cost float64) Commission {
	rates := e.bonus.CommissionRates(referrer, e.now().Unix())
	base := e.Commissionable(price, cost)
	return Commission{
		ReferrerID: referrer.ID,
		Pathway:    PathwayPurchase,
		Base:       base,
		Rates:      rates,
		Amount:     cents(base.Mul(totalRate(rates))),
	}
}

func totalRate(r bonus.Rates) decimal.Decimal {
	return decimal.Sum(
		decimal.NewFromFloat(r.Base),
		decimal.NewFromFloat(r.Temporary),
		decimal.NewFromFloat(r.Loyalty),
		decimal.NewFromFloat(r.VIP),
	)
}

// RecordPurchase books a purchase for buyerID, grants purchase XP and pays the buyer's
// referrer, if any.
func (e *Engine) RecordPurchase(ctx context.Context, buyerID string, price, cost float64) (Purchase, error) {
	if !ledger.Finite(price) || !ledger.Finite(cost) || price <= 0 || cost < 0 {
		return Purchase{}, ErrInvalidAmount
	}
	buyer := e.repo.GetOrCreateUser(buyerID)
	if err := e.ledger.ApplyTo(buyer, models.KindPurchaseCount, 1, "purchase"); err != nil {
		return Purchase{}, err
	}
	if err := e.ledger.ApplyTo(buyer, models.KindPurchaseTotalValue, price, "purchase"); err != nil {
		return Purchase{}, err
	}

	result := Purchase{BuyerID: buyerID}
	xp := int64(math.Floor(e.cfg.XP.PurchaseXPPerUnit * price))
	result.XP = e.progression.GrantTo(ctx, buyer, xp, fmt.Sprintf("purchase %.2f", price))
	if e.achievements != nil {
		e.achievements.Check(ctx, buyer)
	}

	c, err := e.OnPurchase(ctx, buyer, price, cost)
	if err != nil {
		e.log.Error("commission not booked", zap.String("buyer_id", buyerID), zap.Error(err))
	}
	result.Commission = c
	return result, e.persist(ctx)
}

// OnPurchase pays the buyer's referrer. It returns nil when there is nobody to pay.
func (e *Engine) OnPurchase(ctx context.Context, buyer *models.UserRecord, price, cost float64) (*Commission, error) {
	if buyer.ReferrerID == "" {
		return nil, nil
	}
	referrer, ok := e.repo.User(buyer.ReferrerID)
	if !ok {
		e.log.Warn("referrer record missing", zap.String("buyer_id", buyer.ID), zap.String("referrer_id", buyer.ReferrerID))
		return nil, nil
	}

	c := e.Compute(referrer, price, cost)
	if !c.Amount.IsPositive() {
		return &c, nil
	}
	desc := fmt.Sprintf("commission on %s purchase (%.2f)", buyer.ID, price)
	if err := e.credit(referrer, c.Amount, desc); err != nil {
		return nil, err
	}
	if err := e.ledger.ApplyTo(referrer, models.KindAffiliateSaleCount, 1, desc); err != nil {
		return nil, err
	}
	metrics.Commissions.WithLabelValues(PathwayPurchase).Inc()
	metrics.CommissionCredits.WithLabelValues(PathwayPurchase).Add(c.Amount.InexactFloat64())

	e.log.Info("commission booked",
		zap.String("referrer_id", referrer.ID),
		zap.String("buyer_id", buyer.ID),
		zap.String("base", c.Base.StringFixed(2)),
		zap.Float64("base_rate", c.Rates.Base),
		zap.Float64("temporary_rate", c.Rates.Temporary),
		zap.Float64("loyalty_rate", c.Rates.Loyalty),
		zap.Float64("vip_rate", c.Rates.VIP),
		zap.String("amount", c.Amount.StringFixed(2)))

	if e.notify != nil {
		e.notify.DM(ctx, referrer.ID, fmt.Sprintf("💸 You earned %s credits (%.1f%%) on a purchase by <@%s>.",
			c.Amount.StringFixed(2), totalRate(c.Rates).Shift(2).InexactFloat64(), buyer.ID))
	}
	if e.achievements != nil {
		e.achievements.Check(ctx, referrer)
	}
	for _, h := range e.saleHooks {
		h(ctx, referrer)
	}
	return &c, nil
}

// credit books amount as spendable credit and as affiliate earnings.
func (e *Engine) credit(u *models.UserRecord, amount decimal.Decimal, desc string) error {
	v := amount.InexactFloat64()
	for _, kind := range []models.Kind{models.KindStoreCredit, models.KindAffiliateEarnings, models.KindWeeklyAffiliateEarnings} {
		if err := e.ledger.ApplyTo(u, kind, v, desc); err != nil {
			return err
		}
	}
	return nil
}

// SetReferrer links userID to the member who invited them. The link is set once and
// the referrer must already have a record.
func (e *Engine) SetReferrer(ctx context.Context, userID, referrerID string) error {
	if userID == referrerID {
		return ErrSelfReferral
	}
	referrer, ok := e.repo.User(referrerID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReferrer, referrerID)
	}
	u := e.repo.GetOrCreateUser(userID)
	if u.ReferrerID != "" {
		return ErrReferrerAlreadySet
	}
	u.ReferrerID = referrer.ID
	if err := e.ledger.ApplyTo(referrer, models.KindReferralCount, 1, fmt.Sprintf("referred %s", userID)); err != nil {
		return err
	}
	if e.achievements != nil {
		e.achievements.Check(ctx, referrer)
	}
	for _, h := range e.referralHooks {
		h(ctx, referrer)
	}
	return e.persist(ctx)
}

func (e *Engine) persist(ctx context.Context) error {
	return errors.Join(e.repo.SaveUsers(ctx), e.repo.SaveGuilds(ctx), e.repo.SavePending(ctx))
}
