package commission

import (
	"context"
	"fmt"

	"github.com/MyelinBots/resellboost-go/internal/metrics"
	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/ledger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RequestCashout escrows credits and posts the request for staff approval. The pending
// record is keyed by the id of the approval message.
func (e *Engine) RequestCashout(ctx context.Context, userID string, credits float64, destination string) (*models.PendingCashout, error) {
	if !ledger.Finite(credits) || credits <= 0 {
		return nil, ErrInvalidAmount
	}
	if e.notify == nil {
		return nil, ErrNoApprovalChannel
	}
	u := e.repo.GetOrCreateUser(userID)
	minimum, ok := e.bonus.CashoutMinimum(u.Level)
	if !ok {
		return nil, ErrLevelTooLow
	}
	if credits < minimum {
		return nil, fmt.Errorf("%w: minimum is %.2f", ErrBelowMinimum, minimum)
	}
	if u.StoreCredit < credits {
		return nil, fmt.Errorf("%w: balance is %.2f", ErrInsufficientCredit, u.StoreCredit)
	}

	euro := cents(decimal.NewFromFloat(credits).Mul(decimal.NewFromFloat(e.cfg.Cashout.EuroPerCredit)))
	if err := e.ledger.ApplyTo(u, models.KindStoreCredit, -credits, "cashout escrow"); err != nil {
		return nil, err
	}

	text := fmt.Sprintf("💶 Cashout request from <@%s>: %.2f credits (%s EUR) to `%s`. Approve with `!approve <id>` or deny with `!deny <id>`.",
		userID, credits, euro.StringFixed(2), destination)
	msgID, err := e.notify.Platform().SendChannelMessage(ctx, e.approvalChannel, text)
	if err != nil {
		if rerr := e.ledger.ApplyTo(u, models.KindStoreCredit, credits, "cashout escrow refund"); rerr != nil {
			e.log.Error("escrow refund failed", zap.String("user_id", userID), zap.Error(rerr))
		}
		metrics.Cashouts.WithLabelValues("failed").Inc()
		e.log.Error("cashout request not posted", zap.String("user_id", userID), zap.Error(err))
		if perr := e.persist(ctx); perr != nil {
			e.log.Error("cashout refund not saved", zap.Error(perr))
		}
		return nil, fmt.Errorf("post cashout request: %w", err)
	}

	p := &models.PendingCashout{
		MessageID:   msgID,
		RequesterID: userID,
		Credits:     credits,
		EuroAmount:  euro.InexactFloat64(),
		Destination: destination,
		RequestedAt: e.now().Unix(),
	}
	e.repo.PutPendingCashout(p)
	metrics.Cashouts.WithLabelValues("requested").Inc()
	e.log.Info("cashout requested",
		zap.String("user_id", userID),
		zap.String("message_id", msgID),
		zap.Float64("credits", credits),
		zap.String("euro", euro.StringFixed(2)))
	return p, e.persist(ctx)
}

// ApproveCashout finalizes the escrow. A request that is no longer pending returns
// ErrAlreadyResolved and books nothing.
func (e *Engine) ApproveCashout(ctx context.Context, messageID, staffID string) (*models.PendingCashout, error) {
	p, ok := e.repo.PendingCashout(messageID)
	if !ok || !e.repo.DeletePendingCashout(messageID) {
		return nil, ErrAlreadyResolved
	}

	u := e.repo.GetOrCreateUser(p.RequesterID)
	if err := e.ledger.ApplyTo(u, models.KindCashoutCount, 1, fmt.Sprintf("cashout approved by %s", staffID)); err != nil {
		e.log.Error("cashout count not booked", zap.String("user_id", u.ID), zap.Error(err))
	}
	metrics.Cashouts.WithLabelValues("approved").Inc()
	e.log.Info("cashout approved", zap.String("user_id", u.ID), zap.String("message_id", messageID), zap.String("staff_id", staffID))

	if e.notify != nil {
		e.notify.DM(ctx, u.ID, fmt.Sprintf("✅ Your cashout of %.2f credits (%.2f EUR) was approved.", p.Credits, p.EuroAmount))
	}
	if e.achievements != nil {
		e.achievements.Check(ctx, u)
	}
	e.payAffiliatePro(ctx, u, p)
	return p, e.persist(ctx)
}

// payAffiliatePro pays the second-order commission to the requester's referrer when the
// referrer holds an active affiliate pro subscription.
func (e *Engine) payAffiliatePro(ctx context.Context, u *models.UserRecord, p *models.PendingCashout) {
	if u.ReferrerID == "" {
		return
	}
	referrer, ok := e.repo.User(u.ReferrerID)
	if !ok || !referrer.AffiliatePro.Active(e.now().Unix()) {
		return
	}
	amount := cents(decimal.NewFromFloat(p.EuroAmount).Mul(decimal.NewFromFloat(e.cfg.AffiliatePro.Rate)))
	if !amount.IsPositive() {
		return
	}
	if err := e.credit(referrer, amount, fmt.Sprintf("affiliate pro commission on %s cashout", u.ID)); err != nil {
		e.log.Error("affiliate pro commission not booked", zap.String("referrer_id", referrer.ID), zap.Error(err))
		return
	}
	metrics.Commissions.WithLabelValues(PathwayAffiliatePro).Inc()
	metrics.CommissionCredits.WithLabelValues(PathwayAffiliatePro).Add(amount.InexactFloat64())
	if e.notify != nil {
		e.notify.DM(ctx, referrer.ID, fmt.Sprintf("💼 Affiliate Pro: you earned %s credits on a cashout by <@%s>.", amount.StringFixed(2), u.ID))
	}
}

// DenyCashout refunds the escrow. A request that is no longer pending returns
// ErrAlreadyResolved and refunds nothing.
func (e *Engine) DenyCashout(ctx context.Context, messageID, staffID, reason string) (*models.PendingCashout, error) {
	p, ok := e.repo.PendingCashout(messageID)
	if !ok || !e.repo.DeletePendingCashout(messageID) {
		return nil, ErrAlreadyResolved
	}

	u := e.repo.GetOrCreateUser(p.RequesterID)
	if err := e.ledger.ApplyTo(u, models.KindStoreCredit, p.Credits, fmt.Sprintf("cashout denied by %s", staffID)); err != nil {
		e.log.Error("cashout refund failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	metrics.Cashouts.WithLabelValues("denied").Inc()
	e.log.Info("cashout denied", zap.String("user_id", u.ID), zap.String("message_id", messageID), zap.String("reason", reason))

	if e.notify != nil {
		msg := fmt.Sprintf("❌ Your cashout of %.2f credits was denied and the credits were refunded.", p.Credits)
		if reason != "" {
			msg += " Reason: " + reason
		}
		e.notify.DM(ctx, u.ID, msg)
	}
	return p, e.persist(ctx)
}
