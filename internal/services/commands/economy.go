package commands

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/MyelinBots/resellboost-go/internal/services/commission"
	"github.com/MyelinBots/resellboost-go/internal/services/context_manager"
)

// parseNumber accepts a decimal comma and rejects NaN and infinities.
func parseNumber(arg string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(arg, ",", ".", 1)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseAmount(arg string) (float64, bool) {
	v, ok := parseNumber(arg)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

func (c *CommandControllerImpl) CashoutHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		if len(args) < 2 {
			return usage(c.Prefix + "cashout <credits> <destination>")
		}
		credits, ok := parseAmount(args[0])
		if !ok {
			return usage(c.Prefix + "cashout <credits> <destination>")
		}
		destination := strings.Join(args[1:], " ")
		userID := context_manager.GetUserContext(ctx)

		return c.serial(ctx, func(ctx context.Context) error {
			p, err := c.Commission.RequestCashout(ctx, userID, credits, destination)
			if err != nil {
				return err
			}
			c.reply(ctx, fmt.Sprintf("⏳ %s, your cashout of %.2f credits (%.2f EUR) is waiting for staff approval.",
				mention(userID), p.Credits, p.EuroAmount))
			return nil
		})
	}
}

func (c *CommandControllerImpl) ApproveHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		if err := c.requireStaff(ctx); err != nil {
			return err
		}
		if len(args) != 1 {
			return usage(c.Prefix + "approve <request id>")
		}
		staffID := context_manager.GetUserContext(ctx)

		return c.serial(ctx, func(ctx context.Context) error {
			p, err := c.Commission.ApproveCashout(ctx, args[0], staffID)
			if err != nil {
				return err
			}
			c.reply(ctx, fmt.Sprintf("✅ Cashout of %.2f credits for %s approved.", p.Credits, mention(p.RequesterID)))
			return nil
		})
	}
}

func (c *CommandControllerImpl) DenyHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		if err := c.requireStaff(ctx); err != nil {
			return err
		}
		if len(args) < 1 {
			return usage(c.Prefix + "deny <request id> [reason]")
		}
		reason := "No reason given."
		if len(args) > 1 {
			reason = strings.Join(args[1:], " ")
		}
		staffID := context_manager.GetUserContext(ctx)

		return c.serial(ctx, func(ctx context.Context) error {
			p, err := c.Commission.DenyCashout(ctx, args[0], staffID, reason)
			if err != nil {
				return err
			}
			c.reply(ctx, fmt.Sprintf("❌ Cashout of %.2f credits for %s denied and refunded.", p.Credits, mention(p.RequesterID)))
			return nil
		})
	}
}

// PurchaseHandler records a sale made through the shop: !purchase @buyer <price> [cost].
func (c *CommandControllerImpl) PurchaseHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		if err := c.requireStaff(ctx); err != nil {
			return err
		}
		const help = "purchase @buyer <price> [cost]"
		if len(args) < 2 {
			return usage(c.Prefix + help)
		}
		buyerID, ok := ParseUser(args[0])
		price, okPrice := parseAmount(args[1])
		if !ok || !okPrice {
			return usage(c.Prefix + help)
		}
		var cost float64
		if len(args) > 2 {
			v, ok := parseNumber(args[2])
			if !ok || v < 0 {
				return usage(c.Prefix + help)
			}
			cost = v
		}

		return c.serial(ctx, func(ctx context.Context) error {
			res, err := c.Commission.RecordPurchase(ctx, buyerID, price, cost)
			if err != nil {
				return err
			}
			c.reply(ctx, purchaseSummary(res))
			return nil
		})
	}
}

func purchaseSummary(res commission.Purchase) string {
	out := fmt.Sprintf("🛒 Purchase recorded for %s (+%d XP).", mention(res.BuyerID), res.XP)
	if cm := res.Commission; cm != nil && cm.Amount.IsPositive() {
		out += fmt.Sprintf(" %s earned %s credits of commission.", mention(cm.ReferrerID), cm.Amount.StringFixed(2))
	}
	return out
}

// SetReferrerHandler links a member to the member who invited them when invite
// tracking missed the join: !setreferrer @member @referrer.
func (c *CommandControllerImpl) SetReferrerHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		if err := c.requireStaff(ctx); err != nil {
			return err
		}
		const help = "setreferrer @member @referrer"
		if len(args) != 2 {
			return usage(c.Prefix + help)
		}
		userID, okUser := ParseUser(args[0])
		referrerID, okReferrer := ParseUser(args[1])
		if !okUser || !okReferrer {
			return usage(c.Prefix + help)
		}

		return c.serial(ctx, func(ctx context.Context) error {
			if err := c.Commission.SetReferrer(ctx, userID, referrerID); err != nil {
				return err
			}
			c.reply(ctx, fmt.Sprintf("🤝 %s is now registered as referred by %s.", mention(userID), mention(referrerID)))
			return nil
		})
	}
}
