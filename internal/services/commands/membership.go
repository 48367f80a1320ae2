package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MyelinBots/resellboost-go/internal/models"
)

func (c *CommandControllerImpl) VIPHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		if err := c.requireStaff(ctx); err != nil {
			return err
		}
		userID, ok := singleUser(args)
		if !ok {
			return usage(c.Prefix + "vip @member")
		}
		return c.serial(ctx, func(ctx context.Context) error {
			e, err := c.Subscription.ActivateVIP(ctx, userID)
			if err != nil {
				return err
			}
			c.reply(ctx, fmt.Sprintf("💎 VIP active for %s until <t:%d:d> (%d consecutive periods).",
				mention(userID), e.EndTimestamp, e.ConsecutivePeriods))
			return nil
		})
	}
}

func (c *CommandControllerImpl) AffiliateProHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		if err := c.requireStaff(ctx); err != nil {
			return err
		}
		userID, ok := singleUser(args)
		if !ok {
			return usage(c.Prefix + "affpro @member")
		}
		return c.serial(ctx, func(ctx context.Context) error {
			e, err := c.Subscription.ActivateAffiliatePro(ctx, userID)
			if err != nil {
				return err
			}
			c.reply(ctx, fmt.Sprintf("🤝 Affiliate Pro active for %s until <t:%d:d>.", mention(userID), e.EndTimestamp))
			return nil
		})
	}
}

// BoosterHandler grants a shop booster: !booster @member <xp|commission> <rate> <days>.
// The rate is a fraction (0.05) or a percentage (5%).
func (c *CommandControllerImpl) BoosterHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		if err := c.requireStaff(ctx); err != nil {
			return err
		}
		const help = "booster @member <xp|commission> <rate> <days>"
		if len(args) != 4 {
			return usage(c.Prefix + help)
		}
		userID, ok := ParseUser(args[0])
		if !ok {
			return usage(c.Prefix + help)
		}
		kind := models.BoostKind(strings.ToLower(args[1]))
		if kind != models.BoostXP && kind != models.BoostCommission {
			return usage(c.Prefix + help)
		}
		rate, ok := parseRate(args[2])
		if !ok {
			return usage(c.Prefix + help)
		}
		days, err := strconv.Atoi(args[3])
		if err != nil {
			return usage(c.Prefix + help)
		}

		return c.serial(ctx, func(ctx context.Context) error {
			b, err := c.Subscription.AddBooster(ctx, userID, kind, models.SourceShop, rate, time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}
			c.reply(ctx, fmt.Sprintf("⚡ %s received a +%.0f%% %s booster until <t:%d:f>.", mention(userID), b.Rate*100, b.Kind, b.ExpiresAt))
			return nil
		})
	}
}

func parseRate(arg string) (float64, bool) {
	pct := strings.HasSuffix(arg, "%")
	v, ok := parseNumber(strings.TrimSuffix(arg, "%"))
	if !ok || v <= 0 {
		return 0, false
	}
	if pct || v >= 1 {
		v /= 100
	}
	return v, true
}

// ChallengeHandler validates a member's prestige challenge: !challenge clear @member.
func (c *CommandControllerImpl) ChallengeHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		if err := c.requireStaff(ctx); err != nil {
			return err
		}
		if len(args) != 2 || !strings.EqualFold(args[0], "clear") {
			return usage(c.Prefix + "challenge clear @member")
		}
		userID, ok := ParseUser(args[1])
		if !ok {
			return usage(c.Prefix + "challenge clear @member")
		}
		return c.serial(ctx, func(ctx context.Context) error {
			if _, err := c.Progression.ClearPrestigeGate(ctx, userID); err != nil {
				return err
			}
			level := 0
			if u, ok := c.Repo.User(userID); ok {
				level = u.Level
			}
			c.reply(ctx, fmt.Sprintf("🏁 Prestige challenge cleared for %s, now level %d.", mention(userID), level))
			return nil
		})
	}
}

func singleUser(args []string) (string, bool) {
	if len(args) != 1 {
		return "", false
	}
	return ParseUser(args[0])
}
