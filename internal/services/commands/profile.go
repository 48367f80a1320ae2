package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/achievements"
	"github.com/MyelinBots/resellboost-go/internal/services/context_manager"
)

func (c *CommandControllerImpl) ProfileHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		target := context_manager.GetUserContext(ctx)
		if len(args) > 0 {
			id, ok := ParseUser(args[0])
			if !ok {
				return usage(c.Prefix + "profile [@member]")
			}
			target = id
		}

		var text string
		err := c.serial(ctx, func(ctx context.Context) error {
			u, ok := c.Repo.User(target)
			if !ok {
				text = mention(target) + " has no ResellBoost activity yet."
				return nil
			}
			text = c.renderProfile(u)
			return nil
		})
		if err != nil {
			return err
		}
		c.reply(ctx, text)
		return nil
	}
}

func (c *CommandControllerImpl) renderProfile(u *models.UserRecord) string {
	now := c.now().Unix()
	var b strings.Builder

	fmt.Fprintf(&b, "📇 Profile of %s\n", mention(u.ID))
	fmt.Fprintf(&b, "Level %d • %d XP (next level at %.0f XP) • %d XP this week\n",
		u.Level, u.XP, c.Progression.LevelThreshold(u.Level+1), u.WeeklyXP)
	if u.XPGated && u.CurrentPrestigeChallenge != nil {
		fmt.Fprintf(&b, "⛔ Prestige gate: **%s** - %s\n", u.CurrentPrestigeChallenge.Title, u.CurrentPrestigeChallenge.Description)
	}
	fmt.Fprintf(&b, "💰 Store credit: %.2f • Commission rate: %.1f%% • Referrals: %d\n",
		u.StoreCredit, c.Bonus.TotalCommissionRate(u, now)*100, u.ReferralCount)
	if next, ok := c.Bonus.NextCommissionTier(u.Level); ok {
		fmt.Fprintf(&b, "Next commission tier: %.0f%% at level %d\n", next.Rate*100, next.Level)
	}
	if u.VIPPremium.Active(now) {
		fmt.Fprintf(&b, "💎 VIP until <t:%d:d> (%d periods)\n", u.VIPPremium.EndTimestamp, u.VIPPremium.ConsecutivePeriods)
	}
	if u.AffiliatePro.Active(now) {
		fmt.Fprintf(&b, "🤝 Affiliate Pro until <t:%d:d>\n", u.AffiliatePro.EndTimestamp)
	}
	if u.GuildID != "" {
		if g, ok := c.Repo.Guild(u.GuildID); ok {
			fmt.Fprintf(&b, "🛡️ Guild: %s (%s)\n", g.Name, g.Status)
		}
	}
	if m := u.ActiveMission; m != nil {
		fmt.Fprintf(&b, "🎯 Mission: %s %d/%d (+%d XP)\n", m.Metric, m.Progress, m.Target, m.RewardXP)
	}

	var unlocked []achievements.Achievement
	for _, id := range u.Achievements {
		if a, ok := achievements.ByID(id); ok {
			unlocked = append(unlocked, a)
		}
	}
	fmt.Fprintf(&b, "🏅 Achievements: %s", achievements.Names(unlocked))
	return b.String()
}
