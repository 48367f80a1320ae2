package commands

import (
	"context"
	"strings"

	"github.com/MyelinBots/resellboost-go/internal/services/context_manager"
)

func (c *CommandControllerImpl) HelpHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		p := c.Prefix
		lines := []string{
			"🚀 Hi " + mention(context_manager.GetUserContext(ctx)) + "! Here is what I can do:",
			" * " + p + "profile [@member] :::: level, XP, credit and commission rate",
			" * " + p + "top [xp|weekly|earnings|credit] :::: leaderboards",
			" * " + p + "guilds :::: official guilds by XP",
			" * " + p + "cashout <credits> <destination> :::: request a payout of your store credit",
			" * " + p + "guild create <#colour> <name> | invite @member | accept | decline | leave | rename <name> | official",
			" * " + p + "ask <question> :::: ask the ResellBoost assistant",
		}
		if c.isStaff(ctx) {
			lines = append(lines,
				"Staff:",
				" * "+p+"approve <request id> | "+p+"deny <request id> [reason] :::: resolve cashouts",
				" * "+p+"purchase @buyer <price> [cost] :::: record a sale",
				" * "+p+"setreferrer @member @referrer :::: link a member to the member who invited them",
				" * "+p+"vip @member | "+p+"affpro @member :::: activate a subscription period",
				" * "+p+"booster @member <xp|commission> <rate> <days> :::: grant a shop booster",
				" * "+p+"challenge clear @member :::: validate a prestige challenge",
				" * "+p+"giveaway start <duration> <winners> <prize> | reroll <message id> | list :::: run a reaction giveaway",
			)
		}
		c.reply(ctx, strings.Join(lines, "\n"))
		return nil
	}
}
