package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/MyelinBots/resellboost-go/internal/services/leaderboard"
)

const topSize = 5

// TopHandler shows the top members for one balance, XP by default.
func (c *CommandControllerImpl) TopHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		name := "xp"
		if len(args) > 0 {
			name = strings.ToLower(args[0])
		}
		b, ok := leaderboard.Boards[name]
		if !ok {
			return usage(c.Prefix + "top [xp|weekly|earnings|credit]")
		}

		var text string
		err := c.serial(ctx, func(ctx context.Context) error {
			text = b.Render(c.Repo.Users(), topSize, mention)
			return nil
		})
		if err != nil {
			return err
		}
		c.reply(ctx, text)
		return nil
	}
}

// GuildsHandler lists official guilds by total XP.
func (c *CommandControllerImpl) GuildsHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		out := "🛡️ No official guild yet."
		err := c.serial(ctx, func(ctx context.Context) error {
			top := c.Guilds.Leaderboard(topSize)
			if len(top) == 0 {
				return nil
			}
			out = "🛡️ Top guilds:"
			for i, g := range top {
				if i > 0 {
					out += "  •"
				}
				out += fmt.Sprintf(" #%d %s (%d XP, %d members)", i+1, g.Name, g.TotalXP, len(g.Members))
			}
			return nil
		})
		if err != nil {
			return err
		}
		c.reply(ctx, out)
		return nil
	}
}
