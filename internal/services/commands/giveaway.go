package commands

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MyelinBots/resellboost-go/internal/services/context_manager"
)

var durationPattern = regexp.MustCompile(`^(?:(\d+)d)?(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// GiveawayHandler runs reaction giveaways:
// !giveaway start <duration> <winners> <prize> | reroll <message id> | list.
func (c *CommandControllerImpl) GiveawayHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		if err := c.requireStaff(ctx); err != nil {
			return err
		}
		const help = "giveaway start <duration, e.g. 1d12h> <winners> <prize> | reroll <message id> | list"
		if len(args) == 0 {
			return usage(c.Prefix + help)
		}

		switch strings.ToLower(args[0]) {
		case "start":
			if len(args) < 4 {
				return usage(c.Prefix + help)
			}
			d, ok := parseDuration(args[1])
			if !ok {
				return usage(c.Prefix + help)
			}
			winners, err := strconv.Atoi(args[2])
			if err != nil {
				return usage(c.Prefix + help)
			}
			prize := strings.Join(args[3:], " ")
			return c.serial(ctx, func(ctx context.Context) error {
				g, err := c.Giveaways.Start(ctx, context_manager.GetUserContext(ctx), prize, d, winners)
				if err != nil {
					return err
				}
				c.reply(ctx, fmt.Sprintf("🎉 Giveaway for **%s** started in <#%s>, ends <t:%d:R>.", g.Prize, g.ChannelID, g.EndsAt))
				return nil
			})
		case "reroll":
			if len(args) != 2 {
				return usage(c.Prefix + help)
			}
			return c.serial(ctx, func(ctx context.Context) error {
				winner, err := c.Giveaways.Reroll(ctx, args[1])
				if err != nil {
					return err
				}
				c.reply(ctx, "🎲 Rerolled: "+mention(winner)+" wins.")
				return nil
			})
		case "list":
			return c.serial(ctx, func(ctx context.Context) error {
				running := c.Giveaways.Running()
				if len(running) == 0 {
					c.reply(ctx, "No giveaway is running.")
					return nil
				}
				lines := make([]string, 0, len(running)+1)
				lines = append(lines, "🎉 Running giveaways:")
				for _, g := range running {
					lines = append(lines, fmt.Sprintf(" * %s :::: **%s**, %d winner(s), ends <t:%d:R>", g.ID, g.Prize, g.WinnerCount, g.EndsAt))
				}
				c.reply(ctx, strings.Join(lines, "\n"))
				return nil
			})
		default:
			return usage(c.Prefix + help)
		}
	}
}

// parseDuration reads day/hour/minute/second combinations such as 7d, 12h or 1d12h30m.
func parseDuration(arg string) (time.Duration, bool) {
	m := durationPattern.FindStringSubmatch(strings.ToLower(arg))
	if m == nil || arg == "" {
		return 0, false
	}
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil || n > 10_000 {
			return 0, false
		}
		d += time.Duration(n) * unit
	}
	return d, d > 0
}
