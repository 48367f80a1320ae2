package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/MyelinBots/resellboost-go/internal/services/context_manager"
)

const guildHelp = "guild create <#colour> <name> | invite @member | accept | decline | leave | rename <name> | official"

// GuildHandler dispatches the !guild subcommands.
func (c *CommandControllerImpl) GuildHandler() Handler {
	subcommands := map[string]Handler{
		"create":   c.guildCreate,
		"invite":   c.GuildInviteHandler(),
		"accept":   c.guildAccept,
		"decline":  c.guildDecline,
		"leave":    c.guildLeave,
		"rename":   c.guildRename,
		"official": c.guildOfficial,
	}
	return func(ctx context.Context, args ...string) error {
		if len(args) == 0 {
			return usage(c.Prefix + guildHelp)
		}
		h, ok := subcommands[strings.ToLower(args[0])]
		if !ok {
			return usage(c.Prefix + guildHelp)
		}
		return h(ctx, args[1:]...)
	}
}

func (c *CommandControllerImpl) guildCreate(ctx context.Context, args ...string) error {
	if len(args) < 2 {
		return usage(c.Prefix + "guild create <#colour> <name>")
	}
	userID := context_manager.GetUserContext(ctx)
	name := strings.Join(args[1:], " ")

	return c.serial(ctx, func(ctx context.Context) error {
		g, err := c.Guilds.Found(ctx, userID, name, args[0])
		if err != nil {
			return err
		}
		c.reply(ctx, fmt.Sprintf("🛡️ Guild **%s** founded by %s. Invite members with `%sguild invite @member`.", g.Name, mention(userID), c.Prefix))
		return nil
	})
}

func (c *CommandControllerImpl) guildAccept(ctx context.Context, args ...string) error {
	userID := context_manager.GetUserContext(ctx)
	return c.serial(ctx, func(ctx context.Context) error {
		g, err := c.Guilds.Accept(ctx, userID)
		if err != nil {
			return err
		}
		c.reply(ctx, fmt.Sprintf("🎉 %s joined **%s** (%d members).", mention(userID), g.Name, len(g.Members)))
		return nil
	})
}

func (c *CommandControllerImpl) guildDecline(ctx context.Context, args ...string) error {
	userID := context_manager.GetUserContext(ctx)
	return c.serial(ctx, func(ctx context.Context) error {
		if err := c.Guilds.Decline(ctx, userID); err != nil {
			return err
		}
		c.reply(ctx, "👋 Invite declined.")
		return nil
	})
}

func (c *CommandControllerImpl) guildLeave(ctx context.Context, args ...string) error {
	userID := context_manager.GetUserContext(ctx)
	return c.serial(ctx, func(ctx context.Context) error {
		dissolved, err := c.Guilds.Leave(ctx, userID)
		if err != nil {
			return err
		}
		if dissolved {
			c.reply(ctx, "⚔️ You left and your guild was dissolved.")
		} else {
			c.reply(ctx, "👋 You left your guild.")
		}
		return nil
	})
}

func (c *CommandControllerImpl) guildRename(ctx context.Context, args ...string) error {
	if len(args) == 0 {
		return usage(c.Prefix + "guild rename <name>")
	}
	userID := context_manager.GetUserContext(ctx)
	return c.serial(ctx, func(ctx context.Context) error {
		g, err := c.Guilds.Rename(ctx, userID, strings.Join(args, " "))
		if err != nil {
			return err
		}
		c.reply(ctx, fmt.Sprintf("✏️ Your guild is now called **%s**.", g.Name))
		return nil
	})
}

func (c *CommandControllerImpl) guildOfficial(ctx context.Context, args ...string) error {
	userID := context_manager.GetUserContext(ctx)
	return c.serial(ctx, func(ctx context.Context) error {
		g, err := c.Guilds.ForceOfficial(ctx, userID)
		if err != nil {
			return err
		}
		c.reply(ctx, fmt.Sprintf("🏅 **%s** is now official.", g.Name))
		return nil
	})
}
