package commands

import (
	"context"
	"fmt"

	"github.com/MyelinBots/resellboost-go/internal/services/context_manager"
	"go.uber.org/zap"
)

// GuildInviteHandler lets a guild owner invite a member: !guild invite @member
func (c *CommandControllerImpl) GuildInviteHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		ownerID := context_manager.GetUserContext(ctx)

		targetID, ok := singleUser(args)
		if !ok {
			return usage(c.Prefix + "guild invite @member")
		}

		return c.serial(ctx, func(ctx context.Context) error {
			if err := c.Guilds.Invite(ctx, ownerID, targetID); err != nil {
				return err
			}
			c.reply(ctx, fmt.Sprintf("📨 Invite sent to %s. It expires in 24 hours.", mention(targetID)))
			c.Log.Info("guild invite sent", zap.String("owner_id", ownerID), zap.String("target_id", targetID))
			return nil
		})
	}
}
