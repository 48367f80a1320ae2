package platform

import (
	"context"
	"time"

	"go.uber.org/zap"
)

//go:generate mockgen -destination=mocks/mock_platform.go -package=mocks github.com/MyelinBots/resellboost-go/internal/services/platform Platform

// Access names who may see a private channel besides staff: a role, a single member, or both.
type Access struct {
	RoleID string
	UserID string
}

// Platform is the slice of the chat platform the engine needs.
type Platform interface {
	SendChannelMessage(ctx context.Context, channelID, content string) (string, error)
	SendDirectMessage(ctx context.Context, userID, content string) error
	EditMessage(ctx context.Context, channelID, messageID, content string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error

	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	// ReactionUsers lists the non-bot members who reacted with emoji.
	ReactionUsers(ctx context.Context, channelID, messageID, emoji string) ([]string, error)

	AddRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
	CreateRole(ctx context.Context, name string, color int) (string, error)
	EditRoleName(ctx context.Context, roleID, name string) error
	DeleteRole(ctx context.Context, roleID string) error

	CreatePrivateChannel(ctx context.Context, categoryID, name string, access Access) (string, error)
	EditChannelName(ctx context.Context, channelID, name string) error
	DeleteChannel(ctx context.Context, channelID string) error

	TimeoutMember(ctx context.Context, userID string, until time.Time, reason string) error
}

// Notifier sends best-effort notices. Failures are logged and never returned:
// members who block DMs must not break the flow that triggered the notice.
type Notifier struct {
	p   Platform
	log *zap.Logger
}

func NewNotifier(p Platform, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{p: p, log: log}
}

func (n *Notifier) Platform() Platform {
	return n.p
}

func (n *Notifier) DM(ctx context.Context, userID, content string) {
	if userID == "" {
		return
	}
	if err := n.p.SendDirectMessage(ctx, userID, content); err != nil {
		n.log.Warn("direct message not delivered", zap.String("user_id", userID), zap.Error(err))
	}
}

func (n *Notifier) Announce(ctx context.Context, channelID, content string) {
	if channelID == "" {
		return
	}
	if _, err := n.p.SendChannelMessage(ctx, channelID, content); err != nil {
		n.log.Warn("channel message not delivered", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func (n *Notifier) AddRole(ctx context.Context, userID, roleID string) {
	if roleID == "" {
		return
	}
	if err := n.p.AddRole(ctx, userID, roleID); err != nil {
		n.log.Warn("role not granted", zap.String("user_id", userID), zap.String("role_id", roleID), zap.Error(err))
	}
}

func (n *Notifier) RemoveRole(ctx context.Context, userID, roleID string) {
	if roleID == "" {
		return
	}
	if err := n.p.RemoveRole(ctx, userID, roleID); err != nil {
		n.log.Warn("role not removed", zap.String("user_id", userID), zap.String("role_id", roleID), zap.Error(err))
	}
}
