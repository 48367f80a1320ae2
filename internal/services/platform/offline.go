package platform

import (
	"context"
	"errors"
	"time"
)

var ErrOffline = errors.New("chat platform not connected")

// Offline is used by batch runs without a bot token. Every call fails with ErrOffline.
type Offline struct{}

func (Offline) SendChannelMessage(ctx context.Context, channelID, content string) (string, error) {
	return "", ErrOffline
}

func (Offline) SendDirectMessage(ctx context.Context, userID, content string) error {
	return ErrOffline
}

func (Offline) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	return ErrOffline
}

func (Offline) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return ErrOffline
}

func (Offline) ReactionUsers(ctx context.Context, channelID, messageID, emoji string) ([]string, error) {
	return nil, ErrOffline
}

func (Offline) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return ErrOffline
}

func (Offline) AddRole(ctx context.Context, userID, roleID string) error { return ErrOffline }

func (Offline) RemoveRole(ctx context.Context, userID, roleID string) error { return ErrOffline }

func (Offline) CreateRole(ctx context.Context, name string, color int) (string, error) {
	return "", ErrOffline
}

func (Offline) EditRoleName(ctx context.Context, roleID, name string) error { return ErrOffline }

func (Offline) DeleteRole(ctx context.Context, roleID string) error { return ErrOffline }

func (Offline) CreatePrivateChannel(ctx context.Context, categoryID, name string, access Access) (string, error) {
	return "", ErrOffline
}

func (Offline) EditChannelName(ctx context.Context, channelID, name string) error { return ErrOffline }

func (Offline) DeleteChannel(ctx context.Context, channelID string) error { return ErrOffline }

func (Offline) TimeoutMember(ctx context.Context, userID string, until time.Time, reason string) error {
	return ErrOffline
}
