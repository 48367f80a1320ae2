package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"github.com/bwmarrin/discordgo"
)

// reactionPage is the largest page the reactions endpoint returns.
const reactionPage = 100

// Adapter implements platform.Platform on a discordgo session bound to one server.
type Adapter struct {
	session *discordgo.Session
	guildID string
}

func NewAdapter(session *discordgo.Session, guildID string) *Adapter {
	return &Adapter{session: session, guildID: guildID}
}

func (a *Adapter) SendChannelMessage(ctx context.Context, channelID, content string) (string, error) {
	m, err := a.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send to channel %s: %w", channelID, err)
	}
	return m.ID, nil
}

func (a *Adapter) SendDirectMessage(ctx context.Context, userID, content string) error {
	ch, err := a.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm with %s: %w", userID, err)
	}
	if _, err := a.session.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("dm %s: %w", userID, err)
	}
	return nil
}

func (a *Adapter) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	_, err := a.session.ChannelMessageEdit(channelID, messageID, content, discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return a.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
}

// ReactionUsers pages through every reaction of emoji and drops bot accounts.
func (a *Adapter) ReactionUsers(ctx context.Context, channelID, messageID, emoji string) ([]string, error) {
	var out []string
	after := ""
	for {
		users, err := a.session.MessageReactions(channelID, messageID, emoji, reactionPage, "", after, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("reactions on %s: %w", messageID, err)
		}
		for _, u := range users {
			if !u.Bot {
				out = append(out, u.ID)
			}
		}
		if len(users) < reactionPage {
			return out, nil
		}
		after = users[len(users)-1].ID
	}
}

func (a *Adapter) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return a.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

func (a *Adapter) AddRole(ctx context.Context, userID, roleID string) error {
	return a.session.GuildMemberRoleAdd(a.guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (a *Adapter) RemoveRole(ctx context.Context, userID, roleID string) error {
	return a.session.GuildMemberRoleRemove(a.guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (a *Adapter) CreateRole(ctx context.Context, name string, color int) (string, error) {
	mentionable := true
	r, err := a.session.GuildRoleCreate(a.guildID, &discordgo.RoleParams{
		Name:        name,
		Color:       &color,
		Mentionable: &mentionable,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create role %s: %w", name, err)
	}
	return r.ID, nil
}

func (a *Adapter) EditRoleName(ctx context.Context, roleID, name string) error {
	_, err := a.session.GuildRoleEdit(a.guildID, roleID, &discordgo.RoleParams{Name: name}, discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) DeleteRole(ctx context.Context, roleID string) error {
	return a.session.GuildRoleDelete(a.guildID, roleID, discordgo.WithContext(ctx))
}

// CreatePrivateChannel creates a text channel hidden from everyone but the role and
// member named in access.
func (a *Adapter) CreatePrivateChannel(ctx context.Context, categoryID, name string, access platform.Access) (string, error) {
	const allow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: a.guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
	}
	if access.RoleID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{ID: access.RoleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: allow})
	}
	if access.UserID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{ID: access.UserID, Type: discordgo.PermissionOverwriteTypeMember, Allow: allow})
	}
	ch, err := a.session.GuildChannelCreateComplex(a.guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             categoryID,
		PermissionOverwrites: overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create channel %s: %w", name, err)
	}
	return ch.ID, nil
}

func (a *Adapter) EditChannelName(ctx context.Context, channelID, name string) error {
	_, err := a.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := a.session.ChannelDelete(channelID, discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) TimeoutMember(ctx context.Context, userID string, until time.Time, reason string) error {
	return a.session.GuildMemberTimeout(a.guildID, userID, &until,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
}
