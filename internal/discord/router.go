package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MyelinBots/resellboost-go/internal/services/aiverdict"
	"github.com/MyelinBots/resellboost-go/internal/services/assistant"
	"github.com/MyelinBots/resellboost-go/internal/services/commands"
	"github.com/MyelinBots/resellboost-go/internal/services/context_manager"
	"github.com/MyelinBots/resellboost-go/internal/services/moderation"
	"github.com/MyelinBots/resellboost-go/internal/services/progression"
	"github.com/MyelinBots/resellboost-go/internal/services/serial"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const handlerTimeout = 30 * time.Second

// Incoming is a chat message stripped of discordgo types.
type Incoming struct {
	ID          string
	GuildID     string
	ChannelID   string
	ChannelName string
	AuthorID    string
	AuthorBot   bool
	AuthorRoles []string
	Content     string
	MentionsBot bool
}

func (in Incoming) DM() bool {
	return in.GuildID == ""
}

func (in Incoming) Link() string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", in.GuildID, in.ChannelID, in.ID)
}

// Router sends each message to commands, moderation, XP and the assistant.
// Assistant and moderation may be nil when no AI key is configured.
type Router struct {
	Prefix      string
	Queue       *serial.Queue
	Controller  commands.CommandController
	Progression *progression.Engine
	Assistant   *assistant.Service
	Moderation  *moderation.Service
	Log         *zap.Logger
}

func (r *Router) Route(ctx context.Context, in Incoming) {
	if in.AuthorBot || in.AuthorID == "" {
		return
	}
	ctx = context_manager.SetUserContext(ctx, in.AuthorID)
	ctx = context_manager.SetChannelContext(ctx, in.ChannelID)
	ctx = context_manager.SetRolesContext(ctx, in.AuthorRoles)

	if strings.HasPrefix(in.Content, r.Prefix) {
		if err := r.Controller.HandleCommand(ctx, in.Content); err != nil {
			r.Log.Error("command failed", zap.String("user_id", in.AuthorID), zap.String("content", in.Content), zap.Error(err))
		}
		return
	}

	if !in.DM() {
		if r.moderate(ctx, in) {
			return
		}
		err := r.Queue.Do(ctx, func(ctx context.Context) error {
			_, err := r.Progression.GrantMessageExperience(ctx, in.AuthorID, in.Content)
			return err
		})
		if err != nil && !errors.Is(err, progression.ErrCooldown) {
			r.Log.Error("message xp failed", zap.String("user_id", in.AuthorID), zap.Error(err))
		}
	}

	if r.Assistant != nil {
		r.Assistant.Handle(ctx, assistant.Message{
			AuthorID:    in.AuthorID,
			ChannelID:   in.ChannelID,
			Content:     in.Content,
			DM:          in.DM(),
			MentionsBot: in.MentionsBot,
		})
	}
}

// moderate reports whether the message was removed.
func (r *Router) moderate(ctx context.Context, in Incoming) bool {
	if r.Moderation == nil {
		return false
	}
	msg := moderation.Message{
		ID:          in.ID,
		AuthorID:    in.AuthorID,
		ChannelID:   in.ChannelID,
		ChannelName: in.ChannelName,
		Content:     in.Content,
		AuthorRoles: in.AuthorRoles,
		Link:        in.Link(),
	}
	if r.Moderation.Exempt(msg) {
		return false
	}
	v := r.Moderation.Review(ctx, msg)
	if v.Action == aiverdict.ActionPass {
		return false
	}
	err := r.Queue.Do(ctx, func(ctx context.Context) error {
		return r.Moderation.Apply(ctx, msg, v)
	})
	if err != nil {
		r.Log.Error("moderation failed", zap.String("message_id", in.ID), zap.String("action", string(v.Action)), zap.Error(err))
	}
	switch v.Action {
	case aiverdict.ActionDeleteAndWarn, aiverdict.ActionDeleteAndTimeout, aiverdict.ActionWarnPersonalInfoSharing:
		return true
	}
	return false
}

// OnMessageCreate is the discordgo handler.
func (r *Router) OnMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	in := Incoming{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		AuthorBot: m.Author.Bot,
		Content:   m.Content,
	}
	if m.Member != nil {
		in.AuthorRoles = m.Member.Roles
	}
	if s.State != nil && s.State.User != nil {
		for _, u := range m.Mentions {
			if u.ID == s.State.User.ID {
				in.MentionsBot = true
				break
			}
		}
	}
	in.ChannelName = channelName(s.State, m.ChannelID)

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	r.Route(ctx, in)
}

// channelName reads the cached channel name, "" when the state or channel is unknown.
func channelName(st *discordgo.State, channelID string) string {
	if st == nil {
		return ""
	}
	ch, err := st.Channel(channelID)
	if err != nil {
		return ""
	}
	return ch.Name
}
