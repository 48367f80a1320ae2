package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/MyelinBots/resellboost-go/internal/ai"
	"github.com/MyelinBots/resellboost-go/internal/metrics"
	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/aiverdict"
	"github.com/MyelinBots/resellboost-go/internal/services/ledger"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"github.com/MyelinBots/resellboost-go/internal/store"
	"go.uber.org/zap"
)

const (
	ActionTimeout    = time.Hour
	ThresholdTimeout = 24 * time.Hour
)

// Message is a guild message under review.
type Message struct {
	ID          string
	AuthorID    string
	ChannelID   string
	ChannelName string
	Content     string
	AuthorRoles []string
	Link        string
}

type Service struct {
	cfg       config.ModerationConfig
	alerts    string
	tickets   string
	staffRole string
	promo     map[string]bool
	staff     map[string]bool
	gen       ai.Generator
	repo      store.Repository
	ledger    *ledger.Ledger
	notify    *platform.Notifier
	log       *zap.Logger
	now       func() time.Time
}

func New(cfg config.ModerationConfig, channels config.ChannelsConfig, roles config.RolesConfig, gen ai.Generator,
	repo store.Repository, l *ledger.Ledger, notify *platform.Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		cfg:     cfg,
		alerts:  channels.ModAlerts,
		tickets: channels.SupportTickets,
		promo:   make(map[string]bool),
		staff:   make(map[string]bool),
		gen:     gen,
		repo:    repo,
		ledger:  l,
		notify:  notify,
		log:     log,
		now:     time.Now,
	}
	for _, c := range channels.Promo {
		s.promo[c] = true
	}
	for _, r := range roles.Staff {
		s.staff[r] = true
	}
	if len(roles.Staff) > 0 {
		s.staffRole = roles.Staff[0]
	}
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Exempt reports whether m is out of scope: promo channels and staff authors.
func (s *Service) Exempt(m Message) bool {
	if !s.cfg.Enabled || s.gen == nil {
		return true
	}
	if s.promo[m.ChannelID] || s.promo[m.ChannelName] {
		return true
	}
	for _, r := range m.AuthorRoles {
		if s.staff[r] {
			return true
		}
	}
	return false
}

// Review asks the model for a verdict. It does not touch shared state and may run
// outside the command queue.
func (s *Service) Review(ctx context.Context, m Message) aiverdict.ModerationVerdict {
	if s.Exempt(m) {
		return aiverdict.ModerationVerdict{Action: aiverdict.ActionPass, Reason: "exempt"}
	}
	reply, err := s.gen.Generate(ctx, s.prompt(m))
	if err != nil {
		s.log.Error("moderation generation failed", zap.String("message_id", m.ID), zap.Error(err))
		return aiverdict.ModerationPass("ai unavailable")
	}
	v, err := aiverdict.DecodeModeration(reply)
	if err != nil {
		s.log.Warn("moderation reply not decodable", zap.String("message_id", m.ID), zap.Error(err), zap.String("reply", reply))
	}
	return v
}

func (s *Service) prompt(m Message) string {
	return strings.NewReplacer("{{channel}}", m.ChannelName, "{{message}}", m.Content).Replace(s.cfg.Prompt)
}

// Apply carries out the verdict. It mutates warnings and must run inside the command queue.
func (s *Service) Apply(ctx context.Context, m Message, v aiverdict.ModerationVerdict) error {
	metrics.ModerationVerdicts.WithLabelValues(string(v.Action)).Inc()

	switch v.Action {
	case aiverdict.ActionPass:
		return nil
	case aiverdict.ActionDeleteAndWarn, aiverdict.ActionWarnPersonalInfoSharing:
		s.delete(ctx, m)
		_, err := s.Warn(ctx, m.AuthorID, v.Reason, m.Link)
		return err
	case aiverdict.ActionWarn:
		_, err := s.Warn(ctx, m.AuthorID, v.Reason, m.Link)
		return err
	case aiverdict.ActionDeleteAndTimeout:
		s.delete(ctx, m)
		until := s.now().Add(ActionTimeout)
		if err := s.notify.Platform().TimeoutMember(ctx, m.AuthorID, until, "AI moderation: "+v.Reason); err != nil {
			s.log.Warn("timeout failed", zap.String("user_id", m.AuthorID), zap.Error(err))
			s.alert(ctx, fmt.Sprintf("ERROR: timing out <@%s> failed (permissions).", m.AuthorID), "Reason: "+v.Reason+"\nOriginal message deleted.")
			return nil
		}
		s.alert(ctx, fmt.Sprintf("<@%s> was timed out for 1 hour.", m.AuthorID), "Reason: "+v.Reason+"\nOriginal message deleted.")
	case aiverdict.ActionLogMinorToxicity:
		s.alert(ctx, "Minor toxicity detected (watch).", s.describe(m, v.Reason))
	case aiverdict.ActionNotifyStaff:
		s.alert(ctx, "AI notification.", s.describe(m, v.Reason))
	case aiverdict.ActionCreateSupportTicket:
		s.openTicket(ctx, m, v.Reason)
	}
	return nil
}

// openTicket gives the author a private support channel shared with staff. Staff are
// alerted instead when no ticket category is configured or the channel cannot be created.
func (s *Service) openTicket(ctx context.Context, m Message, reason string) {
	if s.tickets == "" {
		s.alert(ctx, "AI tried to open a support ticket, but no ticket category is configured.", s.describe(m, reason)+"\n> "+m.Content)
		return
	}
	access := platform.Access{RoleID: s.staffRole, UserID: m.AuthorID}
	channelID, err := s.notify.Platform().CreatePrivateChannel(ctx, s.tickets, "ticket-"+m.AuthorID, access)
	if err != nil {
		s.log.Warn("ticket channel not created", zap.String("user_id", m.AuthorID), zap.Error(err))
		s.alert(ctx, "Support ticket requested by AI, but the ticket channel could not be created.", s.describe(m, reason)+"\n> "+m.Content)
		return
	}

	s.notify.Announce(ctx, channelID, fmt.Sprintf("Ticket opened automatically by AI.\n**AI reason:** %s\n**Original message from <@%s>:**\n> %s", reason, m.AuthorID, m.Content))
	s.notify.Announce(ctx, m.ChannelID, fmt.Sprintf("<@%s>, a support ticket was opened for you in <#%s>.", m.AuthorID, channelID))
	s.log.Info("support ticket opened", zap.String("user_id", m.AuthorID), zap.String("channel_id", channelID))
}

// Warn books one warning. Reaching the threshold times the member out for a day
// and resets the counter through the ledger.
func (s *Service) Warn(ctx context.Context, userID, reason, link string) (int64, error) {
	u := s.repo.GetOrCreateUser(userID)
	if err := s.ledger.ApplyTo(u, models.KindWarnings, 1, "warning: "+reason); err != nil {
		return u.Warnings, err
	}
	count := u.Warnings
	threshold := int64(s.cfg.WarningThreshold)

	s.notify.DM(ctx, userID, fmt.Sprintf("You received a warning on ResellBoost for: **%s**. This is warning #%d.", reason, count))
	s.alert(ctx, fmt.Sprintf("Warning applied to <@%s>", userID),
		fmt.Sprintf("Reason: %s\nTotal warnings: **%d/%d**\n%s", reason, count, threshold, link))

	if threshold > 0 && count >= threshold {
		until := s.now().Add(ThresholdTimeout)
		if err := s.notify.Platform().TimeoutMember(ctx, userID, until, fmt.Sprintf("Warning threshold (%d) reached.", threshold)); err != nil {
			s.log.Warn("threshold timeout failed", zap.String("user_id", userID), zap.Error(err))
			s.alert(ctx, fmt.Sprintf("ERROR: timing out <@%s> failed (permissions).", userID), "Warning threshold reached.")
		} else {
			s.alert(ctx, fmt.Sprintf("Warning threshold reached for <@%s>", userID), "The member was timed out for 24h.")
			if err := s.ledger.ApplyTo(u, models.KindWarnings, -float64(u.Warnings), "warnings reset after timeout"); err != nil {
				return u.Warnings, err
			}
		}
	}

	if err := s.repo.SaveUsers(ctx); err != nil {
		s.log.Error("saving warnings failed", zap.String("user_id", userID), zap.Error(err))
	}
	return count, nil
}

func (s *Service) delete(ctx context.Context, m Message) {
	if err := s.notify.Platform().DeleteMessage(ctx, m.ChannelID, m.ID); err != nil {
		s.log.Debug("message already gone", zap.String("message_id", m.ID), zap.Error(err))
	}
}

func (s *Service) describe(m Message, reason string) string {
	out := fmt.Sprintf("Reason: %s\nMessage from <@%s>", reason, m.AuthorID)
	if m.Link != "" {
		out += ": " + m.Link
	}
	return out
}

func (s *Service) alert(ctx context.Context, title, body string) {
	s.notify.Announce(ctx, s.alerts, "🚨 **"+title+"**\n"+body)
}
