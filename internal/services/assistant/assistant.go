package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/MyelinBots/resellboost-go/internal/ai"
	"github.com/MyelinBots/resellboost-go/internal/services/aiverdict"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"go.uber.org/zap"
)

var mentionPattern = regexp.MustCompile(`<@!?\d+>`)

// Message is what the assistant needs to know about an incoming chat message.
type Message struct {
	AuthorID    string
	ChannelID   string
	Content     string
	DM          bool
	MentionsBot bool
}

type Service struct {
	cfg       config.AssistantConfig
	monitored map[string]bool
	gen       ai.Generator
	notify    *platform.Notifier
	log       *zap.Logger
}

func New(cfg config.AssistantConfig, monitored []string, gen ai.Generator, notify *platform.Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{cfg: cfg, monitored: make(map[string]bool), gen: gen, notify: notify, log: log}
	for _, id := range monitored {
		s.monitored[id] = true
	}
	return s
}

// Question returns the text to answer when m should trigger the assistant:
// a DM, a mention, or a passive keyword in a monitored channel.
func (s *Service) Question(m Message) (string, bool) {
	if !s.cfg.Enabled || s.gen == nil {
		return "", false
	}
	triggered := m.DM || m.MentionsBot
	if !triggered && s.monitored[m.ChannelID] {
		lower := strings.ToLower(m.Content)
		for _, kw := range s.cfg.PassiveKeywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				triggered = true
				break
			}
		}
	}
	if !triggered {
		return "", false
	}
	q := strings.TrimSpace(mentionPattern.ReplaceAllString(m.Content, ""))
	return q, q != ""
}

// Answer always produces a verdict; generation and decode failures escalate.
func (s *Service) Answer(ctx context.Context, question string) aiverdict.AssistantVerdict {
	if s.gen == nil {
		return aiverdict.AssistantEscalation()
	}
	reply, err := s.gen.Generate(ctx, s.prompt(question))
	if err != nil {
		s.log.Error("assistant generation failed", zap.Error(err))
		return aiverdict.AssistantEscalation()
	}
	v, err := aiverdict.DecodeAssistant(reply)
	if err != nil {
		s.log.Warn("assistant reply not decodable", zap.Error(err), zap.String("reply", reply))
	}
	return v
}

// Handle answers m in its channel if it triggers the assistant.
func (s *Service) Handle(ctx context.Context, m Message) bool {
	q, ok := s.Question(m)
	if !ok {
		return false
	}
	v := s.Answer(ctx, q)
	s.notify.Announce(ctx, m.ChannelID, Format(v))
	return true
}

func Format(v aiverdict.AssistantVerdict) string {
	title := "💡 **ResellBoost Assistant**"
	if v.Type != aiverdict.ResponseAnswer {
		title = "🤔 **A human may need to help here**"
	}
	out := title + "\n" + v.Content
	if v.FollowUp != "" {
		out += "\n_Suggestion: " + v.FollowUp + "_"
	}
	return out
}

func (s *Service) prompt(question string) string {
	faqs, err := json.Marshal(s.cfg.FAQs)
	if err != nil {
		faqs = []byte("[]")
	}
	return fmt.Sprintf(`You are "ResellBoost Assistant", the support assistant of the ResellBoost Discord server.

User question: %q

Knowledge base (FAQs):
%s

Instructions:
1. Answer clearly and kindly when the knowledge base covers the question.
2. Escalate when the question is personal (payment, account) or the answer is not in the knowledge base, and point the user to /ticket.
3. Always end with a natural follow-up suggestion.

Reply with this JSON and nothing else:
{"response_type": "answer" | "escalate", "content": "...", "suggested_follow_up": "..." | null}`, question, faqs)
}
