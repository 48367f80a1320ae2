package aiverdict

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/MyelinBots/resellboost-go/internal/metrics"
)

var ErrNoJSON = errors.New("no json object in reply")

var fenced = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSON returns the fenced json block if there is one, otherwise the first
// balanced {...} object in text.
func ExtractJSON(text string) (string, error) {
	if m := fenced.FindStringSubmatch(text); m != nil {
		return m[1], nil
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoJSON
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSON
}

type ResponseType string

const (
	ResponseAnswer   ResponseType = "answer"
	ResponseEscalate ResponseType = "escalate"
)

const (
	FallbackAnswer   = "Sorry, a technical problem occurred while reading your question. A staff member can help you through a /ticket."
	FallbackFollowUp = "Can I help you with something else?"
)

// AssistantVerdict is the decoded assistant reply. Fallback is set when the
// reply could not be decoded and the safe default was used instead.
type AssistantVerdict struct {
	Type     ResponseType
	Content  string
	FollowUp string
	Fallback bool
}

type assistantReply struct {
	ResponseType string  `json:"response_type"`
	Content      string  `json:"content"`
	FollowUp     *string `json:"suggested_follow_up"`
}

// DecodeAssistant never fails: anything it cannot read becomes an escalation.
func DecodeAssistant(text string) (AssistantVerdict, error) {
	var r assistantReply
	if err := decode(text, &r); err != nil {
		metrics.AIDecodeFailures.WithLabelValues("assistant").Inc()
		return AssistantEscalation(), err
	}

	v := AssistantVerdict{Type: ResponseEscalate, Content: strings.TrimSpace(r.Content)}
	if ResponseType(strings.ToLower(strings.TrimSpace(r.ResponseType))) == ResponseAnswer {
		v.Type = ResponseAnswer
	}
	if r.FollowUp != nil {
		v.FollowUp = strings.TrimSpace(*r.FollowUp)
	}
	if v.Content == "" {
		v.Content = "Sorry, I have no answer to that."
	}
	return v, nil
}

// AssistantEscalation is the verdict used when the model is unreachable or unreadable.
func AssistantEscalation() AssistantVerdict {
	return AssistantVerdict{Type: ResponseEscalate, Content: FallbackAnswer, FollowUp: FallbackFollowUp, Fallback: true}
}

type Action string

const (
	ActionPass                    Action = "PASS"
	ActionWarn                    Action = "WARN"
	ActionDeleteAndWarn           Action = "DELETE_AND_WARN"
	ActionDeleteAndTimeout        Action = "DELETE_AND_TIMEOUT"
	ActionWarnPersonalInfoSharing Action = "WARN_PERSONAL_INFO_SHARING"
	ActionLogMinorToxicity        Action = "LOG_MINOR_TOXICITY"
	ActionNotifyStaff             Action = "NOTIFY_STAFF"
	ActionCreateSupportTicket     Action = "CREATE_SUPPORT_TICKET"
)

var knownActions = map[Action]bool{
	ActionPass: true, ActionWarn: true, ActionDeleteAndWarn: true, ActionDeleteAndTimeout: true,
	ActionWarnPersonalInfoSharing: true, ActionLogMinorToxicity: true, ActionNotifyStaff: true,
	ActionCreateSupportTicket: true,
}

type ModerationVerdict struct {
	Action   Action
	Reason   string
	Fallback bool
}

type moderationReply struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// DecodeModeration maps unreadable replies and unknown actions to PASS.
func DecodeModeration(text string) (ModerationVerdict, error) {
	var r moderationReply
	if err := decode(text, &r); err != nil {
		metrics.AIDecodeFailures.WithLabelValues("moderation").Inc()
		return ModerationPass("unreadable moderation reply"), err
	}

	action := Action(strings.ToUpper(strings.TrimSpace(r.Action)))
	if action == "" {
		action = ActionPass
	}
	if !knownActions[action] {
		metrics.AIDecodeFailures.WithLabelValues("moderation").Inc()
		return ModerationPass("unknown action " + string(action)), errors.New("unknown moderation action " + string(action))
	}
	reason := strings.TrimSpace(r.Reason)
	if reason == "" {
		reason = "No reason given."
	}
	return ModerationVerdict{Action: action, Reason: reason}, nil
}

func ModerationPass(reason string) ModerationVerdict {
	return ModerationVerdict{Action: ActionPass, Reason: reason, Fallback: true}
}

func decode(text string, out any) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}
