package commands

import (
	"context"
	"strings"

	"github.com/MyelinBots/resellboost-go/internal/services/assistant"
)

// AskHandler answers a question with the assistant. It does not touch shared state
// and runs outside the command queue.
func (c *CommandControllerImpl) AskHandler() Handler {
	return func(ctx context.Context, args ...string) error {
		if c.Assistant == nil {
			c.reply(ctx, "🤖 The assistant is not available right now.")
			return nil
		}
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return usage(c.Prefix + "ask <question>")
		}
		c.reply(ctx, assistant.Format(c.Assistant.Answer(ctx, question)))
		return nil
	}
}
