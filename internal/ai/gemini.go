package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var (
	ErrNotConfigured = errors.New("ai key not configured")
	ErrEmptyReply    = errors.New("ai returned no text")
)

// Generator is a single prompt in, text out call.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	log    *zap.Logger
}

// NewGemini asks the model for JSON replies; callers still run them through the decoder.
func NewGemini(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if log == nil {
		log = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	model.ResponseMIMEType = "application/json"
	return &Gemini{client: client, model: model, log: log}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	var b strings.Builder
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	if b.Len() == 0 {
		g.log.Warn("gemini reply had no text", zap.Int("candidates", len(resp.Candidates)))
		return "", ErrEmptyReply
	}
	return b.String(), nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}
