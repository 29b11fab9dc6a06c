package anthropic

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrEmptyContent is returned when the API responds without any usable text.
var ErrEmptyContent = eris.New("anthropic: response carries no text content")

// Generator is the single-prompt text-generation surface consumed by the
// enrichment queue.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// TextGenerator adapts a Client into a Generator with fixed model settings.
type TextGenerator struct {
	Client    Client
	Model     string
	MaxTokens int64
	System    string
}

// GenerateText sends one user prompt and returns the concatenated text
// content. A response without text is an ErrEmptyContent failure: the call
// "succeeded" at the transport level but is useless to the caller.
func (g *TextGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	maxTokens := g.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	resp, err := g.Client.CreateMessage(ctx, MessageRequest{
		Model:     g.Model,
		MaxTokens: maxTokens,
		System:    g.System,
		Messages:  []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	resp.Usage.LogCost(g.Model, "enrich")

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}
