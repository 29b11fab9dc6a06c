package anthropic

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient returns a canned response and records the last request.
type mockClient struct {
	resp    *MessageResponse
	err     error
	lastReq MessageRequest
}

func (m *mockClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func textResponse(text string) *MessageResponse {
	return &MessageResponse{
		ID:      "msg_1",
		Content: []ContentBlock{{Type: "text", Text: text}},
		Usage:   TokenUsage{InputTokens: 10, OutputTokens: 5},
	}
}

func TestGenerateText_Success(t *testing.T) {
	mc := &mockClient{resp: textResponse("  generated insight  \n")}
	g := &TextGenerator{
		Client:    mc,
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 512,
		System:    "system prompt",
	}

	out, err := g.GenerateText(context.Background(), "describe alice")

	require.NoError(t, err)
	assert.Equal(t, "generated insight", out)
	assert.Equal(t, "claude-haiku-4-5-20251001", mc.lastReq.Model)
	assert.Equal(t, int64(512), mc.lastReq.MaxTokens)
	assert.Equal(t, "system prompt", mc.lastReq.System)
	require.Len(t, mc.lastReq.Messages, 1)
	assert.Equal(t, "user", mc.lastReq.Messages[0].Role)
	assert.Equal(t, "describe alice", mc.lastReq.Messages[0].Content)
}

func TestGenerateText_DefaultMaxTokens(t *testing.T) {
	mc := &mockClient{resp: textResponse("ok")}
	g := &TextGenerator{Client: mc, Model: "claude-haiku-4-5-20251001"}

	_, err := g.GenerateText(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, int64(1024), mc.lastReq.MaxTokens)
}

func TestGenerateText_EmptyContent(t *testing.T) {
	mc := &mockClient{resp: textResponse("   \n  ")}
	g := &TextGenerator{Client: mc, Model: "claude-haiku-4-5-20251001"}

	_, err := g.GenerateText(context.Background(), "prompt")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestGenerateText_ClientError(t *testing.T) {
	apiErr := eris.New("rate limited")
	mc := &mockClient{err: apiErr}
	g := &TextGenerator{Client: mc, Model: "claude-haiku-4-5-20251001"}

	_, err := g.GenerateText(context.Background(), "prompt")

	require.Error(t, err)
	assert.ErrorIs(t, err, apiErr)
}
