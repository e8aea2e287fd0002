package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/freese/jobradar/internal/config"
)

// ClaudeProvider calls the Anthropic Messages API.
type ClaudeProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewClaudeProvider creates a provider from the AI config section.
func NewClaudeProvider(apiKey string, cfg config.AIConfig) *ClaudeProvider {
	return &ClaudeProvider{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		timeout:   cfg.Timeout,
	}
}

// Complete sends prompt to Claude and returns the first text block of the
// response.
func (p *ClaudeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude request: %w", err)
	}
	if len(msg.Content) == 0 {
		return "", fmt.Errorf("claude returned no content blocks")
	}
	return msg.Content[0].Text, nil
}
