package ai

import (
	"fmt"
	"log/slog"

	"github.com/Guneshbari/mock-mentor/internal/domain"
)

// NamedClient is a domain.AIClient that can identify itself in logs.
type NamedClient interface {
	domain.AIClient
	Name() string
}

// Chain tries a primary provider and falls back to a secondary one when the
// primary fails. Either side may be nil; at least one must be set.
type Chain struct {
	Primary  NamedClient
	Fallback NamedClient
}

// NewChain builds a provider chain. Nil clients are skipped at call time.
func NewChain(primary, fallback NamedClient) *Chain {
	return &Chain{Primary: primary, Fallback: fallback}
}

// ChatJSON tries the primary client, then the fallback. The primary error is
// preserved when both fail.
func (c *Chain) ChatJSON(ctx domain.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if c.Primary == nil && c.Fallback == nil {
		return "", fmt.Errorf("%w: no AI providers configured", domain.ErrInvalidArgument)
	}
	var primaryErr error
	if c.Primary != nil {
		out, err := c.Primary.ChatJSON(ctx, systemPrompt, userPrompt, maxTokens)
		if err == nil {
			return out, nil
		}
		primaryErr = err
		if c.Fallback != nil {
			slog.Warn("primary ai provider failed, falling back",
				slog.String("primary", c.Primary.Name()),
				slog.String("fallback", c.Fallback.Name()),
				slog.Any("error", err))
		}
	}
	if c.Fallback != nil {
		out, err := c.Fallback.ChatJSON(ctx, systemPrompt, userPrompt, maxTokens)
		if err == nil {
			return out, nil
		}
		if primaryErr != nil {
			return "", fmt.Errorf("all ai providers failed: primary: %w; fallback: %v", primaryErr, err)
		}
		return "", fmt.Errorf("ai provider failed: %w", err)
	}
	return "", fmt.Errorf("ai provider failed: %w", primaryErr)
}
