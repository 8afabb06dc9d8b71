// Package gemini implements a domain.AIClient backed by the Google
// Generative Language API (generateContent).
package gemini

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/Guneshbari/mock-mentor/internal/adapter/observability"
	"github.com/Guneshbari/mock-mentor/internal/config"
	"github.com/Guneshbari/mock-mentor/internal/domain"
)

// Client implements domain.AIClient using Gemini generateContent.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs a Gemini client with the configured chat timeout.
func New(cfg config.Config) *Client {
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.AIChatTimeout},
	}
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string { return "gemini" }

func (c *Client) getBackoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()

	maxElapsedTime, initialInterval, maxInterval, multiplier := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsedTime
	expo.InitialInterval = initialInterval
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier

	return expo
}

// ChatJSON calls Gemini generateContent with a JSON response MIME type and
// returns the first candidate text.
func (c *Client) ChatJSON(ctx domain.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if c.cfg.GeminiAPIKey == "" {
		slog.Error("Gemini API key missing", slog.String("provider", "gemini"))
		return "", fmt.Errorf("%w: GEMINI_API_KEY missing", domain.ErrInvalidArgument)
	}

	model := c.cfg.GeminiModel
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.cfg.GeminiBaseURL, model, url.QueryEscape(c.cfg.GeminiAPIKey))
	// Endpoint without the key, for logs.
	logEndpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.GeminiBaseURL, model)

	slog.Info("calling Gemini API", slog.String("provider", "gemini"), slog.String("model", model), slog.Int("max_tokens", maxTokens))
	body := map[string]any{
		"system_instruction": map[string]any{
			"parts": []map[string]string{{"text": systemPrompt}},
		},
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": userPrompt}},
			},
		},
		"generationConfig": map[string]any{
			"temperature":      0.2,
			"maxOutputTokens":  maxTokens,
			"responseMimeType": "application/json",
		},
	}
	b, _ := json.Marshal(body)
	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	op := func() error {
		start := time.Now()
		// Recreate request each attempt to avoid reusing consumed bodies
		r, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.hc.Do(r)
		observability.AIRequestsTotal.WithLabelValues("gemini", "chat").Inc()
		observability.AIRequestDuration.WithLabelValues("gemini", "chat").Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			slog.Error("failed to read response body", slog.String("provider", "gemini"), slog.Any("error", err))
			return err
		}

		if resp.StatusCode == 429 {
			// Retryable: let backoff handle retries
			slog.Warn("ai provider rate limited", slog.String("provider", "gemini"), slog.String("op", "chat"), slog.Int("status", resp.StatusCode))
			return fmt.Errorf("rate limited: 429")
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Client error: non-retryable
			bodySnippet := string(bodyBytes)
			if len(bodySnippet) > 512 {
				bodySnippet = bodySnippet[:512]
			}
			slog.Warn("ai provider 4xx", slog.String("provider", "gemini"), slog.String("op", "chat"), slog.Int("status", resp.StatusCode), slog.String("model", model), slog.String("endpoint", logEndpoint), slog.String("body", bodySnippet))
			return backoff.Permanent(fmt.Errorf("chat status %d", resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			// 5xx and others: retryable
			bodySnippet := string(bodyBytes)
			if len(bodySnippet) > 512 {
				bodySnippet = bodySnippet[:512]
			}
			slog.Error("ai provider non-2xx", slog.String("provider", "gemini"), slog.String("op", "chat"), slog.Int("status", resp.StatusCode), slog.String("model", model), slog.String("endpoint", logEndpoint), slog.String("body", bodySnippet))
			return fmt.Errorf("chat status %d", resp.StatusCode)
		}
		if err := json.Unmarshal(bodyBytes, &out); err != nil {
			slog.Error("ai provider decode error", slog.String("provider", "gemini"), slog.String("op", "chat"), slog.String("model", model), slog.Any("error", err))
			return err
		}
		return nil
	}
	expo := c.getBackoffConfig()
	bo := backoff.WithContext(expo, ctx)

	if err := backoff.Retry(op, bo); err != nil {
		slog.Error("Gemini API failed after retries", slog.String("provider", "gemini"), slog.Any("error", err))
		return "", fmt.Errorf("gemini api failed: %w", err)
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		slog.Error("Gemini API returned no candidates", slog.String("provider", "gemini"))
		return "", errors.New("empty candidates from Gemini API")
	}

	slog.Info("Gemini API call successful",
		slog.String("provider", "gemini"),
		slog.String("model", model),
		slog.Int("candidates_count", len(out.Candidates)))
	return out.Candidates[0].Content.Parts[0].Text, nil
}
