// Package groq implements a domain.Transcriber backed by the Groq
// OpenAI-compatible audio transcriptions API (Whisper).
package groq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/Guneshbari/mock-mentor/internal/adapter/observability"
	"github.com/Guneshbari/mock-mentor/internal/config"
	"github.com/Guneshbari/mock-mentor/internal/domain"
)

// Transcriber implements domain.Transcriber using Groq Whisper.
type Transcriber struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs a Groq Whisper transcriber.
func New(cfg config.Config) *Transcriber {
	return &Transcriber{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.AIChatTimeout},
	}
}

// Transcribe uploads an audio answer and returns the transcribed text.
func (t *Transcriber) Transcribe(ctx domain.Context, filename string, audio []byte) (string, error) {
	if t.cfg.GroqAPIKey == "" {
		slog.Error("Groq API key missing", slog.String("provider", "groq"))
		return "", fmt.Errorf("%w: GROQ_API_KEY missing", domain.ErrInvalidArgument)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: empty audio payload", domain.ErrInvalidArgument)
	}

	model := t.cfg.GroqWhisperModel
	slog.Info("calling Groq transcription API",
		slog.String("provider", "groq"),
		slog.String("model", model),
		slog.String("filename", filename),
		slog.Int("bytes", len(audio)))

	// Build the multipart body once; each retry re-reads it.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("op=transcriber.Transcribe: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("op=transcriber.Transcribe: %w", err)
	}
	if err := mw.WriteField("model", model); err != nil {
		return "", fmt.Errorf("op=transcriber.Transcribe: %w", err)
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("op=transcriber.Transcribe: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("op=transcriber.Transcribe: %w", err)
	}
	payload := buf.Bytes()

	var out struct {
		Text string `json:"text"`
	}
	op := func() error {
		start := time.Now()
		r, _ := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.GroqBaseURL+"/audio/transcriptions", bytes.NewReader(payload))
		r.Header.Set("Authorization", "Bearer "+t.cfg.GroqAPIKey)
		r.Header.Set("Content-Type", mw.FormDataContentType())
		resp, err := t.hc.Do(r)
		observability.AIRequestsTotal.WithLabelValues("groq", "transcribe").Inc()
		observability.AIRequestDuration.WithLabelValues("groq", "transcribe").Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			slog.Error("failed to read response body", slog.String("provider", "groq"), slog.Any("error", err))
			return err
		}

		if resp.StatusCode == 429 {
			slog.Warn("ai provider rate limited", slog.String("provider", "groq"), slog.String("op", "transcribe"), slog.Int("status", resp.StatusCode))
			return fmt.Errorf("rate limited: 429")
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			bodySnippet := string(bodyBytes)
			if len(bodySnippet) > 512 {
				bodySnippet = bodySnippet[:512]
			}
			slog.Warn("ai provider 4xx", slog.String("provider", "groq"), slog.String("op", "transcribe"), slog.Int("status", resp.StatusCode), slog.String("model", model), slog.String("body", bodySnippet))
			return backoff.Permanent(fmt.Errorf("transcribe status %d", resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			bodySnippet := string(bodyBytes)
			if len(bodySnippet) > 512 {
				bodySnippet = bodySnippet[:512]
			}
			slog.Error("ai provider non-2xx", slog.String("provider", "groq"), slog.String("op", "transcribe"), slog.Int("status", resp.StatusCode), slog.String("model", model), slog.String("body", bodySnippet))
			return fmt.Errorf("transcribe status %d", resp.StatusCode)
		}
		if err := json.Unmarshal(bodyBytes, &out); err != nil {
			slog.Error("ai provider decode error", slog.String("provider", "groq"), slog.String("op", "transcribe"), slog.String("model", model), slog.Any("error", err))
			return err
		}
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	maxElapsedTime, initialInterval, maxInterval, multiplier := t.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsedTime
	expo.InitialInterval = initialInterval
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	bo := backoff.WithContext(expo, ctx)

	if err := backoff.Retry(op, bo); err != nil {
		slog.Error("Groq transcription failed after retries", slog.String("provider", "groq"), slog.Any("error", err))
		return "", fmt.Errorf("groq transcription failed: %w", err)
	}

	text := strings.TrimSpace(out.Text)
	slog.Info("transcription successful",
		slog.String("provider", "groq"),
		slog.Int("text_length", len(text)))
	return text, nil
}
