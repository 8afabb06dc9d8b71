package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Guneshbari/mock-mentor/internal/config"
)

// Pinger is the minimal interface for a database pool capable of Ping.
type Pinger interface{ Ping(ctx context.Context) error }

// BuildReadinessChecks returns the db, redis, and ai readiness checks.
// A nil check means the component is disabled and is skipped by the probe.
func BuildReadinessChecks(cfg config.Config, pool Pinger, store Pinger) (
	func(ctx context.Context) error,
	func(ctx context.Context) error,
	func(ctx context.Context) error,
) {
	var dbCheck func(ctx context.Context) error
	if pool != nil {
		dbCheck = func(ctx context.Context) error { return pool.Ping(ctx) }
	}

	var redisCheck func(ctx context.Context) error
	if store != nil {
		redisCheck = func(ctx context.Context) error { return store.Ping(ctx) }
	}

	// The AI check only verifies the provider endpoint is reachable. It never
	// spends tokens on a probe.
	var aiCheck func(ctx context.Context) error
	if cfg.GeminiAPIKey != "" || cfg.GroqAPIKey != "" {
		base := cfg.GeminiBaseURL
		if cfg.GeminiAPIKey == "" {
			base = cfg.GroqBaseURL
		}
		aiCheck = func(ctx context.Context) error {
			client := &http.Client{Timeout: 2 * time.Second}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode >= 500 {
				return fmt.Errorf("ai provider status %d", resp.StatusCode)
			}
			return nil
		}
	}

	return dbCheck, redisCheck, aiCheck
}
