// Command server starts the Mock Mentor interview HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Guneshbari/mock-mentor/internal/adapter/ai"
	"github.com/Guneshbari/mock-mentor/internal/adapter/ai/gemini"
	"github.com/Guneshbari/mock-mentor/internal/adapter/ai/groq"
	"github.com/Guneshbari/mock-mentor/internal/adapter/httpserver"
	"github.com/Guneshbari/mock-mentor/internal/adapter/observability"
	"github.com/Guneshbari/mock-mentor/internal/adapter/queue/redpanda"
	"github.com/Guneshbari/mock-mentor/internal/adapter/repo/postgres"
	"github.com/Guneshbari/mock-mentor/internal/adapter/store/memory"
	redisstore "github.com/Guneshbari/mock-mentor/internal/adapter/store/redis"
	groqtr "github.com/Guneshbari/mock-mentor/internal/adapter/transcriber/groq"
	"github.com/Guneshbari/mock-mentor/internal/app"
	"github.com/Guneshbari/mock-mentor/internal/config"
	"github.com/Guneshbari/mock-mentor/internal/domain"
	"github.com/Guneshbari/mock-mentor/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Durable mirror. The session store stays authoritative, so a missing or
	// unreachable database only disables the mirror.
	var repo domain.SessionRepository
	var dbPinger app.Pinger
	if cfg.DBURL != "" {
		pool, perr := postgres.NewPool(ctx, cfg.DBURL)
		if perr != nil {
			slog.Warn("db connect failed, mirror disabled", slog.Any("error", perr))
		} else {
			defer pool.Close()
			repo = postgres.NewSessionRepo(pool)
			dbPinger = pool
		}
	}

	// Session store.
	var store domain.SessionStore
	var redisPinger app.Pinger
	switch strings.ToLower(cfg.SessionStore) {
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		rs := redisstore.New(rdb, cfg.SessionIdleTTL)
		store = rs
		redisPinger = rs
		slog.Info("using redis session store", slog.String("addr", cfg.RedisAddr))
	default:
		ms := memory.New(cfg.SessionIdleTTL)
		ms.StartSweeper(ctx, cfg.SessionSweepTick)
		store = ms
		slog.Info("using in-memory session store",
			slog.Duration("idle_ttl", cfg.SessionIdleTTL),
			slog.Duration("sweep_interval", cfg.SessionSweepTick))
	}

	// Lifecycle events, best-effort.
	var events domain.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, qerr := redpanda.NewProducer(cfg.KafkaBrokers)
		if qerr != nil {
			slog.Warn("redpanda producer connect failed, events disabled", slog.Any("error", qerr))
		} else {
			defer func() {
				if cerr := producer.Close(); cerr != nil {
					slog.Error("failed to close event producer", slog.Any("error", cerr))
				}
			}()
			events = producer
		}
	}

	// AI providers: Gemini primary, Groq fallback.
	var primary, fallback ai.NamedClient
	if cfg.GeminiAPIKey != "" {
		primary = gemini.New(cfg)
	}
	if cfg.GroqAPIKey != "" {
		fallback = groq.New(cfg)
	}
	if primary == nil && fallback == nil {
		slog.Warn("no AI provider configured, all interviews will use deterministic fallbacks")
	}
	chain := ai.NewChain(primary, fallback)

	var transcriber domain.Transcriber
	if cfg.GroqAPIKey != "" {
		transcriber = groqtr.New(cfg)
	}

	interviews := usecase.NewInterviewService(
		store,
		usecase.NewQuestionService(chain),
		usecase.NewEvaluationService(chain),
		usecase.NewReportService(chain, cfg.GroqModel),
		repo,
		events,
	)

	dbCheck, redisCheck, aiCheck := app.BuildReadinessChecks(cfg, dbPinger, redisPinger)
	srv := httpserver.NewServer(cfg, interviews, transcriber, dbCheck, redisCheck, aiCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
