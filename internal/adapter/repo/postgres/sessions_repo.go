package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Guneshbari/mock-mentor/internal/domain"
)

// SessionRepo implements domain.SessionRepository on PostgreSQL.
type SessionRepo struct{ Pool PgxPool }

// PgxPool is a minimal subset of pgxpool used by the repos for easy testing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// NewSessionRepo constructs a SessionRepo with the given pool.
func NewSessionRepo(p PgxPool) *SessionRepo { return &SessionRepo{Pool: p} }

// SaveSession upserts the session row, overwriting mutable fields.
func (r *SessionRepo) SaveSession(ctx domain.Context, s domain.Session) error {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.SaveSession")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", "sessions"),
	)
	cfg, err := json.Marshal(s.Config)
	if err != nil {
		return fmt.Errorf("op=sessions.save_session: %w", err)
	}
	q := `INSERT INTO sessions (id, config, current_step, total_steps, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET config=EXCLUDED.config, current_step=EXCLUDED.current_step, status=EXCLUDED.status, updated_at=EXCLUDED.updated_at`
	_, err = r.Pool.Exec(ctx, q, s.ID, cfg, s.CurrentStep, s.TotalSteps, string(s.Status), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("op=sessions.save_session: %w", err)
	}
	return nil
}

// SaveTurn inserts one completed turn. Re-inserting the same (session, step)
// pair overwrites the previous row so duplicate submissions stay idempotent.
func (r *SessionRepo) SaveTurn(ctx domain.Context, sessionID string, step int, entry domain.HistoryEntry) error {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.SaveTurn")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", "session_turns"),
	)
	var eval []byte
	if entry.Evaluation != nil {
		b, err := json.Marshal(entry.Evaluation)
		if err != nil {
			return fmt.Errorf("op=sessions.save_turn: %w", err)
		}
		eval = b
	}
	q := `INSERT INTO session_turns (session_id, step, question, answer, evaluation, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (session_id, step) DO UPDATE SET question=EXCLUDED.question, answer=EXCLUDED.answer, evaluation=EXCLUDED.evaluation`
	_, err := r.Pool.Exec(ctx, q, sessionID, step, entry.Question, entry.Answer, eval, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=sessions.save_turn: %w", err)
	}
	return nil
}

// SaveReport upserts the final report for a session.
func (r *SessionRepo) SaveReport(ctx domain.Context, sessionID string, rep domain.FinalReport) error {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.SaveReport")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", "session_reports"),
	)
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("op=sessions.save_report: %w", err)
	}
	q := `INSERT INTO session_reports (session_id, overall_score, report, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (session_id) DO UPDATE SET overall_score=EXCLUDED.overall_score, report=EXCLUDED.report`
	_, err = r.Pool.Exec(ctx, q, sessionID, rep.OverallScore, body, rep.CreatedAt)
	if err != nil {
		return fmt.Errorf("op=sessions.save_report: %w", err)
	}
	return nil
}

// CountSessions returns the total number of mirrored sessions.
func (r *SessionRepo) CountSessions(ctx domain.Context) (int64, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.CountSessions")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "COUNT"),
		attribute.String("db.sql.table", "sessions"),
	)
	q := `SELECT COUNT(*) FROM sessions`
	row := r.Pool.QueryRow(ctx, q)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("op=sessions.count: %w", err)
	}
	return count, nil
}
