package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guneshbari/mock-mentor/internal/adapter/repo/postgres"
	"github.com/Guneshbari/mock-mentor/internal/domain"
)

// rowStub implements pgx.Row
type rowStub struct{ scan func(dest ...any) error }

func (r rowStub) Scan(dest ...any) error { return r.scan(dest...) }

// poolStub implements postgres.PgxPool for tests.
type poolStub struct {
	execErr  error
	lastSQL  string
	lastArgs []any
	row      rowStub
}

func (p *poolStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.lastSQL = sql
	p.lastArgs = args
	return pgconn.CommandTag{}, p.execErr
}

func (p *poolStub) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	if p.row.scan == nil {
		return rowStub{scan: func(_ ...any) error { return errors.New("no row configured") }}
	}
	return p.row
}

func (p *poolStub) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func testSession() domain.Session {
	now := time.Now().UTC()
	return domain.Session{
		ID: "s1",
		Config: domain.InterviewConfig{
			Type:  domain.InterviewTechnical,
			Role:  "Backend Developer",
			Level: domain.LevelMid,
		},
		CurrentStep: 1,
		TotalSteps:  10,
		Status:      domain.SessionInProgress,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestSaveSession_OK(t *testing.T) {
	p := &poolStub{}
	r := postgres.NewSessionRepo(p)
	require.NoError(t, r.SaveSession(context.Background(), testSession()))
	assert.Contains(t, p.lastSQL, "INSERT INTO sessions")
	assert.Contains(t, p.lastSQL, "ON CONFLICT (id)")
}

func TestSaveSession_ExecError(t *testing.T) {
	p := &poolStub{execErr: errors.New("db down")}
	r := postgres.NewSessionRepo(p)
	err := r.SaveSession(context.Background(), testSession())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=sessions.save_session")
}

func TestSaveTurn_WithEvaluation(t *testing.T) {
	p := &poolStub{}
	r := postgres.NewSessionRepo(p)
	entry := domain.HistoryEntry{
		Question: "Explain goroutines.",
		Answer:   "They are lightweight threads managed by the runtime.",
		Evaluation: &domain.Evaluation{
			Score:    80,
			Feedback: "solid",
		},
	}
	require.NoError(t, r.SaveTurn(context.Background(), "s1", 1, entry))
	assert.Contains(t, p.lastSQL, "INSERT INTO session_turns")
	assert.Contains(t, p.lastSQL, "ON CONFLICT (session_id, step)")
	// evaluation arg is json bytes
	assert.NotNil(t, p.lastArgs[4])
}

func TestSaveTurn_NilEvaluation(t *testing.T) {
	p := &poolStub{}
	r := postgres.NewSessionRepo(p)
	entry := domain.HistoryEntry{Question: "q", Answer: "a"}
	require.NoError(t, r.SaveTurn(context.Background(), "s1", 2, entry))
	assert.Nil(t, p.lastArgs[4])
}

func TestSaveReport_OK(t *testing.T) {
	p := &poolStub{}
	r := postgres.NewSessionRepo(p)
	rep := domain.FinalReport{
		OverallScore: 74,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, r.SaveReport(context.Background(), "s1", rep))
	assert.Contains(t, p.lastSQL, "INSERT INTO session_reports")
	assert.Equal(t, 74, p.lastArgs[1])
}

func TestCountSessions(t *testing.T) {
	p := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*(dest[0].(*int64)) = 7
		return nil
	}}}
	r := postgres.NewSessionRepo(p)
	n, err := r.CountSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
