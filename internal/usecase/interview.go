package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Guneshbari/mock-mentor/internal/adapter/observability"
	"github.com/Guneshbari/mock-mentor/internal/domain"
	"github.com/Guneshbari/mock-mentor/internal/roadmap"
	"github.com/Guneshbari/mock-mentor/pkg/answertext"
)

// maxElaborations caps consecutive gibberish retries per step; on the cap
// the answer is accepted as-is and the interview advances.
const maxElaborations = 3

// InterviewService orchestrates the interview state machine. The session
// store is authoritative; the repository mirror and event publisher are
// optional and best-effort.
type InterviewService struct {
	Store     domain.SessionStore
	Questions *QuestionService
	Evals     *EvaluationService
	Reports   *ReportService
	Repo      domain.SessionRepository
	Events    domain.EventPublisher
}

// NewInterviewService constructs an InterviewService. repo and events may
// be nil when the mirror or event pipeline is disabled.
func NewInterviewService(store domain.SessionStore, q *QuestionService, e *EvaluationService, r *ReportService, repo domain.SessionRepository, events domain.EventPublisher) *InterviewService {
	return &InterviewService{Store: store, Questions: q, Evals: e, Reports: r, Repo: repo, Events: events}
}

// StartResult is the response of Start.
type StartResult struct {
	SessionID     string
	FirstQuestion string
	TotalSteps    int
}

// NextResult is the response of Next. Exactly one of NextQuestion and
// FinalReport is set; IsElaborated marks a stalled step.
type NextResult struct {
	NextQuestion string
	IsElaborated bool
	FinalReport  *domain.FinalReport
	CurrentStep  int
	TotalSteps   int
}

// Start validates the config, creates the session, and generates the first
// question.
func (s *InterviewService) Start(ctx domain.Context, cfg domain.InterviewConfig) (StartResult, error) {
	if !cfg.Type.Valid() {
		return StartResult{}, fmt.Errorf("%w: unknown interview type %q", domain.ErrInvalidArgument, cfg.Type)
	}
	if !cfg.Level.Valid() {
		return StartResult{}, fmt.Errorf("%w: unknown experience level %q", domain.ErrInvalidArgument, cfg.Level)
	}
	cfg.Role = roadmap.NormalizeRole(cfg.Role)

	question, outcome := s.Questions.GenerateFirst(ctx, cfg)

	now := time.Now().UTC()
	sess := domain.Session{
		ID:           uuid.New().String(),
		Config:       cfg,
		CurrentStep:  1,
		TotalSteps:   domain.StepsForType(cfg.Type),
		LastQuestion: question,
		Status:       domain.SessionAwaitingFirstAnswer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Put(ctx, sess); err != nil {
		return StartResult{}, fmt.Errorf("op=interview.Start: %w", err)
	}

	s.mirrorSession(ctx, sess)
	s.publish(ctx, domain.SessionEvent{
		Type:          domain.EventSessionStarted,
		SessionID:     sess.ID,
		Role:          cfg.Role,
		InterviewType: cfg.Type,
		Level:         cfg.Level,
		TotalSteps:    sess.TotalSteps,
		OccurredAt:    now,
	})
	observability.SessionStarted(string(cfg.Type), string(cfg.Level))

	slog.Info("interview started",
		slog.String("session_id", sess.ID),
		slog.String("role", cfg.Role),
		slog.String("interview_type", string(cfg.Type)),
		slog.String("level", string(cfg.Level)),
		slog.Int("total_steps", sess.TotalSteps),
		slog.Bool("degraded", outcome.Degraded))

	return StartResult{
		SessionID:     sess.ID,
		FirstQuestion: question,
		TotalSteps:    sess.TotalSteps,
	}, nil
}

// Next processes one answer submission. Gibberish answers stall the step
// and return an elaborated question; substantive answers are evaluated,
// appended to history, and followed by the next question or the final
// report. Concurrent submissions for the same session are serialized by the
// store.
func (s *InterviewService) Next(ctx domain.Context, sessionID, answer string) (NextResult, error) {
	if sessionID == "" {
		return NextResult{}, fmt.Errorf("%w: session_id required", domain.ErrInvalidArgument)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return NextResult{}, fmt.Errorf("%w: answer required", domain.ErrInvalidArgument)
	}

	var (
		res       NextResult
		turnEntry *domain.HistoryEntry
		turnStep  int
	)
	sess, err := s.Store.Mutate(ctx, sessionID, func(sess *domain.Session) error {
		if sess.Completed() {
			rep := *sess.Report
			res = NextResult{FinalReport: &rep, CurrentStep: sess.CurrentStep, TotalSteps: sess.TotalSteps}
			return nil
		}

		if answertext.IsGibberish(answer) && sess.Elaborations < maxElaborations {
			sess.Elaborations++
			observability.GibberishRejectedTotal.Inc()
			question, _ := s.Questions.Elaborate(ctx, sess.Config, sess.LastQuestion)
			sess.LastQuestion = question
			res = NextResult{
				NextQuestion: question,
				IsElaborated: true,
				CurrentStep:  sess.CurrentStep,
				TotalSteps:   sess.TotalSteps,
			}
			slog.Info("gibberish answer gated",
				slog.String("session_id", sess.ID),
				slog.Int("current_step", sess.CurrentStep),
				slog.Int("elaborations", sess.Elaborations))
			return nil
		}

		eval, _ := s.Evals.Evaluate(ctx, sess.LastQuestion, answer, sess.Config, sess.CurrentStep-1)
		entry := domain.HistoryEntry{
			Question:   sess.LastQuestion,
			Answer:     answer,
			Evaluation: &eval,
		}
		sess.History = append(sess.History, entry)
		sess.Elaborations = 0
		sess.Status = domain.SessionInProgress
		turnEntry = &entry
		turnStep = sess.CurrentStep

		if sess.CurrentStep >= sess.TotalSteps {
			rep, _ := s.Reports.Generate(ctx, sess.Config, sess.History)
			sess.Report = &rep
			sess.Status = domain.SessionCompleted
			res = NextResult{FinalReport: &rep, CurrentStep: sess.CurrentStep, TotalSteps: sess.TotalSteps}
			return nil
		}

		sess.CurrentStep++
		question, _ := s.Questions.GenerateFollowUp(ctx, sess.Config, sess.History)
		sess.LastQuestion = question
		res = NextResult{NextQuestion: question, CurrentStep: sess.CurrentStep, TotalSteps: sess.TotalSteps}
		return nil
	})
	if err != nil {
		return NextResult{}, err
	}

	s.mirrorSession(ctx, sess)
	if turnEntry != nil {
		s.mirrorTurn(ctx, sess.ID, turnStep, *turnEntry)
	}
	if res.FinalReport != nil && sess.Completed() {
		s.mirrorReport(ctx, sess.ID, *res.FinalReport)
		score := res.FinalReport.OverallScore
		s.publish(ctx, domain.SessionEvent{
			Type:          domain.EventSessionCompleted,
			SessionID:     sess.ID,
			Role:          sess.Config.Role,
			InterviewType: sess.Config.Type,
			Level:         sess.Config.Level,
			TotalSteps:    sess.TotalSteps,
			OverallScore:  &score,
			OccurredAt:    time.Now().UTC(),
		})
		observability.SessionCompleted(string(sess.Config.Type), string(sess.Config.Level), score)
	}

	return res, nil
}

// Report returns the final report. It is idempotent; when history already
// covers all steps but the report is missing (crash recovery), the report is
// generated on demand. Before completion it fails with ErrNotCompleted.
func (s *InterviewService) Report(ctx domain.Context, sessionID string) (domain.FinalReport, error) {
	if sessionID == "" {
		return domain.FinalReport{}, fmt.Errorf("%w: session_id required", domain.ErrInvalidArgument)
	}
	sess, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return domain.FinalReport{}, err
	}
	if sess.Report != nil {
		return *sess.Report, nil
	}
	if len(sess.History) < sess.TotalSteps {
		return domain.FinalReport{}, fmt.Errorf("%w: interview has %d of %d answers", domain.ErrNotCompleted, len(sess.History), sess.TotalSteps)
	}

	// Crash-recovery path: all answers are in but the report write was lost.
	sess, err = s.Store.Mutate(ctx, sessionID, func(sess *domain.Session) error {
		if sess.Report != nil {
			return nil
		}
		rep, _ := s.Reports.Generate(ctx, sess.Config, sess.History)
		sess.Report = &rep
		sess.Status = domain.SessionCompleted
		return nil
	})
	if err != nil {
		return domain.FinalReport{}, err
	}
	s.mirrorReport(ctx, sess.ID, *sess.Report)
	return *sess.Report, nil
}

// mirrorSession writes the session to the repository, best-effort.
func (s *InterviewService) mirrorSession(ctx domain.Context, sess domain.Session) {
	if s.Repo == nil {
		return
	}
	if err := s.Repo.SaveSession(ctx, sess); err != nil {
		slog.Warn("session mirror failed", slog.String("session_id", sess.ID), slog.Any("error", err))
	}
}

func (s *InterviewService) mirrorTurn(ctx domain.Context, sessionID string, step int, entry domain.HistoryEntry) {
	if s.Repo == nil {
		return
	}
	if err := s.Repo.SaveTurn(ctx, sessionID, step, entry); err != nil {
		slog.Warn("turn mirror failed", slog.String("session_id", sessionID), slog.Int("step", step), slog.Any("error", err))
	}
}

func (s *InterviewService) mirrorReport(ctx domain.Context, sessionID string, rep domain.FinalReport) {
	if s.Repo == nil {
		return
	}
	if err := s.Repo.SaveReport(ctx, sessionID, rep); err != nil {
		slog.Warn("report mirror failed", slog.String("session_id", sessionID), slog.Any("error", err))
	}
}

func (s *InterviewService) publish(ctx domain.Context, ev domain.SessionEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		slog.Warn("event publish failed", slog.String("session_id", ev.SessionID), slog.String("event_type", string(ev.Type)), slog.Any("error", err))
	}
}
