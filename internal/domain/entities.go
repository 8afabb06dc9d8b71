// Package domain holds the core entities and ports of the mock interview
// service. It stays free of transport and storage concerns; adapters and
// usecases depend on it, never the other way around.
package domain

import (
	"context"
	"errors"
	"math"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrNotCompleted    = errors.New("interview not completed")
	ErrRateLimited     = errors.New("rate limited")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrInternal        = errors.New("internal error")
)

// InterviewType enumerates the supported interview styles.
type InterviewType string

const (
	InterviewTechnical  InterviewType = "technical"
	InterviewBehavioral InterviewType = "behavioral"
	InterviewHR         InterviewType = "hr"
)

// Valid reports whether t is a known interview type.
func (t InterviewType) Valid() bool {
	switch t {
	case InterviewTechnical, InterviewBehavioral, InterviewHR:
		return true
	}
	return false
}

// ExperienceLevel enumerates candidate experience presets.
type ExperienceLevel string

const (
	LevelFresh  ExperienceLevel = "fresh"
	LevelMid    ExperienceLevel = "mid"
	LevelSenior ExperienceLevel = "senior"
)

// Valid reports whether l is a known experience level.
func (l ExperienceLevel) Valid() bool {
	switch l {
	case LevelFresh, LevelMid, LevelSenior:
		return true
	}
	return false
}

// Step count bounds for a session; the per-type counts are clamped into
// this range at session creation and never recalculated.
const (
	MinTotalSteps = 5
	MaxTotalSteps = 10
)

// StepsForType returns the fixed question count for an interview type,
// clamped to [MinTotalSteps, MaxTotalSteps].
func StepsForType(t InterviewType) int {
	n := MinTotalSteps
	switch t {
	case InterviewTechnical:
		n = 10
	case InterviewBehavioral:
		n = 8
	case InterviewHR:
		n = 6
	}
	if n < MinTotalSteps {
		n = MinTotalSteps
	}
	if n > MaxTotalSteps {
		n = MaxTotalSteps
	}
	return n
}

// InterviewConfig is the candidate-supplied configuration, immutable for
// the lifetime of a session.
type InterviewConfig struct {
	Type          InterviewType
	Role          string
	Skills        []string
	Resume        string
	Level         ExperienceLevel
	CandidateName string
	AudioMode     bool
}

// ScoreBreakdown is the per-answer rubric breakdown, each dimension 0-100.
type ScoreBreakdown struct {
	Completeness      int `json:"completeness"`
	TechnicalAccuracy int `json:"technical_accuracy"`
	Depth             int `json:"depth"`
	Clarity           int `json:"clarity"`
}

// Rubric weights: completeness 25%, technical accuracy 30%, depth 25%,
// clarity 20%.
const (
	WeightCompleteness      = 0.25
	WeightTechnicalAccuracy = 0.30
	WeightDepth             = 0.25
	WeightClarity           = 0.20
)

// WeightedScore computes the overall score as the weighted sum of the
// breakdown dimensions, rounded to the nearest integer.
func (b ScoreBreakdown) WeightedScore() int {
	s := WeightCompleteness*float64(b.Completeness) +
		WeightTechnicalAccuracy*float64(b.TechnicalAccuracy) +
		WeightDepth*float64(b.Depth) +
		WeightClarity*float64(b.Clarity)
	return int(math.Round(s))
}

// Evaluation is the structured score for a single answer.
type Evaluation struct {
	Score        int            `json:"score"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
	Feedback     string         `json:"feedback"`
	Strengths    []string       `json:"strengths"`
	Improvements []string       `json:"improvements"`
}

// HistoryEntry is one completed turn. Evaluation is nil when scoring was
// skipped or degraded to the point of being useless.
type HistoryEntry struct {
	Question   string      `json:"question"`
	Answer     string      `json:"answer"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

// CategoryScores is the final-report dimension set. It deliberately
// differs from the per-answer breakdown.
type CategoryScores struct {
	Communication  int `json:"communication"`
	Clarity        int `json:"clarity"`
	TechnicalDepth int `json:"technical_depth"`
	Confidence     int `json:"confidence"`
}

// QARecord is the per-question summary row of a final report.
type QARecord struct {
	Question      string `json:"question"`
	AnswerSummary string `json:"answer_summary"`
	Score         int    `json:"score"`
}

// FinalReport is the terminal artifact of a session, created exactly once.
type FinalReport struct {
	OverallScore          int            `json:"overall_score"`
	CategoryScores        CategoryScores `json:"category_scores"`
	Strengths             []string       `json:"strengths"`
	Improvements          []string       `json:"improvements"`
	ActionableFeedback    []string       `json:"actionable_feedback"`
	QuestionAnswerHistory []QARecord     `json:"question_answer_history"`
	CreatedAt             time.Time      `json:"created_at"`
}

// SessionStatus tracks the interview state machine.
type SessionStatus string

const (
	SessionAwaitingFirstAnswer SessionStatus = "awaiting_first_answer"
	SessionInProgress          SessionStatus = "in_progress"
	SessionCompleted           SessionStatus = "completed"
)

// Session is the mutable state of one interview. The session store owns
// the authoritative copy; the database mirror is best-effort.
type Session struct {
	ID     string
	Config InterviewConfig
	// CurrentStep is 1-based and monotonically non-decreasing.
	CurrentStep int
	TotalSteps  int
	// LastQuestion is the question the candidate is currently answering.
	LastQuestion string
	// Elaborations counts consecutive low-content answers for the current
	// step; it resets whenever the step advances.
	Elaborations int
	History      []HistoryEntry
	Report       *FinalReport
	Status       SessionStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Completed reports whether the session has produced its final report.
func (s *Session) Completed() bool { return s.Status == SessionCompleted }

// Clone returns a deep copy safe to mutate without affecting s.
func (s Session) Clone() Session {
	out := s
	out.Config.Skills = append([]string(nil), s.Config.Skills...)
	out.History = make([]HistoryEntry, len(s.History))
	copy(out.History, s.History)
	if s.Report != nil {
		rep := *s.Report
		rep.Strengths = append([]string(nil), s.Report.Strengths...)
		rep.Improvements = append([]string(nil), s.Report.Improvements...)
		rep.ActionableFeedback = append([]string(nil), s.Report.ActionableFeedback...)
		rep.QuestionAnswerHistory = append([]QARecord(nil), s.Report.QuestionAnswerHistory...)
		out.Report = &rep
	}
	return out
}

// Outcome tags an LLM-backed operation's result so callers and logs can
// tell a real AI result from a deterministic fallback without exceptions.
type Outcome struct {
	Degraded bool
	Reason   string
}

// OK is the non-degraded outcome.
func OK() Outcome { return Outcome{} }

// Degraded constructs a degraded outcome with the given reason.
func Degraded(reason string) Outcome { return Outcome{Degraded: true, Reason: reason} }

// SessionEventType enumerates lifecycle events published for analytics.
type SessionEventType string

const (
	EventSessionStarted   SessionEventType = "session.started"
	EventSessionCompleted SessionEventType = "session.completed"
)

// SessionEvent is the best-effort analytics payload for a lifecycle event.
type SessionEvent struct {
	Type          SessionEventType `json:"type"`
	SessionID     string           `json:"session_id"`
	Role          string           `json:"role"`
	InterviewType InterviewType    `json:"interview_type"`
	Level         ExperienceLevel  `json:"level"`
	TotalSteps    int              `json:"total_steps"`
	OverallScore  *int             `json:"overall_score,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// Ports

// SessionStore is the authoritative in-process (or Redis-backed) session
// state store. Mutate must serialize concurrent mutations of the same
// session id so duplicate submissions cannot corrupt history.
type SessionStore interface {
	Get(ctx Context, id string) (Session, error)
	Put(ctx Context, s Session) error
	Delete(ctx Context, id string) error
	Mutate(ctx Context, id string, fn func(*Session) error) (Session, error)
}

// SessionRepository mirrors session state to durable storage. All writes
// are best-effort: callers log failures and continue.
type SessionRepository interface {
	SaveSession(ctx Context, s Session) error
	SaveTurn(ctx Context, sessionID string, step int, entry HistoryEntry) error
	SaveReport(ctx Context, sessionID string, r FinalReport) error
}

// AIClient is the opaque LLM provider port. Implementations return the raw
// model text; JSON recovery happens above this interface.
type AIClient interface {
	ChatJSON(ctx Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Transcriber converts a recorded answer into text.
type Transcriber interface {
	Transcribe(ctx Context, filename string, audio []byte) (string, error)
}

// EventPublisher publishes session lifecycle events, best-effort.
type EventPublisher interface {
	Publish(ctx Context, ev SessionEvent) error
}

// Context aliases context.Context so the domain package reads cleanly in
// port signatures.
type Context = context.Context
