package usecase

import (
	"log/slog"

	"github.com/Guneshbari/mock-mentor/internal/adapter/ai"
	"github.com/Guneshbari/mock-mentor/internal/adapter/observability"
	"github.com/Guneshbari/mock-mentor/internal/domain"
	"github.com/Guneshbari/mock-mentor/internal/roadmap"
)

// EvaluationService scores answers against the rubric. Failures never block
// interview progression: a neutral all-50 evaluation is returned instead.
type EvaluationService struct {
	AI domain.AIClient
}

// NewEvaluationService constructs an EvaluationService.
func NewEvaluationService(client domain.AIClient) *EvaluationService {
	return &EvaluationService{AI: client}
}

// evaluationResponse mirrors domain.Evaluation but keeps Score as a pointer
// so an omitted score can be recovered from the breakdown.
type evaluationResponse struct {
	Score        *int                  `json:"score"`
	Breakdown    domain.ScoreBreakdown `json:"breakdown"`
	Feedback     string                `json:"feedback"`
	Strengths    []string              `json:"strengths"`
	Improvements []string              `json:"improvements"`
}

const neutralScore = 50

func neutralEvaluation() domain.Evaluation {
	return domain.Evaluation{
		Score: neutralScore,
		Breakdown: domain.ScoreBreakdown{
			Completeness:      neutralScore,
			TechnicalAccuracy: neutralScore,
			Depth:             neutralScore,
			Clarity:           neutralScore,
		},
		Feedback: "The answer was recorded but could not be scored automatically.",
	}
}

// Evaluate scores one answer. The expected topic is resolved from the same
// roadmap lookup the generator used, so the rubric targets the question that
// was actually asked. When the model returns a breakdown without a score,
// the score is the weighted sum of the breakdown dimensions.
func (s *EvaluationService) Evaluate(ctx domain.Context, question, answer string, cfg domain.InterviewConfig, questionIndex int) (domain.Evaluation, domain.Outcome) {
	topics := roadmap.Resolve(cfg.Role, cfg.Level, cfg.Type)
	topic := roadmap.TopicAt(topics, questionIndex)

	raw, err := s.AI.ChatJSON(ctx, BuildPersona(cfg), buildRubricPrompt(cfg, topic, question, answer), evaluationMaxTokens)
	if err != nil {
		slog.Warn("evaluation degraded",
			slog.String("topic", topic),
			slog.Int("question_index", questionIndex),
			slog.Any("error", err))
		observability.DegradedOperation("evaluate")
		return neutralEvaluation(), domain.Degraded(err.Error())
	}

	var er evaluationResponse
	if derr := ai.DecodeLLMJSON(raw, &er); derr != nil {
		slog.Warn("evaluation response unparseable",
			slog.String("topic", topic),
			slog.Any("error", derr))
		observability.DegradedOperation("evaluate")
		return neutralEvaluation(), domain.Degraded(derr.Error())
	}

	ev := domain.Evaluation{
		Breakdown:    er.Breakdown,
		Feedback:     er.Feedback,
		Strengths:    er.Strengths,
		Improvements: er.Improvements,
	}
	if er.Score != nil {
		ev.Score = clampScore(*er.Score)
	} else {
		ev.Score = er.Breakdown.WeightedScore()
	}
	return ev, domain.OK()
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
