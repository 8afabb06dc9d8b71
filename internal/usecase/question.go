package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Guneshbari/mock-mentor/internal/adapter/ai"
	"github.com/Guneshbari/mock-mentor/internal/adapter/observability"
	"github.com/Guneshbari/mock-mentor/internal/domain"
	"github.com/Guneshbari/mock-mentor/internal/roadmap"
	"github.com/Guneshbari/mock-mentor/pkg/answertext"
)

// QuestionService generates interview questions through the AI client,
// degrading to deterministic fallbacks on any provider failure.
type QuestionService struct {
	AI domain.AIClient
}

// NewQuestionService constructs a QuestionService.
func NewQuestionService(client domain.AIClient) *QuestionService {
	return &QuestionService{AI: client}
}

// genericFallbacks rotate when a follow-up generation fails; indexed by
// len(history) % 5.
var genericFallbacks = [5]string{
	"Can you walk me through a challenging problem you solved recently and how you approached it?",
	"How do you decide when a solution is good enough to ship versus needing more work?",
	"Tell me about a time you received critical feedback on your work. How did you respond?",
	"What do you do when you are blocked on a task and the usual approaches are not working?",
	"How do you keep your skills current in this field, and what have you learned recently?",
}

type questionResponse struct {
	Question string `json:"question"`
	Topic    string `json:"topic"`
	Intent   string `json:"intent"`
}

// GenerateFirst produces the opening question for a session. It never
// returns an error: LLM failures degrade to a topic-referencing fallback.
func (s *QuestionService) GenerateFirst(ctx domain.Context, cfg domain.InterviewConfig) (string, domain.Outcome) {
	topics := roadmap.Resolve(cfg.Role, cfg.Level, cfg.Type)
	topic := roadmap.TopicAt(topics, 0)

	raw, err := s.AI.ChatJSON(ctx, BuildPersona(cfg), buildFirstQuestionPrompt(cfg, topic), questionMaxTokens)
	if err == nil {
		var qr questionResponse
		if derr := ai.DecodeLLMJSON(raw, &qr); derr == nil && strings.TrimSpace(qr.Question) != "" {
			return strings.TrimSpace(qr.Question), domain.OK()
		}
		err = fmt.Errorf("missing question field")
	}

	slog.Warn("first question generation degraded",
		slog.String("role", cfg.Role),
		slog.String("topic", topic),
		slog.Any("error", err))
	observability.DegradedOperation("generate_first")
	return fmt.Sprintf("Can you explain your experience with %s?", topic), domain.Degraded(err.Error())
}

// GenerateFollowUp produces the next question as a bridge from the latest
// answer to the next roadmap topic. On failure it returns one of five
// rotating generic fallbacks indexed by len(history) % 5.
func (s *QuestionService) GenerateFollowUp(ctx domain.Context, cfg domain.InterviewConfig, history []domain.HistoryEntry) (string, domain.Outcome) {
	topics := roadmap.Resolve(cfg.Role, cfg.Level, cfg.Type)
	topic := roadmap.TopicAt(topics, len(history))

	lastAnswer := ""
	if len(history) > 0 {
		lastAnswer = history[len(history)-1].Answer
	}
	depth := answertext.AnalyzeDepth(lastAnswer)
	concepts := answertext.ExtractMentionedConcepts(lastAnswer)

	raw, err := s.AI.ChatJSON(ctx, BuildPersona(cfg), buildFollowUpPrompt(cfg, topic, lastAnswer, depth, concepts), questionMaxTokens)
	if err == nil {
		var qr questionResponse
		if derr := ai.DecodeLLMJSON(raw, &qr); derr == nil && strings.TrimSpace(qr.Question) != "" {
			return strings.TrimSpace(qr.Question), domain.OK()
		}
		err = fmt.Errorf("missing question field")
	}

	slog.Warn("follow-up question generation degraded",
		slog.String("role", cfg.Role),
		slog.String("topic", topic),
		slog.Int("history_len", len(history)),
		slog.Any("error", err))
	observability.DegradedOperation("generate_follow_up")
	return genericFallbacks[len(history)%len(genericFallbacks)], domain.Degraded(err.Error())
}

// Elaborate rephrases the current question after a low-content answer. The
// fallback keeps the original question with an encouraging preamble.
func (s *QuestionService) Elaborate(ctx domain.Context, cfg domain.InterviewConfig, question string) (string, domain.Outcome) {
	raw, err := s.AI.ChatJSON(ctx, BuildPersona(cfg), buildElaborationPrompt(cfg, question), questionMaxTokens)
	if err == nil {
		var qr questionResponse
		if derr := ai.DecodeLLMJSON(raw, &qr); derr == nil && strings.TrimSpace(qr.Question) != "" {
			return strings.TrimSpace(qr.Question), domain.OK()
		}
		err = fmt.Errorf("missing question field")
	}

	slog.Warn("question elaboration degraded", slog.Any("error", err))
	observability.DegradedOperation("elaborate")
	return fmt.Sprintf("No problem, take your time. Let me put it another way: %s Feel free to answer with a concrete example.", question), domain.Degraded(err.Error())
}
