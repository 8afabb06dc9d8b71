package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Guneshbari/mock-mentor/internal/adapter/ai"
	"github.com/Guneshbari/mock-mentor/internal/adapter/ai/tokencount"
	"github.com/Guneshbari/mock-mentor/internal/adapter/observability"
	"github.com/Guneshbari/mock-mentor/internal/domain"
)

// reportPromptTokenBudget bounds the transcript portion of the report
// prompt so long interviews stay inside the provider context window.
const reportPromptTokenBudget = 6000

// answerSummaryLen is the truncation length for synthesized answer
// summaries in the QA history.
const answerSummaryLen = 100

// ReportService produces the final report from the full interview history.
type ReportService struct {
	AI domain.AIClient
	// Model is used for token counting only.
	Model string
}

// NewReportService constructs a ReportService.
func NewReportService(client domain.AIClient, model string) *ReportService {
	return &ReportService{AI: client, Model: model}
}

// Generate builds the final report. On LLM failure it returns a zero-score
// placeholder report so the candidate always receives a terminal artifact.
func (s *ReportService) Generate(ctx domain.Context, cfg domain.InterviewConfig, history []domain.HistoryEntry) (domain.FinalReport, domain.Outcome) {
	transcript := s.buildTranscript(history)

	raw, err := s.AI.ChatJSON(ctx, BuildPersona(cfg), buildReportPrompt(transcript), reportMaxTokens)
	if err != nil {
		slog.Error("report generation degraded", slog.Int("history_len", len(history)), slog.Any("error", err))
		observability.DegradedOperation("report")
		return placeholderReport(history), domain.Degraded(err.Error())
	}

	var rep domain.FinalReport
	if derr := ai.DecodeLLMJSON(raw, &rep); derr != nil {
		slog.Error("report response unparseable", slog.Any("error", derr))
		observability.DegradedOperation("report")
		return placeholderReport(history), domain.Degraded(derr.Error())
	}

	rep.OverallScore = clampScore(rep.OverallScore)
	if len(rep.QuestionAnswerHistory) < len(history) {
		rep.QuestionAnswerHistory = synthesizeQAHistory(history)
	}
	rep.CreatedAt = time.Now().UTC()
	return rep, domain.OK()
}

// buildTranscript serializes the history for the prompt, trimming answers
// when the transcript exceeds the token budget.
func (s *ReportService) buildTranscript(history []domain.HistoryEntry) string {
	full := renderTranscript(history, 0)
	if tokencount.DefaultCounter.FitsBudget(full, s.Model, reportPromptTokenBudget) {
		return full
	}
	slog.Info("report transcript over token budget, truncating answers",
		slog.Int("history_len", len(history)))
	return renderTranscript(history, 300)
}

func renderTranscript(history []domain.HistoryEntry, answerLimit int) string {
	var b strings.Builder
	for i, h := range history {
		answer := h.Answer
		if answerLimit > 0 && len(answer) > answerLimit {
			answer = answer[:answerLimit] + "..."
		}
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", i+1, h.Question, i+1, answer)
		if h.Evaluation != nil {
			fmt.Fprintf(&b, "Score: %d. %s\n", h.Evaluation.Score, h.Evaluation.Feedback)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// synthesizeQAHistory rebuilds the QA rows from raw history when the model
// omits or truncates them, summarizing each answer to 100 characters.
func synthesizeQAHistory(history []domain.HistoryEntry) []domain.QARecord {
	out := make([]domain.QARecord, 0, len(history))
	for _, h := range history {
		summary := h.Answer
		if len(summary) > answerSummaryLen {
			summary = summary[:answerSummaryLen]
		}
		score := 0
		if h.Evaluation != nil {
			score = h.Evaluation.Score
		}
		out = append(out, domain.QARecord{
			Question:      h.Question,
			AnswerSummary: summary,
			Score:         score,
		})
	}
	return out
}

func placeholderReport(history []domain.HistoryEntry) domain.FinalReport {
	return domain.FinalReport{
		OverallScore:          0,
		Strengths:             []string{"Completed the full interview."},
		Improvements:          []string{"Automated scoring was unavailable for this session."},
		ActionableFeedback:    []string{"Please review your answers with a mentor; the evaluation service could not produce scores."},
		QuestionAnswerHistory: synthesizeQAHistory(history),
		CreatedAt:             time.Now().UTC(),
	}
}
