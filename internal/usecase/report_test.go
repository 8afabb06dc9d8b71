package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guneshbari/mock-mentor/internal/domain"
)

func sampleHistory(n int) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, n)
	for i := range out {
		out[i] = domain.HistoryEntry{
			Question: "What is connection pooling?",
			Answer:   strings.Repeat("Connection pooling reuses database connections to avoid handshake overhead. ", 3),
			Evaluation: &domain.Evaluation{
				Score:    70 + i,
				Feedback: "reasonable",
			},
		}
	}
	return out
}

func TestReportGenerate_ParsesModelReport(t *testing.T) {
	client := &fakeAI{fn: func(_, userPrompt string, _ int) (string, error) {
		assert.Contains(t, userPrompt, "Q1:")
		return `{
			"overall_score": 78,
			"category_scores": {"communication": 75, "clarity": 80, "technical_depth": 76, "confidence": 70},
			"strengths": ["practical examples"],
			"improvements": ["quantify impact"],
			"actionable_feedback": ["practice system design"],
			"question_answer_history": [
				{"question":"q1","answer_summary":"a1","score":70},
				{"question":"q2","answer_summary":"a2","score":71},
				{"question":"q3","answer_summary":"a3","score":72},
				{"question":"q4","answer_summary":"a4","score":73},
				{"question":"q5","answer_summary":"a5","score":74}
			]
		}`, nil
	}}
	svc := NewReportService(client, "gemini-1.5-flash")

	rep, outcome := svc.Generate(context.Background(), techConfig(), sampleHistory(5))
	assert.False(t, outcome.Degraded)
	assert.Equal(t, 78, rep.OverallScore)
	assert.Equal(t, 80, rep.CategoryScores.Clarity)
	assert.Len(t, rep.QuestionAnswerHistory, 5)
	assert.False(t, rep.CreatedAt.IsZero())
}

func TestReportGenerate_SynthesizesQAHistoryWhenOmitted(t *testing.T) {
	client := &fakeAI{fn: func(_, _ string, _ int) (string, error) {
		return `{"overall_score": 65, "category_scores": {"communication": 60, "clarity": 65, "technical_depth": 70, "confidence": 60}, "strengths": [], "improvements": [], "actionable_feedback": []}`, nil
	}}
	svc := NewReportService(client, "gemini-1.5-flash")
	history := sampleHistory(6)

	rep, outcome := svc.Generate(context.Background(), techConfig(), history)
	assert.False(t, outcome.Degraded)
	require.Len(t, rep.QuestionAnswerHistory, 6)
	for i, qa := range rep.QuestionAnswerHistory {
		assert.Equal(t, history[i].Question, qa.Question)
		assert.LessOrEqual(t, len(qa.AnswerSummary), answerSummaryLen)
		assert.Equal(t, history[i].Evaluation.Score, qa.Score)
	}
}

func TestReportGenerate_PlaceholderOnFailure(t *testing.T) {
	client := &fakeAI{fn: func(_, _ string, _ int) (string, error) {
		return "", errors.New("provider down")
	}}
	svc := NewReportService(client, "gemini-1.5-flash")
	history := sampleHistory(5)

	rep, outcome := svc.Generate(context.Background(), techConfig(), history)
	assert.True(t, outcome.Degraded)
	assert.Equal(t, 0, rep.OverallScore)
	assert.NotEmpty(t, rep.Strengths)
	assert.Len(t, rep.QuestionAnswerHistory, 5)
}

func TestReportGenerate_ClampsOverallScore(t *testing.T) {
	client := &fakeAI{fn: func(_, _ string, _ int) (string, error) {
		return `{"overall_score": 250, "question_answer_history": [{"question":"q","answer_summary":"a","score":50}]}`, nil
	}}
	svc := NewReportService(client, "gemini-1.5-flash")

	rep, _ := svc.Generate(context.Background(), techConfig(), sampleHistory(1))
	assert.Equal(t, 100, rep.OverallScore)
}

func TestBuildTranscript_TruncatesOverBudget(t *testing.T) {
	svc := NewReportService(nil, "gemini-1.5-flash")
	big := make([]domain.HistoryEntry, 10)
	for i := range big {
		big[i] = domain.HistoryEntry{
			Question: "q",
			Answer:   strings.Repeat("an extremely long answer segment with many distinct words ", 500),
		}
	}
	transcript := svc.buildTranscript(big)
	full := renderTranscript(big, 0)
	assert.Less(t, len(transcript), len(full))
}
