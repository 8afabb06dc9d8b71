package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guneshbari/mock-mentor/internal/adapter/httpserver"
	"github.com/Guneshbari/mock-mentor/internal/adapter/store/memory"
	"github.com/Guneshbari/mock-mentor/internal/config"
	"github.com/Guneshbari/mock-mentor/internal/domain"
	"github.com/Guneshbari/mock-mentor/internal/usecase"
)

type scriptedAI struct{}

func (scriptedAI) ChatJSON(_ context.Context, _, userPrompt string, _ int) (string, error) {
	switch {
	case strings.Contains(userPrompt, "final report"):
		return `{"overall_score": 72, "category_scores": {"communication": 70, "clarity": 75, "technical_depth": 72, "confidence": 70}, "strengths": ["clear"], "improvements": ["depth"], "actionable_feedback": ["practice"]}`, nil
	case strings.Contains(userPrompt, "Evaluate the candidate"):
		return `{"score": 70, "breakdown": {"completeness": 70, "technical_accuracy": 70, "depth": 70, "clarity": 70}, "feedback": "Fine.", "strengths": ["x"], "improvements": ["y"]}`, nil
	case strings.Contains(userPrompt, "Rephrase the question"):
		return `{"question": "Let me put that differently, what happened?"}`, nil
	default:
		return `{"question": "Tell me about a system you built.", "topic": "systems", "intent": "warmup"}`, nil
	}
}

type stubTranscriber struct {
	text string
	err  error
}

func (t stubTranscriber) Transcribe(_ context.Context, _ string, _ []byte) (string, error) {
	return t.text, t.err
}

const longAnswer = "I designed the ingestion pipeline end to end, starting from the schema " +
	"negotiation with upstream teams, then building the consumer with explicit " +
	"backpressure, and finally adding replay tooling so we could recover from " +
	"bad deploys without data loss. The hardest part was idempotency."

func newTestServer(t *testing.T, tr domain.Transcriber) *httpserver.Server {
	t.Helper()
	ai := scriptedAI{}
	svc := usecase.NewInterviewService(
		memory.New(time.Hour),
		usecase.NewQuestionService(ai),
		usecase.NewEvaluationService(ai),
		usecase.NewReportService(ai, "llama-3.3-70b-versatile"),
		nil, nil,
	)
	cfg := config.Config{MaxAudioUploadMB: 1}
	return httpserver.NewServer(cfg, svc, tr, nil, nil, nil)
}

func startSession(t *testing.T, srv *httpserver.Server) (string, string) {
	t.Helper()
	body := `{"interview_type": "technical", "role": "Backend Engineer", "skills": ["go"], "level": "mid"}`
	rec := httptest.NewRecorder()
	srv.StartHandler()(rec, httptest.NewRequest(http.MethodPost, "/v1/interview/start", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		SessionID     string `json:"session_id"`
		FirstQuestion string `json:"first_question"`
		TotalSteps    int    `json:"total_steps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.SessionID, resp.FirstQuestion
}

func TestStartHandler(t *testing.T) {
	srv := newTestServer(t, nil)
	id, q := startSession(t, srv)
	assert.NotEmpty(t, id)
	assert.Equal(t, "Tell me about a system you built.", q)
}

func TestStartHandlerRejectsUnknownType(t *testing.T) {
	srv := newTestServer(t, nil)
	body := `{"interview_type": "trivia", "role": "Backend Engineer", "level": "mid"}`
	rec := httptest.NewRecorder()
	srv.StartHandler()(rec, httptest.NewRequest(http.MethodPost, "/v1/interview/start", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_ARGUMENT")
}

func TestStartHandlerRejectsMalformedJSON(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.StartHandler()(rec, httptest.NewRequest(http.MethodPost, "/v1/interview/start", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNextHandlerAdvances(t *testing.T) {
	srv := newTestServer(t, nil)
	id, _ := startSession(t, srv)

	body, _ := json.Marshal(map[string]string{"session_id": id, "answer": longAnswer})
	rec := httptest.NewRecorder()
	srv.NextHandler()(rec, httptest.NewRequest(http.MethodPost, "/v1/interview/next", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		NextQuestion string `json:"next_question"`
		CurrentStep  int    `json:"current_step"`
		TotalSteps   int    `json:"total_steps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.CurrentStep)
	assert.Equal(t, 10, resp.TotalSteps)
	assert.NotEmpty(t, resp.NextQuestion)
}

func TestNextHandlerUnknownSession(t *testing.T) {
	srv := newTestServer(t, nil)
	body := `{"session_id": "3b241101-e2bb-4255-8caf-4136c566a962", "answer": "` + longAnswer[:60] + `"}`
	rec := httptest.NewRecorder()
	srv.NextHandler()(rec, httptest.NewRequest(http.MethodPost, "/v1/interview/next", strings.NewReader(body)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestNextHandlerRequiresAnswer(t *testing.T) {
	srv := newTestServer(t, nil)
	id, _ := startSession(t, srv)
	body, _ := json.Marshal(map[string]string{"session_id": id, "answer": ""})
	rec := httptest.NewRecorder()
	srv.NextHandler()(rec, httptest.NewRequest(http.MethodPost, "/v1/interview/next", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func audioRequest(t *testing.T, sessionID string, audio []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("session_id", sessionID))
	part, err := mw.CreateFormFile("audio", "answer.wav")
	require.NoError(t, err)
	_, err = part.Write(audio)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/interview/next", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// wavBytes is a minimal RIFF/WAVE header that sniffs as audio/wav.
func wavBytes() []byte {
	return append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 24)...)
}

func TestNextHandlerAudioTranscribesAndAdvances(t *testing.T) {
	srv := newTestServer(t, stubTranscriber{text: longAnswer})
	id, _ := startSession(t, srv)

	rec := httptest.NewRecorder()
	srv.NextHandler()(rec, audioRequest(t, id, wavBytes()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		CurrentStep int `json:"current_step"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.CurrentStep)
}

func TestNextHandlerAudioRejectsUnknownFormat(t *testing.T) {
	srv := newTestServer(t, stubTranscriber{text: longAnswer})
	id, _ := startSession(t, srv)

	rec := httptest.NewRecorder()
	srv.NextHandler()(rec, audioRequest(t, id, []byte("definitely not audio content at all")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported audio type")
}

func TestNextHandlerAudioTranscriptionFailureRetries(t *testing.T) {
	srv := newTestServer(t, stubTranscriber{err: errors.New("whisper unavailable")})
	id, firstQuestion := startSession(t, srv)

	rec := httptest.NewRecorder()
	srv.NextHandler()(rec, audioRequest(t, id, wavBytes()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		NextQuestion string `json:"next_question"`
		IsElaborated bool   `json:"is_elaborated"`
		CurrentStep  int    `json:"current_step"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsElaborated)
	assert.Contains(t, resp.NextQuestion, firstQuestion)
	assert.Equal(t, 1, resp.CurrentStep)
}

func TestNextHandlerAudioWithoutTranscriber(t *testing.T) {
	srv := newTestServer(t, nil)
	id, _ := startSession(t, srv)

	rec := httptest.NewRecorder()
	srv.NextHandler()(rec, audioRequest(t, id, wavBytes()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not enabled")
}

func TestReportHandlerBeforeCompletion(t *testing.T) {
	srv := newTestServer(t, nil)
	id, _ := startSession(t, srv)

	rec := httptest.NewRecorder()
	srv.ReportHandler()(rec, httptest.NewRequest(http.MethodGet, "/v1/interview/report?session_id="+id, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FAILED_PRECONDITION")
}

func TestReportHandlerAfterCompletion(t *testing.T) {
	srv := newTestServer(t, nil)
	id, _ := startSession(t, srv)

	var last struct {
		FinalReport *domain.FinalReport `json:"final_report"`
	}
	for i := 0; i < 10; i++ {
		body, _ := json.Marshal(map[string]string{"session_id": id, "answer": longAnswer})
		rec := httptest.NewRecorder()
		srv.NextHandler()(rec, httptest.NewRequest(http.MethodPost, "/v1/interview/next", bytes.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &last))
	}
	require.NotNil(t, last.FinalReport)

	rec := httptest.NewRecorder()
	srv.ReportHandler()(rec, httptest.NewRequest(http.MethodGet, "/v1/interview/report?session_id="+id, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		FinalReport domain.FinalReport `json:"final_report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 72, resp.FinalReport.OverallScore)
}

func TestReportHandlerRequiresSessionID(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.ReportHandler()(rec, httptest.NewRequest(http.MethodGet, "/v1/interview/report", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthzHandler(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.HealthzHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestReadyzHandlerAllHealthy(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.DBCheck = func(context.Context) error { return nil }
	srv.AICheck = func(context.Context) error { return nil }

	rec := httptest.NewRecorder()
	srv.ReadyzHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ready":true`)
}

func TestReadyzHandlerFailingCheck(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.DBCheck = func(context.Context) error { return errors.New("db down") }

	rec := httptest.NewRecorder()
	srv.ReadyzHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "db down")
}
