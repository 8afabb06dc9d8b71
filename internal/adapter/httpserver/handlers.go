package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/Guneshbari/mock-mentor/internal/config"
	"github.com/Guneshbari/mock-mentor/internal/domain"
	"github.com/Guneshbari/mock-mentor/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg         config.Config
	Interviews  *usecase.InterviewService
	Transcriber domain.Transcriber
	DBCheck     func(ctx context.Context) error
	RedisCheck  func(ctx context.Context) error
	AICheck     func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
// Check funcs may be nil when the backing component is disabled.
func NewServer(cfg config.Config, interviews *usecase.InterviewService, transcriber domain.Transcriber, dbCheck, redisCheck, aiCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Interviews: interviews, Transcriber: transcriber, DBCheck: dbCheck, RedisCheck: redisCheck, AICheck: aiCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// allowedAudioMIMEs is the sniffed-MIME allowlist for audio answers.
var allowedAudioMIMEs = map[string]bool{
	"audio/webm": true,
	"video/webm": true,
	"audio/ogg":  true,
	"audio/wav":  true,
	"audio/mpeg": true,
	"audio/mp4":  true,
	"video/mp4":  true,
}

type startRequest struct {
	InterviewType string   `json:"interview_type" validate:"required,oneof=technical behavioral hr"`
	Role          string   `json:"role" validate:"required,max=120"`
	Skills        []string `json:"skills" validate:"max=30,dive,max=60"`
	Resume        string   `json:"resume" validate:"max=10000"`
	Level         string   `json:"level" validate:"required,oneof=fresh mid senior"`
	CandidateName string   `json:"candidate_name" validate:"max=120"`
	AudioMode     bool     `json:"audio_mode"`
}

type startResponse struct {
	SessionID     string `json:"session_id"`
	FirstQuestion string `json:"first_question"`
	TotalSteps    int    `json:"total_steps"`
}

// StartHandler creates a session and returns the first question.
func (s *Server) StartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}

		res, err := s.Interviews.Start(r.Context(), domain.InterviewConfig{
			Type:          domain.InterviewType(req.InterviewType),
			Role:          req.Role,
			Skills:        req.Skills,
			Resume:        req.Resume,
			Level:         domain.ExperienceLevel(req.Level),
			CandidateName: req.CandidateName,
			AudioMode:     req.AudioMode,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, startResponse{
			SessionID:     res.SessionID,
			FirstQuestion: res.FirstQuestion,
			TotalSteps:    res.TotalSteps,
		})
	}
}

type nextRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid4"`
	Answer    string `json:"answer" validate:"required,max=20000"`
}

type nextResponse struct {
	NextQuestion string              `json:"next_question,omitempty"`
	IsElaborated bool                `json:"is_elaborated,omitempty"`
	FinalReport  *domain.FinalReport `json:"final_report,omitempty"`
	CurrentStep  int                 `json:"current_step"`
	TotalSteps   int                 `json:"total_steps"`
}

// NextHandler accepts an answer as JSON or as a multipart audio upload and
// returns the next question, an elaboration, or the final report.
func (s *Server) NextHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			s.handleAudioNext(w, r)
			return
		}

		var req nextRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		s.advance(w, r, req.SessionID, req.Answer)
	}
}

// handleAudioNext reads an audio answer, sniffs the MIME against the
// allowlist, and transcribes it. Transcription failure degrades to an
// elaboration-style retry response, never a 500.
func (s *Server) handleAudioNext(w http.ResponseWriter, r *http.Request) {
	if s.Transcriber == nil {
		writeError(w, r, fmt.Errorf("%w: audio answers are not enabled", domain.ErrInvalidArgument), nil)
		return
	}
	maxBytes := s.Cfg.MaxAudioUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "too large") {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
				Code:    "INVALID_ARGUMENT",
				Message: "payload too large",
				Details: map[string]any{"max_mb": s.Cfg.MaxAudioUploadMB},
			}})
			return
		}
		writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		writeError(w, r, fmt.Errorf("%w: session_id required", domain.ErrInvalidArgument), map[string]string{"field": "session_id"})
		return
	}

	f, hdr, err := r.FormFile("audio")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: audio file required", domain.ErrInvalidArgument), map[string]string{"field": "audio"})
		return
	}
	defer func() { _ = f.Close() }()
	audio, err := io.ReadAll(f)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: audio read: %v", domain.ErrInvalidArgument, err), nil)
		return
	}

	mt := mimetype.Detect(audio)
	if !allowedAudioMIMEs[mt.String()] {
		writeError(w, r, fmt.Errorf("%w: unsupported audio type %s", domain.ErrInvalidArgument, mt.String()), map[string]string{"detected": mt.String()})
		return
	}

	text, err := s.Transcriber.Transcribe(r.Context(), hdr.Filename, audio)
	if err != nil || strings.TrimSpace(text) == "" {
		// Degrade to a retry: re-ask the current question rather than failing.
		LoggerFrom(r).Warn("transcription failed, returning retry",
			slog.String("session_id", sessionID),
			slog.Any("error", err))
		sess, gerr := s.Interviews.Store.Get(r.Context(), sessionID)
		if gerr != nil {
			writeError(w, r, gerr, nil)
			return
		}
		writeJSON(w, http.StatusOK, nextResponse{
			NextQuestion: "I could not hear that clearly. Could you repeat your answer? " + sess.LastQuestion,
			IsElaborated: true,
			CurrentStep:  sess.CurrentStep,
			TotalSteps:   sess.TotalSteps,
		})
		return
	}

	s.advance(w, r, sessionID, text)
}

func (s *Server) advance(w http.ResponseWriter, r *http.Request, sessionID, answer string) {
	res, err := s.Interviews.Next(r.Context(), sessionID, answer)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, nextResponse{
		NextQuestion: res.NextQuestion,
		IsElaborated: res.IsElaborated,
		FinalReport:  res.FinalReport,
		CurrentStep:  res.CurrentStep,
		TotalSteps:   res.TotalSteps,
	})
}

type reportResponse struct {
	FinalReport domain.FinalReport `json:"final_report"`
}

// ReportHandler returns the final report for a completed session.
func (s *Server) ReportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			writeError(w, r, fmt.Errorf("%w: session_id required", domain.ErrInvalidArgument), map[string]string{"field": "session_id"})
			return
		}
		rep, err := s.Interviews.Report(r.Context(), sessionID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, reportResponse{FinalReport: rep})
	}
}

// HealthzHandler reports process liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type readinessCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Details string `json:"details,omitempty"`
}

// ReadyzHandler runs the configured dependency checks.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type probe struct {
		name string
		fn   func(context.Context) error
	}
	return func(w http.ResponseWriter, r *http.Request) {
		probes := []probe{
			{"db", s.DBCheck},
			{"redis", s.RedisCheck},
			{"ai", s.AICheck},
		}
		allOK := true
		checks := make([]readinessCheck, 0, len(probes))
		for _, p := range probes {
			if p.fn == nil {
				continue
			}
			c := readinessCheck{Name: p.name, OK: true}
			if err := p.fn(r.Context()); err != nil {
				c.OK = false
				c.Details = err.Error()
				allOK = false
			}
			checks = append(checks, c)
		}
		status := http.StatusOK
		if !allOK {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{"ready": allOK, "checks": checks})
	}
}
