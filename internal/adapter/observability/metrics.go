package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider and operation",
		},
		[]string{"provider", "operation"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)

	SessionsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_sessions_started_total",
			Help: "Total number of interview sessions started",
		},
		[]string{"interview_type", "level"},
	)
	SessionsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_sessions_completed_total",
			Help: "Total number of interview sessions completed",
		},
		[]string{"interview_type", "level"},
	)
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "interview_sessions_active",
			Help: "Number of sessions currently held in the session store",
		},
	)

	DegradedOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_degraded_operations_total",
			Help: "Total number of LLM-backed operations that fell back to deterministic output",
		},
		[]string{"operation"},
	)
	GibberishRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_gibberish_rejected_total",
			Help: "Total number of answers rejected by the gibberish gate",
		},
	)

	// Final report score distribution
	OverallScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interview_overall_score",
			Help:    "Distribution of final report overall scores ([0,100])",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(SessionsStartedTotal)
	prometheus.MustRegister(SessionsCompletedTotal)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(DegradedOperationsTotal)
	prometheus.MustRegister(GibberishRejectedTotal)
	prometheus.MustRegister(OverallScoreHistogram)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// SessionStarted records a session start.
func SessionStarted(interviewType, level string) {
	SessionsStartedTotal.WithLabelValues(interviewType, level).Inc()
	SessionsActive.Inc()
}

// SessionCompleted records a completed session and its final score.
func SessionCompleted(interviewType, level string, overallScore int) {
	SessionsCompletedTotal.WithLabelValues(interviewType, level).Inc()
	if overallScore >= 0 && overallScore <= 100 {
		OverallScoreHistogram.Observe(float64(overallScore))
	}
}

// SessionEvicted decrements the active-session gauge when the store drops
// an idle session.
func SessionEvicted() { SessionsActive.Dec() }

// DegradedOperation records a fallback for an LLM-backed operation.
func DegradedOperation(operation string) {
	DegradedOperationsTotal.WithLabelValues(operation).Inc()
}
