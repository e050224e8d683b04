package http

import (
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/riskassess/pkg/usecase"
	"github.com/secmon-lab/riskassess/pkg/utils/logging"
)

type Server struct {
	router  *chi.Mux
	uc      *usecase.UseCases
	sentry  bool
	timeout time.Duration
}

type Options func(*Server)

// WithSentry attaches a Sentry hub to every request and reports panics
func WithSentry(enabled bool) Options {
	return func(s *Server) {
		s.sentry = enabled
	}
}

// WithRequestTimeout cancels request contexts after d
func WithRequestTimeout(d time.Duration) Options {
	return func(s *Server) {
		s.timeout = d
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:  r,
		uc:      uc,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	if s.sentry {
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.getCatalog)

		r.Route("/scoring", func(r chi.Router) {
			r.Get("/config", s.getScoringConfig)
			r.Put("/config", s.putScoringConfig)
			r.Get("/classify", s.classify)
			r.Get("/ranges", s.listRanges)
			r.Post("/ranges", s.createRange)
			r.Put("/ranges/{rangeID}", s.updateRange)
			r.Delete("/ranges/{rangeID}", s.deleteRange)
		})

		r.Route("/risks", func(r chi.Router) {
			r.Get("/", s.listRisks)
			r.Route("/{riskID}", func(r chi.Router) {
				r.Get("/", s.getRisk)
				r.Put("/controls", s.putControls)
				r.Post("/residual", s.recalculateResidual)
				r.Post("/assessment", s.openAssessment)
			})
		})

		r.Route("/assessments/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getAssessment)
			r.Delete("/", s.discardAssessment)
			r.Post("/next", s.nextStep)
			r.Post("/previous", s.previousStep)
			r.Post("/goto", s.goToStep)
			r.Post("/likelihood", s.captureLikelihood)
			r.Post("/impact", s.captureImpact)
			r.Post("/vulnerability", s.captureVulnerability)
			r.Post("/save", s.saveAssessment)
			r.Post("/complete", s.completeAssessment)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger puts a logger tagged with the request ID into the request context
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(logging.With(r.Context(), logger)))
	})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
