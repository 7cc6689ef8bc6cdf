// Package server provides the JSON API of newsdraft. Every /api/v1 endpoint except status
// works on behalf of the owner named by the X-Owner-ID header.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/umputun/newsdraft/pkg/domain"
	"github.com/umputun/newsdraft/pkg/feedback"
	"github.com/umputun/newsdraft/pkg/scheduler"
)

//go:generate moq -out mocks/config.go -pkg mocks -skip-ensure -fmt goimports . ConfigProvider
//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store
//go:generate moq -out mocks/styles.go -pkg mocks -skip-ensure -fmt goimports . Styles
//go:generate moq -out mocks/feedback.go -pkg mocks -skip-ensure -fmt goimports . Feedback
//go:generate moq -out mocks/scheduler.go -pkg mocks -skip-ensure -fmt goimports . Scheduler
//go:generate moq -out mocks/social.go -pkg mocks -skip-ensure -fmt goimports . Social

// OwnerHeader carries the owner identity, authentication is done in front of the service
const OwnerHeader = "X-Owner-ID"

type ctxKey string

const ownerKey ctxKey = "owner"

// Server represents HTTP server instance
type Server struct {
	Params
	version string
	debug   bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Params defines server dependencies
type Params struct {
	Config    ConfigProvider
	Store     Store
	Styles    Styles
	Feedback  Feedback
	Scheduler Scheduler
	Social    Social
	Gatherer  prometheus.Gatherer // metrics source, prometheus.DefaultGatherer if nil
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// Store is the persistence used by the API
type Store interface {
	Ping(ctx context.Context) error
	GetSchedule(ctx context.Context, owner string) (*domain.Schedule, error)
	UpsertSchedule(ctx context.Context, s *domain.Schedule) error
	ListAttempts(ctx context.Context, owner string, limit int) ([]domain.DeliveryAttempt, error)
	AddSource(ctx context.Context, src *domain.Source) error
	ListSources(ctx context.Context, owner string, activeOnly bool) ([]domain.Source, error)
	DisableSource(ctx context.Context, owner string, id int64) error
	ListDrafts(ctx context.Context, owner string, limit int) ([]domain.Draft, error)
	GetDraft(ctx context.Context, owner, id string) (*domain.Draft, error)
	PublishDraft(ctx context.Context, owner, id string, at time.Time) error
}

// Styles trains and returns style profiles
type Styles interface {
	Train(ctx context.Context, owner string, samples []string) (*domain.StyleProfile, error)
	Get(ctx context.Context, owner string) (*domain.StyleProfile, error)
}

// Feedback records reactions, edits, engagement metrics and reviews and reports on them
type Feedback interface {
	RecordReaction(ctx context.Context, owner, draftID string, kind domain.ReactionKind) (*domain.Reaction, error)
	RecordEdit(ctx context.Context, owner, draftID, edited string) (*feedback.EditResult, error)
	RecordMetric(ctx context.Context, owner, draftID string, kind domain.MetricKind, value float64) (*domain.Metric, error)
	StartReview(ctx context.Context, owner, draftID string) (*domain.ReviewSession, error)
	StopReview(ctx context.Context, owner, draftID string) (time.Duration, error)
	Report(ctx context.Context, owner string, window time.Duration) domain.Report
}

// Scheduler runs the delivery pipeline on demand
type Scheduler interface {
	RunNow(ctx context.Context, owner string) (*domain.DeliveryAttempt, error)
	RunTimeout() time.Duration
	Running() bool
}

// Social rewrites drafts into social media posts
type Social interface {
	SocialPost(ctx context.Context, draft *domain.Draft, platform domain.SocialPlatform) (*domain.SocialPost, error)
}

// New initializes a new server instance
func New(p Params, version string, debug bool) *Server {
	if p.Gatherer == nil {
		p.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		Params:  p,
		version: version,
		debug:   debug,
		router:  routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.Config.GetServerConfig()
	log.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("newsdraft", "umputun", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Handle("GET /metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	s.router.HandleFunc("GET /rss/{owner}", s.rssHandler)

	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)

		r.Group().Route(func(o *routegroup.Bundle) {
			o.Use(ownerMiddleware)

			o.HandleFunc("GET /schedule", s.getScheduleHandler)
			o.HandleFunc("PUT /schedule", s.putScheduleHandler)
			o.HandleFunc("POST /run", s.runHandler)

			o.HandleFunc("POST /sources", s.addSourceHandler)
			o.HandleFunc("GET /sources", s.listSourcesHandler)
			o.HandleFunc("POST /sources/{id}/disable", s.disableSourceHandler)

			o.HandleFunc("POST /style/train", s.trainStyleHandler)
			o.HandleFunc("GET /style", s.getStyleHandler)

			o.HandleFunc("GET /drafts", s.listDraftsHandler)
			o.HandleFunc("GET /drafts/{id}", s.getDraftHandler)
			o.HandleFunc("POST /drafts/{id}/publish", s.publishDraftHandler)
			o.HandleFunc("POST /drafts/{id}/reactions", s.reactionHandler)
			o.HandleFunc("POST /drafts/{id}/edits", s.editHandler)
			o.HandleFunc("POST /drafts/{id}/metrics", s.metricHandler)
			o.HandleFunc("POST /drafts/{id}/social", s.socialHandler)
			o.HandleFunc("POST /drafts/{id}/review/start", s.startReviewHandler)
			o.HandleFunc("POST /drafts/{id}/review/stop", s.stopReviewHandler)

			o.HandleFunc("GET /report", s.reportHandler)
		})
	})
}

// ownerMiddleware rejects requests without owner identity and puts the owner to the request context
func ownerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get(OwnerHeader)
		if owner == "" {
			renderError(w, r, fmt.Errorf("missing %s header", OwnerHeader), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey, owner)))
	})
}

// ownerFrom returns the owner set by ownerMiddleware
func ownerFrom(r *http.Request) string {
	owner, _ := r.Context().Value(ownerKey).(string)
	return owner
}

// statusCode maps domain errors to http status codes
func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, scheduler.ErrInFlight), errors.Is(err, domain.ErrAttemptsExhausted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientSamples), errors.Is(err, domain.ErrNoContent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrGenerationTransient), errors.Is(err, domain.ErrGenerationRejected),
		errors.Is(err, domain.ErrInvalidContent), errors.Is(err, domain.ErrTransportFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into v
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
