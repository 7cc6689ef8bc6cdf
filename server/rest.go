package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/umputun/newsdraft/pkg/domain"
	"github.com/umputun/newsdraft/pkg/scheduler"
)

const (
	defaultDraftsLimit = 20
	maxDraftsLimit     = 100
	scheduleAttempts   = 7                // recent attempt records returned with the schedule
	runDeadlineMargin  = 30 * time.Second // on top of the run budget, covers waiting for a worker slot
)

type scheduleRequest struct {
	TimeOfDay      string `json:"time_of_day"`
	Timezone       string `json:"timezone"`
	DeliveryMethod string `json:"delivery_method"`
	Active         *bool  `json:"active"` // true if omitted
	Email          string `json:"email"`
	ChatID         string `json:"chat_id"`
	Topic          string `json:"topic"`
	Tone           string `json:"tone"`
}

type scheduleResponse struct {
	Schedule *domain.Schedule         `json:"schedule"`
	LocalDay string                   `json:"local_day"`
	Due      bool                     `json:"due"`
	Attempts []domain.DeliveryAttempt `json:"attempts"`
}

type sourceRequest struct {
	URL      string `json:"url"`
	Kind     string `json:"kind"`
	Category string `json:"category"`
	Priority int    `json:"priority"`
}

type trainRequest struct {
	Samples []string `json:"samples"`
}

type runResponse struct {
	Attempt *domain.DeliveryAttempt `json:"attempt,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":    "ok",
		"version":   s.version,
		"time":      time.Now().UTC(),
		"scheduler": s.Scheduler.Running(),
		"database":  "ok",
	}
	code := http.StatusOK
	if err := s.Store.Ping(r.Context()); err != nil {
		log.Printf("[WARN] database ping failed: %v", err)
		status["status"], status["database"] = "degraded", err.Error()
		code = http.StatusServiceUnavailable
	}
	renderJSON(w, r, code, status)
}

// getScheduleHandler returns the caller's schedule with its recent delivery attempts
func (s *Server) getScheduleHandler(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)
	sched, err := s.Store.GetSchedule(r.Context(), owner)
	if err != nil {
		renderError(w, r, err, statusCode(err))
		return
	}

	attempts, err := s.Store.ListAttempts(r.Context(), owner, scheduleAttempts)
	if err != nil {
		log.Printf("[ERROR] failed to list attempts of %s: %v", owner, err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}

	now := time.Now()
	day, _ := scheduler.LocalDay(*sched, now) // stored schedules are validated
	renderJSON(w, r, http.StatusOK, scheduleResponse{Schedule: sched, LocalDay: day,
		Due: scheduler.IsDue(*sched, now), Attempts: attempts})
}

// putScheduleHandler creates or replaces the caller's schedule
func (s *Server) putScheduleHandler(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	sched := domain.Schedule{
		Owner:          owner,
		TimeOfDay:      req.TimeOfDay,
		Timezone:       req.Timezone,
		DeliveryMethod: domain.DeliveryMethod(strings.ToLower(req.DeliveryMethod)),
		Active:         req.Active == nil || *req.Active,
		Email:          strings.TrimSpace(req.Email),
		ChatID:         strings.TrimSpace(req.ChatID),
		Topic:          strings.TrimSpace(req.Topic),
		Tone:           strings.TrimSpace(req.Tone),
	}
	if err := validateSchedule(sched); err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.Store.UpsertSchedule(r.Context(), &sched); err != nil {
		log.Printf("[ERROR] failed to save schedule of %s: %v", owner, err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}

	stored, err := s.Store.GetSchedule(r.Context(), owner)
	if err != nil {
		renderError(w, r, err, statusCode(err))
		return
	}
	log.Printf("[INFO] schedule of %s set to %s %s via %s", owner, stored.TimeOfDay, stored.Timezone, stored.DeliveryMethod)
	renderJSON(w, r, http.StatusOK, stored)
}

// validateSchedule checks schedule fields and the recipients required by the delivery method
func validateSchedule(sched domain.Schedule) error {
	if err := scheduler.Validate(sched); err != nil {
		return err
	}
	for _, t := range sched.DeliveryMethod.Transports() {
		switch t {
		case domain.TransportEmail:
			if sched.Email == "" {
				return errors.New("email is required for email delivery")
			}
			if _, err := mail.ParseAddress(sched.Email); err != nil {
				return fmt.Errorf("invalid email %q", sched.Email)
			}
		case domain.TransportChat:
			if sched.ChatID == "" {
				return errors.New("chat_id is required for chat delivery")
			}
		}
	}
	return nil
}

// runHandler runs the caller's pipeline now and returns the attempt record.
// The run is detached from the request, a disconnected client doesn't cancel it.
// Connection deadlines are extended past the run budget.
func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)
	rc, deadline := http.NewResponseController(w), time.Now().Add(s.Scheduler.RunTimeout()+runDeadlineMargin)
	if err := errors.Join(rc.SetReadDeadline(deadline), rc.SetWriteDeadline(deadline)); err != nil {
		log.Printf("[WARN] can't extend deadlines of manual run, %v", err)
	}
	rec, err := s.Scheduler.RunNow(context.WithoutCancel(r.Context()), owner)
	if err != nil {
		log.Printf("[WARN] manual run of %s failed: %v", owner, err)
		renderJSON(w, r, statusCode(err), runResponse{Attempt: rec, Error: err.Error()})
		return
	}
	renderJSON(w, r, http.StatusOK, runResponse{Attempt: rec})
}

// addSourceHandler adds a source or re-activates an existing one with the same kind and url
func (s *Server) addSourceHandler(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	kind, err := domain.ParseSourceKind(req.Kind)
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	src := domain.Source{Owner: ownerFrom(r), URL: strings.TrimSpace(req.URL), Kind: kind,
		Category: strings.TrimSpace(req.Category), Priority: req.Priority}
	if src.URL == "" {
		renderError(w, r, errors.New("url is required"), http.StatusBadRequest)
		return
	}
	if kind == domain.SourceFeed {
		u, err := url.ParseRequestURI(src.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			renderError(w, r, fmt.Errorf("invalid feed url %q", src.URL), http.StatusBadRequest)
			return
		}
	}

	if err := s.Store.AddSource(r.Context(), &src); err != nil {
		log.Printf("[ERROR] failed to add source: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusCreated, src)
}

// listSourcesHandler returns active sources of the caller, all of them with ?all=true
func (s *Server) listSourcesHandler(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	sources, err := s.Store.ListSources(r.Context(), ownerFrom(r), !all)
	if err != nil {
		log.Printf("[ERROR] failed to list sources: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	if sources == nil {
		sources = []domain.Source{}
	}
	renderJSON(w, r, http.StatusOK, sources)
}

// disableSourceHandler soft-disables a source
func (s *Server) disableSourceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		renderError(w, r, fmt.Errorf("invalid source ID"), http.StatusBadRequest)
		return
	}
	if err := s.Store.DisableSource(r.Context(), ownerFrom(r), id); err != nil {
		renderError(w, r, err, statusCode(err))
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]any{"id": id, "active": false})
}

// trainStyleHandler replaces the caller's style profile with one trained on the samples
func (s *Server) trainStyleHandler(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	profile, err := s.Styles.Train(r.Context(), ownerFrom(r), req.Samples)
	if err != nil {
		renderError(w, r, err, statusCode(err))
		return
	}
	renderJSON(w, r, http.StatusOK, profile)
}

// getStyleHandler returns the caller's style profile
func (s *Server) getStyleHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := s.Styles.Get(r.Context(), ownerFrom(r))
	if err != nil {
		renderError(w, r, err, statusCode(err))
		return
	}
	if profile == nil {
		renderError(w, r, errors.New("style profile is not trained"), http.StatusNotFound)
		return
	}
	renderJSON(w, r, http.StatusOK, profile)
}

// listDraftsHandler returns the latest drafts of the caller
func (s *Server) listDraftsHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultDraftsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			renderError(w, r, fmt.Errorf("invalid limit %q", v), http.StatusBadRequest)
			return
		}
		limit = min(n, maxDraftsLimit)
	}

	drafts, err := s.Store.ListDrafts(r.Context(), ownerFrom(r), limit)
	if err != nil {
		log.Printf("[ERROR] failed to list drafts: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	if drafts == nil {
		drafts = []domain.Draft{}
	}
	renderJSON(w, r, http.StatusOK, drafts)
}

func (s *Server) getDraftHandler(w http.ResponseWriter, r *http.Request) {
	draft, err := s.Store.GetDraft(r.Context(), ownerFrom(r), r.PathValue("id"))
	if err != nil {
		renderError(w, r, err, statusCode(err))
		return
	}
	renderJSON(w, r, http.StatusOK, draft)
}

// publishDraftHandler moves a draft to published, sent and published drafts can't be published again
func (s *Server) publishDraftHandler(w http.ResponseWriter, r *http.Request) {
	owner, id := ownerFrom(r), r.PathValue("id")
	if err := s.Store.PublishDraft(r.Context(), owner, id, time.Now()); err != nil {
		renderError(w, r, err, statusCode(err))
		return
	}
	draft, err := s.Store.GetDraft(r.Context(), owner, id)
	if err != nil {
		renderError(w, r, err, statusCode(err))
		return
	}
	log.Printf("[INFO] draft %s published by %s", id, owner)
	renderJSON(w, r, http.StatusOK, draft)
}
