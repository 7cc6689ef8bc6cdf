package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/umputun/newsdraft/pkg/domain"
)

const maxReportDays = 365

type reactionRequest struct {
	Kind string `json:"kind"`
}

type editRequest struct {
	Content string `json:"content"`
}

type metricRequest struct {
	Kind  string   `json:"kind"`
	Value *float64 `json:"value"`
}

type socialRequest struct {
	Platform string `json:"platform"`
}

type reviewResponse struct {
	DraftID     string  `json:"draft_id"`
	Minutes     float64 `json:"minutes"`
	UnderTarget bool    `json:"under_target"`
}

// reactionHandler records a reaction to a draft
func (s *Server) reactionHandler(w http.ResponseWriter, r *http.Request) {
	var req reactionRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	kind, err := domain.ParseReactionKind(strings.ToLower(req.Kind))
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	rc, err := s.Feedback.RecordReaction(r.Context(), ownerFrom(r), r.PathValue("id"), kind)
	if err != nil {
		renderError(w, r, err, statusCode(err))
		return
	}
	renderJSON(w, r, http.StatusCreated, rc)
}

// editHandler replaces draft content and returns the diff summary of the change
func (s *Server) editHandler(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		renderError(w, r, errors.New("content is required"), http.StatusBadRequest)
		return
	}

	res, err := s.Feedback.RecordEdit(r.Context(), ownerFrom(r), r.PathValue("id"), req.Content)
	if err != nil {
		renderError(w, r, err, statusCode(err))
		return
	}
	renderJSON(w, r, http.StatusCreated, res)
}

func (s *Server) startReviewHandler(w http.ResponseWriter, r *http.Request) {
	rs, err := s.Feedback.StartReview(r.Context(), ownerFrom(r), r.PathValue("id"))
	if err != nil {
		renderError(w, r, err, statusCode(err))
		return
	}
	renderJSON(w, r, http.StatusCreated, rs)
}

func (s *Server) stopReviewHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	dur, err := s.Feedback.StopReview(r.Context(), ownerFrom(r), id)
	if err != nil {
		renderError(w, r, err, statusCode(err))
		return
	}
	renderJSON(w, r, http.StatusOK, reviewResponse{DraftID: id, Minutes: dur.Minutes(), UnderTarget: dur <= domain.ReviewTarget})
}

// reportHandler returns the feedback report of the caller for the last ?days=N days, 30 by default
func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxReportDays {
			renderError(w, r, fmt.Errorf("days should be between 1 and %d", maxReportDays), http.StatusBadRequest)
			return
		}
		days = n
	}
	renderJSON(w, r, http.StatusOK, s.Feedback.Report(r.Context(), ownerFrom(r), time.Duration(days)*24*time.Hour))
}

// metricHandler records an engagement metric of a delivered draft, value is a percentage
func (s *Server) metricHandler(w http.ResponseWriter, r *http.Request) {
	var req metricRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	kind, err := domain.ParseMetricKind(strings.ToLower(req.Kind))
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	if req.Value == nil {
		renderError(w, r, errors.New("value is required"), http.StatusBadRequest)
		return
	}
	if err = domain.ValidateRate(*req.Value); err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	m, err := s.Feedback.RecordMetric(r.Context(), ownerFrom(r), r.PathValue("id"), kind, *req.Value)
	if err != nil {
		renderError(w, r, err, statusCode(err))
		return
	}
	renderJSON(w, r, http.StatusCreated, m)
}

// socialHandler generates a twitter thread or a linkedin post from a draft, nothing is published
func (s *Server) socialHandler(w http.ResponseWriter, r *http.Request) {
	var req socialRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	platform, err := domain.ParseSocialPlatform(strings.ToLower(strings.TrimSpace(req.Platform)))
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	draft, err := s.Store.GetDraft(r.Context(), ownerFrom(r), r.PathValue("id"))
	if err != nil {
		renderError(w, r, err, statusCode(err))
		return
	}
	post, err := s.Social.SocialPost(r.Context(), draft, platform)
	if err != nil {
		log.Printf("[WARN] %s post of draft %s failed: %v", platform, draft.ID, err)
		renderError(w, r, err, statusCode(err))
		return
	}
	renderJSON(w, r, http.StatusOK, post)
}
