package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsdraft/pkg/domain"
	"github.com/umputun/newsdraft/pkg/scheduler"
)

func TestServer_getScheduleHandler(t *testing.T) {
	srv, deps := testServer(t)
	deps.store.GetScheduleFunc = func(_ context.Context, owner string) (*domain.Schedule, error) {
		if owner != "alice" {
			return nil, domain.ErrNotFound
		}
		return &domain.Schedule{Owner: "alice", TimeOfDay: "08:00", Timezone: "UTC+2", DeliveryMethod: domain.DeliveryEmail,
			Active: true, Email: "alice@example.com"}, nil
	}
	deps.store.ListAttemptsFunc = func(_ context.Context, owner string, limit int) ([]domain.DeliveryAttempt, error) {
		assert.Equal(t, 7, limit)
		return []domain.DeliveryAttempt{{Owner: owner, Day: "2026-03-09", Attempts: 1, Status: domain.AttemptDelivered}}, nil
	}

	w := request(t, srv, "GET", "/api/v1/schedule", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Schedule domain.Schedule          `json:"schedule"`
		LocalDay string                   `json:"local_day"`
		Attempts []domain.DeliveryAttempt `json:"attempts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "08:00", resp.Schedule.TimeOfDay)
	assert.Equal(t, "alice@example.com", resp.Schedule.Email)
	assert.Len(t, resp.LocalDay, len("2006-01-02"))
	require.Len(t, resp.Attempts, 1)
	assert.Equal(t, domain.AttemptDelivered, resp.Attempts[0].Status)

	w = request(t, srv, "GET", "/api/v1/schedule", "bob", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_putScheduleHandler(t *testing.T) {
	srv, deps := testServer(t)
	var saved domain.Schedule
	deps.store.UpsertScheduleFunc = func(_ context.Context, s *domain.Schedule) error {
		saved = *s
		return nil
	}
	deps.store.GetScheduleFunc = func(context.Context, string) (*domain.Schedule, error) {
		return &saved, nil
	}

	w := request(t, srv, "PUT", "/api/v1/schedule", "alice",
		`{"time_of_day":"07:30","timezone":"Europe/Berlin","delivery_method":"Both","email":"a@example.com","chat_id":"42","topic":"AI"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "alice", saved.Owner)
	assert.Equal(t, domain.DeliveryBoth, saved.DeliveryMethod)
	assert.True(t, saved.Active, "active by default")
	assert.Equal(t, "AI", saved.Topic)

	w = request(t, srv, "PUT", "/api/v1/schedule", "alice",
		`{"time_of_day":"07:30","timezone":"UTC","delivery_method":"chat","chat_id":"42","active":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, saved.Active)

	tests := []struct {
		name, body, err string
	}{
		{"bad time", `{"time_of_day":"7pm","timezone":"UTC","delivery_method":"chat","chat_id":"1"}`, "invalid time of day"},
		{"bad zone", `{"time_of_day":"07:00","timezone":"Mars/Base","delivery_method":"chat","chat_id":"1"}`, "unknown timezone"},
		{"bad method", `{"time_of_day":"07:00","timezone":"UTC","delivery_method":"fax"}`, "fax"},
		{"no email", `{"time_of_day":"07:00","timezone":"UTC","delivery_method":"email"}`, "email is required"},
		{"bad email", `{"time_of_day":"07:00","timezone":"UTC","delivery_method":"email","email":"nope"}`, "invalid email"},
		{"no chat", `{"time_of_day":"07:00","timezone":"UTC","delivery_method":"both","email":"a@example.com"}`, "chat_id is required"},
		{"unknown field", `{"time":"07:00"}`, "invalid request body"},
		{"not json", `07:00`, "invalid request body"},
	}
	calls := len(deps.store.UpsertScheduleCalls())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(t, srv, "PUT", "/api/v1/schedule", "alice", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.err)
		})
	}
	assert.Len(t, deps.store.UpsertScheduleCalls(), calls, "invalid schedules are not saved")
}

func TestServer_runHandler(t *testing.T) {
	srv, deps := testServer(t)

	deps.scheduler.RunNowFunc = func(_ context.Context, owner string) (*domain.DeliveryAttempt, error) {
		return &domain.DeliveryAttempt{Owner: owner, Day: "2026-03-10", Attempts: 1, Status: domain.AttemptDelivered,
			DraftID: "d1", Succeeded: []string{"email"}}, nil
	}
	w := request(t, srv, "POST", "/api/v1/run", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp runResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Attempt)
	assert.Equal(t, domain.AttemptDelivered, resp.Attempt.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, "alice", deps.scheduler.RunNowCalls()[0].Owner)

	tests := []struct {
		name    string
		rec     *domain.DeliveryAttempt
		err     error
		code    int
		attempt bool
	}{
		{"in flight", nil, fmt.Errorf("owner alice: %w", scheduler.ErrInFlight), http.StatusConflict, false},
		{"day closed", nil, domain.ErrAttemptsExhausted, http.StatusConflict, false},
		{"no schedule", nil, fmt.Errorf("get schedule: %w", domain.ErrNotFound), http.StatusNotFound, false},
		{"generation failed", &domain.DeliveryAttempt{Attempts: 2, Status: domain.AttemptPending},
			fmt.Errorf("generate: %w", domain.ErrGenerationTransient), http.StatusBadGateway, true},
		{"nothing to send", &domain.DeliveryAttempt{Attempts: 1, Status: domain.AttemptPending},
			domain.ErrNoContent, http.StatusUnprocessableEntity, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps.scheduler.RunNowFunc = func(context.Context, string) (*domain.DeliveryAttempt, error) {
				return tt.rec, tt.err
			}
			w := request(t, srv, "POST", "/api/v1/run", "alice", "")
			assert.Equal(t, tt.code, w.Code)
			var resp runResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.err.Error(), resp.Error)
			assert.Equal(t, tt.attempt, resp.Attempt != nil)
		})
	}
}

func TestServer_sourceHandlers(t *testing.T) {
	srv, deps := testServer(t)
	deps.store.AddSourceFunc = func(_ context.Context, src *domain.Source) error {
		src.ID, src.Active = 12, true
		return nil
	}
	deps.store.ListSourcesFunc = func(_ context.Context, owner string, activeOnly bool) ([]domain.Source, error) {
		if activeOnly {
			return nil, nil
		}
		return []domain.Source{{ID: 1, Owner: owner, URL: "golang", Kind: domain.SourceSocialTag}}, nil
	}
	deps.store.DisableSourceFunc = func(_ context.Context, _ string, id int64) error {
		if id != 12 {
			return domain.ErrNotFound
		}
		return nil
	}

	w := request(t, srv, "POST", "/api/v1/sources", "alice",
		`{"url":"https://go.dev/blog/feed.atom","kind":"feed","category":"go","priority":1}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var src domain.Source
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &src))
	assert.Equal(t, int64(12), src.ID)
	assert.Equal(t, "alice", src.Owner)
	assert.Equal(t, domain.SourceFeed, src.Kind)

	w = request(t, srv, "POST", "/api/v1/sources", "alice", `{"url":"@umputun","kind":"social-handle"}`)
	assert.Equal(t, http.StatusCreated, w.Code, "non-feed sources are not urls")

	for _, body := range []string{
		`{"url":"https://example.com/rss","kind":"newspaper"}`,
		`{"url":"","kind":"feed"}`,
		`{"url":"ftp://example.com/rss","kind":"feed"}`,
		`{"url":"not a url","kind":"feed"}`,
	} {
		w = request(t, srv, "POST", "/api/v1/sources", "alice", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Len(t, deps.store.AddSourceCalls(), 2)

	w = request(t, srv, "GET", "/api/v1/sources", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = request(t, srv, "GET", "/api/v1/sources?all=true", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sources []domain.Source
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sources))
	assert.Len(t, sources, 1)

	w = request(t, srv, "POST", "/api/v1/sources/12/disable", "alice", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":12,"active":false}`, w.Body.String())

	w = request(t, srv, "POST", "/api/v1/sources/13/disable", "alice", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(t, srv, "POST", "/api/v1/sources/abc/disable", "alice", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_styleHandlers(t *testing.T) {
	srv, deps := testServer(t)
	deps.styles.TrainFunc = func(_ context.Context, owner string, samples []string) (*domain.StyleProfile, error) {
		if len(samples) < domain.MinStyleSamples {
			return nil, fmt.Errorf("got %d: %w", len(samples), domain.ErrInsufficientSamples)
		}
		return &domain.StyleProfile{Owner: owner, Fingerprint: domain.Fingerprint{SampleCount: len(samples)}}, nil
	}
	deps.styles.GetFunc = func(_ context.Context, owner string) (*domain.StyleProfile, error) {
		switch owner {
		case "alice":
			return &domain.StyleProfile{Owner: owner, CustomInstructions: "be brief"}, nil
		case "broken":
			return nil, errors.New("db is gone")
		}
		return nil, nil
	}

	w := request(t, srv, "POST", "/api/v1/style/train", "alice", `{"samples":["one","two"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = request(t, srv, "POST", "/api/v1/style/train", "alice", `{"samples":["one","two","three"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var profile domain.StyleProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, 3, profile.Fingerprint.SampleCount)

	w = request(t, srv, "GET", "/api/v1/style", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "be brief")

	w = request(t, srv, "GET", "/api/v1/style", "bob", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(t, srv, "GET", "/api/v1/style", "broken", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServer_draftHandlers(t *testing.T) {
	srv, deps := testServer(t)
	draft := domain.Draft{ID: "d1", Owner: "alice", Title: "Daily", Content: "<p>hi</p>", Status: domain.DraftStatusDraft}
	deps.store.ListDraftsFunc = func(context.Context, string, int) ([]domain.Draft, error) {
		return []domain.Draft{draft}, nil
	}
	deps.store.GetDraftFunc = func(_ context.Context, _, id string) (*domain.Draft, error) {
		if id != "d1" {
			return nil, domain.ErrNotFound
		}
		d := draft
		return &d, nil
	}
	deps.store.PublishDraftFunc = func(_ context.Context, _, id string, _ time.Time) error {
		if draft.Status != domain.DraftStatusDraft {
			return fmt.Errorf("draft %s is not in draft state: %w", id, domain.ErrConflict)
		}
		draft.Status = domain.DraftStatusPublished
		return nil
	}

	w := request(t, srv, "GET", "/api/v1/drafts", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultDraftsLimit, deps.store.ListDraftsCalls()[0].Limit)

	w = request(t, srv, "GET", "/api/v1/drafts?limit=1000", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxDraftsLimit, deps.store.ListDraftsCalls()[1].Limit)

	w = request(t, srv, "GET", "/api/v1/drafts?limit=-1", "alice", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(t, srv, "GET", "/api/v1/drafts/d1", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"draft"`)

	w = request(t, srv, "GET", "/api/v1/drafts/d2", "alice", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(t, srv, "POST", "/api/v1/drafts/d1/publish", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"published"`)

	w = request(t, srv, "POST", "/api/v1/drafts/d1/publish", "alice", "")
	assert.Equal(t, http.StatusConflict, w.Code, "published draft can't go back")
}
