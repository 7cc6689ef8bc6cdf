package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsdraft/pkg/domain"
)

func TestServer_rssHandler(t *testing.T) {
	srv, deps := testServer(t)
	created := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	deps.store.ListDraftsFunc = func(_ context.Context, owner string, limit int) ([]domain.Draft, error) {
		assert.Equal(t, "alice", owner)
		assert.Equal(t, rssLimit, limit)
		return []domain.Draft{
			{ID: "p1", Owner: owner, Title: "Daily Digest: AI", Content: "<p>models & tools</p>", Topic: "AI",
				Status: domain.DraftStatusPublished, CreatedAt: created},
			{ID: "s1", Owner: owner, Title: "Sent only", Status: domain.DraftStatusSent, CreatedAt: created},
			{ID: "d1", Owner: owner, Title: "Still a draft", Status: domain.DraftStatusDraft, CreatedAt: created},
		}, nil
	}

	w := request(t, srv, "GET", "/rss/alice", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, body, `<title>Newsdraft - alice</title>`)
	assert.Contains(t, body, `<title>Daily Digest: AI</title>`)
	assert.Contains(t, body, `<guid>p1</guid>`)
	assert.Contains(t, body, `<link>http://example.com/rss/alice#p1</link>`)
	assert.Contains(t, body, `&lt;p&gt;models &amp; tools&lt;/p&gt;`)
	assert.Contains(t, body, `<category>AI</category>`)
	assert.Contains(t, body, `<pubDate>Tue, 10 Mar 2026 08:00:00 +0000</pubDate>`)
	assert.NotContains(t, body, "Sent only")
	assert.NotContains(t, body, "Still a draft")

	deps.store.ListDraftsFunc = func(context.Context, string, int) ([]domain.Draft, error) {
		return nil, errors.New("db is gone")
	}
	w = request(t, srv, "GET", "/rss/alice", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBaseURL(t *testing.T) {
	req := httptest.NewRequest("GET", "http://news.example.com/rss/a", http.NoBody)
	assert.Equal(t, "http://news.example.com", baseURL(req))

	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://news.example.com", baseURL(req))
}
