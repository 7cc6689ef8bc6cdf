package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsdraft/pkg/delivery"
	"github.com/umputun/newsdraft/pkg/domain"
	"github.com/umputun/newsdraft/pkg/llm"
	"github.com/umputun/newsdraft/pkg/ranker"
	"github.com/umputun/newsdraft/pkg/repository"
	"github.com/umputun/newsdraft/pkg/scheduler/mocks"
	"github.com/umputun/newsdraft/pkg/source"
)

var testNow = time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) (repos *repository.Repositories, cleanup func()) {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_txlock=immediate"
	repos, err := repository.NewRepositories(context.Background(), repository.Config{DSN: dsn, MaxOpenConns: 4})
	require.NoError(t, err)
	return repos, func() { assert.NoError(t, repos.Close()) }
}

type pipelineEnv struct {
	repos      *repository.Repositories
	fetcher    *mocks.FetcherMock
	ranker     *mocks.RankerMock
	styles     *mocks.StyleProviderMock
	generator  *mocks.GeneratorMock
	dispatcher *mocks.DispatcherMock
	pipeline   *Pipeline
	source     domain.Source
}

// newPipelineEnv makes a pipeline over a real database with one owner "alice", one source and
// mocks which produce and deliver a draft by email
func newPipelineEnv(t *testing.T, params PipelineParams) *pipelineEnv {
	t.Helper()
	repos, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	env := &pipelineEnv{repos: repos}
	env.source = domain.Source{Owner: "alice", URL: "https://example.com/feed", Kind: domain.SourceFeed, Priority: 2}
	require.NoError(t, repos.Source.AddSource(ctx, &env.source))
	require.NoError(t, repos.Schedule.UpsertSchedule(ctx, &domain.Schedule{Owner: "alice", TimeOfDay: "08:00",
		Timezone: "UTC+2", DeliveryMethod: domain.DeliveryEmail, Active: true, Email: "alice@example.com"}))

	items := []domain.Item{
		{Title: "Go 1.30 released", Link: "https://go.dev/blog/go1.30", Summary: "new release", SourceID: env.source.ID},
		{Title: "Rust and Go compared", Link: "https://example.com/rust-go", Summary: "comparison", SourceID: env.source.ID},
	}
	env.fetcher = &mocks.FetcherMock{FetchFunc: func(context.Context, []domain.Source) (source.Result, error) {
		return source.Result{Items: items}, nil
	}}
	env.ranker = &mocks.RankerMock{
		TrendsFunc: func(context.Context, []domain.Item) []domain.Trend {
			return []domain.Trend{{Keyword: "go", Frequency: 2}}
		},
		RankFunc: func(_ context.Context, items []domain.Item, _ ranker.Options) []domain.RankedCandidate {
			res := make([]domain.RankedCandidate, len(items))
			for i, it := range items {
				res[i] = domain.RankedCandidate{Item: it, Score: float64(len(items) - i)}
			}
			return res
		},
	}
	env.styles = &mocks.StyleProviderMock{GetFunc: func(context.Context, string) (*domain.StyleProfile, error) {
		return nil, nil
	}}
	env.generator = &mocks.GeneratorMock{GenerateFunc: func(_ context.Context, req llm.Request) (*domain.Draft, error) {
		return &domain.Draft{Owner: req.Owner, Title: llm.CombinedTitle(req.Title, req.Topic), Content: "<p>digest</p>",
			Status: domain.DraftStatusDraft, Topic: req.Topic, Tone: req.Tone, SourceTrends: req.Trends}, nil
	}}
	env.dispatcher = &mocks.DispatcherMock{DispatchFunc: func(context.Context, domain.DeliveryMethod, domain.Schedule,
		delivery.Message) delivery.Outcome {
		return delivery.Outcome{Succeeded: []string{domain.TransportEmail}}
	}}

	params.Sources, params.Fetcher, params.Ranker, params.Styles = repos.Source, env.fetcher, env.ranker, env.styles
	params.Generator, params.Drafts, params.Dispatcher = env.generator, repos.Draft, env.dispatcher
	params.Schedules, params.Attempts = repos.Schedule, repos.Attempt
	env.pipeline = NewPipeline(params)
	env.pipeline.now = func() time.Time { return testNow }
	return env
}

func (e *pipelineEnv) schedule(t *testing.T) domain.Schedule {
	t.Helper()
	s, err := e.repos.Schedule.GetSchedule(context.Background(), "alice")
	require.NoError(t, err)
	return *s
}

func TestPipeline_Run(t *testing.T) {
	env := newPipelineEnv(t, PipelineParams{Title: "Morning Brief", MaxItems: 3})
	ctx := context.Background()

	rec, err := env.pipeline.Run(ctx, env.schedule(t), "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, domain.AttemptDelivered, rec.Status)
	assert.Equal(t, 1, rec.Attempts)
	assert.Equal(t, []string{domain.TransportEmail}, rec.Succeeded)
	require.NotEmpty(t, rec.DraftID)

	// ranking got source priority and the run time
	require.Len(t, env.ranker.RankCalls(), 1)
	opts := env.ranker.RankCalls()[0].Opts
	assert.Equal(t, map[int64]int{env.source.ID: 2}, opts.Priority)
	assert.Equal(t, testNow, opts.Now)
	assert.Len(t, opts.Trends, 1)

	require.Len(t, env.generator.GenerateCalls(), 1)
	req := env.generator.GenerateCalls()[0].Req
	assert.Equal(t, "alice", req.Owner)
	assert.Equal(t, "Morning Brief", req.Title)
	assert.Equal(t, domain.DefaultTopic, req.Topic)
	assert.Equal(t, domain.DefaultTone, req.Tone)
	assert.Equal(t, 3, req.MaxItems)
	assert.Len(t, req.Candidates, 2)
	assert.Nil(t, req.Style)

	require.Len(t, env.dispatcher.DispatchCalls(), 1)
	call := env.dispatcher.DispatchCalls()[0]
	assert.Equal(t, domain.DeliveryEmail, call.Method)
	assert.Equal(t, "Morning Brief: "+domain.DefaultTopic, call.Msg.Subject)
	assert.Equal(t, "<p>digest</p>", call.Msg.HTML)

	// schedule, draft and attempt are all updated
	sched := env.schedule(t)
	require.NotNil(t, sched.LastDeliveredAt)
	assert.Equal(t, testNow, sched.LastDeliveredAt.UTC())
	assert.False(t, IsDue(sched, testNow.Add(time.Hour)), "delivered day is not due again")

	draft, err := env.repos.Draft.GetDraft(ctx, "alice", rec.DraftID)
	require.NoError(t, err)
	assert.Equal(t, domain.DraftStatusSent, draft.Status)
	require.NotNil(t, draft.SentAt)

	stored, err := env.repos.Attempt.GetAttempt(ctx, "alice", "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, domain.AttemptDelivered, stored.Status)
	assert.Equal(t, rec.DraftID, stored.DraftID)

	// the day is closed now
	_, err = env.pipeline.Run(ctx, env.schedule(t), "2026-03-10")
	require.ErrorIs(t, err, domain.ErrAttemptsExhausted)
	assert.Len(t, env.generator.GenerateCalls(), 1, "no generation for a closed day")
}

func TestPipeline_RunPastLocalMidnight(t *testing.T) {
	env := newPipelineEnv(t, PipelineParams{})
	// alice is in UTC+2, the run for the 10th finishes at 00:30 local time of the 11th
	finished := time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC)
	env.pipeline.now = func() time.Time { return finished }

	_, err := env.pipeline.Run(context.Background(), env.schedule(t), "2026-03-10")
	require.NoError(t, err)

	sched := env.schedule(t)
	require.NotNil(t, sched.LastDeliveredAt)
	assert.Equal(t, time.Date(2026, 3, 10, 21, 59, 59, 0, time.UTC), sched.LastDeliveredAt.UTC())
	assert.True(t, IsDue(sched, time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC)), "the 11th is still due at 08:00 local")
}

func TestPipeline_RunAllTransportsFailed(t *testing.T) {
	env := newPipelineEnv(t, PipelineParams{})
	env.dispatcher.DispatchFunc = func(context.Context, domain.DeliveryMethod, domain.Schedule, delivery.Message) delivery.Outcome {
		return delivery.Outcome{Failed: []string{domain.TransportEmail},
			Err: &domain.TransportError{Transport: domain.TransportEmail, Err: errors.New("smtp is down")}}
	}
	ctx := context.Background()

	rec, err := env.pipeline.Run(ctx, env.schedule(t), "2026-03-10")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransportFailure)
	assert.Contains(t, err.Error(), "all transports failed")
	require.NotNil(t, rec)
	assert.Equal(t, domain.AttemptPending, rec.Status)
	assert.Equal(t, 1, rec.Attempts)
	assert.Equal(t, []string{domain.TransportEmail}, rec.Failed)
	assert.Contains(t, rec.LastError, "smtp is down")

	sched := env.schedule(t)
	assert.Nil(t, sched.LastDeliveredAt, "failed delivery doesn't close the day")
	assert.True(t, IsDue(sched, testNow.Add(time.Hour)))

	drafts, err := env.repos.Draft.ListDrafts(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, domain.DraftStatusDraft, drafts[0].Status, "undelivered draft stays a draft")
	assert.Equal(t, drafts[0].ID, rec.DraftID)
}

func TestPipeline_RunGivesUp(t *testing.T) {
	env := newPipelineEnv(t, PipelineParams{MaxDailyAttempts: 2, NotifyOnGiveUp: true})
	env.generator.GenerateFunc = func(context.Context, llm.Request) (*domain.Draft, error) {
		return nil, fmt.Errorf("model <overloaded>: %w", domain.ErrGenerationTransient)
	}
	ctx := context.Background()

	rec, err := env.pipeline.Run(ctx, env.schedule(t), "2026-03-10")
	require.ErrorIs(t, err, domain.ErrGenerationTransient)
	assert.Equal(t, domain.AttemptPending, rec.Status)
	assert.Empty(t, env.dispatcher.DispatchCalls(), "nothing to deliver and no notice yet")

	rec, err = env.pipeline.Run(ctx, env.schedule(t), "2026-03-10")
	require.ErrorIs(t, err, domain.ErrGenerationTransient)
	assert.Equal(t, domain.AttemptFailed, rec.Status)
	assert.Equal(t, 2, rec.Attempts)

	require.Len(t, env.dispatcher.DispatchCalls(), 1, "give-up notice sent")
	notice := env.dispatcher.DispatchCalls()[0].Msg
	assert.Equal(t, "Newsletter delivery failed for 2026-03-10", notice.Subject)
	assert.Contains(t, notice.HTML, "after 2 attempts")
	assert.Contains(t, notice.HTML, "&lt;overloaded&gt;")

	_, err = env.pipeline.Run(ctx, env.schedule(t), "2026-03-10")
	require.ErrorIs(t, err, domain.ErrAttemptsExhausted)
	assert.Len(t, env.generator.GenerateCalls(), 2)

	// the next local day starts over
	rec, err = env.pipeline.Run(ctx, env.schedule(t), "2026-03-11")
	require.ErrorIs(t, err, domain.ErrGenerationTransient)
	assert.Equal(t, 1, rec.Attempts)
}

func TestPipeline_RunFailures(t *testing.T) {
	t.Run("no active sources", func(t *testing.T) {
		env := newPipelineEnv(t, PipelineParams{})
		require.NoError(t, env.repos.Source.DisableSource(context.Background(), "alice", env.source.ID))
		rec, err := env.pipeline.Run(context.Background(), env.schedule(t), "2026-03-10")
		require.ErrorIs(t, err, domain.ErrNoContent)
		assert.Equal(t, 1, rec.Attempts)
		assert.Empty(t, env.fetcher.FetchCalls())
	})

	t.Run("nothing fetched", func(t *testing.T) {
		env := newPipelineEnv(t, PipelineParams{})
		env.fetcher.FetchFunc = func(context.Context, []domain.Source) (source.Result, error) {
			return source.Result{}, fmt.Errorf("all 1 sources failed: %w", domain.ErrNoContent)
		}
		_, err := env.pipeline.Run(context.Background(), env.schedule(t), "2026-03-10")
		require.ErrorIs(t, err, domain.ErrNoContent)
		assert.Empty(t, env.generator.GenerateCalls())
	})

	t.Run("panic is recovered", func(t *testing.T) {
		env := newPipelineEnv(t, PipelineParams{})
		env.ranker.RankFunc = func(context.Context, []domain.Item, ranker.Options) []domain.RankedCandidate {
			panic("boom")
		}
		rec, err := env.pipeline.Run(context.Background(), env.schedule(t), "2026-03-10")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pipeline panic: boom")
		assert.Equal(t, domain.AttemptPending, rec.Status)
		assert.Contains(t, rec.LastError, "boom")
	})

	t.Run("style failure falls back to neutral", func(t *testing.T) {
		env := newPipelineEnv(t, PipelineParams{})
		env.styles.GetFunc = func(context.Context, string) (*domain.StyleProfile, error) {
			return nil, errors.New("db is locked")
		}
		rec, err := env.pipeline.Run(context.Background(), env.schedule(t), "2026-03-10")
		require.NoError(t, err)
		assert.Equal(t, domain.AttemptDelivered, rec.Status)
		require.Len(t, env.generator.GenerateCalls(), 1)
		assert.Nil(t, env.generator.GenerateCalls()[0].Req.Style)
	})

	t.Run("schedule changed by another writer", func(t *testing.T) {
		env := newPipelineEnv(t, PipelineParams{})
		stale := env.schedule(t)
		require.NoError(t, env.repos.Schedule.MarkDelivered(context.Background(), "alice", nil, testNow.Add(-time.Minute)))
		rec, err := env.pipeline.Run(context.Background(), stale, "2026-03-10")
		require.NoError(t, err)
		assert.Equal(t, domain.AttemptDelivered, rec.Status)
	})
}

func TestPipeline_RunWithRealFetcher(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	feed := func(prefix string) string {
		var sb strings.Builder
		sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>` + prefix + `</title>`)
		for i := range 4 {
			fmt.Fprintf(&sb, "<item><title>%s story number %d about things</title><link>https://%s.example.com/%d</link>"+
				"<description>summary %d</description><pubDate>%s</pubDate></item>",
				prefix, i, prefix, i, i, now.Add(-time.Duration(i)*time.Hour).Format(time.RFC1123Z))
		}
		sb.WriteString("</channel></rss>")
		return sb.String()
	}
	serve := func(body string) *httptest.Server {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/rss+xml")
			_, _ = w.Write([]byte(body))
		}))
		t.Cleanup(srv.Close)
		return srv
	}
	alpha, beta := serve(feed("alpha")), serve(feed("beta"))
	slow := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	env := newPipelineEnv(t, PipelineParams{})
	ctx := context.Background()
	for i, u := range []string{beta.URL, slow.URL} {
		src := domain.Source{Owner: "alice", URL: u, Kind: domain.SourceFeed, Priority: i + 3}
		require.NoError(t, env.repos.Source.AddSource(ctx, &src))
	}
	require.NoError(t, env.repos.Source.DisableSource(ctx, "alice", env.source.ID))
	alphaSrc := domain.Source{Owner: "alice", URL: alpha.URL, Kind: domain.SourceFeed, Priority: 1}
	require.NoError(t, env.repos.Source.AddSource(ctx, &alphaSrc))

	env.pipeline.Fetcher = source.NewFetcher(source.Config{Timeout: 300 * time.Millisecond, Budget: time.Second,
		MaxItemsPerSource: 5}, nil)
	env.pipeline.Ranker = ranker.New(ranker.Config{MaxCandidates: 6}, nil)
	env.pipeline.now = func() time.Time { return now }

	start := time.Now()
	rec, err := env.pipeline.Run(ctx, env.schedule(t), "2026-03-10")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 3*time.Second, "slow source doesn't hold the run")
	assert.Equal(t, domain.AttemptDelivered, rec.Status)

	require.Len(t, env.generator.GenerateCalls(), 1)
	req := env.generator.GenerateCalls()[0].Req
	assert.NotEmpty(t, req.Candidates)
	assert.LessOrEqual(t, len(req.Candidates), 6)
	for _, c := range req.Candidates {
		assert.NotContains(t, c.Item.Link, "127.0.0.1", "candidates come from feed items")
	}

	sched := env.schedule(t)
	require.NotNil(t, sched.LastDeliveredAt)
}
