package feedback

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsdraft/pkg/domain"
	"github.com/umputun/newsdraft/pkg/repository"
)

func setupTestDB(t *testing.T) (repos *repository.Repositories, cleanup func()) {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_txlock=immediate"
	repos, err := repository.NewRepositories(context.Background(), repository.Config{DSN: dsn, MaxOpenConns: 4})
	require.NoError(t, err)
	return repos, func() { assert.NoError(t, repos.Close()) }
}

func TestDiffSummary(t *testing.T) {
	tests := []struct {
		name     string
		original string
		edited   string
		want     EditSummary
	}{
		{name: "same", original: "a b\nc", edited: "a b\nc", want: EditSummary{OriginalWords: 3, EditedWords: 3}},
		{name: "replace and insert", original: "a\nb\nc", edited: "a\nB\nc\nd",
			want: EditSummary{LinesAdded: 2, LinesDeleted: 1, OriginalWords: 3, EditedWords: 4, EditRatio: 0.33}},
		{name: "deletion", original: "one two\nthree four", edited: "one two",
			want: EditSummary{LinesDeleted: 1, OriginalWords: 4, EditedWords: 2, EditRatio: 0.5}},
		{name: "from empty", original: "", edited: "new text",
			want: EditSummary{LinesAdded: 1, LinesDeleted: 1, EditedWords: 2, EditRatio: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DiffSummary(tt.original, tt.edited))
		})
	}
}

func TestUnifiedDiff(t *testing.T) {
	diff, err := UnifiedDiff("a\nb\n", "a\nc\n")
	require.NoError(t, err)
	assert.Contains(t, diff, "--- original")
	assert.Contains(t, diff, "+++ edited")
	assert.Contains(t, diff, "-b")
	assert.Contains(t, diff, "+c")

	diff, err = UnifiedDiff("same\n", "same\n")
	require.NoError(t, err)
	assert.Empty(t, diff)
}

func TestRecorderAndReport(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	d1 := &domain.Draft{Owner: "alice", Title: "d1", Content: "one two three four"}
	d2 := &domain.Draft{Owner: "alice", Title: "d2", Content: "x"}
	require.NoError(t, repos.Draft.CreateDraft(ctx, d1))
	require.NoError(t, repos.Draft.CreateDraft(ctx, d2))

	rec := NewRecorder(repos.Feedback, repos.Draft)
	at := func(d time.Duration) func() time.Time { return func() time.Time { return base.Add(d) } }

	// reactions, one outside of the window
	rec.now = at(-40 * 24 * time.Hour)
	_, err := rec.RecordReaction(ctx, "alice", d1.ID, domain.ReactionThumbsDown)
	require.NoError(t, err)
	rec.now = at(0)
	for _, k := range []domain.ReactionKind{domain.ReactionAccepted, domain.ReactionThumbsUp, domain.ReactionThumbsDown, domain.ReactionRejected} {
		_, err = rec.RecordReaction(ctx, "alice", d1.ID, k)
		require.NoError(t, err)
	}

	// edits
	res, err := rec.RecordEdit(ctx, "alice", d1.ID, "one two three four five six")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Edit.EditRatio, 0.001)
	assert.Equal(t, 4, res.Edit.OriginalWords)
	assert.NotEmpty(t, res.Diff)
	got, err := repos.Draft.GetDraft(ctx, "alice", d1.ID)
	require.NoError(t, err)
	assert.Equal(t, "one two three four five six", got.Content)

	res, err = rec.RecordEdit(ctx, "alice", d1.ID, "one two three four five six")
	require.NoError(t, err)
	assert.Zero(t, res.Edit.EditRatio)

	// reviews: 15m and 30m closed, one still open
	_, err = rec.StartReview(ctx, "alice", d1.ID)
	require.NoError(t, err)
	rec.now = at(15 * time.Minute)
	dur, err := rec.StopReview(ctx, "alice", d1.ID)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, dur)

	rec.now = at(20 * time.Minute)
	_, err = rec.StartReview(ctx, "alice", d1.ID)
	require.NoError(t, err)
	rec.now = at(50 * time.Minute)
	dur, err = rec.StopReview(ctx, "alice", d1.ID)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, dur)

	_, err = rec.StartReview(ctx, "alice", d2.ID)
	require.NoError(t, err)

	// engagement, open rates 40, 30, 30, 20 and one click rate
	for i, v := range []float64{40, 30, 30, 20} {
		rec.now = at(time.Duration(i) * time.Minute)
		_, err = rec.RecordMetric(ctx, "alice", d1.ID, domain.MetricOpenRate, v)
		require.NoError(t, err)
	}
	m, err := rec.RecordMetric(ctx, "alice", d2.ID, domain.MetricClickRate, 4.25)
	require.NoError(t, err)
	assert.NotZero(t, m.ID)

	agg := NewAggregator(repos.Feedback)
	agg.now = at(time.Hour)
	rep := agg.Report(ctx, "alice", 30*24*time.Hour)

	assert.Equal(t, 4, rep.TotalReactions)
	assert.Equal(t, map[domain.ReactionKind]int{domain.ReactionAccepted: 1, domain.ReactionThumbsUp: 1,
		domain.ReactionThumbsDown: 1, domain.ReactionRejected: 1}, rep.Reactions)
	assert.InDelta(t, 50.0, rep.AcceptanceRate, 0.001)
	assert.Equal(t, 2, rep.Edits)
	assert.InDelta(t, 0.25, rep.AvgEditRatio, 0.001)
	assert.Equal(t, 2, rep.Reviews)
	assert.InDelta(t, 22.5, rep.AvgReviewMinutes, 0.001)
	assert.InDelta(t, 50.0, rep.ReviewsUnderTarget, 0.001)
	assert.Equal(t, domain.DirectionInsufficient, rep.EditTrend)
	assert.Equal(t, 5, rep.Metrics)
	assert.InDelta(t, 30.0, rep.AvgOpenRate, 0.001)
	assert.InDelta(t, 4.3, rep.AvgClickRate, 0.001)
	assert.Equal(t, domain.DirectionDeclining, rep.EngagementTrend, "latest 26.7 vs 40 before")

	// another owner sees nothing
	empty := agg.Report(ctx, "bob", 0)
	assert.Equal(t, DefaultWindow, empty.Window)
	assert.Zero(t, empty.TotalReactions)
	assert.Zero(t, empty.AcceptanceRate)
	assert.Zero(t, empty.AvgReviewMinutes)
	assert.Zero(t, empty.AvgOpenRate)
	assert.Zero(t, empty.AvgClickRate)
	assert.Equal(t, domain.DirectionNoData, empty.EditTrend)
	assert.Equal(t, domain.DirectionNoData, empty.EngagementTrend)
}

func TestRecorder_Errors(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	d := &domain.Draft{Owner: "alice", Title: "d", Content: "text"}
	require.NoError(t, repos.Draft.CreateDraft(ctx, d))
	rec := NewRecorder(repos.Feedback, repos.Draft)

	_, err := rec.RecordReaction(ctx, "alice", d.ID, "meh")
	assert.Error(t, err, "unknown reaction")

	_, err = rec.RecordReaction(ctx, "bob", d.ID, domain.ReactionAccepted)
	assert.ErrorIs(t, err, domain.ErrNotFound, "other owner's draft")

	_, err = rec.StopReview(ctx, "alice", d.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "no open review")

	_, err = rec.RecordMetric(ctx, "alice", d.ID, "bounce_rate", 1)
	assert.Error(t, err, "unknown metric")
	_, err = rec.RecordMetric(ctx, "alice", d.ID, domain.MetricOpenRate, 101)
	assert.Error(t, err, "rate above 100")
	_, err = rec.RecordMetric(ctx, "alice", d.ID, domain.MetricOpenRate, math.NaN())
	assert.Error(t, err, "not a number")
	_, err = rec.RecordMetric(ctx, "bob", d.ID, domain.MetricOpenRate, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound, "other owner's draft")

	require.NoError(t, repos.Draft.Transition(ctx, "alice", d.ID, domain.DraftStatusSent, time.Now()))
	_, err = rec.RecordEdit(ctx, "alice", d.ID, "changed")
	assert.ErrorIs(t, err, domain.ErrConflict, "sent drafts can't be edited")

	edits, err := repos.Feedback.Edits(ctx, repository.FeedbackFilter{Owner: "alice"})
	require.NoError(t, err)
	assert.Empty(t, edits)
}

type failingStore struct{ Store }

func (failingStore) Reactions(context.Context, repository.FeedbackFilter) ([]domain.Reaction, error) {
	return nil, errors.New("db is gone")
}

func TestAggregator_StoreError(t *testing.T) {
	rep := NewAggregator(failingStore{}).Report(context.Background(), "alice", time.Hour)
	assert.Equal(t, domain.Report{Window: time.Hour, Reactions: map[domain.ReactionKind]int{},
		EditTrend: domain.DirectionNoData, EngagementTrend: domain.DirectionNoData}, rep)
}

func TestEngagementTrend(t *testing.T) {
	tests := []struct {
		name  string
		opens []float64
		want  domain.Direction
	}{
		{name: "empty", opens: nil, want: domain.DirectionStable},
		{name: "single", opens: []float64{50}, want: domain.DirectionStable},
		{name: "three only", opens: []float64{10, 50, 90}, want: domain.DirectionStable},
		{name: "improving", opens: []float64{20, 30, 30, 30}, want: domain.DirectionImproving},
		{name: "declining", opens: []float64{40, 30, 30, 30}, want: domain.DirectionDeclining},
		{name: "within 10 percent up", opens: []float64{30, 32, 33, 32}, want: domain.DirectionStable},
		{name: "within 10 percent down", opens: []float64{30, 28, 27, 28}, want: domain.DirectionStable},
		{name: "exactly 10 percent up", opens: []float64{20, 22, 22, 22}, want: domain.DirectionStable},
		{name: "older averaged", opens: []float64{10, 50, 32, 32, 32}, want: domain.DirectionStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EngagementTrend(tt.opens))
		})
	}
}

func TestEditTrend(t *testing.T) {
	tests := []struct {
		name   string
		ratios []float64
		want   domain.Direction
	}{
		{name: "no edits", ratios: nil, want: domain.DirectionNoData},
		{name: "four edits", ratios: []float64{0.5, 0.4, 0.3, 0.2}, want: domain.DirectionInsufficient},
		{name: "fewer changes", ratios: []float64{0.4, 0.4, 0.2, 0.2, 0.2}, want: domain.DirectionImproving},
		{name: "more changes", ratios: []float64{0.2, 0.2, 0.4, 0.4, 0.4}, want: domain.DirectionDeclining},
		{name: "same", ratios: []float64{0.3, 0.3, 0.31, 0.29, 0.3}, want: domain.DirectionStable},
		{name: "unedited before", ratios: []float64{0, 0, 0, 0, 0}, want: domain.DirectionStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EditTrend(tt.ratios))
		})
	}
}
