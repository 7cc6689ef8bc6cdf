// Package feedback records reactions, edits, engagement metrics and review sessions of drafts
// and aggregates them into per-owner reports.
package feedback

import (
	"context"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/newsdraft/pkg/domain"
	"github.com/umputun/newsdraft/pkg/repository"
)

// DefaultWindow is the report window used when none is given
const DefaultWindow = 30 * 24 * time.Hour

// Store is the append-only feedback storage
type Store interface {
	AddReaction(ctx context.Context, rc *domain.Reaction) error
	ApplyEdit(ctx context.Context, e *domain.Edit, content string) error
	AddMetric(ctx context.Context, m *domain.Metric) error
	StartReview(ctx context.Context, owner, draftID string, at time.Time) (*domain.ReviewSession, error)
	StopReview(ctx context.Context, owner, draftID string, at time.Time) (*domain.ReviewSession, error)
	Reactions(ctx context.Context, f repository.FeedbackFilter) ([]domain.Reaction, error)
	Edits(ctx context.Context, f repository.FeedbackFilter) ([]domain.Edit, error)
	Metrics(ctx context.Context, f repository.FeedbackFilter) ([]domain.Metric, error)
	Reviews(ctx context.Context, f repository.FeedbackFilter) ([]domain.ReviewSession, error)
}

// DraftStore gives access to drafts the feedback refers to
type DraftStore interface {
	GetDraft(ctx context.Context, owner, id string) (*domain.Draft, error)
}

// Recorder writes feedback of drafts owned by the caller
type Recorder struct {
	store  Store
	drafts DraftStore
	now    func() time.Time
}

// EditResult is the stored edit record with the unified diff of the change
type EditResult struct {
	Edit domain.Edit `json:"edit"`
	Diff string      `json:"diff"`
}

// NewRecorder makes feedback recorder
func NewRecorder(store Store, drafts DraftStore) *Recorder {
	return &Recorder{store: store, drafts: drafts, now: time.Now}
}

// RecordReaction appends a reaction to the owner's draft
func (r *Recorder) RecordReaction(ctx context.Context, owner, draftID string, kind domain.ReactionKind) (*domain.Reaction, error) {
	if _, err := domain.ParseReactionKind(string(kind)); err != nil {
		return nil, err
	}
	if _, err := r.drafts.GetDraft(ctx, owner, draftID); err != nil {
		return nil, fmt.Errorf("get draft %s: %w", draftID, err)
	}
	rc := &domain.Reaction{DraftID: draftID, Owner: owner, Kind: kind, CreatedAt: r.now()}
	if err := r.store.AddReaction(ctx, rc); err != nil {
		return nil, err
	}
	log.Printf("[DEBUG] reaction %s on draft %s by %s", kind, draftID, owner)
	return rc, nil
}

// RecordEdit appends the summary of the change and replaces the content of an unsent draft,
// both or neither are stored
func (r *Recorder) RecordEdit(ctx context.Context, owner, draftID, edited string) (*EditResult, error) {
	draft, err := r.drafts.GetDraft(ctx, owner, draftID)
	if err != nil {
		return nil, fmt.Errorf("get draft %s: %w", draftID, err)
	}

	diff, err := UnifiedDiff(draft.Content, edited)
	if err != nil {
		return nil, fmt.Errorf("diff draft %s: %w", draftID, err)
	}

	sum := DiffSummary(draft.Content, edited)
	e := &domain.Edit{
		DraftID:       draftID,
		Owner:         owner,
		LinesAdded:    sum.LinesAdded,
		LinesDeleted:  sum.LinesDeleted,
		OriginalWords: sum.OriginalWords,
		EditedWords:   sum.EditedWords,
		EditRatio:     sum.EditRatio,
		CreatedAt:     r.now(),
	}
	if err := r.store.ApplyEdit(ctx, e, edited); err != nil {
		return nil, err
	}
	log.Printf("[DEBUG] draft %s edited by %s, +%d -%d lines", draftID, owner, e.LinesAdded, e.LinesDeleted)
	return &EditResult{Edit: *e, Diff: diff}, nil
}

// RecordMetric appends an engagement measurement, in percent, to the owner's draft
func (r *Recorder) RecordMetric(ctx context.Context, owner, draftID string, kind domain.MetricKind, value float64) (*domain.Metric, error) {
	if _, err := domain.ParseMetricKind(string(kind)); err != nil {
		return nil, err
	}
	if err := domain.ValidateRate(value); err != nil {
		return nil, err
	}
	if _, err := r.drafts.GetDraft(ctx, owner, draftID); err != nil {
		return nil, fmt.Errorf("get draft %s: %w", draftID, err)
	}
	m := &domain.Metric{DraftID: draftID, Owner: owner, Kind: kind, Value: value, CreatedAt: r.now()}
	if err := r.store.AddMetric(ctx, m); err != nil {
		return nil, err
	}
	log.Printf("[DEBUG] metric %s=%.1f on draft %s of %s", kind, value, draftID, owner)
	return m, nil
}

// StartReview opens a review session of the owner's draft
func (r *Recorder) StartReview(ctx context.Context, owner, draftID string) (*domain.ReviewSession, error) {
	if _, err := r.drafts.GetDraft(ctx, owner, draftID); err != nil {
		return nil, fmt.Errorf("get draft %s: %w", draftID, err)
	}
	return r.store.StartReview(ctx, owner, draftID, r.now())
}

// StopReview closes the open review session of the draft and returns its duration
func (r *Recorder) StopReview(ctx context.Context, owner, draftID string) (time.Duration, error) {
	rs, err := r.store.StopReview(ctx, owner, draftID, r.now())
	if err != nil {
		return 0, err
	}
	log.Printf("[INFO] review of draft %s by %s took %s", draftID, owner, rs.Duration())
	return rs.Duration(), nil
}

// Aggregator builds feedback reports
type Aggregator struct {
	store Store
	now   func() time.Time
}

// NewAggregator makes report aggregator
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// Report summarizes the owner's feedback over the trailing window. Store errors are logged
// and reported as an empty report, rates of an empty window are zero.
func (a *Aggregator) Report(ctx context.Context, owner string, window time.Duration) domain.Report {
	if window <= 0 {
		window = DefaultWindow
	}
	res := domain.Report{Window: window, Reactions: map[domain.ReactionKind]int{},
		EditTrend: domain.DirectionNoData, EngagementTrend: domain.DirectionNoData}
	filter := repository.FeedbackFilter{Owner: owner, Since: a.now().Add(-window)}

	reactions, err := a.store.Reactions(ctx, filter)
	if err != nil {
		log.Printf("[WARN] can't get reactions of %s: %v", owner, err)
		return res
	}
	edits, err := a.store.Edits(ctx, filter)
	if err != nil {
		log.Printf("[WARN] can't get edits of %s: %v", owner, err)
		return res
	}
	reviews, err := a.store.Reviews(ctx, filter)
	if err != nil {
		log.Printf("[WARN] can't get reviews of %s: %v", owner, err)
		return res
	}
	metrics, err := a.store.Metrics(ctx, filter)
	if err != nil {
		log.Printf("[WARN] can't get metrics of %s: %v", owner, err)
		return res
	}

	positive := 0
	for _, rc := range reactions {
		res.Reactions[rc.Kind]++
		if rc.Kind.Positive() {
			positive++
		}
	}
	res.TotalReactions = len(reactions)
	if res.TotalReactions > 0 {
		res.AcceptanceRate = round(float64(positive)/float64(res.TotalReactions)*100, 1)
	}

	res.Edits = len(edits)
	ratios := make([]float64, len(edits))
	for i, e := range edits {
		ratios[i] = e.EditRatio
	}
	res.AvgEditRatio = round(mean(ratios), 2)
	res.EditTrend = EditTrend(ratios)

	res.Metrics = len(metrics)
	var opens, clicks []float64
	for _, m := range metrics {
		switch m.Kind {
		case domain.MetricOpenRate:
			opens = append(opens, m.Value)
		case domain.MetricClickRate:
			clicks = append(clicks, m.Value)
		}
	}
	res.AvgOpenRate = round(mean(opens), 1)
	res.AvgClickRate = round(mean(clicks), 1)
	if len(metrics) > 0 {
		res.EngagementTrend = EngagementTrend(opens)
	}

	var total time.Duration
	under := 0
	for _, rs := range reviews {
		if rs.EndedAt == nil {
			continue // open sessions are not counted
		}
		res.Reviews++
		total += rs.Duration()
		if rs.Duration() <= domain.ReviewTarget {
			under++
		}
	}
	if res.Reviews > 0 {
		res.AvgReviewMinutes = round(total.Minutes()/float64(res.Reviews), 2)
		res.ReviewsUnderTarget = round(float64(under)/float64(res.Reviews)*100, 1)
	}
	return res
}

// trendSpan is the number of latest measurements compared with the earlier ones
const trendSpan = 3

// EngagementTrend compares the mean of the latest open rates, oldest first, with the mean of the earlier ones.
// A change of more than 10% either way is improving or declining, a series with nothing before
// the latest three rates is stable.
func EngagementTrend(opens []float64) domain.Direction {
	recent, older := split(opens)
	if len(older) == 0 {
		return domain.DirectionStable
	}
	switch r, o := mean(recent), mean(older); {
	case r > o*1.1:
		return domain.DirectionImproving
	case r < o*0.9:
		return domain.DirectionDeclining
	}
	return domain.DirectionStable
}

// EditTrend compares the mean of the latest edit ratios, oldest first, with the mean of the earlier ones.
// Fewer edits is improving, at least five edits are needed.
func EditTrend(ratios []float64) domain.Direction {
	switch {
	case len(ratios) == 0:
		return domain.DirectionNoData
	case len(ratios) < 5:
		return domain.DirectionInsufficient
	}
	recent, older := split(ratios)
	switch r, o := mean(recent), mean(older); {
	case r < o*0.9:
		return domain.DirectionImproving
	case r > o*1.1:
		return domain.DirectionDeclining
	}
	return domain.DirectionStable
}

// split returns the latest trendSpan values and the ones before them
func split(vals []float64) (recent, older []float64) {
	if len(vals) <= trendSpan {
		return vals, nil
	}
	return vals[len(vals)-trendSpan:], vals[:len(vals)-trendSpan]
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
