package domain

import (
	"fmt"
	"math"
	"time"
)

// ReactionKind is the kind of reaction to a draft
type ReactionKind string

// reaction kinds
const (
	ReactionThumbsUp   ReactionKind = "thumbs_up"
	ReactionThumbsDown ReactionKind = "thumbs_down"
	ReactionAccepted   ReactionKind = "accepted"
	ReactionRejected   ReactionKind = "rejected"
)

// ParseReactionKind converts a string to ReactionKind
func ParseReactionKind(s string) (ReactionKind, error) {
	switch k := ReactionKind(s); k {
	case ReactionThumbsUp, ReactionThumbsDown, ReactionAccepted, ReactionRejected:
		return k, nil
	}
	return "", fmt.Errorf("unknown reaction %q", s)
}

// Positive reports whether the reaction counts as acceptance
func (k ReactionKind) Positive() bool {
	return k == ReactionAccepted || k == ReactionThumbsUp
}

// Reaction is an append-only reaction record
type Reaction struct {
	ID        int64        `json:"id"`
	DraftID   string       `json:"draft_id"`
	Owner     string       `json:"owner"`
	Kind      ReactionKind `json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
}

// Edit is an append-only record of a user edit of draft content
type Edit struct {
	ID            int64     `json:"id"`
	DraftID       string    `json:"draft_id"`
	Owner         string    `json:"owner"`
	LinesAdded    int       `json:"lines_added"`
	LinesDeleted  int       `json:"lines_deleted"`
	OriginalWords int       `json:"original_words"`
	EditedWords   int       `json:"edited_words"`
	EditRatio     float64   `json:"edit_ratio"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReviewSession is a timed review of a draft. EndedAt is nil while the review is open.
type ReviewSession struct {
	ID        int64      `json:"id"`
	DraftID   string     `json:"draft_id"`
	Owner     string     `json:"owner"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Duration returns the review duration, zero for open sessions
func (r ReviewSession) Duration() time.Duration {
	if r.EndedAt == nil {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// ReviewTarget is the review time a draft is expected to take at most
const ReviewTarget = 20 * time.Minute

// MetricKind is the kind of engagement measured for a sent draft
type MetricKind string

// metric kinds
const (
	MetricOpenRate  MetricKind = "open_rate"
	MetricClickRate MetricKind = "click_rate"
	MetricReplyRate MetricKind = "reply_rate"
)

// ParseMetricKind converts a string to MetricKind
func ParseMetricKind(s string) (MetricKind, error) {
	switch k := MetricKind(s); k {
	case MetricOpenRate, MetricClickRate, MetricReplyRate:
		return k, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// ValidateRate checks a metric value is a percentage
func ValidateRate(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return fmt.Errorf("metric value %v is out of [0, 100]", v)
	}
	return nil
}

// Metric is an append-only engagement measurement of a draft, in percent
type Metric struct {
	ID        int64      `json:"id"`
	DraftID   string     `json:"draft_id"`
	Owner     string     `json:"owner"`
	Kind      MetricKind `json:"kind"`
	Value     float64    `json:"value"`
	CreatedAt time.Time  `json:"created_at"`
}

// Direction is the tendency of a series of measurements
type Direction string

// directions
const (
	DirectionNoData       Direction = "no_data"
	DirectionInsufficient Direction = "insufficient_data"
	DirectionImproving    Direction = "improving"
	DirectionStable       Direction = "stable"
	DirectionDeclining    Direction = "declining"
)

// Report summarizes feedback of an owner over a trailing window
type Report struct {
	Window             time.Duration        `json:"window"`
	Reactions          map[ReactionKind]int `json:"reactions"`
	TotalReactions     int                  `json:"total_reactions"`
	AcceptanceRate     float64              `json:"acceptance_rate"`
	Edits              int                  `json:"edits"`
	AvgEditRatio       float64              `json:"avg_edit_ratio"`
	EditTrend          Direction            `json:"edit_trend"`
	Reviews            int                  `json:"reviews"`
	AvgReviewMinutes   float64              `json:"avg_review_minutes"`
	ReviewsUnderTarget float64              `json:"reviews_under_target"`
	Metrics            int                  `json:"metrics"`
	AvgOpenRate        float64              `json:"avg_open_rate"`
	AvgClickRate       float64              `json:"avg_click_rate"`
	EngagementTrend    Direction            `json:"engagement_trend"`
}
