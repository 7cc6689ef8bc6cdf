package server

import (
	"github.com/umputun/newsdraft/pkg/feedback"
)

// FeedbackAdapter joins feedback recorder and aggregator into server.Feedback interface
type FeedbackAdapter struct {
	*feedback.Recorder
	*feedback.Aggregator
}

// NewFeedbackAdapter creates a new feedback adapter
func NewFeedbackAdapter(rec *feedback.Recorder, agg *feedback.Aggregator) *FeedbackAdapter {
	return &FeedbackAdapter{Recorder: rec, Aggregator: agg}
}
