package domain

import (
	"fmt"
	"time"
)

// DraftStatus is the lifecycle state of a draft
type DraftStatus string

// draft statuses, ordered draft -> sent|published
const (
	DraftStatusDraft     DraftStatus = "draft"
	DraftStatusSent      DraftStatus = "sent"
	DraftStatusPublished DraftStatus = "published"
)

// CanTransition reports whether moving from s to next goes forward.
// Drafts only leave the draft state; sent and published are terminal.
func (s DraftStatus) CanTransition(next DraftStatus) bool {
	return s == DraftStatusDraft && (next == DraftStatusSent || next == DraftStatusPublished)
}

// ParseDraftStatus converts a string to DraftStatus
func ParseDraftStatus(s string) (DraftStatus, error) {
	switch st := DraftStatus(s); st {
	case DraftStatusDraft, DraftStatusSent, DraftStatusPublished:
		return st, nil
	}
	return "", fmt.Errorf("unknown draft status %q", s)
}

// Draft is a generated newsletter
type Draft struct {
	ID           string      `json:"id"`
	Owner        string      `json:"owner"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	Status       DraftStatus `json:"status"`
	Topic        string      `json:"topic"`
	Tone         string      `json:"tone"`
	SourceTrends []Trend     `json:"source_trends"`
	CreatedAt    time.Time   `json:"created_at"`
	SentAt       *time.Time  `json:"sent_at,omitempty"`
}
