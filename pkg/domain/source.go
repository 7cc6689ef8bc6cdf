package domain

import (
	"fmt"
	"strings"
	"time"
)

// SourceKind defines how a source is fetched
type SourceKind string

// source kinds
const (
	SourceFeed         SourceKind = "feed"
	SourceSocialHandle SourceKind = "social-handle"
	SourceSocialTag    SourceKind = "social-tag"
	SourceChannel      SourceKind = "channel"
)

// Valid reports whether the kind is one of the known kinds
func (k SourceKind) Valid() bool {
	switch k {
	case SourceFeed, SourceSocialHandle, SourceSocialTag, SourceChannel:
		return true
	}
	return false
}

// ParseSourceKind converts a string to SourceKind
func ParseSourceKind(s string) (SourceKind, error) {
	k := SourceKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown source kind %q", s)
	}
	return k, nil
}

// Source is a user-owned content source. Sources are soft-disabled, never deleted.
type Source struct {
	ID        int64      `json:"id"`
	Owner     string     `json:"owner"`
	URL       string     `json:"url"` // feed url, social handle, tag or channel id depending on Kind
	Kind      SourceKind `json:"kind"`
	Category  string     `json:"category"`
	Priority  int        `json:"priority"` // lower value wins ranking ties
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
}

// Name returns a short display name of the source
func (s Source) Name() string {
	switch s.Kind {
	case SourceSocialHandle:
		return "@" + strings.TrimLeft(s.URL, "@")
	case SourceSocialTag:
		return "#" + strings.TrimLeft(s.URL, "#")
	default:
		return s.URL
	}
}

// Item is a single piece of fetched content. Items live within one pipeline run only.
type Item struct {
	Title      string
	Summary    string
	Link       string
	Published  time.Time
	SourceKind SourceKind
	SourceID   int64
	SourceName string
	Author     string
	Tags       []string
}

// RankedCandidate is an item picked by the ranker
type RankedCandidate struct {
	Item       Item
	Score      float64
	ClusterKey string
}

// Trend is a keyword observed across the items of a run
type Trend struct {
	Keyword   string  `json:"keyword"`
	Frequency int     `json:"frequency"`
	Link      string  `json:"link,omitempty"`
	Momentum  float64 `json:"momentum,omitempty"`
}
