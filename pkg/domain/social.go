package domain

import (
	"fmt"
	"time"
)

// SocialPlatform is the platform a social post is written for
type SocialPlatform string

// social platforms
const (
	PlatformTwitter  SocialPlatform = "twitter"
	PlatformLinkedIn SocialPlatform = "linkedin"
)

// ParseSocialPlatform converts a string to SocialPlatform
func ParseSocialPlatform(s string) (SocialPlatform, error) {
	switch p := SocialPlatform(s); p {
	case PlatformTwitter, PlatformLinkedIn:
		return p, nil
	}
	return "", fmt.Errorf("unsupported platform %q", s)
}

// SocialPost is a draft rewritten for a social platform. A thread has one entry in Posts per message.
type SocialPost struct {
	DraftID    string         `json:"draft_id"`
	Platform   SocialPlatform `json:"platform"`
	Posts      []string       `json:"posts"`
	FullText   string         `json:"full_text"`
	CharCounts []int          `json:"char_counts"`
	Hashtags   []string       `json:"hashtags"`
	CreatedAt  time.Time      `json:"created_at"`
}
