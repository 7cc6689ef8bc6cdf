package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to DraftStatus
		ok       bool
	}{
		{DraftStatusDraft, DraftStatusSent, true},
		{DraftStatusDraft, DraftStatusPublished, true},
		{DraftStatusDraft, DraftStatusDraft, false},
		{DraftStatusSent, DraftStatusDraft, false},
		{DraftStatusSent, DraftStatusPublished, false},
		{DraftStatusPublished, DraftStatusSent, false},
		{DraftStatusPublished, DraftStatusDraft, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s to %s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
}

func TestParseEnums(t *testing.T) {
	st, err := ParseDraftStatus("sent")
	require.NoError(t, err)
	assert.Equal(t, DraftStatusSent, st)
	_, err = ParseDraftStatus("archived")
	require.Error(t, err)

	m, err := ParseDeliveryMethod("both")
	require.NoError(t, err)
	assert.Equal(t, []string{TransportEmail, TransportChat}, m.Transports())
	_, err = ParseDeliveryMethod("pigeon")
	require.Error(t, err)
	assert.Nil(t, DeliveryMethod("pigeon").Transports())

	k, err := ParseSourceKind("social-tag")
	require.NoError(t, err)
	assert.Equal(t, SourceSocialTag, k)
	_, err = ParseSourceKind("social_tag")
	require.Error(t, err)

	r, err := ParseReactionKind("thumbs_up")
	require.NoError(t, err)
	assert.True(t, r.Positive())
	assert.True(t, ReactionAccepted.Positive())
	assert.False(t, ReactionThumbsDown.Positive())
	assert.False(t, ReactionRejected.Positive())
	_, err = ParseReactionKind("meh")
	require.Error(t, err)
}

func TestSource_Name(t *testing.T) {
	assert.Equal(t, "@golang", Source{Kind: SourceSocialHandle, URL: "@golang"}.Name())
	assert.Equal(t, "@golang", Source{Kind: SourceSocialHandle, URL: "golang"}.Name())
	assert.Equal(t, "#rust", Source{Kind: SourceSocialTag, URL: "rust"}.Name())
	assert.Equal(t, "https://go.dev/blog/feed.atom", Source{Kind: SourceFeed, URL: "https://go.dev/blog/feed.atom"}.Name())
}

func TestDeliveryAttempt_Closed(t *testing.T) {
	assert.False(t, DeliveryAttempt{Status: AttemptPending, Attempts: 2}.Closed(3))
	assert.True(t, DeliveryAttempt{Status: AttemptPending, Attempts: 3}.Closed(3))
	assert.True(t, DeliveryAttempt{Status: AttemptDelivered, Attempts: 1}.Closed(3))
	assert.True(t, DeliveryAttempt{Status: AttemptFailed, Attempts: 1}.Closed(3))
	assert.False(t, DeliveryAttempt{Status: AttemptPending, Attempts: 10}.Closed(0), "no cap")
}

func TestReviewSession_Duration(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Zero(t, ReviewSession{StartedAt: start}.Duration())
	end := start.Add(12 * time.Minute)
	assert.Equal(t, 12*time.Minute, ReviewSession{StartedAt: start, EndedAt: &end}.Duration())
}

func TestErrors(t *testing.T) {
	cause := errors.New("connection refused")

	srcErr := fmt.Errorf("fetch: %w", &SourceError{SourceID: 7, Kind: SourceFeed, Name: "go.dev", Err: cause})
	assert.ErrorIs(t, srcErr, ErrSourceUnavailable)
	assert.ErrorIs(t, srcErr, cause)
	assert.EqualError(t, srcErr, "fetch: source 7 (feed go.dev): connection refused")
	var se *SourceError
	require.ErrorAs(t, srcErr, &se)
	assert.Equal(t, int64(7), se.SourceID)

	trErr := &TransportError{Transport: TransportChat, Err: cause}
	assert.ErrorIs(t, trErr, ErrTransportFailure)
	assert.ErrorIs(t, trErr, cause)
	assert.NotErrorIs(t, trErr, ErrSourceUnavailable)
	assert.EqualError(t, trErr, "transport chat: connection refused")
}
