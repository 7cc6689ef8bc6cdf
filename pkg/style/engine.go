// Package style learns the writing style of an owner from past newsletters and renders it as prompt guidance.
package style

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/newsdraft/pkg/domain"
)

// blockTagRe matches tags ending a block of text, they become paragraph breaks before markup is stripped
var blockTagRe = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|blockquote|pre|table|tr)>|<br\s*/?>`)

// Store keeps one style profile per owner
type Store interface {
	UpsertStyle(ctx context.Context, p *domain.StyleProfile) error
	GetStyle(ctx context.Context, owner string) (*domain.StyleProfile, error)
}

// Engine trains and serves style profiles
type Engine struct {
	store  Store
	policy *bluemonday.Policy
	now    func() time.Time
}

// NewEngine makes a style engine on top of the store
func NewEngine(store Store) *Engine {
	return &Engine{store: store, policy: bluemonday.StrictPolicy(), now: time.Now}
}

// Train derives a fingerprint from the samples and replaces the owner's profile with it.
// Samples may be html or plain text. With fewer than domain.MinStyleSamples non-empty samples
// it returns domain.ErrInsufficientSamples and the stored profile stays as it was.
func (e *Engine) Train(ctx context.Context, owner string, samples []string) (*domain.StyleProfile, error) {
	texts := make([]string, len(samples))
	for i, s := range samples {
		texts[i] = e.plainText(s)
	}

	fp, err := Analyze(texts)
	if err != nil {
		return nil, err
	}

	profile := &domain.StyleProfile{
		Owner:              owner,
		Fingerprint:        fp,
		CustomInstructions: Instructions(fp),
		UpdatedAt:          e.now().UTC().Truncate(time.Second),
	}
	if err := e.store.UpsertStyle(ctx, profile); err != nil {
		return nil, fmt.Errorf("save style of %s: %w", owner, err)
	}
	lgr.Printf("[INFO] style of %s trained on %d samples, tone %s, %d words", owner, fp.SampleCount, fp.DominantTone, fp.WordCount)
	return profile, nil
}

// Get returns the owner's profile, nil without error if the owner never trained one
func (e *Engine) Get(ctx context.Context, owner string) (*domain.StyleProfile, error) {
	p, err := e.store.GetStyle(ctx, owner)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get style of %s: %w", owner, err)
	}
	return p, nil
}

// plainText strips markup keeping paragraph breaks
func (e *Engine) plainText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	s = blockTagRe.ReplaceAllString(s, "$0\n\n")
	s = html.UnescapeString(e.policy.Sanitize(s))

	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.TrimSpace(paragraphSplitRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
