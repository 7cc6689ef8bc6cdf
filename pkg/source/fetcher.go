package source

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/newsdraft/pkg/domain"
)

// Config defines fetching limits and bridge templates
type Config struct {
	Timeout           time.Duration // single attempt
	Retries           int           // retries after the first attempt
	RetryDelay        time.Duration // initial backoff delay
	Budget            time.Duration // all attempts of one source
	Concurrency       int
	MaxItemsPerSource int
	UserAgent         string
	SocialHandleURL   string
	SocialTagURL      string
	ChannelURL        string
}

// Extractor gets the readable text of an article page
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Result is the outcome of fetching a set of sources
type Result struct {
	Items    []domain.Item
	Warnings []*domain.SourceError
}

// Fetcher pulls items from user sources concurrently, each source with its own retries and time budget.
// Items are cleaned, capped per source and deduplicated across sources.
type Fetcher struct {
	cfg        Config
	strategies map[domain.SourceKind]Strategy
	extractor  Extractor
	policy     *bluemonday.Policy
}

var errStopRetry = errors.New("stop retry")

// NewFetcher makes a fetcher with the default strategies for every source kind.
// The extractor is optional and used for items without a summary.
func NewFetcher(cfg Config, extractor Extractor) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Budget <= 0 {
		cfg.Budget = 30 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.MaxItemsPerSource <= 0 {
		cfg.MaxItemsPerSource = 5
	}

	parser := NewParser(cfg.Timeout, cfg.UserAgent)
	social := &SocialStrategy{Parser: parser, HandleURL: cfg.SocialHandleURL, TagURL: cfg.SocialTagURL}
	return &Fetcher{
		cfg: cfg,
		strategies: map[domain.SourceKind]Strategy{
			domain.SourceFeed:         &FeedStrategy{Parser: parser},
			domain.SourceSocialHandle: social,
			domain.SourceSocialTag:    social,
			domain.SourceChannel:      &ChannelStrategy{Parser: parser, ChannelURL: cfg.ChannelURL},
		},
		extractor: extractor,
		policy:    bluemonday.StrictPolicy(),
	}
}

// WithStrategy replaces the strategy of a source kind
func (f *Fetcher) WithStrategy(kind domain.SourceKind, s Strategy) *Fetcher {
	f.strategies[kind] = s
	return f
}

// Fetch gets items of all sources. A failed source is reported in Result.Warnings and doesn't fail the call.
// Returns domain.ErrNoContent if there are no sources, every source failed or nothing is left after cleanup.
func (f *Fetcher) Fetch(ctx context.Context, sources []domain.Source) (Result, error) {
	if len(sources) == 0 {
		return Result{}, fmt.Errorf("no active sources: %w", domain.ErrNoContent)
	}

	fetched := make([][]domain.Item, len(sources))
	failures := make([]*domain.SourceError, len(sources))

	var g errgroup.Group
	g.SetLimit(f.cfg.Concurrency)
	for i, src := range sources {
		g.Go(func() error {
			items, err := f.fetchSource(ctx, src)
			if err != nil {
				failures[i] = &domain.SourceError{SourceID: src.ID, Kind: src.Kind, Name: src.Name(), Err: err}
				lgr.Printf("[WARN] %v", failures[i])
				return nil
			}
			fetched[i] = items
			return nil
		})
	}
	_ = g.Wait() // workers report failures per source

	res := Result{}
	for _, sf := range failures {
		if sf != nil {
			res.Warnings = append(res.Warnings, sf)
		}
	}
	if len(res.Warnings) == len(sources) {
		return res, fmt.Errorf("all %d sources failed: %w", len(sources), domain.ErrNoContent)
	}

	res.Items = dedup(fetched)
	if len(res.Items) == 0 {
		return res, fmt.Errorf("no items in %d sources: %w", len(sources), domain.ErrNoContent)
	}
	lgr.Printf("[DEBUG] fetched %d items from %d sources, %d failed", len(res.Items), len(sources), len(res.Warnings))
	return res, nil
}

// fetchSource runs the source strategy with per-attempt timeout and retries within the source budget
func (f *Fetcher) fetchSource(ctx context.Context, src domain.Source) ([]domain.Item, error) {
	strategy, ok := f.strategies[src.Kind]
	if !ok {
		return nil, fmt.Errorf("unsupported source kind %q", src.Kind)
	}

	budgetCtx, cancel := context.WithTimeout(ctx, f.cfg.Budget)
	defer cancel()

	var items []domain.Item
	var lastErr error
	attempt := 0
	retrier := repeater.NewBackoff(f.cfg.Retries+1, f.cfg.RetryDelay, repeater.WithMaxDelay(f.cfg.Budget))
	err := retrier.Do(budgetCtx, func() error {
		attempt++
		attemptCtx, attemptCancel := context.WithTimeout(budgetCtx, f.cfg.Timeout)
		defer attemptCancel()

		res, err := strategy.Fetch(attemptCtx, src)
		if err != nil {
			lastErr = err
			if !retryable(err) {
				return errStopRetry
			}
			lgr.Printf("[DEBUG] attempt %d of %s failed: %v", attempt, src.Name(), err)
			return err
		}
		items, lastErr = res, nil
		return nil
	}, errStopRetry)

	if lastErr != nil {
		return nil, fmt.Errorf("after %d attempts: %w", attempt, lastErr)
	}
	if err != nil {
		return nil, err
	}
	return f.clean(budgetCtx, items), nil
}

// clean drops incomplete items, strips html from summaries and keeps the newest items of the source
func (f *Fetcher) clean(ctx context.Context, items []domain.Item) []domain.Item {
	res := make([]domain.Item, 0, len(items))
	for _, it := range items {
		it.Title = f.plainText(it.Title)
		it.Summary = f.plainText(it.Summary)
		if it.Title == "" || it.Link == "" {
			continue
		}
		res = append(res, it)
	}

	// newest first, undated entries keep feed order after dated ones
	sort.SliceStable(res, func(i, j int) bool { return res[i].Published.After(res[j].Published) })
	if len(res) > f.cfg.MaxItemsPerSource {
		res = res[:f.cfg.MaxItemsPerSource]
	}

	for i := range res {
		if res[i].Summary == "" && f.extractor != nil && ctx.Err() == nil {
			text, err := f.extractor.Extract(ctx, res[i].Link)
			if err != nil {
				lgr.Printf("[DEBUG] no summary for %s: %v", res[i].Link, err)
			} else {
				res[i].Summary = text
			}
		}
		res[i].Summary = truncate(res[i].Summary, maxSummaryLength)
	}
	return res
}

// plainText strips markup and collapses whitespace, the sanitizer escapes entities so they are decoded back
func (f *Fetcher) plainText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(f.policy.Sanitize(s))), " ")
}

// dedup merges per-source items in source order, dropping repeated links and titles
func dedup(perSource [][]domain.Item) []domain.Item {
	seenLinks := map[string]bool{}
	seenTitles := map[string]bool{}
	var res []domain.Item
	for _, items := range perSource {
		for _, it := range items {
			link, title := NormalizeLink(it.Link), NormalizeTitle(it.Title)
			if it.SourceKind == domain.SourceSocialHandle || it.SourceKind == domain.SourceSocialTag {
				title = "" // short posts repeat titles legitimately
			}
			if seenLinks[link] || (title != "" && seenTitles[title]) {
				continue
			}
			seenLinks[link] = true
			if title != "" {
				seenTitles[title] = true
			}
			res = append(res, it)
		}
	}
	return res
}
