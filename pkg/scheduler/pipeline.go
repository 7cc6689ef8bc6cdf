package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newsdraft/pkg/delivery"
	"github.com/umputun/newsdraft/pkg/domain"
	"github.com/umputun/newsdraft/pkg/llm"
	"github.com/umputun/newsdraft/pkg/ranker"
	"github.com/umputun/newsdraft/pkg/source"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/ranker.go -pkg mocks -skip-ensure -fmt goimports . Ranker
//go:generate moq -out mocks/style.go -pkg mocks -skip-ensure -fmt goimports . StyleProvider
//go:generate moq -out mocks/generator.go -pkg mocks -skip-ensure -fmt goimports . Generator
//go:generate moq -out mocks/dispatcher.go -pkg mocks -skip-ensure -fmt goimports . Dispatcher

// bookkeepingTimeout bounds store writes made after delivery, they run even if the run budget is spent
const bookkeepingTimeout = 10 * time.Second

// SourceStore provides sources of an owner
type SourceStore interface {
	ListSources(ctx context.Context, owner string, activeOnly bool) ([]domain.Source, error)
}

// Fetcher collects items from sources
type Fetcher interface {
	Fetch(ctx context.Context, sources []domain.Source) (source.Result, error)
}

// Ranker extracts trends and picks candidates
type Ranker interface {
	Trends(ctx context.Context, items []domain.Item) []domain.Trend
	Rank(ctx context.Context, items []domain.Item, opts ranker.Options) []domain.RankedCandidate
}

// StyleProvider returns the style profile of an owner, nil if not trained
type StyleProvider interface {
	Get(ctx context.Context, owner string) (*domain.StyleProfile, error)
}

// Generator writes drafts
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (*domain.Draft, error)
}

// DraftStore persists drafts
type DraftStore interface {
	CreateDraft(ctx context.Context, d *domain.Draft) error
	Transition(ctx context.Context, owner, id string, to domain.DraftStatus, at time.Time) error
}

// ScheduleStore reads schedules and records successful delivery
type ScheduleStore interface {
	ActiveSchedules(ctx context.Context) ([]domain.Schedule, error)
	GetSchedule(ctx context.Context, owner string) (*domain.Schedule, error)
	MarkDelivered(ctx context.Context, owner string, prev *time.Time, at time.Time) error
}

// AttemptStore tracks daily delivery attempts
type AttemptStore interface {
	GetAttempt(ctx context.Context, owner, day string) (*domain.DeliveryAttempt, error)
	BeginAttempt(ctx context.Context, owner, day string, maxAttempts int, at time.Time) (*domain.DeliveryAttempt, error)
	MarkDelivered(ctx context.Context, owner, day, draftID string, succeeded, failed []string, at time.Time) error
	RecordFailure(ctx context.Context, owner, day, draftID string, failed []string, cause error, maxAttempts int, at time.Time) (*domain.DeliveryAttempt, error)
}

// Dispatcher sends messages through the transports of a delivery method
type Dispatcher interface {
	Dispatch(ctx context.Context, method domain.DeliveryMethod, sched domain.Schedule, msg delivery.Message) delivery.Outcome
}

// PipelineParams defines dependencies and settings of the pipeline
type PipelineParams struct {
	Sources    SourceStore
	Fetcher    Fetcher
	Ranker     Ranker
	Styles     StyleProvider
	Generator  Generator
	Drafts     DraftStore
	Schedules  ScheduleStore
	Attempts   AttemptStore
	Dispatcher Dispatcher

	MaxDailyAttempts int    // attempts per owner and local day
	MaxItems         int    // candidates passed to the generator
	Title            string // newsletter title
	NotifyOnGiveUp   bool   // send a notice when the day is given up
}

// Pipeline runs fetch, rank, generate and deliver for one schedule
type Pipeline struct {
	PipelineParams
	now func() time.Time
}

// NewPipeline makes a pipeline
func NewPipeline(p PipelineParams) *Pipeline {
	if p.MaxDailyAttempts <= 0 {
		p.MaxDailyAttempts = 5
	}
	return &Pipeline{PipelineParams: p, now: time.Now}
}

// Run makes one delivery attempt for the schedule on the local day. The attempt is counted before any work
// and refused with domain.ErrAttemptsExhausted if the day is closed. Returns the attempt record after the run.
func (p *Pipeline) Run(ctx context.Context, sched domain.Schedule, day string) (*domain.DeliveryAttempt, error) {
	attempt, err := p.Attempts.BeginAttempt(ctx, sched.Owner, day, p.MaxDailyAttempts, p.now())
	if err != nil {
		return nil, err
	}
	lgr.Printf("[INFO] delivery run for %s on %s, attempt %d/%d", sched.Owner, day, attempt.Attempts, p.MaxDailyAttempts)

	draft, out, err := p.produce(ctx, sched)
	if err == nil && !out.Delivered() {
		err = fmt.Errorf("all transports failed: %w", out.Err)
	}

	// bookkeeping must not be cut by the run deadline
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()

	draftID := ""
	if draft != nil {
		draftID = draft.ID
	}
	if err != nil {
		return p.fail(bctx, sched, day, draftID, out.Failed, err)
	}
	return p.complete(bctx, sched, day, attempt, draftID, out)
}

// produce makes the draft and dispatches it. Panics are converted to errors.
func (p *Pipeline) produce(ctx context.Context, sched domain.Schedule) (draft *domain.Draft, out delivery.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	sources, err := p.Sources.ListSources(ctx, sched.Owner, true)
	if err != nil {
		return nil, out, fmt.Errorf("list sources: %w", err)
	}
	if len(sources) == 0 {
		return nil, out, fmt.Errorf("no active sources: %w", domain.ErrNoContent)
	}

	fetched, err := p.Fetcher.Fetch(ctx, sources)
	if err != nil {
		return nil, out, fmt.Errorf("fetch: %w", err)
	}

	priority := make(map[int64]int, len(sources))
	for _, s := range sources {
		priority[s.ID] = s.Priority
	}
	trends := p.Ranker.Trends(ctx, fetched.Items)
	candidates := p.Ranker.Rank(ctx, fetched.Items, ranker.Options{Now: p.now(), Priority: priority, Trends: trends})
	if len(candidates) == 0 {
		return nil, out, fmt.Errorf("no candidates: %w", domain.ErrNoContent)
	}
	lgr.Printf("[DEBUG] %s: %d items from %d sources, %d candidates, %d trends",
		sched.Owner, len(fetched.Items), len(sources), len(candidates), len(trends))

	profile, err := p.Styles.Get(ctx, sched.Owner)
	if err != nil {
		lgr.Printf("[WARN] can't get style of %s, using neutral tone: %v", sched.Owner, err)
		profile = nil
	}

	draft, err = p.Generator.Generate(ctx, llm.Request{
		Owner:      sched.Owner,
		Title:      p.Title,
		Topic:      orDefault(sched.Topic, domain.DefaultTopic),
		Tone:       orDefault(sched.Tone, domain.DefaultTone),
		Candidates: candidates,
		Trends:     trends,
		Style:      profile,
		MaxItems:   p.MaxItems,
	})
	if err != nil {
		return nil, out, fmt.Errorf("generate: %w", err)
	}
	if err = p.Drafts.CreateDraft(ctx, draft); err != nil {
		return nil, out, fmt.Errorf("save draft: %w", err)
	}

	out = p.Dispatcher.Dispatch(ctx, sched.DeliveryMethod, sched, delivery.Message{Subject: draft.Title, HTML: draft.Content})
	return draft, out, nil
}

// complete records a successful delivery. The schedule is updated first, so a failure of the later writes
// can't make the day due again.
func (p *Pipeline) complete(ctx context.Context, sched domain.Schedule, day string, attempt *domain.DeliveryAttempt,
	draftID string, out delivery.Outcome) (*domain.DeliveryAttempt, error) {
	now := p.now()
	var errs []error
	if err := p.Schedules.MarkDelivered(ctx, sched.Owner, sched.LastDeliveredAt, deliveredAt(sched, day, now)); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			errs = append(errs, fmt.Errorf("mark schedule delivered: %w", err))
		}
		lgr.Printf("[WARN] schedule of %s changed during delivery: %v", sched.Owner, err)
	}
	if err := p.Attempts.MarkDelivered(ctx, sched.Owner, day, draftID, out.Succeeded, out.Failed, now); err != nil {
		errs = append(errs, err)
	}
	if err := p.Drafts.Transition(ctx, sched.Owner, draftID, domain.DraftStatusSent, now); err != nil {
		errs = append(errs, err)
	}
	lgr.Printf("[INFO] draft %s delivered to %s via %v, failed %v", draftID, sched.Owner, out.Succeeded, out.Failed)

	res := &domain.DeliveryAttempt{Owner: sched.Owner, Day: day, Attempts: attempt.Attempts, Status: domain.AttemptDelivered,
		DraftID: draftID, Succeeded: out.Succeeded, Failed: out.Failed, UpdatedAt: now}
	return res, errors.Join(errs...)
}

// fail records a failed attempt and sends the give-up notice once the day is closed
func (p *Pipeline) fail(ctx context.Context, sched domain.Schedule, day, draftID string, failed []string, cause error) (*domain.DeliveryAttempt, error) {
	rec, err := p.Attempts.RecordFailure(ctx, sched.Owner, day, draftID, failed, cause, p.MaxDailyAttempts, p.now())
	if err != nil {
		lgr.Printf("[ERROR] can't record failure of %s on %s: %v", sched.Owner, day, err)
		return nil, errors.Join(cause, err)
	}
	if rec.Status != domain.AttemptFailed {
		lgr.Printf("[WARN] delivery to %s failed, attempt %d/%d: %v", sched.Owner, rec.Attempts, p.MaxDailyAttempts, cause)
		return rec, cause
	}

	lgr.Printf("[WARN] giving up delivery to %s for %s after %d attempts: %v", sched.Owner, day, rec.Attempts, cause)
	if p.NotifyOnGiveUp {
		msg := delivery.Message{
			Subject: "Newsletter delivery failed for " + day,
			HTML: fmt.Sprintf("<p>Today's newsletter could not be delivered after %d attempts.</p><p>Last error: %s</p>",
				rec.Attempts, html.EscapeString(cause.Error())),
		}
		if out := p.Dispatcher.Dispatch(ctx, sched.DeliveryMethod, sched, msg); !out.Delivered() {
			lgr.Printf("[WARN] give-up notice to %s failed: %v", sched.Owner, out.Err)
		}
	}
	return rec, cause
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
