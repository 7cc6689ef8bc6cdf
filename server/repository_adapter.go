package server

import (
	"context"
	"time"

	"github.com/umputun/newsdraft/pkg/domain"
	"github.com/umputun/newsdraft/pkg/repository"
)

// RepositoryAdapter adapts repositories to server.Store interface
type RepositoryAdapter struct {
	repos *repository.Repositories
}

// NewRepositoryAdapter creates a new repository adapter
func NewRepositoryAdapter(repos *repository.Repositories) *RepositoryAdapter {
	return &RepositoryAdapter{repos: repos}
}

// Ping checks the database connection
func (r *RepositoryAdapter) Ping(ctx context.Context) error {
	return r.repos.Ping(ctx)
}

// GetSchedule returns the owner's schedule
func (r *RepositoryAdapter) GetSchedule(ctx context.Context, owner string) (*domain.Schedule, error) {
	return r.repos.Schedule.GetSchedule(ctx, owner)
}

// UpsertSchedule creates or replaces the owner's schedule
func (r *RepositoryAdapter) UpsertSchedule(ctx context.Context, s *domain.Schedule) error {
	s.UpdatedAt = time.Now()
	return r.repos.Schedule.UpsertSchedule(ctx, s)
}

// ListAttempts returns the latest delivery attempt records
func (r *RepositoryAdapter) ListAttempts(ctx context.Context, owner string, limit int) ([]domain.DeliveryAttempt, error) {
	return r.repos.Attempt.ListAttempts(ctx, owner, limit)
}

// AddSource adds or re-activates a source
func (r *RepositoryAdapter) AddSource(ctx context.Context, src *domain.Source) error {
	return r.repos.Source.AddSource(ctx, src)
}

// ListSources returns the owner's sources
func (r *RepositoryAdapter) ListSources(ctx context.Context, owner string, activeOnly bool) ([]domain.Source, error) {
	return r.repos.Source.ListSources(ctx, owner, activeOnly)
}

// DisableSource soft-disables the owner's source
func (r *RepositoryAdapter) DisableSource(ctx context.Context, owner string, id int64) error {
	return r.repos.Source.DisableSource(ctx, owner, id)
}

// ListDrafts returns the latest drafts, newest first
func (r *RepositoryAdapter) ListDrafts(ctx context.Context, owner string, limit int) ([]domain.Draft, error) {
	return r.repos.Draft.ListDrafts(ctx, owner, limit)
}

// GetDraft returns the owner's draft
func (r *RepositoryAdapter) GetDraft(ctx context.Context, owner, id string) (*domain.Draft, error) {
	return r.repos.Draft.GetDraft(ctx, owner, id)
}

// PublishDraft moves a draft to published
func (r *RepositoryAdapter) PublishDraft(ctx context.Context, owner, id string, at time.Time) error {
	return r.repos.Draft.Transition(ctx, owner, id, domain.DraftStatusPublished, at)
}
