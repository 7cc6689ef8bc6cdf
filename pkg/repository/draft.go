package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/newsdraft/pkg/domain"
)

// DraftRepository handles draft-related database operations
type DraftRepository struct {
	db *sqlx.DB
}

type draftSQL struct {
	ID           string                     `db:"id"`
	Owner        string                     `db:"owner"`
	Title        string                     `db:"title"`
	Content      string                     `db:"content"`
	Status       string                     `db:"status"`
	Topic        string                     `db:"topic"`
	Tone         string                     `db:"tone"`
	SourceTrends jsonColumn[[]domain.Trend] `db:"source_trends"`
	CreatedAt    time.Time                  `db:"created_at"`
	SentAt       *time.Time                 `db:"sent_at"`
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(db *sqlx.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// CreateDraft stores a new draft, assigning id and creation time when missing
func (r *DraftRepository) CreateDraft(ctx context.Context, d *domain.Draft) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	if d.Status == "" {
		d.Status = domain.DraftStatusDraft
	}
	d.CreatedAt = dbTime(d.CreatedAt)

	rec := draftSQL{
		ID:           d.ID,
		Owner:        d.Owner,
		Title:        d.Title,
		Content:      d.Content,
		Status:       string(d.Status),
		Topic:        d.Topic,
		Tone:         d.Tone,
		SourceTrends: jsonColumn[[]domain.Trend]{V: d.SourceTrends},
		CreatedAt:    d.CreatedAt,
		SentAt:       dbTimePtr(d.SentAt),
	}
	query := `
		INSERT INTO drafts (id, owner, title, content, status, topic, tone, source_trends, created_at, sent_at)
		VALUES (:id, :owner, :title, :content, :status, :topic, :tone, :source_trends, :created_at, :sent_at)
	`
	err := withRetry(ctx, func() error {
		_, err := r.db.NamedExecContext(ctx, query, rec)
		return err
	})
	if err != nil {
		return fmt.Errorf("create draft: %w", err)
	}
	return nil
}

// GetDraft returns a draft of the owner
func (r *DraftRepository) GetDraft(ctx context.Context, owner, id string) (*domain.Draft, error) {
	var rec draftSQL
	err := r.db.GetContext(ctx, &rec, "SELECT * FROM drafts WHERE owner = ? AND id = ?", owner, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return rec.toDomain(), nil
}

// ListDrafts returns the latest drafts of the owner, newest first
func (r *DraftRepository) ListDrafts(ctx context.Context, owner string, limit int) ([]domain.Draft, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []draftSQL
	err := r.db.SelectContext(ctx, &recs,
		"SELECT * FROM drafts WHERE owner = ? ORDER BY created_at DESC, id LIMIT ?", owner, limit)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	res := make([]domain.Draft, len(recs))
	for i := range recs {
		res[i] = *recs[i].toDomain()
	}
	return res, nil
}

// CountSentOn returns the number of drafts of the owner sent within [from, to)
func (r *DraftRepository) CountSentOn(ctx context.Context, owner string, from, to time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM drafts WHERE owner = ? AND status = 'sent' AND sent_at >= ? AND sent_at < ?",
		owner, dbTime(from), dbTime(to))
	if err != nil {
		return 0, fmt.Errorf("count sent drafts: %w", err)
	}
	return count, nil
}

// Transition moves a draft forward to the given status. Only drafts in the draft state can move,
// any other current state returns domain.ErrConflict.
func (r *DraftRepository) Transition(ctx context.Context, owner, id string, to domain.DraftStatus, at time.Time) error {
	if !domain.DraftStatusDraft.CanTransition(to) {
		return fmt.Errorf("transition draft to %q: %w", to, domain.ErrConflict)
	}

	var sentAt *time.Time
	if to == domain.DraftStatusSent {
		t := dbTime(at)
		sentAt = &t
	}

	var res sql.Result
	err := withRetry(ctx, func() (err error) {
		res, err = r.db.ExecContext(ctx,
			"UPDATE drafts SET status = ?, sent_at = COALESCE(?, sent_at) WHERE owner = ? AND id = ? AND status = 'draft'",
			string(to), sentAt, owner, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("transition draft: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition draft rows: %w", err)
	}
	if n == 0 {
		if _, err := r.GetDraft(ctx, owner, id); err != nil {
			return err
		}
		return fmt.Errorf("draft %s is not in draft state: %w", id, domain.ErrConflict)
	}
	return nil
}

func (d *draftSQL) toDomain() *domain.Draft {
	return &domain.Draft{
		ID:           d.ID,
		Owner:        d.Owner,
		Title:        d.Title,
		Content:      d.Content,
		Status:       domain.DraftStatus(d.Status),
		Topic:        d.Topic,
		Tone:         d.Tone,
		SourceTrends: d.SourceTrends.V,
		CreatedAt:    d.CreatedAt,
		SentAt:       d.SentAt,
	}
}
