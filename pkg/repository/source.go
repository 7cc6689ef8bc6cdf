package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/newsdraft/pkg/domain"
)

// SourceRepository handles source-related database operations
type SourceRepository struct {
	db *sqlx.DB
}

// sourceSQL represents a source for SQL operations
type sourceSQL struct {
	ID        int64     `db:"id"`
	Owner     string    `db:"owner"`
	URL       string    `db:"url"`
	Kind      string    `db:"kind"`
	Category  string    `db:"category"`
	Priority  int       `db:"priority"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

// NewSourceRepository creates a new source repository
func NewSourceRepository(db *sqlx.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// AddSource inserts a source or re-activates an existing one with the same owner, kind and url
func (r *SourceRepository) AddSource(ctx context.Context, src *domain.Source) error {
	if !src.Kind.Valid() {
		return fmt.Errorf("add source: invalid kind %q", src.Kind)
	}
	query := `
		INSERT INTO sources (owner, url, kind, category, priority, active)
		VALUES (:owner, :url, :kind, :category, :priority, 1)
		ON CONFLICT(owner, kind, url) DO UPDATE SET
			category = excluded.category,
			priority = excluded.priority,
			active = 1
	`
	rec := sourceSQL{Owner: src.Owner, URL: src.URL, Kind: string(src.Kind), Category: src.Category, Priority: src.Priority}
	err := withRetry(ctx, func() error {
		if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
			return err
		}
		// last insert id is not reliable for the update branch of an upsert
		return r.db.GetContext(ctx, &src.ID, "SELECT id FROM sources WHERE owner = ? AND kind = ? AND url = ?",
			src.Owner, string(src.Kind), src.URL)
	})
	if err != nil {
		return fmt.Errorf("add source: %w", err)
	}
	src.Active = true
	return nil
}

// GetSource returns a source of the owner by id
func (r *SourceRepository) GetSource(ctx context.Context, owner string, id int64) (*domain.Source, error) {
	var rec sourceSQL
	err := r.db.GetContext(ctx, &rec, "SELECT * FROM sources WHERE owner = ? AND id = ?", owner, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return rec.toDomain(), nil
}

// ListSources returns sources of the owner ordered by priority
func (r *SourceRepository) ListSources(ctx context.Context, owner string, activeOnly bool) ([]domain.Source, error) {
	query := "SELECT * FROM sources WHERE owner = ?"
	if activeOnly {
		query += " AND active = 1"
	}
	query += " ORDER BY priority, id"

	var recs []sourceSQL
	if err := r.db.SelectContext(ctx, &recs, query, owner); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	res := make([]domain.Source, len(recs))
	for i := range recs {
		res[i] = *recs[i].toDomain()
	}
	return res, nil
}

// DisableSource soft-disables a source, it stays in the store for history
func (r *SourceRepository) DisableSource(ctx context.Context, owner string, id int64) error {
	var res sql.Result
	err := withRetry(ctx, func() (err error) {
		res, err = r.db.ExecContext(ctx, "UPDATE sources SET active = 0 WHERE owner = ? AND id = ?", owner, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("disable source: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *sourceSQL) toDomain() *domain.Source {
	return &domain.Source{
		ID:        s.ID,
		Owner:     s.Owner,
		URL:       s.URL,
		Kind:      domain.SourceKind(s.Kind),
		Category:  s.Category,
		Priority:  s.Priority,
		Active:    s.Active,
		CreatedAt: s.CreatedAt,
	}
}
