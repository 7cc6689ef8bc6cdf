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

// StyleRepository keeps one style profile per owner
type StyleRepository struct {
	db *sqlx.DB
}

type styleSQL struct {
	Owner              string                         `db:"owner"`
	Fingerprint        jsonColumn[domain.Fingerprint] `db:"fingerprint"`
	CustomInstructions string                         `db:"custom_instructions"`
	UpdatedAt          time.Time                      `db:"updated_at"`
}

// NewStyleRepository creates a new style repository
func NewStyleRepository(db *sqlx.DB) *StyleRepository {
	return &StyleRepository{db: db}
}

// UpsertStyle stores the profile, replacing any previous profile of the owner as a whole
func (r *StyleRepository) UpsertStyle(ctx context.Context, p *domain.StyleProfile) error {
	rec := styleSQL{
		Owner:              p.Owner,
		Fingerprint:        jsonColumn[domain.Fingerprint]{V: p.Fingerprint},
		CustomInstructions: p.CustomInstructions,
		UpdatedAt:          dbTime(p.UpdatedAt),
	}
	query := `
		INSERT INTO style_profiles (owner, fingerprint, custom_instructions, updated_at)
		VALUES (:owner, :fingerprint, :custom_instructions, :updated_at)
		ON CONFLICT(owner) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			custom_instructions = excluded.custom_instructions,
			updated_at = excluded.updated_at
	`
	err := withRetry(ctx, func() error {
		_, err := r.db.NamedExecContext(ctx, query, rec)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert style: %w", err)
	}
	return nil
}

// GetStyle returns the profile of the owner or domain.ErrNotFound
func (r *StyleRepository) GetStyle(ctx context.Context, owner string) (*domain.StyleProfile, error) {
	var rec styleSQL
	err := r.db.GetContext(ctx, &rec, "SELECT * FROM style_profiles WHERE owner = ?", owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get style: %w", err)
	}
	return &domain.StyleProfile{
		Owner:              rec.Owner,
		Fingerprint:        rec.Fingerprint.V,
		CustomInstructions: rec.CustomInstructions,
		UpdatedAt:          rec.UpdatedAt,
	}, nil
}
