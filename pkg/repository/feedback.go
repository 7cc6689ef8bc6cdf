package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/newsdraft/pkg/domain"
)

// FeedbackRepository stores append-only reactions, edits, metrics and review sessions
type FeedbackRepository struct {
	db *sqlx.DB
}

type reactionSQL struct {
	ID        int64     `db:"id"`
	DraftID   string    `db:"draft_id"`
	Owner     string    `db:"owner"`
	Kind      string    `db:"kind"`
	CreatedAt time.Time `db:"created_at"`
}

type editSQL struct {
	ID            int64     `db:"id"`
	DraftID       string    `db:"draft_id"`
	Owner         string    `db:"owner"`
	LinesAdded    int       `db:"lines_added"`
	LinesDeleted  int       `db:"lines_deleted"`
	OriginalWords int       `db:"original_words"`
	EditedWords   int       `db:"edited_words"`
	EditRatio     float64   `db:"edit_ratio"`
	CreatedAt     time.Time `db:"created_at"`
}

type metricSQL struct {
	ID        int64     `db:"id"`
	DraftID   string    `db:"draft_id"`
	Owner     string    `db:"owner"`
	Kind      string    `db:"kind"`
	Value     float64   `db:"value"`
	CreatedAt time.Time `db:"created_at"`
}

type reviewSQL struct {
	ID        int64      `db:"id"`
	DraftID   string     `db:"draft_id"`
	Owner     string     `db:"owner"`
	StartedAt time.Time  `db:"started_at"`
	EndedAt   *time.Time `db:"ended_at"`
}

// FeedbackFilter selects feedback records of an owner
type FeedbackFilter struct {
	Owner   string
	DraftID string    // optional
	Since   time.Time // optional, inclusive
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// AddReaction appends a reaction to a draft
func (r *FeedbackRepository) AddReaction(ctx context.Context, rc *domain.Reaction) error {
	rc.CreatedAt = dbTime(orNow(rc.CreatedAt))
	rec := reactionSQL{DraftID: rc.DraftID, Owner: rc.Owner, Kind: string(rc.Kind), CreatedAt: rc.CreatedAt}
	id, err := r.insert(ctx, `INSERT INTO reactions (draft_id, owner, kind, created_at)
		VALUES (:draft_id, :owner, :kind, :created_at)`, rec)
	if err != nil {
		return fmt.Errorf("add reaction: %w", err)
	}
	rc.ID = id
	return nil
}

// ApplyEdit appends an edit record and replaces the content of the draft in one transaction.
// Returns domain.ErrConflict and stores nothing if the draft has been sent or published.
func (r *FeedbackRepository) ApplyEdit(ctx context.Context, e *domain.Edit, content string) error {
	e.CreatedAt = dbTime(orNow(e.CreatedAt))
	rec := editSQL{
		DraftID:       e.DraftID,
		Owner:         e.Owner,
		LinesAdded:    e.LinesAdded,
		LinesDeleted:  e.LinesDeleted,
		OriginalWords: e.OriginalWords,
		EditedWords:   e.EditedWords,
		EditRatio:     e.EditRatio,
		CreatedAt:     e.CreatedAt,
	}

	var id int64
	editable := true
	err := withRetry(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		res, err := tx.NamedExecContext(ctx, `INSERT INTO edits (draft_id, owner, lines_added, lines_deleted, original_words, edited_words, edit_ratio, created_at)
			VALUES (:draft_id, :owner, :lines_added, :lines_deleted, :original_words, :edited_words, :edit_ratio, :created_at)`, rec)
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}

		upd, err := tx.ExecContext(ctx,
			"UPDATE drafts SET content = ? WHERE owner = ? AND id = ? AND status = 'draft'", content, e.Owner, e.DraftID)
		if err != nil {
			return err
		}
		n, err := upd.RowsAffected()
		if err != nil {
			return err
		}
		if editable = n > 0; !editable {
			return nil // rolled back by defer
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("apply edit: %w", err)
	}
	if !editable {
		return fmt.Errorf("draft %s can't be edited: %w", e.DraftID, domain.ErrConflict)
	}
	e.ID = id
	return nil
}

// AddMetric appends an engagement metric to a draft
func (r *FeedbackRepository) AddMetric(ctx context.Context, m *domain.Metric) error {
	m.CreatedAt = dbTime(orNow(m.CreatedAt))
	rec := metricSQL{DraftID: m.DraftID, Owner: m.Owner, Kind: string(m.Kind), Value: m.Value, CreatedAt: m.CreatedAt}
	id, err := r.insert(ctx, `INSERT INTO metrics (draft_id, owner, kind, value, created_at)
		VALUES (:draft_id, :owner, :kind, :value, :created_at)`, rec)
	if err != nil {
		return fmt.Errorf("add metric: %w", err)
	}
	m.ID = id
	return nil
}

// StartReview opens a review session of a draft
func (r *FeedbackRepository) StartReview(ctx context.Context, owner, draftID string, at time.Time) (*domain.ReviewSession, error) {
	rec := reviewSQL{DraftID: draftID, Owner: owner, StartedAt: dbTime(at)}
	id, err := r.insert(ctx, `INSERT INTO review_sessions (draft_id, owner, started_at) VALUES (:draft_id, :owner, :started_at)`, rec)
	if err != nil {
		return nil, fmt.Errorf("start review: %w", err)
	}
	return &domain.ReviewSession{ID: id, DraftID: draftID, Owner: owner, StartedAt: rec.StartedAt}, nil
}

// StopReview closes the latest open review session of a draft
func (r *FeedbackRepository) StopReview(ctx context.Context, owner, draftID string, at time.Time) (*domain.ReviewSession, error) {
	var rec reviewSQL
	err := r.db.GetContext(ctx, &rec, `SELECT * FROM review_sessions
		WHERE owner = ? AND draft_id = ? AND ended_at IS NULL ORDER BY started_at DESC, id DESC LIMIT 1`, owner, draftID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find open review: %w", err)
	}

	ended := dbTime(at)
	if ended.Before(rec.StartedAt) {
		ended = rec.StartedAt
	}
	var res sql.Result
	err = withRetry(ctx, func() (err error) {
		res, err = r.db.ExecContext(ctx, "UPDATE review_sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL", ended, rec.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("stop review: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("review %d already closed: %w", rec.ID, domain.ErrConflict)
	}
	rec.EndedAt = &ended
	return rec.toDomain(), nil
}

// Reactions returns reactions matching the filter, oldest first
func (r *FeedbackRepository) Reactions(ctx context.Context, f FeedbackFilter) ([]domain.Reaction, error) {
	query, args, err := f.apply(sq.Select("*").From("reactions"), "created_at").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reactions query: %w", err)
	}
	var recs []reactionSQL
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("get reactions: %w", err)
	}
	res := make([]domain.Reaction, len(recs))
	for i, rec := range recs {
		res[i] = domain.Reaction{ID: rec.ID, DraftID: rec.DraftID, Owner: rec.Owner, Kind: domain.ReactionKind(rec.Kind), CreatedAt: rec.CreatedAt}
	}
	return res, nil
}

// Metrics returns engagement metrics matching the filter, oldest first
func (r *FeedbackRepository) Metrics(ctx context.Context, f FeedbackFilter) ([]domain.Metric, error) {
	query, args, err := f.apply(sq.Select("*").From("metrics"), "created_at").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build metrics query: %w", err)
	}
	var recs []metricSQL
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("get metrics: %w", err)
	}
	res := make([]domain.Metric, len(recs))
	for i, rec := range recs {
		res[i] = domain.Metric{ID: rec.ID, DraftID: rec.DraftID, Owner: rec.Owner, Kind: domain.MetricKind(rec.Kind),
			Value: rec.Value, CreatedAt: rec.CreatedAt}
	}
	return res, nil
}

// Edits returns edits matching the filter, oldest first
func (r *FeedbackRepository) Edits(ctx context.Context, f FeedbackFilter) ([]domain.Edit, error) {
	query, args, err := f.apply(sq.Select("*").From("edits"), "created_at").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build edits query: %w", err)
	}
	var recs []editSQL
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("get edits: %w", err)
	}
	res := make([]domain.Edit, len(recs))
	for i, rec := range recs {
		res[i] = domain.Edit{
			ID:            rec.ID,
			DraftID:       rec.DraftID,
			Owner:         rec.Owner,
			LinesAdded:    rec.LinesAdded,
			LinesDeleted:  rec.LinesDeleted,
			OriginalWords: rec.OriginalWords,
			EditedWords:   rec.EditedWords,
			EditRatio:     rec.EditRatio,
			CreatedAt:     rec.CreatedAt,
		}
	}
	return res, nil
}

// Reviews returns review sessions matching the filter, oldest first. Open sessions are included.
func (r *FeedbackRepository) Reviews(ctx context.Context, f FeedbackFilter) ([]domain.ReviewSession, error) {
	query, args, err := f.apply(sq.Select("*").From("review_sessions"), "started_at").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reviews query: %w", err)
	}
	var recs []reviewSQL
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("get reviews: %w", err)
	}
	res := make([]domain.ReviewSession, len(recs))
	for i := range recs {
		res[i] = *recs[i].toDomain()
	}
	return res, nil
}

// apply adds filter conditions to a select, tsColumn is the column the window applies to
func (f FeedbackFilter) apply(b sq.SelectBuilder, tsColumn string) sq.SelectBuilder {
	b = b.Where(sq.Eq{"owner": f.Owner})
	if f.DraftID != "" {
		b = b.Where(sq.Eq{"draft_id": f.DraftID})
	}
	if !f.Since.IsZero() {
		b = b.Where(sq.GtOrEq{tsColumn: dbTime(f.Since)})
	}
	return b.OrderBy(tsColumn, "id")
}

// insert runs a named insert with lock retries and returns the new row id
func (r *FeedbackRepository) insert(ctx context.Context, query string, arg any) (int64, error) {
	var id int64
	err := withRetry(ctx, func() error {
		res, err := r.db.NamedExecContext(ctx, query, arg)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

func (s *reviewSQL) toDomain() *domain.ReviewSession {
	return &domain.ReviewSession{ID: s.ID, DraftID: s.DraftID, Owner: s.Owner, StartedAt: s.StartedAt, EndedAt: s.EndedAt}
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
