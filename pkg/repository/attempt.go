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

// AttemptRepository tracks delivery attempts per (owner, local day).
// Every write is conditional on the current row state so concurrent runs can't double count or double deliver.
type AttemptRepository struct {
	db *sqlx.DB
}

type attemptSQL struct {
	Owner     string               `db:"owner"`
	Day       string               `db:"day"`
	Attempts  int                  `db:"attempts"`
	Status    string               `db:"status"`
	DraftID   string               `db:"draft_id"`
	Succeeded jsonColumn[[]string] `db:"succeeded"`
	Failed    jsonColumn[[]string] `db:"failed"`
	LastError string               `db:"last_error"`
	UpdatedAt time.Time            `db:"updated_at"`
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// GetAttempt returns the attempt record of the day. A missing record is reported as a pending record with zero attempts.
func (r *AttemptRepository) GetAttempt(ctx context.Context, owner, day string) (*domain.DeliveryAttempt, error) {
	var rec attemptSQL
	err := r.db.GetContext(ctx, &rec, "SELECT * FROM delivery_attempts WHERE owner = ? AND day = ?", owner, day)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.DeliveryAttempt{Owner: owner, Day: day, Status: domain.AttemptPending}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return rec.toDomain(), nil
}

// BeginAttempt atomically counts a new attempt for the day. It fails with domain.ErrAttemptsExhausted
// if the day is already delivered, failed or has maxAttempts attempts.
func (r *AttemptRepository) BeginAttempt(ctx context.Context, owner, day string, maxAttempts int, at time.Time) (*domain.DeliveryAttempt, error) {
	var res *domain.DeliveryAttempt
	err := withRetry(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		if _, err = tx.ExecContext(ctx,
			`INSERT INTO delivery_attempts (owner, day, updated_at) VALUES (?, ?, ?) ON CONFLICT(owner, day) DO NOTHING`,
			owner, day, dbTime(at)); err != nil {
			return err
		}

		upd, err := tx.ExecContext(ctx, `
			UPDATE delivery_attempts SET attempts = attempts + 1, updated_at = ?
			WHERE owner = ? AND day = ? AND status = 'pending' AND attempts < ?`,
			dbTime(at), owner, day, maxAttempts)
		if err != nil {
			return err
		}
		n, err := upd.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			res = nil
			return tx.Commit()
		}

		var rec attemptSQL
		if err = tx.GetContext(ctx, &rec, "SELECT * FROM delivery_attempts WHERE owner = ? AND day = ?", owner, day); err != nil {
			return err
		}
		res = rec.toDomain()
		return tx.Commit()
	})
	if err != nil {
		return nil, fmt.Errorf("begin attempt: %w", err)
	}
	if res == nil {
		return nil, fmt.Errorf("attempt for %s on %s: %w", owner, day, domain.ErrAttemptsExhausted)
	}
	return res, nil
}

// MarkDelivered closes a pending day as delivered. Returns domain.ErrConflict if the day is not pending anymore.
func (r *AttemptRepository) MarkDelivered(ctx context.Context, owner, day, draftID string, succeeded, failed []string, at time.Time) error {
	var res sql.Result
	err := withRetry(ctx, func() (err error) {
		res, err = r.db.ExecContext(ctx, `
			UPDATE delivery_attempts
			SET status = 'delivered', draft_id = ?, succeeded = ?, failed = ?, last_error = '', updated_at = ?
			WHERE owner = ? AND day = ? AND status = 'pending'`,
			draftID, jsonColumn[[]string]{V: nonNil(succeeded)}, jsonColumn[[]string]{V: nonNil(failed)}, dbTime(at), owner, day)
		return err
	})
	if err != nil {
		return fmt.Errorf("mark attempt delivered: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark attempt delivered rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("attempt of %s on %s is not pending: %w", owner, day, domain.ErrConflict)
	}
	return nil
}

// RecordFailure stores the failure of the current attempt and closes the day as failed once maxAttempts is reached.
// Returns the updated record.
func (r *AttemptRepository) RecordFailure(ctx context.Context, owner, day, draftID string, failed []string,
	cause error, maxAttempts int, at time.Time) (*domain.DeliveryAttempt, error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	err := withRetry(ctx, func() error {
		_, err := r.db.ExecContext(ctx, `
			UPDATE delivery_attempts
			SET draft_id = ?, failed = ?, last_error = ?, updated_at = ?,
				status = CASE WHEN attempts >= ? THEN 'failed' ELSE status END
			WHERE owner = ? AND day = ? AND status = 'pending'`,
			draftID, jsonColumn[[]string]{V: nonNil(failed)}, msg, dbTime(at), maxAttempts, owner, day)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("record attempt failure: %w", err)
	}
	return r.GetAttempt(ctx, owner, day)
}

// ListAttempts returns the latest attempt records of the owner, newest day first
func (r *AttemptRepository) ListAttempts(ctx context.Context, owner string, limit int) ([]domain.DeliveryAttempt, error) {
	if limit <= 0 {
		limit = 30
	}
	var recs []attemptSQL
	if err := r.db.SelectContext(ctx, &recs,
		"SELECT * FROM delivery_attempts WHERE owner = ? ORDER BY day DESC LIMIT ?", owner, limit); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	res := make([]domain.DeliveryAttempt, len(recs))
	for i := range recs {
		res[i] = *recs[i].toDomain()
	}
	return res, nil
}

func (a *attemptSQL) toDomain() *domain.DeliveryAttempt {
	return &domain.DeliveryAttempt{
		Owner:     a.Owner,
		Day:       a.Day,
		Attempts:  a.Attempts,
		Status:    domain.AttemptStatus(a.Status),
		DraftID:   a.DraftID,
		Succeeded: a.Succeeded.V,
		Failed:    a.Failed.V,
		LastError: a.LastError,
		UpdatedAt: a.UpdatedAt,
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
