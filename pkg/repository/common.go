package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
)

// errCritical signals repeater to stop retrying
var errCritical = errors.New("critical database error")

// withRetry runs fn, retrying only on SQLite lock/busy errors
func withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		lastErr = fn()
		if lastErr != nil && !isLockError(lastErr) {
			return errCritical
		}
		return lastErr
	}, errCritical)
	if lastErr != nil {
		return lastErr
	}
	return err
}

// isLockError checks if an error is a SQLite lock/busy error
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}

// dbTime normalizes time for storage, the stored form must round-trip exactly for conditional updates
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// dbTimePtr is dbTime for optional values
func dbTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := dbTime(*t)
	return &v
}

// jsonColumn stores any value as JSON text
type jsonColumn[T any] struct {
	V T
}

// Value implements driver.Valuer for database storage
func (j jsonColumn[T]) Value() (driver.Value, error) {
	data, err := json.Marshal(j.V)
	if err != nil {
		return nil, fmt.Errorf("marshal json column: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner for database retrieval
func (j *jsonColumn[T]) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, &j.V)
}
