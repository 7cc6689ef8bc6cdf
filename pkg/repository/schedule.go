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

// ScheduleRepository keeps one delivery schedule per owner
type ScheduleRepository struct {
	db *sqlx.DB
}

type scheduleSQL struct {
	Owner           string     `db:"owner"`
	TimeOfDay       string     `db:"time_of_day"`
	Timezone        string     `db:"timezone"`
	DeliveryMethod  string     `db:"delivery_method"`
	Active          bool       `db:"active"`
	LastDeliveredAt *time.Time `db:"last_delivered_at"`
	Email           string     `db:"email"`
	ChatID          string     `db:"chat_id"`
	Topic           string     `db:"topic"`
	Tone            string     `db:"tone"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// UpsertSchedule creates or replaces the schedule settings of the owner.
// last_delivered_at is owned by the delivery pipeline and never changed here.
func (r *ScheduleRepository) UpsertSchedule(ctx context.Context, s *domain.Schedule) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}
	rec := scheduleSQL{
		Owner:          s.Owner,
		TimeOfDay:      s.TimeOfDay,
		Timezone:       s.Timezone,
		DeliveryMethod: string(s.DeliveryMethod),
		Active:         s.Active,
		Email:          s.Email,
		ChatID:         s.ChatID,
		Topic:          s.Topic,
		Tone:           s.Tone,
		UpdatedAt:      dbTime(s.UpdatedAt),
	}
	query := `
		INSERT INTO schedules (owner, time_of_day, timezone, delivery_method, active, email, chat_id, topic, tone, updated_at)
		VALUES (:owner, :time_of_day, :timezone, :delivery_method, :active, :email, :chat_id, :topic, :tone, :updated_at)
		ON CONFLICT(owner) DO UPDATE SET
			time_of_day = excluded.time_of_day,
			timezone = excluded.timezone,
			delivery_method = excluded.delivery_method,
			active = excluded.active,
			email = excluded.email,
			chat_id = excluded.chat_id,
			topic = excluded.topic,
			tone = excluded.tone,
			updated_at = excluded.updated_at
	`
	err := withRetry(ctx, func() error {
		_, err := r.db.NamedExecContext(ctx, query, rec)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

// GetSchedule returns the schedule of the owner or domain.ErrNotFound
func (r *ScheduleRepository) GetSchedule(ctx context.Context, owner string) (*domain.Schedule, error) {
	var rec scheduleSQL
	err := r.db.GetContext(ctx, &rec, "SELECT * FROM schedules WHERE owner = ?", owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return rec.toDomain(), nil
}

// ActiveSchedules returns all active schedules
func (r *ScheduleRepository) ActiveSchedules(ctx context.Context) ([]domain.Schedule, error) {
	var recs []scheduleSQL
	if err := r.db.SelectContext(ctx, &recs, "SELECT * FROM schedules WHERE active = 1 ORDER BY owner"); err != nil {
		return nil, fmt.Errorf("active schedules: %w", err)
	}
	res := make([]domain.Schedule, len(recs))
	for i := range recs {
		res[i] = *recs[i].toDomain()
	}
	return res, nil
}

// MarkDelivered sets last_delivered_at only if it still holds prev, the value observed by the caller.
// Returns domain.ErrConflict when another writer got there first.
func (r *ScheduleRepository) MarkDelivered(ctx context.Context, owner string, prev *time.Time, at time.Time) error {
	var res sql.Result
	err := withRetry(ctx, func() (err error) {
		res, err = r.db.ExecContext(ctx,
			"UPDATE schedules SET last_delivered_at = ? WHERE owner = ? AND last_delivered_at IS ?",
			dbTime(at), owner, dbTimePtr(prev))
		return err
	})
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark delivered rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("last delivery of %s changed concurrently: %w", owner, domain.ErrConflict)
	}
	return nil
}

func (s *scheduleSQL) toDomain() *domain.Schedule {
	return &domain.Schedule{
		Owner:           s.Owner,
		TimeOfDay:       s.TimeOfDay,
		Timezone:        s.Timezone,
		DeliveryMethod:  domain.DeliveryMethod(s.DeliveryMethod),
		Active:          s.Active,
		LastDeliveredAt: s.LastDeliveredAt,
		Email:           s.Email,
		ChatID:          s.ChatID,
		Topic:           s.Topic,
		Tone:            s.Tone,
		UpdatedAt:       s.UpdatedAt,
	}
}
