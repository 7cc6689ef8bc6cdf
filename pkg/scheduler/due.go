package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone names must resolve on hosts without zoneinfo

	"github.com/umputun/newsdraft/pkg/domain"
)

const dayLayout = "2006-01-02"

var offsetRe = regexp.MustCompile(`^(?:UTC|GMT)?\s*([+-])(\d{1,2})(?::?(\d{2}))?$`)

// ParseZone resolves an IANA zone name or a fixed offset like "UTC+2", "UTC-05:30" or "+02:00"
func ParseZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	switch strings.ToUpper(name) {
	case "", "UTC", "GMT", "Z":
		return time.UTC, nil
	}

	if m := offsetRe.FindStringSubmatch(strings.ToUpper(name)); m != nil {
		hours, _ := strconv.Atoi(m[2])
		minutes := 0
		if m[3] != "" {
			minutes, _ = strconv.Atoi(m[3])
		}
		if hours > 14 || minutes > 59 {
			return nil, fmt.Errorf("invalid utc offset %q", name)
		}
		offset := hours*3600 + minutes*60
		if m[1] == "-" {
			offset = -offset
		}
		return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", m[1], hours, minutes), offset), nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// ParseTimeOfDay parses HH:MM into minutes since midnight
func ParseTimeOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Validate checks time of day, timezone and delivery method of a schedule
func Validate(s domain.Schedule) error {
	if _, err := ParseTimeOfDay(s.TimeOfDay); err != nil {
		return err
	}
	if _, err := ParseZone(s.Timezone); err != nil {
		return err
	}
	if _, err := domain.ParseDeliveryMethod(string(s.DeliveryMethod)); err != nil {
		return err
	}
	return nil
}

// IsDue reports whether the schedule should deliver at now. A schedule is due when it is active,
// the local time of its own timezone has reached time of day and nothing was delivered on the local day yet.
// Schedules with invalid time or zone are never due.
func IsDue(s domain.Schedule, now time.Time) bool {
	if !s.Active {
		return false
	}
	tod, err := ParseTimeOfDay(s.TimeOfDay)
	if err != nil {
		return false
	}
	loc, err := ParseZone(s.Timezone)
	if err != nil {
		return false
	}

	local := now.In(loc)
	if local.Hour()*60+local.Minute() < tod {
		return false
	}
	if s.LastDeliveredAt == nil {
		return true
	}
	return s.LastDeliveredAt.In(loc).Format(dayLayout) < local.Format(dayLayout)
}

// LocalDay returns the calendar day of now in the schedule's timezone, the idempotency key of daily delivery
func LocalDay(s domain.Schedule, now time.Time) (string, error) {
	loc, err := ParseZone(s.Timezone)
	if err != nil {
		return "", err
	}
	return now.In(loc).Format(dayLayout), nil
}

// deliveredAt is the last delivery stamp of a run for the local day. A run finishing after local midnight
// is stamped with the last second of its day, otherwise the next day would be skipped.
func deliveredAt(s domain.Schedule, day string, now time.Time) time.Time {
	loc, err := ParseZone(s.Timezone)
	if err != nil {
		return now
	}
	start, err := time.ParseInLocation(dayLayout, day, loc)
	if err != nil {
		return now
	}
	if end := start.AddDate(0, 0, 1).Add(-time.Second); now.After(end) {
		return end
	}
	return now
}
