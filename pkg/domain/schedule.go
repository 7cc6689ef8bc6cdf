package domain

import (
	"fmt"
	"time"
)

// DeliveryMethod selects the transports a schedule delivers through
type DeliveryMethod string

// delivery methods
const (
	DeliveryEmail DeliveryMethod = "email"
	DeliveryChat  DeliveryMethod = "chat"
	DeliveryBoth  DeliveryMethod = "both"
)

// ParseDeliveryMethod converts a string to DeliveryMethod
func ParseDeliveryMethod(s string) (DeliveryMethod, error) {
	switch m := DeliveryMethod(s); m {
	case DeliveryEmail, DeliveryChat, DeliveryBoth:
		return m, nil
	}
	return "", fmt.Errorf("unknown delivery method %q", s)
}

// Transports returns the transport names implied by the method
func (m DeliveryMethod) Transports() []string {
	switch m {
	case DeliveryEmail:
		return []string{TransportEmail}
	case DeliveryChat:
		return []string{TransportChat}
	case DeliveryBoth:
		return []string{TransportEmail, TransportChat}
	}
	return nil
}

// transport names
const (
	TransportEmail = "email"
	TransportChat  = "chat"
)

// default draft parameters
const (
	DefaultTopic = "Technology & Innovation"
	DefaultTone  = "Professional"
)

// Schedule is the single delivery schedule of an owner
type Schedule struct {
	Owner           string         `json:"owner"`
	TimeOfDay       string         `json:"time_of_day"` // HH:MM in the schedule's timezone
	Timezone        string         `json:"timezone"`    // IANA name or fixed offset like UTC+02:00
	DeliveryMethod  DeliveryMethod `json:"delivery_method"`
	Active          bool           `json:"active"`
	LastDeliveredAt *time.Time     `json:"last_delivered_at,omitempty"`
	Email           string         `json:"email"`
	ChatID          string         `json:"chat_id"`
	Topic           string         `json:"topic"`
	Tone            string         `json:"tone"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// AttemptStatus is the state of the delivery attempt record of a local day
type AttemptStatus string

// attempt statuses
const (
	AttemptPending   AttemptStatus = "pending"
	AttemptDelivered AttemptStatus = "delivered"
	AttemptFailed    AttemptStatus = "failed"
)

// DeliveryAttempt tracks delivery attempts of an owner for one local calendar day
type DeliveryAttempt struct {
	Owner     string        `json:"owner"`
	Day       string        `json:"day"` // YYYY-MM-DD in the schedule's timezone
	Attempts  int           `json:"attempts"`
	Status    AttemptStatus `json:"status"`
	DraftID   string        `json:"draft_id,omitempty"`
	Succeeded []string      `json:"succeeded"`
	Failed    []string      `json:"failed"`
	LastError string        `json:"last_error,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Closed reports whether no more attempts are allowed for the day
func (a DeliveryAttempt) Closed(maxAttempts int) bool {
	return a.Status == AttemptDelivered || a.Status == AttemptFailed || (maxAttempts > 0 && a.Attempts >= maxAttempts)
}
