package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCodeAlreadyAssigned is returned when a confirmation code is attached to
// an event that already carries one.
var ErrCodeAlreadyAssigned = errors.New("reservation: confirmation code already assigned")

// Layouts accepted for the reservation date and time fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// TimeOfDay is a wall-clock time without a date or zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(value))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", value, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String renders the time in 12h form, e.g. "7:30 PM".
func (t TimeOfDay) String() string {
	return time.Date(2000, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format("3:04 PM")
}

// Clock renders the time as "HH:MM".
func (t TimeOfDay) Clock() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ReservationEvent is the validated reservation handed to the dispatcher. It is
// treated as immutable once constructed; WithConfirmationCode returns a copy.
type ReservationEvent struct {
	ID               string
	Name             string
	Phone            string
	Email            string
	CompanyName      string
	Date             time.Time
	Time             TimeOfDay
	GuestCount       int
	SpecialRequests  string
	ConfirmationCode string
}

// WithConfirmationCode returns a copy of the event carrying code. A code is
// assigned at most once.
func (e ReservationEvent) WithConfirmationCode(code string) (ReservationEvent, error) {
	if e.ConfirmationCode != "" {
		return e, ErrCodeAlreadyAssigned
	}
	e.ConfirmationCode = code
	return e, nil
}

// FormattedDate renders the date as "Monday, January 2, 2006".
func (e ReservationEvent) FormattedDate() string {
	return e.Date.Format("Monday, January 2, 2006")
}

// FormattedTime renders the time of day in 12h form.
func (e ReservationEvent) FormattedTime() string {
	return e.Time.String()
}

// RequestsOrNone returns the special requests text or "None".
func (e ReservationEvent) RequestsOrNone() string {
	if strings.TrimSpace(e.SpecialRequests) == "" {
		return "None"
	}
	return e.SpecialRequests
}
