package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for storage and the API
const DateLayout = "2006-01-02"

// WorkoutSession is a scheduled activity clients are expected to complete
type WorkoutSession struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CoachID     *int64    `json:"coach_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorkoutCompletion records the outcome of one session occurrence for one client on one date
type WorkoutCompletion struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	ClientID  int64     `json:"client_id"`
	Date      time.Time `json:"-"`
	Completed bool      `json:"completed"`
	Reason    *string   `json:"reason,omitempty"`
	ProofRef  *string   `json:"proof_ref,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DateKey returns the stored YYYY-MM-DD form of the completion date
func (c WorkoutCompletion) DateKey() string {
	return FormatDate(c.Date)
}

// MarshalJSON renders the completion date as YYYY-MM-DD
func (c WorkoutCompletion) MarshalJSON() ([]byte, error) {
	type alias WorkoutCompletion
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias(c), c.DateKey()})
}

// DateRange bounds a completion listing. Both ends are inclusive; a zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Validate rejects ranges whose end precedes their start
func (r DateRange) Validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && TruncateDate(r.To).Before(TruncateDate(r.From)) {
		return fmt.Errorf("date range end %s is before start %s", FormatDate(r.To), FormatDate(r.From))
	}
	return nil
}

// TruncateDate drops the time of day, keeping the calendar date as seen in t's location, in UTC
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders the calendar date of t
func FormatDate(t time.Time) string {
	return TruncateDate(t).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid calendar date %q: %w", s, err)
	}
	return t, nil
}
