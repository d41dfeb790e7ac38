package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of business dates.
const DateLayout = "2006-01-02"

// Date is a calendar day with no time component, always in UTC.
type Date struct {
	time.Time
}

// Period is an inclusive window of calendar days.
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

var ErrInvalidPeriod = errors.New("start date must not be after end date")

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp, keeping only the day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, errors.New("invalid date, expected YYYY-MM-DD")
	}
	return DateOf(t), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("invalid date, expected YYYY-MM-DD")
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ResolvePeriod returns the aggregation window. Explicit bounds are used
// verbatim only when both are given; otherwise the calendar month containing
// reference is returned. The result depends on nothing but its arguments.
func ResolvePeriod(reference time.Time, start, end *Date) Period {
	if start != nil && end != nil && !start.IsZero() && !end.IsZero() {
		return Period{Start: *start, End: *end}
	}
	y, m, _ := reference.Date()
	first := NewDate(y, int(m), 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return Period{Start: first, End: last}
}

// Validate rejects windows whose start falls after their end.
func (p Period) Validate() error {
	if p.Start.After(p.End.Time) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains reports whether d falls inside the window, both ends inclusive.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start.Time) && !d.After(p.End.Time)
}
