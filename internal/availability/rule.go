// Package availability computes bookable dates and time slots from a
// calendar's availability rules. It is purely computational: callers fetch
// rules, thread the reference instant explicitly, and interpret the result.
package availability

import (
	"fmt"
	"time"
)

// DateLayout is the normalized calendar-date representation used for all
// date comparisons, avoiding timezone drift between rule rows and the scan.
const DateLayout = "2006-01-02"

const clockLayout = "15:04"

// Slot is a concrete start/end time pair in "HH:MM" 24-hour local form.
type Slot struct {
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

// Occurrence is the tagged variant describing when a rule applies: every
// week on a fixed weekday, or on a single calendar date. The sealed
// interface makes the mutual exclusivity a compile-time invariant instead
// of a nullable-columns convention.
type Occurrence interface {
	appliesOn(date string, weekday time.Weekday) bool
	sealed()
}

// Weekly applies every week on Day.
type Weekly struct {
	Day time.Weekday
}

func (w Weekly) appliesOn(_ string, weekday time.Weekday) bool {
	return w.Day == weekday
}

func (Weekly) sealed() {}

// OnDate applies only on Date (normalized "YYYY-MM-DD").
type OnDate struct {
	Date string
}

func (o OnDate) appliesOn(date string, _ time.Weekday) bool {
	return o.Date == date
}

func (OnDate) sealed() {}

// Rule is one open time window plus its occurrence.
type Rule struct {
	ID     string
	Window Slot
	Occurs Occurrence
}

// MalformedRuleError identifies the stored rule that could not be
// interpreted, rather than surfacing a bare parse failure.
type MalformedRuleError struct {
	RuleID string
	Reason string
}

func (e *MalformedRuleError) Error() string {
	return fmt.Sprintf("availability rule %s is malformed: %s", e.RuleID, e.Reason)
}

// ParseClock validates an "HH:MM" 24-hour clock string.
func ParseClock(raw string) error {
	if _, err := time.Parse(clockLayout, raw); err != nil {
		return fmt.Errorf("invalid clock value %q: expected HH:MM", raw)
	}
	return nil
}

// NormalizeDate reduces a date string to the canonical YYYY-MM-DD form.
func NormalizeDate(raw string) (string, error) {
	parsed, err := time.Parse(DateLayout, raw)
	if err != nil {
		// Stored dates occasionally carry a time component.
		parsed, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return "", fmt.Errorf("invalid date value %q: expected YYYY-MM-DD", raw)
		}
	}
	return parsed.Format(DateLayout), nil
}

// NewWeeklyRule builds a recurring rule, validating its window and weekday.
func NewWeeklyRule(id string, dayOfWeek int, start, end string) (Rule, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return Rule{}, &MalformedRuleError{RuleID: id, Reason: fmt.Sprintf("day_of_week %d out of range 0..6", dayOfWeek)}
	}
	window, err := newWindow(id, start, end)
	if err != nil {
		return Rule{}, err
	}
	return Rule{ID: id, Window: window, Occurs: Weekly{Day: time.Weekday(dayOfWeek)}}, nil
}

// NewDateRule builds a date-specific rule, validating its window and date.
func NewDateRule(id string, date string, start, end string) (Rule, error) {
	normalized, err := NormalizeDate(date)
	if err != nil {
		return Rule{}, &MalformedRuleError{RuleID: id, Reason: err.Error()}
	}
	window, err := newWindow(id, start, end)
	if err != nil {
		return Rule{}, err
	}
	return Rule{ID: id, Window: window, Occurs: OnDate{Date: normalized}}, nil
}

func newWindow(id, start, end string) (Slot, error) {
	if err := ParseClock(start); err != nil {
		return Slot{}, &MalformedRuleError{RuleID: id, Reason: err.Error()}
	}
	if err := ParseClock(end); err != nil {
		return Slot{}, &MalformedRuleError{RuleID: id, Reason: err.Error()}
	}
	// Lexicographic order equals chronological order for fixed HH:MM.
	if start >= end {
		return Slot{}, &MalformedRuleError{RuleID: id, Reason: fmt.Sprintf("start_time %s is not before end_time %s", start, end)}
	}
	return Slot{Start: start, End: end}, nil
}
