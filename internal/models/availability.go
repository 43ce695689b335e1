package models

import "time"

// AvailabilityRule is the stored row shape for an open time window.
// Recurring rows carry day_of_week, date-specific rows carry date; the
// domain layer converts this into a tagged variant before resolution.
type AvailabilityRule struct {
	ID         string    `db:"id" json:"id"`
	CalendarID string    `db:"calendar_id" json:"calendar_id"`
	Recurring  bool      `db:"recurring" json:"recurring"`
	DayOfWeek  *int      `db:"day_of_week" json:"day_of_week,omitempty"`
	Date       *string   `db:"date" json:"date,omitempty"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
