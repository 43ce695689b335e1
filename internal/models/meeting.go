package models

import "time"

// MeetingStatus enumerates the lifecycle states of a booking.
type MeetingStatus string

const (
	MeetingStatusPending   MeetingStatus = "pending"
	MeetingStatusConfirmed MeetingStatus = "confirmed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// Valid reports whether the status is a known value.
func (s MeetingStatus) Valid() bool {
	switch s {
	case MeetingStatusPending, MeetingStatusConfirmed, MeetingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows moving to next.
// Confirmed and cancelled are terminal.
func (s MeetingStatus) CanTransitionTo(next MeetingStatus) bool {
	if s != MeetingStatusPending {
		return false
	}
	return next == MeetingStatusConfirmed || next == MeetingStatusCancelled
}

// Meeting represents a booked appointment resulting from a visitor's
// slot selection.
type Meeting struct {
	ID             string        `db:"id" json:"id"`
	CalendarID     string        `db:"calendar_id" json:"calendar_id"`
	BookerName     string        `db:"booker_name" json:"booker_name"`
	BookerEmail    string        `db:"booker_email" json:"booker_email"`
	StartTime      time.Time     `db:"start_time" json:"start_time"`
	EndTime        time.Time     `db:"end_time" json:"end_time"`
	Title          string        `db:"title" json:"title"`
	Description    *string       `db:"description" json:"description,omitempty"`
	Status         MeetingStatus `db:"status" json:"status"`
	GoogleMeetLink *string       `db:"google_meet_link" json:"google_meet_link,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}
