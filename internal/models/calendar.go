package models

import "time"

// Calendar represents an owner's named booking page.
type Calendar struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsPublic    bool      `db:"is_public" json:"is_public"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// PublicCalendar is the visitor-facing projection of a calendar.
type PublicCalendar struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

// Public returns the visitor-facing view.
func (c *Calendar) Public() PublicCalendar {
	return PublicCalendar{ID: c.ID, Title: c.Title, Description: c.Description}
}
