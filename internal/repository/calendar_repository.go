package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/meetsync/meetsync-api/internal/models"
)

const calendarColumns = `id, user_id, title, description, is_public, created_at, updated_at`

// CalendarRepository persists booking-page calendars.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs a calendar repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// Create inserts a calendar.
func (r *CalendarRepository) Create(ctx context.Context, calendar *models.Calendar) error {
	if calendar.ID == "" {
		calendar.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	calendar.CreatedAt = now
	calendar.UpdatedAt = now
	const query = `INSERT INTO calendars (id, user_id, title, description, is_public, created_at, updated_at)
VALUES (:id, :user_id, :title, :description, :is_public, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, calendar); err != nil {
		return fmt.Errorf("create calendar: %w", err)
	}
	return nil
}

// GetByID fetches a calendar.
func (r *CalendarRepository) GetByID(ctx context.Context, id string) (*models.Calendar, error) {
	query := fmt.Sprintf(`SELECT %s FROM calendars WHERE id = $1 LIMIT 1`, calendarColumns)
	var calendar models.Calendar
	if err := r.db.GetContext(ctx, &calendar, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get calendar: %w", err)
	}
	return &calendar, nil
}

// ListByUser returns all calendars owned by a user, newest first.
func (r *CalendarRepository) ListByUser(ctx context.Context, userID string) ([]models.Calendar, error) {
	query := fmt.Sprintf(`SELECT %s FROM calendars WHERE user_id = $1 ORDER BY created_at DESC`, calendarColumns)
	var calendars []models.Calendar
	if err := r.db.SelectContext(ctx, &calendars, query, userID); err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	return calendars, nil
}

// ListIDsByUser returns just the ids of a user's calendars.
func (r *CalendarRepository) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT id FROM calendars WHERE user_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list calendar ids: %w", err)
	}
	return ids, nil
}

// Update modifies a calendar's editable fields.
func (r *CalendarRepository) Update(ctx context.Context, calendar *models.Calendar) error {
	calendar.UpdatedAt = time.Now().UTC()
	const query = `UPDATE calendars SET title = :title, description = :description, is_public = :is_public, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, calendar); err != nil {
		return fmt.Errorf("update calendar: %w", err)
	}
	return nil
}

// Delete removes a calendar together with its availability rules and
// meetings in a single transaction.
func (r *CalendarRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete calendar: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM meetings WHERE calendar_id = $1`, id); err != nil {
		return fmt.Errorf("delete calendar meetings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM availabilities WHERE calendar_id = $1`, id); err != nil {
		return fmt.Errorf("delete calendar availabilities: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM calendars WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete calendar: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete calendar: %w", err)
	}
	return nil
}
