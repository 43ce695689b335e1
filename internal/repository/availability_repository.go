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

const availabilityColumns = `id, calendar_id, recurring, day_of_week, date, start_time, end_time, created_at`

// AvailabilityRepository persists availability rules.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByCalendar returns every rule attached to a calendar.
func (r *AvailabilityRepository) ListByCalendar(ctx context.Context, calendarID string) ([]models.AvailabilityRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM availabilities WHERE calendar_id = $1 ORDER BY created_at ASC`, availabilityColumns)
	var rules []models.AvailabilityRule
	if err := r.db.SelectContext(ctx, &rules, query, calendarID); err != nil {
		return nil, fmt.Errorf("list availabilities: %w", err)
	}
	return rules, nil
}

// GetByID fetches one rule.
func (r *AvailabilityRepository) GetByID(ctx context.Context, id string) (*models.AvailabilityRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM availabilities WHERE id = $1 LIMIT 1`, availabilityColumns)
	var rule models.AvailabilityRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get availability: %w", err)
	}
	return &rule, nil
}

// Create inserts a rule.
func (r *AvailabilityRepository) Create(ctx context.Context, rule *models.AvailabilityRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO availabilities (id, calendar_id, recurring, day_of_week, date, start_time, end_time, created_at)
VALUES (:id, :calendar_id, :recurring, :day_of_week, :date, :start_time, :end_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create availability: %w", err)
	}
	return nil
}

// Update modifies a rule's window and occurrence fields.
func (r *AvailabilityRepository) Update(ctx context.Context, rule *models.AvailabilityRule) error {
	const query = `UPDATE availabilities SET recurring = :recurring, day_of_week = :day_of_week, date = :date,
start_time = :start_time, end_time = :end_time WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("update availability: %w", err)
	}
	return nil
}

// Delete removes a rule.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM availabilities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	return nil
}
