package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/meetsync/meetsync-api/internal/models"
)

const meetingColumns = `id, calendar_id, booker_name, booker_email, start_time, end_time, title, description, status, google_meet_link, created_at, updated_at`

// ErrSlotTaken is returned by CreateIfSlotFree when a live meeting already
// occupies the requested time range.
var ErrSlotTaken = fmt.Errorf("slot already booked")

// MeetingRepository persists bookings.
type MeetingRepository struct {
	db *sqlx.DB
}

// NewMeetingRepository constructs a meeting repository.
func NewMeetingRepository(db *sqlx.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// CreateIfSlotFree inserts the meeting only when no non-cancelled meeting
// already occupies (calendar_id, start_time, end_time). The check and the
// insert run in one transaction so concurrent submissions cannot both pass.
func (r *MeetingRepository) CreateIfSlotFree(ctx context.Context, meeting *models.Meeting) error {
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	meeting.CreatedAt = now
	meeting.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin booking: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var occupied int
	const checkQuery = `SELECT COUNT(*) FROM meetings
WHERE calendar_id = $1 AND start_time = $2 AND end_time = $3 AND status <> 'cancelled'`
	if err := tx.GetContext(ctx, &occupied, checkQuery, meeting.CalendarID, meeting.StartTime, meeting.EndTime); err != nil {
		return fmt.Errorf("check slot occupancy: %w", err)
	}
	if occupied > 0 {
		return ErrSlotTaken
	}

	const insertQuery = `INSERT INTO meetings (id, calendar_id, booker_name, booker_email, start_time, end_time, title, description, status, google_meet_link, created_at, updated_at)
VALUES (:id, :calendar_id, :booker_name, :booker_email, :start_time, :end_time, :title, :description, :status, :google_meet_link, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, meeting); err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	return nil
}

// GetByID fetches a meeting.
func (r *MeetingRepository) GetByID(ctx context.Context, id string) (*models.Meeting, error) {
	query := fmt.Sprintf(`SELECT %s FROM meetings WHERE id = $1 LIMIT 1`, meetingColumns)
	var meeting models.Meeting
	if err := r.db.GetContext(ctx, &meeting, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	return &meeting, nil
}

// ListByCalendar returns meetings for one calendar ordered by start time.
func (r *MeetingRepository) ListByCalendar(ctx context.Context, calendarID string) ([]models.Meeting, error) {
	query := fmt.Sprintf(`SELECT %s FROM meetings WHERE calendar_id = $1 ORDER BY start_time ASC`, meetingColumns)
	var meetings []models.Meeting
	if err := r.db.SelectContext(ctx, &meetings, query, calendarID); err != nil {
		return nil, fmt.Errorf("list meetings by calendar: %w", err)
	}
	return meetings, nil
}

// ListByCalendars returns meetings across several calendars ordered by
// start time, mirroring the owner dashboard view.
func (r *MeetingRepository) ListByCalendars(ctx context.Context, calendarIDs []string) ([]models.Meeting, error) {
	if len(calendarIDs) == 0 {
		return []models.Meeting{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM meetings WHERE calendar_id = ANY($1) ORDER BY start_time ASC`, meetingColumns)
	var meetings []models.Meeting
	if err := r.db.SelectContext(ctx, &meetings, query, pq.Array(calendarIDs)); err != nil {
		return nil, fmt.Errorf("list meetings by calendars: %w", err)
	}
	return meetings, nil
}

// UpdateStatus transitions a meeting's status.
func (r *MeetingRepository) UpdateStatus(ctx context.Context, id string, status models.MeetingStatus, updatedAt time.Time) error {
	const query = `UPDATE meetings SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, updatedAt); err != nil {
		return fmt.Errorf("update meeting status: %w", err)
	}
	return nil
}

// Delete removes a meeting.
func (r *MeetingRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM meetings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	return nil
}

// CancelStalePending cancels pending meetings created before the cutoff.
// Returns the number of rows affected.
func (r *MeetingRepository) CancelStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `UPDATE meetings SET status = 'cancelled', updated_at = $2 WHERE status = 'pending' AND created_at < $1`
	result, err := r.db.ExecContext(ctx, query, cutoff, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cancel stale pending meetings: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
