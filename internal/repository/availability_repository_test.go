package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetsync/meetsync-api/internal/models"
)

func TestListAvailabilitiesByCalendar(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	now := time.Now()
	day := 1
	date := "2024-12-25"
	rows := sqlmock.NewRows([]string{"id", "calendar_id", "recurring", "day_of_week", "date", "start_time", "end_time", "created_at"}).
		AddRow("r1", "cal-1", true, day, nil, "09:00", "10:00", now).
		AddRow("r2", "cal-1", false, nil, date, "14:00", "15:00", now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, calendar_id, recurring, day_of_week, date, start_time, end_time, created_at FROM availabilities WHERE calendar_id = $1 ORDER BY created_at ASC`)).
		WithArgs("cal-1").
		WillReturnRows(rows)

	rules, err := repo.ListByCalendar(context.Background(), "cal-1")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.True(t, rules[0].Recurring)
	assert.False(t, rules[1].Recurring)
	require.NotNil(t, rules[1].Date)
	assert.Equal(t, date, *rules[1].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAvailability(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec("INSERT INTO availabilities").WillReturnResult(sqlmock.NewResult(1, 1))

	day := 1
	rule := &models.AvailabilityRule{CalendarID: "cal-1", Recurring: true, DayOfWeek: &day, StartTime: "09:00", EndTime: "10:00"}
	err := repo.Create(context.Background(), rule)
	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID)
	assert.False(t, rule.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAvailability(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM availabilities WHERE id = $1`)).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "r1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
