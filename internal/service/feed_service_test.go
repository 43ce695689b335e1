package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetsync/meetsync-api/internal/models"
	appErrors "github.com/meetsync/meetsync-api/pkg/errors"
)

type stubFeedMeetings struct {
	meetings []models.Meeting
}

func (s *stubFeedMeetings) ListByCalendar(ctx context.Context, calendarID string) ([]models.Meeting, error) {
	return s.meetings, nil
}

func newFeedFixture(meetings []models.Meeting) *FeedService {
	calendars := &stubCalendarReader{calendars: map[string]*models.Calendar{
		"cal-1":    {ID: "cal-1", UserID: "owner-1", Title: "Office hours", IsPublic: true},
		"cal-priv": {ID: "cal-priv", UserID: "owner-1", Title: "Private", IsPublic: false},
	}}
	return NewFeedService(calendars, &stubFeedMeetings{meetings: meetings}, nil)
}

func TestCalendarFeedRendersMeetings(t *testing.T) {
	start := time.Date(2024, 12, 2, 9, 0, 0, 0, time.UTC)
	link := "https://meet.google.com/abc-defg-hij"
	svc := newFeedFixture([]models.Meeting{
		{ID: "m-1", CalendarID: "cal-1", Title: "Intro call", StartTime: start, EndTime: start.Add(time.Hour), Status: models.MeetingStatusConfirmed, GoogleMeetLink: &link},
		{ID: "m-2", CalendarID: "cal-1", Title: "Pending slot", StartTime: start.Add(2 * time.Hour), EndTime: start.Add(3 * time.Hour), Status: models.MeetingStatusPending},
	})

	feed, err := svc.CalendarFeed(context.Background(), "cal-1")
	require.NoError(t, err)

	body := string(feed)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "X-WR-CALNAME:Office hours")
	assert.Contains(t, body, "UID:m-1@meetsync")
	assert.Contains(t, body, "SUMMARY:Intro call")
	assert.Contains(t, body, "LOCATION:https://meet.google.com/abc-defg-hij")
	assert.Contains(t, body, "STATUS:CONFIRMED")
	assert.Contains(t, body, "STATUS:TENTATIVE")
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"))
}

func TestCalendarFeedSkipsCancelledMeetings(t *testing.T) {
	start := time.Date(2024, 12, 2, 9, 0, 0, 0, time.UTC)
	svc := newFeedFixture([]models.Meeting{
		{ID: "m-1", CalendarID: "cal-1", Title: "Kept", StartTime: start, EndTime: start.Add(time.Hour), Status: models.MeetingStatusConfirmed},
		{ID: "m-2", CalendarID: "cal-1", Title: "Dropped", StartTime: start, EndTime: start.Add(time.Hour), Status: models.MeetingStatusCancelled},
	})

	feed, err := svc.CalendarFeed(context.Background(), "cal-1")
	require.NoError(t, err)
	body := string(feed)
	assert.Contains(t, body, "SUMMARY:Kept")
	assert.NotContains(t, body, "SUMMARY:Dropped")
}

func TestCalendarFeedWithholdsBookerContact(t *testing.T) {
	start := time.Date(2024, 12, 2, 9, 0, 0, 0, time.UTC)
	svc := newFeedFixture([]models.Meeting{
		{ID: "m-1", CalendarID: "cal-1", Title: "Call", BookerName: "Ada", BookerEmail: "ada@example.com", StartTime: start, EndTime: start.Add(time.Hour), Status: models.MeetingStatusConfirmed},
	})

	feed, err := svc.CalendarFeed(context.Background(), "cal-1")
	require.NoError(t, err)
	assert.NotContains(t, string(feed), "ada@example.com")
}

func TestCalendarFeedPrivateCalendar(t *testing.T) {
	svc := newFeedFixture(nil)

	_, err := svc.CalendarFeed(context.Background(), "cal-priv")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestCalendarFeedMissingCalendar(t *testing.T) {
	svc := newFeedFixture(nil)

	_, err := svc.CalendarFeed(context.Background(), "cal-missing")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
