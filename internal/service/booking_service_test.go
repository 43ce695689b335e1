package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetsync/meetsync-api/internal/availability"
	"github.com/meetsync/meetsync-api/internal/models"
	"github.com/meetsync/meetsync-api/internal/repository"
	appErrors "github.com/meetsync/meetsync-api/pkg/errors"
)

type stubCalendarReader struct {
	calendars map[string]*models.Calendar
}

func (s *stubCalendarReader) GetByID(ctx context.Context, id string) (*models.Calendar, error) {
	if cal, ok := s.calendars[id]; ok {
		copy := *cal
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type stubRuleLoader struct {
	rules []availability.Rule
	err   error
	calls int
}

func (s *stubRuleLoader) LoadRules(ctx context.Context, calendarID string) ([]availability.Rule, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rules, nil
}

type stubMeetingStore struct {
	meetings  map[string]*models.Meeting
	createErr error
	created   []*models.Meeting
}

func (s *stubMeetingStore) CreateIfSlotFree(ctx context.Context, meeting *models.Meeting) error {
	if s.createErr != nil {
		return s.createErr
	}
	meeting.ID = "m-new"
	s.created = append(s.created, meeting)
	return nil
}

func (s *stubMeetingStore) GetByID(ctx context.Context, id string) (*models.Meeting, error) {
	if m, ok := s.meetings[id]; ok {
		copy := *m
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubMeetingStore) UpdateStatus(ctx context.Context, id string, status models.MeetingStatus, updatedAt time.Time) error {
	if m, ok := s.meetings[id]; ok {
		m.Status = status
		m.UpdatedAt = updatedAt
		return nil
	}
	return sql.ErrNoRows
}

type stubBookingCache struct {
	store map[string][]byte
	sets  int
}

func (s *stubBookingCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubBookingCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	s.store[key] = raw
	s.sets++
	return nil
}

type stubLinker struct{}

func (stubLinker) NewLink() (string, error) {
	return "https://meet.google.com/abc-defg-hij", nil
}

func mustRule(t *testing.T, rule availability.Rule, err error) availability.Rule {
	t.Helper()
	require.NoError(t, err)
	return rule
}

func newBookingFixture(t *testing.T) (*BookingService, *stubRuleLoader, *stubMeetingStore) {
	t.Helper()
	calendars := &stubCalendarReader{calendars: map[string]*models.Calendar{
		"cal-1":    {ID: "cal-1", UserID: "owner-1", Title: "Office hours", IsPublic: true},
		"cal-priv": {ID: "cal-priv", UserID: "owner-1", Title: "Private", IsPublic: false},
	}}
	weeklyRule, weeklyErr := availability.NewWeeklyRule("r1", 1, "09:00", "10:00")
	rules := &stubRuleLoader{rules: []availability.Rule{
		mustRule(t, weeklyRule, weeklyErr),
	}}
	meetings := &stubMeetingStore{meetings: map[string]*models.Meeting{}}

	svc := NewBookingService(calendars, rules, meetings, nil, nil, stubLinker{}, nil, nil, BookingConfig{
		HorizonDays: 30,
		MaxDates:    7,
		MeetLinks:   true,
	})
	return svc, rules, meetings
}

var bookingRef = time.Date(2024, 12, 1, 10, 30, 0, 0, time.UTC)

func TestBookableDatesPublicCalendar(t *testing.T) {
	svc, _, _ := newBookingFixture(t)

	dates, err := svc.BookableDates(context.Background(), "cal-1", bookingRef)
	require.NoError(t, err)
	require.NotEmpty(t, dates)
	assert.Equal(t, "2024-12-02", dates[0])
	assert.Len(t, dates, 5)
}

func TestBookableDatesPrivateCalendar(t *testing.T) {
	svc, _, _ := newBookingFixture(t)

	_, err := svc.BookableDates(context.Background(), "cal-priv", bookingRef)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", appErrors.FromError(err).Code)
}

func TestBookableDatesUnknownCalendar(t *testing.T) {
	svc, _, _ := newBookingFixture(t)

	_, err := svc.BookableDates(context.Background(), "missing", bookingRef)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestBookableDatesServedFromCache(t *testing.T) {
	svc, rules, _ := newBookingFixture(t)
	cache := &stubBookingCache{}
	svc.cache = cache
	svc.config.CacheTTL = time.Minute

	first, err := svc.BookableDates(context.Background(), "cal-1", bookingRef)
	require.NoError(t, err)
	assert.Equal(t, 1, rules.calls)
	assert.Equal(t, 1, cache.sets)

	second, err := svc.BookableDates(context.Background(), "cal-1", bookingRef)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, rules.calls)
}

func TestSlotsForDateSupplyOrder(t *testing.T) {
	svc, rules, _ := newBookingFixture(t)
	rule1, err1 := availability.NewWeeklyRule("r1", 1, "10:00", "14:00")
	rule2, err2 := availability.NewWeeklyRule("r2", 1, "09:00", "12:00")
	rules.rules = []availability.Rule{
		mustRule(t, rule1, err1),
		mustRule(t, rule2, err2),
	}

	slots, err := svc.SlotsForDate(context.Background(), "cal-1", "2024-12-02")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "10:00", slots[0].Start)
	assert.Equal(t, "09:00", slots[1].Start)
}

func TestSlotsForDateInvalidDate(t *testing.T) {
	svc, _, _ := newBookingFixture(t)

	_, err := svc.SlotsForDate(context.Background(), "cal-1", "not-a-date")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}

func validBooking() SubmitBookingRequest {
	return SubmitBookingRequest{
		Date:      "2024-12-02",
		StartTime: "09:00",
		EndTime:   "10:00",
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		Title:     "Intro call",
	}
}

func TestSubmitBooking(t *testing.T) {
	svc, _, meetings := newBookingFixture(t)

	meeting, err := svc.SubmitBooking(context.Background(), "cal-1", validBooking())
	require.NoError(t, err)
	require.Len(t, meetings.created, 1)

	assert.Equal(t, models.MeetingStatusPending, meeting.Status)
	assert.Equal(t, "cal-1", meeting.CalendarID)
	assert.Equal(t, time.Date(2024, 12, 2, 9, 0, 0, 0, time.UTC), meeting.StartTime)
	assert.Equal(t, time.Date(2024, 12, 2, 10, 0, 0, 0, time.UTC), meeting.EndTime)
	require.NotNil(t, meeting.GoogleMeetLink)
	assert.Contains(t, *meeting.GoogleMeetLink, "meet.google.com")
}

func TestSubmitBookingValidation(t *testing.T) {
	svc, _, meetings := newBookingFixture(t)

	cases := []struct {
		name   string
		mutate func(*SubmitBookingRequest)
	}{
		{"short name", func(r *SubmitBookingRequest) { r.Name = "J" }},
		{"bad email", func(r *SubmitBookingRequest) { r.Email = "not-an-email" }},
		{"short title", func(r *SubmitBookingRequest) { r.Title = "Hi" }},
		{"missing date", func(r *SubmitBookingRequest) { r.Date = "" }},
		{"bad clock", func(r *SubmitBookingRequest) { r.StartTime = "9am" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validBooking()
			tc.mutate(&req)
			_, err := svc.SubmitBooking(context.Background(), "cal-1", req)
			require.Error(t, err)
			assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
		})
	}
	assert.Empty(t, meetings.created)
}

func TestSubmitBookingSlotNotOffered(t *testing.T) {
	svc, _, meetings := newBookingFixture(t)

	req := validBooking()
	req.StartTime = "11:00"
	req.EndTime = "12:00"
	_, err := svc.SubmitBooking(context.Background(), "cal-1", req)
	require.Error(t, err)
	assert.Equal(t, "SLOT_NO_LONGER_AVAILABLE", appErrors.FromError(err).Code)
	assert.Empty(t, meetings.created)
}

func TestSubmitBookingSlotDateMismatch(t *testing.T) {
	svc, _, _ := newBookingFixture(t)

	// 2024-12-03 is a Tuesday, the rule only opens Mondays.
	req := validBooking()
	req.Date = "2024-12-03"
	_, err := svc.SubmitBooking(context.Background(), "cal-1", req)
	require.Error(t, err)
	assert.Equal(t, "SLOT_NO_LONGER_AVAILABLE", appErrors.FromError(err).Code)
}

func TestSubmitBookingRace(t *testing.T) {
	svc, _, meetings := newBookingFixture(t)
	meetings.createErr = repository.ErrSlotTaken

	_, err := svc.SubmitBooking(context.Background(), "cal-1", validBooking())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "SLOT_NO_LONGER_AVAILABLE", appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestSubmitBookingPrivateCalendar(t *testing.T) {
	svc, _, _ := newBookingFixture(t)

	_, err := svc.SubmitBooking(context.Background(), "cal-priv", validBooking())
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", appErrors.FromError(err).Code)
}

func TestTransitionStatusConfirm(t *testing.T) {
	svc, _, meetings := newBookingFixture(t)
	meetings.meetings["m1"] = &models.Meeting{ID: "m1", CalendarID: "cal-1", Status: models.MeetingStatusPending}

	meeting, err := svc.TransitionStatus(context.Background(), "owner-1", "m1", models.MeetingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.MeetingStatusConfirmed, meeting.Status)
	assert.Equal(t, models.MeetingStatusConfirmed, meetings.meetings["m1"].Status)
}

func TestTransitionStatusWrongOwner(t *testing.T) {
	svc, _, meetings := newBookingFixture(t)
	meetings.meetings["m1"] = &models.Meeting{ID: "m1", CalendarID: "cal-1", Status: models.MeetingStatusPending}

	_, err := svc.TransitionStatus(context.Background(), "intruder", "m1", models.MeetingStatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", appErrors.FromError(err).Code)
	assert.Equal(t, models.MeetingStatusPending, meetings.meetings["m1"].Status)
}

func TestTransitionStatusTerminal(t *testing.T) {
	svc, _, meetings := newBookingFixture(t)
	meetings.meetings["m1"] = &models.Meeting{ID: "m1", CalendarID: "cal-1", Status: models.MeetingStatusConfirmed}

	_, err := svc.TransitionStatus(context.Background(), "owner-1", "m1", models.MeetingStatusCancelled)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", appErrors.FromError(err).Code)
}

func TestTransitionStatusUnknownValue(t *testing.T) {
	svc, _, _ := newBookingFixture(t)

	_, err := svc.TransitionStatus(context.Background(), "owner-1", "m1", models.MeetingStatus("archived"))
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}

func TestTransitionStatusMissingMeeting(t *testing.T) {
	svc, _, _ := newBookingFixture(t)

	_, err := svc.TransitionStatus(context.Background(), "owner-1", "missing", models.MeetingStatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}
