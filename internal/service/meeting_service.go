package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/meetsync/meetsync-api/internal/models"
	appErrors "github.com/meetsync/meetsync-api/pkg/errors"
)

type meetingRepository interface {
	GetByID(ctx context.Context, id string) (*models.Meeting, error)
	ListByCalendar(ctx context.Context, calendarID string) ([]models.Meeting, error)
	ListByCalendars(ctx context.Context, calendarIDs []string) ([]models.Meeting, error)
	Delete(ctx context.Context, id string) error
}

type calendarLister interface {
	GetByID(ctx context.Context, id string) (*models.Calendar, error)
	ListIDsByUser(ctx context.Context, userID string) ([]string, error)
}

// MeetingService serves the owner's dashboard views over booked meetings.
type MeetingService struct {
	meetings  meetingRepository
	calendars calendarLister
	logger    *zap.Logger
}

func NewMeetingService(meetings meetingRepository, calendars calendarLister, logger *zap.Logger) *MeetingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeetingService{meetings: meetings, calendars: calendars, logger: logger}
}

// ListMine returns every meeting across the owner's calendars, ordered by
// start time.
func (s *MeetingService) ListMine(ctx context.Context, ownerID string) ([]models.Meeting, error) {
	ids, err := s.calendars.ListIDsByUser(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list calendars")
	}
	if len(ids) == 0 {
		return []models.Meeting{}, nil
	}
	meetings, err := s.meetings.ListByCalendars(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meetings")
	}
	return meetings, nil
}

// ListByCalendar returns the meetings on one calendar, owner only.
func (s *MeetingService) ListByCalendar(ctx context.Context, ownerID, calendarID string) ([]models.Meeting, error) {
	if _, err := s.ownedCalendar(ctx, ownerID, calendarID); err != nil {
		return nil, err
	}
	meetings, err := s.meetings.ListByCalendar(ctx, calendarID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meetings")
	}
	return meetings, nil
}

// Get returns a single meeting if the caller owns its calendar.
func (s *MeetingService) Get(ctx context.Context, ownerID, meetingID string) (*models.Meeting, error) {
	meeting, err := s.ownedMeeting(ctx, ownerID, meetingID)
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

// Delete removes a meeting record entirely. Cancelling is the usual path;
// deletion exists for cleaning up test bookings.
func (s *MeetingService) Delete(ctx context.Context, ownerID, meetingID string) error {
	if _, err := s.ownedMeeting(ctx, ownerID, meetingID); err != nil {
		return err
	}
	if err := s.meetings.Delete(ctx, meetingID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete meeting")
	}
	s.logger.Info("meeting deleted", zap.String("meeting_id", meetingID), zap.String("user_id", ownerID))
	return nil
}

func (s *MeetingService) ownedMeeting(ctx context.Context, ownerID, meetingID string) (*models.Meeting, error) {
	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "meeting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting")
	}
	if _, err := s.ownedCalendar(ctx, ownerID, meeting.CalendarID); err != nil {
		return nil, err
	}
	return meeting, nil
}

func (s *MeetingService) ownedCalendar(ctx context.Context, ownerID, calendarID string) (*models.Calendar, error) {
	calendar, err := s.calendars.GetByID(ctx, calendarID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	if calendar.UserID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "calendar belongs to another user")
	}
	return calendar, nil
}
