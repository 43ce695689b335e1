package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"go.uber.org/zap"

	"github.com/meetsync/meetsync-api/internal/models"
	appErrors "github.com/meetsync/meetsync-api/pkg/errors"
)

type feedMeetingLister interface {
	ListByCalendar(ctx context.Context, calendarID string) ([]models.Meeting, error)
}

// FeedService renders a public calendar's confirmed and pending meetings
// as an iCalendar feed for subscription in external clients.
type FeedService struct {
	calendars calendarReader
	meetings  feedMeetingLister
	logger    *zap.Logger
}

func NewFeedService(calendars calendarReader, meetings feedMeetingLister, logger *zap.Logger) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{calendars: calendars, meetings: meetings, logger: logger}
}

// CalendarFeed serialises booked meetings to ICS. Cancelled meetings are
// excluded, and booker contact details are withheld since the feed is
// reachable without authentication.
func (s *FeedService) CalendarFeed(ctx context.Context, calendarID string) ([]byte, error) {
	calendar, err := s.calendars.GetByID(ctx, calendarID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	if !calendar.IsPublic {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "this calendar is private")
	}

	meetings, err := s.meetings.ListByCalendar(ctx, calendarID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meetings")
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//MeetSync//Booking//EN")
	cal.Props.SetText("X-WR-CALNAME", calendar.Title)

	now := time.Now().UTC()
	for _, meeting := range meetings {
		if meeting.Status == models.MeetingStatusCancelled {
			continue
		}
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, fmt.Sprintf("%s@meetsync", meeting.ID))
		event.Props.SetText(ical.PropSummary, meeting.Title)
		if meeting.Description != nil && *meeting.Description != "" {
			event.Props.SetText(ical.PropDescription, *meeting.Description)
		}
		if meeting.GoogleMeetLink != nil && *meeting.GoogleMeetLink != "" {
			event.Props.SetText(ical.PropLocation, *meeting.GoogleMeetLink)
		}
		event.Props.SetDateTime(ical.PropDateTimeStart, meeting.StartTime.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, meeting.EndTime.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStamp, now)
		if meeting.Status == models.MeetingStatusConfirmed {
			event.Props.SetText(ical.PropStatus, "CONFIRMED")
		} else {
			event.Props.SetText(ical.PropStatus, "TENTATIVE")
		}
		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode calendar feed")
	}
	return buf.Bytes(), nil
}
