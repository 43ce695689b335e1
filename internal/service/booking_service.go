package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/meetsync/meetsync-api/internal/availability"
	"github.com/meetsync/meetsync-api/internal/models"
	"github.com/meetsync/meetsync-api/internal/repository"
	appErrors "github.com/meetsync/meetsync-api/pkg/errors"
)

type ruleLoader interface {
	LoadRules(ctx context.Context, calendarID string) ([]availability.Rule, error)
}

type bookingMeetingRepository interface {
	CreateIfSlotFree(ctx context.Context, meeting *models.Meeting) error
	GetByID(ctx context.Context, id string) (*models.Meeting, error)
	UpdateStatus(ctx context.Context, id string, status models.MeetingStatus, updatedAt time.Time) error
}

type bookingCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type meetLinker interface {
	NewLink() (string, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type bookingMetrics interface {
	RecordCacheOperation(hit bool)
	RecordBooking(outcome string)
}

// BookingConfig tunes resolution bounds and cache behaviour.
type BookingConfig struct {
	HorizonDays int
	MaxDates    int
	CacheTTL    time.Duration
	MeetLinks   bool
}

// BookingService is the public booking surface: availability resolution
// for visitors and validated meeting writes.
type BookingService struct {
	calendars calendarReader
	rules     ruleLoader
	meetings  bookingMeetingRepository
	cache     bookingCache
	audit     auditWriter
	links     meetLinker
	metrics   bookingMetrics
	validator *validator.Validate
	logger    *zap.Logger
	config    BookingConfig
}

// NewBookingService constructs the service. Cache, audit and links may be nil.
func NewBookingService(calendars calendarReader, rules ruleLoader, meetings bookingMeetingRepository, cache bookingCache, audit auditWriter, links meetLinker, validate *validator.Validate, logger *zap.Logger, config BookingConfig) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.HorizonDays <= 0 {
		config.HorizonDays = availability.DefaultHorizonDays
	}
	if config.MaxDates <= 0 {
		config.MaxDates = availability.DefaultMaxDates
	}
	return &BookingService{
		calendars: calendars,
		rules:     rules,
		meetings:  meetings,
		cache:     cache,
		audit:     audit,
		links:     links,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// WithMetrics attaches an optional metrics recorder.
func (s *BookingService) WithMetrics(metrics bookingMetrics) *BookingService {
	s.metrics = metrics
	return s
}

// SubmitBookingRequest carries the visitor's slot selection and details.
type SubmitBookingRequest struct {
	Date        string  `json:"date" validate:"required"`
	StartTime   string  `json:"start_time" validate:"required"`
	EndTime     string  `json:"end_time" validate:"required"`
	Name        string  `json:"name" validate:"required,min=2"`
	Email       string  `json:"email" validate:"required,email"`
	Title       string  `json:"title" validate:"required,min=3"`
	Description *string `json:"description"`
}

// BookableDates returns up to MaxDates dates with at least one open slot,
// scanning forward from the reference date. The reference is supplied by
// the caller so resolution stays deterministic.
func (s *BookingService) BookableDates(ctx context.Context, calendarID string, reference time.Time) ([]string, error) {
	if _, err := s.publicCalendar(ctx, calendarID); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("booking:%s:dates:%s", calendarID, reference.Format(availability.DateLayout))
	var cached []string
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	rules, err := s.rules.LoadRules(ctx, calendarID)
	if err != nil {
		return nil, err
	}

	dates := availability.BookableDates(rules, reference, s.config.HorizonDays, s.config.MaxDates)
	s.cacheSet(ctx, cacheKey, dates)
	return dates, nil
}

// SlotsForDate returns the open windows on one date, in rule supply order.
func (s *BookingService) SlotsForDate(ctx context.Context, calendarID, date string) ([]availability.Slot, error) {
	if _, err := s.publicCalendar(ctx, calendarID); err != nil {
		return nil, err
	}
	normalized, err := availability.NormalizeDate(date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD")
	}

	cacheKey := fmt.Sprintf("booking:%s:slots:%s", calendarID, normalized)
	var cached []availability.Slot
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	rules, err := s.rules.LoadRules(ctx, calendarID)
	if err != nil {
		return nil, err
	}

	slots := availability.SlotsForDate(rules, normalized)
	s.cacheSet(ctx, cacheKey, slots)
	return slots, nil
}

// SubmitBooking validates the visitor's selection against freshly loaded
// rules and writes a pending meeting. Rules are re-resolved here rather
// than trusted from client state, and the occupancy check plus insert run
// atomically in the repository.
func (s *BookingService) SubmitBooking(ctx context.Context, calendarID string, req SubmitBookingRequest) (*models.Meeting, error) {
	if _, err := s.publicCalendar(ctx, calendarID); err != nil {
		return nil, err
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	date, err := availability.NormalizeDate(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD")
	}
	slot := availability.Slot{Start: req.StartTime, End: req.EndTime}
	if err := availability.ParseClock(slot.Start); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start_time, expected HH:MM")
	}
	if err := availability.ParseClock(slot.End); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end_time, expected HH:MM")
	}

	// Re-resolve with rules fetched no earlier than this submission.
	rules, err := s.rules.LoadRules(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	if !availability.HasSlot(rules, date, slot) {
		s.recordBooking("rejected")
		return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "selected slot is no longer available")
	}

	start, err := slotTimestamp(date, slot.Start)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid slot start")
	}
	end, err := slotTimestamp(date, slot.End)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid slot end")
	}

	meeting := &models.Meeting{
		CalendarID:  calendarID,
		BookerName:  req.Name,
		BookerEmail: req.Email,
		StartTime:   start,
		EndTime:     end,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.MeetingStatusPending,
	}

	if s.config.MeetLinks && s.links != nil {
		link, err := s.links.NewLink()
		if err != nil {
			s.logger.Warn("failed to generate meet link", zap.Error(err))
		} else {
			meeting.GoogleMeetLink = &link
		}
	}

	if err := s.meetings.CreateIfSlotFree(ctx, meeting); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			s.recordBooking("slot_taken")
			return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "slot was just booked by someone else")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create meeting")
	}

	s.recordBooking("created")
	return meeting, nil
}

func (s *BookingService) recordBooking(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordBooking(outcome)
	}
}

// TransitionStatus moves a meeting from pending to confirmed or cancelled.
// Only the calendar owner may transition.
func (s *BookingService) TransitionStatus(ctx context.Context, ownerID, meetingID string, next models.MeetingStatus) (*models.Meeting, error) {
	if !next.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown meeting status")
	}

	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "meeting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting")
	}

	calendar, err := s.calendars.GetByID(ctx, meeting.CalendarID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	if calendar.UserID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "meeting belongs to another user's calendar")
	}

	if !meeting.Status.CanTransitionTo(next) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot transition meeting from %s to %s", meeting.Status, next))
	}

	now := time.Now().UTC()
	if err := s.meetings.UpdateStatus(ctx, meetingID, next, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update meeting status")
	}
	meeting.Status = next
	meeting.UpdatedAt = now

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &ownerID,
			Action:     models.AuditActionMeetingStatus,
			Resource:   "meetings",
			ResourceID: &meetingID,
			NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, next)),
		}); err != nil {
			s.logger.Warn("failed to record meeting status audit log", zap.Error(err))
		}
	}

	return meeting, nil
}

func (s *BookingService) publicCalendar(ctx context.Context, calendarID string) (*models.Calendar, error) {
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
	return calendar, nil
}

func (s *BookingService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil || s.config.CacheTTL <= 0 {
		return false
	}
	if err := s.cache.Get(ctx, key, dest); err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("booking cache read failed", zap.String("key", key), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
		return false
	}
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(true)
	}
	return true
}

func (s *BookingService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || s.config.CacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.config.CacheTTL); err != nil {
		s.logger.Warn("booking cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// slotTimestamp combines a normalized date and clock value into an
// absolute timestamp on the calendar's implicit local time, stored as UTC.
func slotTimestamp(date, clock string) (time.Time, error) {
	return time.Parse("2006-01-02 15:04", fmt.Sprintf("%s %s", date, clock))
}
