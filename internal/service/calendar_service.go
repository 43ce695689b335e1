package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/meetsync/meetsync-api/internal/models"
	appErrors "github.com/meetsync/meetsync-api/pkg/errors"
)

type calendarRepository interface {
	Create(ctx context.Context, calendar *models.Calendar) error
	GetByID(ctx context.Context, id string) (*models.Calendar, error)
	ListByUser(ctx context.Context, userID string) ([]models.Calendar, error)
	Update(ctx context.Context, calendar *models.Calendar) error
	Delete(ctx context.Context, id string) error
}

type resolutionCache interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CalendarService manages owner booking pages.
type CalendarService struct {
	repo      calendarRepository
	cache     resolutionCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCalendarService constructs the service. The cache may be nil.
func NewCalendarService(repo calendarRepository, cache resolutionCache, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// CreateCalendarRequest describes the create payload.
type CreateCalendarRequest struct {
	Title       string  `json:"title" validate:"required,min=1"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
}

// UpdateCalendarRequest describes the update payload.
type UpdateCalendarRequest struct {
	Title       string  `json:"title" validate:"required,min=1"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
}

// Create registers a new calendar owned by ownerID.
func (s *CalendarService) Create(ctx context.Context, ownerID string, req CreateCalendarRequest) (*models.Calendar, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calendar payload")
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	calendar := &models.Calendar{
		UserID:      ownerID,
		Title:       req.Title,
		Description: req.Description,
		IsPublic:    isPublic,
	}
	if err := s.repo.Create(ctx, calendar); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create calendar")
	}
	return calendar, nil
}

// ListMine returns the calendars owned by the given user.
func (s *CalendarService) ListMine(ctx context.Context, ownerID string) ([]models.Calendar, error) {
	calendars, err := s.repo.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list calendars")
	}
	if calendars == nil {
		calendars = []models.Calendar{}
	}
	return calendars, nil
}

// GetOwned returns a calendar if the given user owns it.
func (s *CalendarService) GetOwned(ctx context.Context, ownerID, calendarID string) (*models.Calendar, error) {
	calendar, err := s.repo.GetByID(ctx, calendarID)
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

// GetPublic returns the visitor-facing view of a public calendar.
func (s *CalendarService) GetPublic(ctx context.Context, calendarID string) (*models.PublicCalendar, error) {
	calendar, err := s.repo.GetByID(ctx, calendarID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	if !calendar.IsPublic {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "this calendar is private")
	}
	view := calendar.Public()
	return &view, nil
}

// Update modifies an owned calendar.
func (s *CalendarService) Update(ctx context.Context, ownerID, calendarID string, req UpdateCalendarRequest) (*models.Calendar, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calendar payload")
	}

	calendar, err := s.GetOwned(ctx, ownerID, calendarID)
	if err != nil {
		return nil, err
	}

	calendar.Title = req.Title
	calendar.Description = req.Description
	if req.IsPublic != nil {
		calendar.IsPublic = *req.IsPublic
	}

	if err := s.repo.Update(ctx, calendar); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update calendar")
	}
	s.invalidateResolutionCache(ctx, calendarID)
	return calendar, nil
}

// Delete removes an owned calendar with its rules and meetings.
func (s *CalendarService) Delete(ctx context.Context, ownerID, calendarID string) error {
	if _, err := s.GetOwned(ctx, ownerID, calendarID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, calendarID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete calendar")
	}
	s.invalidateResolutionCache(ctx, calendarID)
	return nil
}

func (s *CalendarService) invalidateResolutionCache(ctx context.Context, calendarID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("booking:%s:*", calendarID)); err != nil {
		s.logger.Warn("failed to invalidate booking cache", zap.String("calendar_id", calendarID), zap.Error(err))
	}
}
