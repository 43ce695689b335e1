package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/meetsync/meetsync-api/internal/availability"
	"github.com/meetsync/meetsync-api/internal/models"
	appErrors "github.com/meetsync/meetsync-api/pkg/errors"
)

type availabilityRepository interface {
	ListByCalendar(ctx context.Context, calendarID string) ([]models.AvailabilityRule, error)
	GetByID(ctx context.Context, id string) (*models.AvailabilityRule, error)
	Create(ctx context.Context, rule *models.AvailabilityRule) error
	Update(ctx context.Context, rule *models.AvailabilityRule) error
	Delete(ctx context.Context, id string) error
}

type calendarReader interface {
	GetByID(ctx context.Context, id string) (*models.Calendar, error)
}

// AvailabilityService owns the rule store: owner CRUD over stored rows and
// conversion into the resolver's tagged rule variant.
type AvailabilityService struct {
	repo      availabilityRepository
	calendars calendarReader
	cache     resolutionCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs the service. The cache may be nil.
func NewAvailabilityService(repo availabilityRepository, calendars calendarReader, cache resolutionCache, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{repo: repo, calendars: calendars, cache: cache, validator: validate, logger: logger}
}

// CreateAvailabilityRequest carries either a weekly weekday or a specific
// date, discriminated by Recurring.
type CreateAvailabilityRequest struct {
	Recurring *bool   `json:"recurring" validate:"required"`
	DayOfWeek *int    `json:"day_of_week"`
	Date      *string `json:"date"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
}

// LoadRules fetches a calendar's rules and converts them to the domain
// variant. Malformed stored rows surface as MALFORMED_RULE with the rule id.
func (s *AvailabilityService) LoadRules(ctx context.Context, calendarID string) ([]availability.Rule, error) {
	rows, err := s.repo.ListByCalendar(ctx, calendarID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability rules")
	}

	rules := make([]availability.Rule, 0, len(rows))
	for _, row := range rows {
		rule, err := toDomainRule(row)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrMalformedRule.Code, appErrors.ErrMalformedRule.Status, err.Error())
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// List returns the stored rows of an owned calendar.
func (s *AvailabilityService) List(ctx context.Context, ownerID, calendarID string) ([]models.AvailabilityRule, error) {
	if err := s.ensureOwned(ctx, ownerID, calendarID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByCalendar(ctx, calendarID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability rules")
	}
	if rows == nil {
		rows = []models.AvailabilityRule{}
	}
	return rows, nil
}

// Create validates and stores a new rule on an owned calendar.
func (s *AvailabilityService) Create(ctx context.Context, ownerID, calendarID string, req CreateAvailabilityRequest) (*models.AvailabilityRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if err := s.ensureOwned(ctx, ownerID, calendarID); err != nil {
		return nil, err
	}

	row := models.AvailabilityRule{
		CalendarID: calendarID,
		Recurring:  *req.Recurring,
		DayOfWeek:  req.DayOfWeek,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
	if err := validateRuleShape(row); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability rule")
	}
	s.invalidate(ctx, calendarID)
	return &row, nil
}

// Update rewrites an existing rule, keeping the same validations as Create.
func (s *AvailabilityService) Update(ctx context.Context, ownerID, ruleID string, req CreateAvailabilityRequest) (*models.AvailabilityRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}

	row, err := s.getOwnedRule(ctx, ownerID, ruleID)
	if err != nil {
		return nil, err
	}

	row.Recurring = *req.Recurring
	row.DayOfWeek = req.DayOfWeek
	row.Date = req.Date
	row.StartTime = req.StartTime
	row.EndTime = req.EndTime
	if err := validateRuleShape(*row); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update availability rule")
	}
	s.invalidate(ctx, row.CalendarID)
	return row, nil
}

// Delete removes a rule from an owned calendar.
func (s *AvailabilityService) Delete(ctx context.Context, ownerID, ruleID string) error {
	row, err := s.getOwnedRule(ctx, ownerID, ruleID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ruleID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability rule")
	}
	s.invalidate(ctx, row.CalendarID)
	return nil
}

func (s *AvailabilityService) ensureOwned(ctx context.Context, ownerID, calendarID string) error {
	calendar, err := s.calendars.GetByID(ctx, calendarID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "calendar not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	if calendar.UserID != ownerID {
		return appErrors.Clone(appErrors.ErrForbidden, "calendar belongs to another user")
	}
	return nil
}

func (s *AvailabilityService) getOwnedRule(ctx context.Context, ownerID, ruleID string) (*models.AvailabilityRule, error) {
	row, err := s.repo.GetByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability rule")
	}
	if err := s.ensureOwned(ctx, ownerID, row.CalendarID); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *AvailabilityService) invalidate(ctx context.Context, calendarID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("booking:%s:*", calendarID)); err != nil {
		s.logger.Warn("failed to invalidate booking cache", zap.String("calendar_id", calendarID), zap.Error(err))
	}
}

// validateRuleShape enforces the exclusive recurring/date shape and window
// order before a row reaches storage.
func validateRuleShape(row models.AvailabilityRule) error {
	if row.Recurring {
		if row.DayOfWeek == nil {
			return appErrors.Clone(appErrors.ErrValidation, "day_of_week is required for recurring rules")
		}
		if row.Date != nil {
			return appErrors.Clone(appErrors.ErrValidation, "date must be empty for recurring rules")
		}
		if _, err := availability.NewWeeklyRule(row.ID, *row.DayOfWeek, row.StartTime, row.EndTime); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		return nil
	}

	if row.Date == nil {
		return appErrors.Clone(appErrors.ErrValidation, "date is required for date-specific rules")
	}
	if row.DayOfWeek != nil {
		return appErrors.Clone(appErrors.ErrValidation, "day_of_week must be empty for date-specific rules")
	}
	if _, err := availability.NewDateRule(row.ID, *row.Date, row.StartTime, row.EndTime); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return nil
}

func toDomainRule(row models.AvailabilityRule) (availability.Rule, error) {
	if row.Recurring {
		if row.DayOfWeek == nil {
			return availability.Rule{}, &availability.MalformedRuleError{RuleID: row.ID, Reason: "recurring rule missing day_of_week"}
		}
		return availability.NewWeeklyRule(row.ID, *row.DayOfWeek, row.StartTime, row.EndTime)
	}
	if row.Date == nil {
		return availability.Rule{}, &availability.MalformedRuleError{RuleID: row.ID, Reason: "date-specific rule missing date"}
	}
	return availability.NewDateRule(row.ID, *row.Date, row.StartTime, row.EndTime)
}
