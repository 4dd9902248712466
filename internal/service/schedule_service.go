package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"github.com/shanegiles-web/gymnastics-platform/internal/recurrence"
	"github.com/shanegiles-web/gymnastics-platform/internal/repository"
)

var (
	minDate = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

type ScheduleInput struct {
	DayOfWeek      int
	StartTime      string
	EndTime        string
	RecurrenceRule string
}

type ExceptionInput struct {
	ScheduleID  uuid.UUID
	Date        time.Time
	Reason      string
	IsCancelled mo.Option[bool]
}

type ScheduleService interface {
	AddSchedule(ctx context.Context, facilityID, classID uuid.UUID, in ScheduleInput) (*models.Schedule, error)
	ListSchedules(ctx context.Context, facilityID, classID uuid.UUID) ([]models.Schedule, error)
	DeleteSchedule(ctx context.Context, facilityID, classID, scheduleID uuid.UUID) error
	AddException(ctx context.Context, facilityID, classID uuid.UUID, in ExceptionInput) (*models.ScheduleException, error)
	ListExceptions(ctx context.Context, facilityID, classID, scheduleID uuid.UUID, from, to time.Time) ([]models.ScheduleException, error)
}

type scheduleService struct {
	classRepo     repository.ClassRepository
	scheduleRepo  repository.ScheduleRepository
	exceptionRepo repository.ExceptionRepository
}

func NewScheduleService(
	classRepo repository.ClassRepository,
	scheduleRepo repository.ScheduleRepository,
	exceptionRepo repository.ExceptionRepository,
) ScheduleService {
	return &scheduleService{
		classRepo:     classRepo,
		scheduleRepo:  scheduleRepo,
		exceptionRepo: exceptionRepo,
	}
}

// validateSchedule checks a slot before it is stored: day 0-6 (0 is Sunday),
// end after start, and a rule that parses.
func validateSchedule(in ScheduleInput) error {
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return withDetail(ErrInvalidInput, "dayOfWeek must be between 0 and 6")
	}
	if _, _, err := validateTimeRange(in.StartTime, in.EndTime); err != nil {
		return err
	}
	if _, err := recurrence.Parse(in.RecurrenceRule); err != nil {
		return withDetail(ErrInvalidRecurrenceRule, "%v", err)
	}
	return nil
}

func (s *scheduleService) AddSchedule(ctx context.Context, facilityID, classID uuid.UUID, in ScheduleInput) (*models.Schedule, error) {
	if _, err := s.classRepo.FindByID(ctx, facilityID, classID); err != nil {
		return nil, notFound(err, ErrClassNotFound)
	}
	in.RecurrenceRule = strings.TrimSpace(in.RecurrenceRule)
	if err := validateSchedule(in); err != nil {
		return nil, err
	}

	schedule := &models.Schedule{
		ClassID:        classID,
		DayOfWeek:      in.DayOfWeek,
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		RecurrenceRule: in.RecurrenceRule,
	}
	if err := s.scheduleRepo.Create(ctx, nil, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *scheduleService) ListSchedules(ctx context.Context, facilityID, classID uuid.UUID) ([]models.Schedule, error) {
	if _, err := s.classRepo.FindByID(ctx, facilityID, classID); err != nil {
		return nil, notFound(err, ErrClassNotFound)
	}
	return s.scheduleRepo.FindByClass(ctx, classID)
}

// DeleteSchedule tombstones the schedule. Instances already generated from it stay.
func (s *scheduleService) DeleteSchedule(ctx context.Context, facilityID, classID, scheduleID uuid.UUID) error {
	if _, err := s.classRepo.FindByID(ctx, facilityID, classID); err != nil {
		return notFound(err, ErrClassNotFound)
	}
	if err := s.scheduleRepo.Delete(ctx, classID, scheduleID); err != nil {
		return notFound(err, ErrScheduleNotFound)
	}
	return nil
}

// AddException records a one-off exception. Repeated writes for the same date
// are kept as separate rows.
func (s *scheduleService) AddException(ctx context.Context, facilityID, classID uuid.UUID, in ExceptionInput) (*models.ScheduleException, error) {
	if _, err := s.classRepo.FindByID(ctx, facilityID, classID); err != nil {
		return nil, notFound(err, ErrClassNotFound)
	}
	if _, err := s.scheduleRepo.FindByID(ctx, classID, in.ScheduleID); err != nil {
		return nil, notFound(err, ErrScheduleNotFound)
	}

	exception := &models.ScheduleException{
		ClassScheduleID: in.ScheduleID,
		ExceptionDate:   recurrence.DateOf(in.Date),
		Reason:          in.Reason,
		IsCancelled:     in.IsCancelled.OrElse(true),
	}
	if err := s.exceptionRepo.Create(ctx, exception); err != nil {
		return nil, err
	}
	return exception, nil
}

// ListExceptions returns the schedule's exceptions in [from, to]. A zero bound is open.
func (s *scheduleService) ListExceptions(ctx context.Context, facilityID, classID, scheduleID uuid.UUID, from, to time.Time) ([]models.ScheduleException, error) {
	if _, err := s.classRepo.FindByID(ctx, facilityID, classID); err != nil {
		return nil, notFound(err, ErrClassNotFound)
	}
	if _, err := s.scheduleRepo.FindByID(ctx, classID, scheduleID); err != nil {
		return nil, notFound(err, ErrScheduleNotFound)
	}
	if from.IsZero() {
		from = minDate
	}
	if to.IsZero() {
		to = maxDate
	}
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}
	return s.exceptionRepo.FindBySchedule(ctx, scheduleID, recurrence.DateOf(from), recurrence.DateOf(to))
}

// cancelledDates indexes exceptions by date; a date is cancelled when any of
// its exceptions is.
func cancelledDates(exceptions []models.ScheduleException) map[string]bool {
	cancelled := make(map[string]bool, len(exceptions))
	for _, ex := range exceptions {
		if ex.IsCancelled {
			cancelled[ex.ExceptionDate.UTC().Format(DateLayout)] = true
		}
	}
	return cancelled
}
