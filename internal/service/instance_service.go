package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/shanegiles-web/gymnastics-platform/internal/calendar"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"github.com/shanegiles-web/gymnastics-platform/internal/recurrence"
	"github.com/shanegiles-web/gymnastics-platform/internal/repository"
	"gorm.io/gorm"
)

type SkippedSchedule struct {
	ScheduleID uuid.UUID `json:"scheduleId"`
	Reason     string    `json:"reason"`
}

type GenerationResult struct {
	InstancesCreated int64             `json:"instancesCreated"`
	SkippedSchedules []SkippedSchedule `json:"skippedSchedules"`
}

type InstanceService interface {
	GenerateInstances(ctx context.Context, facilityID, classID uuid.UUID, start, end time.Time) (*GenerationResult, error)
	ListInstances(ctx context.Context, facilityID, classID uuid.UUID, from, to time.Time) ([]models.ClassInstance, error)
	UpdateStatus(ctx context.Context, facilityID, instanceID uuid.UUID, next models.InstanceStatus) (*models.ClassInstance, error)
	AdvanceStatuses(ctx context.Context, now time.Time) (started, completed int64, err error)
	CalendarFeed(ctx context.Context, facilityID, classID uuid.UUID, from, to time.Time) (*calendar.Feed, error)
}

type instanceService struct {
	classRepo     repository.ClassRepository
	scheduleRepo  repository.ScheduleRepository
	exceptionRepo repository.ExceptionRepository
	instanceRepo  repository.InstanceRepository
	facilityRepo  repository.FacilityRepository
	expander      *recurrence.Expander
	publisher     EventPublisher
	defaultLoc    *time.Location
	now           func() time.Time
}

func NewInstanceService(
	classRepo repository.ClassRepository,
	scheduleRepo repository.ScheduleRepository,
	exceptionRepo repository.ExceptionRepository,
	instanceRepo repository.InstanceRepository,
	facilityRepo repository.FacilityRepository,
	publisher EventPublisher,
	defaultLoc *time.Location,
) InstanceService {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &instanceService{
		classRepo:     classRepo,
		scheduleRepo:  scheduleRepo,
		exceptionRepo: exceptionRepo,
		instanceRepo:  instanceRepo,
		facilityRepo:  facilityRepo,
		expander:      recurrence.NewExpander(),
		publisher:     publisher,
		defaultLoc:    defaultLoc,
		now:           time.Now,
	}
}

// GenerateInstances materializes every schedule of the class over the
// calendar dates [start, end]. Re-running over an overlapping window only
// inserts instances that do not exist yet.
func (s *instanceService) GenerateInstances(ctx context.Context, facilityID, classID uuid.UUID, start, end time.Time) (*GenerationResult, error) {
	start, end = recurrence.DateOf(start), recurrence.DateOf(end)
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}
	if end.Sub(start) >= maxGenerationDays*24*time.Hour {
		return nil, withDetail(ErrInvalidDateRange, "window may span at most %d days", maxGenerationDays)
	}

	if _, err := s.classRepo.FindByID(ctx, facilityID, classID); err != nil {
		return nil, notFound(err, ErrClassNotFound)
	}
	schedules, err := s.scheduleRepo.FindByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, ErrNoSchedulesDefined
	}

	loc, err := s.location(ctx, facilityID)
	if err != nil {
		return nil, err
	}

	result := &GenerationResult{SkippedSchedules: []SkippedSchedule{}}
	for _, schedule := range schedules {
		instances, err := s.materialize(ctx, schedule, start, end, loc)
		if err != nil {
			var domainErr *Error
			if !errors.As(err, &domainErr) {
				return nil, err
			}
			log.Warnf("[Materializer] skipping schedule %s of class %s: %v", schedule.ID, classID, err)
			result.SkippedSchedules = append(result.SkippedSchedules, SkippedSchedule{
				ScheduleID: schedule.ID,
				Reason:     err.Error(),
			})
			continue
		}

		created, err := s.instanceRepo.CreateIfAbsent(ctx, instances)
		if err != nil {
			return nil, fmt.Errorf("persist instances for schedule %s: %w", schedule.ID, err)
		}
		result.InstancesCreated += created
	}

	log.Infof("[Materializer] class %s %s..%s: %d created, %d schedules skipped",
		classID, start.Format(DateLayout), end.Format(DateLayout), result.InstancesCreated, len(result.SkippedSchedules))

	if result.InstancesCreated > 0 {
		publish(s.publisher, RoutingInstancesGenerated, InstancesGeneratedEvent{
			FacilityID:       facilityID,
			ClassID:          classID,
			StartDate:        start.Format(DateLayout),
			EndDate:          end.Format(DateLayout),
			InstancesCreated: result.InstancesCreated,
			OccurredAt:       s.now().UTC(),
		})
	}
	return result, nil
}

// materialize builds, but does not store, the instances of one schedule.
// Domain errors mean the schedule itself is unusable.
func (s *instanceService) materialize(ctx context.Context, schedule models.Schedule, start, end time.Time, loc *time.Location) ([]models.ClassInstance, error) {
	startMin, endMin, err := validateTimeRange(schedule.StartTime, schedule.EndTime)
	if err != nil {
		return nil, err
	}
	dates, err := s.expander.ExpandOnWeekday(schedule.RecurrenceRule, time.Weekday(schedule.DayOfWeek), start, end)
	if err != nil {
		return nil, withDetail(ErrInvalidRecurrenceRule, "%v", err)
	}
	if len(dates) == 0 {
		return nil, nil
	}

	exceptions, err := s.exceptionRepo.FindBySchedule(ctx, schedule.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load exceptions for schedule %s: %w", schedule.ID, err)
	}
	cancelled := cancelledDates(exceptions)

	instances := make([]models.ClassInstance, 0, len(dates))
	for _, date := range dates {
		if cancelled[date.Format(DateLayout)] {
			continue
		}
		instances = append(instances, models.ClassInstance{
			ClassScheduleID: schedule.ID,
			StartDateTime:   at(date, startMin, loc).UTC(),
			EndDateTime:     at(date, endMin, loc).UTC(),
			Status:          models.InstanceScheduled,
		})
	}
	return instances, nil
}

// location resolves the facility's zone, falling back to the configured default.
func (s *instanceService) location(ctx context.Context, facilityID uuid.UUID) (*time.Location, error) {
	facility, err := s.facilityRepo.FindByID(ctx, facilityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.defaultLoc, nil
		}
		return nil, err
	}
	return facility.Location(s.defaultLoc), nil
}

// ListInstances returns instances starting on the facility-local dates [from, to].
func (s *instanceService) ListInstances(ctx context.Context, facilityID, classID uuid.UUID, from, to time.Time) ([]models.ClassInstance, error) {
	from, to = recurrence.DateOf(from), recurrence.DateOf(to)
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}
	if _, err := s.classRepo.FindByID(ctx, facilityID, classID); err != nil {
		return nil, notFound(err, ErrClassNotFound)
	}
	loc, err := s.location(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	return s.instanceRepo.FindByClass(ctx, classID, at(from, 0, loc), at(to.AddDate(0, 0, 1), 0, loc))
}

func (s *instanceService) UpdateStatus(ctx context.Context, facilityID, instanceID uuid.UUID, next models.InstanceStatus) (*models.ClassInstance, error) {
	if !next.Valid() {
		return nil, withDetail(ErrInvalidInput, "unknown status %q", next)
	}
	instance, err := s.instanceRepo.FindByID(ctx, facilityID, instanceID)
	if err != nil {
		return nil, notFound(err, ErrInstanceNotFound)
	}
	if !instance.Status.CanTransitionTo(next) {
		return nil, withDetail(ErrInvalidStatusTransition, "%s -> %s", instance.Status, next)
	}

	now := s.now().UTC()
	updates := map[string]any{"status": next, "updated_at": now}
	switch next {
	case models.InstanceInProgress:
		if instance.ActualStartDateTime == nil {
			updates["actual_start_date_time"] = now
			instance.ActualStartDateTime = &now
		}
	case models.InstanceCompleted:
		updates["actual_end_date_time"] = now
		instance.ActualEndDateTime = &now
	}

	ok, err := s.instanceRepo.UpdateStatus(ctx, instance.ID, instance.Status, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, withDetail(ErrInvalidStatusTransition, "instance status changed concurrently")
	}
	instance.Status = next
	instance.UpdatedAt = now
	return instance, nil
}

// AdvanceStatuses completes instances that have ended and starts those under way.
func (s *instanceService) AdvanceStatuses(ctx context.Context, now time.Time) (int64, int64, error) {
	completed, err := s.instanceRepo.CompleteDue(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("complete due instances: %w", err)
	}
	started, err := s.instanceRepo.StartDue(ctx, now)
	if err != nil {
		return 0, completed, fmt.Errorf("start due instances: %w", err)
	}
	return started, completed, nil
}

func (s *instanceService) CalendarFeed(ctx context.Context, facilityID, classID uuid.UUID, from, to time.Time) (*calendar.Feed, error) {
	class, err := s.classRepo.FindByID(ctx, facilityID, classID)
	if err != nil {
		return nil, notFound(err, ErrClassNotFound)
	}
	instances, err := s.ListInstances(ctx, facilityID, classID, from, to)
	if err != nil {
		return nil, err
	}
	return &calendar.Feed{
		ClassName: class.Name,
		Instances: instances,
		Generated: s.now(),
	}, nil
}
