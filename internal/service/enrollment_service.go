package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/samber/mo"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"github.com/shanegiles-web/gymnastics-platform/internal/recurrence"
	"github.com/shanegiles-web/gymnastics-platform/internal/repository"
	"gorm.io/gorm"
)

const DefaultEnrollmentPageSize = 50

type EnrollInput struct {
	StudentID uuid.UUID
	StartDate time.Time
	EndDate   mo.Option[time.Time]
}

type EnrollmentService interface {
	Enroll(ctx context.Context, facilityID, classID uuid.UUID, in EnrollInput) (*models.Enrollment, error)
	Unenroll(ctx context.Context, facilityID, classID, studentID uuid.UUID) error
	ListEnrollments(ctx context.Context, facilityID, classID uuid.UUID, page, limit int) (*Page[models.Enrollment], error)
}

type enrollmentService struct {
	tx             repository.Transactor
	classRepo      repository.ClassRepository
	studentRepo    repository.StudentRepository
	enrollmentRepo repository.EnrollmentRepository
	publisher      EventPublisher
	now            func() time.Time
}

func NewEnrollmentService(
	tx repository.Transactor,
	classRepo repository.ClassRepository,
	studentRepo repository.StudentRepository,
	enrollmentRepo repository.EnrollmentRepository,
	publisher EventPublisher,
) EnrollmentService {
	return &enrollmentService{
		tx:             tx,
		classRepo:      classRepo,
		studentRepo:    studentRepo,
		enrollmentRepo: enrollmentRepo,
		publisher:      publisher,
		now:            time.Now,
	}
}

// Enroll allocates the next position in the class. The student is waitlisted
// when that position exceeds the class capacity at this moment; the flag is
// never recomputed afterwards.
func (s *enrollmentService) Enroll(ctx context.Context, facilityID, classID uuid.UUID, in EnrollInput) (*models.Enrollment, error) {
	startDate := recurrence.DateOf(in.StartDate)
	var endDate *time.Time
	if v, ok := in.EndDate.Get(); ok {
		d := recurrence.DateOf(v)
		if d.Before(startDate) {
			return nil, ErrInvalidDateRange
		}
		endDate = &d
	}

	var result *models.Enrollment

	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		// 1. Lock the class row; concurrent enrollments for the class queue here
		class, err := s.classRepo.FindByIDForUpdate(ctx, tx, facilityID, classID)
		if err != nil {
			return notFound(err, ErrClassNotFound)
		}

		// 2. Student must belong to the same facility
		if _, err := s.studentRepo.FindByID(ctx, tx, facilityID, in.StudentID); err != nil {
			return notFound(err, ErrStudentNotFound)
		}

		// 3. Reject a second active enrollment
		_, err = s.enrollmentRepo.FindActive(ctx, tx, classID, in.StudentID)
		if err == nil {
			return ErrAlreadyEnrolled
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// 4. Allocate the next position
		active, err := s.enrollmentRepo.CountActive(ctx, tx, classID)
		if err != nil {
			return err
		}
		position := int(active) + 1

		enrollment := &models.Enrollment{
			ClassID:        classID,
			StudentID:      in.StudentID,
			EnrollmentDate: s.now().UTC(),
			StartDate:      startDate,
			EndDate:        endDate,
			Status:         models.EnrollmentActive,
			Position:       position,
			IsWaitlisted:   position > class.MaxCapacity,
		}
		if err := s.enrollmentRepo.Create(ctx, tx, enrollment); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyEnrolled
			}
			return err
		}
		result = enrollment
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("[Enrollment] student %s enrolled in class %s at position %d (waitlisted=%t)",
		result.StudentID, classID, result.Position, result.IsWaitlisted)
	publish(s.publisher, RoutingEnrollmentCreated, EnrollmentEvent{
		FacilityID:   facilityID,
		ClassID:      classID,
		StudentID:    result.StudentID,
		EnrollmentID: result.ID,
		Position:     result.Position,
		IsWaitlisted: result.IsWaitlisted,
		OccurredAt:   result.EnrollmentDate,
	})
	return result, nil
}

// Unenroll cancels and tombstones the active enrollment. Other enrollments
// keep their positions.
func (s *enrollmentService) Unenroll(ctx context.Context, facilityID, classID, studentID uuid.UUID) error {
	var cancelled *models.Enrollment

	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.classRepo.FindByIDForUpdate(ctx, tx, facilityID, classID); err != nil {
			return notFound(err, ErrClassNotFound)
		}

		enrollment, err := s.enrollmentRepo.FindActive(ctx, tx, classID, studentID)
		if err != nil {
			return notFound(err, ErrEnrollmentNotFound)
		}

		if err := s.enrollmentRepo.Cancel(ctx, tx, enrollment.ID); err != nil {
			return notFound(err, ErrEnrollmentNotFound)
		}
		cancelled = enrollment
		return nil
	})
	if err != nil {
		return err
	}

	publish(s.publisher, RoutingEnrollmentCanceled, EnrollmentEvent{
		FacilityID:   facilityID,
		ClassID:      classID,
		StudentID:    studentID,
		EnrollmentID: cancelled.ID,
		IsWaitlisted: cancelled.IsWaitlisted,
		OccurredAt:   s.now().UTC(),
	})
	return nil
}

func (s *enrollmentService) ListEnrollments(ctx context.Context, facilityID, classID uuid.UUID, page, limit int) (*Page[models.Enrollment], error) {
	if _, err := s.classRepo.FindByID(ctx, facilityID, classID); err != nil {
		return nil, notFound(err, ErrClassNotFound)
	}
	offset, size, current := pageWindow(page, limit, DefaultEnrollmentPageSize)
	enrollments, total, err := s.enrollmentRepo.ListByClass(ctx, classID, offset, size)
	if err != nil {
		return nil, err
	}
	return newPage(enrollments, total, current, size), nil
}
