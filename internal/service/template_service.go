package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"github.com/shanegiles-web/gymnastics-platform/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TemplateInput struct {
	Name          string
	Description   string
	SkillLevel    models.SkillLevel
	MaxCapacity   int
	CoachIDs      []uuid.UUID
	PricePerMonth float64
	Schedules     []ScheduleInput
}

// ApplyTemplateInput names the new class and optionally overrides template values.
type ApplyTemplateInput struct {
	Name          string
	CoachIDs      mo.Option[[]uuid.UUID]
	PricePerMonth mo.Option[float64]
}

type TemplateService interface {
	CreateTemplate(ctx context.Context, facilityID uuid.UUID, in TemplateInput) (*models.ClassTemplate, error)
	ListTemplates(ctx context.Context, facilityID uuid.UUID) ([]models.ClassTemplate, error)
	ApplyTemplate(ctx context.Context, facilityID, templateID uuid.UUID, in ApplyTemplateInput) (*models.Class, error)
}

type templateService struct {
	tx           repository.Transactor
	templateRepo repository.TemplateRepository
	classRepo    repository.ClassRepository
	scheduleRepo repository.ScheduleRepository
}

func NewTemplateService(
	tx repository.Transactor,
	templateRepo repository.TemplateRepository,
	classRepo repository.ClassRepository,
	scheduleRepo repository.ScheduleRepository,
) TemplateService {
	return &templateService{
		tx:           tx,
		templateRepo: templateRepo,
		classRepo:    classRepo,
		scheduleRepo: scheduleRepo,
	}
}

func (s *templateService) CreateTemplate(ctx context.Context, facilityID uuid.UUID, in TemplateInput) (*models.ClassTemplate, error) {
	if in.MaxCapacity < 1 {
		return nil, withDetail(ErrInvalidInput, "maxCapacity must be at least 1")
	}

	schedules := make([]models.TemplateSchedule, 0, len(in.Schedules))
	for i, sch := range in.Schedules {
		sch.RecurrenceRule = strings.TrimSpace(sch.RecurrenceRule)
		if err := validateSchedule(sch); err != nil {
			var domainErr *Error
			if errors.As(err, &domainErr) {
				return nil, withDetail(domainErr, "schedules[%d]", i)
			}
			return nil, err
		}
		schedules = append(schedules, models.TemplateSchedule{
			DayOfWeek:      sch.DayOfWeek,
			StartTime:      sch.StartTime,
			EndTime:        sch.EndTime,
			RecurrenceRule: sch.RecurrenceRule,
		})
	}

	template := &models.ClassTemplate{
		FacilityID:    facilityID,
		Name:          in.Name,
		Description:   in.Description,
		Schedules:     datatypes.NewJSONSlice(schedules),
		SkillLevel:    in.SkillLevel,
		MaxCapacity:   in.MaxCapacity,
		CoachIDs:      coachList(in.CoachIDs),
		PricePerMonth: in.PricePerMonth,
	}
	if err := s.templateRepo.Create(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *templateService) ListTemplates(ctx context.Context, facilityID uuid.UUID) ([]models.ClassTemplate, error) {
	return s.templateRepo.List(ctx, facilityID)
}

// ApplyTemplate creates a class and all of the template's schedules in one transaction.
func (s *templateService) ApplyTemplate(ctx context.Context, facilityID, templateID uuid.UUID, in ApplyTemplateInput) (*models.Class, error) {
	template, err := s.templateRepo.FindByID(ctx, facilityID, templateID)
	if err != nil {
		return nil, notFound(err, ErrTemplateNotFound)
	}

	class := &models.Class{
		FacilityID:    facilityID,
		Name:          in.Name,
		Description:   template.Description,
		SkillLevel:    template.SkillLevel,
		MaxCapacity:   template.MaxCapacity,
		CoachIDs:      coachList(in.CoachIDs.OrElse(template.CoachIDs)),
		PricePerMonth: in.PricePerMonth.OrElse(template.PricePerMonth),
	}

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.classRepo.Create(ctx, tx, class); err != nil {
			return err
		}
		class.Schedules = make([]models.Schedule, 0, len(template.Schedules))
		for _, ts := range template.Schedules {
			schedule := models.Schedule{
				ClassID:        class.ID,
				DayOfWeek:      ts.DayOfWeek,
				StartTime:      ts.StartTime,
				EndTime:        ts.EndTime,
				RecurrenceRule: ts.RecurrenceRule,
			}
			if err := s.scheduleRepo.Create(ctx, tx, &schedule); err != nil {
				return err
			}
			class.Schedules = append(class.Schedules, schedule)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return class, nil
}
