package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"github.com/shanegiles-web/gymnastics-platform/internal/repository"
	"gorm.io/datatypes"
)

type CreateClassInput struct {
	Name          string
	Description   string
	SkillLevel    models.SkillLevel
	MaxCapacity   int
	MinAgeMonths  *int
	MaxAgeMonths  *int
	CoachIDs      []uuid.UUID
	PricePerMonth float64
}

// ClassPatch holds the fields of a partial class update; absent options are left untouched.
type ClassPatch struct {
	Name          mo.Option[string]
	Description   mo.Option[string]
	SkillLevel    mo.Option[models.SkillLevel]
	MaxCapacity   mo.Option[int]
	MinAgeMonths  mo.Option[int]
	MaxAgeMonths  mo.Option[int]
	CoachIDs      mo.Option[[]uuid.UUID]
	PricePerMonth mo.Option[float64]
}

type ClassService interface {
	CreateClass(ctx context.Context, facilityID uuid.UUID, in CreateClassInput) (*models.Class, error)
	GetClass(ctx context.Context, facilityID, id uuid.UUID) (*models.Class, error)
	ListClasses(ctx context.Context, facilityID uuid.UUID, page, limit int) (*Page[models.Class], error)
	UpdateClass(ctx context.Context, facilityID, id uuid.UUID, patch ClassPatch) (*models.Class, error)
	DeleteClass(ctx context.Context, facilityID, id uuid.UUID) error
}

type classService struct {
	classRepo repository.ClassRepository
}

func NewClassService(classRepo repository.ClassRepository) ClassService {
	return &classService{classRepo: classRepo}
}

func (s *classService) CreateClass(ctx context.Context, facilityID uuid.UUID, in CreateClassInput) (*models.Class, error) {
	if in.MaxCapacity < 1 {
		return nil, withDetail(ErrInvalidInput, "maxCapacity must be at least 1")
	}
	if in.MinAgeMonths != nil && in.MaxAgeMonths != nil && *in.MinAgeMonths > *in.MaxAgeMonths {
		return nil, withDetail(ErrInvalidInput, "minAgeMonths must not exceed maxAgeMonths")
	}

	class := &models.Class{
		FacilityID:    facilityID,
		Name:          in.Name,
		Description:   in.Description,
		SkillLevel:    in.SkillLevel,
		MaxCapacity:   in.MaxCapacity,
		MinAgeMonths:  in.MinAgeMonths,
		MaxAgeMonths:  in.MaxAgeMonths,
		CoachIDs:      coachList(in.CoachIDs),
		PricePerMonth: in.PricePerMonth,
	}
	if err := s.classRepo.Create(ctx, nil, class); err != nil {
		return nil, err
	}
	return class, nil
}

func (s *classService) GetClass(ctx context.Context, facilityID, id uuid.UUID) (*models.Class, error) {
	class, err := s.classRepo.FindByID(ctx, facilityID, id)
	if err != nil {
		return nil, notFound(err, ErrClassNotFound)
	}
	return class, nil
}

func (s *classService) ListClasses(ctx context.Context, facilityID uuid.UUID, page, limit int) (*Page[models.Class], error) {
	offset, size, current := pageWindow(page, limit, DefaultPageSize)
	classes, total, err := s.classRepo.List(ctx, facilityID, offset, size)
	if err != nil {
		return nil, err
	}
	return newPage(classes, total, current, size), nil
}

// UpdateClass applies patch. Capacity changes never revisit existing
// enrollments' waitlist flags.
func (s *classService) UpdateClass(ctx context.Context, facilityID, id uuid.UUID, patch ClassPatch) (*models.Class, error) {
	current, err := s.classRepo.FindByID(ctx, facilityID, id)
	if err != nil {
		return nil, notFound(err, ErrClassNotFound)
	}

	updates := map[string]any{}
	if v, ok := patch.Name.Get(); ok {
		updates["name"] = v
	}
	if v, ok := patch.Description.Get(); ok {
		updates["description"] = v
	}
	if v, ok := patch.SkillLevel.Get(); ok {
		updates["skill_level"] = v
	}
	if v, ok := patch.MaxCapacity.Get(); ok {
		if v < 1 {
			return nil, withDetail(ErrInvalidInput, "maxCapacity must be at least 1")
		}
		updates["max_capacity"] = v
	}
	if v, ok := patch.MinAgeMonths.Get(); ok {
		updates["min_age_months"] = v
	}
	if v, ok := patch.MaxAgeMonths.Get(); ok {
		updates["max_age_months"] = v
	}
	if v, ok := patch.CoachIDs.Get(); ok {
		updates["coach_ids"] = coachList(v)
	}
	if v, ok := patch.PricePerMonth.Get(); ok {
		updates["price_per_month"] = v
	}

	minAge := patch.MinAgeMonths.OrElse(derefOr(current.MinAgeMonths, -1))
	maxAge := patch.MaxAgeMonths.OrElse(derefOr(current.MaxAgeMonths, -1))
	if minAge >= 0 && maxAge >= 0 && minAge > maxAge {
		return nil, withDetail(ErrInvalidInput, "minAgeMonths must not exceed maxAgeMonths")
	}

	if len(updates) == 0 {
		return current, nil
	}
	if err := s.classRepo.Update(ctx, facilityID, id, updates); err != nil {
		return nil, notFound(err, ErrClassNotFound)
	}
	return s.GetClass(ctx, facilityID, id)
}

func (s *classService) DeleteClass(ctx context.Context, facilityID, id uuid.UUID) error {
	if err := s.classRepo.Delete(ctx, facilityID, id); err != nil {
		return notFound(err, ErrClassNotFound)
	}
	return nil
}

func coachList(ids []uuid.UUID) datatypes.JSONSlice[uuid.UUID] {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return datatypes.NewJSONSlice(ids)
}

func derefOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
