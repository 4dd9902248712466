package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClassRef identifies a class together with its tenant.
type ClassRef struct {
	ID         uuid.UUID
	FacilityID uuid.UUID
}

type ClassRepository interface {
	Create(ctx context.Context, tx *gorm.DB, class *models.Class) error
	FindByID(ctx context.Context, facilityID, id uuid.UUID) (*models.Class, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, facilityID, id uuid.UUID) (*models.Class, error)
	List(ctx context.Context, facilityID uuid.UUID, offset, limit int) ([]models.Class, int64, error)
	Update(ctx context.Context, facilityID, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, facilityID, id uuid.UUID) error
	ListScheduled(ctx context.Context) ([]ClassRef, error)
}

type classRepository struct {
	db *gorm.DB
}

func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(ctx context.Context, tx *gorm.DB, class *models.Class) error {
	return conn(r.db, tx).WithContext(ctx).Create(class).Error
}

func (r *classRepository) FindByID(ctx context.Context, facilityID, id uuid.UUID) (*models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).
		Where("facility_id = ? AND id = ?", facilityID, id).
		First(&class).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

// FindByIDForUpdate acquires a row-level lock on the class within the given transaction.
func (r *classRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, facilityID, id uuid.UUID) (*models.Class, error) {
	var class models.Class
	if err := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("facility_id = ? AND id = ?", facilityID, id).
		First(&class).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepository) List(ctx context.Context, facilityID uuid.UUID, offset, limit int) ([]models.Class, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Class{}).Where("facility_id = ?", facilityID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var classes []models.Class
	if err := q.Order("created_at DESC, id ASC").Offset(offset).Limit(limit).Find(&classes).Error; err != nil {
		return nil, 0, err
	}
	return classes, total, nil
}

func (r *classRepository) Update(ctx context.Context, facilityID, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Class{}).
		Where("facility_id = ? AND id = ?", facilityID, id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *classRepository) Delete(ctx context.Context, facilityID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("facility_id = ? AND id = ?", facilityID, id).
		Delete(&models.Class{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListScheduled returns every live class that has at least one live schedule.
func (r *classRepository) ListScheduled(ctx context.Context) ([]ClassRef, error) {
	var refs []ClassRef
	err := r.db.WithContext(ctx).
		Model(&models.Class{}).
		Select("classes.id, classes.facility_id").
		Where("EXISTS (SELECT 1 FROM class_schedules s WHERE s.class_id = classes.id AND s.deleted_at IS NULL)").
		Order("classes.facility_id, classes.id").
		Scan(&refs).Error
	return refs, err
}
