package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"gorm.io/gorm"
)

type EnrollmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	FindActive(ctx context.Context, tx *gorm.DB, classID, studentID uuid.UUID) (*models.Enrollment, error)
	CountActive(ctx context.Context, tx *gorm.DB, classID uuid.UUID) (int64, error)
	Cancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ListByClass(ctx context.Context, classID uuid.UUID, offset, limit int) ([]models.Enrollment, int64, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	return conn(r.db, tx).WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepository) FindActive(ctx context.Context, tx *gorm.DB, classID, studentID uuid.UUID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := conn(r.db, tx).WithContext(ctx).
		Where("class_id = ? AND student_id = ? AND status = ?", classID, studentID, models.EnrollmentActive).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) CountActive(ctx context.Context, tx *gorm.DB, classID uuid.UUID) (int64, error) {
	var count int64
	err := conn(r.db, tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("class_id = ? AND status = ?", classID, models.EnrollmentActive).
		Count(&count).Error
	return count, err
}

// Cancel marks the enrollment cancelled and tombstones it in one statement.
func (r *enrollmentRepository) Cancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	now := time.Now()
	res := conn(r.db, tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.EnrollmentCancelled,
			"deleted_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *enrollmentRepository) ListByClass(ctx context.Context, classID uuid.UUID, offset, limit int) ([]models.Enrollment, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Enrollment{}).Where("class_id = ?", classID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var enrollments []models.Enrollment
	if err := q.Order("position ASC, created_at ASC").Offset(offset).Limit(limit).Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}
	return enrollments, total, nil
}
