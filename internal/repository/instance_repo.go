package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InstanceRepository interface {
	CreateIfAbsent(ctx context.Context, instances []models.ClassInstance) (int64, error)
	FindByClass(ctx context.Context, classID uuid.UUID, from, to time.Time) ([]models.ClassInstance, error)
	FindByID(ctx context.Context, facilityID, id uuid.UUID) (*models.ClassInstance, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from models.InstanceStatus, updates map[string]any) (bool, error)
	StartDue(ctx context.Context, now time.Time) (int64, error)
	CompleteDue(ctx context.Context, now time.Time) (int64, error)
}

type instanceRepository struct {
	db *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) InstanceRepository {
	return &instanceRepository{db: db}
}

// CreateIfAbsent inserts instances, skipping any whose (schedule, start)
// already exists, and reports how many rows were actually inserted.
func (r *instanceRepository) CreateIfAbsent(ctx context.Context, instances []models.ClassInstance) (int64, error) {
	if len(instances) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "class_schedule_id"}, {Name: "start_date_time"}},
			DoNothing: true,
		}).
		CreateInBatches(&instances, 200)
	return res.RowsAffected, res.Error
}

// FindByClass returns the class's instances starting within [from, to).
func (r *instanceRepository) FindByClass(ctx context.Context, classID uuid.UUID, from, to time.Time) ([]models.ClassInstance, error) {
	var instances []models.ClassInstance
	if err := r.db.WithContext(ctx).
		Joins("JOIN class_schedules s ON s.id = class_instances.class_schedule_id").
		Where("s.class_id = ?", classID).
		Where("class_instances.start_date_time >= ? AND class_instances.start_date_time < ?", from, to).
		Order("class_instances.start_date_time ASC, class_instances.id ASC").
		Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}

func (r *instanceRepository) FindByID(ctx context.Context, facilityID, id uuid.UUID) (*models.ClassInstance, error) {
	var instance models.ClassInstance
	if err := r.db.WithContext(ctx).
		Joins("JOIN class_schedules s ON s.id = class_instances.class_schedule_id").
		Joins("JOIN classes c ON c.id = s.class_id AND c.deleted_at IS NULL").
		Where("c.facility_id = ? AND class_instances.id = ?", facilityID, id).
		First(&instance).Error; err != nil {
		return nil, err
	}
	return &instance, nil
}

// UpdateStatus applies updates only while the instance is still in status
// from. It reports false when another writer moved it first.
func (r *instanceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from models.InstanceStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ClassInstance{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

func (r *instanceRepository) StartDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ClassInstance{}).
		Where("status = ? AND start_date_time <= ? AND end_date_time > ?", models.InstanceScheduled, now, now).
		Updates(map[string]any{
			"status":                 models.InstanceInProgress,
			"actual_start_date_time": gorm.Expr("COALESCE(actual_start_date_time, start_date_time)"),
			"updated_at":             now,
		})
	return res.RowsAffected, res.Error
}

func (r *instanceRepository) CompleteDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ClassInstance{}).
		Where("status IN ? AND end_date_time <= ?", []models.InstanceStatus{models.InstanceScheduled, models.InstanceInProgress}, now).
		Updates(map[string]any{
			"status":                 models.InstanceCompleted,
			"actual_start_date_time": gorm.Expr("COALESCE(actual_start_date_time, start_date_time)"),
			"actual_end_date_time":   gorm.Expr("COALESCE(actual_end_date_time, end_date_time)"),
			"updated_at":             now,
		})
	return res.RowsAffected, res.Error
}
