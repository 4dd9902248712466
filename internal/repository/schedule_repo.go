package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"gorm.io/gorm"
)

type ScheduleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, schedule *models.Schedule) error
	FindByID(ctx context.Context, classID, id uuid.UUID) (*models.Schedule, error)
	FindByClass(ctx context.Context, classID uuid.UUID) ([]models.Schedule, error)
	Delete(ctx context.Context, classID, id uuid.UUID) error
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(ctx context.Context, tx *gorm.DB, schedule *models.Schedule) error {
	return conn(r.db, tx).WithContext(ctx).Create(schedule).Error
}

func (r *scheduleRepository) FindByID(ctx context.Context, classID, id uuid.UUID) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := r.db.WithContext(ctx).
		Where("class_id = ? AND id = ?", classID, id).
		First(&schedule).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) FindByClass(ctx context.Context, classID uuid.UUID) ([]models.Schedule, error) {
	var schedules []models.Schedule
	if err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("day_of_week ASC, start_time ASC, id ASC").
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) Delete(ctx context.Context, classID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("class_id = ? AND id = ?", classID, id).
		Delete(&models.Schedule{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type ExceptionRepository interface {
	Create(ctx context.Context, exception *models.ScheduleException) error
	FindBySchedule(ctx context.Context, scheduleID uuid.UUID, from, to time.Time) ([]models.ScheduleException, error)
}

type exceptionRepository struct {
	db *gorm.DB
}

func NewExceptionRepository(db *gorm.DB) ExceptionRepository {
	return &exceptionRepository{db: db}
}

// Create always inserts; two writes for the same date are two rows.
func (r *exceptionRepository) Create(ctx context.Context, exception *models.ScheduleException) error {
	return r.db.WithContext(ctx).Create(exception).Error
}

// FindBySchedule returns the exceptions dated within [from, to], inclusive.
func (r *exceptionRepository) FindBySchedule(ctx context.Context, scheduleID uuid.UUID, from, to time.Time) ([]models.ScheduleException, error) {
	var exceptions []models.ScheduleException
	if err := r.db.WithContext(ctx).
		Where("class_schedule_id = ? AND exception_date BETWEEN ? AND ?", scheduleID, from.Format(dateLayout), to.Format(dateLayout)).
		Order("exception_date ASC, created_at ASC").
		Find(&exceptions).Error; err != nil {
		return nil, err
	}
	return exceptions, nil
}
