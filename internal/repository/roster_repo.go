package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudentRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, facilityID, id uuid.UUID) (*models.Student, error)
	Upsert(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) FindByID(ctx context.Context, tx *gorm.DB, facilityID, id uuid.UUID) (*models.Student, error) {
	var student models.Student
	if err := conn(r.db, tx).WithContext(ctx).
		Where("facility_id = ? AND id = ?", facilityID, id).
		First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

// Upsert inserts the student or refreshes it (reviving a tombstoned row) by id.
func (r *studentRepository) Upsert(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"facility_id", "first_name", "last_name", "date_of_birth", "updated_at", "deleted_at"}),
	}).Create(student).Error
}

func (r *studentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Student{}, "id = ?", id).Error
}

type FacilityRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Facility, error)
	Upsert(ctx context.Context, facility *models.Facility) error
}

type facilityRepository struct {
	db *gorm.DB
}

func NewFacilityRepository(db *gorm.DB) FacilityRepository {
	return &facilityRepository{db: db}
}

func (r *facilityRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Facility, error) {
	var facility models.Facility
	if err := r.db.WithContext(ctx).First(&facility, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &facility, nil
}

func (r *facilityRepository) Upsert(ctx context.Context, facility *models.Facility) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "time_zone", "updated_at"}),
	}).Create(facility).Error
}
