package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"gorm.io/gorm"
)

type TemplateRepository interface {
	Create(ctx context.Context, template *models.ClassTemplate) error
	FindByID(ctx context.Context, facilityID, id uuid.UUID) (*models.ClassTemplate, error)
	List(ctx context.Context, facilityID uuid.UUID) ([]models.ClassTemplate, error)
}

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, template *models.ClassTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *templateRepository) FindByID(ctx context.Context, facilityID, id uuid.UUID) (*models.ClassTemplate, error) {
	var template models.ClassTemplate
	if err := r.db.WithContext(ctx).
		Where("facility_id = ? AND id = ?", facilityID, id).
		First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) List(ctx context.Context, facilityID uuid.UUID) ([]models.ClassTemplate, error) {
	var templates []models.ClassTemplate
	if err := r.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		Order("name ASC").
		Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}
