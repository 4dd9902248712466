package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Student is the local roster copy kept in sync from the student service.
type Student struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"facilityId"`
	FirstName   string         `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName    string         `gorm:"type:varchar(100);not null" json:"lastName"`
	DateOfBirth *time.Time     `gorm:"type:date" json:"dateOfBirth,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}
