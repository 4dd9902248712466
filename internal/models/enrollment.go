package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentPaused    EnrollmentStatus = "paused"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// Enrollment links a student to a class. Position is the allocation order
// within the class and IsWaitlisted is fixed when the row is created.
type Enrollment struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ClassID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"classId"`
	StudentID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"studentId"`
	EnrollmentDate time.Time        `gorm:"not null" json:"enrollmentDate"`
	StartDate      time.Time        `gorm:"not null" json:"startDate"`
	EndDate        *time.Time       `json:"endDate,omitempty"`
	Status         EnrollmentStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Position       int              `gorm:"not null" json:"position"`
	IsWaitlisted   bool             `gorm:"not null;default:false" json:"isWaitlisted"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	return nil
}
