package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TemplateSchedule is a schedule blueprint stored inside a ClassTemplate.
type TemplateSchedule struct {
	DayOfWeek      int    `json:"dayOfWeek"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
	RecurrenceRule string `json:"recurrenceRule"`
}

type ClassTemplate struct {
	ID            uuid.UUID                             `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID    uuid.UUID                             `gorm:"type:uuid;not null;index" json:"facilityId"`
	Name          string                                `gorm:"type:varchar(100);not null" json:"name"`
	Description   string                                `gorm:"type:text" json:"description,omitempty"`
	Schedules     datatypes.JSONSlice[TemplateSchedule] `gorm:"type:jsonb;not null;default:'[]'" json:"schedules"`
	SkillLevel    SkillLevel                            `gorm:"type:varchar(20);not null" json:"skillLevel"`
	MaxCapacity   int                                   `gorm:"not null" json:"maxCapacity"`
	CoachIDs      datatypes.JSONSlice[uuid.UUID]        `gorm:"type:jsonb;not null;default:'[]'" json:"coachIds"`
	PricePerMonth float64                               `gorm:"type:numeric(10,2);not null" json:"pricePerMonth"`
	CreatedAt     time.Time                             `json:"createdAt"`
	UpdatedAt     time.Time                             `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt                        `gorm:"index" json:"-"`
}

func (t *ClassTemplate) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}
