package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillElite        SkillLevel = "elite"
)

type Class struct {
	ID            uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID    uuid.UUID                      `gorm:"type:uuid;not null;index" json:"facilityId"`
	Name          string                         `gorm:"type:varchar(100);not null" json:"name"`
	Description   string                         `gorm:"type:text" json:"description,omitempty"`
	SkillLevel    SkillLevel                     `gorm:"type:varchar(20);not null" json:"skillLevel"`
	MaxCapacity   int                            `gorm:"not null" json:"maxCapacity"`
	MinAgeMonths  *int                           `json:"minAgeMonths,omitempty"`
	MaxAgeMonths  *int                           `json:"maxAgeMonths,omitempty"`
	CoachIDs      datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb;not null;default:'[]'" json:"coachIds"`
	PricePerMonth float64                        `gorm:"type:numeric(10,2);not null" json:"pricePerMonth"`
	CreatedAt     time.Time                      `json:"createdAt"`
	UpdatedAt     time.Time                      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt                 `gorm:"index" json:"-"`

	Schedules []Schedule `gorm:"foreignKey:ClassID" json:"schedules,omitempty"`
}

func (c *Class) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}
