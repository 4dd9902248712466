package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Facility struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	TimeZone  string    `gorm:"type:varchar(64);not null;default:'America/New_York'" json:"timeZone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (f *Facility) BeforeCreate(tx *gorm.DB) error {
	assignID(&f.ID)
	return nil
}

// Location returns the facility's time zone, or fallback when it is unset or unknown.
func (f *Facility) Location(fallback *time.Location) *time.Location {
	if f != nil && f.TimeZone != "" {
		if loc, err := time.LoadLocation(f.TimeZone); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.UTC
	}
	return fallback
}
