package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Schedule is a recurring weekly time slot of a class. StartTime and EndTime
// are wall-clock "HH:MM" values in the facility's time zone.
type Schedule struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClassID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"classId"`
	DayOfWeek      int            `gorm:"not null" json:"dayOfWeek"`
	StartTime      string         `gorm:"type:varchar(10);not null" json:"startTime"`
	EndTime        string         `gorm:"type:varchar(10);not null" json:"endTime"`
	RecurrenceRule string         `gorm:"type:text;not null" json:"recurrenceRule"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Schedule) TableName() string {
	return "class_schedules"
}

func (s *Schedule) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// ScheduleException suppresses or annotates one occurrence of a schedule.
// ExceptionDate is a calendar date stored at midnight UTC.
type ScheduleException struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassScheduleID uuid.UUID `gorm:"type:uuid;not null;index:idx_exception_schedule_date" json:"classScheduleId"`
	ExceptionDate   time.Time `gorm:"type:date;not null;index:idx_exception_schedule_date" json:"exceptionDate"`
	Reason          string    `gorm:"type:varchar(200)" json:"reason,omitempty"`
	IsCancelled     bool      `gorm:"not null;default:false" json:"isCancelled"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (s *ScheduleException) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}
