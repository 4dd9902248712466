package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InstanceStatus string

const (
	InstanceScheduled  InstanceStatus = "scheduled"
	InstanceInProgress InstanceStatus = "in_progress"
	InstanceCompleted  InstanceStatus = "completed"
	InstanceCancelled  InstanceStatus = "cancelled"
)

var instanceTransitions = map[InstanceStatus][]InstanceStatus{
	InstanceScheduled:  {InstanceInProgress, InstanceCompleted, InstanceCancelled},
	InstanceInProgress: {InstanceCompleted, InstanceCancelled},
}

func (s InstanceStatus) Valid() bool {
	switch s {
	case InstanceScheduled, InstanceInProgress, InstanceCompleted, InstanceCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an instance may move from s to next.
// completed and cancelled are terminal.
func (s InstanceStatus) CanTransitionTo(next InstanceStatus) bool {
	for _, allowed := range instanceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ClassInstance is one materialized occurrence of a schedule. At most one
// instance exists per (ClassScheduleID, StartDateTime).
type ClassInstance struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClassScheduleID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_instance_schedule_start" json:"classScheduleId"`
	StartDateTime       time.Time      `gorm:"not null;uniqueIndex:idx_instance_schedule_start;index" json:"startDateTime"`
	EndDateTime         time.Time      `gorm:"not null" json:"endDateTime"`
	ActualStartDateTime *time.Time     `json:"actualStartDateTime,omitempty"`
	ActualEndDateTime   *time.Time     `json:"actualEndDateTime,omitempty"`
	Status              InstanceStatus `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

func (i *ClassInstance) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}
