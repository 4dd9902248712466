package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

const (
	RoutingInstancesGenerated = "class.instances_generated"
	RoutingEnrollmentCreated  = "enrollment.created"
	RoutingEnrollmentCanceled = "enrollment.cancelled"
)

// EventPublisher emits domain events. A nil publisher disables publishing.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

type InstancesGeneratedEvent struct {
	FacilityID       uuid.UUID `json:"facilityId"`
	ClassID          uuid.UUID `json:"classId"`
	StartDate        string    `json:"startDate"`
	EndDate          string    `json:"endDate"`
	InstancesCreated int64     `json:"instancesCreated"`
	OccurredAt       time.Time `json:"occurredAt"`
}

type EnrollmentEvent struct {
	FacilityID   uuid.UUID `json:"facilityId"`
	ClassID      uuid.UUID `json:"classId"`
	StudentID    uuid.UUID `json:"studentId"`
	EnrollmentID uuid.UUID `json:"enrollmentId"`
	Position     int       `json:"position,omitempty"`
	IsWaitlisted bool      `json:"isWaitlisted"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// publish never fails the caller; the write it describes is already committed.
func publish(pub EventPublisher, routingKey string, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(routingKey, payload); err != nil {
		log.Warnf("[Events] failed to publish %s: %v", routingKey, err)
	}
}
