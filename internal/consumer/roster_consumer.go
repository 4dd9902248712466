package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"github.com/shanegiles-web/gymnastics-platform/internal/repository"
)

const (
	StudentCreated  = "student.created"
	StudentUpdated  = "student.updated"
	StudentDeleted  = "student.deleted"
	FacilityCreated = "facility.created"
	FacilityUpdated = "facility.updated"

	handleTimeout = 10 * time.Second
)

// errMalformed marks messages that can never be applied and must not be requeued.
var errMalformed = errors.New("malformed message")

type StudentMessage struct {
	ID          uuid.UUID `json:"id"`
	FacilityID  uuid.UUID `json:"facilityId"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	DateOfBirth string    `json:"dateOfBirth"`
}

type FacilityMessage struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	TimeZone string    `json:"timezone"`
}

// RosterConsumer mirrors students and facilities owned by other services
// into the local tables that enrollment and scheduling read.
type RosterConsumer struct {
	students   repository.StudentRepository
	facilities repository.FacilityRepository
}

func NewRosterConsumer(students repository.StudentRepository, facilities repository.FacilityRepository) *RosterConsumer {
	return &RosterConsumer{students: students, facilities: facilities}
}

func (rc *RosterConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			rc.handleMessage(msg)
		}
		log.Info("[RosterConsumer] channel closed, stopping consumer")
	}()
}

func (rc *RosterConsumer) handleMessage(msg amqp.Delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	err := rc.apply(ctx, msg.RoutingKey, msg.Body)
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.Is(err, errMalformed):
		log.Warnf("[RosterConsumer] dropping %s: %v", msg.RoutingKey, err)
		_ = msg.Nack(false, false)
	default:
		log.Errorf("[RosterConsumer] failed to apply %s, requeueing: %v", msg.RoutingKey, err)
		_ = msg.Nack(false, true)
	}
}

func (rc *RosterConsumer) apply(ctx context.Context, routingKey string, body []byte) error {
	switch routingKey {
	case StudentCreated, StudentUpdated:
		student, err := decodeStudent(body)
		if err != nil {
			return err
		}
		if err := rc.students.Upsert(ctx, student); err != nil {
			return fmt.Errorf("upsert student %s: %w", student.ID, err)
		}
		log.Infof("[RosterConsumer] synced student %s", student.ID)
		return nil

	case StudentDeleted:
		var m StudentMessage
		if err := json.Unmarshal(body, &m); err != nil || m.ID == uuid.Nil {
			return fmt.Errorf("%w: student id missing", errMalformed)
		}
		if err := rc.students.Delete(ctx, m.ID); err != nil {
			return fmt.Errorf("delete student %s: %w", m.ID, err)
		}
		log.Infof("[RosterConsumer] removed student %s", m.ID)
		return nil

	case FacilityCreated, FacilityUpdated:
		facility, err := decodeFacility(body)
		if err != nil {
			return err
		}
		if err := rc.facilities.Upsert(ctx, facility); err != nil {
			return fmt.Errorf("upsert facility %s: %w", facility.ID, err)
		}
		log.Infof("[RosterConsumer] synced facility %s (%s)", facility.ID, facility.TimeZone)
		return nil

	default:
		return fmt.Errorf("%w: unexpected routing key %q", errMalformed, routingKey)
	}
}

func decodeStudent(body []byte) (*models.Student, error) {
	var m StudentMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if m.ID == uuid.Nil || m.FacilityID == uuid.Nil {
		return nil, fmt.Errorf("%w: student and facility ids are required", errMalformed)
	}

	student := &models.Student{
		ID:         m.ID,
		FacilityID: m.FacilityID,
		FirstName:  strings.TrimSpace(m.FirstName),
		LastName:   strings.TrimSpace(m.LastName),
	}
	if m.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", m.DateOfBirth)
		if err != nil {
			return nil, fmt.Errorf("%w: dateOfBirth %q", errMalformed, m.DateOfBirth)
		}
		student.DateOfBirth = &dob
	}
	return student, nil
}

func decodeFacility(body []byte) (*models.Facility, error) {
	var m FacilityMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if m.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: facility id is required", errMalformed)
	}
	if m.TimeZone != "" {
		if _, err := time.LoadLocation(m.TimeZone); err != nil {
			return nil, fmt.Errorf("%w: unknown time zone %q", errMalformed, m.TimeZone)
		}
	}
	return &models.Facility{ID: m.ID, Name: m.Name, TimeZone: m.TimeZone}, nil
}
