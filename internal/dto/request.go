package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"github.com/shanegiles-web/gymnastics-platform/internal/service"
)

type CreateClassRequest struct {
	Name          string      `json:"name" validate:"required,max=255"`
	Description   string      `json:"description"`
	SkillLevel    string      `json:"skillLevel" validate:"required,oneof=beginner intermediate advanced elite"`
	MaxCapacity   int         `json:"maxCapacity" validate:"required,gt=0"`
	MinAgeMonths  *int        `json:"minAgeMonths" validate:"omitempty,min=0"`
	MaxAgeMonths  *int        `json:"maxAgeMonths" validate:"omitempty,min=0"`
	CoachIDs      []uuid.UUID `json:"coachIds"`
	PricePerMonth float64     `json:"pricePerMonth" validate:"min=0"`
}

func (r CreateClassRequest) ToInput() service.CreateClassInput {
	return service.CreateClassInput{
		Name:          r.Name,
		Description:   r.Description,
		SkillLevel:    models.SkillLevel(r.SkillLevel),
		MaxCapacity:   r.MaxCapacity,
		MinAgeMonths:  r.MinAgeMonths,
		MaxAgeMonths:  r.MaxAgeMonths,
		CoachIDs:      r.CoachIDs,
		PricePerMonth: r.PricePerMonth,
	}
}

// UpdateClassRequest is a partial update; nil fields are left unchanged.
type UpdateClassRequest struct {
	Name          *string      `json:"name" validate:"omitempty,min=1,max=255"`
	Description   *string      `json:"description"`
	SkillLevel    *string      `json:"skillLevel" validate:"omitempty,oneof=beginner intermediate advanced elite"`
	MaxCapacity   *int         `json:"maxCapacity" validate:"omitempty,gt=0"`
	MinAgeMonths  *int         `json:"minAgeMonths" validate:"omitempty,min=0"`
	MaxAgeMonths  *int         `json:"maxAgeMonths" validate:"omitempty,min=0"`
	CoachIDs      *[]uuid.UUID `json:"coachIds"`
	PricePerMonth *float64     `json:"pricePerMonth" validate:"omitempty,min=0"`
}

func (r UpdateClassRequest) ToPatch() service.ClassPatch {
	patch := service.ClassPatch{
		Name:          optional(r.Name),
		Description:   optional(r.Description),
		MaxCapacity:   optional(r.MaxCapacity),
		MinAgeMonths:  optional(r.MinAgeMonths),
		MaxAgeMonths:  optional(r.MaxAgeMonths),
		CoachIDs:      optional(r.CoachIDs),
		PricePerMonth: optional(r.PricePerMonth),
	}
	if r.SkillLevel != nil {
		patch.SkillLevel = mo.Some(models.SkillLevel(*r.SkillLevel))
	}
	return patch
}

type ScheduleRequest struct {
	DayOfWeek      *int   `json:"dayOfWeek" validate:"required,min=0,max=6"`
	StartTime      string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime        string `json:"endTime" validate:"required,datetime=15:04"`
	RecurrenceRule string `json:"recurrenceRule" validate:"required"`
}

func (r ScheduleRequest) ToInput() service.ScheduleInput {
	var day int
	if r.DayOfWeek != nil {
		day = *r.DayOfWeek
	}
	return service.ScheduleInput{
		DayOfWeek:      day,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		RecurrenceRule: r.RecurrenceRule,
	}
}

type CreateExceptionRequest struct {
	ScheduleID    string `json:"scheduleId" validate:"required,uuid"`
	ExceptionDate string `json:"exceptionDate" validate:"required,datetime=2006-01-02"`
	Reason        string `json:"reason" validate:"max=500"`
	IsCancelled   *bool  `json:"isCancelled"`
}

func (r CreateExceptionRequest) ToInput() (service.ExceptionInput, error) {
	date, err := service.ParseDate(r.ExceptionDate)
	if err != nil {
		return service.ExceptionInput{}, err
	}
	return service.ExceptionInput{
		ScheduleID:  uuid.MustParse(r.ScheduleID),
		Date:        date,
		Reason:      r.Reason,
		IsCancelled: optional(r.IsCancelled),
	}, nil
}

type GenerateInstancesRequest struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

func (r GenerateInstancesRequest) Window() (time.Time, time.Time, error) {
	start, err := service.ParseDate(r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := service.ParseDate(r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

type UpdateInstanceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled in_progress completed cancelled"`
}

type EnrollRequest struct {
	StudentID string `json:"studentId" validate:"required,uuid"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

func (r EnrollRequest) ToInput() (service.EnrollInput, error) {
	start, err := service.ParseDate(r.StartDate)
	if err != nil {
		return service.EnrollInput{}, err
	}
	in := service.EnrollInput{StudentID: uuid.MustParse(r.StudentID), StartDate: start}
	if r.EndDate != "" {
		end, err := service.ParseDate(r.EndDate)
		if err != nil {
			return service.EnrollInput{}, err
		}
		in.EndDate = mo.Some(end)
	}
	return in, nil
}

type CreateTemplateRequest struct {
	Name          string            `json:"name" validate:"required,max=255"`
	Description   string            `json:"description"`
	SkillLevel    string            `json:"skillLevel" validate:"required,oneof=beginner intermediate advanced elite"`
	MaxCapacity   int               `json:"maxCapacity" validate:"required,gt=0"`
	CoachIDs      []uuid.UUID       `json:"coachIds"`
	PricePerMonth float64           `json:"pricePerMonth" validate:"min=0"`
	Schedules     []ScheduleRequest `json:"schedules" validate:"required,min=1,dive"`
}

func (r CreateTemplateRequest) ToInput() service.TemplateInput {
	schedules := make([]service.ScheduleInput, len(r.Schedules))
	for i, s := range r.Schedules {
		schedules[i] = s.ToInput()
	}
	return service.TemplateInput{
		Name:          r.Name,
		Description:   r.Description,
		SkillLevel:    models.SkillLevel(r.SkillLevel),
		MaxCapacity:   r.MaxCapacity,
		CoachIDs:      r.CoachIDs,
		PricePerMonth: r.PricePerMonth,
		Schedules:     schedules,
	}
}

type ApplyTemplateRequest struct {
	Name          string       `json:"name" validate:"required,max=255"`
	CoachIDs      *[]uuid.UUID `json:"coachIds"`
	PricePerMonth *float64     `json:"pricePerMonth" validate:"omitempty,min=0"`
}

func (r ApplyTemplateRequest) ToInput() service.ApplyTemplateInput {
	return service.ApplyTemplateInput{
		Name:          r.Name,
		CoachIDs:      optional(r.CoachIDs),
		PricePerMonth: optional(r.PricePerMonth),
	}
}

func optional[T any](v *T) mo.Option[T] {
	if v == nil {
		return mo.None[T]()
	}
	return mo.Some(*v)
}
