package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindInvalidInput
)

// Error is a domain failure with a stable, client-visible code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error carrying the same code, so a detailed copy made by
// withDetail still satisfies errors.Is against the sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrClassNotFound      = &Error{KindNotFound, "CLASS_NOT_FOUND", "class not found"}
	ErrStudentNotFound    = &Error{KindNotFound, "STUDENT_NOT_FOUND", "student not found"}
	ErrScheduleNotFound   = &Error{KindNotFound, "SCHEDULE_NOT_FOUND", "schedule not found"}
	ErrEnrollmentNotFound = &Error{KindNotFound, "ENROLLMENT_NOT_FOUND", "no active enrollment for this student in this class"}
	ErrInstanceNotFound   = &Error{KindNotFound, "INSTANCE_NOT_FOUND", "class instance not found"}
	ErrTemplateNotFound   = &Error{KindNotFound, "TEMPLATE_NOT_FOUND", "class template not found"}

	ErrAlreadyEnrolled         = &Error{KindConflict, "ALREADY_ENROLLED", "student is already enrolled in this class"}
	ErrInvalidStatusTransition = &Error{KindConflict, "INVALID_STATUS_TRANSITION", "invalid instance status transition"}
	ErrNoSchedulesDefined      = &Error{KindInvalidInput, "NO_SCHEDULES_DEFINED", "class has no schedules defined"}
	ErrInvalidRecurrenceRule   = &Error{KindInvalidInput, "INVALID_RECURRENCE_RULE", "invalid recurrence rule"}
	ErrInvalidDateRange        = &Error{KindInvalidInput, "INVALID_DATE_RANGE", "end date must not be before start date"}
	ErrInvalidTimeRange        = &Error{KindInvalidInput, "INVALID_TIME_RANGE", "end time must be after start time"}
	ErrInvalidInput            = &Error{KindInvalidInput, "VALIDATION_ERROR", "invalid input"}
)

func withDetail(base *Error, format string, args ...any) *Error {
	return &Error{
		Kind:    base.Kind,
		Code:    base.Code,
		Message: base.Message + ": " + fmt.Sprintf(format, args...),
	}
}

// notFound maps gorm's missing-row error onto the given domain error.
func notFound(err error, domainErr *Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}

// KindOf reports the kind of a domain error, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
