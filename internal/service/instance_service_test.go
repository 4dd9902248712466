package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type instanceFixture struct {
	facilityID uuid.UUID
	class      models.Class
	schedules  *mockScheduleRepo
	exceptions *mockExceptionRepo
	instances  *mockInstanceRepo
	publisher  *mockPublisher
	svc        *instanceService
}

var fixedNow = time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

func newInstanceFixture(t *testing.T, schedules ...models.Schedule) *instanceFixture {
	t.Helper()
	facilityID := uuid.New()
	class := models.Class{ID: uuid.New(), FacilityID: facilityID, Name: "Tumbling Tots", MaxCapacity: 8}
	for i := range schedules {
		if schedules[i].ID == uuid.Nil {
			schedules[i].ID = uuid.New()
		}
		schedules[i].ClassID = class.ID
	}

	f := &instanceFixture{
		facilityID: facilityID,
		class:      class,
		schedules:  &mockScheduleRepo{schedules: schedules},
		exceptions: &mockExceptionRepo{},
		instances:  newMockInstanceRepo(),
		publisher:  &mockPublisher{},
	}
	facilities := &mockFacilityRepo{facilities: map[uuid.UUID]models.Facility{
		facilityID: {ID: facilityID, Name: "North", TimeZone: "America/New_York"},
	}}
	svc := NewInstanceService(newMockClassRepo(class), f.schedules, f.exceptions, f.instances, facilities, f.publisher, time.UTC).(*instanceService)
	svc.now = func() time.Time { return fixedNow }
	f.svc = svc
	return f
}

func mondayMorning() models.Schedule {
	return models.Schedule{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", RecurrenceRule: "FREQ=WEEKLY;BYDAY=MO"}
}

func utc(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestGenerateInstances_WeeklyInFacilityZone(t *testing.T) {
	f := newInstanceFixture(t, mondayMorning())

	result, err := f.svc.GenerateInstances(context.Background(), f.facilityID, f.class.ID, mustDate("2026-01-05"), mustDate("2026-01-26"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.InstancesCreated)
	assert.Empty(t, result.SkippedSchedules)

	all := f.instances.all()
	require.Len(t, all, 4)
	for i, want := range []int{5, 12, 19, 26} {
		// 09:00 New York in January is 14:00 UTC
		assert.Equal(t, utc(2026, 1, want, 14, 0), all[i].StartDateTime)
		assert.Equal(t, utc(2026, 1, want, 15, 0), all[i].EndDateTime)
		assert.Equal(t, models.InstanceScheduled, all[i].Status)
		assert.Equal(t, f.schedules.schedules[0].ID, all[i].ClassScheduleID)
	}

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, RoutingInstancesGenerated, f.publisher.events[0].routingKey)
	event := f.publisher.events[0].payload.(InstancesGeneratedEvent)
	assert.Equal(t, int64(4), event.InstancesCreated)
	assert.Equal(t, "2026-01-05", event.StartDate)
}

func TestGenerateInstances_DaylightSaving(t *testing.T) {
	f := newInstanceFixture(t, models.Schedule{DayOfWeek: 1, StartTime: "17:30", EndTime: "18:45", RecurrenceRule: "FREQ=WEEKLY;BYDAY=MO"})

	_, err := f.svc.GenerateInstances(context.Background(), f.facilityID, f.class.ID, mustDate("2026-03-02"), mustDate("2026-03-09"))
	require.NoError(t, err)

	all := f.instances.all()
	require.Len(t, all, 2)
	assert.Equal(t, utc(2026, 3, 2, 22, 30), all[0].StartDateTime)
	// clocks moved forward on 2026-03-08
	assert.Equal(t, utc(2026, 3, 9, 21, 30), all[1].StartDateTime)
}

func TestGenerateInstances_Idempotent(t *testing.T) {
	f := newInstanceFixture(t, mondayMorning())
	ctx := context.Background()

	_, err := f.svc.GenerateInstances(ctx, f.facilityID, f.class.ID, mustDate("2026-01-05"), mustDate("2026-01-26"))
	require.NoError(t, err)

	again, err := f.svc.GenerateInstances(ctx, f.facilityID, f.class.ID, mustDate("2026-01-05"), mustDate("2026-01-26"))
	require.NoError(t, err)
	assert.Zero(t, again.InstancesCreated)
	assert.Len(t, f.instances.rows, 4)
	assert.Len(t, f.publisher.events, 1)

	// an overlapping window only adds what is new
	wider, err := f.svc.GenerateInstances(ctx, f.facilityID, f.class.ID, mustDate("2026-01-19"), mustDate("2026-02-09"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), wider.InstancesCreated)
	assert.Len(t, f.instances.rows, 6)
}

func TestGenerateInstances_SkipsCancelledDates(t *testing.T) {
	f := newInstanceFixture(t, mondayMorning())
	scheduleID := f.schedules.schedules[0].ID
	f.exceptions.exceptions = []models.ScheduleException{
		{ID: uuid.New(), ClassScheduleID: scheduleID, ExceptionDate: mustDate("2026-01-19"), Reason: "MLK Day", IsCancelled: true},
		{ID: uuid.New(), ClassScheduleID: scheduleID, ExceptionDate: mustDate("2026-01-12"), Reason: "coach swap", IsCancelled: false},
	}

	result, err := f.svc.GenerateInstances(context.Background(), f.facilityID, f.class.ID, mustDate("2026-01-05"), mustDate("2026-01-26"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.InstancesCreated)

	for _, inst := range f.instances.all() {
		assert.NotEqual(t, 19, inst.StartDateTime.Day())
	}
}

func TestGenerateInstances_BadScheduleIsSkipped(t *testing.T) {
	broken := models.Schedule{ID: uuid.New(), DayOfWeek: 3, StartTime: "16:00", EndTime: "17:00", RecurrenceRule: "EVERY WEDNESDAY"}
	backwards := models.Schedule{ID: uuid.New(), DayOfWeek: 4, StartTime: "17:00", EndTime: "16:00", RecurrenceRule: "FREQ=WEEKLY;BYDAY=TH"}
	f := newInstanceFixture(t, mondayMorning(), broken, backwards)

	result, err := f.svc.GenerateInstances(context.Background(), f.facilityID, f.class.ID, mustDate("2026-01-05"), mustDate("2026-01-26"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.InstancesCreated)

	require.Len(t, result.SkippedSchedules, 2)
	assert.Equal(t, broken.ID, result.SkippedSchedules[0].ScheduleID)
	assert.Contains(t, result.SkippedSchedules[0].Reason, "invalid recurrence rule")
	assert.Equal(t, backwards.ID, result.SkippedSchedules[1].ScheduleID)
	assert.Contains(t, result.SkippedSchedules[1].Reason, "end time must be after start time")
}

func TestGenerateInstances_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no schedules", func(t *testing.T) {
		f := newInstanceFixture(t)
		_, err := f.svc.GenerateInstances(ctx, f.facilityID, f.class.ID, mustDate("2026-01-05"), mustDate("2026-01-26"))
		assert.ErrorIs(t, err, ErrNoSchedulesDefined)
	})

	t.Run("end before start", func(t *testing.T) {
		f := newInstanceFixture(t, mondayMorning())
		_, err := f.svc.GenerateInstances(ctx, f.facilityID, f.class.ID, mustDate("2026-01-26"), mustDate("2026-01-05"))
		assert.ErrorIs(t, err, ErrInvalidDateRange)
		assert.Empty(t, f.instances.rows)
	})

	t.Run("window too wide", func(t *testing.T) {
		f := newInstanceFixture(t, mondayMorning())
		_, err := f.svc.GenerateInstances(ctx, f.facilityID, f.class.ID, mustDate("2026-01-01"), mustDate("2027-06-01"))
		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})

	t.Run("unknown class", func(t *testing.T) {
		f := newInstanceFixture(t, mondayMorning())
		_, err := f.svc.GenerateInstances(ctx, f.facilityID, uuid.New(), mustDate("2026-01-05"), mustDate("2026-01-26"))
		assert.ErrorIs(t, err, ErrClassNotFound)
	})

	t.Run("storage failure aborts", func(t *testing.T) {
		f := newInstanceFixture(t, mondayMorning())
		f.instances.createErr = errors.New("connection reset")
		_, err := f.svc.GenerateInstances(ctx, f.facilityID, f.class.ID, mustDate("2026-01-05"), mustDate("2026-01-26"))
		require.Error(t, err)
		assert.Equal(t, KindInternal, KindOf(err))
		assert.Empty(t, f.publisher.events)
	})

	t.Run("exception lookup failure aborts", func(t *testing.T) {
		f := newInstanceFixture(t, mondayMorning())
		f.exceptions.findErr = errors.New("timeout")
		_, err := f.svc.GenerateInstances(ctx, f.facilityID, f.class.ID, mustDate("2026-01-05"), mustDate("2026-01-26"))
		require.Error(t, err)
		assert.Equal(t, KindInternal, KindOf(err))
	})
}

func TestGenerateInstances_EmptyWindowCreatesNothing(t *testing.T) {
	f := newInstanceFixture(t, mondayMorning())

	// Tuesday through Sunday holds no Monday
	result, err := f.svc.GenerateInstances(context.Background(), f.facilityID, f.class.ID, mustDate("2026-01-06"), mustDate("2026-01-11"))
	require.NoError(t, err)
	assert.Zero(t, result.InstancesCreated)
	assert.Empty(t, f.publisher.events)
}

func TestListInstances(t *testing.T) {
	f := newInstanceFixture(t, mondayMorning())
	ctx := context.Background()
	_, err := f.svc.GenerateInstances(ctx, f.facilityID, f.class.ID, mustDate("2026-01-05"), mustDate("2026-01-26"))
	require.NoError(t, err)

	got, err := f.svc.ListInstances(ctx, f.facilityID, f.class.ID, mustDate("2026-01-12"), mustDate("2026-01-19"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, utc(2026, 1, 12, 14, 0), got[0].StartDateTime)

	_, err = f.svc.ListInstances(ctx, f.facilityID, f.class.ID, mustDate("2026-01-19"), mustDate("2026-01-12"))
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestUpdateStatus(t *testing.T) {
	f := newInstanceFixture(t, mondayMorning())
	ctx := context.Background()
	_, err := f.svc.GenerateInstances(ctx, f.facilityID, f.class.ID, mustDate("2026-01-05"), mustDate("2026-01-05"))
	require.NoError(t, err)
	inst := f.instances.all()[0]

	updated, err := f.svc.UpdateStatus(ctx, f.facilityID, inst.ID, models.InstanceInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.InstanceInProgress, updated.Status)
	require.NotNil(t, updated.ActualStartDateTime)
	assert.Equal(t, fixedNow, *updated.ActualStartDateTime)
	assert.Equal(t, fixedNow, f.instances.lastUpdates["actual_start_date_time"])

	_, err = f.svc.UpdateStatus(ctx, f.facilityID, inst.ID, models.InstanceStatus("postponed"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.UpdateStatus(ctx, f.facilityID, uuid.New(), models.InstanceCancelled)
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestUpdateStatus_RejectsInvalidTransition(t *testing.T) {
	f := newInstanceFixture(t, mondayMorning())
	ctx := context.Background()
	_, err := f.svc.GenerateInstances(ctx, f.facilityID, f.class.ID, mustDate("2026-01-05"), mustDate("2026-01-05"))
	require.NoError(t, err)

	for k, inst := range f.instances.rows {
		inst.Status = models.InstanceCompleted
		f.instances.rows[k] = inst
	}
	inst := f.instances.all()[0]

	_, err = f.svc.UpdateStatus(ctx, f.facilityID, inst.ID, models.InstanceCancelled)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Nil(t, f.instances.lastUpdates)
}

func TestUpdateStatus_LostRace(t *testing.T) {
	f := newInstanceFixture(t, mondayMorning())
	ctx := context.Background()
	_, err := f.svc.GenerateInstances(ctx, f.facilityID, f.class.ID, mustDate("2026-01-05"), mustDate("2026-01-05"))
	require.NoError(t, err)
	f.instances.updateOK = false

	_, err = f.svc.UpdateStatus(ctx, f.facilityID, f.instances.all()[0].ID, models.InstanceCancelled)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestAdvanceStatuses(t *testing.T) {
	f := newInstanceFixture(t)
	f.instances.startDue = 2
	f.instances.completeDue = 5

	started, completed, err := f.svc.AdvanceStatuses(context.Background(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, int64(2), started)
	assert.Equal(t, int64(5), completed)
	assert.Equal(t, fixedNow, f.instances.advanceCalled)
}

func TestCalendarFeed(t *testing.T) {
	f := newInstanceFixture(t, mondayMorning())
	ctx := context.Background()
	_, err := f.svc.GenerateInstances(ctx, f.facilityID, f.class.ID, mustDate("2026-01-05"), mustDate("2026-01-26"))
	require.NoError(t, err)

	feed, err := f.svc.CalendarFeed(ctx, f.facilityID, f.class.ID, mustDate("2026-01-01"), mustDate("2026-01-31"))
	require.NoError(t, err)
	assert.Equal(t, "Tumbling Tots", feed.ClassName)
	assert.Len(t, feed.Instances, 4)
	assert.Equal(t, fixedNow, feed.Generated)
}
