package handler

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shanegiles-web/gymnastics-platform/internal/calendar"
	"github.com/shanegiles-web/gymnastics-platform/internal/dto"
	mw "github.com/shanegiles-web/gymnastics-platform/internal/middleware"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"github.com/shanegiles-web/gymnastics-platform/internal/recurrence"
)

const mimeCalendar = "text/calendar; charset=utf-8"

func (h *ClassHandler) GenerateInstances(c echo.Context) error {
	facilityID, classID, err := classScope(c)
	if err != nil {
		return err
	}
	var req dto.GenerateInstancesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	start, end, err := req.Window()
	if err != nil {
		return fail(err)
	}

	result, err := h.instances.GenerateInstances(c.Request().Context(), facilityID, classID, start, end)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.OK(result))
}

func (h *ClassHandler) ListInstances(c echo.Context) error {
	facilityID, classID, err := classScope(c)
	if err != nil {
		return err
	}
	from, to, err := h.window(c)
	if err != nil {
		return err
	}

	instances, err := h.instances.ListInstances(c.Request().Context(), facilityID, classID, from, to)
	if err != nil {
		return fail(err)
	}
	if instances == nil {
		instances = []models.ClassInstance{}
	}
	return c.JSON(http.StatusOK, dto.OK(instances))
}

func (h *ClassHandler) UpdateInstanceStatus(c echo.Context) error {
	facilityID, err := mw.FacilityID(c)
	if err != nil {
		return err
	}
	instanceID, err := pathID(c, "instanceId")
	if err != nil {
		return err
	}
	var req dto.UpdateInstanceStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	instance, err := h.instances.UpdateStatus(c.Request().Context(), facilityID, instanceID, models.InstanceStatus(req.Status))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.OK(instance))
}

// CalendarFeed answers 204 when the window holds no instances.
func (h *ClassHandler) CalendarFeed(c echo.Context) error {
	facilityID, classID, err := classScope(c)
	if err != nil {
		return err
	}
	from, to, err := h.window(c)
	if err != nil {
		return err
	}

	feed, err := h.instances.CalendarFeed(c.Request().Context(), facilityID, classID, from, to)
	if err != nil {
		return fail(err)
	}

	var buf bytes.Buffer
	if err := feed.Encode(&buf); err != nil {
		if errors.Is(err, calendar.ErrEmptyFeed) {
			return c.NoContent(http.StatusNoContent)
		}
		return err
	}
	return c.Blob(http.StatusOK, mimeCalendar, buf.Bytes())
}

// window reads from/to, defaulting to today and the following weeks.
func (h *ClassHandler) window(c echo.Context) (time.Time, time.Time, error) {
	from, err := dateParam(c, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := dateParam(c, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.IsZero() {
		from = recurrence.DateOf(h.now())
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, defaultWindowDays)
	}
	return from, to, nil
}
