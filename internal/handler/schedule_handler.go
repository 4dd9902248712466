package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shanegiles-web/gymnastics-platform/internal/dto"
)

func (h *ClassHandler) AddSchedule(c echo.Context) error {
	facilityID, classID, err := classScope(c)
	if err != nil {
		return err
	}
	var req dto.ScheduleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	schedule, err := h.schedules.AddSchedule(c.Request().Context(), facilityID, classID, req.ToInput())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, dto.OK(schedule))
}

func (h *ClassHandler) ListSchedules(c echo.Context) error {
	facilityID, classID, err := classScope(c)
	if err != nil {
		return err
	}
	schedules, err := h.schedules.ListSchedules(c.Request().Context(), facilityID, classID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.OK(schedules))
}

func (h *ClassHandler) DeleteSchedule(c echo.Context) error {
	facilityID, classID, err := classScope(c)
	if err != nil {
		return err
	}
	scheduleID, err := pathID(c, "scheduleId")
	if err != nil {
		return err
	}
	if err := h.schedules.DeleteSchedule(c.Request().Context(), facilityID, classID, scheduleID); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ClassHandler) AddException(c echo.Context) error {
	facilityID, classID, err := classScope(c)
	if err != nil {
		return err
	}
	var req dto.CreateExceptionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.ToInput()
	if err != nil {
		return fail(err)
	}

	exception, err := h.schedules.AddException(c.Request().Context(), facilityID, classID, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, dto.OK(exception))
}

func (h *ClassHandler) ListExceptions(c echo.Context) error {
	facilityID, classID, err := classScope(c)
	if err != nil {
		return err
	}
	scheduleID, err := pathID(c, "scheduleId")
	if err != nil {
		return err
	}
	from, err := dateParam(c, "from")
	if err != nil {
		return err
	}
	to, err := dateParam(c, "to")
	if err != nil {
		return err
	}

	exceptions, err := h.schedules.ListExceptions(c.Request().Context(), facilityID, classID, scheduleID, from, to)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.OK(exceptions))
}
