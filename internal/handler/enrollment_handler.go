package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shanegiles-web/gymnastics-platform/internal/dto"
)

func (h *ClassHandler) Enroll(c echo.Context) error {
	facilityID, classID, err := classScope(c)
	if err != nil {
		return err
	}
	var req dto.EnrollRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.ToInput()
	if err != nil {
		return fail(err)
	}

	enrollment, err := h.enrollments.Enroll(c.Request().Context(), facilityID, classID, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, dto.OK(enrollment))
}

func (h *ClassHandler) Unenroll(c echo.Context) error {
	facilityID, classID, err := classScope(c)
	if err != nil {
		return err
	}
	studentID, err := pathID(c, "studentId")
	if err != nil {
		return err
	}
	if err := h.enrollments.Unenroll(c.Request().Context(), facilityID, classID, studentID); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ClassHandler) ListEnrollments(c echo.Context) error {
	facilityID, classID, err := classScope(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c)
	result, err := h.enrollments.ListEnrollments(c.Request().Context(), facilityID, classID, page, limit)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.OK(result))
}
