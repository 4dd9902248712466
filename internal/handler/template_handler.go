package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shanegiles-web/gymnastics-platform/internal/dto"
	mw "github.com/shanegiles-web/gymnastics-platform/internal/middleware"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
)

func (h *ClassHandler) CreateTemplate(c echo.Context) error {
	facilityID, err := mw.FacilityID(c)
	if err != nil {
		return err
	}
	var req dto.CreateTemplateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	template, err := h.templates.CreateTemplate(c.Request().Context(), facilityID, req.ToInput())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, dto.OK(template))
}

func (h *ClassHandler) ListTemplates(c echo.Context) error {
	facilityID, err := mw.FacilityID(c)
	if err != nil {
		return err
	}
	templates, err := h.templates.ListTemplates(c.Request().Context(), facilityID)
	if err != nil {
		return fail(err)
	}
	if templates == nil {
		templates = []models.ClassTemplate{}
	}
	return c.JSON(http.StatusOK, dto.OK(templates))
}

func (h *ClassHandler) ApplyTemplate(c echo.Context) error {
	facilityID, err := mw.FacilityID(c)
	if err != nil {
		return err
	}
	templateID, err := pathID(c, "templateId")
	if err != nil {
		return err
	}
	var req dto.ApplyTemplateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	class, err := h.templates.ApplyTemplate(c.Request().Context(), facilityID, templateID, req.ToInput())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, dto.OK(class))
}
