package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shanegiles-web/gymnastics-platform/internal/dto"
	mw "github.com/shanegiles-web/gymnastics-platform/internal/middleware"
	"github.com/shanegiles-web/gymnastics-platform/internal/service"
)

// defaultWindowDays bounds instance listings when the client gives no end date.
const defaultWindowDays = 28

type ClassHandler struct {
	classes     service.ClassService
	schedules   service.ScheduleService
	instances   service.InstanceService
	enrollments service.EnrollmentService
	templates   service.TemplateService
	now         func() time.Time
}

func NewClassHandler(
	classes service.ClassService,
	schedules service.ScheduleService,
	instances service.InstanceService,
	enrollments service.EnrollmentService,
	templates service.TemplateService,
) *ClassHandler {
	return &ClassHandler{
		classes:     classes,
		schedules:   schedules,
		instances:   instances,
		enrollments: enrollments,
		templates:   templates,
		now:         time.Now,
	}
}

// RegisterRoutes mounts the API on g, which must already authenticate requests.
func (h *ClassHandler) RegisterRoutes(g *echo.Group) {
	staff := mw.Authorize(mw.RoleAdmin, mw.RoleManager)
	admin := mw.Authorize(mw.RoleAdmin)

	classes := g.Group("/classes")
	classes.POST("", h.CreateClass, staff)
	classes.GET("", h.ListClasses)
	classes.GET("/:classId", h.GetClass)
	classes.PATCH("/:classId", h.UpdateClass, staff)
	classes.DELETE("/:classId", h.DeleteClass, admin)

	classes.POST("/:classId/schedules", h.AddSchedule, staff)
	classes.GET("/:classId/schedules", h.ListSchedules)
	classes.DELETE("/:classId/schedules/:scheduleId", h.DeleteSchedule, staff)
	classes.POST("/:classId/schedule-exceptions", h.AddException, staff)
	classes.GET("/:classId/schedules/:scheduleId/exceptions", h.ListExceptions)

	classes.POST("/:classId/generate-instances", h.GenerateInstances, staff)
	classes.GET("/:classId/instances", h.ListInstances)
	classes.GET("/:classId/calendar.ics", h.CalendarFeed)
	g.PATCH("/instances/:instanceId/status", h.UpdateInstanceStatus, mw.Authorize(mw.RoleAdmin, mw.RoleManager, mw.RoleCoach))

	classes.POST("/:classId/enrollments", h.Enroll)
	classes.GET("/:classId/enrollments", h.ListEnrollments)
	classes.DELETE("/:classId/enrollments/:studentId", h.Unenroll, staff)

	templates := g.Group("/class-templates")
	templates.POST("", h.CreateTemplate, staff)
	templates.GET("", h.ListTemplates)
	templates.POST("/:templateId/apply", h.ApplyTemplate, staff)
}

func (h *ClassHandler) CreateClass(c echo.Context) error {
	facilityID, err := mw.FacilityID(c)
	if err != nil {
		return err
	}
	var req dto.CreateClassRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	class, err := h.classes.CreateClass(c.Request().Context(), facilityID, req.ToInput())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, dto.OK(class))
}

func (h *ClassHandler) GetClass(c echo.Context) error {
	facilityID, classID, err := classScope(c)
	if err != nil {
		return err
	}
	class, err := h.classes.GetClass(c.Request().Context(), facilityID, classID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.OK(class))
}

func (h *ClassHandler) ListClasses(c echo.Context) error {
	facilityID, err := mw.FacilityID(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c)
	result, err := h.classes.ListClasses(c.Request().Context(), facilityID, page, limit)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.OK(result))
}

func (h *ClassHandler) UpdateClass(c echo.Context) error {
	facilityID, classID, err := classScope(c)
	if err != nil {
		return err
	}
	var req dto.UpdateClassRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	class, err := h.classes.UpdateClass(c.Request().Context(), facilityID, classID, req.ToPatch())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.OK(class))
}

func (h *ClassHandler) DeleteClass(c echo.Context) error {
	facilityID, classID, err := classScope(c)
	if err != nil {
		return err
	}
	if err := h.classes.DeleteClass(c.Request().Context(), facilityID, classID); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// fail turns domain errors into HTTP errors; anything else is left for the
// central handler to log and render as a 500.
func fail(err error) error {
	var domainErr *service.Error
	if errors.As(err, &domainErr) {
		return echo.NewHTTPError(mw.StatusFor(err), domainErr.Message).SetInternal(err)
	}
	return err
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	return c.Validate(req)
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func classScope(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	facilityID, err := mw.FacilityID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	classID, err := pathID(c, "classId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return facilityID, classID, nil
}

func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return page, limit
}

// dateParam reads an optional YYYY-MM-DD query parameter.
func dateParam(c echo.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := service.ParseDate(raw)
	if err != nil {
		return time.Time{}, fail(err)
	}
	return d, nil
}
