package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/shanegiles-web/gymnastics-platform/internal/dto"
	"github.com/shanegiles-web/gymnastics-platform/internal/service"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeRateLimited  = "RATE_LIMIT_EXCEEDED"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrorHandler renders every error as the standard error envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := render(err)
	if status == http.StatusInternalServerError {
		log.Errorf("[HTTP] %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		log.Errorf("[HTTP] failed to write error response: %v", writeErr)
	}
}

func render(err error) (int, dto.ErrorResponse) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, dto.Fail(CodeValidation, "request validation failed", FieldErrors(verrs))
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		code := codeForStatus(he.Code)
		var domainErr *service.Error
		if he.Internal != nil && errors.As(he.Internal, &domainErr) {
			code = domainErr.Code
			msg = domainErr.Message
		}
		return he.Code, dto.Fail(code, msg, nil)
	}

	var domainErr *service.Error
	if errors.As(err, &domainErr) {
		return StatusFor(domainErr), dto.Fail(domainErr.Code, domainErr.Message, nil)
	}

	return http.StatusInternalServerError, dto.Fail(CodeInternal, http.StatusText(http.StatusInternalServerError), nil)
}

// StatusFor maps a domain error kind to its HTTP status.
func StatusFor(err error) int {
	switch service.KindOf(err) {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusInternalServerError:
		return CodeInternal
	default:
		return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}
