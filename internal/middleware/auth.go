package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	RoleGlobalAdmin = "global_admin"
	RoleAdmin       = "admin"
	RoleManager     = "manager"
	RoleCoach       = "coach"
	RoleParent      = "parent"
	RoleStudent     = "student"

	claimsKey = "user"
)

var (
	errMissingToken   = echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed bearer token")
	errInvalidToken   = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	errForbidden      = echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
	errTenantMismatch = echo.NewHTTPError(http.StatusForbidden, "access to this facility is not allowed")
	errNoFacility     = echo.NewHTTPError(http.StatusForbidden, "token carries no facility")
)

// Claims is the access token payload issued by the auth service.
type Claims struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	FacilityID string `json:"facility_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate verifies the HS256 bearer token and stores its claims on the context.
func Authenticate(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authz := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			if len(authz) < 7 || !strings.EqualFold(authz[:7], "bearer ") {
				return errMissingToken
			}
			raw := strings.TrimSpace(authz[7:])
			if raw == "" {
				return errMissingToken
			}

			claims := &Claims{}
			tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return key, nil
			})
			if err != nil || !tok.Valid {
				return errInvalidToken
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// Authorize admits only the given roles. global_admin is always admitted.
func Authorize(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return errMissingToken
			}
			if claims.Role == RoleGlobalAdmin {
				return next(c)
			}
			for _, r := range roles {
				if claims.Role == r {
					return next(c)
				}
			}
			return errForbidden
		}
	}
}

// ValidateTenant rejects requests naming a facility other than the token's.
func ValidateTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return errMissingToken
			}
			if claims.Role == RoleGlobalAdmin {
				return next(c)
			}
			requested := c.QueryParam("facilityId")
			if requested == "" {
				requested = c.Param("facilityId")
			}
			if requested != "" && !strings.EqualFold(requested, claims.FacilityID) {
				return errTenantMismatch
			}
			return next(c)
		}
	}
}

func ClaimsFrom(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

// FacilityID is the tenant every request is scoped to. A global_admin may
// act on another facility through the facilityId query parameter.
func FacilityID(c echo.Context) (uuid.UUID, error) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		return uuid.Nil, errMissingToken
	}
	raw := claims.FacilityID
	if claims.Role == RoleGlobalAdmin {
		if q := c.QueryParam("facilityId"); q != "" {
			raw = q
		}
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errNoFacility
	}
	return id, nil
}

// SetClaims stores claims on the context the way Authenticate does.
func SetClaims(c echo.Context, claims *Claims) {
	c.Set(claimsKey, claims)
}
