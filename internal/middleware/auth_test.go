package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func validClaims(role string) Claims {
	return Claims{
		UserID:     uuid.NewString(),
		Email:      "coach@example.com",
		FacilityID: uuid.NewString(),
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func runAuth(t *testing.T, header string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/classes", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	return c, Authenticate(testSecret)(okHandler)(c)
}

func TestAuthenticate(t *testing.T) {
	claims := validClaims(RoleCoach)
	c, err := runAuth(t, "Bearer "+signToken(t, testSecret, claims))
	require.NoError(t, err)

	got, ok := ClaimsFrom(c)
	require.True(t, ok)
	assert.Equal(t, claims.UserID, got.UserID)
	assert.Equal(t, RoleCoach, got.Role)
}

func TestAuthenticate_Rejects(t *testing.T) {
	expired := validClaims(RoleAdmin)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", validClaims(RoleAdmin))},
		{"expired", "Bearer " + signToken(t, testSecret, expired)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runAuth(t, tt.header)
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, http.StatusUnauthorized, he.Code)
		})
	}
}

func withClaims(claims *Claims, target string) echo.Context {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
	if claims != nil {
		SetClaims(c, claims)
	}
	return c
}

func TestAuthorize(t *testing.T) {
	guard := Authorize(RoleAdmin, RoleManager)(okHandler)

	for _, role := range []string{RoleAdmin, RoleManager, RoleGlobalAdmin} {
		claims := validClaims(role)
		assert.NoError(t, guard(withClaims(&claims, "/")), role)
	}

	for _, role := range []string{RoleCoach, RoleParent, RoleStudent} {
		claims := validClaims(role)
		err := guard(withClaims(&claims, "/"))
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he, role)
		assert.Equal(t, http.StatusForbidden, he.Code)
	}

	err := guard(withClaims(nil, "/"))
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestValidateTenant(t *testing.T) {
	guard := ValidateTenant()(okHandler)
	claims := validClaims(RoleManager)

	assert.NoError(t, guard(withClaims(&claims, "/")))
	assert.NoError(t, guard(withClaims(&claims, "/?facilityId="+claims.FacilityID)))

	err := guard(withClaims(&claims, "/?facilityId="+uuid.NewString()))
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.Code)

	admin := validClaims(RoleGlobalAdmin)
	assert.NoError(t, guard(withClaims(&admin, "/?facilityId="+uuid.NewString())))
}

func TestFacilityID(t *testing.T) {
	claims := validClaims(RoleCoach)
	id, err := FacilityID(withClaims(&claims, "/?facilityId="+uuid.NewString()))
	require.NoError(t, err)
	assert.Equal(t, claims.FacilityID, id.String())

	other := uuid.New()
	admin := validClaims(RoleGlobalAdmin)
	id, err = FacilityID(withClaims(&admin, "/?facilityId="+other.String()))
	require.NoError(t, err)
	assert.Equal(t, other, id)

	broken := validClaims(RoleAdmin)
	broken.FacilityID = ""
	_, err = FacilityID(withClaims(&broken, "/"))
	assert.Error(t, err)
}
