package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func guardedEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.GET("/v1/admin/applications/seekers", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, AdminTokenMiddleware(testSecret))
	return e
}

func signedToken(t *testing.T, secret string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func get(e *echo.Echo, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/applications/seekers", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAdminTokenAccepted(t *testing.T) {
	e := guardedEcho(t)
	rec := get(e, "Bearer "+signedToken(t, testSecret, time.Hour))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminTokenMissing(t *testing.T) {
	e := guardedEcho(t)
	require.Equal(t, http.StatusUnauthorized, get(e, "").Code)
}

func TestAdminTokenWrongSecret(t *testing.T) {
	e := guardedEcho(t)
	rec := get(e, "Bearer "+signedToken(t, "other-secret", time.Hour))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminTokenExpired(t *testing.T) {
	e := guardedEcho(t)
	rec := get(e, "Bearer "+signedToken(t, testSecret, -time.Minute))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
