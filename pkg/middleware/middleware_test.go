package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Astemirdum/room-booking/pkg/auth"
	md "github.com/Astemirdum/room-booking/pkg/middleware"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func whoami(c echo.Context) error {
	id, err := auth.FromContext(c.Request().Context())
	if err != nil {
		return c.String(http.StatusOK, "anonymous")
	}
	if id.IsAdmin {
		return c.String(http.StatusOK, id.Username+":admin")
	}
	return c.String(http.StatusOK, id.Username)
}

func signed(t *testing.T, key []byte, username, role string, exp time.Time) string {
	t.Helper()
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
	}
	claims.Profile.Username = username
	claims.Profile.Role = role
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestJwtAuthentication(t *testing.T) {
	t.Parallel()
	key := []byte("secret")

	tests := []struct {
		name         string
		header       string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "anonymous",
			expectedCode: http.StatusOK,
			expectedBody: "anonymous",
		},
		{
			name:         "valid admin token",
			header:       "Bearer " + signed(t, key, "root", auth.RoleAdmin, time.Now().Add(time.Hour)),
			expectedCode: http.StatusOK,
			expectedBody: "root:admin",
		},
		{
			name:         "wrong key",
			header:       "Bearer " + signed(t, []byte("other"), "root", auth.RoleAdmin, time.Now().Add(time.Hour)),
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"message":"JwtAccessDenied"}`,
		},
		{
			name:         "expired",
			header:       "Bearer " + signed(t, key, "alice", auth.RoleUser, time.Now().Add(-time.Hour)),
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"message":"JwtAccessDenied"}`,
		},
		{
			name:         "not bearer",
			header:       "Basic abc",
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"message":"Invalid Authorization Header"}`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := echo.New()
			e.GET("/whoami", whoami, md.JwtAuthentication(key))

			r := httptest.NewRequest(http.MethodGet, "/whoami", http.NoBody)
			if tt.header != "" {
				r.Header.Set(md.AuthorizationHeader, tt.header)
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			require.JSONEq(t, jsonString(tt.expectedBody), jsonString(w.Body.String()))
		})
	}
}

func TestAuthContext(t *testing.T) {
	t.Parallel()
	e := echo.New()
	e.GET("/whoami", whoami, md.AuthContext)

	r := httptest.NewRequest(http.MethodGet, "/whoami", http.NoBody)
	r.Header.Set(auth.XUserNameHeader, "alice")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	require.Equal(t, "alice", w.Body.String())

	r = httptest.NewRequest(http.MethodGet, "/whoami", http.NoBody)
	r.Header.Set(auth.XUserNameHeader, "root")
	r.Header.Set(auth.XUserRoleHeader, auth.RoleAdmin)
	w = httptest.NewRecorder()
	e.ServeHTTP(w, r)
	require.Equal(t, "root:admin", w.Body.String())
}

// jsonString quotes plain text bodies so JSONEq can compare both kinds.
func jsonString(s string) string {
	if len(s) > 0 && s[0] == '{' {
		return s
	}
	return `"` + s + `"`
}
