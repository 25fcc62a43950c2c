package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-loans/pkg/auth"
	md "github.com/Astemirdum/library-loans/pkg/middleware"
)

func whoAmI(c echo.Context) error {
	ctx := c.Request().Context()
	return c.String(http.StatusOK, auth.UserName(ctx)+"/"+auth.Role(ctx))
}

func TestAuthContext(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		headers      map[string]string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "ok",
			headers:      map[string]string{auth.XUserNameHeader: "u1", auth.XUserRoleHeader: auth.RoleMember},
			expectedCode: http.StatusOK,
			expectedBody: "u1/member",
		},
		{
			name:         "no user",
			headers:      map[string]string{auth.XUserRoleHeader: auth.RoleMember},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "no role",
			headers:      map[string]string{auth.XUserNameHeader: "u1"},
			expectedCode: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := echo.New()
			e.GET("/me", whoAmI, md.AuthContext)

			r := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedBody != "" {
				require.Equal(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestJwtAuthentication(t *testing.T) {
	t.Parallel()
	key := []byte("secret")
	sign := func(k []byte, exp time.Time, p auth.Profile) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
			Profile:          p,
		})
		s, err := token.SignedString(k)
		require.NoError(t, err)
		return s
	}
	admin := auth.Profile{Username: "a1", Role: auth.RoleAdmin}

	tests := []struct {
		name         string
		header       string
		expectedCode int
	}{
		{name: "ok", header: "Bearer " + sign(key, time.Now().Add(time.Hour), admin), expectedCode: http.StatusOK},
		{name: "expired", header: "Bearer " + sign(key, time.Now().Add(-time.Hour), admin), expectedCode: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer " + sign([]byte("other"), time.Now().Add(time.Hour), admin), expectedCode: http.StatusUnauthorized},
		{name: "empty profile", header: "Bearer " + sign(key, time.Now().Add(time.Hour), auth.Profile{}), expectedCode: http.StatusUnauthorized},
		{name: "no bearer", header: "Basic abc", expectedCode: http.StatusUnauthorized},
		{name: "no header", expectedCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := echo.New()
			e.GET("/me", whoAmI, md.JwtAuthentication(key))

			r := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
			if tt.header != "" {
				r.Header.Set(md.AuthorizationHeader, tt.header)
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	e := echo.New()
	e.GET("/admin", whoAmI, md.AuthContext, md.RequireRole(auth.RoleAdmin))

	r := httptest.NewRequest(http.MethodGet, "/admin", http.NoBody)
	r.Header.Set(auth.XUserNameHeader, "m1")
	r.Header.Set(auth.XUserRoleHeader, auth.RoleMember)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	require.Equal(t, http.StatusForbidden, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/admin", http.NoBody)
	r.Header.Set(auth.XUserNameHeader, "a1")
	r.Header.Set(auth.XUserRoleHeader, auth.RoleAdmin)
	w = httptest.NewRecorder()
	e.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
}
