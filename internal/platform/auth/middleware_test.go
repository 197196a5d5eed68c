package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testKey = []byte("test-signing-key")

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doRequest(mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, UserIDFromContext(c.Request().Context()))
	})
	return rec, handler(c)
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	signed := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{"clinician"},
	})

	rec, err := doRequest(JWTMiddleware(JWTConfig{SigningKey: testKey}), "Bearer "+signed)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if rec.Body.String() != "user-1" {
		t.Errorf("expected subject on context, got %q", rec.Body.String())
	}
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
	_, err := doRequest(JWTMiddleware(JWTConfig{SigningKey: testKey}), "")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestJWTMiddlewareExpiredToken(t *testing.T) {
	signed := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := doRequest(JWTMiddleware(JWTConfig{SigningKey: testKey}), "Bearer "+signed)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %v", err)
	}
}

func TestJWTMiddlewareWrongKey(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("other-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	_, reqErr := doRequest(JWTMiddleware(JWTConfig{SigningKey: testKey}), "Bearer "+signed)
	httpErr, ok := reqErr.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong key, got %v", reqErr)
	}
}

func requireRoleRequest(userRoles []string, required ...string) error {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if userRoles != nil {
		ctx := context.WithValue(c.Request().Context(), UserRolesKey, userRoles)
		c.SetRequest(c.Request().WithContext(ctx))
	}

	handler := RequireRole(required...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return handler(c)
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name      string
		userRoles []string
		required  []string
		allowed   bool
	}{
		{"exact match", []string{"clinician"}, []string{"clinician"}, true},
		{"admin always passes", []string{"admin"}, []string{"clinician"}, true},
		{"one of several", []string{"reviewer"}, []string{"clinician", "reviewer"}, true},
		{"no match", []string{"viewer"}, []string{"clinician"}, false},
		{"no roles", nil, []string{"clinician"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := requireRoleRequest(tc.userRoles, tc.required...)
			if tc.allowed && err != nil {
				t.Errorf("expected allowed, got %v", err)
			}
			if !tc.allowed {
				httpErr, ok := err.(*echo.HTTPError)
				if !ok || httpErr.Code != http.StatusForbidden {
					t.Errorf("expected 403, got %v", err)
				}
			}
		})
	}
}

func TestDevAuthMiddlewareDefaults(t *testing.T) {
	rec, err := doRequest(DevAuthMiddleware(), "")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if rec.Body.String() != "dev-user" {
		t.Errorf("expected dev-user default, got %q", rec.Body.String())
	}
}
