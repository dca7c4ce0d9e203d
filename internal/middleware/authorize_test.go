package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/snowstore/internal/config"
	"github.com/example/snowstore/internal/utils"
)

func testConfig() *config.Config {
	return &config.Config{SessionSecret: "test-secret", SessionTTL: 30 * time.Minute}
}

func TestAuthorize(t *testing.T) {
	admin := &utils.Session{UserID: 1, Role: "Admin"}
	user := &utils.Session{UserID: 2, Role: "User"}

	tests := []struct {
		name     string
		identity *utils.Session
		role     string
		want     AuthResult
	}{
		{"anonymous", nil, "", AuthRedirectLogin},
		{"anonymous admin route", nil, "Admin", AuthRedirectLogin},
		{"zero id", &utils.Session{Role: "Admin"}, "Admin", AuthRedirectLogin},
		{"user on open route", user, "", AuthOK},
		{"user on admin route", user, "Admin", AuthForbidden},
		{"admin on admin route", admin, "Admin", AuthOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.identity, tt.role))
		})
	}
}

func newGuardedApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	app.Use(Session(cfg))
	app.Get("/admin", RequireRole("Admin"), func(c *fiber.Ctx) error {
		id, _ := GetCurrentUserID(c)
		return c.JSON(fiber.Map{"id": id})
	})
	return app
}

func sessionCookie(t *testing.T, cfg *config.Config, id uint, role string, ttl time.Duration) *http.Cookie {
	t.Helper()
	token, err := utils.IssueSession(cfg.SessionSecret, id, "tester", role, ttl)
	require.NoError(t, err)
	return &http.Cookie{Name: SessionCookie, Value: token}
}

func TestRequireRole(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name     string
		cookie   *http.Cookie
		accept   string
		status   int
		location string
	}{
		{name: "api anonymous", status: fiber.StatusUnauthorized},
		{name: "browser anonymous", accept: "text/html", status: fiber.StatusFound, location: "/account/login?returnUrl=%2Fadmin"},
		{name: "api wrong role", cookie: sessionCookie(t, cfg, 2, "User", time.Hour), status: fiber.StatusForbidden},
		{name: "browser wrong role", cookie: sessionCookie(t, cfg, 2, "User", time.Hour), accept: "text/html", status: fiber.StatusFound, location: AccessDeniedPath},
		{name: "admin", cookie: sessionCookie(t, cfg, 1, "Admin", time.Hour), status: fiber.StatusOK},
		{name: "tampered", cookie: &http.Cookie{Name: SessionCookie, Value: "junk"}, status: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newGuardedApp(cfg)
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.location != "" {
				assert.Equal(t, tt.location, resp.Header.Get("Location"))
			}
		})
	}
}

func TestSessionSlidesExpiry(t *testing.T) {
	cfg := testConfig()
	app := newGuardedApp(cfg)

	// less than half the idle timeout left: a fresh cookie is issued
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(sessionCookie(t, cfg, 1, "Admin", 5*time.Minute))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), SessionCookie+"=")

	// plenty left: cookie untouched
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(sessionCookie(t, cfg, 1, "Admin", 29*time.Minute))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Set-Cookie"))
}
