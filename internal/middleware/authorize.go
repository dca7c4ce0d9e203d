package middleware

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/example/snowstore/internal/utils"
)

// AuthResult is the outcome of an authorization check.
type AuthResult int

const (
	AuthOK AuthResult = iota
	AuthRedirectLogin
	AuthForbidden
)

func (r AuthResult) String() string {
	switch r {
	case AuthOK:
		return "ok"
	case AuthRedirectLogin:
		return "redirect-login"
	case AuthForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Pages browsers are sent to when a check fails.
const (
	LoginPath        = "/account/login"
	AccessDeniedPath = "/account/access-denied"
)

// Authorize decides whether identity satisfies requireRole. An empty
// requireRole only demands a signed-in user.
func Authorize(identity *utils.Session, requireRole string) AuthResult {
	if identity == nil || identity.UserID == 0 {
		return AuthRedirectLogin
	}
	if requireRole != "" && identity.Role != requireRole {
		return AuthForbidden
	}
	return AuthOK
}

// RequireRole guards routes with Authorize. Browser navigations are
// redirected; API calls get 401 or 403.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, _ := CurrentSession(c)

		switch Authorize(identity, role) {
		case AuthOK:
			return c.Next()
		case AuthRedirectLogin:
			if wantsHTML(c) {
				return c.Redirect(LoginPath + "?returnUrl=" + url.QueryEscape(c.OriginalURL()))
			}
			return fiber.NewError(fiber.StatusUnauthorized, "login required")
		default:
			if wantsHTML(c) {
				return c.Redirect(AccessDeniedPath)
			}
			return fiber.NewError(fiber.StatusForbidden, "access denied")
		}
	}
}

// RequireLogin guards routes that any signed-in user may use.
func RequireLogin() fiber.Handler {
	return RequireRole("")
}
