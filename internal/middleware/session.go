package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/snowstore/internal/config"
	"github.com/example/snowstore/internal/utils"
)

// SessionCookie is the name of the HttpOnly session cookie.
const SessionCookie = "snowstore_session"

const sessionContextKey = "currentSession"

// Session loads the session cookie, if valid, into the request context and
// slides its expiry once less than half of the idle timeout remains.
func Session(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(SessionCookie)
		if raw == "" {
			return c.Next()
		}

		session, err := utils.ParseSession(cfg.SessionSecret, raw)
		if err != nil {
			clearCookie(c)
			return c.Next()
		}

		if time.Until(session.ExpiresAt) < cfg.SessionTTL/2 {
			if err := StartSession(c, cfg, session.UserID, session.Name, session.Role); err != nil {
				return err
			}
		} else {
			c.Locals(sessionContextKey, session)
		}

		return c.Next()
	}
}

// StartSession issues a fresh session cookie and makes it current for this request.
func StartSession(c *fiber.Ctx, cfg *config.Config, userID uint, name, role string) error {
	token, err := utils.IssueSession(cfg.SessionSecret, userID, name, role, cfg.SessionTTL)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to start session")
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(cfg.SessionTTL),
		HTTPOnly: true,
		Secure:   c.Protocol() == "https",
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Locals(sessionContextKey, &utils.Session{
		UserID:    userID,
		Name:      name,
		Role:      role,
		ExpiresAt: time.Now().Add(cfg.SessionTTL),
	})
	return nil
}

// EndSession expires the session cookie.
func EndSession(c *fiber.Ctx) {
	clearCookie(c)
	c.Locals(sessionContextKey, nil)
}

func clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// CurrentSession returns the signed-in identity, if any.
func CurrentSession(c *fiber.Ctx) (*utils.Session, bool) {
	session, ok := c.Locals(sessionContextKey).(*utils.Session)
	return session, ok && session != nil
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uint, bool) {
	if session, ok := CurrentSession(c); ok {
		return session.UserID, true
	}
	return 0, false
}

// wantsHTML reports whether the client is a browser navigation rather than an API call.
func wantsHTML(c *fiber.Ctx) bool {
	if c.Get(fiber.HeaderXRequestedWith) == "XMLHttpRequest" {
		return false
	}
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML)
}
