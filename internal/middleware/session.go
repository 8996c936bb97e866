package middleware

import (
	"context"
	"log"
	"time"

	"bienesraices/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie carrying the signed session credential.
const SessionCookie = "_token"

const userKey = "user"

// Authenticator resolves a session credential to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (*models.User, error)
}

// RequireSession lets the request through only with a valid session cookie.
// Anything else clears the cookie and redirects to the login page.
func RequireSession(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		credential := c.Cookies(SessionCookie)
		if credential == "" {
			return c.Redirect("/auth/login")
		}

		user, err := auth.Authenticate(c.UserContext(), credential)
		if err != nil {
			log.Printf("Session rejected for %s: %v", c.Path(), err)
			ClearSession(c)
			return c.Redirect("/auth/login")
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// IdentifyUser attaches the session user when there is one and never blocks the request.
func IdentifyUser(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if credential := c.Cookies(SessionCookie); credential != "" {
			if user, err := auth.Authenticate(c.UserContext(), credential); err == nil {
				c.Locals(userKey, user)
			}
		}
		return c.Next()
	}
}

// CurrentUser returns the user attached by RequireSession or IdentifyUser, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}

// SetSession stores credential in an HTTP-only cookie that lives as long as the credential.
func SetSession(c *fiber.Ctx, credential string, ttl time.Duration, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    credential,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSession expires the session cookie.
func ClearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
