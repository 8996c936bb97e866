// Package server assembles the Fiber application from the configured services.
package server

import (
	"errors"
	"log"

	"bienesraices/internal/config"
	"bienesraices/internal/handlers"
	"bienesraices/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Services are the collaborators the HTTP layer is built on.
type Services struct {
	Auth       *services.AuthService
	Properties *services.PropertyService
	Messages   *services.MessageService
	Browse     *services.BrowseService
}

// NewApp returns a Fiber app with middleware and every route registered.
func NewApp(cfg *config.Config, svc Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "bienesraices",
		BodyLimit:    5 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(csrf.New(csrf.Config{
		Next: func(*fiber.Ctx) bool {
			return !cfg.CSRFEnabled
		},
		Extractor:      csrfFromHeaderOrForm,
		CookieName:     "_csrf",
		CookieSecure:   cfg.CookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		ContextKey:     handlers.CSRFContextKey,
	}))

	if cfg.StorageDriver == config.StorageLocal {
		app.Static("/uploads", cfg.UploadDir)
	}

	handlers.NewAuthHandler(svc.Auth, cfg.CookieSecure).RegisterRoutes(app)
	handlers.NewPropertyHandler(svc.Properties, svc.Messages).RegisterRoutes(app, svc.Auth)
	handlers.NewPublicHandler(svc.Browse).RegisterRoutes(app, svc.Auth)

	return app
}

// csrfFromHeaderOrForm accepts the token from the X-CSRF-Token header (fetch
// requests) or the _csrf form field.
func csrfFromHeaderOrForm(c *fiber.Ctx) (string, error) {
	if token := c.Get("X-CSRF-Token"); token != "" {
		return token, nil
	}
	if token := c.FormValue("_csrf"); token != "" {
		return token, nil
	}
	return "", csrf.ErrTokenNotFound
}

// errorHandler logs the cause and answers without internal details.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Hubo un error, intenta de nuevo"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		if code < fiber.StatusInternalServerError {
			msg = e.Message
		}
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("Error handling %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"message": msg})
}
