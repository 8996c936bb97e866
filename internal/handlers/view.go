package handlers

import (
	"errors"

	"bienesraices/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CSRFContextKey is where the csrf middleware leaves the token for the current request.
const CSRFContextKey = "csrf"

// render answers with the view model of a page: its title, the csrf token and data.
func render(c *fiber.Ctx, page string, data fiber.Map) error {
	view := fiber.Map{"pagina": page}
	if token, ok := c.Locals(CSRFContextKey).(string); ok {
		view["csrfToken"] = token
	}
	for k, v := range data {
		view[k] = v
	}
	return c.JSON(view)
}

// errores builds the error list of a form from plain messages.
func errores(msgs ...string) []services.FieldError {
	out := make([]services.FieldError, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, services.FieldError{Msg: msg})
	}
	return out
}

// fieldErrors returns the field messages of a validation failure.
func fieldErrors(err error) ([]services.FieldError, bool) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}

func badRequest() error {
	return fiber.NewError(fiber.StatusBadRequest, "Solicitud inválida")
}
