package handlers

import (
	"errors"
	"log"

	"bienesraices/internal/middleware"
	"bienesraices/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for the account flows.
type AuthHandler struct {
	authService  *services.AuthService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieSecure: cookieSecure,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Get("/login", h.LoginForm)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Get("/cerrar-sesion", h.HandleLogout)
	authRoutes.Post("/cerrar-sesion", h.HandleLogout)
	authRoutes.Get("/registro", h.RegisterForm)
	authRoutes.Post("/registro", h.HandleRegister)
	authRoutes.Get("/confirmar/:token", h.HandleConfirm)
	authRoutes.Get("/olvide-password", h.ForgotPasswordForm)
	authRoutes.Post("/olvide-password", h.HandleForgotPassword)
	authRoutes.Get("/olvide-password/:token", h.HandleVerifyResetToken)
	authRoutes.Post("/olvide-password/:token", h.HandleResetPassword)
}

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "Iniciar Sesión", nil)
}

// HandleLogin checks the credentials and stores the session credential in the _token cookie.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req services.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return badRequest()
	}

	credential, _, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		if fields, ok := fieldErrors(err); ok {
			return render(c, "Iniciar sesión", fiber.Map{"errores": fields})
		}
		var msg string
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			msg = "El usuario es incorrecto"
		case errors.Is(err, services.ErrNotConfirmed):
			msg = "El usuario no está confirmado"
		case errors.Is(err, services.ErrWrongPassword):
			msg = "Contraseña incorrecta"
		default:
			return err
		}
		log.Printf("Login failed for %s: %v", req.Email, err)
		return render(c, "Iniciar sesión", fiber.Map{"errores": errores(msg)})
	}

	middleware.SetSession(c, credential, services.SessionTTL, h.cookieSecure)
	return c.Redirect("/mis-propiedades")
}

// HandleLogout drops the session cookie. The credential itself stays valid until it expires.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	middleware.ClearSession(c)
	return c.Redirect("/auth/login")
}

// RegisterForm renders the sign-up page.
func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return render(c, "Crear Cuenta", nil)
}

// HandleRegister creates the account and sends the confirmation email.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return badRequest()
	}
	usuario := fiber.Map{"nombre": req.Name, "email": req.Email}

	if _, err := h.authService.Register(c.UserContext(), req); err != nil {
		if fields, ok := fieldErrors(err); ok {
			return render(c, "Crear Cuenta", fiber.Map{"errores": fields, "usuario": usuario})
		}
		if errors.Is(err, services.ErrDuplicateEmail) {
			return render(c, "Crear Cuenta", fiber.Map{
				"errores": errores("El Usuario ya esta registrado"),
				"usuario": usuario,
			})
		}
		return err
	}

	return render(c, "Cuenta creada Correctamente", fiber.Map{
		"mensaje": "Hemos enviado un mensaje de confirmacion, presiona el siguiente enlace",
	})
}

// HandleConfirm consumes the confirmation token of the link.
func (h *AuthHandler) HandleConfirm(c *fiber.Ctx) error {
	if _, err := h.authService.Confirm(c.UserContext(), c.Params("token")); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return render(c, "Error al confirmar cuenta", fiber.Map{
				"mensaje": "El token es invalido, intenta otra vez",
				"error":   true,
			})
		}
		return err
	}
	return render(c, "Cuenta confirmada", fiber.Map{"mensaje": "Cuenta confirmada exitosamente"})
}

// ForgotPasswordForm renders the page that requests a reset link.
func (h *AuthHandler) ForgotPasswordForm(c *fiber.Ctx) error {
	return render(c, "Recuperar Cuenta", nil)
}

// HandleForgotPassword issues a reset token and emails the link.
func (h *AuthHandler) HandleForgotPassword(c *fiber.Ctx) error {
	var req services.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing forgot password request body: %v", err)
		return badRequest()
	}

	if err := h.authService.RequestPasswordReset(c.UserContext(), req); err != nil {
		if fields, ok := fieldErrors(err); ok {
			return render(c, "Recuperar Cuenta", fiber.Map{"errores": fields})
		}
		if errors.Is(err, services.ErrUnknownEmail) {
			return render(c, "Recuperar Cuenta", fiber.Map{
				"errores": errores("El email no pertenece a ningun usuario"),
			})
		}
		return err
	}

	return render(c, "Reestablecer", fiber.Map{
		"mensaje": "Hemos enviado un mensaje a tu correo, presiona el siguiente enlace",
	})
}

// HandleVerifyResetToken shows the new password form when the token is pending.
func (h *AuthHandler) HandleVerifyResetToken(c *fiber.Ctx) error {
	if _, err := h.authService.VerifyResetToken(c.UserContext(), c.Params("token")); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return invalidResetToken(c)
		}
		return err
	}
	return render(c, "Reestablecer password", nil)
}

// HandleResetPassword stores the new password and consumes the token.
func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req services.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing reset password request body: %v", err)
		return badRequest()
	}

	if err := h.authService.CompleteReset(c.UserContext(), c.Params("token"), req); err != nil {
		if fields, ok := fieldErrors(err); ok {
			return render(c, "Reestablecer Cuenta", fiber.Map{"errores": fields})
		}
		if errors.Is(err, services.ErrInvalidToken) {
			return invalidResetToken(c)
		}
		return err
	}
	return render(c, "Password reestablecido", fiber.Map{"mensaje": "El nuevo password se guardó correctamente"})
}

func invalidResetToken(c *fiber.Ctx) error {
	return render(c, "Error al recuperar cuenta", fiber.Map{
		"mensaje": "El token es invalido, intenta otra vez",
		"error":   true,
	})
}
