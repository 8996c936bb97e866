package handlers

import (
	"errors"
	"strconv"
	"time"

	"bienesraices/internal/middleware"
	"bienesraices/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PublicHandler serves the pages anyone can browse.
type PublicHandler struct {
	browseService *services.BrowseService
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(browseService *services.BrowseService) *PublicHandler {
	return &PublicHandler{browseService: browseService}
}

// RegisterRoutes registers the public routes and the map API.
func (h *PublicHandler) RegisterRoutes(router fiber.Router, auth middleware.Authenticator) {
	identify := middleware.IdentifyUser(auth)

	router.Get("/", identify, h.Home)
	router.Get("/categorias/:id", identify, h.Category)
	router.Post("/buscador", identify, h.Search)
	router.Get("/404", identify, h.NotFound)

	router.Get("/api/propiedades", h.MapListings)

	router.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
}

// Home renders the landing page with the latest houses and apartments.
func (h *PublicHandler) Home(c *fiber.Ctx) error {
	home, err := h.browseService.Home(c.UserContext())
	if err != nil {
		return err
	}
	return render(c, "Inicio", fiber.Map{
		"categorias":    home.Categories,
		"precios":       home.Prices,
		"casas":         home.Houses,
		"departamentos": home.Apartments,
		"usuario":       middleware.CurrentUser(c),
	})
}

// Category lists the published listings of one category.
func (h *PublicHandler) Category(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Redirect("/404")
	}
	category, properties, err := h.browseService.Category(c.UserContext(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Redirect("/404")
		}
		return err
	}
	return render(c, category.Name+"s en Venta", fiber.Map{
		"propiedades": properties,
		"usuario":     middleware.CurrentUser(c),
	})
}

// Search looks up published listings by title. An empty term goes back.
func (h *PublicHandler) Search(c *fiber.Ctx) error {
	properties, err := h.browseService.Search(c.UserContext(), c.FormValue("termino"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.RedirectBack("/")
		}
		return err
	}
	return render(c, "Resultados de la Búsqueda", fiber.Map{
		"propiedades": properties,
		"usuario":     middleware.CurrentUser(c),
	})
}

// NotFound renders the 404 page.
func (h *PublicHandler) NotFound(c *fiber.Ctx) error {
	c.Status(fiber.StatusNotFound)
	return render(c, "No Encontrada", fiber.Map{"usuario": middleware.CurrentUser(c)})
}

// MapListings returns every published listing with its category and price, for the map.
func (h *PublicHandler) MapListings(c *fiber.Ctx) error {
	properties, err := h.browseService.Published(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(properties)
}
