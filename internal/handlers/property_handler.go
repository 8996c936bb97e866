package handlers

import (
	"errors"
	"log"
	"strconv"

	"bienesraices/internal/middleware"
	"bienesraices/internal/models"
	"bienesraices/internal/services"

	"github.com/gofiber/fiber/v2"
)

const dashboard = "/mis-propiedades"

// PropertyHandler handles the listing pages of authenticated users.
type PropertyHandler struct {
	propertyService *services.PropertyService
	messageService  *services.MessageService
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(propertyService *services.PropertyService, messageService *services.MessageService) *PropertyHandler {
	return &PropertyHandler{
		propertyService: propertyService,
		messageService:  messageService,
	}
}

// RegisterRoutes registers the listing routes. Every route except the public
// listing page requires a session.
func (h *PropertyHandler) RegisterRoutes(router fiber.Router, auth middleware.Authenticator) {
	protect := middleware.RequireSession(auth)

	router.Get(dashboard, protect, h.Dashboard)
	router.Get("/propiedades/crear", protect, h.CreateForm)
	router.Post("/propiedades/crear", protect, h.HandleCreate)
	router.Get("/propiedades/agregar-imagen/:id", protect, h.ImageForm)
	router.Post("/propiedades/agregar-imagen/:id", protect, h.HandleImage)
	router.Get("/propiedades/editar/:id", protect, h.EditForm)
	router.Post("/propiedades/editar/:id", protect, h.HandleEdit)
	router.Post("/propiedades/eliminar/:id", protect, h.HandleDelete)
	router.Put("/propiedades/:id", protect, h.HandleTogglePublished)
	router.Get("/mensajes/:id", protect, h.Messages)

	router.Get("/propiedad/:id", middleware.IdentifyUser(auth), h.Show)
	router.Post("/propiedad/:id", protect, h.HandleSendMessage)
}

// Dashboard lists the user's listings, ten per page.
func (h *PropertyHandler) Dashboard(c *fiber.Ctx) error {
	page, err := strconv.Atoi(c.Query("pagina"))
	if err != nil || page < 1 {
		return c.Redirect(dashboard + "?pagina=1")
	}

	user := middleware.CurrentUser(c)
	result, err := h.propertyService.ListOwned(c.UserContext(), user.ID, page)
	if err != nil {
		return err
	}
	return render(c, "Mis Propiedades", fiber.Map{
		"propiedades":  result.Properties,
		"paginas":      result.Pages,
		"paginaActual": result.Page,
		"total":        result.Total,
		"offset":       result.Offset,
		"limit":        result.Limit,
	})
}

// CreateForm renders an empty listing form with the category and price options.
func (h *PropertyHandler) CreateForm(c *fiber.Ctx) error {
	return h.renderForm(c, "Crear Propiedad", services.PropertyRequest{}, nil)
}

// HandleCreate stores the listing and continues with its image.
func (h *PropertyHandler) HandleCreate(c *fiber.Ctx) error {
	var req services.PropertyRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing property request body: %v", err)
		return badRequest()
	}

	property, err := h.propertyService.Create(c.UserContext(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		if fields, ok := fieldErrors(err); ok {
			return h.renderForm(c, "Crear Propiedad", req, fields)
		}
		return err
	}
	return c.Redirect("/propiedades/agregar-imagen/" + property.ID)
}

// ImageForm renders the upload page for an owned, unpublished listing.
func (h *PropertyHandler) ImageForm(c *fiber.Ctx) error {
	property, err := h.propertyService.GetForImageUpload(c.UserContext(), c.Params("id"), middleware.CurrentUser(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return render(c, "Subir Imagen: "+property.Title, fiber.Map{"propiedad": property})
}

// HandleImage stores the "imagen" file and publishes the listing.
func (h *PropertyHandler) HandleImage(c *fiber.Ctx) error {
	file, err := c.FormFile("imagen")
	if err != nil {
		return badRequest()
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = h.propertyService.AttachImage(c.UserContext(), c.Params("id"), middleware.CurrentUser(c).ID, file.Filename, src, file.Size)
	if err != nil {
		if errors.Is(err, services.ErrInvalidImage) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"errores": errores("Solo se permiten imágenes .jpg o .png"),
			})
		}
		return h.fail(c, err)
	}
	return c.Redirect(dashboard)
}

// EditForm renders the listing form filled with the stored values.
func (h *PropertyHandler) EditForm(c *fiber.Ctx) error {
	property, err := h.propertyService.GetForOwner(c.UserContext(), c.Params("id"), middleware.CurrentUser(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return h.renderForm(c, "Editar Propiedad: "+property.Title, services.RequestFrom(property), nil)
}

// HandleEdit applies the form to an owned listing.
func (h *PropertyHandler) HandleEdit(c *fiber.Ctx) error {
	var req services.PropertyRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing property request body: %v", err)
		return badRequest()
	}

	_, err := h.propertyService.Update(c.UserContext(), c.Params("id"), middleware.CurrentUser(c).ID, req)
	if err != nil {
		if fields, ok := fieldErrors(err); ok {
			return h.renderForm(c, "Editar Propiedad", req, fields)
		}
		return h.fail(c, err)
	}
	return c.Redirect(dashboard)
}

// HandleDelete removes an owned listing and its image.
func (h *PropertyHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.propertyService.Delete(c.UserContext(), c.Params("id"), middleware.CurrentUser(c).ID); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect(dashboard)
}

// HandleTogglePublished flips the published state; called from the dashboard with fetch.
func (h *PropertyHandler) HandleTogglePublished(c *fiber.Ctx) error {
	if _, err := h.propertyService.TogglePublished(c.UserContext(), c.Params("id"), middleware.CurrentUser(c).ID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"resultado": true})
}

// Messages lists the buyer messages of an owned listing.
func (h *PropertyHandler) Messages(c *fiber.Ctx) error {
	_, messages, err := h.propertyService.ListMessages(c.UserContext(), c.Params("id"), middleware.CurrentUser(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return render(c, "Mensajes", fiber.Map{"mensajes": messages})
}

// Show displays a published listing to anyone.
func (h *PropertyHandler) Show(c *fiber.Ctx) error {
	property, err := h.propertyService.GetPublished(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Redirect("/404")
		}
		return err
	}
	return h.renderShow(c, property, nil)
}

// HandleSendMessage stores a buyer message and goes back home.
func (h *PropertyHandler) HandleSendMessage(c *fiber.Ctx) error {
	var req services.MessageRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing message request body: %v", err)
		return badRequest()
	}

	id := c.Params("id")
	_, err := h.messageService.Send(c.UserContext(), id, middleware.CurrentUser(c).ID, req)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Redirect("/404")
		}
		if fields, ok := fieldErrors(err); ok {
			property, getErr := h.propertyService.GetPublished(c.UserContext(), id)
			if getErr != nil {
				return getErr
			}
			return h.renderShow(c, property, fields)
		}
		return err
	}
	return c.Redirect("/")
}

func (h *PropertyHandler) renderShow(c *fiber.Ctx, property *models.Property, fields []services.FieldError) error {
	data := fiber.Map{
		"propiedad":  property,
		"esVendedor": false,
	}
	if user := middleware.CurrentUser(c); user != nil {
		data["usuario"] = user
		data["esVendedor"] = services.SameID(user.ID, property.UserID)
	}
	if fields != nil {
		data["errores"] = fields
	}
	return render(c, property.Title, data)
}

func (h *PropertyHandler) renderForm(c *fiber.Ctx, page string, req services.PropertyRequest, fields []services.FieldError) error {
	options, err := h.propertyService.FormOptions(c.UserContext())
	if err != nil {
		return err
	}
	data := fiber.Map{
		"categorias": options.Categories,
		"precios":    options.Prices,
		"datos":      req,
	}
	if fields != nil {
		data["errores"] = fields
	}
	return render(c, page, data)
}

// fail sends ownership and lookup failures back to the dashboard.
func (h *PropertyHandler) fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrForbidden) || errors.Is(err, services.ErrAlreadyPublic) {
		return c.Redirect(dashboard)
	}
	return err
}
