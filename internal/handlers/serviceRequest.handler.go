package handlers

import (
	"martinspocos/internal/app"
	serviceRequestController "martinspocos/internal/controllers/serviceRequests"
	"martinspocos/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type ServiceRequestHandler struct {
	Handler
	controller serviceRequestController.ServiceRequestControllerInterface
}

func NewServiceRequestHandler(app app.App, router fiber.Router) *ServiceRequestHandler {
	return &ServiceRequestHandler{
		controller: app.Controllers.ServiceRequest,
		Handler: Handler{
			log:        logger.New("handlers").File("service_request_handler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

// Register mounts middleware per route. /service-requests and
// /service-requests-contracts share a prefix, so group-level Use would leak.
func (h *ServiceRequestHandler) Register() {
	m := h.middleware

	h.router.Post("/service-requests", m.OptionalAuth(), h.create)
	h.router.Get("/service-requests", m.RequireAuth(), m.RequireCustomer(), h.listMine)
	h.router.Get("/service-requests-contracts", m.RequireAuth(), m.RequireStaff(), h.listToGenerate)

	requests := h.router.Group("/requests", m.RequireAuth(), m.RequireStaff())
	requests.Get("/", h.list)
	requests.Patch("/:id", h.updateStatus)
	requests.Patch("/:id/reschedule", h.reschedule)
}

func (h *ServiceRequestHandler) create(c *fiber.Ctx) error {
	var request serviceRequestController.CreateServiceRequest
	if err := parseBody(c, &request); err != nil {
		return respondError(c, h.log, err)
	}

	created, err := h.controller.Create(c.UserContext(), middleware.GetPrincipal(c), &request)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *ServiceRequestHandler) listMine(c *fiber.Ctx) error {
	requests, err := h.controller.ListForUser(c.UserContext(), middleware.GetPrincipal(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(requests)
}

func (h *ServiceRequestHandler) list(c *fiber.Ctx) error {
	var query serviceRequestController.ListQuery
	if err := c.QueryParser(&query); err != nil {
		return respondError(c, h.log, err)
	}

	requests, err := h.controller.List(c.UserContext(), query)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(requests)
}

func (h *ServiceRequestHandler) listToGenerate(c *fiber.Ctx) error {
	var query serviceRequestController.ListQuery
	if err := c.QueryParser(&query); err != nil {
		return respondError(c, h.log, err)
	}

	requests, err := h.controller.ListToGenerate(c.UserContext(), query)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(requests)
}

func (h *ServiceRequestHandler) updateStatus(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	var request serviceRequestController.UpdateStatusRequest
	if err := parseBody(c, &request); err != nil {
		return respondError(c, h.log, err)
	}

	updated, err := h.controller.UpdateStatus(c.UserContext(), id, &request)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(updated)
}

func (h *ServiceRequestHandler) reschedule(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	var request serviceRequestController.RescheduleRequest
	if err := parseBody(c, &request); err != nil {
		return respondError(c, h.log, err)
	}

	updated, err := h.controller.Reschedule(c.UserContext(), id, &request)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(updated)
}
