package handlers

import (
	"martinspocos/internal/app"
	managerController "martinspocos/internal/controllers/managers"
	"martinspocos/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type ManagerHandler struct {
	Handler
	controller managerController.ManagerControllerInterface
}

func NewManagerHandler(app app.App, router fiber.Router) *ManagerHandler {
	return &ManagerHandler{
		controller: app.Controllers.Manager,
		Handler: Handler{
			log:        logger.New("handlers").File("manager_handler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ManagerHandler) Register() {
	managers := h.router.Group(
		"/managers",
		h.middleware.RequireAuth(),
		h.middleware.RequireSupervisor(),
	)
	managers.Get("/", h.list)
	managers.Post("/", h.create)
	managers.Put("/:id", h.update)
	managers.Delete("/:id", h.delete)
}

func (h *ManagerHandler) list(c *fiber.Ctx) error {
	managers, err := h.controller.List(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(managers)
}

func (h *ManagerHandler) create(c *fiber.Ctx) error {
	var request managerController.CreateManagerRequest
	if err := parseBody(c, &request); err != nil {
		return respondError(c, h.log, err)
	}

	manager, err := h.controller.Create(c.UserContext(), &request)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(manager)
}

func (h *ManagerHandler) update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	var request managerController.UpdateManagerRequest
	if err := parseBody(c, &request); err != nil {
		return respondError(c, h.log, err)
	}

	manager, err := h.controller.Update(c.UserContext(), id, &request)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(manager)
}

func (h *ManagerHandler) delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	if err := h.controller.Delete(c.UserContext(), middleware.GetPrincipal(c), id); err != nil {
		return respondError(c, h.log, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
