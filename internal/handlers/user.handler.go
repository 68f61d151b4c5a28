package handlers

import (
	"martinspocos/internal/app"
	userController "martinspocos/internal/controllers/users"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	Handler
	controller userController.UserControllerInterface
}

func NewUserHandler(app app.App, router fiber.Router) *UserHandler {
	return &UserHandler{
		controller: app.Controllers.User,
		Handler: Handler{
			log:        logger.New("handlers").File("user_handler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *UserHandler) Register() {
	users := h.router.Group("/users")
	users.Post("/", h.register)
	users.Post("/check", h.check)
}

func (h *UserHandler) register(c *fiber.Ctx) error {
	var request userController.RegisterRequest
	if err := parseBody(c, &request); err != nil {
		return respondError(c, h.log, err)
	}

	response, err := h.controller.Register(c.UserContext(), &request)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

func (h *UserHandler) check(c *fiber.Ctx) error {
	var request userController.CheckRequest
	if err := parseBody(c, &request); err != nil {
		return respondError(c, h.log, err)
	}

	response, err := h.controller.Check(c.UserContext(), &request)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(response)
}
