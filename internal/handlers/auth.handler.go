package handlers

import (
	"martinspocos/internal/app"
	authController "martinspocos/internal/controllers/auth"
	"martinspocos/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Handler
	controller authController.AuthControllerInterface
}

func NewAuthHandler(app app.App, router fiber.Router) *AuthHandler {
	return &AuthHandler{
		controller: app.Controllers.Auth,
		Handler: Handler{
			log:        logger.New("handlers").File("auth_handler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AuthHandler) Register() {
	auth := h.router.Group("/auth")
	auth.Post("/login", h.login)
	auth.Get("/session", h.middleware.OptionalAuth(), h.session)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var request authController.LoginRequest
	if err := parseBody(c, &request); err != nil {
		return respondError(c, h.log, err)
	}

	response, err := h.controller.Login(c.UserContext(), &request)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(response)
}

func (h *AuthHandler) session(c *fiber.Ctx) error {
	return c.JSON(h.controller.Session(c.UserContext(), middleware.GetPrincipal(c)))
}
