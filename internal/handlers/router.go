package handlers

import (
	"martinspocos/internal/app"
	"martinspocos/internal/apperrors"
	"martinspocos/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	router.Use(app.Middleware.TraceID())

	WebSocketHandler(router, app)

	api := router.Group("/api")
	HealthHandler(api, app.Config)
	NewAuthHandler(*app, api).Register()
	NewUserHandler(*app, api).Register()
	NewManagerHandler(*app, api).Register()
	NewServiceRequestHandler(*app, api).Register()
	NewContractHandler(*app, api).Register()

	return nil
}

// respondError writes {"error": message}. Server errors are logged and
// their detail never reaches the caller; the trace id lets support find it.
func respondError(c *fiber.Ctx, log logger.Logger, err error) error {
	status := apperrors.StatusCode(err)
	if status >= fiber.StatusInternalServerError {
		log.TraceFromContext(c.UserContext()).Er("request failed", err, "path", c.Path())
		return c.Status(status).JSON(fiber.Map{
			"error":   "Internal server error",
			"traceId": middleware.GetTraceID(c),
		})
	}

	message := statusMessage(status)
	if appErr := apperrors.GetAppError(err); appErr != nil {
		message = appErr.PublicMessage()
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func statusMessage(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "Not found"
	case fiber.StatusConflict:
		return "Conflict"
	}
	return fiber.ErrBadRequest.Message
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("Invalid request body")
	}
	return nil
}

func paramID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperrors.NewValidationError("Invalid id", c.Params("id"))
	}
	return id, nil
}
