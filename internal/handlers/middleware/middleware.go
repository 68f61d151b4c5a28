package middleware

import (
	"context"

	. "martinspocos/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

// Authenticator resolves a bearer token to the principal behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

type Middleware struct {
	auth Authenticator
	log  logger.Logger
}

func New(auth Authenticator) Middleware {
	return Middleware{
		auth: auth,
		log:  logger.New("middleware"),
	}
}

func deny(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}
