package authController

import (
	"context"
	"errors"

	"martinspocos/internal/apperrors"
	"martinspocos/internal/database"
	. "martinspocos/internal/models"
	"martinspocos/internal/repositories"
	"martinspocos/internal/services"
	"martinspocos/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

const invalidCredentials = "Invalid whatsapp or password"

type AuthController struct {
	managerRepo repositories.ManagerRepository
	userRepo    repositories.UserRepository
	token       *services.TokenService
	password    *services.PasswordService
	db          database.DB
	log         logger.Logger
}

type LoginRequest struct {
	Whatsapp string `json:"whatsapp" validate:"required,min=10,max=13"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string     `json:"token"`
	Role  Role       `json:"role"`
	User  *Principal `json:"user"`
}

type SessionResponse struct {
	IsAuthenticated bool       `json:"isAuthenticated"`
	User            *Principal `json:"user,omitempty"`
}

type AuthControllerInterface interface {
	Login(ctx context.Context, request *LoginRequest) (*LoginResponse, error)
	Session(ctx context.Context, principal *Principal) *SessionResponse
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	db database.DB,
) AuthControllerInterface {
	return &AuthController{
		managerRepo: repos.Manager,
		userRepo:    repos.User,
		token:       services.Token,
		password:    services.Password,
		db:          db,
		log:         logger.New("authController"),
	}
}

// Login checks staff accounts first, then customers. Every credential
// failure returns the same message.
func (c *AuthController) Login(ctx context.Context, request *LoginRequest) (*LoginResponse, error) {
	log := c.log.TraceFromContext(ctx).Function("Login")

	request.Whatsapp = utils.DigitsOnly(request.Whatsapp)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	principal, hash, err := c.lookup(ctx, request.Whatsapp)
	if err != nil {
		return nil, err
	}

	if err := c.password.Compare(hash, request.Password); err != nil {
		log.Info("Login rejected", "principalID", principal.ID)
		return nil, apperrors.NewUnauthorizedError(invalidCredentials)
	}

	token, err := c.token.Issue(principal)
	if err != nil {
		return nil, err
	}

	log.Info("Login succeeded", "principalID", principal.ID, "role", principal.Role)
	return &LoginResponse{Token: token, Role: principal.Role, User: principal}, nil
}

func (c *AuthController) lookup(ctx context.Context, whatsapp string) (*Principal, string, error) {
	manager, err := c.managerRepo.GetByWhatsapp(ctx, c.db.SQL, whatsapp)
	switch {
	case err == nil:
		return manager.ToPrincipal(), manager.Password, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, "", err
	}

	user, err := c.userRepo.GetByWhatsapp(ctx, c.db.SQL, whatsapp)
	switch {
	case err == nil:
		return user.ToPrincipal(), user.Password, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, "", apperrors.NewUnauthorizedError(invalidCredentials)
	}
	return nil, "", err
}

func (c *AuthController) Session(ctx context.Context, principal *Principal) *SessionResponse {
	if principal == nil {
		return &SessionResponse{}
	}
	return &SessionResponse{IsAuthenticated: true, User: principal}
}

// Authenticate verifies the token. Staff tokens are also checked against the
// managers table so a deleted or demoted manager loses access immediately.
func (c *AuthController) Authenticate(ctx context.Context, token string) (*Principal, error) {
	principal, err := c.token.Verify(token)
	if err != nil {
		return nil, err
	}

	if !principal.IsStaff() {
		return principal, nil
	}

	manager, err := c.managerRepo.GetByID(ctx, c.db.SQL, principal.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewUnauthorizedError("Invalid or expired token")
		}
		return nil, err
	}

	return manager.ToPrincipal(), nil
}
