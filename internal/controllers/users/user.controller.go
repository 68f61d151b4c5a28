package userController

import (
	"context"

	"martinspocos/internal/apperrors"
	"martinspocos/internal/database"
	. "martinspocos/internal/models"
	"martinspocos/internal/repositories"
	"martinspocos/internal/services"
	"martinspocos/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
)

type UserController struct {
	userRepo repositories.UserRepository
	token    *services.TokenService
	password *services.PasswordService
	db       database.DB
	log      logger.Logger
}

type RegisterRequest struct {
	Name     string  `json:"name"     validate:"required,max=255"`
	Whatsapp string  `json:"whatsapp" validate:"required,min=10,max=13"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Password string  `json:"password" validate:"required,min=6"`
}

type RegisterResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type CheckRequest struct {
	Whatsapp string `json:"whatsapp" validate:"required,min=10,max=13"`
}

type CheckResponse struct {
	Exists bool `json:"exists"`
}

type UserControllerInterface interface {
	Register(ctx context.Context, request *RegisterRequest) (*RegisterResponse, error)
	Check(ctx context.Context, request *CheckRequest) (*CheckResponse, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	db database.DB,
) UserControllerInterface {
	return &UserController{
		userRepo: repos.User,
		token:    services.Token,
		password: services.Password,
		db:       db,
		log:      logger.New("userController"),
	}
}

func (uc *UserController) Register(
	ctx context.Context,
	request *RegisterRequest,
) (*RegisterResponse, error) {
	log := uc.log.TraceFromContext(ctx).Function("Register")

	request.Name = utils.TitleCase(request.Name)
	request.Whatsapp = utils.DigitsOnly(request.Whatsapp)
	if request.Email != nil && *request.Email == "" {
		request.Email = nil
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	hash, err := uc.password.Hash(request.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Name:     request.Name,
		Whatsapp: request.Whatsapp,
		Email:    request.Email,
		Password: hash,
	}
	if err := uc.userRepo.Create(ctx, uc.db.SQL, user); err != nil {
		if apperrors.IsConflict(err) {
			return nil, apperrors.NewConflictError("Whatsapp already registered")
		}
		return nil, err
	}

	token, err := uc.token.Issue(user.ToPrincipal())
	if err != nil {
		return nil, err
	}

	log.Info("User registered", "userID", user.ID)
	return &RegisterResponse{Token: token, User: user}, nil
}

func (uc *UserController) Check(ctx context.Context, request *CheckRequest) (*CheckResponse, error) {
	request.Whatsapp = utils.DigitsOnly(request.Whatsapp)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	exists, err := uc.userRepo.ExistsByWhatsapp(ctx, uc.db.SQL, request.Whatsapp)
	if err != nil {
		return nil, err
	}
	return &CheckResponse{Exists: exists}, nil
}
