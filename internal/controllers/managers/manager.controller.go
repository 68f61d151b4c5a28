package managerController

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
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ManagerController struct {
	managerRepo repositories.ManagerRepository
	password    *services.PasswordService
	transaction services.Transactor
	db          database.DB
	log         logger.Logger
}

type CreateManagerRequest struct {
	Name     string  `json:"name"     validate:"required,max=255"`
	Whatsapp string  `json:"whatsapp" validate:"required,min=10,max=13"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Role     Role    `json:"role"     validate:"required,oneof=sales supervisor"`
}

// UpdateManagerRequest keeps the stored password when Password is empty.
type UpdateManagerRequest struct {
	Name     string  `json:"name"     validate:"required,max=255"`
	Whatsapp string  `json:"whatsapp" validate:"required,min=10,max=13"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Password string  `json:"password" validate:"omitempty,min=6"`
	Role     Role    `json:"role"     validate:"required,oneof=sales supervisor"`
}

type ManagerControllerInterface interface {
	List(ctx context.Context) ([]*Manager, error)
	Create(ctx context.Context, request *CreateManagerRequest) (*Manager, error)
	Update(ctx context.Context, id uuid.UUID, request *UpdateManagerRequest) (*Manager, error)
	Delete(ctx context.Context, principal *Principal, id uuid.UUID) error
}

func New(
	repos repositories.Repository,
	services services.Service,
	db database.DB,
) ManagerControllerInterface {
	return &ManagerController{
		managerRepo: repos.Manager,
		password:    services.Password,
		transaction: services.Transaction,
		db:          db,
		log:         logger.New("managerController"),
	}
}

func normalizeContact(name, whatsapp *string, email **string) {
	*name = utils.SanitizeText(*name)
	*whatsapp = utils.DigitsOnly(*whatsapp)
	if *email != nil && *(*email) == "" {
		*email = nil
	}
}

func (mc *ManagerController) List(ctx context.Context) ([]*Manager, error) {
	return mc.managerRepo.List(ctx, mc.db.SQL)
}

func (mc *ManagerController) Create(
	ctx context.Context,
	request *CreateManagerRequest,
) (*Manager, error) {
	log := mc.log.TraceFromContext(ctx).Function("Create")

	normalizeContact(&request.Name, &request.Whatsapp, &request.Email)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	hash, err := mc.password.Hash(request.Password)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		Name:     request.Name,
		Whatsapp: request.Whatsapp,
		Email:    request.Email,
		Password: hash,
		Role:     request.Role,
	}

	err = mc.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := mc.ensureWhatsappFree(ctx, tx, manager); err != nil {
			return err
		}
		return duplicateEmail(mc.managerRepo.Create(ctx, tx, manager))
	})
	if err != nil {
		return nil, err
	}

	log.Info("Manager created", "managerID", manager.ID, "role", manager.Role)
	return manager, nil
}

func (mc *ManagerController) Update(
	ctx context.Context,
	id uuid.UUID,
	request *UpdateManagerRequest,
) (*Manager, error) {
	log := mc.log.TraceFromContext(ctx).Function("Update")

	normalizeContact(&request.Name, &request.Whatsapp, &request.Email)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	var hash string
	if request.Password != "" {
		var err error
		if hash, err = mc.password.Hash(request.Password); err != nil {
			return nil, err
		}
	}

	var manager *Manager
	err := mc.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		existing, err := mc.managerRepo.GetByID(ctx, tx, id)
		if err != nil {
			return apperrors.FromDB(err, "Manager")
		}

		existing.Name = request.Name
		existing.Whatsapp = request.Whatsapp
		existing.Email = request.Email
		existing.Role = request.Role
		if hash != "" {
			existing.Password = hash
		}

		if err := mc.ensureWhatsappFree(ctx, tx, existing); err != nil {
			return err
		}
		if err := duplicateEmail(mc.managerRepo.Update(ctx, tx, existing)); err != nil {
			return apperrors.FromDB(err, "Manager")
		}

		manager = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Manager updated", "managerID", id, "passwordChanged", hash != "")
	return manager, nil
}

// Delete removes a staff account. Supervisors cannot remove themselves.
func (mc *ManagerController) Delete(ctx context.Context, principal *Principal, id uuid.UUID) error {
	log := mc.log.TraceFromContext(ctx).Function("Delete")

	if principal != nil && principal.ID == id {
		return apperrors.NewValidationError("You cannot delete your own account")
	}

	if err := mc.managerRepo.Delete(ctx, mc.db.SQL, id); err != nil {
		return apperrors.FromDB(err, "Manager")
	}

	log.Info("Manager deleted", "managerID", id)
	return nil
}

func (mc *ManagerController) ensureWhatsappFree(
	ctx context.Context,
	tx *gorm.DB,
	manager *Manager,
) error {
	existing, err := mc.managerRepo.GetByWhatsapp(ctx, tx, manager.Whatsapp)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != manager.ID:
		return apperrors.NewConflictError("Whatsapp already registered")
	}
	return nil
}

// duplicateEmail names the field behind a unique violation. Whatsapp is
// checked up front, so a remaining violation can only be the email.
func duplicateEmail(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.NewConflictError("Email already registered").Wrap(err)
	}
	return err
}
