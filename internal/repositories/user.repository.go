package repositories

import (
	"context"
	"errors"

	. "martinspocos/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error)
	GetByWhatsapp(ctx context.Context, tx *gorm.DB, whatsapp string) (*User, error)
	ExistsByWhatsapp(ctx context.Context, tx *gorm.DB, whatsapp string) (bool, error)
}

type userRepository struct {
	log logger.Logger
}

func NewUserRepository() UserRepository {
	return &userRepository{
		log: logger.New("userRepository"),
	}
}

func (r *userRepository) Create(ctx context.Context, tx *gorm.DB, user *User) error {
	log := r.log.TraceFromContext(ctx).Function("Create")

	if err := tx.WithContext(ctx).Create(user).Error; err != nil {
		return log.Err("failed to create user", err, "whatsapp", user.Whatsapp)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error) {
	log := r.log.TraceFromContext(ctx).Function("GetByID")

	var user User
	if err := tx.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, log.Err("failed to get user by id", err, "id", id)
	}

	return &user, nil
}

func (r *userRepository) GetByWhatsapp(
	ctx context.Context,
	tx *gorm.DB,
	whatsapp string,
) (*User, error) {
	log := r.log.TraceFromContext(ctx).Function("GetByWhatsapp")

	var user User
	if err := tx.WithContext(ctx).First(&user, "whatsapp = ?", whatsapp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, log.Err("failed to get user by whatsapp", err)
	}

	return &user, nil
}

func (r *userRepository) ExistsByWhatsapp(
	ctx context.Context,
	tx *gorm.DB,
	whatsapp string,
) (bool, error) {
	log := r.log.TraceFromContext(ctx).Function("ExistsByWhatsapp")

	var count int64
	if err := tx.WithContext(ctx).
		Model(&User{}).
		Where("whatsapp = ?", whatsapp).
		Count(&count).Error; err != nil {
		return false, log.Err("failed to count users by whatsapp", err)
	}

	return count > 0, nil
}
