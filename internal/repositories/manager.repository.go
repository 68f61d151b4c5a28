package repositories

import (
	"context"
	"errors"

	"martinspocos/internal/constants"
	"martinspocos/internal/database"
	. "martinspocos/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ManagerRepository interface {
	List(ctx context.Context, tx *gorm.DB) ([]*Manager, error)
	Create(ctx context.Context, tx *gorm.DB, manager *Manager) error
	Update(ctx context.Context, tx *gorm.DB, manager *Manager) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Manager, error)
	GetByWhatsapp(ctx context.Context, tx *gorm.DB, whatsapp string) (*Manager, error)
}

type managerRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewManagerRepository(cache database.CacheClient) ManagerRepository {
	return &managerRepository{
		cache: cache,
		log:   logger.New("managerRepository"),
	}
}

func (r *managerRepository) List(ctx context.Context, tx *gorm.DB) ([]*Manager, error) {
	log := r.log.TraceFromContext(ctx).Function("List")

	var managers []*Manager
	if err := tx.WithContext(ctx).Order("name ASC").Find(&managers).Error; err != nil {
		return nil, log.Err("failed to list managers", err)
	}

	return managers, nil
}

func (r *managerRepository) Create(ctx context.Context, tx *gorm.DB, manager *Manager) error {
	log := r.log.TraceFromContext(ctx).Function("Create")

	if err := tx.WithContext(ctx).Create(manager).Error; err != nil {
		return log.Err("failed to create manager", err, "whatsapp", manager.Whatsapp)
	}

	return nil
}

func (r *managerRepository) Update(ctx context.Context, tx *gorm.DB, manager *Manager) error {
	log := r.log.TraceFromContext(ctx).Function("Update")

	result := tx.WithContext(ctx).
		Model(&Manager{}).
		Where("id = ?", manager.ID).
		Updates(map[string]any{
			"name":     manager.Name,
			"whatsapp": manager.Whatsapp,
			"email":    manager.Email,
			"password": manager.Password,
			"role":     manager.Role,
		})
	if result.Error != nil {
		return log.Err("failed to update manager", result.Error, "id", manager.ID)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.clearCache(ctx, manager.ID)
	return nil
}

func (r *managerRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	log := r.log.TraceFromContext(ctx).Function("Delete")

	result := tx.WithContext(ctx).Delete(&Manager{}, "id = ?", id)
	if result.Error != nil {
		return log.Err("failed to delete manager", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.clearCache(ctx, id)
	return nil
}

// GetByID is read through the session cache; Update and Delete evict.
func (r *managerRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Manager, error) {
	log := r.log.TraceFromContext(ctx).Function("GetByID")

	var manager Manager
	if r.cache != nil {
		found, err := database.NewCacheBuilder(r.cache, id).
			WithHash(constants.ManagerCachePrefix).
			WithContext(ctx).
			Get(&manager)
		if err != nil {
			log.Warn("failed to read manager cache", "id", id, "error", err)
		} else if found {
			return &manager, nil
		}
	}

	if err := tx.WithContext(ctx).First(&manager, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, log.Err("failed to get manager by id", err, "id", id)
	}

	if r.cache != nil {
		if err := database.NewCacheBuilder(r.cache, id).
			WithHash(constants.ManagerCachePrefix).
			WithStruct(manager).
			WithTTL(constants.ManagerCacheExpiry).
			WithContext(ctx).
			Set(); err != nil {
			log.Warn("failed to cache manager", "id", id, "error", err)
		}
	}

	return &manager, nil
}

func (r *managerRepository) GetByWhatsapp(
	ctx context.Context,
	tx *gorm.DB,
	whatsapp string,
) (*Manager, error) {
	log := r.log.TraceFromContext(ctx).Function("GetByWhatsapp")

	var manager Manager
	if err := tx.WithContext(ctx).First(&manager, "whatsapp = ?", whatsapp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, log.Err("failed to get manager by whatsapp", err)
	}

	return &manager, nil
}

func (r *managerRepository) clearCache(ctx context.Context, id uuid.UUID) {
	if r.cache == nil {
		return
	}

	if err := database.NewCacheBuilder(r.cache, id).
		WithHash(constants.ManagerCachePrefix).
		WithContext(ctx).
		Delete(); err != nil {
		r.log.Function("clearCache").Warn("failed to clear manager cache", "id", id, "error", err)
	}
}
