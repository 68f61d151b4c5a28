package initialize

import (
	"errors"

	"martinspocos/config"
	. "martinspocos/internal/models"
	"martinspocos/internal/services"
	"martinspocos/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

// InitializeTables creates the data every environment needs to be usable.
func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	if err := initializeSupervisor(db, config, log); err != nil {
		return log.Err("failed to initialize supervisor", err)
	}

	log.Info("Table initialization complete")
	return nil
}

// initializeSupervisor bootstraps the first supervisor so staff accounts can
// be managed through the API.
func initializeSupervisor(db *gorm.DB, config config.Config, log logger.Logger) error {
	whatsapp := utils.DigitsOnly(config.SeedSupervisorWhatsapp)
	if whatsapp == "" || config.SeedSupervisorPassword == "" {
		log.Info("No bootstrap supervisor configured, skipping")
		return nil
	}

	var existing Manager
	err := db.Where("whatsapp = ?", whatsapp).First(&existing).Error
	if err == nil {
		log.Debug("Supervisor already exists", "whatsapp", whatsapp)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return log.Err("failed to look up supervisor", err)
	}

	hash, err := services.NewPasswordService(config).Hash(config.SeedSupervisorPassword)
	if err != nil {
		return log.Err("failed to hash supervisor password", err)
	}

	supervisor := Manager{
		Name:     "Supervisor",
		Whatsapp: whatsapp,
		Password: hash,
		Role:     RoleSupervisor,
	}
	if err := db.Create(&supervisor).Error; err != nil {
		return log.Err("failed to create supervisor", err, "whatsapp", whatsapp)
	}

	log.Info("Created bootstrap supervisor", "whatsapp", whatsapp)
	return nil
}
