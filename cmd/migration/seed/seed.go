package seed

import (
	"time"

	"martinspocos/config"
	. "martinspocos/internal/models"
	"martinspocos/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const seedPassword = "password"

func stringPtr(s string) *string {
	return &s
}

func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	hash, err := services.NewPasswordService(config).Hash(seedPassword)
	if err != nil {
		return log.Err("failed to hash seed password", err)
	}

	managers := []Manager{
		{
			Name:     "Vendas Teste",
			Whatsapp: "35900000001",
			Email:    stringPtr("vendas@example.com"),
			Password: hash,
			Role:     RoleSales,
		},
	}
	for _, manager := range managers {
		log.Info("Seeding manager", "whatsapp", manager.Whatsapp, "role", manager.Role)
		if err := db.Create(&manager).Error; err != nil {
			log.Er("failed to create manager", err, "whatsapp", manager.Whatsapp)
		}
	}

	customer := User{
		Name:     "Cliente Teste",
		Whatsapp: "35900000002",
		Email:    stringPtr("cliente@example.com"),
		Password: hash,
	}
	if err := db.Create(&customer).Error; err != nil {
		return log.Err("failed to create customer", err)
	}

	preferred := time.Now().UTC().AddDate(0, 0, 7)
	request := ServiceRequest{
		UserID:        &customer.ID,
		Name:          customer.Name,
		Whatsapp:      customer.Whatsapp,
		CEP:           "37701000",
		Street:        "Rua Assis Figueiredo",
		Number:        "100",
		Neighborhood:  "Centro",
		City:          "Poços De Caldas",
		State:         "MG",
		TerrainType:   TerrainFlat,
		Description:   "Poço artesiano para consumo doméstico",
		PreferredDate: datatypes.Date(preferred),
		PreferredTime: datatypes.NewTime(9, 0, 0, 0),
		Status:        RequestStatusCompleted,
	}
	if err := db.Create(&request).Error; err != nil {
		return log.Err("failed to create service request", err)
	}

	log.Info("Seed complete", "customer", customer.Whatsapp, "request", request.ID)
	return nil
}
