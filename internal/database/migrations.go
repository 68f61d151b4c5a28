package database

import (
	"martinspocos/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Manager{},
		&models.ServiceRequest{},
		&models.Contract{},
		&models.ContractSignature{},
	}
}

// AutoMigrate creates tables in two phases so foreign keys can reference
// tables created later in the list.
func AutoMigrate(db *gorm.DB, log logger.Logger) error {
	log = log.Function("AutoMigrate")

	log.Info("Phase 1: Creating tables without foreign key constraints")
	db.Config.DisableForeignKeyConstraintWhenMigrating = true
	for _, table := range Models() {
		if !db.Migrator().HasTable(table) {
			log.Info("Creating table structure", "table", table)
			if err := db.Migrator().CreateTable(table); err != nil {
				return log.Err("failed to create table structure", err)
			}
		}
	}

	db.Config.DisableForeignKeyConstraintWhenMigrating = false
	log.Info("Phase 2: Adding foreign key constraints and relationships")
	if err := db.AutoMigrate(Models()...); err != nil {
		return log.Err("failed to add constraints", err)
	}

	return CreateIndexes(db, log)
}

// CreateIndexes adds the indexes and checks GORM tags cannot express.
func CreateIndexes(db *gorm.DB, log logger.Logger) error {
	log = log.Function("CreateIndexes")

	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_contracts_status_updated ON contracts(status, updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_service_requests_status_date ON service_requests(status, preferred_date)`,
	}

	for _, statement := range statements {
		if err := db.Exec(statement).Error; err != nil {
			log.Warn("Failed to create index", "sql", statement, "error", err)
		}
	}

	return nil
}
