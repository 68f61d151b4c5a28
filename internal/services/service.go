package services

import (
	"martinspocos/config"
	"martinspocos/internal/database"
)

type Service struct {
	Transaction Transactor
	Token       *TokenService
	Password    *PasswordService
	Scheduler   *SchedulerService
	Export      *ExportService
}

func New(db database.DB, config config.Config) (Service, error) {
	return Service{
		Transaction: NewTransactionService(db),
		Token:       NewTokenService(config),
		Password:    NewPasswordService(config),
		Scheduler:   NewSchedulerService(),
		Export:      NewExportService(),
	}, nil
}
