package controllers

import (
	"martinspocos/internal/database"
	"martinspocos/internal/events"
	"martinspocos/internal/repositories"
	"martinspocos/internal/services"

	authController "martinspocos/internal/controllers/auth"
	contractController "martinspocos/internal/controllers/contracts"
	managerController "martinspocos/internal/controllers/managers"
	serviceRequestController "martinspocos/internal/controllers/serviceRequests"
	userController "martinspocos/internal/controllers/users"
)

type Controllers struct {
	Auth           authController.AuthControllerInterface
	User           userController.UserControllerInterface
	Manager        managerController.ManagerControllerInterface
	ServiceRequest serviceRequestController.ServiceRequestControllerInterface
	Contract       contractController.ContractControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	eventBus events.Publisher,
	db database.DB,
) Controllers {
	return Controllers{
		Auth:           authController.New(repos, services, db),
		User:           userController.New(repos, services, db),
		Manager:        managerController.New(repos, services, db),
		ServiceRequest: serviceRequestController.New(repos, services, eventBus, db),
		Contract:       contractController.New(repos, services, eventBus, db),
	}
}
