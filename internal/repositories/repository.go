package repositories

import (
	"martinspocos/internal/database"
)

type Repository struct {
	User              UserRepository
	Manager           ManagerRepository
	ServiceRequest    ServiceRequestRepository
	Contract          ContractRepository
	ContractSignature ContractSignatureRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:              NewUserRepository(),
		Manager:           NewManagerRepository(db.Cache.Session),
		ServiceRequest:    NewServiceRequestRepository(),
		Contract:          NewContractRepository(db.Cache.Contract),
		ContractSignature: NewContractSignatureRepository(),
	}
}
