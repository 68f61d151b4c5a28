package models

import (
	"time"

	"github.com/google/uuid"
)

type SignerRole string

const (
	SignerSupervisor SignerRole = "supervisor"
	SignerClient     SignerRole = "client"
)

func (r SignerRole) IsValid() bool {
	return r == SignerSupervisor || r == SignerClient
}

// ContractSignature is append-only: at most one row per (contract, role).
type ContractSignature struct {
	BaseUUIDModel
	ContractID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_contract_signatures_contract_role,priority:1" json:"contractId"`
	Contract      *Contract  `gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE"                                json:"-"`
	SignedBy      SignerRole `gorm:"type:varchar(20);not null;uniqueIndex:idx_contract_signatures_contract_role,priority:2" json:"signedBy"`
	SignatureData string     `gorm:"type:text;not null"                                                                json:"signatureData"`
	SignatureHash string     `gorm:"type:char(64);not null"                                                            json:"signatureHash"`
	SignedAt      time.Time  `gorm:"type:timestamptz;not null"                                                         json:"signedAt"`
}

func SignerRoles(signatures []ContractSignature) []SignerRole {
	roles := make([]SignerRole, 0, len(signatures))
	for _, sig := range signatures {
		roles = append(roles, sig.SignedBy)
	}
	return roles
}
