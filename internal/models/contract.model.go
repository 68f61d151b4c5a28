package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ContractStatus string

const (
	ContractStatusPending          ContractStatus = "pending"
	ContractStatusGenerated        ContractStatus = "generated"
	ContractStatusApproved         ContractStatus = "approved"
	ContractStatusSignedSupervisor ContractStatus = "signed/supervisor"
	ContractStatusSignedClient     ContractStatus = "signed/client"
	ContractStatusCompleted        ContractStatus = "completed"
)

const ContractNumberPrefix = "CTR-"

func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractStatusPending,
		ContractStatusGenerated,
		ContractStatusApproved,
		ContractStatusSignedSupervisor,
		ContractStatusSignedClient,
		ContractStatusCompleted:
		return true
	}
	return false
}

// AllowsTermEdit is true until the first signature lands.
func (s ContractStatus) AllowsTermEdit() bool {
	switch s {
	case ContractStatusPending, ContractStatusGenerated, ContractStatusApproved:
		return true
	}
	return false
}

// IsAwaitingSignature is true while at least one party still has to sign.
func (s ContractStatus) IsAwaitingSignature() bool {
	switch s {
	case ContractStatusApproved, ContractStatusSignedSupervisor, ContractStatusSignedClient:
		return true
	}
	return false
}

// CanTransitionTo covers the direct status updates that bypass the
// signature ledger.
func (s ContractStatus) CanTransitionTo(next ContractStatus) bool {
	switch {
	case s == ContractStatusGenerated && next == ContractStatusApproved:
		return true
	case s == ContractStatusSignedClient && next == ContractStatusCompleted:
		return true
	}
	return false
}

type Contract struct {
	BaseUUIDModel
	ServiceRequestID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"            json:"serviceRequestId"`
	ServiceRequest   *ServiceRequest `gorm:"foreignKey:ServiceRequestID"              json:"serviceRequest,omitempty"`

	ClientName     string `gorm:"type:varchar(255);not null" json:"clientName"`
	ClientDocument string `gorm:"type:varchar(20);not null"  json:"clientDocument"`
	ClientAddress  string `gorm:"type:text;not null"         json:"clientAddress"`

	ServiceValue      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"serviceValue"`
	PaymentConditions string          `gorm:"type:text;not null"          json:"paymentConditions"`
	HasGuarantee      bool            `gorm:"type:bool;not null"          json:"hasGuarantee"`
	Requirements      string          `gorm:"type:text"                   json:"requirements"`
	Materials         string          `gorm:"type:text"                   json:"materials"`
	AdditionalNotes   string          `gorm:"type:text"                   json:"additionalNotes"`

	ContractNumber string         `gorm:"type:varchar(20);not null;uniqueIndex"             json:"contractNumber"`
	PDFContent     string         `gorm:"column:pdf_content;type:text"                      json:"pdfContent,omitempty"`
	Status         ContractStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SignedAt       *time.Time     `gorm:"type:timestamptz"                                  json:"signedAt,omitempty"`

	Signatures []ContractSignature `gorm:"foreignKey:ContractID" json:"signatures,omitempty"`
}

// FormatContractNumber renders CTR-<year><sequence padded to 4 digits>.
func FormatContractNumber(year int, sequence int64) string {
	return fmt.Sprintf("%s%d%04d", ContractNumberPrefix, year, sequence)
}

// DeriveContractStatus maps the set of roles that have signed to the
// contract status. The result depends only on which roles are present.
func DeriveContractStatus(roles []SignerRole) ContractStatus {
	var supervisor, client bool
	for _, role := range roles {
		switch role {
		case SignerSupervisor:
			supervisor = true
		case SignerClient:
			client = true
		}
	}

	switch {
	case supervisor && client:
		return ContractStatusCompleted
	case supervisor:
		return ContractStatusSignedSupervisor
	case client:
		return ContractStatusSignedClient
	default:
		return ContractStatusPending
	}
}
