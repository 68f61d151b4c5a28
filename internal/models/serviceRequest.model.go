package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TerrainType string

const (
	TerrainFlat   TerrainType = "plano"
	TerrainSloped TerrainType = "inclinado"
	TerrainRocky  TerrainType = "rochoso"
)

func (t TerrainType) IsValid() bool {
	switch t {
	case TerrainFlat, TerrainSloped, TerrainRocky:
		return true
	}
	return false
}

type ServiceRequestStatus string

const (
	RequestStatusPending     ServiceRequestStatus = "pendente"
	RequestStatusConfirmed   ServiceRequestStatus = "confirmado"
	RequestStatusRescheduled ServiceRequestStatus = "remarcado"
	RequestStatusCompleted   ServiceRequestStatus = "concluido"
	RequestStatusCancelled   ServiceRequestStatus = "cancelado"
)

func (s ServiceRequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending,
		RequestStatusConfirmed,
		RequestStatusRescheduled,
		RequestStatusCompleted,
		RequestStatusCancelled:
		return true
	}
	return false
}

type ServiceRequest struct {
	BaseUUIDModel
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"userId,omitempty"`
	User   *User      `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`

	Name     string  `gorm:"type:varchar(255);not null"      json:"name"`
	Whatsapp string  `gorm:"type:varchar(20);not null;index" json:"whatsapp"`
	Email    *string `gorm:"type:varchar(255)"               json:"email,omitempty"`

	CEP          string `gorm:"column:cep;type:varchar(8);not null" json:"cep"`
	Street       string `gorm:"type:varchar(255);not null"          json:"street"`
	Number       string `gorm:"type:varchar(20);not null"           json:"number"`
	Neighborhood string `gorm:"type:varchar(255);not null"          json:"neighborhood"`
	City         string `gorm:"type:varchar(255);not null"          json:"city"`
	State        string `gorm:"type:char(2);not null"               json:"state"`

	TerrainType     TerrainType `gorm:"type:varchar(20);not null" json:"terrainType"`
	HasWaterNetwork bool        `gorm:"type:bool;not null"        json:"hasWaterNetwork"`
	Description     string      `gorm:"type:text"                 json:"description"`

	PreferredDate datatypes.Date `gorm:"type:date;not null;index" json:"preferredDate"`
	PreferredTime datatypes.Time `gorm:"type:time;not null"       json:"preferredTime"`

	Status      ServiceRequestStatus `gorm:"type:varchar(20);not null;default:'pendente';index" json:"status"`
	SubmittedAt time.Time            `gorm:"autoCreateTime;index"                              json:"submittedAt"`

	Contract *Contract `gorm:"foreignKey:ServiceRequestID" json:"contract,omitempty"`
}

// IsOwnedBy reports whether the request was submitted by, or on behalf of, the user.
func (r *ServiceRequest) IsOwnedBy(p *Principal) bool {
	if r == nil || p == nil {
		return false
	}
	if r.UserID != nil && *r.UserID == p.ID {
		return true
	}
	return p.Whatsapp != "" && r.Whatsapp == p.Whatsapp
}
