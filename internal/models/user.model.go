package models

import "github.com/google/uuid"

type Role string

const (
	RoleUser       Role = "user"
	RoleSales      Role = "sales"
	RoleSupervisor Role = "supervisor"
)

func (r Role) IsStaff() bool {
	return r == RoleSales || r == RoleSupervisor
}

// User is a customer account.
type User struct {
	BaseUUIDModel
	Name     string  `gorm:"type:varchar(255);not null"             json:"name"`
	Whatsapp string  `gorm:"type:varchar(20);not null;uniqueIndex"  json:"whatsapp"`
	Email    *string `gorm:"type:varchar(255)"                      json:"email,omitempty"`
	Password string  `gorm:"type:varchar(255);not null"             json:"-"`
}

// Principal is the identity carried by a verified access token.
type Principal struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Whatsapp string    `json:"whatsapp"`
	Role     Role      `json:"role"`
}

func (p *Principal) IsStaff() bool {
	return p != nil && p.Role.IsStaff()
}

func (p *Principal) IsSupervisor() bool {
	return p != nil && p.Role == RoleSupervisor
}

func (u *User) ToPrincipal() *Principal {
	return &Principal{
		ID:       u.ID,
		Name:     u.Name,
		Whatsapp: u.Whatsapp,
		Role:     RoleUser,
	}
}
