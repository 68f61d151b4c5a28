package models

// Manager is a staff account. Sales managers triage requests and generate
// contracts; supervisors additionally approve, sign and manage staff.
type Manager struct {
	BaseUUIDModel
	Name     string  `gorm:"type:varchar(255);not null"                       json:"name"`
	Whatsapp string  `gorm:"type:varchar(20);not null;uniqueIndex"            json:"whatsapp"`
	Email    *string `gorm:"type:varchar(255);uniqueIndex"                    json:"email,omitempty"`
	Password string  `gorm:"type:varchar(255);not null"                       json:"-"`
	Role     Role    `gorm:"type:varchar(20);not null;default:'sales'"        json:"role"`
}

func (m *Manager) ToPrincipal() *Principal {
	role := m.Role
	if !role.IsStaff() {
		role = RoleSales
	}
	return &Principal{
		ID:       m.ID,
		Name:     m.Name,
		Whatsapp: m.Whatsapp,
		Role:     role,
	}
}
