package models

import "time"

// Tenant представляет организацию-арендатора с ограничением на число сотрудников.
// Инвариант: CurrentStaffCount <= MaxStaffCount, счётчик растёт только при
// успешном назначении сотрудника.
type Tenant struct {
	UID               string    `json:"uid"`
	Name              string    `json:"name"`
	Location          string    `json:"location"`
	Description       string    `json:"description"`
	AdminUID          string    `json:"admin_uid"` // Владелец тенанта
	CurrentStaffCount int       `json:"current_staff_count"`
	MaxStaffCount     int       `json:"max_staff_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DummyCreateTenant используется для приёма данных нового тенанта из JSON-запроса.
type DummyCreateTenant struct {
	Name          string `json:"name" validate:"required"`
	Location      string `json:"location" validate:"required"`
	Description   string `json:"description"`
	AdminUID      string `json:"admin_uid" validate:"required,uuid"`
	MaxStaffCount int    `json:"max_staff_count" validate:"required,gt=0"`
}

// DummyUpdateTenant описывает частичное обновление тенанта.
type DummyUpdateTenant struct {
	Name          *string `json:"name,omitempty"`
	Location      *string `json:"location,omitempty"`
	Description   *string `json:"description,omitempty"`
	MaxStaffCount *int    `json:"max_staff_count,omitempty"`
}

// DummyAssignStaff описывает запрос назначения пользователя сотрудником тенанта.
type DummyAssignStaff struct {
	Username      string `json:"username" validate:"required"`
	IsTenantAdmin bool   `json:"is_tenant_admin"`
}
