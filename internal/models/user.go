// Package models содержит доменные структуры системы: пользователей,
// тенантов, тарифные планы, платежи, расписания и шаблоны сообщений,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// User представляет учётную запись пользователя системы.
// Поля подписки и тенанта опциональны: nil означает отсутствие привязки.
type User struct {
	UID              string     `json:"uid"`
	Name             string     `json:"name"`
	Username         string     `json:"username"` // Уникальное, нормализованное (trim + lowercase)
	PasswordHash     string     `json:"-"`
	Role             string     `json:"role"` // user или admin
	IsSuspended      bool       `json:"is_suspended"`
	SubscriptionUID  *string    `json:"subscription_uid,omitempty"`
	SubscriptionTerm *string    `json:"subscription_term,omitempty"` // monthly или yearly
	ValidTill        *time.Time `json:"valid_till,omitempty"`
	TenantUID        *string    `json:"tenant_uid,omitempty"`
	IsTenantAdmin    bool       `json:"is_tenant_admin"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// DummyRegisterUser используется для приёма данных регистрации из JSON-запроса.
type DummyRegisterUser struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
}

// DummyLoginUser используется для приёма данных входа из JSON-запроса.
type DummyLoginUser struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// DummyUpdateUser описывает частичное обновление профиля.
// Указатели отличают отсутствующее поле от пустого значения.
type DummyUpdateUser struct {
	Name     *string `json:"name,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
}

// DummySubscribeUser описывает запрос активации тарифного плана.
type DummySubscribeUser struct {
	SubscriptionUID  string `json:"subscription_id" validate:"required,uuid"`
	SubscriptionTerm string `json:"subscription_term" validate:"required"`
}

// PublicUser — урезанное представление пользователя для ответов
// signup/login (без служебных полей).
type PublicUser struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Public возвращает представление пользователя для ответа аутентификации.
func (u *User) Public() PublicUser {
	return PublicUser{
		UID:      u.UID,
		Name:     u.Name,
		Username: u.Username,
		Role:     u.Role,
	}
}
