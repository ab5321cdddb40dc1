package models

import "time"

// Template представляет шаблон сообщения, принадлежащий пользователю.
// Шаблон нельзя удалить, пока на него ссылается хотя бы одно расписание.
type Template struct {
	UID       string    `json:"uid"`
	UserUID   string    `json:"user_uid"` // Владелец шаблона
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DummyCreateTemplate используется для приёма данных нового шаблона.
type DummyCreateTemplate struct {
	UserUID  string `json:"user_uid" validate:"required,uuid"`
	Title    string `json:"title" validate:"required"`
	Message  string `json:"message" validate:"required"`
	IsActive bool   `json:"is_active"`
}

// DummyUpdateTemplate описывает частичное обновление шаблона.
type DummyUpdateTemplate struct {
	Title    *string `json:"title,omitempty"`
	Message  *string `json:"message,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
