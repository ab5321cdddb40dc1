package models

import "time"

// Schedule представляет расписание рассылки, ссылающееся на шаблон сообщения.
type Schedule struct {
	UID         string    `json:"uid"`
	Title       string    `json:"title"`
	UserUID     string    `json:"user_uid"` // Владелец расписания
	TemplateUID string    `json:"template_uid"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DummyCreateSchedule используется для приёма данных нового расписания.
// Даты приходят строками в формате RFC3339 и парсятся вручную.
type DummyCreateSchedule struct {
	Title       string `json:"title" validate:"required"`
	UserUID     string `json:"user_uid" validate:"required,uuid"`
	TemplateUID string `json:"template_uid" validate:"required,uuid"`
	StartDate   string `json:"start_date" validate:"required"`
	EndDate     string `json:"end_date" validate:"required"`
	IsActive    bool   `json:"is_active"`
}

// DummyUpdateSchedule описывает частичное обновление расписания.
type DummyUpdateSchedule struct {
	Title     *string `json:"title,omitempty"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}
