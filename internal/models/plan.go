package models

import "time"

// Plan представляет тарифный план из каталога подписок.
// Каталог редактируется только администраторами и читается всеми.
type Plan struct {
	UID          string    `json:"uid"`
	Name         string    `json:"name"`
	Description  []string  `json:"description"` // Список пунктов тарифа
	MonthlyPrice float64   `json:"monthly_price"`
	YearlyPrice  float64   `json:"yearly_price"`
	StaffLimit   int       `json:"staff_limit"` // 0 означает запрет на сотрудников
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DummyCreatePlan используется для приёма данных нового тарифа из JSON-запроса.
type DummyCreatePlan struct {
	Name         string   `json:"name" validate:"required"`
	Description  []string `json:"description" validate:"required,min=1"`
	MonthlyPrice float64  `json:"monthly_price" validate:"gte=0"`
	YearlyPrice  float64  `json:"yearly_price" validate:"gte=0"`
	StaffLimit   int      `json:"staff_limit" validate:"gte=0"`
}

// DummyUpdatePlan описывает частичное обновление тарифа.
type DummyUpdatePlan struct {
	Name         *string   `json:"name,omitempty"`
	Description  *[]string `json:"description,omitempty"`
	MonthlyPrice *float64  `json:"monthly_price,omitempty"`
	YearlyPrice  *float64  `json:"yearly_price,omitempty"`
	StaffLimit   *int      `json:"staff_limit,omitempty"`
}
