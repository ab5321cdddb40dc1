package models

import "time"

// Статусы и методы платежа.
const (
	PaymentStatusSuccess  = "success"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"

	PaymentMethodUnknown = "unknown"

	DefaultCurrency = "INR"
)

// Payment — неизменяемый снимок платежа, создаваемый при активации подписки.
// Название тарифа и сумма денормализованы намеренно: запись остаётся
// исторически точной даже после изменения каталога тарифов.
type Payment struct {
	UID           string    `json:"uid"`
	UserUID       string    `json:"user_uid"`
	PlanUID       string    `json:"plan_uid"`
	PlanName      string    `json:"plan_name"` // Снимок названия тарифа на момент оплаты
	Term          string    `json:"term"`      // monthly или yearly
	ValidFrom     time.Time `json:"valid_from"`
	ValidTill     time.Time `json:"valid_till"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	Method        string    `json:"method"`
	TransactionID *string   `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DummyCreatePayment используется администратором для ручного создания платежа.
type DummyCreatePayment struct {
	UserUID   string  `json:"user_uid" validate:"required,uuid"`
	PlanUID   string  `json:"plan_uid" validate:"required,uuid"`
	PlanName  string  `json:"plan_name" validate:"required"`
	Term      string  `json:"term" validate:"required,oneof=monthly yearly"`
	ValidFrom string  `json:"valid_from" validate:"required"`
	ValidTill string  `json:"valid_till" validate:"required"`
	Amount    float64 `json:"amount" validate:"gte=0"`
	Currency  string  `json:"currency"`
	Method    string  `json:"method"`
}

// DummyUpdatePayment описывает административную правку платежа.
type DummyUpdatePayment struct {
	Status        *string `json:"status,omitempty"`
	Method        *string `json:"method,omitempty"`
	TransactionID *string `json:"transaction_id,omitempty"`
}
