// Package payment содержит бизнес-логику работы с платёжными записями.
// Платежи создаются в основном транзакцией активации подписки; здесь
// живут ручные операции и выборки по пользователю.
package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

// Repository описывает контракт хранилища платежей.
type Repository interface {
	CreatePayment(ctx context.Context, payment models.Payment) (*models.Payment, error)
	GetPayment(ctx context.Context, paymentUID string) (*models.Payment, error)
	ListPayments(ctx context.Context) ([]*models.Payment, error)
	ListPaymentsByUser(ctx context.Context, userUID string) ([]*models.Payment, error)
	UpdatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	DeletePayment(ctx context.Context, paymentUID string) (*models.Payment, error)
	DeleteAllPayments(ctx context.Context) (int64, error)
}

// Service реализует бизнес-логику работы с платежами.
type Service struct {
	payments Repository
	log      *slog.Logger
}

// New создает новый Service.
func New(payments Repository, log *slog.Logger) *Service {
	return &Service{payments: payments, log: log}
}

// Create создает платёжную запись вручную. Владелец указывается в теле,
// обычный пользователь может создать платёж только на себя.
func (s *Service) Create(ctx context.Context, caller domain.Caller, req models.DummyCreatePayment) (*models.Payment, error) {
	if err := domain.Authorize(caller, req.UserUID); err != nil {
		return nil, err
	}

	validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		return nil, domain.Invalid("invalid valid_from date")
	}
	validTill, err := time.Parse(time.RFC3339, req.ValidTill)
	if err != nil {
		return nil, domain.Invalid("invalid valid_till date")
	}
	if !validTill.After(validFrom) {
		return nil, domain.Invalid("valid_till must be after valid_from")
	}

	currency := req.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}
	method := req.Method
	if method == "" {
		method = models.PaymentMethodUnknown
	}

	return s.payments.CreatePayment(ctx, models.Payment{
		UserUID:   req.UserUID,
		PlanUID:   req.PlanUID,
		PlanName:  req.PlanName,
		Term:      req.Term,
		ValidFrom: validFrom,
		ValidTill: validTill,
		Amount:    req.Amount,
		Currency:  currency,
		Status:    models.PaymentStatusSuccess,
		Method:    method,
	})
}

// Get возвращает платёж с проверкой владения.
func (s *Service) Get(ctx context.Context, caller domain.Caller, paymentUID string) (*models.Payment, error) {
	p, err := s.payments.GetPayment(ctx, paymentUID)
	if err != nil {
		return nil, err
	}
	if err = domain.Authorize(caller, p.UserUID); err != nil {
		return nil, err
	}
	return p, nil
}

// List возвращает все платежи. Маршрут закрыт административным гейтом.
func (s *Service) List(ctx context.Context) ([]*models.Payment, error) {
	return s.payments.ListPayments(ctx)
}

// ListByUser возвращает платежи одного пользователя с проверкой владения.
func (s *Service) ListByUser(ctx context.Context, caller domain.Caller, userUID string) ([]*models.Payment, error) {
	if err := domain.Authorize(caller, userUID); err != nil {
		return nil, err
	}
	return s.payments.ListPaymentsByUser(ctx, userUID)
}

// Update применяет административную правку платежа: статус, метод
// и идентификатор внешней транзакции. Снимок тарифа и суммы неизменяем.
func (s *Service) Update(ctx context.Context, paymentUID string, patch models.DummyUpdatePayment) (*models.Payment, error) {
	p, err := s.payments.GetPayment(ctx, paymentUID)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		switch *patch.Status {
		case models.PaymentStatusSuccess, models.PaymentStatusFailed, models.PaymentStatusRefunded:
			p.Status = *patch.Status
		default:
			return nil, domain.Invalid("unknown payment status")
		}
	}
	if patch.Method != nil {
		p.Method = *patch.Method
	}
	if patch.TransactionID != nil {
		p.TransactionID = patch.TransactionID
	}

	return s.payments.UpdatePayment(ctx, p)
}

// Delete удаляет платёж. Маршрут закрыт административным гейтом.
func (s *Service) Delete(ctx context.Context, paymentUID string) (*models.Payment, error) {
	return s.payments.DeletePayment(ctx, paymentUID)
}

// DeleteAll удаляет все платежи. Маршрут закрыт административным гейтом.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	return s.payments.DeleteAllPayments(ctx)
}
