package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

const paymentColumns = `uid, user_uid, plan_uid, plan_name, term, valid_from,
		valid_till, amount, currency, status, method, transaction_id,
		created_at, updated_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	p := &models.Payment{}
	var transactionID sql.NullString
	if err := row.Scan(&p.UID, &p.UserUID, &p.PlanUID, &p.PlanName, &p.Term,
		&p.ValidFrom, &p.ValidTill, &p.Amount, &p.Currency, &p.Status,
		&p.Method, &transactionID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if transactionID.Valid {
		p.TransactionID = &transactionID.String
	}
	return p, nil
}

// CreatePayment сохраняет платёжный снимок и возвращает созданную запись.
func (s *Storage) CreatePayment(ctx context.Context, payment models.Payment) (*models.Payment, error) {
	const op = "storage.CreatePayment"

	query := `INSERT INTO payments (user_uid, plan_uid, plan_name, term,
			      valid_from, valid_till, amount, currency, status, method, transaction_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING ` + paymentColumns
	created, err := scanPayment(s.DB.QueryRowContext(ctx, query,
		payment.UserUID, payment.PlanUID, payment.PlanName, payment.Term,
		payment.ValidFrom, payment.ValidTill, payment.Amount,
		payment.Currency, payment.Status, payment.Method, payment.TransactionID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetPayment возвращает платёж по UID.
func (s *Storage) GetPayment(ctx context.Context, paymentUID string) (*models.Payment, error) {
	const op = "storage.GetPayment"

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE uid = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, paymentUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("payment not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPayments возвращает все платежи, новые первыми.
func (s *Storage) ListPayments(ctx context.Context) ([]*models.Payment, error) {
	const op = "storage.ListPayments"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListPaymentsByUser возвращает платежи пользователя, новые первыми.
func (s *Storage) ListPaymentsByUser(ctx context.Context, userUID string) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsByUser"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_uid = $1 ORDER BY created_at DESC`,
		userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdatePayment применяет административную правку платежа.
func (s *Storage) UpdatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	const op = "storage.UpdatePayment"

	query := `UPDATE payments
			  SET status = $1, method = $2, transaction_id = $3, updated_at = now()
			  WHERE uid = $4
			  RETURNING ` + paymentColumns
	updated, err := scanPayment(s.DB.QueryRowContext(ctx, query,
		payment.Status, payment.Method, payment.TransactionID, payment.UID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("payment not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeletePayment удаляет платёж по UID и возвращает удалённую запись.
func (s *Storage) DeletePayment(ctx context.Context, paymentUID string) (*models.Payment, error) {
	const op = "storage.DeletePayment"

	query := `DELETE FROM payments WHERE uid = $1 RETURNING ` + paymentColumns
	deleted, err := scanPayment(s.DB.QueryRowContext(ctx, query, paymentUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("payment not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return deleted, nil
}

// DeleteAllPayments удаляет все платежи и возвращает их количество.
func (s *Storage) DeleteAllPayments(ctx context.Context) (int64, error) {
	const op = "storage.DeleteAllPayments"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM payments`)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
