package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

const userColumns = `uid, name, username, password_hash, role, is_suspended,
		subscription_uid, subscription_term, valid_till,
		tenant_uid, is_tenant_admin, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser читает пользователя из строки результата, разворачивая
// NULL-поля подписки и тенанта в указатели.
func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var subUID, subTerm, tenantUID sql.NullString
	var validTill sql.NullTime

	if err := row.Scan(&u.UID, &u.Name, &u.Username, &u.PasswordHash, &u.Role,
		&u.IsSuspended, &subUID, &subTerm, &validTill,
		&tenantUID, &u.IsTenantAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}

	if subUID.Valid {
		u.SubscriptionUID = &subUID.String
	}
	if subTerm.Valid {
		u.SubscriptionTerm = &subTerm.String
	}
	if validTill.Valid {
		u.ValidTill = &validTill.Time
	}
	if tenantUID.Valid {
		u.TenantUID = &tenantUID.String
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя и возвращает созданную запись.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"

	query := `INSERT INTO users (name, username, password_hash, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING ` + userColumns
	row := s.DB.QueryRowContext(ctx, query,
		user.Name, user.Username, user.PasswordHash, user.Role)

	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.AlreadyExists("username already taken")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("user not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByUsername возвращает пользователя по нормализованному username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("user not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListUsers возвращает всех пользователей, новые первыми.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUser перезаписывает изменяемые поля пользователя и возвращает
// обновлённую запись.
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	const op = "storage.UpdateUser"

	query := `UPDATE users
			  SET name = $1, username = $2, password_hash = $3, is_suspended = $4,
			      subscription_uid = $5, subscription_term = $6, valid_till = $7,
			      tenant_uid = $8, is_tenant_admin = $9, updated_at = now()
			  WHERE uid = $10
			  RETURNING ` + userColumns
	row := s.DB.QueryRowContext(ctx, query,
		user.Name, user.Username, user.PasswordHash, user.IsSuspended,
		user.SubscriptionUID, user.SubscriptionTerm, user.ValidTill,
		user.TenantUID, user.IsTenantAdmin, user.UID)

	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("user not found")
		}
		if isUniqueViolation(err) {
			return nil, domain.AlreadyExists("username already taken")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeleteUser удаляет пользователя по UID и возвращает удалённую запись.
func (s *Storage) DeleteUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.DeleteUser"

	query := `DELETE FROM users WHERE uid = $1 RETURNING ` + userColumns
	deleted, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("user not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return deleted, nil
}

// DeleteAllUsers удаляет всех пользователей и возвращает их количество.
func (s *Storage) DeleteAllUsers(ctx context.Context) (int64, error) {
	const op = "storage.DeleteAllUsers"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM users`)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// SubscribeUserTx атомарно создаёт платёжный снимок и обновляет поля
// подписки пользователя в одной транзакции.
func (s *Storage) SubscribeUserTx(ctx context.Context, user *models.User, payment models.Payment) (*models.User, *models.Payment, error) {
	const op = "storage.SubscribeUserTx"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertQuery := `INSERT INTO payments (user_uid, plan_uid, plan_name, term,
				valid_from, valid_till, amount, currency, status, method)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING ` + paymentColumns
	createdPayment, err := scanPayment(tx.QueryRowContext(ctx, insertQuery,
		payment.UserUID, payment.PlanUID, payment.PlanName, payment.Term,
		payment.ValidFrom, payment.ValidTill, payment.Amount,
		payment.Currency, payment.Status, payment.Method))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	updateQuery := `UPDATE users
			SET subscription_uid = $1, subscription_term = $2, valid_till = $3,
			    updated_at = now()
			WHERE uid = $4
			RETURNING ` + userColumns
	updatedUser, err := scanUser(tx.QueryRowContext(ctx, updateQuery,
		user.SubscriptionUID, user.SubscriptionTerm, user.ValidTill, user.UID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.NotFound("user not found")
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return updatedUser, createdPayment, nil
}
