package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

const tenantColumns = `uid, name, location, description, admin_uid,
		current_staff_count, max_staff_count, created_at, updated_at`

func scanTenant(row rowScanner) (*models.Tenant, error) {
	t := &models.Tenant{}
	if err := row.Scan(&t.UID, &t.Name, &t.Location, &t.Description, &t.AdminUID,
		&t.CurrentStaffCount, &t.MaxStaffCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTenant сохраняет нового тенанта и возвращает созданную запись.
func (s *Storage) CreateTenant(ctx context.Context, tenant models.Tenant) (*models.Tenant, error) {
	const op = "storage.CreateTenant"

	query := `INSERT INTO tenants (name, location, description, admin_uid, max_staff_count)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + tenantColumns
	created, err := scanTenant(s.DB.QueryRowContext(ctx, query,
		tenant.Name, tenant.Location, tenant.Description, tenant.AdminUID, tenant.MaxStaffCount))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetTenant возвращает тенанта по UID.
func (s *Storage) GetTenant(ctx context.Context, tenantUID string) (*models.Tenant, error) {
	const op = "storage.GetTenant"

	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE uid = $1`
	t, err := scanTenant(s.DB.QueryRowContext(ctx, query, tenantUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("tenant not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// ListTenants возвращает всех тенантов, новые первыми.
func (s *Storage) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	const op = "storage.ListTenants"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateTenant перезаписывает изменяемые поля тенанта.
func (s *Storage) UpdateTenant(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
	const op = "storage.UpdateTenant"

	query := `UPDATE tenants
			  SET name = $1, location = $2, description = $3, max_staff_count = $4,
			      updated_at = now()
			  WHERE uid = $5
			  RETURNING ` + tenantColumns
	updated, err := scanTenant(s.DB.QueryRowContext(ctx, query,
		tenant.Name, tenant.Location, tenant.Description, tenant.MaxStaffCount, tenant.UID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("tenant not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeleteTenant удаляет тенанта по UID и возвращает удалённую запись.
func (s *Storage) DeleteTenant(ctx context.Context, tenantUID string) (*models.Tenant, error) {
	const op = "storage.DeleteTenant"

	query := `DELETE FROM tenants WHERE uid = $1 RETURNING ` + tenantColumns
	deleted, err := scanTenant(s.DB.QueryRowContext(ctx, query, tenantUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("tenant not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return deleted, nil
}

// DeleteAllTenants удаляет всех тенантов и возвращает их количество.
func (s *Storage) DeleteAllTenants(ctx context.Context) (int64, error) {
	const op = "storage.DeleteAllTenants"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM tenants`)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// AssignStaffTx атомарно привязывает пользователя к тенанту и увеличивает
// счётчик сотрудников. Условные UPDATE повторяют проверки ёмкости и
// незанятости внутри транзакции, поэтому два конкурентных назначения не
// могут превысить лимит.
func (s *Storage) AssignStaffTx(ctx context.Context, userUID, tenantUID string, isTenantAdmin bool) (*models.User, *models.Tenant, error) {
	const op = "storage.AssignStaffTx"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	tenantQuery := `UPDATE tenants
			SET current_staff_count = current_staff_count + 1, updated_at = now()
			WHERE uid = $1 AND current_staff_count < max_staff_count
			RETURNING ` + tenantColumns
	tenant, err := scanTenant(tx.QueryRowContext(ctx, tenantQuery, tenantUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.Conflict("tenant staff limit reached")
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	userQuery := `UPDATE users
			SET tenant_uid = $1, is_tenant_admin = $2, updated_at = now()
			WHERE uid = $3 AND tenant_uid IS NULL
			RETURNING ` + userColumns
	user, err := scanUser(tx.QueryRowContext(ctx, userQuery, tenantUID, isTenantAdmin, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.Conflict("user already belongs to a tenant")
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, tenant, nil
}
