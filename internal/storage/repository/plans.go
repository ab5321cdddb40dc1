package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

const planColumns = `uid, name, description, monthly_price, yearly_price,
		staff_limit, created_at, updated_at`

// scanPlan читает тариф из строки результата; description хранится как jsonb.
func scanPlan(row rowScanner) (*models.Plan, error) {
	p := &models.Plan{}
	var description []byte
	if err := row.Scan(&p.UID, &p.Name, &description, &p.MonthlyPrice,
		&p.YearlyPrice, &p.StaffLimit, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(description, &p.Description); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePlan сохраняет новый тарифный план и возвращает созданную запись.
func (s *Storage) CreatePlan(ctx context.Context, plan models.Plan) (*models.Plan, error) {
	const op = "storage.CreatePlan"

	description, err := json.Marshal(plan.Description)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO plans (name, description, monthly_price, yearly_price, staff_limit)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + planColumns
	created, err := scanPlan(s.DB.QueryRowContext(ctx, query,
		plan.Name, description, plan.MonthlyPrice, plan.YearlyPrice, plan.StaffLimit))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetPlan возвращает тарифный план по UID.
func (s *Storage) GetPlan(ctx context.Context, planUID string) (*models.Plan, error) {
	const op = "storage.GetPlan"

	query := `SELECT ` + planColumns + ` FROM plans WHERE uid = $1`
	p, err := scanPlan(s.DB.QueryRowContext(ctx, query, planUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("subscription not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPlans возвращает весь каталог тарифов, новые первыми.
func (s *Storage) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "storage.ListPlans"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+planColumns+` FROM plans ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
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

// UpdatePlan перезаписывает поля тарифного плана.
func (s *Storage) UpdatePlan(ctx context.Context, plan *models.Plan) (*models.Plan, error) {
	const op = "storage.UpdatePlan"

	description, err := json.Marshal(plan.Description)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE plans
			  SET name = $1, description = $2, monthly_price = $3, yearly_price = $4,
			      staff_limit = $5, updated_at = now()
			  WHERE uid = $6
			  RETURNING ` + planColumns
	updated, err := scanPlan(s.DB.QueryRowContext(ctx, query,
		plan.Name, description, plan.MonthlyPrice, plan.YearlyPrice, plan.StaffLimit, plan.UID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("subscription not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeletePlan удаляет тарифный план по UID и возвращает удалённую запись.
func (s *Storage) DeletePlan(ctx context.Context, planUID string) (*models.Plan, error) {
	const op = "storage.DeletePlan"

	query := `DELETE FROM plans WHERE uid = $1 RETURNING ` + planColumns
	deleted, err := scanPlan(s.DB.QueryRowContext(ctx, query, planUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("subscription not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return deleted, nil
}

// DeleteAllPlans удаляет весь каталог тарифов и возвращает их количество.
func (s *Storage) DeleteAllPlans(ctx context.Context) (int64, error) {
	const op = "storage.DeleteAllPlans"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM plans`)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
