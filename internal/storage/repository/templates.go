package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

const templateColumns = `uid, user_uid, title, message, is_active, created_at, updated_at`

func scanTemplate(row rowScanner) (*models.Template, error) {
	t := &models.Template{}
	if err := row.Scan(&t.UID, &t.UserUID, &t.Title, &t.Message, &t.IsActive,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTemplate сохраняет новый шаблон и возвращает созданную запись.
func (s *Storage) CreateTemplate(ctx context.Context, template models.Template) (*models.Template, error) {
	const op = "storage.CreateTemplate"

	query := `INSERT INTO templates (user_uid, title, message, is_active)
			  VALUES ($1, $2, $3, $4)
			  RETURNING ` + templateColumns
	created, err := scanTemplate(s.DB.QueryRowContext(ctx, query,
		template.UserUID, template.Title, template.Message, template.IsActive))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetTemplate возвращает шаблон по UID.
func (s *Storage) GetTemplate(ctx context.Context, templateUID string) (*models.Template, error) {
	const op = "storage.GetTemplate"

	query := `SELECT ` + templateColumns + ` FROM templates WHERE uid = $1`
	t, err := scanTemplate(s.DB.QueryRowContext(ctx, query, templateUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("template not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// ListTemplates возвращает все шаблоны, новые первыми.
func (s *Storage) ListTemplates(ctx context.Context) ([]*models.Template, error) {
	const op = "storage.ListTemplates"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM templates ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
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

// ListTemplatesByUser возвращает шаблоны пользователя, новые первыми.
func (s *Storage) ListTemplatesByUser(ctx context.Context, userUID string) ([]*models.Template, error) {
	const op = "storage.ListTemplatesByUser"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE user_uid = $1 ORDER BY created_at DESC`,
		userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
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

// UpdateTemplate перезаписывает изменяемые поля шаблона.
func (s *Storage) UpdateTemplate(ctx context.Context, template *models.Template) (*models.Template, error) {
	const op = "storage.UpdateTemplate"

	query := `UPDATE templates
			  SET title = $1, message = $2, is_active = $3, updated_at = now()
			  WHERE uid = $4
			  RETURNING ` + templateColumns
	updated, err := scanTemplate(s.DB.QueryRowContext(ctx, query,
		template.Title, template.Message, template.IsActive, template.UID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("template not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeleteTemplateTx удаляет шаблон в транзакции, предварительно убедившись,
// что на него не ссылается ни одно расписание. Проверка и удаление идут
// в одной транзакции, чтобы конкурентное создание расписания не оставило
// висячую ссылку.
func (s *Storage) DeleteTemplateTx(ctx context.Context, templateUID string) (*models.Template, error) {
	const op = "storage.DeleteTemplateTx"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var inUse bool
	checkQuery := `SELECT EXISTS (SELECT 1 FROM schedules WHERE template_uid = $1)`
	if err = tx.QueryRowContext(ctx, checkQuery, templateUID).Scan(&inUse); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if inUse {
		return nil, domain.Conflict("template is used in a schedule and cannot be deleted")
	}

	deleteQuery := `DELETE FROM templates WHERE uid = $1 RETURNING ` + templateColumns
	deleted, err := scanTemplate(tx.QueryRowContext(ctx, deleteQuery, templateUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("template not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return deleted, nil
}

// DeleteAllTemplates удаляет все шаблоны и возвращает их количество.
func (s *Storage) DeleteAllTemplates(ctx context.Context) (int64, error) {
	const op = "storage.DeleteAllTemplates"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM templates`)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
