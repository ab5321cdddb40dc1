package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

const scheduleColumns = `uid, title, user_uid, template_uid, start_date,
		end_date, is_active, created_at, updated_at`

func scanSchedule(row rowScanner) (*models.Schedule, error) {
	sch := &models.Schedule{}
	if err := row.Scan(&sch.UID, &sch.Title, &sch.UserUID, &sch.TemplateUID,
		&sch.StartDate, &sch.EndDate, &sch.IsActive, &sch.CreatedAt, &sch.UpdatedAt); err != nil {
		return nil, err
	}
	return sch, nil
}

// CreateSchedule сохраняет новое расписание и возвращает созданную запись.
func (s *Storage) CreateSchedule(ctx context.Context, schedule models.Schedule) (*models.Schedule, error) {
	const op = "storage.CreateSchedule"

	query := `INSERT INTO schedules (title, user_uid, template_uid, start_date, end_date, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + scheduleColumns
	created, err := scanSchedule(s.DB.QueryRowContext(ctx, query,
		schedule.Title, schedule.UserUID, schedule.TemplateUID,
		schedule.StartDate, schedule.EndDate, schedule.IsActive))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetSchedule возвращает расписание по UID.
func (s *Storage) GetSchedule(ctx context.Context, scheduleUID string) (*models.Schedule, error) {
	const op = "storage.GetSchedule"

	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE uid = $1`
	sch, err := scanSchedule(s.DB.QueryRowContext(ctx, query, scheduleUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("schedule not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sch, nil
}

// ListSchedules возвращает все расписания, новые первыми.
func (s *Storage) ListSchedules(ctx context.Context) ([]*models.Schedule, error) {
	const op = "storage.ListSchedules"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Schedule
	for rows.Next() {
		sch, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sch)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListSchedulesByUser возвращает расписания пользователя, отсортированные
// по дате начала.
func (s *Storage) ListSchedulesByUser(ctx context.Context, userUID string) ([]*models.Schedule, error) {
	const op = "storage.ListSchedulesByUser"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules WHERE user_uid = $1 ORDER BY start_date ASC`,
		userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Schedule
	for rows.Next() {
		sch, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sch)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateSchedule перезаписывает изменяемые поля расписания.
func (s *Storage) UpdateSchedule(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error) {
	const op = "storage.UpdateSchedule"

	query := `UPDATE schedules
			  SET title = $1, start_date = $2, end_date = $3, is_active = $4,
			      updated_at = now()
			  WHERE uid = $5
			  RETURNING ` + scheduleColumns
	updated, err := scanSchedule(s.DB.QueryRowContext(ctx, query,
		schedule.Title, schedule.StartDate, schedule.EndDate, schedule.IsActive, schedule.UID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("schedule not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeleteSchedule удаляет расписание по UID и возвращает удалённую запись.
func (s *Storage) DeleteSchedule(ctx context.Context, scheduleUID string) (*models.Schedule, error) {
	const op = "storage.DeleteSchedule"

	query := `DELETE FROM schedules WHERE uid = $1 RETURNING ` + scheduleColumns
	deleted, err := scanSchedule(s.DB.QueryRowContext(ctx, query, scheduleUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("schedule not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return deleted, nil
}

// DeleteAllSchedules удаляет все расписания и возвращает их количество.
func (s *Storage) DeleteAllSchedules(ctx context.Context) (int64, error) {
	const op = "storage.DeleteAllSchedules"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM schedules`)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// TemplateInUse сообщает, ссылается ли хотя бы одно расписание на шаблон.
func (s *Storage) TemplateInUse(ctx context.Context, templateUID string) (bool, error) {
	const op = "storage.TemplateInUse"

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM schedules WHERE template_uid = $1)`
	if err := s.DB.QueryRowContext(ctx, query, templateUID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}
