// Package schedule содержит бизнес-логику расписаний рассылки.
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

// Repository описывает контракт хранилища расписаний.
type Repository interface {
	CreateSchedule(ctx context.Context, schedule models.Schedule) (*models.Schedule, error)
	GetSchedule(ctx context.Context, scheduleUID string) (*models.Schedule, error)
	ListSchedules(ctx context.Context) ([]*models.Schedule, error)
	ListSchedulesByUser(ctx context.Context, userUID string) ([]*models.Schedule, error)
	UpdateSchedule(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error)
	DeleteSchedule(ctx context.Context, scheduleUID string) (*models.Schedule, error)
	DeleteAllSchedules(ctx context.Context) (int64, error)
}

// TemplateRepository описывает доступ к шаблонам для проверки ссылки.
type TemplateRepository interface {
	GetTemplate(ctx context.Context, templateUID string) (*models.Template, error)
}

// Service реализует бизнес-логику расписаний.
type Service struct {
	schedules Repository
	templates TemplateRepository
	log       *slog.Logger
}

// New создает новый Service.
func New(schedules Repository, templates TemplateRepository, log *slog.Logger) *Service {
	return &Service{schedules: schedules, templates: templates, log: log}
}

func parseDate(value, field string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, domain.Invalid("invalid " + field + " date")
	}
	return t, nil
}

// Create создает расписание. Владелец указывается в теле, обычный
// пользователь может создать расписание только на себя. Ссылка на шаблон
// обязана указывать на существующий шаблон того же владельца.
func (s *Service) Create(ctx context.Context, caller domain.Caller, req models.DummyCreateSchedule) (*models.Schedule, error) {
	if err := domain.Authorize(caller, req.UserUID); err != nil {
		return nil, err
	}

	startDate, err := parseDate(req.StartDate, "start")
	if err != nil {
		return nil, err
	}
	endDate, err := parseDate(req.EndDate, "end")
	if err != nil {
		return nil, err
	}
	if !endDate.After(startDate) {
		return nil, domain.Invalid("end date must be after start date")
	}

	tmpl, err := s.templates.GetTemplate(ctx, req.TemplateUID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("template not found")
		}
		return nil, err
	}
	if tmpl.UserUID != req.UserUID {
		return nil, domain.Invalid("template belongs to another user")
	}

	return s.schedules.CreateSchedule(ctx, models.Schedule{
		Title:       strings.TrimSpace(req.Title),
		UserUID:     req.UserUID,
		TemplateUID: req.TemplateUID,
		StartDate:   startDate,
		EndDate:     endDate,
		IsActive:    req.IsActive,
	})
}

// Get возвращает расписание с проверкой владения.
func (s *Service) Get(ctx context.Context, caller domain.Caller, scheduleUID string) (*models.Schedule, error) {
	sch, err := s.schedules.GetSchedule(ctx, scheduleUID)
	if err != nil {
		return nil, err
	}
	if err = domain.Authorize(caller, sch.UserUID); err != nil {
		return nil, err
	}
	return sch, nil
}

// List возвращает все расписания. Маршрут закрыт административным гейтом.
func (s *Service) List(ctx context.Context) ([]*models.Schedule, error) {
	return s.schedules.ListSchedules(ctx)
}

// ListByUser возвращает расписания одного пользователя с проверкой владения.
func (s *Service) ListByUser(ctx context.Context, caller domain.Caller, userUID string) ([]*models.Schedule, error) {
	if err := domain.Authorize(caller, userUID); err != nil {
		return nil, err
	}
	return s.schedules.ListSchedulesByUser(ctx, userUID)
}

// Update применяет частичное обновление расписания с проверкой владения.
func (s *Service) Update(ctx context.Context, caller domain.Caller, scheduleUID string, patch models.DummyUpdateSchedule) (*models.Schedule, error) {
	sch, err := s.schedules.GetSchedule(ctx, scheduleUID)
	if err != nil {
		return nil, err
	}
	if err = domain.Authorize(caller, sch.UserUID); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		sch.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.StartDate != nil {
		startDate, err := parseDate(*patch.StartDate, "start")
		if err != nil {
			return nil, err
		}
		sch.StartDate = startDate
	}
	if patch.EndDate != nil {
		endDate, err := parseDate(*patch.EndDate, "end")
		if err != nil {
			return nil, err
		}
		sch.EndDate = endDate
	}
	if patch.IsActive != nil {
		sch.IsActive = *patch.IsActive
	}
	if !sch.EndDate.After(sch.StartDate) {
		return nil, domain.Invalid("end date must be after start date")
	}
	if sch.Title == "" {
		return nil, domain.Invalid("title must not be empty")
	}

	return s.schedules.UpdateSchedule(ctx, sch)
}

// Delete удаляет расписание с проверкой владения.
func (s *Service) Delete(ctx context.Context, caller domain.Caller, scheduleUID string) (*models.Schedule, error) {
	sch, err := s.schedules.GetSchedule(ctx, scheduleUID)
	if err != nil {
		return nil, err
	}
	if err = domain.Authorize(caller, sch.UserUID); err != nil {
		return nil, err
	}
	return s.schedules.DeleteSchedule(ctx, scheduleUID)
}

// DeleteAll удаляет все расписания. Маршрут закрыт административным гейтом.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	return s.schedules.DeleteAllSchedules(ctx)
}
