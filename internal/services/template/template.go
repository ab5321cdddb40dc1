// Package template содержит бизнес-логику шаблонов сообщений.
package template

import (
	"context"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

// Repository описывает контракт хранилища шаблонов.
type Repository interface {
	CreateTemplate(ctx context.Context, template models.Template) (*models.Template, error)
	GetTemplate(ctx context.Context, templateUID string) (*models.Template, error)
	ListTemplates(ctx context.Context) ([]*models.Template, error)
	ListTemplatesByUser(ctx context.Context, userUID string) ([]*models.Template, error)
	UpdateTemplate(ctx context.Context, template *models.Template) (*models.Template, error)
	// DeleteTemplateTx удаляет шаблон, предварительно убедившись в той же
	// транзакции, что на него не ссылается ни одно расписание.
	DeleteTemplateTx(ctx context.Context, templateUID string) (*models.Template, error)
	DeleteAllTemplates(ctx context.Context) (int64, error)
}

// Service реализует бизнес-логику шаблонов.
type Service struct {
	templates Repository
	log       *slog.Logger
}

// New создает новый Service.
func New(templates Repository, log *slog.Logger) *Service {
	return &Service{templates: templates, log: log}
}

// Create создает шаблон. Владелец указывается в теле, обычный пользователь
// может создать шаблон только на себя.
func (s *Service) Create(ctx context.Context, caller domain.Caller, req models.DummyCreateTemplate) (*models.Template, error) {
	if err := domain.Authorize(caller, req.UserUID); err != nil {
		return nil, err
	}
	return s.templates.CreateTemplate(ctx, models.Template{
		UserUID:  req.UserUID,
		Title:    strings.TrimSpace(req.Title),
		Message:  req.Message,
		IsActive: req.IsActive,
	})
}

// Get возвращает шаблон с проверкой владения.
func (s *Service) Get(ctx context.Context, caller domain.Caller, templateUID string) (*models.Template, error) {
	t, err := s.templates.GetTemplate(ctx, templateUID)
	if err != nil {
		return nil, err
	}
	if err = domain.Authorize(caller, t.UserUID); err != nil {
		return nil, err
	}
	return t, nil
}

// List возвращает все шаблоны. Маршрут закрыт административным гейтом.
func (s *Service) List(ctx context.Context) ([]*models.Template, error) {
	return s.templates.ListTemplates(ctx)
}

// ListByUser возвращает шаблоны одного пользователя с проверкой владения.
func (s *Service) ListByUser(ctx context.Context, caller domain.Caller, userUID string) ([]*models.Template, error) {
	if err := domain.Authorize(caller, userUID); err != nil {
		return nil, err
	}
	return s.templates.ListTemplatesByUser(ctx, userUID)
}

// Update применяет частичное обновление шаблона с проверкой владения.
func (s *Service) Update(ctx context.Context, caller domain.Caller, templateUID string, patch models.DummyUpdateTemplate) (*models.Template, error) {
	t, err := s.templates.GetTemplate(ctx, templateUID)
	if err != nil {
		return nil, err
	}
	if err = domain.Authorize(caller, t.UserUID); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		t.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Message != nil {
		t.Message = *patch.Message
	}
	if patch.IsActive != nil {
		t.IsActive = *patch.IsActive
	}
	if t.Title == "" || t.Message == "" {
		return nil, domain.Invalid("title and message must not be empty")
	}

	return s.templates.UpdateTemplate(ctx, t)
}

// Delete удаляет шаблон с проверкой владения. Шаблон, на который ссылается
// расписание, удалить нельзя.
func (s *Service) Delete(ctx context.Context, caller domain.Caller, templateUID string) (*models.Template, error) {
	t, err := s.templates.GetTemplate(ctx, templateUID)
	if err != nil {
		return nil, err
	}
	if err = domain.Authorize(caller, t.UserUID); err != nil {
		return nil, err
	}
	return s.templates.DeleteTemplateTx(ctx, templateUID)
}

// DeleteAll удаляет все шаблоны. Маршрут закрыт административным гейтом.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	return s.templates.DeleteAllTemplates(ctx)
}
