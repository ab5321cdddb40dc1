// Package tenant содержит бизнес-логику работы с организациями
// и назначением сотрудников.
package tenant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

// Repository описывает контракт хранилища организаций.
type Repository interface {
	CreateTenant(ctx context.Context, tenant models.Tenant) (*models.Tenant, error)
	GetTenant(ctx context.Context, tenantUID string) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
	UpdateTenant(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error)
	DeleteTenant(ctx context.Context, tenantUID string) (*models.Tenant, error)
	DeleteAllTenants(ctx context.Context) (int64, error)
	// AssignStaffTx атомарно увеличивает счётчик сотрудников и привязывает
	// пользователя к организации.
	AssignStaffTx(ctx context.Context, userUID, tenantUID string, isTenantAdmin bool) (*models.User, *models.Tenant, error)
}

// UserRepository описывает доступ к пользователям, нужный при назначении.
type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Service реализует бизнес-логику работы с организациями.
type Service struct {
	tenants Repository
	users   UserRepository
	log     *slog.Logger
}

// New создает новый Service.
func New(tenants Repository, users UserRepository, log *slog.Logger) *Service {
	return &Service{tenants: tenants, users: users, log: log}
}

// Create создает организацию. Обычный пользователь может создать организацию
// только с собой в роли администратора.
func (s *Service) Create(ctx context.Context, caller domain.Caller, req models.DummyCreateTenant) (*models.Tenant, error) {
	if err := domain.Authorize(caller, req.AdminUID); err != nil {
		return nil, err
	}
	return s.tenants.CreateTenant(ctx, models.Tenant{
		Name:          strings.TrimSpace(req.Name),
		Location:      strings.TrimSpace(req.Location),
		Description:   req.Description,
		AdminUID:      req.AdminUID,
		MaxStaffCount: req.MaxStaffCount,
	})
}

// Get возвращает организацию с проверкой владения по admin_uid.
func (s *Service) Get(ctx context.Context, caller domain.Caller, tenantUID string) (*models.Tenant, error) {
	t, err := s.tenants.GetTenant(ctx, tenantUID)
	if err != nil {
		return nil, err
	}
	if err = domain.Authorize(caller, t.AdminUID); err != nil {
		return nil, err
	}
	return t, nil
}

// List возвращает все организации. Маршрут закрыт административным гейтом.
func (s *Service) List(ctx context.Context) ([]*models.Tenant, error) {
	return s.tenants.ListTenants(ctx)
}

// Update применяет частичное обновление организации с проверкой владения.
func (s *Service) Update(ctx context.Context, caller domain.Caller, tenantUID string, patch models.DummyUpdateTenant) (*models.Tenant, error) {
	t, err := s.tenants.GetTenant(ctx, tenantUID)
	if err != nil {
		return nil, err
	}
	if err = domain.Authorize(caller, t.AdminUID); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		t.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Location != nil {
		t.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.MaxStaffCount != nil {
		if *patch.MaxStaffCount < t.CurrentStaffCount {
			return nil, domain.Invalid("max staff count cannot be below current staff count")
		}
		t.MaxStaffCount = *patch.MaxStaffCount
	}
	if t.Name == "" || t.Location == "" {
		return nil, domain.Invalid("name and location must not be empty")
	}

	return s.tenants.UpdateTenant(ctx, t)
}

// Delete удаляет организацию с проверкой владения.
func (s *Service) Delete(ctx context.Context, caller domain.Caller, tenantUID string) (*models.Tenant, error) {
	t, err := s.tenants.GetTenant(ctx, tenantUID)
	if err != nil {
		return nil, err
	}
	if err = domain.Authorize(caller, t.AdminUID); err != nil {
		return nil, err
	}
	return s.tenants.DeleteTenant(ctx, tenantUID)
}

// DeleteAll удаляет все организации. Маршрут закрыт административным гейтом.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	return s.tenants.DeleteAllTenants(ctx)
}

// AssignStaff зачисляет пользователя в штат организации. Порядок проверок:
// существование пользователя, свободность пользователя, существование
// организации, владение, наличие свободного места. Финальная привязка
// выполняется условной транзакцией хранилища, поэтому гонка двух
// одновременных назначений не может превысить лимит штата.
func (s *Service) AssignStaff(ctx context.Context, caller domain.Caller, tenantUID string, req models.DummyAssignStaff) (*models.User, error) {
	u, err := s.users.GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(req.Username)))
	if err != nil {
		return nil, err
	}
	if u.TenantUID != nil {
		return nil, domain.Conflict("user already belongs to a tenant")
	}

	t, err := s.tenants.GetTenant(ctx, tenantUID)
	if err != nil {
		return nil, err
	}
	if err = domain.Authorize(caller, t.AdminUID); err != nil {
		return nil, err
	}
	if t.CurrentStaffCount >= t.MaxStaffCount {
		return nil, domain.Conflict("tenant staff limit reached")
	}

	assigned, updated, err := s.tenants.AssignStaffTx(ctx, u.UID, t.UID, req.IsTenantAdmin)
	if err != nil {
		return nil, err
	}

	s.log.Info("assigned staff to tenant",
		slog.String("user_uid", assigned.UID),
		slog.String("tenant_uid", updated.UID),
		slog.Int("current_staff_count", updated.CurrentStaffCount),
		slog.Bool("is_tenant_admin", req.IsTenantAdmin))
	return assigned, nil
}
