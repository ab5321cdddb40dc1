package tenant_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
	tenantservice "github.com/magabrotheeeer/tenant-hub/internal/services/tenant"
)

// Мок для Repository
type TenantRepoMock struct {
	mock.Mock
}

func (m *TenantRepoMock) CreateTenant(ctx context.Context, tenant models.Tenant) (*models.Tenant, error) {
	args := m.Called(ctx, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *TenantRepoMock) GetTenant(ctx context.Context, tenantUID string) (*models.Tenant, error) {
	args := m.Called(ctx, tenantUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *TenantRepoMock) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *TenantRepoMock) UpdateTenant(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
	args := m.Called(ctx, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *TenantRepoMock) DeleteTenant(ctx context.Context, tenantUID string) (*models.Tenant, error) {
	args := m.Called(ctx, tenantUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *TenantRepoMock) DeleteAllTenants(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TenantRepoMock) AssignStaffTx(ctx context.Context, userUID, tenantUID string, isTenantAdmin bool) (*models.User, *models.Tenant, error) {
	args := m.Called(ctx, userUID, tenantUID, isTenantAdmin)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(*models.Tenant), args.Error(2)
}

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newService(tenants *TenantRepoMock, users *UserRepoMock) *tenantservice.Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return tenantservice.New(tenants, users, log)
}

func TestTenantService_Create(t *testing.T) {
	t.Run("user creates tenant for himself", func(t *testing.T) {
		repo := new(TenantRepoMock)
		svc := newService(repo, new(UserRepoMock))

		repo.On("CreateTenant", mock.Anything, mock.MatchedBy(func(tn models.Tenant) bool {
			return tn.AdminUID == "uid-1" && tn.MaxStaffCount == 5
		})).Return(&models.Tenant{UID: "tenant-1", AdminUID: "uid-1"}, nil).Once()

		got, err := svc.Create(context.Background(),
			domain.Caller{UserUID: "uid-1", Role: "user"},
			models.DummyCreateTenant{Name: "Acme", Location: "Pune", AdminUID: "uid-1", MaxStaffCount: 5})
		require.NoError(t, err)
		assert.Equal(t, "tenant-1", got.UID)
		repo.AssertExpectations(t)
	})

	t.Run("user cannot create tenant for another user", func(t *testing.T) {
		repo := new(TenantRepoMock)
		svc := newService(repo, new(UserRepoMock))

		_, err := svc.Create(context.Background(),
			domain.Caller{UserUID: "uid-2", Role: "user"},
			models.DummyCreateTenant{Name: "Acme", Location: "Pune", AdminUID: "uid-1", MaxStaffCount: 5})
		assert.True(t, errors.Is(err, domain.ErrForbidden))
		repo.AssertNotCalled(t, "CreateTenant")
	})

	t.Run("admin creates tenant for anyone", func(t *testing.T) {
		repo := new(TenantRepoMock)
		svc := newService(repo, new(UserRepoMock))

		repo.On("CreateTenant", mock.Anything, mock.Anything).
			Return(&models.Tenant{UID: "tenant-1", AdminUID: "uid-1"}, nil).Once()

		_, err := svc.Create(context.Background(),
			domain.Caller{UserUID: "uid-admin", Role: "admin"},
			models.DummyCreateTenant{Name: "Acme", Location: "Pune", AdminUID: "uid-1", MaxStaffCount: 5})
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestTenantService_Update_MaxStaffBelowCurrent(t *testing.T) {
	repo := new(TenantRepoMock)
	svc := newService(repo, new(UserRepoMock))

	repo.On("GetTenant", mock.Anything, "tenant-1").
		Return(&models.Tenant{UID: "tenant-1", Name: "Acme", Location: "Pune",
			AdminUID: "uid-1", CurrentStaffCount: 3, MaxStaffCount: 5}, nil).Once()

	newMax := 2
	_, err := svc.Update(context.Background(),
		domain.Caller{UserUID: "uid-1", Role: "user"},
		"tenant-1", models.DummyUpdateTenant{MaxStaffCount: &newMax})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	repo.AssertNotCalled(t, "UpdateTenant")
}

func TestTenantService_AssignStaff(t *testing.T) {
	caller := domain.Caller{UserUID: "uid-owner", Role: "user"}
	freeUser := func() *models.User {
		return &models.User{UID: "uid-staff", Username: "staffer"}
	}
	tenant := func(current, max int) *models.Tenant {
		return &models.Tenant{UID: "tenant-1", AdminUID: "uid-owner",
			CurrentStaffCount: current, MaxStaffCount: max}
	}

	t.Run("successful assignment", func(t *testing.T) {
		tenants := new(TenantRepoMock)
		users := new(UserRepoMock)
		svc := newService(tenants, users)

		users.On("GetUserByUsername", mock.Anything, "staffer").Return(freeUser(), nil).Once()
		tenants.On("GetTenant", mock.Anything, "tenant-1").Return(tenant(1, 5), nil).Once()
		tenantUID := "tenant-1"
		tenants.On("AssignStaffTx", mock.Anything, "uid-staff", "tenant-1", true).
			Return(&models.User{UID: "uid-staff", TenantUID: &tenantUID, IsTenantAdmin: true},
				tenant(2, 5), nil).Once()

		got, err := svc.AssignStaff(context.Background(), caller, "tenant-1",
			models.DummyAssignStaff{Username: " Staffer ", IsTenantAdmin: true})
		require.NoError(t, err)
		assert.Equal(t, "tenant-1", *got.TenantUID)
		assert.True(t, got.IsTenantAdmin)
		tenants.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("unknown username gives not found", func(t *testing.T) {
		tenants := new(TenantRepoMock)
		users := new(UserRepoMock)
		svc := newService(tenants, users)

		users.On("GetUserByUsername", mock.Anything, "ghost").
			Return(nil, domain.NotFound("user not found")).Once()

		_, err := svc.AssignStaff(context.Background(), caller, "tenant-1",
			models.DummyAssignStaff{Username: "ghost"})
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		tenants.AssertNotCalled(t, "GetTenant")
	})

	t.Run("user already in a tenant gives conflict", func(t *testing.T) {
		tenants := new(TenantRepoMock)
		users := new(UserRepoMock)
		svc := newService(tenants, users)

		other := "tenant-other"
		users.On("GetUserByUsername", mock.Anything, "staffer").
			Return(&models.User{UID: "uid-staff", Username: "staffer", TenantUID: &other}, nil).Once()

		_, err := svc.AssignStaff(context.Background(), caller, "tenant-1",
			models.DummyAssignStaff{Username: "staffer"})
		assert.True(t, errors.Is(err, domain.ErrConflict))
		assert.Contains(t, err.Error(), "already belongs to a tenant")
	})

	t.Run("foreign tenant is forbidden", func(t *testing.T) {
		tenants := new(TenantRepoMock)
		users := new(UserRepoMock)
		svc := newService(tenants, users)

		users.On("GetUserByUsername", mock.Anything, "staffer").Return(freeUser(), nil).Once()
		tenants.On("GetTenant", mock.Anything, "tenant-1").
			Return(&models.Tenant{UID: "tenant-1", AdminUID: "uid-other",
				CurrentStaffCount: 0, MaxStaffCount: 5}, nil).Once()

		_, err := svc.AssignStaff(context.Background(), caller, "tenant-1",
			models.DummyAssignStaff{Username: "staffer"})
		assert.True(t, errors.Is(err, domain.ErrForbidden))
		tenants.AssertNotCalled(t, "AssignStaffTx")
	})

	t.Run("full tenant gives conflict", func(t *testing.T) {
		tenants := new(TenantRepoMock)
		users := new(UserRepoMock)
		svc := newService(tenants, users)

		users.On("GetUserByUsername", mock.Anything, "staffer").Return(freeUser(), nil).Once()
		tenants.On("GetTenant", mock.Anything, "tenant-1").Return(tenant(5, 5), nil).Once()

		_, err := svc.AssignStaff(context.Background(), caller, "tenant-1",
			models.DummyAssignStaff{Username: "staffer"})
		assert.True(t, errors.Is(err, domain.ErrConflict))
		assert.Contains(t, err.Error(), "staff limit reached")
		tenants.AssertNotCalled(t, "AssignStaffTx")
	})

	t.Run("conflict from racing assignment is passed through", func(t *testing.T) {
		tenants := new(TenantRepoMock)
		users := new(UserRepoMock)
		svc := newService(tenants, users)

		users.On("GetUserByUsername", mock.Anything, "staffer").Return(freeUser(), nil).Once()
		tenants.On("GetTenant", mock.Anything, "tenant-1").Return(tenant(4, 5), nil).Once()
		tenants.On("AssignStaffTx", mock.Anything, "uid-staff", "tenant-1", false).
			Return(nil, nil, domain.Conflict("tenant staff limit reached")).Once()

		_, err := svc.AssignStaff(context.Background(), caller, "tenant-1",
			models.DummyAssignStaff{Username: "staffer"})
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})
}
