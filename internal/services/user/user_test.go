package user_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	customjwt "github.com/magabrotheeeer/tenant-hub/internal/lib/jwt"
	"github.com/magabrotheeeer/tenant-hub/internal/lib/password"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
	userservice "github.com/magabrotheeeer/tenant-hub/internal/services/user"
)

// Мок для Repository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) DeleteUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) DeleteAllUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *UserRepoMock) SubscribeUserTx(ctx context.Context, user *models.User, payment models.Payment) (*models.User, *models.Payment, error) {
	args := m.Called(ctx, user, payment)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(*models.Payment), args.Error(2)
}

// Мок для PlanRepository
type PlanRepoMock struct {
	mock.Mock
}

func (m *PlanRepoMock) GetPlan(ctx context.Context, planUID string) (*models.Plan, error) {
	args := m.Called(ctx, planUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(userUID, role string) (string, error) {
	args := m.Called(userUID, role)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.Claims), args.Error(1)
}

func newService(repo *UserRepoMock, plans *PlanRepoMock, jwtMock *JwtMakerMock) *userservice.Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return userservice.New(repo, plans, jwtMock, log)
}

func TestUserService_Register(t *testing.T) {
	tests := []struct {
		name       string
		req        models.DummyRegisterUser
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantToken  string
		wantErr    bool
		errMsg     string
	}{
		{
			name: "successful registration normalizes username",
			req:  models.DummyRegisterUser{Name: "Test User", Username: "  TestUser  ", Password: "password123"},
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
					return user.Username == "testuser" &&
						user.Name == "Test User" &&
						user.PasswordHash != "" &&
						user.PasswordHash != "password123" &&
						user.Role == "user"
				})).Return(&models.User{UID: "uid-1", Username: "testuser", Role: "user"}, nil).Once()
				j.On("GenerateToken", "uid-1", "user").Return("jwt-token-123", nil).Once()
			},
			wantToken: "jwt-token-123",
		},
		{
			name: "duplicate username",
			req:  models.DummyRegisterUser{Name: "Test User", Username: "testuser", Password: "password123"},
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return(nil, domain.AlreadyExists("username already taken")).Once()
			},
			wantErr: true,
			errMsg:  "username already taken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			svc := newService(repo, new(PlanRepoMock), jwtMock)

			tt.setupMocks(repo, jwtMock)

			token, u, err := svc.Register(context.Background(), tt.req)
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				assert.NotNil(t, u)
			}

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestUserService_RegisterAdmin(t *testing.T) {
	repo := new(UserRepoMock)
	jwtMock := new(JwtMakerMock)
	svc := newService(repo, new(PlanRepoMock), jwtMock)

	repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
		return user.Role == "admin"
	})).Return(&models.User{UID: "uid-2", Role: "admin"}, nil).Once()
	jwtMock.On("GenerateToken", "uid-2", "admin").Return("admin-token", nil).Once()

	token, u, err := svc.RegisterAdmin(context.Background(),
		models.DummyRegisterUser{Name: "Admin", Username: "admin2", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "admin-token", token)
	assert.Equal(t, "admin", u.Role)
	repo.AssertExpectations(t)
}

func TestUserService_Login(t *testing.T) {
	rawPassword := "correctpassword"
	hashedPassword, err := password.GetHash(rawPassword)
	require.NoError(t, err)

	testUser := &models.User{
		UID:          "uid-1",
		Username:     "testuser",
		PasswordHash: hashedPassword,
		Role:         "user",
	}

	tests := []struct {
		name       string
		req        models.DummyLoginUser
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantToken  string
		wantErr    bool
		errMsg     string
	}{
		{
			name: "successful login",
			req:  models.DummyLoginUser{Username: "TestUser", Password: rawPassword},
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(testUser, nil).Once()
				j.On("GenerateToken", "uid-1", "user").Return("jwt-token-123", nil).Once()
			},
			wantToken: "jwt-token-123",
		},
		{
			name: "user not found",
			req:  models.DummyLoginUser{Username: "nonexistent", Password: "password"},
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "nonexistent").
					Return(nil, domain.NotFound("user not found")).Once()
			},
			wantErr: true,
			errMsg:  "user does not exist",
		},
		{
			name: "wrong password",
			req:  models.DummyLoginUser{Username: "testuser", Password: "wrongpassword"},
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(testUser, nil).Once()
			},
			wantErr: true,
			errMsg:  "incorrect password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			svc := newService(repo, new(PlanRepoMock), jwtMock)

			tt.setupMocks(repo, jwtMock)

			token, _, err := svc.Login(context.Background(), tt.req)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
			}

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestUserService_Get_Ownership(t *testing.T) {
	tests := []struct {
		name    string
		caller  domain.Caller
		stored  *models.User
		getErr  error
		wantErr error
	}{
		{
			name:   "owner reads own record",
			caller: domain.Caller{UserUID: "uid-1", Role: "user"},
			stored: &models.User{UID: "uid-1"},
		},
		{
			name:   "admin reads foreign record",
			caller: domain.Caller{UserUID: "uid-admin", Role: "admin"},
			stored: &models.User{UID: "uid-1"},
		},
		{
			name:    "foreign record is forbidden",
			caller:  domain.Caller{UserUID: "uid-2", Role: "user"},
			stored:  &models.User{UID: "uid-1"},
			wantErr: domain.ErrForbidden,
		},
		{
			// Отсутствие записи проверяется до владения
			name:    "missing record gives not found, not forbidden",
			caller:  domain.Caller{UserUID: "uid-2", Role: "user"},
			getErr:  domain.NotFound("user not found"),
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			svc := newService(repo, new(PlanRepoMock), new(JwtMakerMock))

			if tt.getErr != nil {
				repo.On("GetUser", mock.Anything, "uid-1").Return(nil, tt.getErr).Once()
			} else {
				repo.On("GetUser", mock.Anything, "uid-1").Return(tt.stored, nil).Once()
			}

			got, err := svc.Get(context.Background(), tt.caller, "uid-1")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Nil(t, got)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.stored, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestUserService_SetSuspended(t *testing.T) {
	t.Run("suspends regular user", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := newService(repo, new(PlanRepoMock), new(JwtMakerMock))

		repo.On("GetUser", mock.Anything, "uid-1").
			Return(&models.User{UID: "uid-1", Role: "user"}, nil).Once()
		repo.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.IsSuspended
		})).Return(&models.User{UID: "uid-1", Role: "user", IsSuspended: true}, nil).Once()

		got, err := svc.SetSuspended(context.Background(), "uid-1", true)
		require.NoError(t, err)
		assert.True(t, got.IsSuspended)
		repo.AssertExpectations(t)
	})

	t.Run("refuses to suspend admin", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := newService(repo, new(PlanRepoMock), new(JwtMakerMock))

		repo.On("GetUser", mock.Anything, "uid-admin").
			Return(&models.User{UID: "uid-admin", Role: "admin"}, nil).Once()

		_, err := svc.SetSuspended(context.Background(), "uid-admin", true)
		assert.True(t, errors.Is(err, domain.ErrForbidden))
		assert.Contains(t, err.Error(), "admin users cannot be suspended")
		repo.AssertExpectations(t)
	})

	t.Run("refuses to activate admin", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := newService(repo, new(PlanRepoMock), new(JwtMakerMock))

		repo.On("GetUser", mock.Anything, "uid-admin").
			Return(&models.User{UID: "uid-admin", Role: "admin"}, nil).Once()

		_, err := svc.SetSuspended(context.Background(), "uid-admin", false)
		assert.True(t, errors.Is(err, domain.ErrForbidden))
		repo.AssertExpectations(t)
	})
}

func TestUserService_Subscribe(t *testing.T) {
	plan := &models.Plan{
		UID:          "plan-1",
		Name:         "Pro",
		MonthlyPrice: 499,
		YearlyPrice:  4990,
	}
	caller := domain.Caller{UserUID: "uid-1", Role: "user"}

	tests := []struct {
		name       string
		term       string
		wantAmount float64
	}{
		{name: "monthly term charges monthly price", term: "monthly", wantAmount: 499},
		{name: "yearly term charges yearly price", term: "yearly", wantAmount: 4990},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			plans := new(PlanRepoMock)
			svc := newService(repo, plans, new(JwtMakerMock))

			plans.On("GetPlan", mock.Anything, "plan-1").Return(plan, nil).Once()
			repo.On("GetUser", mock.Anything, "uid-1").
				Return(&models.User{UID: "uid-1", Role: "user"}, nil).Once()

			var captured models.Payment
			repo.On("SubscribeUserTx", mock.Anything, mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) {
					captured = args.Get(2).(models.Payment)
				}).
				Return(&models.User{UID: "uid-1"}, &models.Payment{UID: "pay-1"}, nil).Once()

			_, payment, err := svc.Subscribe(context.Background(), caller, "uid-1",
				models.DummySubscribeUser{SubscriptionUID: "plan-1", SubscriptionTerm: tt.term})
			require.NoError(t, err)
			assert.Equal(t, "pay-1", payment.UID)

			assert.Equal(t, tt.wantAmount, captured.Amount)
			assert.Equal(t, tt.term, captured.Term)
			assert.Equal(t, "Pro", captured.PlanName)
			assert.Equal(t, models.PaymentStatusSuccess, captured.Status)
			assert.Equal(t, models.DefaultCurrency, captured.Currency)
			assert.WithinDuration(t, time.Now().UTC(), captured.ValidFrom, 5*time.Second)
			assert.True(t, captured.ValidTill.After(captured.ValidFrom))

			repo.AssertExpectations(t)
			plans.AssertExpectations(t)
		})
	}

	t.Run("invalid term", func(t *testing.T) {
		repo := new(UserRepoMock)
		plans := new(PlanRepoMock)
		svc := newService(repo, plans, new(JwtMakerMock))

		_, _, err := svc.Subscribe(context.Background(), caller, "uid-1",
			models.DummySubscribeUser{SubscriptionUID: "plan-1", SubscriptionTerm: "weekly"})
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		plans.AssertNotCalled(t, "GetPlan")
	})

	t.Run("unknown plan", func(t *testing.T) {
		repo := new(UserRepoMock)
		plans := new(PlanRepoMock)
		svc := newService(repo, plans, new(JwtMakerMock))

		plans.On("GetPlan", mock.Anything, "plan-x").
			Return(nil, domain.NotFound("subscription not found")).Once()

		_, _, err := svc.Subscribe(context.Background(), caller, "uid-1",
			models.DummySubscribeUser{SubscriptionUID: "plan-x", SubscriptionTerm: "monthly"})
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("foreign user is forbidden", func(t *testing.T) {
		repo := new(UserRepoMock)
		plans := new(PlanRepoMock)
		svc := newService(repo, plans, new(JwtMakerMock))

		plans.On("GetPlan", mock.Anything, "plan-1").Return(plan, nil).Once()
		repo.On("GetUser", mock.Anything, "uid-2").
			Return(&models.User{UID: "uid-2", Role: "user"}, nil).Once()

		_, _, err := svc.Subscribe(context.Background(), caller, "uid-2",
			models.DummySubscribeUser{SubscriptionUID: "plan-1", SubscriptionTerm: "monthly"})
		assert.True(t, errors.Is(err, domain.ErrForbidden))
		repo.AssertNotCalled(t, "SubscribeUserTx")
	})
}
