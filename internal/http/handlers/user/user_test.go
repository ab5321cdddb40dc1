package user_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	userhandler "github.com/magabrotheeeer/tenant-hub/internal/http/handlers/user"
	"github.com/magabrotheeeer/tenant-hub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

// Мок для Service
type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, req models.DummyRegisterUser) (string, *models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func (m *ServiceMock) RegisterAdmin(ctx context.Context, req models.DummyRegisterUser) (string, *models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func (m *ServiceMock) Login(ctx context.Context, req models.DummyLoginUser) (string, *models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func (m *ServiceMock) Get(ctx context.Context, caller domain.Caller, userUID string) (*models.User, error) {
	args := m.Called(ctx, caller, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *ServiceMock) List(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *ServiceMock) Update(ctx context.Context, caller domain.Caller, userUID string, patch models.DummyUpdateUser) (*models.User, error) {
	args := m.Called(ctx, caller, userUID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *ServiceMock) Delete(ctx context.Context, caller domain.Caller, userUID string) (*models.User, error) {
	args := m.Called(ctx, caller, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *ServiceMock) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ServiceMock) SetSuspended(ctx context.Context, userUID string, suspended bool) (*models.User, error) {
	args := m.Called(ctx, userUID, suspended)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *ServiceMock) Subscribe(ctx context.Context, caller domain.Caller, targetUID string, req models.DummySubscribeUser) (*models.User, *models.Payment, error) {
	args := m.Called(ctx, caller, targetUID, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(*models.Payment), args.Error(2)
}

func newHandler(svc *ServiceMock) *userhandler.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return userhandler.New(log, svc)
}

// authedRequest кладёт Caller в контекст так же, как это делает JWTMiddleware.
func authedRequest(method, target string, body []byte, caller domain.Caller) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), middlewarectx.UserUID, caller.UserUID)
	ctx = context.WithValue(ctx, middlewarectx.Role, caller.Role)
	return req.WithContext(ctx)
}

func TestHandler_Signup(t *testing.T) {
	t.Run("successful signup", func(t *testing.T) {
		svc := new(ServiceMock)
		h := newHandler(svc)

		svc.On("Register", mock.Anything, models.DummyRegisterUser{
			Name: "Test User", Username: "testuser", Password: "secret123",
		}).Return("token-abc", &models.User{UID: "uid-1", Name: "Test User",
			Username: "testuser", Role: "user"}, nil).Once()

		body := []byte(`{"name":"Test User","username":"testuser","password":"secret123"}`)
		rec := httptest.NewRecorder()
		h.Signup(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users/signup", bytes.NewReader(body)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"token":"token-abc"`)
		assert.Contains(t, rec.Body.String(), `"username":"testuser"`)
		svc.AssertExpectations(t)
	})

	t.Run("malformed json gives 400", func(t *testing.T) {
		svc := new(ServiceMock)
		h := newHandler(svc)

		rec := httptest.NewRecorder()
		h.Signup(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users/signup",
			bytes.NewReader([]byte(`{broken`))))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid request body")
		svc.AssertNotCalled(t, "Register")
	})

	t.Run("missing fields give 400 with field names", func(t *testing.T) {
		svc := new(ServiceMock)
		h := newHandler(svc)

		rec := httptest.NewRecorder()
		h.Signup(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users/signup",
			bytes.NewReader([]byte(`{"name":"Test User"}`))))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Username")
		assert.Contains(t, rec.Body.String(), "Password")
		svc.AssertNotCalled(t, "Register")
	})

	t.Run("duplicate username gives 400", func(t *testing.T) {
		svc := new(ServiceMock)
		h := newHandler(svc)

		svc.On("Register", mock.Anything, mock.Anything).
			Return("", nil, domain.AlreadyExists("username already exists")).Once()

		body := []byte(`{"name":"Test User","username":"testuser","password":"secret123"}`)
		rec := httptest.NewRecorder()
		h.Signup(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users/signup", bytes.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "username already exists")
	})
}

func TestHandler_Login_InvalidCredentials(t *testing.T) {
	svc := new(ServiceMock)
	h := newHandler(svc)

	svc.On("Login", mock.Anything, models.DummyLoginUser{Username: "testuser", Password: "wrong"}).
		Return("", nil, &domain.Error{Kind: domain.ErrInvalidCredentials, Message: "incorrect password"}).Once()

	body := []byte(`{"username":"testuser","password":"wrong"}`)
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "incorrect password")
}

func TestHandler_Get(t *testing.T) {
	const uid = "7b8e1f7c-1111-4a7e-9e1a-2b3c4d5e6f70"
	caller := domain.Caller{UserUID: uid, Role: "user"}

	// Роутер нужен, чтобы chi.URLParam видел параметр пути
	newRouter := func(h *userhandler.Handler) chi.Router {
		r := chi.NewRouter()
		r.Get("/users/{id}", h.Get)
		return r
	}

	t.Run("bad uuid gives 400", func(t *testing.T) {
		svc := new(ServiceMock)
		r := newRouter(newHandler(svc))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, authedRequest(http.MethodGet, "/users/not-a-uuid", nil, caller))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid id format")
		svc.AssertNotCalled(t, "Get")
	})

	t.Run("missing caller gives 401", func(t *testing.T) {
		svc := new(ServiceMock)
		r := newRouter(newHandler(svc))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/"+uid, nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "Get")
	})

	t.Run("foreign resource gives 403", func(t *testing.T) {
		svc := new(ServiceMock)
		r := newRouter(newHandler(svc))

		svc.On("Get", mock.Anything, caller, uid).
			Return(nil, domain.Forbidden("forbidden")).Once()

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, authedRequest(http.MethodGet, "/users/"+uid, nil, caller))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing user gives 404", func(t *testing.T) {
		svc := new(ServiceMock)
		r := newRouter(newHandler(svc))

		svc.On("Get", mock.Anything, caller, uid).
			Return(nil, domain.NotFound("user not found")).Once()

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, authedRequest(http.MethodGet, "/users/"+uid, nil, caller))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "user not found")
	})

	t.Run("owner gets the profile", func(t *testing.T) {
		svc := new(ServiceMock)
		r := newRouter(newHandler(svc))

		svc.On("Get", mock.Anything, caller, uid).
			Return(&models.User{UID: uid, Username: "testuser"}, nil).Once()

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, authedRequest(http.MethodGet, "/users/"+uid, nil, caller))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"OK"`)
		assert.Contains(t, rec.Body.String(), `"username":"testuser"`)
	})
}

func TestHandler_Subscribe(t *testing.T) {
	const uid = "7b8e1f7c-1111-4a7e-9e1a-2b3c4d5e6f70"
	const planUID = "9c0f2a3b-2222-4b8f-8d2b-3c4d5e6f7a81"
	caller := domain.Caller{UserUID: uid, Role: "user"}

	newRouter := func(h *userhandler.Handler) chi.Router {
		r := chi.NewRouter()
		r.Patch("/users/{id}/subscribe", h.Subscribe)
		return r
	}

	t.Run("successful activation returns user and payment", func(t *testing.T) {
		svc := new(ServiceMock)
		r := newRouter(newHandler(svc))

		svc.On("Subscribe", mock.Anything, caller, uid, models.DummySubscribeUser{
			SubscriptionUID: planUID, SubscriptionTerm: "monthly",
		}).Return(&models.User{UID: uid}, &models.Payment{UID: "pay-1", Amount: 499}, nil).Once()

		body := []byte(`{"subscription_id":"` + planUID + `","subscription_term":"monthly"}`)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, authedRequest(http.MethodPatch, "/users/"+uid+"/subscribe", body, caller))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"pay-1"`)
		svc.AssertExpectations(t)
	})

	t.Run("non-uuid subscription id fails validation", func(t *testing.T) {
		svc := new(ServiceMock)
		r := newRouter(newHandler(svc))

		body := []byte(`{"subscription_id":"garbage","subscription_term":"monthly"}`)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, authedRequest(http.MethodPatch, "/users/"+uid+"/subscribe", body, caller))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Subscribe")
	})

	t.Run("unknown plan gives 404", func(t *testing.T) {
		svc := new(ServiceMock)
		r := newRouter(newHandler(svc))

		svc.On("Subscribe", mock.Anything, caller, uid, mock.Anything).
			Return(nil, nil, domain.NotFound("subscription plan not found")).Once()

		body := []byte(`{"subscription_id":"` + planUID + `","subscription_term":"monthly"}`)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, authedRequest(http.MethodPatch, "/users/"+uid+"/subscribe", body, caller))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_DeleteAll(t *testing.T) {
	svc := new(ServiceMock)
	h := newHandler(svc)

	svc.On("DeleteAll", mock.Anything).Return(int64(7), nil).Once()

	rec := httptest.NewRecorder()
	h.DeleteAll(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/users", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted_count":7`)
}
