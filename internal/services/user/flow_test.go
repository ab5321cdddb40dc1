package user_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	"github.com/magabrotheeeer/tenant-hub/internal/lib/jwt"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
	scheduleservice "github.com/magabrotheeeer/tenant-hub/internal/services/schedule"
	templateservice "github.com/magabrotheeeer/tenant-hub/internal/services/template"
	userservice "github.com/magabrotheeeer/tenant-hub/internal/services/user"
)

// memStore — хранилище в памяти для сквозного сценария. Реализует контракты
// репозиториев пользователей, тарифов, шаблонов и расписаний.
type memStore struct {
	users     map[string]*models.User
	plans     map[string]*models.Plan
	templates map[string]*models.Template
	schedules map[string]*models.Schedule
	payments  []models.Payment
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[string]*models.User),
		plans:     make(map[string]*models.Plan),
		templates: make(map[string]*models.Template),
		schedules: make(map[string]*models.Schedule),
	}
}

func (m *memStore) CreateUser(_ context.Context, user models.User) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == user.Username {
			return nil, domain.AlreadyExists("username already exists")
		}
	}
	user.UID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	m.users[user.UID] = &user
	return &user, nil
}

func (m *memStore) GetUser(_ context.Context, userUID string) (*models.User, error) {
	u, ok := m.users[userUID]
	if !ok {
		return nil, domain.NotFound("user not found")
	}
	return u, nil
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.NotFound("user not found")
}

func (m *memStore) ListUsers(_ context.Context) ([]*models.User, error) {
	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memStore) UpdateUser(_ context.Context, user *models.User) (*models.User, error) {
	if _, ok := m.users[user.UID]; !ok {
		return nil, domain.NotFound("user not found")
	}
	user.UpdatedAt = time.Now().UTC()
	m.users[user.UID] = user
	return user, nil
}

func (m *memStore) DeleteUser(_ context.Context, userUID string) (*models.User, error) {
	u, ok := m.users[userUID]
	if !ok {
		return nil, domain.NotFound("user not found")
	}
	delete(m.users, userUID)
	return u, nil
}

func (m *memStore) DeleteAllUsers(_ context.Context) (int64, error) {
	n := int64(len(m.users))
	m.users = make(map[string]*models.User)
	return n, nil
}

func (m *memStore) SubscribeUserTx(_ context.Context, user *models.User, payment models.Payment) (*models.User, *models.Payment, error) {
	if _, ok := m.users[user.UID]; !ok {
		return nil, nil, domain.NotFound("user not found")
	}
	payment.UID = uuid.NewString()
	m.payments = append(m.payments, payment)
	m.users[user.UID] = user
	return user, &payment, nil
}

func (m *memStore) GetPlan(_ context.Context, planUID string) (*models.Plan, error) {
	p, ok := m.plans[planUID]
	if !ok {
		return nil, domain.NotFound("subscription plan not found")
	}
	return p, nil
}

func (m *memStore) CreateTemplate(_ context.Context, template models.Template) (*models.Template, error) {
	template.UID = uuid.NewString()
	m.templates[template.UID] = &template
	return &template, nil
}

func (m *memStore) GetTemplate(_ context.Context, templateUID string) (*models.Template, error) {
	t, ok := m.templates[templateUID]
	if !ok {
		return nil, domain.NotFound("template not found")
	}
	return t, nil
}

func (m *memStore) ListTemplates(_ context.Context) ([]*models.Template, error) {
	out := make([]*models.Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) ListTemplatesByUser(_ context.Context, userUID string) ([]*models.Template, error) {
	var out []*models.Template
	for _, t := range m.templates {
		if t.UserUID == userUID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) UpdateTemplate(_ context.Context, template *models.Template) (*models.Template, error) {
	if _, ok := m.templates[template.UID]; !ok {
		return nil, domain.NotFound("template not found")
	}
	m.templates[template.UID] = template
	return template, nil
}

func (m *memStore) DeleteTemplateTx(_ context.Context, templateUID string) (*models.Template, error) {
	t, ok := m.templates[templateUID]
	if !ok {
		return nil, domain.NotFound("template not found")
	}
	for _, s := range m.schedules {
		if s.TemplateUID == templateUID {
			return nil, domain.Conflict("template is used in a schedule and cannot be deleted")
		}
	}
	delete(m.templates, templateUID)
	return t, nil
}

func (m *memStore) DeleteAllTemplates(_ context.Context) (int64, error) {
	n := int64(len(m.templates))
	m.templates = make(map[string]*models.Template)
	return n, nil
}

func (m *memStore) CreateSchedule(_ context.Context, schedule models.Schedule) (*models.Schedule, error) {
	schedule.UID = uuid.NewString()
	m.schedules[schedule.UID] = &schedule
	return &schedule, nil
}

func (m *memStore) GetSchedule(_ context.Context, scheduleUID string) (*models.Schedule, error) {
	s, ok := m.schedules[scheduleUID]
	if !ok {
		return nil, domain.NotFound("schedule not found")
	}
	return s, nil
}

func (m *memStore) ListSchedules(_ context.Context) ([]*models.Schedule, error) {
	out := make([]*models.Schedule, 0, len(m.schedules))
	for _, s := range m.schedules {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) ListSchedulesByUser(_ context.Context, userUID string) ([]*models.Schedule, error) {
	var out []*models.Schedule
	for _, s := range m.schedules {
		if s.UserUID == userUID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) UpdateSchedule(_ context.Context, schedule *models.Schedule) (*models.Schedule, error) {
	if _, ok := m.schedules[schedule.UID]; !ok {
		return nil, domain.NotFound("schedule not found")
	}
	m.schedules[schedule.UID] = schedule
	return schedule, nil
}

func (m *memStore) DeleteSchedule(_ context.Context, scheduleUID string) (*models.Schedule, error) {
	s, ok := m.schedules[scheduleUID]
	if !ok {
		return nil, domain.NotFound("schedule not found")
	}
	delete(m.schedules, scheduleUID)
	return s, nil
}

func (m *memStore) DeleteAllSchedules(_ context.Context) (int64, error) {
	n := int64(len(m.schedules))
	m.schedules = make(map[string]*models.Schedule)
	return n, nil
}

// Сквозной сценарий: регистрация, вход, шаблон, расписание, активация тарифа.
func TestUserFlow_EndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	maker := jwt.NewMaker("flow-secret", time.Hour)

	planUID := uuid.NewString()
	store.plans[planUID] = &models.Plan{
		UID:          planUID,
		Name:         "Pro",
		Description:  []string{"up to 10 staff"},
		MonthlyPrice: 499,
		YearlyPrice:  4990,
		StaffLimit:   10,
	}

	users := userservice.New(store, store, maker, log)
	templates := templateservice.New(store, log)
	schedules := scheduleservice.New(store, store, log)

	// Регистрация
	token, registered, err := users.Register(ctx, models.DummyRegisterUser{
		Name: "Flow User", Username: " Flow.User ", Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "flow.user", registered.Username)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.UID, claims.UserUID)

	// Вход с тем же паролем
	_, loggedIn, err := users.Login(ctx, models.DummyLoginUser{
		Username: "flow.user", Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.UID, loggedIn.UID)

	caller := domain.Caller{UserUID: registered.UID, Role: registered.Role}

	// Шаблон сообщения
	tmpl, err := templates.Create(ctx, caller, models.DummyCreateTemplate{
		UserUID: registered.UID, Title: "Welcome", Message: "Hello!", IsActive: true,
	})
	require.NoError(t, err)

	// Расписание, ссылающееся на шаблон
	sched, err := schedules.Create(ctx, caller, models.DummyCreateSchedule{
		Title:       "Morning digest",
		UserUID:     registered.UID,
		TemplateUID: tmpl.UID,
		StartDate:   "2026-09-01T09:00:00Z",
		EndDate:     "2026-12-01T09:00:00Z",
		IsActive:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, tmpl.UID, sched.TemplateUID)

	// Пока расписание живо, шаблон удалить нельзя
	_, err = templates.Delete(ctx, caller, tmpl.UID)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	// Активация месячного тарифа
	updated, payment, err := users.Subscribe(ctx, caller, registered.UID, models.DummySubscribeUser{
		SubscriptionUID: planUID, SubscriptionTerm: "monthly",
	})
	require.NoError(t, err)
	assert.Equal(t, 499.0, payment.Amount)
	assert.Equal(t, "monthly", payment.Term)
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
	require.NotNil(t, updated.SubscriptionUID)
	assert.Equal(t, planUID, *updated.SubscriptionUID)
	require.NotNil(t, updated.ValidTill)
	assert.Equal(t, payment.ValidTill, *updated.ValidTill)
	assert.True(t, updated.ValidTill.After(payment.ValidFrom))

	// После удаления расписания шаблон освобождается
	_, err = schedules.Delete(ctx, caller, sched.UID)
	require.NoError(t, err)
	_, err = templates.Delete(ctx, caller, tmpl.UID)
	require.NoError(t, err)
}
