package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/tenant-hub/internal/migrations"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя и возвращает его UID.
func (f *TestDataFactory) CreateUser(t *testing.T, name, username, role string) string {
	var uid string
	err := f.storage.DB.QueryRow(`INSERT INTO users (name, username, password_hash, role)
		VALUES ($1, $2, $3, $4) RETURNING uid`,
		name, username, "hashedpassword", role).Scan(&uid)
	require.NoError(t, err)
	return uid
}

// CreateTenant создает тестовый тенант и возвращает его UID.
func (f *TestDataFactory) CreateTenant(t *testing.T, name, adminUID string, maxStaff int) string {
	var uid string
	err := f.storage.DB.QueryRow(`INSERT INTO tenants (name, location, admin_uid, max_staff_count)
		VALUES ($1, $2, $3, $4) RETURNING uid`,
		name, "Pune", adminUID, maxStaff).Scan(&uid)
	require.NoError(t, err)
	return uid
}

// CreatePlan создает тестовый тарифный план и возвращает его UID.
func (f *TestDataFactory) CreatePlan(t *testing.T, name string, monthly, yearly float64) string {
	var uid string
	err := f.storage.DB.QueryRow(`INSERT INTO plans (name, description, monthly_price, yearly_price, staff_limit)
		VALUES ($1, '["feature one"]'::jsonb, $2, $3, 10) RETURNING uid`,
		name, monthly, yearly).Scan(&uid)
	require.NoError(t, err)
	return uid
}

// CreateTemplate создает тестовый шаблон сообщения и возвращает его UID.
func (f *TestDataFactory) CreateTemplate(t *testing.T, userUID, title string) string {
	var uid string
	err := f.storage.DB.QueryRow(`INSERT INTO templates (user_uid, title, message, is_active)
		VALUES ($1, $2, 'hello there', true) RETURNING uid`,
		userUID, title).Scan(&uid)
	require.NoError(t, err)
	return uid
}

// CreateSchedule создает тестовое расписание, ссылающееся на шаблон.
func (f *TestDataFactory) CreateSchedule(t *testing.T, userUID, templateUID, title string) string {
	var uid string
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	err := f.storage.DB.QueryRow(`INSERT INTO schedules (title, user_uid, template_uid, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4, $5, true) RETURNING uid`,
		title, userUID, templateUID, start, start.AddDate(0, 3, 0)).Scan(&uid)
	require.NoError(t, err)
	return uid
}

// StaffCount возвращает текущее число сотрудников тенанта.
func (f *TestDataFactory) StaffCount(t *testing.T, tenantUID string) int {
	var count int
	err := f.storage.DB.QueryRow(`SELECT current_staff_count FROM tenants WHERE uid = $1`, tenantUID).Scan(&count)
	require.NoError(t, err)
	return count
}

// PaymentCount возвращает число платежей пользователя.
func (f *TestDataFactory) PaymentCount(t *testing.T, userUID string) int {
	var count int
	err := f.storage.DB.QueryRow(`SELECT COUNT(*) FROM payments WHERE user_uid = $1`, userUID).Scan(&count)
	require.NoError(t, err)
	return count
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL
// и применяет боевые миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2),
				wait.ForListeningPort(nat.Port("5432/tcp")),
			).WithDeadline(3*time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for range 10 {
		storage, err = New(dsn)
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "Failed to create storage after retries")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath), "Failed to run migrations")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		if pgContainer != nil {
			_ = pgContainer.Terminate(ctx)
		}
	}

	return storage, cleanup
}

// testPayment возвращает платёжный снимок для тестов активации подписки.
func testPayment(userUID, planUID string) models.Payment {
	validFrom := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	return models.Payment{
		UserUID:   userUID,
		PlanUID:   planUID,
		PlanName:  "Pro",
		Term:      "monthly",
		ValidFrom: validFrom,
		ValidTill: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		Amount:    499,
		Currency:  models.DefaultCurrency,
		Status:    models.PaymentStatusSuccess,
		Method:    models.PaymentMethodUnknown,
	}
}
