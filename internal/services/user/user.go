// Package user содержит бизнес-логику работы с учётными записями:
// регистрацию, вход, управление профилем, блокировку и активацию
// тарифного плана.
package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	"github.com/magabrotheeeer/tenant-hub/internal/lib/jwt"
	"github.com/magabrotheeeer/tenant-hub/internal/lib/password"
	"github.com/magabrotheeeer/tenant-hub/internal/lib/term"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

// Repository описывает контракт хранилища пользователей.
type Repository interface {
	// CreateUser сохраняет нового пользователя и возвращает созданную запись.
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// GetUserByUsername возвращает пользователя по нормализованному username.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// ListUsers возвращает всех пользователей.
	ListUsers(ctx context.Context) ([]*models.User, error)
	// UpdateUser перезаписывает изменяемые поля пользователя.
	UpdateUser(ctx context.Context, user *models.User) (*models.User, error)
	// DeleteUser удаляет пользователя и возвращает удалённую запись.
	DeleteUser(ctx context.Context, userUID string) (*models.User, error)
	// DeleteAllUsers удаляет всех пользователей.
	DeleteAllUsers(ctx context.Context) (int64, error)
	// SubscribeUserTx атомарно создаёт платёж и обновляет подписку пользователя.
	SubscribeUserTx(ctx context.Context, user *models.User, payment models.Payment) (*models.User, *models.Payment, error)
}

// PlanRepository описывает доступ к каталогу тарифов, нужный при активации.
type PlanRepository interface {
	GetPlan(ctx context.Context, planUID string) (*models.Plan, error)
}

// Service реализует бизнес-логику работы с пользователями.
type Service struct {
	users    Repository
	plans    PlanRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// New создает новый Service.
func New(users Repository, plans PlanRepository, jwtMaker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		plans:    plans,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// NormalizeUsername приводит имя пользователя к каноническому виду.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// register создает учётную запись с заданной ролью и выпускает токен.
func (s *Service) register(ctx context.Context, req models.DummyRegisterUser, role string) (string, *models.User, error) {
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", nil, err
	}

	created, err := s.users.CreateUser(ctx, models.User{
		Name:         strings.TrimSpace(req.Name),
		Username:     NormalizeUsername(req.Username),
		PasswordHash: hashed,
		Role:         role,
	})
	if err != nil {
		return "", nil, err
	}

	token, err := s.jwtMaker.GenerateToken(created.UID, created.Role)
	if err != nil {
		return "", nil, err
	}

	s.log.Info("registered new user",
		slog.String("uid", created.UID), slog.String("role", created.Role))
	return token, created, nil
}

// Register создает пользователя с базовой ролью.
func (s *Service) Register(ctx context.Context, req models.DummyRegisterUser) (string, *models.User, error) {
	return s.register(ctx, req, domain.RoleUser)
}

// RegisterAdmin создает пользователя с административной ролью.
func (s *Service) RegisterAdmin(ctx context.Context, req models.DummyRegisterUser) (string, *models.User, error) {
	return s.register(ctx, req, domain.RoleAdmin)
}

// Login проверяет пару логин/пароль и выпускает токен.
func (s *Service) Login(ctx context.Context, req models.DummyLoginUser) (string, *models.User, error) {
	u, err := s.users.GetUserByUsername(ctx, NormalizeUsername(req.Username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, &domain.Error{Kind: domain.ErrInvalidCredentials, Message: "user does not exist"}
		}
		return "", nil, err
	}
	if err = password.CompareHash(u.PasswordHash, req.Password); err != nil {
		return "", nil, &domain.Error{Kind: domain.ErrInvalidCredentials, Message: "incorrect password"}
	}

	token, err := s.jwtMaker.GenerateToken(u.UID, u.Role)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Get возвращает пользователя по UID с проверкой владения.
// Отсутствие записи проверяется до владения: зонд по чужому несуществующему
// идентификатору получает 404, а не 403.
func (s *Service) Get(ctx context.Context, caller domain.Caller, userUID string) (*models.User, error) {
	u, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if err = domain.Authorize(caller, u.UID); err != nil {
		return nil, err
	}
	return u, nil
}

// List возвращает всех пользователей. Маршрут закрыт административным гейтом.
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	return s.users.ListUsers(ctx)
}

// Update применяет частичное обновление профиля с проверкой владения.
func (s *Service) Update(ctx context.Context, caller domain.Caller, userUID string, patch models.DummyUpdateUser) (*models.User, error) {
	u, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if err = domain.Authorize(caller, u.UID); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Username != nil {
		u.Username = NormalizeUsername(*patch.Username)
	}
	if patch.Password != nil {
		hashed, err := password.GetHash(*patch.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hashed
	}
	if u.Name == "" || u.Username == "" {
		return nil, domain.Invalid("name and username must not be empty")
	}

	return s.users.UpdateUser(ctx, u)
}

// Delete удаляет пользователя с проверкой владения и возвращает удалённую запись.
func (s *Service) Delete(ctx context.Context, caller domain.Caller, userUID string) (*models.User, error) {
	u, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if err = domain.Authorize(caller, u.UID); err != nil {
		return nil, err
	}
	return s.users.DeleteUser(ctx, userUID)
}

// DeleteAll удаляет всех пользователей. Маршрут закрыт административным гейтом.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	return s.users.DeleteAllUsers(ctx)
}

// SetSuspended переключает флаг блокировки. Административные учётные записи
// блокировать и активировать нельзя.
func (s *Service) SetSuspended(ctx context.Context, userUID string, suspended bool) (*models.User, error) {
	u, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if u.Role == domain.RoleAdmin {
		return nil, domain.Forbidden("admin users cannot be suspended or activated")
	}
	u.IsSuspended = suspended
	return s.users.UpdateUser(ctx, u)
}

// Subscribe выполняет транзакцию активации тарифного плана: проверяет срок,
// находит тариф и целевого пользователя, считает календарное окно валидности,
// создаёт платёжный снимок и обновляет подписку пользователя одной
// транзакцией хранилища.
func (s *Service) Subscribe(ctx context.Context, caller domain.Caller, targetUID string, req models.DummySubscribeUser) (*models.User, *models.Payment, error) {
	subTerm, err := term.Parse(req.SubscriptionTerm)
	if err != nil {
		return nil, nil, domain.Invalid("invalid subscription term")
	}

	plan, err := s.plans.GetPlan(ctx, req.SubscriptionUID)
	if err != nil {
		return nil, nil, err
	}

	u, err := s.users.GetUser(ctx, targetUID)
	if err != nil {
		return nil, nil, err
	}
	if err = domain.Authorize(caller, u.UID); err != nil {
		return nil, nil, err
	}

	validFrom := time.Now().UTC()
	validTill := subTerm.AddTo(validFrom)

	amount := plan.MonthlyPrice
	if subTerm == term.Yearly {
		amount = plan.YearlyPrice
	}

	payment := models.Payment{
		UserUID:   u.UID,
		PlanUID:   plan.UID,
		PlanName:  plan.Name,
		Term:      subTerm.String(),
		ValidFrom: validFrom,
		ValidTill: validTill,
		Amount:    amount,
		Currency:  models.DefaultCurrency,
		Status:    models.PaymentStatusSuccess,
		Method:    models.PaymentMethodUnknown,
	}

	subTermStr := subTerm.String()
	u.SubscriptionUID = &plan.UID
	u.SubscriptionTerm = &subTermStr
	u.ValidTill = &validTill

	updatedUser, createdPayment, err := s.users.SubscribeUserTx(ctx, u, payment)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("activated subscription",
		slog.String("user_uid", u.UID),
		slog.String("plan_uid", plan.UID),
		slog.String("term", subTerm.String()))
	return updatedUser, createdPayment, nil
}
