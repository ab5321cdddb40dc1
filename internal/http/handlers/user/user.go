// Package user реализует HTTP-обработчики учётных записей: регистрацию,
// вход, CRUD-операции, блокировку и активацию тарифного плана.
//
// Обработчики принимают JSON-запросы, валидируют их, извлекают
// аутентифицированного пользователя из контекста и делегируют бизнес-логику
// сервису. Доменные ошибки сопоставляются с HTTP-статусами единообразно
// через response.RenderError.
package user

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	"github.com/magabrotheeeer/tenant-hub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tenant-hub/internal/http/response"
	"github.com/magabrotheeeer/tenant-hub/internal/lib/sl"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

// Handler управляет HTTP-запросами к учётным записям.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики учётных записей.
type Service interface {
	Register(ctx context.Context, req models.DummyRegisterUser) (string, *models.User, error)
	RegisterAdmin(ctx context.Context, req models.DummyRegisterUser) (string, *models.User, error)
	Login(ctx context.Context, req models.DummyLoginUser) (string, *models.User, error)
	Get(ctx context.Context, caller domain.Caller, userUID string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, caller domain.Caller, userUID string, patch models.DummyUpdateUser) (*models.User, error)
	Delete(ctx context.Context, caller domain.Caller, userUID string) (*models.User, error)
	DeleteAll(ctx context.Context) (int64, error)
	SetSuspended(ctx context.Context, userUID string, suspended bool) (*models.User, error)
	Subscribe(ctx context.Context, caller domain.Caller, targetUID string, req models.DummySubscribeUser) (*models.User, *models.Payment, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) requestLogger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// decodeAndValidate разбирает тело запроса и проверяет его валидатором.
// Сам пишет ответ об ошибке и возвращает false, если запрос некорректен.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, log *slog.Logger, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return false
	}
	return true
}

func pathUID(w http.ResponseWriter, r *http.Request, log *slog.Logger, param string) (string, bool) {
	id := chi.URLParam(r, param)
	if _, err := uuid.Parse(id); err != nil {
		log.Error("invalid id format", slog.String("id", id))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id format"))
		return "", false
	}
	return id, true
}

func callerFromRequest(w http.ResponseWriter, r *http.Request, log *slog.Logger) (domain.Caller, bool) {
	caller, ok := middlewarectx.CallerFromContext(r.Context())
	if !ok {
		log.Error("caller not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return domain.Caller{}, false
	}
	return caller, true
}

// Signup godoc
// @Summary Регистрация пользователя
// @Description Создает учётную запись с базовой ролью и возвращает JWT-токен.
// @Tags Users
// @Accept  json
// @Produce  json
// @Param request body models.DummyRegisterUser true "Данные новой учётной записи"
// @Success 200 {object} map[string]any "Токен и публичный профиль"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос или занятый username"
// @Router /users/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.Signup"
	log := h.requestLogger(r, op)

	var req models.DummyRegisterUser
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}

	token, u, err := h.service.Register(r.Context(), req)
	if err != nil {
		log.Error("failed to register user", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("user registered", slog.String("uid", u.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token": token,
		"user":  u.Public(),
	}))
}

// CreateAdmin создает учётную запись с административной ролью.
// Маршрут закрыт административным гейтом.
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.CreateAdmin"
	log := h.requestLogger(r, op)

	var req models.DummyRegisterUser
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}

	token, u, err := h.service.RegisterAdmin(r.Context(), req)
	if err != nil {
		log.Error("failed to register admin", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("admin registered", slog.String("uid", u.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token": token,
		"user":  u.Public(),
	}))
}

// Login godoc
// @Summary Вход пользователя
// @Description Проверяет пару логин/пароль и возвращает JWT-токен.
// @Tags Users
// @Accept  json
// @Produce  json
// @Param request body models.DummyLoginUser true "Учётные данные"
// @Success 200 {object} map[string]any "Токен и публичный профиль"
// @Failure 400 {object} response.ErrorResponse "Неверные учётные данные"
// @Router /users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.Login"
	log := h.requestLogger(r, op)

	var req models.DummyLoginUser
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}

	token, u, err := h.service.Login(r.Context(), req)
	if err != nil {
		log.Error("failed to login", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("user logged in", slog.String("uid", u.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token": token,
		"user":  u.Public(),
	}))
}

// List возвращает всех пользователей. Маршрут закрыт административным гейтом.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.List"
	log := h.requestLogger(r, op)

	users, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(users))
}

// Get возвращает пользователя по идентификатору с проверкой владения.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.Get"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log, "id")
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	u, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		log.Error("failed to get user", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(u))
}

// Update применяет частичное обновление профиля с проверкой владения.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.Update"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log, "id")
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	var req models.DummyUpdateUser
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}

	u, err := h.service.Update(r.Context(), caller, id, req)
	if err != nil {
		log.Error("failed to update user", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("user updated", slog.String("uid", u.UID))
	render.JSON(w, r, response.OKWithData(u))
}

// Delete удаляет пользователя с проверкой владения.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.Delete"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log, "id")
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	u, err := h.service.Delete(r.Context(), caller, id)
	if err != nil {
		log.Error("failed to delete user", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("user deleted", slog.String("uid", u.UID))
	render.JSON(w, r, response.OKWithData(u))
}

// DeleteAll удаляет всех пользователей. Маршрут закрыт административным гейтом.
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.DeleteAll"
	log := h.requestLogger(r, op)

	count, err := h.service.DeleteAll(r.Context())
	if err != nil {
		log.Error("failed to delete all users", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("all users deleted", slog.Int64("count", count))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"deleted_count": count,
	}))
}

// Suspend блокирует пользователя. Маршрут закрыт административным гейтом,
// административные учётные записи заблокировать нельзя.
func (h *Handler) Suspend(w http.ResponseWriter, r *http.Request) {
	h.setSuspended(w, r, "handlers.user.Suspend", true)
}

// Unsuspend снимает блокировку пользователя. Маршрут закрыт
// административным гейтом.
func (h *Handler) Unsuspend(w http.ResponseWriter, r *http.Request) {
	h.setSuspended(w, r, "handlers.user.Unsuspend", false)
}

func (h *Handler) setSuspended(w http.ResponseWriter, r *http.Request, op string, suspended bool) {
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log, "id")
	if !ok {
		return
	}

	u, err := h.service.SetSuspended(r.Context(), id, suspended)
	if err != nil {
		log.Error("failed to change suspension", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("suspension changed",
		slog.String("uid", u.UID), slog.Bool("is_suspended", u.IsSuspended))
	render.JSON(w, r, response.OKWithData(u))
}

// Subscribe godoc
// @Summary Активировать тарифный план
// @Description Атомарно создаёт платёжную запись и обновляет подписку пользователя.
// @Tags Users
// @Accept  json
// @Produce  json
// @Param id path string true "UID пользователя"
// @Param request body models.DummySubscribeUser true "Тариф и срок подписки"
// @Success 200 {object} map[string]any "Обновлённый пользователь и платёж"
// @Failure 400 {object} response.ErrorResponse "Некорректный срок подписки"
// @Failure 403 {object} response.ErrorResponse "Чужой пользователь"
// @Failure 404 {object} response.ErrorResponse "Тариф или пользователь не найдены"
// @Router /users/{id}/subscribe [patch]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.Subscribe"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log, "id")
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	var req models.DummySubscribeUser
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}

	u, payment, err := h.service.Subscribe(r.Context(), caller, id, req)
	if err != nil {
		log.Error("failed to activate subscription", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("subscription activated",
		slog.String("user_uid", u.UID), slog.String("payment_uid", payment.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user":    u,
		"payment": payment,
	}))
}
