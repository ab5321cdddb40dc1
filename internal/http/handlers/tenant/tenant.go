// Package tenant реализует HTTP-обработчики организаций, включая
// зачисление сотрудников в штат.
package tenant

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

// Handler управляет HTTP-запросами к организациям.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики организаций.
type Service interface {
	Create(ctx context.Context, caller domain.Caller, req models.DummyCreateTenant) (*models.Tenant, error)
	Get(ctx context.Context, caller domain.Caller, tenantUID string) (*models.Tenant, error)
	List(ctx context.Context) ([]*models.Tenant, error)
	Update(ctx context.Context, caller domain.Caller, tenantUID string, patch models.DummyUpdateTenant) (*models.Tenant, error)
	Delete(ctx context.Context, caller domain.Caller, tenantUID string) (*models.Tenant, error)
	DeleteAll(ctx context.Context) (int64, error)
	AssignStaff(ctx context.Context, caller domain.Caller, tenantUID string, req models.DummyAssignStaff) (*models.User, error)
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

func pathUID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	id := chi.URLParam(r, "id")
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

// Create создает организацию. Обычный пользователь может указать
// администратором только себя.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tenant.Create"
	log := h.requestLogger(r, op)

	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	var req models.DummyCreateTenant
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}

	t, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		log.Error("failed to create tenant", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("tenant created", slog.String("uid", t.UID))
	render.JSON(w, r, response.OKWithData(t))
}

// List возвращает все организации. Маршрут закрыт административным гейтом.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tenant.List"
	log := h.requestLogger(r, op)

	tenants, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list tenants", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(tenants))
}

// Get возвращает организацию по идентификатору с проверкой владения.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tenant.Get"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log)
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	t, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		log.Error("failed to get tenant", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(t))
}

// Update применяет частичное обновление организации с проверкой владения.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tenant.Update"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log)
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	var req models.DummyUpdateTenant
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}

	t, err := h.service.Update(r.Context(), caller, id, req)
	if err != nil {
		log.Error("failed to update tenant", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("tenant updated", slog.String("uid", t.UID))
	render.JSON(w, r, response.OKWithData(t))
}

// Delete удаляет организацию с проверкой владения.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tenant.Delete"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log)
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	t, err := h.service.Delete(r.Context(), caller, id)
	if err != nil {
		log.Error("failed to delete tenant", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("tenant deleted", slog.String("uid", t.UID))
	render.JSON(w, r, response.OKWithData(t))
}

// DeleteAll удаляет все организации. Маршрут закрыт административным гейтом.
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tenant.DeleteAll"
	log := h.requestLogger(r, op)

	count, err := h.service.DeleteAll(r.Context())
	if err != nil {
		log.Error("failed to delete all tenants", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("all tenants deleted", slog.Int64("count", count))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"deleted_count": count,
	}))
}

// AssignStaff godoc
// @Summary Зачислить сотрудника в штат
// @Description Привязывает пользователя по username к организации, если есть свободное место.
// @Tags Tenants
// @Accept  json
// @Produce  json
// @Param id path string true "UID организации"
// @Param request body models.DummyAssignStaff true "Username сотрудника и флаг администратора"
// @Success 200 {object} map[string]any "Обновлённый пользователь"
// @Failure 403 {object} response.ErrorResponse "Чужая организация"
// @Failure 404 {object} response.ErrorResponse "Пользователь или организация не найдены"
// @Failure 409 {object} response.ErrorResponse "Штат заполнен или пользователь уже в штате"
// @Router /tenants/{id}/staff [post]
func (h *Handler) AssignStaff(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tenant.AssignStaff"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log)
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	var req models.DummyAssignStaff
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}

	u, err := h.service.AssignStaff(r.Context(), caller, id, req)
	if err != nil {
		log.Error("failed to assign staff", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("staff assigned",
		slog.String("tenant_uid", id), slog.String("user_uid", u.UID))
	render.JSON(w, r, response.OKWithData(u))
}
