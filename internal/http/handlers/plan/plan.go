// Package plan реализует HTTP-обработчики каталога тарифных планов.
// Чтения доступны всем аутентифицированным пользователям, записи закрыты
// административным гейтом на уровне маршрутизации.
package plan

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

	"github.com/magabrotheeeer/tenant-hub/internal/http/response"
	"github.com/magabrotheeeer/tenant-hub/internal/lib/sl"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

// Handler управляет HTTP-запросами к каталогу тарифов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики каталога тарифов.
type Service interface {
	Create(ctx context.Context, req models.DummyCreatePlan) (*models.Plan, error)
	Get(ctx context.Context, planUID string) (*models.Plan, error)
	List(ctx context.Context) ([]*models.Plan, error)
	Update(ctx context.Context, planUID string, patch models.DummyUpdatePlan) (*models.Plan, error)
	Delete(ctx context.Context, planUID string) (*models.Plan, error)
	DeleteAll(ctx context.Context) (int64, error)
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

// Create создает тариф. Маршрут закрыт административным гейтом.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.Create"
	log := h.requestLogger(r, op)

	var req models.DummyCreatePlan
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}

	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Error("failed to create plan", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("plan created", slog.String("uid", p.UID))
	render.JSON(w, r, response.OKWithData(p))
}

// List godoc
// @Summary Каталог тарифов
// @Description Возвращает все тарифные планы. Доступно всем аутентифицированным пользователям.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} map[string]any "Список тарифов"
// @Router /subscriptions [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.List"
	log := h.requestLogger(r, op)

	plans, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(plans))
}

// Get возвращает тариф по идентификатору.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.Get"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Error("failed to get plan", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(p))
}

// Update применяет частичное обновление тарифа. Маршрут закрыт
// административным гейтом.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.Update"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log)
	if !ok {
		return
	}

	var req models.DummyUpdatePlan
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}

	p, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		log.Error("failed to update plan", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("plan updated", slog.String("uid", p.UID))
	render.JSON(w, r, response.OKWithData(p))
}

// Delete удаляет тариф. Маршрут закрыт административным гейтом.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.Delete"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log)
	if !ok {
		return
	}

	p, err := h.service.Delete(r.Context(), id)
	if err != nil {
		log.Error("failed to delete plan", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("plan deleted", slog.String("uid", p.UID))
	render.JSON(w, r, response.OKWithData(p))
}

// DeleteAll удаляет весь каталог. Маршрут закрыт административным гейтом.
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.DeleteAll"
	log := h.requestLogger(r, op)

	count, err := h.service.DeleteAll(r.Context())
	if err != nil {
		log.Error("failed to delete all plans", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("all plans deleted", slog.Int64("count", count))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"deleted_count": count,
	}))
}
