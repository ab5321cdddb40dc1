// Package schedule реализует HTTP-обработчики расписаний рассылки.
package schedule

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

// Handler управляет HTTP-запросами к расписаниям.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики расписаний.
type Service interface {
	Create(ctx context.Context, caller domain.Caller, req models.DummyCreateSchedule) (*models.Schedule, error)
	Get(ctx context.Context, caller domain.Caller, scheduleUID string) (*models.Schedule, error)
	List(ctx context.Context) ([]*models.Schedule, error)
	ListByUser(ctx context.Context, caller domain.Caller, userUID string) ([]*models.Schedule, error)
	Update(ctx context.Context, caller domain.Caller, scheduleUID string, patch models.DummyUpdateSchedule) (*models.Schedule, error)
	Delete(ctx context.Context, caller domain.Caller, scheduleUID string) (*models.Schedule, error)
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

// Create создает расписание.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.Create"
	log := h.requestLogger(r, op)

	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	var req models.DummyCreateSchedule
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}

	sch, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		log.Error("failed to create schedule", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("schedule created", slog.String("uid", sch.UID))
	render.JSON(w, r, response.OKWithData(sch))
}

// List возвращает все расписания. Маршрут закрыт административным гейтом.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.List"
	log := h.requestLogger(r, op)

	schedules, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list schedules", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(schedules))
}

// ListByUser возвращает расписания одного пользователя с проверкой владения.
func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.ListByUser"
	log := h.requestLogger(r, op)

	userUID, ok := pathUID(w, r, log, "userId")
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	schedules, err := h.service.ListByUser(r.Context(), caller, userUID)
	if err != nil {
		log.Error("failed to list user schedules", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(schedules))
}

// Get возвращает расписание по идентификатору с проверкой владения.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.Get"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log, "id")
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	sch, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		log.Error("failed to get schedule", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(sch))
}

// Update применяет частичное обновление расписания с проверкой владения.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.Update"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log, "id")
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	var req models.DummyUpdateSchedule
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}

	sch, err := h.service.Update(r.Context(), caller, id, req)
	if err != nil {
		log.Error("failed to update schedule", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("schedule updated", slog.String("uid", sch.UID))
	render.JSON(w, r, response.OKWithData(sch))
}

// Delete удаляет расписание с проверкой владения.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.Delete"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log, "id")
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	sch, err := h.service.Delete(r.Context(), caller, id)
	if err != nil {
		log.Error("failed to delete schedule", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("schedule deleted", slog.String("uid", sch.UID))
	render.JSON(w, r, response.OKWithData(sch))
}

// DeleteAll удаляет все расписания. Маршрут закрыт административным гейтом.
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.DeleteAll"
	log := h.requestLogger(r, op)

	count, err := h.service.DeleteAll(r.Context())
	if err != nil {
		log.Error("failed to delete all schedules", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("all schedules deleted", slog.Int64("count", count))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"deleted_count": count,
	}))
}
