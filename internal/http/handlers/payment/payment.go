// Package payment реализует HTTP-обработчики платёжных записей.
package payment

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

// Handler управляет HTTP-запросами к платежам.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики платежей.
type Service interface {
	Create(ctx context.Context, caller domain.Caller, req models.DummyCreatePayment) (*models.Payment, error)
	Get(ctx context.Context, caller domain.Caller, paymentUID string) (*models.Payment, error)
	List(ctx context.Context) ([]*models.Payment, error)
	ListByUser(ctx context.Context, caller domain.Caller, userUID string) ([]*models.Payment, error)
	Update(ctx context.Context, paymentUID string, patch models.DummyUpdatePayment) (*models.Payment, error)
	Delete(ctx context.Context, paymentUID string) (*models.Payment, error)
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

// Create создает платёжную запись вручную.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.Create"
	log := h.requestLogger(r, op)

	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	var req models.DummyCreatePayment
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}

	p, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		log.Error("failed to create payment", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("payment created", slog.String("uid", p.UID))
	render.JSON(w, r, response.OKWithData(p))
}

// List возвращает все платежи. Маршрут закрыт административным гейтом.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.List"
	log := h.requestLogger(r, op)

	payments, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(payments))
}

// ListByUser возвращает платежи одного пользователя с проверкой владения.
func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.ListByUser"
	log := h.requestLogger(r, op)

	userUID, ok := pathUID(w, r, log, "userId")
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	payments, err := h.service.ListByUser(r.Context(), caller, userUID)
	if err != nil {
		log.Error("failed to list user payments", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(payments))
}

// Get возвращает платёж по идентификатору с проверкой владения.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.Get"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log, "id")
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r, log)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		log.Error("failed to get payment", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(p))
}

// Update применяет административную правку платежа. Маршрут закрыт
// административным гейтом.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.Update"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log, "id")
	if !ok {
		return
	}

	var req models.DummyUpdatePayment
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}

	p, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		log.Error("failed to update payment", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("payment updated", slog.String("uid", p.UID))
	render.JSON(w, r, response.OKWithData(p))
}

// Delete удаляет платёж. Маршрут закрыт административным гейтом.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.Delete"
	log := h.requestLogger(r, op)

	id, ok := pathUID(w, r, log, "id")
	if !ok {
		return
	}

	p, err := h.service.Delete(r.Context(), id)
	if err != nil {
		log.Error("failed to delete payment", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("payment deleted", slog.String("uid", p.UID))
	render.JSON(w, r, response.OKWithData(p))
}

// DeleteAll удаляет все платежи. Маршрут закрыт административным гейтом.
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.DeleteAll"
	log := h.requestLogger(r, op)

	count, err := h.service.DeleteAll(r.Context())
	if err != nil {
		log.Error("failed to delete all payments", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("all payments deleted", slog.Int64("count", count))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"deleted_count": count,
	}))
}
