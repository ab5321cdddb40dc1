// Package plan содержит бизнес-логику каталога тарифных планов.
// Каталог читается намного чаще, чем меняется, поэтому чтения
// прикрыты Redis-кешем, а любая запись сбрасывает его.
package plan

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/tenant-hub/internal/lib/sl"
	"github.com/magabrotheeeer/tenant-hub/internal/models"
)

// Время жизни кеша каталога.
const cacheTTL = 10 * time.Minute

const listCacheKey = "plans:all"

// Repository описывает контракт хранилища тарифов.
type Repository interface {
	CreatePlan(ctx context.Context, plan models.Plan) (*models.Plan, error)
	GetPlan(ctx context.Context, planUID string) (*models.Plan, error)
	ListPlans(ctx context.Context) ([]*models.Plan, error)
	UpdatePlan(ctx context.Context, plan *models.Plan) (*models.Plan, error)
	DeletePlan(ctx context.Context, planUID string) (*models.Plan, error)
	DeleteAllPlans(ctx context.Context) (int64, error)
}

// Cache описывает кеш значений с JSON-сериализацией.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service реализует бизнес-логику каталога тарифов.
type Service struct {
	plans Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый Service.
func New(plans Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{plans: plans, cache: cache, log: log}
}

func planCacheKey(planUID string) string {
	return "plans:" + planUID
}

// Ошибки кеша не фатальны: логируем и идём в хранилище.

// Create создает тариф и сбрасывает кеш списка.
func (s *Service) Create(ctx context.Context, req models.DummyCreatePlan) (*models.Plan, error) {
	created, err := s.plans.CreatePlan(ctx, models.Plan{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		MonthlyPrice: req.MonthlyPrice,
		YearlyPrice:  req.YearlyPrice,
		StaffLimit:   req.StaffLimit,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, listCacheKey)
	return created, nil
}

// Get возвращает тариф, при возможности из кеша.
func (s *Service) Get(ctx context.Context, planUID string) (*models.Plan, error) {
	key := planCacheKey(planUID)

	var cached models.Plan
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("plan cache read failed", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	p, err := s.plans.GetPlan(ctx, planUID)
	if err != nil {
		return nil, err
	}
	if err = s.cache.Set(ctx, key, p, cacheTTL); err != nil {
		s.log.Warn("plan cache write failed", sl.Err(err))
	}
	return p, nil
}

// List возвращает весь каталог, при возможности из кеша.
func (s *Service) List(ctx context.Context) ([]*models.Plan, error) {
	var cached []*models.Plan
	found, err := s.cache.Get(ctx, listCacheKey, &cached)
	if err != nil {
		s.log.Warn("plan cache read failed", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	plans, err := s.plans.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	if err = s.cache.Set(ctx, listCacheKey, plans, cacheTTL); err != nil {
		s.log.Warn("plan cache write failed", sl.Err(err))
	}
	return plans, nil
}

// Update применяет частичное обновление тарифа и сбрасывает кеш.
func (s *Service) Update(ctx context.Context, planUID string, patch models.DummyUpdatePlan) (*models.Plan, error) {
	p, err := s.plans.GetPlan(ctx, planUID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.MonthlyPrice != nil {
		p.MonthlyPrice = *patch.MonthlyPrice
	}
	if patch.YearlyPrice != nil {
		p.YearlyPrice = *patch.YearlyPrice
	}
	if patch.StaffLimit != nil {
		p.StaffLimit = *patch.StaffLimit
	}

	updated, err := s.plans.UpdatePlan(ctx, p)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, planCacheKey(planUID))
	s.invalidate(ctx, listCacheKey)
	return updated, nil
}

// Delete удаляет тариф и сбрасывает кеш.
func (s *Service) Delete(ctx context.Context, planUID string) (*models.Plan, error) {
	deleted, err := s.plans.DeletePlan(ctx, planUID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, planCacheKey(planUID))
	s.invalidate(ctx, listCacheKey)
	return deleted, nil
}

// DeleteAll удаляет весь каталог и сбрасывает кеш списка.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	count, err := s.plans.DeleteAllPlans(ctx)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, listCacheKey)
	return count, nil
}

func (s *Service) invalidate(ctx context.Context, key string) {
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("plan cache invalidation failed",
			slog.String("key", key), sl.Err(err))
	}
}
