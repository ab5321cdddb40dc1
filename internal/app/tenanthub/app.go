// Package tenanthub собирает приложение: хранилище, миграции, кеш, сервисы,
// маршрутизацию и HTTP-сервер с корректным завершением.
package tenanthub

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/tenant-hub/internal/cache"
	"github.com/magabrotheeeer/tenant-hub/internal/config"
	"github.com/magabrotheeeer/tenant-hub/internal/lib/jwt"
	"github.com/magabrotheeeer/tenant-hub/internal/migrations"
	paymentservice "github.com/magabrotheeeer/tenant-hub/internal/services/payment"
	planservice "github.com/magabrotheeeer/tenant-hub/internal/services/plan"
	scheduleservice "github.com/magabrotheeeer/tenant-hub/internal/services/schedule"
	templateservice "github.com/magabrotheeeer/tenant-hub/internal/services/template"
	tenantservice "github.com/magabrotheeeer/tenant-hub/internal/services/tenant"
	userservice "github.com/magabrotheeeer/tenant-hub/internal/services/user"
	"github.com/magabrotheeeer/tenant-hub/internal/storage/repository"
)

// App объединяет HTTP-сервер и его зависимости.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New создает приложение: подключается к Postgres, применяет миграции,
// подключается к Redis и собирает граф сервисов и маршрутов.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)

	userService := userservice.New(db, db, jwtMaker, logger)
	tenantService := tenantservice.New(db, db, logger)
	planService := planservice.New(db, cacheRedis, logger)
	paymentService := paymentservice.New(db, logger)
	scheduleService := scheduleservice.New(db, db, logger)
	templateService := templateservice.New(db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, &Services{
		Users:     userService,
		Tenants:   tenantService,
		Plans:     planService,
		Payments:  paymentService,
		Schedules: scheduleService,
		Templates: templateService,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста или ошибки.
// При отмене контекста выполняется корректное завершение с таймаутом.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.cache.Close(); cerr != nil {
			a.logger.Error("failed to close redis connection", slog.Any("err", cerr))
		}
		if cerr := a.db.Close(); cerr != nil {
			a.logger.Error("failed to close database connection", slog.Any("err", cerr))
		}
		return err
	}
}
