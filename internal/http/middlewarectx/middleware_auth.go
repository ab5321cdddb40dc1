// Package middlewarectx содержит HTTP middleware приложения: проверку JWT
// токена, ролевой гейт, ограничение частоты запросов и сбор метрик.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке
// Authorization и в случае успеха добавляет в контекст идентификатор
// пользователя и его роль для дальнейших проверок владения.
//
// Ошибка проверки токена всегда даёт HTTP 401 Unauthorized; несоответствие
// роли на закрытых маршрутах — HTTP 403 Forbidden.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	"github.com/magabrotheeeer/tenant-hub/internal/http/response"
	"github.com/magabrotheeeer/tenant-hub/internal/lib/jwt"
	"github.com/magabrotheeeer/tenant-hub/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID — ключ для идентификатора пользователя в контексте.
	UserUID Key = "user_uid"
	// Role — ключ для роли пользователя в контексте.
	Role Key = "role"
)

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке
// Authorization.
//
// Если токен валиден, кладёт идентификатор пользователя и роль в контекст
// запроса, иначе возвращает HTTP 401 Unauthorized. Пустая роль в claims
// трактуется как базовая роль user.
func JWTMiddleware(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			role := claims.Role
			if role == "" {
				role = domain.RoleUser
			}

			ctx := context.WithValue(r.Context(), UserUID, claims.UserUID)
			ctx = context.WithValue(ctx, Role, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole возвращает middleware, пропускающий запрос только при
// совпадении роли из контекста с требуемой. Ставится после JWTMiddleware.
func RequireRole(role string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireRole"

			callerRole, ok := r.Context().Value(Role).(string)
			if !ok || callerRole != role {
				log.Error("insufficient role",
					slog.String("op", op),
					slog.String("required", role),
					slog.String("actual", callerRole),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("admin access only"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CallerFromContext извлекает аутентифицированного пользователя из контекста
// запроса. Возвращает false, если запрос не прошёл через JWTMiddleware.
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	uid, ok := ctx.Value(UserUID).(string)
	if !ok || uid == "" {
		return domain.Caller{}, false
	}
	role, ok := ctx.Value(Role).(string)
	if !ok || role == "" {
		role = domain.RoleUser
	}
	return domain.Caller{UserUID: uid, Role: role}, true
}
