package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vendo/internal/http/response"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
	"github.com/magabrotheeeer/vendo/internal/models"
)

// UserGetter читает профиль пользователя.
type UserGetter interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// SubscriptionMiddleware пропускает запрос, только если пользователь на
// тарифе pro или его пробный период ещё не истёк.
func SubscriptionMiddleware(users UserGetter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFrom(r.Context())
			if !ok {
				log.Error("user identification missing")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			u, err := users.Get(r.Context(), userID)
			if err != nil {
				log.Error("failed to get user", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			if !u.CanRender(time.Now()) {
				log.Info("trial expired, access denied", slog.String("user_id", userID))
				w.WriteHeader(http.StatusPaymentRequired)
				render.JSON(w, r, response.Error("trial expired, upgrade to pro"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
