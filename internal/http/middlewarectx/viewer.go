package middlewarectx

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ViewerCookie имя cookie с идентификатором посетителя.
const ViewerCookie = "vendo_viewer"

const viewerCookieTTL = 12 * time.Hour

// ViewerMiddleware выдаёт анонимному посетителю публичной страницы
// идентификатор сессии в cookie и кладёт его в контекст.
func ViewerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer := ""
		if c, err := r.Cookie(ViewerCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				viewer = c.Value
			}
		}
		if viewer == "" {
			viewer = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ViewerCookie,
				Value:    viewer,
				Path:     "/",
				MaxAge:   int(viewerCookieTTL / time.Second),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), Viewer, viewer)))
	})
}

// ViewerFrom возвращает идентификатор посетителя.
func ViewerFrom(ctx context.Context) string {
	v, _ := ctx.Value(Viewer).(string)
	return v
}
