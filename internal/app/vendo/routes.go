package vendo

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация документации Swagger.
	_ "github.com/magabrotheeeer/vendo/docs"
	"github.com/magabrotheeeer/vendo/internal/config"
	"github.com/magabrotheeeer/vendo/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/vendo/internal/http/handlers/links"
	"github.com/magabrotheeeer/vendo/internal/http/handlers/public"
	"github.com/magabrotheeeer/vendo/internal/http/handlers/stats"
	"github.com/magabrotheeeer/vendo/internal/http/handlers/user"
	"github.com/magabrotheeeer/vendo/internal/http/handlers/wizard"
	"github.com/magabrotheeeer/vendo/internal/http/middlewarectx"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, svc Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	userHandler := user.New(logger, svc.Users)
	linksHandler := links.New(logger, svc.Links)
	wizardHandler := wizard.New(logger, svc.Wizard)
	statsHandler := stats.New(logger, svc.Stats)
	publicHandler := public.New(logger, svc.Links)

	// Один лимитер на все вызовы генеративной модели.
	aiLimit := middlewarectx.RateLimitMiddleware(cfg.RateLimit, logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.ViewerMiddleware)
			r.Get("/u/{username}", publicHandler.Page)
			r.Post("/u/{username}/blocks/{id}/unblur", publicHandler.Unblur)
			r.Get("/u/{username}/go/{id}", publicHandler.Go)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.JWT, logger))

			r.Get("/me", userHandler.Me)
			r.Post("/me/privacy/toggle", userHandler.TogglePrivacy)
			r.Post("/me/upgrade", userHandler.Upgrade)
			r.Put("/me/tracking", userHandler.SetTracking)
			r.Post("/me/onboarding", userHandler.CompleteOnboarding)

			r.Get("/links", linksHandler.List)
			r.With(aiLimit).Post("/links", linksHandler.Add)
			r.Put("/links/mode", linksHandler.SetMode)
			r.Get("/links/qr", linksHandler.QR)
			r.Delete("/links/{id}", linksHandler.Remove)
			r.Post("/links/{id}/move", linksHandler.Move)

			r.Route("/wizard", func(r chi.Router) {
				r.Post("/", wizardHandler.Create)
				r.Get("/{id}", wizardHandler.Get)
				r.Post("/{id}/reset", wizardHandler.Reset)
				r.Put("/{id}/brief", wizardHandler.UpdateBrief)
				r.Post("/{id}/select", wizardHandler.Select)
				r.Get("/{id}/events", wizardHandler.Events)
				r.Get("/{id}/video", wizardHandler.Video)

				r.Group(func(r chi.Router) {
					r.Use(aiLimit)
					r.Post("/{id}/brief/submit", wizardHandler.SubmitBrief)
					r.Post("/{id}/refine", wizardHandler.Refine)
					r.Post("/{id}/magic-fill", wizardHandler.MagicFill)
					r.Post("/{id}/photo", wizardHandler.Photo)
					r.Post("/{id}/video-analysis", wizardHandler.VideoAnalysis)
					r.Post("/{id}/visual", wizardHandler.Visual)
					r.Post("/{id}/analysis", wizardHandler.Analysis)
					r.With(middlewarectx.SubscriptionMiddleware(svc.Users, logger)).
						Post("/{id}/render", wizardHandler.Render)
				})
			})

			r.Get("/stats/overview", statsHandler.Overview)
			r.Get("/stats/roi", statsHandler.ROI)
			r.With(aiLimit).Get("/stats/insight", statsHandler.Insight)
			r.With(aiLimit).Get("/stats/events", statsHandler.Events)
			r.With(aiLimit).Post("/dashboard/transcribe", statsHandler.Transcribe)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
