// Package user реализует HTTP-обработчики профиля и настроек текущего пользователя.
package user

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/vendo/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vendo/internal/http/response"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
	"github.com/magabrotheeeer/vendo/internal/models"
	usersvc "github.com/magabrotheeeer/vendo/internal/services/user"
)

// Service описывает операции над профилем.
type Service interface {
	Get(ctx context.Context, id string) (*models.User, error)
	TogglePrivacy(ctx context.Context, id string) (*models.User, error)
	Upgrade(ctx context.Context, id string) (*models.User, error)
	SetTrackingPixels(ctx context.Context, id string, pixels models.TrackingPixels) (*models.User, error)
	CompleteOnboarding(ctx context.Context, id string) (*models.User, error)
}

// Handler обрабатывает запросы к /me.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Me godoc
// @Summary Текущий пользователь
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.User}
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "handlers.user.Me", h.service.Get)
}

// TogglePrivacy godoc
// @Summary Переключить автоудаление данных через 24 месяца
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.User}
// @Router /me/privacy/toggle [post]
func (h *Handler) TogglePrivacy(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "handlers.user.TogglePrivacy", h.service.TogglePrivacy)
}

// Upgrade godoc
// @Summary Перейти на тариф pro
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.User}
// @Router /me/upgrade [post]
func (h *Handler) Upgrade(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "handlers.user.Upgrade", h.service.Upgrade)
}

// CompleteOnboarding godoc
// @Summary Отметить онбординг пройденным
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.User}
// @Router /me/onboarding [post]
func (h *Handler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "handlers.user.CompleteOnboarding", h.service.CompleteOnboarding)
}

// SetTracking godoc
// @Summary Сохранить идентификаторы пикселей аналитики
// @Description Пустые значения удаляют пиксели.
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.TrackingPixels true "Пиксели"
// @Success 200 {object} response.Response{data=models.User}
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /me/tracking [put]
func (h *Handler) SetTracking(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.SetTracking"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.TrackingPixels
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	h.apply(w, r, op, func(ctx context.Context, id string) (*models.User, error) {
		return h.service.SetTrackingPixels(ctx, id, req)
	})
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, op string,
	fn func(ctx context.Context, id string) (*models.User, error)) {
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	u, err := fn(r.Context(), userID)
	if err != nil {
		if errors.Is(err, usersvc.ErrNotFound) {
			log.Info("user not found", slog.String("user_id", userID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("user operation failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(u))
}
