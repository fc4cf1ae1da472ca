// Package public реализует обработчики публичной страницы ссылок.
// Авторизация не нужна, посетитель опознаётся по cookie сессии.
package public

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vendo/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vendo/internal/http/response"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
	"github.com/magabrotheeeer/vendo/internal/models"
	linksvc "github.com/magabrotheeeer/vendo/internal/services/links"
)

// Service описывает операции публичной страницы.
type Service interface {
	Page(ctx context.Context, username, viewer string) (linksvc.PublicPage, error)
	ToggleBlur(ctx context.Context, username, viewer, id string) (models.PublicBlock, error)
	Resolve(ctx context.Context, username, viewer, id string) (string, error)
}

// Handler обрабатывает запросы к /u/{username}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("username", chi.URLParam(r, "username")),
	)
}

func fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, linksvc.ErrNotFound):
		log.Info("page or link not found", sl.Err(err))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("not found"))
	case errors.Is(err, linksvc.ErrBlurred):
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("link is hidden until revealed"))
	case errors.Is(err, linksvc.ErrInvalidInput):
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("viewer session required"))
	default:
		log.Error("public page failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
	}
}

// Page godoc
// @Summary Публичная страница
// @Description NSFW-блоки отдаются размытыми и без URL, пока посетитель их не раскрыл.
// @Tags Public
// @Produce json
// @Param username path string true "Имя автора"
// @Success 200 {object} response.Response{data=linksvc.PublicPage}
// @Failure 404 {object} response.ErrorResponse
// @Router /u/{username} [get]
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.public.Page")
	page, err := h.service.Page(r.Context(), chi.URLParam(r, "username"), middlewarectx.ViewerFrom(r.Context()))
	if err != nil {
		fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(page))
}

// Unblur godoc
// @Summary Раскрыть или снова скрыть NSFW-блок
// @Description Состояние хранится только для текущей сессии посетителя.
// @Tags Public
// @Produce json
// @Param username path string true "Имя автора"
// @Param id path string true "ID блока"
// @Success 200 {object} response.Response{data=models.PublicBlock}
// @Failure 404 {object} response.ErrorResponse
// @Router /u/{username}/blocks/{id}/unblur [post]
func (h *Handler) Unblur(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.public.Unblur")
	block, err := h.service.ToggleBlur(r.Context(), chi.URLParam(r, "username"),
		middlewarectx.ViewerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(block))
}

// Go godoc
// @Summary Переход по ссылке
// @Description Считает клик и перенаправляет на адрес блока.
// @Tags Public
// @Param username path string true "Имя автора"
// @Param id path string true "ID блока"
// @Success 302
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /u/{username}/go/{id} [get]
func (h *Handler) Go(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.public.Go")
	url, err := h.service.Resolve(r.Context(), chi.URLParam(r, "username"),
		middlewarectx.ViewerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, log, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}
