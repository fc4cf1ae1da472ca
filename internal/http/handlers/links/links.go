// Package links реализует HTTP-обработчики управления блоками страницы ссылок.
package links

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/vendo/internal/gateway"
	"github.com/magabrotheeeer/vendo/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vendo/internal/http/response"
	"github.com/magabrotheeeer/vendo/internal/hub"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
	"github.com/magabrotheeeer/vendo/internal/models"
	linksvc "github.com/magabrotheeeer/vendo/internal/services/links"
)

// Service описывает операции над блоками владельца.
type Service interface {
	List(ctx context.Context, userID string, mode hub.Mode) (linksvc.View, error)
	Add(ctx context.Context, userID string, req models.NewLink) (models.LinkBlock, error)
	Remove(ctx context.Context, userID, id string) error
	Move(ctx context.Context, userID, id string, dir hub.Direction) (linksvc.View, error)
	SetMode(ctx context.Context, userID string, mode hub.Mode) error
	QR(ctx context.Context, userID string) (hub.QRCode, error)
}

// MoveRequest направление перемещения блока.
type MoveRequest struct {
	Direction hub.Direction `json:"direction" validate:"required,oneof=up down"`
}

// ModeRequest режим страницы.
type ModeRequest struct {
	Mode hub.Mode `json:"mode" validate:"required,oneof=performance grouped manual"`
}

// Handler обрабатывает запросы к /links.
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

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	id, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
	}
	return id, ok
}

// decode читает и валидирует тело запроса.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return false
	}
	return true
}

func fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, msg := http.StatusInternalServerError, "internal service error"
	switch {
	case errors.Is(err, linksvc.ErrNotFound):
		status, msg = http.StatusNotFound, "link not found"
	case errors.Is(err, linksvc.ErrInvalidInput):
		status, msg = http.StatusUnprocessableEntity, "title and url must not be empty"
	case errors.Is(err, linksvc.ErrInvalidMode):
		status, msg = http.StatusUnprocessableEntity, "invalid mode"
	case errors.Is(err, linksvc.ErrInvalidDirection):
		status, msg = http.StatusUnprocessableEntity, "invalid direction"
	case errors.Is(err, gateway.ErrCredential):
		status, msg = http.StatusPreconditionRequired, "generative model credential required"
	}
	if status == http.StatusInternalServerError {
		log.Error("links operation failed", sl.Err(err))
	} else {
		log.Info("links operation rejected", sl.Err(err))
	}
	w.WriteHeader(status)
	render.JSON(w, r, response.Error(msg))
}

// List godoc
// @Summary Блоки страницы
// @Description Возвращает блоки в выбранном режиме. Без параметра используется сохранённый режим.
// @Tags Links
// @Produce json
// @Security BearerAuth
// @Param mode query string false "performance, grouped или manual"
// @Success 200 {object} response.Response{data=linksvc.View}
// @Failure 422 {object} response.ErrorResponse
// @Router /links [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.links.List")
	userID, ok := h.userID(w, r, log)
	if !ok {
		return
	}

	mode := hub.Mode(r.URL.Query().Get("mode"))
	if mode != "" && !mode.Valid() {
		fail(w, r, log, linksvc.ErrInvalidMode)
		return
	}

	v, err := h.service.List(r.Context(), userID, mode)
	if err != nil {
		fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(v))
}

// Add godoc
// @Summary Добавить блок
// @Description URL нормализуется, тип определяется по домену. Hero-блоки проверяются на NSFW.
// @Tags Links
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.NewLink true "Новый блок"
// @Success 201 {object} response.Response{data=models.LinkBlock}
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /links [post]
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.links.Add")
	userID, ok := h.userID(w, r, log)
	if !ok {
		return
	}

	var req models.NewLink
	if !h.decode(w, r, log, &req) {
		return
	}

	block, err := h.service.Add(r.Context(), userID, req)
	if err != nil {
		fail(w, r, log, err)
		return
	}
	log.Info("link added", slog.String("link_id", block.ID), slog.String("type", string(block.Type)))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(block))
}

// Remove godoc
// @Summary Удалить блок
// @Tags Links
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID блока"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /links/{id} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.links.Remove")
	userID, ok := h.userID(w, r, log)
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}

// Move godoc
// @Summary Переместить блок
// @Description Фиксирует показанный порядок, меняет блок с соседом и включает ручной режим.
// @Tags Links
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID блока"
// @Param request body MoveRequest true "Направление"
// @Success 200 {object} response.Response{data=linksvc.View}
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /links/{id}/move [post]
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.links.Move")
	userID, ok := h.userID(w, r, log)
	if !ok {
		return
	}

	var req MoveRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	v, err := h.service.Move(r.Context(), userID, chi.URLParam(r, "id"), req.Direction)
	if err != nil {
		fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(v))
}

// SetMode godoc
// @Summary Сменить режим страницы
// @Tags Links
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ModeRequest true "Режим"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /links/mode [put]
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.links.SetMode")
	userID, ok := h.userID(w, r, log)
	if !ok {
		return
	}

	var req ModeRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	if err := h.service.SetMode(r.Context(), userID, req.Mode); err != nil {
		fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}

// QR godoc
// @Summary QR-код публичной страницы
// @Description PNG-изображение. Заголовок X-QR-Revision меняется при изменении набора ссылок.
// @Tags Links
// @Produce png
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /links/qr [get]
func (h *Handler) QR(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.links.QR")
	userID, ok := h.userID(w, r, log)
	if !ok {
		return
	}

	code, err := h.service.QR(r.Context(), userID)
	if err != nil {
		fail(w, r, log, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(code.PNG)))
	w.Header().Set("X-QR-Revision", code.Revision)
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(code.PNG); err != nil {
		log.Error("failed to write qr", sl.Err(err))
	}
}
