// Package wizard реализует HTTP-обработчики мастера создания рекламы.
//
// Сессия мастера адресуется параметром {id}. Прогресс рендера отдаётся
// потоком server-sent events.
package wizard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/vendo/internal/gateway"
	"github.com/magabrotheeeer/vendo/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vendo/internal/http/response"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
	wizardsvc "github.com/magabrotheeeer/vendo/internal/services/wizard"
	"github.com/magabrotheeeer/vendo/internal/task"
)

// Service описывает операции мастера.
type Service interface {
	Create(userID string) wizardsvc.State
	Get(userID, id string) (wizardsvc.State, error)
	Reset(userID, id string) (wizardsvc.State, error)
	UpdateBrief(userID, id string, brief wizardsvc.Brief) (wizardsvc.State, error)
	SubmitBrief(ctx context.Context, userID, id string, brief wizardsvc.Brief, pastHeroScripts []string) (wizardsvc.State, error)
	MagicFill(ctx context.Context, userID, id, url string) (wizardsvc.State, error)
	AnalyzePhoto(ctx context.Context, userID, id string, image []byte, mimeType string) (wizardsvc.State, error)
	AnalyzeVideo(ctx context.Context, userID, id string, video []byte, mimeType string) (wizardsvc.State, error)
	SelectCandidate(userID, id string, index int) (wizardsvc.State, error)
	Refine(ctx context.Context, userID, id, nudge string) (wizardsvc.State, error)
	Visual(ctx context.Context, userID, id string) (gateway.Image, error)
	Render(ctx context.Context, userID, id string) (wizardsvc.State, error)
	Events(userID, id string) (<-chan task.Event, func(), task.Snapshot, error)
	Analyze(ctx context.Context, userID, id string) (wizardsvc.Analysis, error)
	Video(userID, id string) (gateway.Video, error)
}

// Handler обрабатывает запросы к /wizard.
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
		slog.String("session_id", chi.URLParam(r, "id")),
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

type mapping struct {
	err    error
	status int
	msg    string
}

var errorMap = []mapping{
	{wizardsvc.ErrNotFound, http.StatusNotFound, "wizard session not found"},
	{wizardsvc.ErrInvalidStep, http.StatusConflict, "operation not allowed at current step"},
	{wizardsvc.ErrNoSelection, http.StatusConflict, "no candidate selected"},
	{wizardsvc.ErrRendering, http.StatusConflict, "render in progress"},
	{wizardsvc.ErrBusy, http.StatusConflict, "generation in progress"},
	{wizardsvc.ErrReset, http.StatusConflict, "session was reset"},
	{wizardsvc.ErrInvalidIndex, http.StatusUnprocessableEntity, "candidate index out of range"},
	{wizardsvc.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid input"},
	{wizardsvc.ErrNoAsset, http.StatusNotFound, "asset not ready"},
	{wizardsvc.ErrNoCredential, http.StatusPreconditionRequired, "generative model credential required"},
	{gateway.ErrCredential, http.StatusPreconditionRequired, "generative model credential required"},
	{wizardsvc.ErrNotEnoughCandidates, http.StatusBadGateway, "model returned too few candidates"},
	{gateway.ErrEmptyResponse, http.StatusBadGateway, "model returned empty response"},
	{gateway.ErrVideoFailed, http.StatusBadGateway, "video generation failed"},
}

func fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	for _, m := range errorMap {
		if errors.Is(err, m.err) {
			log.Info("wizard operation rejected", sl.Err(err))
			w.WriteHeader(m.status)
			render.JSON(w, r, response.Error(m.msg))
			return
		}
	}
	log.Error("wizard operation failed", sl.Err(err))
	w.WriteHeader(http.StatusInternalServerError)
	render.JSON(w, r, response.Error("internal service error"))
}

// state выполняет операцию над сессией и отдаёт её состояние.
func (h *Handler) state(w http.ResponseWriter, r *http.Request, op string, status int,
	fn func(userID, id string) (wizardsvc.State, error)) {
	log := h.logger(r, op)
	userID, ok := h.userID(w, r, log)
	if !ok {
		return
	}
	st, err := fn(userID, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, log, err)
		return
	}
	w.WriteHeader(status)
	render.JSON(w, r, response.StatusOKWithData(st))
}
