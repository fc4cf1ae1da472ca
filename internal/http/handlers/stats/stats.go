// Package stats реализует HTTP-обработчики дашборда.
package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vendo/internal/gateway"
	"github.com/magabrotheeeer/vendo/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vendo/internal/http/response"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
	"github.com/magabrotheeeer/vendo/internal/models"
	statssvc "github.com/magabrotheeeer/vendo/internal/services/stats"
)

// MaxAudioBytes ограничение на размер голосового брифа.
const MaxAudioBytes = 10 << 20

// Service описывает данные дашборда.
type Service interface {
	Overview() models.Overview
	Insight(ctx context.Context, userID string) (models.SuccessInsight, error)
	Events(ctx context.Context, lat, lng float64) (models.LocalEvents, error)
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Transcript расшифровка голосового брифа.
type Transcript struct {
	Text string `json:"text"`
}

// Handler обрабатывает запросы к /stats и /dashboard.
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
	)
}

func fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, statssvc.ErrInvalidInput):
		log.Info("invalid stats input", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("invalid parameters"))
	case errors.Is(err, gateway.ErrCredential):
		log.Info("credential required", sl.Err(err))
		w.WriteHeader(http.StatusPreconditionRequired)
		render.JSON(w, r, response.Error("generative model credential required"))
	default:
		log.Error("stats operation failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
	}
}

// Overview godoc
// @Summary Клики за неделю и источники трафика
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.Overview}
// @Router /stats/overview [get]
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(h.service.Overview()))
}

// Insight godoc
// @Summary Почему сработал лучший сценарий
// @Description Результат кешируется на час.
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.SuccessInsight}
// @Failure 428 {object} response.ErrorResponse
// @Router /stats/insight [get]
func (h *Handler) Insight(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.stats.Insight")
	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	insight, err := h.service.Insight(r.Context(), userID)
	if err != nil {
		fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(insight))
}

// ROI godoc
// @Summary Калькулятор окупаемости
// @Description Пропущенные параметры заменяются значениями по умолчанию: 428 кликов, конверсия 0.02, средний чек 50, затраты 25.
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Param clicks query int false "Клики"
// @Param conversionRate query number false "Конверсия 0..1"
// @Param averageOrderValue query number false "Средний чек"
// @Param cost query number false "Затраты"
// @Success 200 {object} response.Response{data=models.ROI}
// @Failure 422 {object} response.ErrorResponse
// @Router /stats/roi [get]
func (h *Handler) ROI(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.stats.ROI")
	q := r.URL.Query()

	var (
		in  statssvc.ROIInput
		err error
	)
	parse := func(name string, dst *float64) {
		if v := q.Get(name); v != "" && err == nil {
			*dst, err = strconv.ParseFloat(v, 64)
		}
	}
	if v := q.Get("clicks"); v != "" {
		in.Clicks, err = strconv.ParseInt(v, 10, 64)
	}
	parse("conversionRate", &in.ConversionRate)
	parse("averageOrderValue", &in.AverageOrderValue)
	parse("cost", &in.Cost)
	if err != nil {
		log.Info("failed to parse roi parameters", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid query parameters"))
		return
	}

	roi, err := statssvc.ROI(in)
	if err != nil {
		fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(roi))
}

// Events godoc
// @Summary События для авторов рядом
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Param lat query number true "Широта"
// @Param lng query number true "Долгота"
// @Success 200 {object} response.Response{data=models.LocalEvents}
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /stats/events [get]
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.stats.Events")

	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err := errors.Join(errLat, errLng); err != nil {
		log.Info("failed to parse coordinates", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("lat and lng are required"))
		return
	}

	events, err := h.service.Events(r.Context(), lat, lng)
	if err != nil {
		fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(events))
}

// Transcribe godoc
// @Summary Расшифровать голосовой бриф
// @Tags Stats
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param audio formData file true "Аудио"
// @Success 200 {object} response.Response{data=Transcript}
// @Failure 400 {object} response.ErrorResponse
// @Router /dashboard/transcribe [post]
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.stats.Transcribe")

	r.Body = http.MaxBytesReader(w, r.Body, MaxAudioBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		log.Info("failed to read audio", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read audio file"))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		log.Info("failed to read audio", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read audio file"))
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(audio)
	}

	text, err := h.service.Transcribe(r.Context(), audio, mimeType)
	if err != nil {
		fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(Transcript{Text: text}))
}
