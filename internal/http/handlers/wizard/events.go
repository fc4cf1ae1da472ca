package wizard

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vendo/internal/http/response"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
	wizardsvc "github.com/magabrotheeeer/vendo/internal/services/wizard"
	"github.com/magabrotheeeer/vendo/internal/task"
)

// KeepAlive период комментариев, которые не дают прокси закрыть поток.
var KeepAlive = 15 * time.Second

// Render godoc
// @Summary Запустить рендер выбранного сценария
// @Description Рендер идёт в фоне, прогресс доступен через /wizard/{id}/events. Требуется тариф pro или активный пробный период.
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 202 {object} response.Response{data=wizardsvc.State}
// @Failure 402 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 428 {object} response.ErrorResponse
// @Router /wizard/{id}/render [post]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	h.state(w, r, "handlers.wizard.Render", http.StatusAccepted, func(userID, id string) (wizardsvc.State, error) {
		return h.service.Render(r.Context(), userID, id)
	})
}

// writeEvent пишет одно событие в формате text/event-stream.
func writeEvent(w io.Writer, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}

func terminal(s task.State) bool {
	return s == task.StateCompleted || s == task.StateFailed
}

// Events godoc
// @Summary Поток прогресса рендера
// @Description Server-sent events. Первое событие snapshot содержит текущее состояние, затем идут start, tick, complete или fail. Поток закрывается после завершающего события.
// @Tags Wizard
// @Produce text/event-stream
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {string} string "event stream"
// @Failure 404 {object} response.ErrorResponse
// @Router /wizard/{id}/events [get]
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.wizard.Events")
	userID, ok := h.userID(w, r, log)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming unsupported")
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("streaming unsupported"))
		return
	}

	events, unsubscribe, snap, err := h.service.Events(userID, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, log, err)
		return
	}
	defer unsubscribe()

	// Поток живёт дольше WriteTimeout сервера.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "snapshot", snap); err != nil {
		log.Error("failed to write snapshot", sl.Err(err))
		return
	}
	flusher.Flush()
	if terminal(snap.State) {
		return
	}

	keepAlive := time.NewTicker(KeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, string(e.Type), e); err != nil {
				log.Error("failed to write event", sl.Err(err))
				return
			}
			flusher.Flush()
			if e.Type == task.EventComplete || e.Type == task.EventFail {
				return
			}
		}
	}
}
