package wizard

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vendo/internal/http/response"
	wizardsvc "github.com/magabrotheeeer/vendo/internal/services/wizard"
)

// BriefRequest бриф продукта.
type BriefRequest struct {
	ProductName string `json:"productName" validate:"max=200"`
	Description string `json:"description" validate:"max=5000"`
	Tone        string `json:"tone" validate:"max=40"`
}

func (b BriefRequest) brief() wizardsvc.Brief {
	return wizardsvc.Brief{ProductName: b.ProductName, Description: b.Description, Tone: b.Tone}
}

// SubmitRequest бриф и сценарии прошлых успешных кампаний.
type SubmitRequest struct {
	Brief           BriefRequest `json:"brief"`
	PastHeroScripts []string     `json:"pastHeroScripts" validate:"max=10"`
}

// SelectRequest индекс выбранного сценария.
type SelectRequest struct {
	Index *int `json:"index" validate:"required"`
}

// RefineRequest пожелание к сценарию.
type RefineRequest struct {
	Nudge string `json:"nudge" validate:"required,max=500"`
}

// Create godoc
// @Summary Новая сессия мастера
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Response{data=wizardsvc.State}
// @Router /wizard [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.wizard.Create")
	userID, ok := h.userID(w, r, log)
	if !ok {
		return
	}
	st := h.service.Create(userID)
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(st))
}

// Get godoc
// @Summary Состояние сессии
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response{data=wizardsvc.State}
// @Failure 404 {object} response.ErrorResponse
// @Router /wizard/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.state(w, r, "handlers.wizard.Get", http.StatusOK, h.service.Get)
}

// Reset godoc
// @Summary Сбросить сессию
// @Description Возвращает мастер на шаг брифа. Результат идущего рендера будет отброшен.
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response{data=wizardsvc.State}
// @Router /wizard/{id}/reset [post]
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.state(w, r, "handlers.wizard.Reset", http.StatusOK, h.service.Reset)
}

// UpdateBrief godoc
// @Summary Сохранить бриф
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Param request body BriefRequest true "Бриф"
// @Success 200 {object} response.Response{data=wizardsvc.State}
// @Failure 409 {object} response.ErrorResponse
// @Router /wizard/{id}/brief [put]
func (h *Handler) UpdateBrief(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.wizard.UpdateBrief"
	var req BriefRequest
	if !h.decode(w, r, h.logger(r, op), &req) {
		return
	}
	h.state(w, r, op, http.StatusOK, func(userID, id string) (wizardsvc.State, error) {
		return h.service.UpdateBrief(userID, id, req.brief())
	})
}

// SubmitBrief godoc
// @Summary Сгенерировать три сценария
// @Description Без pastHeroScripts используются сценарии последних завершённых кампаний.
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Param request body SubmitRequest true "Бриф"
// @Success 200 {object} response.Response{data=wizardsvc.State}
// @Failure 422 {object} response.ErrorResponse
// @Failure 428 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /wizard/{id}/brief/submit [post]
func (h *Handler) SubmitBrief(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.wizard.SubmitBrief"
	var req SubmitRequest
	if !h.decode(w, r, h.logger(r, op), &req) {
		return
	}
	h.state(w, r, op, http.StatusOK, func(userID, id string) (wizardsvc.State, error) {
		return h.service.SubmitBrief(r.Context(), userID, id, req.Brief.brief(), req.PastHeroScripts)
	})
}

// Select godoc
// @Summary Выбрать сценарий
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Param request body SelectRequest true "Индекс 0..2"
// @Success 200 {object} response.Response{data=wizardsvc.State}
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /wizard/{id}/select [post]
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.wizard.Select"
	var req SelectRequest
	if !h.decode(w, r, h.logger(r, op), &req) {
		return
	}
	h.state(w, r, op, http.StatusOK, func(userID, id string) (wizardsvc.State, error) {
		return h.service.SelectCandidate(userID, id, *req.Index)
	})
}

// Refine godoc
// @Summary Доработать выбранный сценарий
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Param request body RefineRequest true "Пожелание"
// @Success 200 {object} response.Response{data=wizardsvc.State}
// @Failure 409 {object} response.ErrorResponse
// @Router /wizard/{id}/refine [post]
func (h *Handler) Refine(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.wizard.Refine"
	var req RefineRequest
	if !h.decode(w, r, h.logger(r, op), &req) {
		return
	}
	h.state(w, r, op, http.StatusOK, func(userID, id string) (wizardsvc.State, error) {
		return h.service.Refine(r.Context(), userID, id, req.Nudge)
	})
}
