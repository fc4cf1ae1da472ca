package wizard

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vendo/internal/http/response"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
	wizardsvc "github.com/magabrotheeeer/vendo/internal/services/wizard"
)

// Ограничения на размер загружаемых файлов.
const (
	MaxImageBytes = 10 << 20
	MaxVideoBytes = 50 << 20

	formOverhead = 1 << 20
)

var errTooLarge = errors.New("file too large")

// MagicFillRequest ссылка на страницу товара.
type MagicFillRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// VisualResult сгенерированный кадр.
type VisualResult struct {
	DataURL string `json:"dataUrl"`
}

// readUpload читает файл field из multipart-формы и определяет его тип.
func readUpload(w http.ResponseWriter, r *http.Request, field string, limit int64) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, "", err
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > limit {
		return nil, "", errTooLarge
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

// MagicFill godoc
// @Summary Заполнить бриф по ссылке на товар
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Param request body MagicFillRequest true "Ссылка"
// @Success 200 {object} response.Response{data=wizardsvc.State}
// @Router /wizard/{id}/magic-fill [post]
func (h *Handler) MagicFill(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.wizard.MagicFill"
	var req MagicFillRequest
	if !h.decode(w, r, h.logger(r, op), &req) {
		return
	}
	h.state(w, r, op, http.StatusOK, func(userID, id string) (wizardsvc.State, error) {
		return h.service.MagicFill(r.Context(), userID, id, req.URL)
	})
}

// Photo godoc
// @Summary Дописать в бриф разбор фото товара
// @Tags Wizard
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Param image formData file true "Фото"
// @Success 200 {object} response.Response{data=wizardsvc.State}
// @Failure 400 {object} response.ErrorResponse
// @Router /wizard/{id}/photo [post]
func (h *Handler) Photo(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "handlers.wizard.Photo", "image", MaxImageBytes, h.service.AnalyzePhoto)
}

// VideoAnalysis godoc
// @Summary Дописать в бриф разбор исходного видео
// @Tags Wizard
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Param video formData file true "Видео"
// @Success 200 {object} response.Response{data=wizardsvc.State}
// @Failure 400 {object} response.ErrorResponse
// @Router /wizard/{id}/video-analysis [post]
func (h *Handler) VideoAnalysis(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "handlers.wizard.VideoAnalysis", "video", MaxVideoBytes, h.service.AnalyzeVideo)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, op, field string, limit int64,
	analyze func(ctx context.Context, userID, id string, data []byte, mimeType string) (wizardsvc.State, error)) {
	log := h.logger(r, op)
	data, mimeType, err := readUpload(w, r, field, limit)
	if err != nil {
		log.Error("failed to read upload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read "+field+" file"))
		return
	}
	h.state(w, r, op, http.StatusOK, func(userID, id string) (wizardsvc.State, error) {
		return analyze(r.Context(), userID, id, data, mimeType)
	})
}

// Visual godoc
// @Summary Сгенерировать кадр по выбранному сценарию
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response{data=VisualResult}
// @Failure 409 {object} response.ErrorResponse
// @Router /wizard/{id}/visual [post]
func (h *Handler) Visual(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.wizard.Visual")
	userID, ok := h.userID(w, r, log)
	if !ok {
		return
	}
	img, err := h.service.Visual(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(VisualResult{DataURL: img.DataURL()}))
}

// Analysis godoc
// @Summary Прогноз удержания и озвучка сценария
// @Description Оба вызова выполняются параллельно, результат отдаётся только если успешны оба. speech содержит PCM в base64.
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response{data=wizardsvc.Analysis}
// @Failure 409 {object} response.ErrorResponse
// @Router /wizard/{id}/analysis [post]
func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.wizard.Analysis")
	userID, ok := h.userID(w, r, log)
	if !ok {
		return
	}
	a, err := h.service.Analyze(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(a))
}

// Video godoc
// @Summary Скачать готовый ролик
// @Tags Wizard
// @Produce mpeg
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {file} binary
// @Failure 404 {object} response.ErrorResponse
// @Router /wizard/{id}/video [get]
func (h *Handler) Video(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.wizard.Video")
	userID, ok := h.userID(w, r, log)
	if !ok {
		return
	}
	video, err := h.service.Video(userID, chi.URLParam(r, "id"))
	if err == nil && len(video.Data) == 0 {
		err = wizardsvc.ErrNoAsset
	}
	if err != nil {
		fail(w, r, log, err)
		return
	}

	mimeType := video.MIMEType
	if mimeType == "" {
		mimeType = "video/mp4"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(video.Data)))
	w.Header().Set("Content-Disposition", `attachment; filename="vendo-ad.mp4"`)
	if _, err := w.Write(video.Data); err != nil {
		log.Error("failed to write video", sl.Err(err))
	}
}
