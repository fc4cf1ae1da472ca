package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/vendo/internal/gateway"
	"github.com/magabrotheeeer/vendo/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vendo/internal/models"
	statssvc "github.com/magabrotheeeer/vendo/internal/services/stats"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Overview() models.Overview {
	return m.Called().Get(0).(models.Overview)
}
func (m *ServiceMock) Insight(ctx context.Context, userID string) (models.SuccessInsight, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.SuccessInsight), args.Error(1)
}
func (m *ServiceMock) Events(ctx context.Context, lat, lng float64) (models.LocalEvents, error) {
	args := m.Called(ctx, lat, lng)
	return args.Get(0).(models.LocalEvents), args.Error(1)
}
func (m *ServiceMock) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	args := m.Called(ctx, audio, mimeType)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestROI(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		want      int
		wantSales float64
		wantROI   int64
	}{
		{name: "defaults", query: "", want: http.StatusOK, wantSales: 428, wantROI: 1612},
		{name: "custom", query: "?clicks=1000&conversionRate=0.05&averageOrderValue=20&cost=100", want: http.StatusOK, wantSales: 1000, wantROI: 900},
		{name: "not a number", query: "?cost=abc", want: http.StatusBadRequest},
		{name: "conversion above one", query: "?conversionRate=2", want: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(newNoopLogger(), new(ServiceMock))
			rec := httptest.NewRecorder()
			h.ROI(rec, httptest.NewRequest(http.MethodGet, "/stats/roi"+tt.query, nil))

			require.Equal(t, tt.want, rec.Code)
			if tt.want != http.StatusOK {
				return
			}
			var got struct {
				Data models.ROI `json:"data"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.InDelta(t, tt.wantSales, got.Data.PotentialSales, 0.0001)
			assert.Equal(t, tt.wantROI, got.Data.ROI)
		})
	}
}

func TestInsight(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("Insight", mock.Anything, "usr_1").Return(models.SuccessInsight{Headline: "Hook wins"}, nil).Once()
	svc.On("Insight", mock.Anything, "usr_2").Return(models.SuccessInsight{}, gateway.ErrCredential).Once()
	h := New(newNoopLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/stats/insight", nil)
	rec := httptest.NewRecorder()
	h.Insight(rec, req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, "usr_1")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hook wins")

	rec = httptest.NewRecorder()
	h.Insight(rec, req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, "usr_2")))
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)

	rec = httptest.NewRecorder()
	h.Insight(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertExpectations(t)
}

func TestOverview(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("Overview").Return(models.Overview{TrafficSources: []models.TrafficSource{{Name: "TikTok", Value: 45}}}).Once()
	rec := httptest.NewRecorder()
	New(newNoopLogger(), svc).Overview(rec, httptest.NewRequest(http.MethodGet, "/stats/overview", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "TikTok")
}

func TestEvents(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("Events", mock.Anything, 52.52, 13.405).Return(models.LocalEvents{Text: "Creator meetup"}, nil).Once()
	svc.On("Events", mock.Anything, 95.0, 0.0).Return(models.LocalEvents{}, statssvc.ErrInvalidInput).Once()
	h := New(newNoopLogger(), svc)

	rec := httptest.NewRecorder()
	h.Events(rec, httptest.NewRequest(http.MethodGet, "/stats/events?lat=52.52&lng=13.405", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Events(rec, httptest.NewRequest(http.MethodGet, "/stats/events?lat=95&lng=0", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	h.Events(rec, httptest.NewRequest(http.MethodGet, "/stats/events?lat=1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertExpectations(t)
}

func TestTranscribe(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", "brief.webm")
	require.NoError(t, err)
	_, err = part.Write([]byte("RIFF....WAVEfmt "))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	svc := new(ServiceMock)
	svc.On("Transcribe", mock.Anything, []byte("RIFF....WAVEfmt "), "audio/wave").Return("make it pop", nil).Once()
	h := New(newNoopLogger(), svc)

	req := httptest.NewRequest(http.MethodPost, "/dashboard/transcribe", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Transcribe(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "make it pop")
	svc.AssertExpectations(t)
}
