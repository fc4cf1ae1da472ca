package public

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/vendo/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vendo/internal/models"
	linksvc "github.com/magabrotheeeer/vendo/internal/services/links"
)

const viewer = "6f1c1e1e-1111-4a4a-9b9b-123456789abc"

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Page(ctx context.Context, username, viewer string) (linksvc.PublicPage, error) {
	args := m.Called(ctx, username, viewer)
	return args.Get(0).(linksvc.PublicPage), args.Error(1)
}
func (m *ServiceMock) ToggleBlur(ctx context.Context, username, viewer, id string) (models.PublicBlock, error) {
	args := m.Called(ctx, username, viewer, id)
	return args.Get(0).(models.PublicBlock), args.Error(1)
}
func (m *ServiceMock) Resolve(ctx context.Context, username, viewer, id string) (string, error) {
	args := m.Called(ctx, username, viewer, id)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func serve(h *Handler, method, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(middlewarectx.ViewerMiddleware)
	r.Get("/u/{username}", h.Page)
	r.Post("/u/{username}/blocks/{id}/unblur", h.Unblur)
	r.Get("/u/{username}/go/{id}", h.Go)

	req := httptest.NewRequest(method, target, nil)
	req.AddCookie(&http.Cookie{Name: middlewarectx.ViewerCookie, Value: viewer})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPage(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("Page", mock.Anything, "mila", viewer).Return(linksvc.PublicPage{
		Username: "mila",
		Blocks:   []models.PublicBlock{{ID: "h1", Title: "Spicy", Type: models.LinkHero, Blurred: true}},
	}, nil).Once()
	svc.On("Page", mock.Anything, "ghost", viewer).Return(linksvc.PublicPage{}, linksvc.ErrNotFound).Once()
	h := New(newNoopLogger(), svc)

	rec := serve(h, http.MethodGet, "/u/mila")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"blurred":true`)
	assert.NotContains(t, rec.Body.String(), `"url"`)

	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/u/ghost").Code)
	svc.AssertExpectations(t)
}

func TestUnblur(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("ToggleBlur", mock.Anything, "mila", viewer, "h1").
		Return(models.PublicBlock{ID: "h1", URL: "https://x.io"}, nil).Once()
	h := New(newNoopLogger(), svc)

	rec := serve(h, http.MethodPost, "/u/mila/blocks/h1/unblur")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://x.io")
	svc.AssertExpectations(t)
}

func TestGo(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		url      string
		err      error
		want     int
		location string
	}{
		{name: "redirects", id: "l1", url: "https://gumroad.com/mila", want: http.StatusFound, location: "https://gumroad.com/mila"},
		{name: "blurred", id: "h1", err: linksvc.ErrBlurred, want: http.StatusForbidden},
		{name: "unknown", id: "zz", err: linksvc.ErrNotFound, want: http.StatusNotFound},
		{name: "storage", id: "l2", err: errors.New("db down"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("Resolve", mock.Anything, "mila", viewer, tt.id).Return(tt.url, tt.err).Once()

			rec := serve(New(newNoopLogger(), svc), http.MethodGet, "/u/mila/go/"+tt.id)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
			svc.AssertExpectations(t)
		})
	}
}
