package login

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/vendo/internal/models"
	"github.com/magabrotheeeer/vendo/internal/services/auth"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Login(ctx context.Context, email string) (string, *models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(1).(*models.User)
	return args.String(0), u, args.Error(2)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	user := &models.User{ID: "usr_abc123def", Email: "mila@example.com", Username: "mila"}

	tests := []struct {
		name            string
		body            string
		setupMock       func(m *AuthServiceMock)
		wantStatus      int
		wantStatusField string
		wantError       string
	}{
		{
			name: "valid login",
			body: `{"email":"mila@example.com"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Login", mock.Anything, "mila@example.com").Return("tok", user, nil).Once()
			},
			wantStatus:      http.StatusOK,
			wantStatusField: "OK",
		},
		{
			name:            "invalid json body",
			body:            "not a json",
			setupMock:       func(_ *AuthServiceMock) {},
			wantStatus:      http.StatusBadRequest,
			wantStatusField: "Error",
			wantError:       "invalid request body",
		},
		{
			name:            "validation error",
			body:            `{"email":"not-an-email"}`,
			setupMock:       func(_ *AuthServiceMock) {},
			wantStatus:      http.StatusUnprocessableEntity,
			wantStatusField: "Error",
			wantError:       "field Email must be a valid email",
		},
		{
			name: "service rejects email",
			body: `{"email":"a@b.co"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Login", mock.Anything, "a@b.co").Return("", nil, auth.ErrInvalidEmail).Once()
			},
			wantStatus:      http.StatusUnprocessableEntity,
			wantStatusField: "Error",
			wantError:       "invalid email",
		},
		{
			name: "storage error",
			body: `{"email":"mila@example.com"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Login", mock.Anything, "mila@example.com").Return("", nil, errors.New("db down")).Once()
			},
			wantStatus:      http.StatusInternalServerError,
			wantStatusField: "Error",
			wantError:       "could not log in",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AuthServiceMock)
			tt.setupMock(svc)
			handler := New(newNoopLogger(), svc)

			req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatusField, got["status"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				data, ok := got["data"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "tok", data["token"])
				assert.Equal(t, "usr_abc123def", data["user"].(map[string]any)["id"])
			}
			svc.AssertExpectations(t)
		})
	}
}
