package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/vendo/internal/config"
	"github.com/magabrotheeeer/vendo/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vendo/internal/lib/jwt"
	"github.com/magabrotheeeer/vendo/internal/models"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	})
}

func TestJWTMiddleware(t *testing.T) {
	maker := jwt.NewJWTMaker("secret", time.Hour)
	valid, err := maker.GenerateToken("usr_abc", "mila")
	require.NoError(t, err)
	expired, err := jwt.NewJWTMaker("secret", -time.Minute).GenerateToken("usr_abc", "mila")
	require.NoError(t, err)
	foreign, err := jwt.NewJWTMaker("other", time.Hour).GenerateToken("usr_abc", "mila")
	require.NoError(t, err)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantCalled bool
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", authHeader: "Basic " + valid, wantStatus: http.StatusUnauthorized},
		{name: "garbage token", authHeader: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "expired token", authHeader: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "foreign signature", authHeader: "Bearer " + foreign, wantStatus: http.StatusUnauthorized},
		{name: "valid token", authHeader: "Bearer " + valid, wantStatus: http.StatusOK, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				id, ok := middlewarectx.UserIDFrom(r.Context())
				assert.True(t, ok)
				assert.Equal(t, "usr_abc", id)
				assert.Equal(t, "mila", r.Context().Value(middlewarectx.User))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			middlewarectx.JWTMiddleware(maker, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("blocks requests exceeding burst", func(t *testing.T) {
		mw := middlewarectx.RateLimitMiddleware(config.RateLimit{RPS: 0.001, Burst: 2}, newNoopLogger())
		h := mw(okHandler(t))

		for range 2 {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/wizard/1/render", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/stats/insight", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"status":"Error","error":"too many requests"}`, w.Body.String())
	})

	t.Run("handles concurrent requests correctly", func(t *testing.T) {
		mw := middlewarectx.RateLimitMiddleware(config.RateLimit{RPS: 0.001, Burst: 5}, newNoopLogger())
		h := mw(okHandler(t))

		results := make(chan int, 10)
		for range 10 {
			go func() {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
				results <- w.Code
			}()
		}

		counts := map[int]int{}
		for range 10 {
			select {
			case code := <-results:
				counts[code]++
			case <-time.After(5 * time.Second):
				t.Fatal("timeout waiting for concurrent requests")
			}
		}
		assert.Equal(t, 5, counts[http.StatusOK])
		assert.Equal(t, 5, counts[http.StatusTooManyRequests])
	})
}

type UsersMock struct {
	mock.Mock
}

func (m *UsersMock) Get(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func TestSubscriptionMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		user       *models.User
		err        error
		wantStatus int
	}{
		{name: "no user in context", wantStatus: http.StatusUnauthorized},
		{
			name:       "pro plan",
			userID:     "usr_1",
			user:       &models.User{Subscription: models.SubscriptionPro},
			wantStatus: http.StatusOK,
		},
		{
			name:       "active trial",
			userID:     "usr_1",
			user:       &models.User{Subscription: models.SubscriptionFree, TrialEndsAt: time.Now().Add(time.Hour)},
			wantStatus: http.StatusOK,
		},
		{
			name:       "expired trial",
			userID:     "usr_1",
			user:       &models.User{Subscription: models.SubscriptionFree, TrialEndsAt: time.Now().Add(-time.Hour)},
			wantStatus: http.StatusPaymentRequired,
		},
		{
			name:       "storage error",
			userID:     "usr_1",
			err:        errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UsersMock)
			if tt.userID != "" {
				users.On("Get", mock.Anything, tt.userID).Return(tt.user, tt.err).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/wizard/1/render", nil)
			if tt.userID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			rec := httptest.NewRecorder()
			middlewarectx.SubscriptionMiddleware(users, newNoopLogger())(okHandler(t)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			users.AssertExpectations(t)
		})
	}
}

func TestViewerMiddleware(t *testing.T) {
	var seen string
	h := middlewarectx.ViewerMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = middlewarectx.ViewerFrom(r.Context())
	}))

	t.Run("issues cookie to new visitor", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/u/mila", nil))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, middlewarectx.ViewerCookie, cookies[0].Name)
		assert.Equal(t, cookies[0].Value, seen)
	})

	t.Run("reuses existing cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/u/mila", nil)
		req.AddCookie(&http.Cookie{Name: middlewarectx.ViewerCookie, Value: "6f1c1e1e-1111-4a4a-9b9b-123456789abc"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Result().Cookies())
		assert.Equal(t, "6f1c1e1e-1111-4a4a-9b9b-123456789abc", seen)
	})

	t.Run("replaces malformed cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/u/mila", nil)
		req.AddCookie(&http.Cookie{Name: middlewarectx.ViewerCookie, Value: "<script>"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Len(t, rec.Result().Cookies(), 1)
		assert.NotEqual(t, "<script>", seen)
	})
}
