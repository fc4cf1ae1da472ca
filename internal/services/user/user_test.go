package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/vendo/internal/models"
	"github.com/magabrotheeeer/vendo/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) UpdateUser(ctx context.Context, u models.User) error {
	return m.Called(ctx, u).Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func testUser() *models.User {
	return &models.User{
		ID:              "usr_abc123xyz",
		Email:           "sarah@example.com",
		Username:        "sarah",
		Subscription:    models.SubscriptionFree,
		TrialEndsAt:     time.Now().Add(7 * 24 * time.Hour),
		PrivacySettings: models.PrivacySettings{AutoDeleteAfter24Months: true},
		HubMode:         "performance",
	}
}

func TestGet_FromCache(t *testing.T) {
	repo := new(RepoMock)
	c := new(CacheMock)
	c.On("Get", "vendo_user_usr_abc123xyz", mock.Anything).Run(func(args mock.Arguments) {
		dst := args.Get(1).(*models.User)
		*dst = *testUser()
	}).Return(true, nil)

	svc := New(repo, c, newNoopLogger())
	u, err := svc.Get(context.Background(), "usr_abc123xyz")
	require.NoError(t, err)
	assert.Equal(t, "sarah", u.Username)
	repo.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}

func TestGet_FromRepoCaches(t *testing.T) {
	repo := new(RepoMock)
	c := new(CacheMock)
	c.On("Get", mock.Anything, mock.Anything).Return(false, nil)
	repo.On("GetUser", mock.Anything, "usr_abc123xyz").Return(testUser(), nil)
	c.On("Set", "vendo_user_usr_abc123xyz", mock.Anything, time.Hour).Return(nil)

	svc := New(repo, c, newNoopLogger())
	u, err := svc.Get(context.Background(), "usr_abc123xyz")
	require.NoError(t, err)
	assert.Equal(t, "sarah@example.com", u.Email)
	c.AssertExpectations(t)
}

func TestGet_NotFound(t *testing.T) {
	repo := new(RepoMock)
	c := new(CacheMock)
	c.On("Get", mock.Anything, mock.Anything).Return(false, nil)
	repo.On("GetUser", mock.Anything, "missing").Return(nil, storage.ErrNotFound)

	_, err := New(repo, c, newNoopLogger()).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMutations(t *testing.T) {
	tests := []struct {
		name  string
		call  func(s *Service) (*models.User, error)
		check func(t *testing.T, u models.User)
	}{
		{
			name: "toggle privacy",
			call: func(s *Service) (*models.User, error) {
				return s.TogglePrivacy(context.Background(), "usr_abc123xyz")
			},
			check: func(t *testing.T, u models.User) { assert.False(t, u.PrivacySettings.AutoDeleteAfter24Months) },
		},
		{
			name: "upgrade",
			call: func(s *Service) (*models.User, error) {
				return s.Upgrade(context.Background(), "usr_abc123xyz")
			},
			check: func(t *testing.T, u models.User) { assert.Equal(t, models.SubscriptionPro, u.Subscription) },
		},
		{
			name: "tracking pixels",
			call: func(s *Service) (*models.User, error) {
				return s.SetTrackingPixels(context.Background(), "usr_abc123xyz",
					models.TrackingPixels{FacebookPixelID: "fb-1"})
			},
			check: func(t *testing.T, u models.User) {
				require.NotNil(t, u.TrackingPixels)
				assert.Equal(t, "fb-1", u.TrackingPixels.FacebookPixelID)
			},
		},
		{
			name: "clear tracking pixels",
			call: func(s *Service) (*models.User, error) {
				return s.SetTrackingPixels(context.Background(), "usr_abc123xyz", models.TrackingPixels{})
			},
			check: func(t *testing.T, u models.User) { assert.Nil(t, u.TrackingPixels) },
		},
		{
			name: "onboarding",
			call: func(s *Service) (*models.User, error) {
				return s.CompleteOnboarding(context.Background(), "usr_abc123xyz")
			},
			check: func(t *testing.T, u models.User) { assert.True(t, u.HasCompletedOnboarding) },
		},
		{
			name: "hub mode",
			call: func(s *Service) (*models.User, error) {
				return s.SetHubMode(context.Background(), "usr_abc123xyz", "manual")
			},
			check: func(t *testing.T, u models.User) { assert.Equal(t, "manual", u.HubMode) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			c := new(CacheMock)
			c.On("Get", mock.Anything, mock.Anything).Return(false, nil)
			c.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			repo.On("GetUser", mock.Anything, "usr_abc123xyz").Return(testUser(), nil)

			var saved models.User
			repo.On("UpdateUser", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
				saved = args.Get(1).(models.User)
			}).Return(nil)

			u, err := tt.call(New(repo, c, newNoopLogger()))
			require.NoError(t, err)
			tt.check(t, *u)
			tt.check(t, saved)
		})
	}
}

func TestUpdate_RepoErrorInvalidatesCache(t *testing.T) {
	repo := new(RepoMock)
	c := new(CacheMock)
	c.On("Get", mock.Anything, mock.Anything).Return(false, nil)
	c.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	c.On("Invalidate", "vendo_user_usr_abc123xyz").Return(nil)
	repo.On("GetUser", mock.Anything, "usr_abc123xyz").Return(testUser(), nil)
	repo.On("UpdateUser", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := New(repo, c, newNoopLogger()).Upgrade(context.Background(), "usr_abc123xyz")
	require.Error(t, err)
	c.AssertCalled(t, "Invalidate", "vendo_user_usr_abc123xyz")
}
