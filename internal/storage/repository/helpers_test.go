package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/vendo/internal/migrations"
	"github.com/magabrotheeeer/vendo/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя
func (f *TestDataFactory) CreateUser(t *testing.T, id, username string, autoDelete bool) models.User {
	u := models.User{
		ID:              id,
		Email:           username + "@example.com",
		Username:        username,
		Subscription:    models.SubscriptionFree,
		TrialEndsAt:     time.Now().AddDate(0, 0, 7),
		PrivacySettings: models.PrivacySettings{AutoDeleteAfter24Months: autoDelete},
		HubMode:         "performance",
	}
	require.NoError(t, f.storage.CreateUser(context.Background(), u))
	return u
}

// CreateLink создает тестовый блок
func (f *TestDataFactory) CreateLink(t *testing.T, userID, title string, clicks int64, typ models.LinkType) string {
	id := uuid.NewString()
	err := f.storage.AddLink(context.Background(), userID, models.LinkBlock{
		ID: id, Title: title, URL: "https://example.com/" + title, Clicks: clicks, Type: typ,
	})
	require.NoError(t, err)
	return id
}

// CreateCampaign создает тестовую кампанию с заданной датой
func (f *TestDataFactory) CreateCampaign(t *testing.T, userID, status, script string, createdAt time.Time) string {
	id := uuid.NewString()
	err := f.storage.SaveCampaign(context.Background(), models.AdCampaign{
		ID: id, UserID: userID, ProductName: "Glow Serum", Status: status,
		Script: script, CreatedAt: createdAt,
	})
	require.NoError(t, err)
	return id
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err)

	path, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, path), "failed to apply migrations")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return storage, cleanup
}
