// Package user содержит бизнес-логику профиля пользователя: чтение с
// кешированием, настройки приватности, тариф, пиксели аналитики, онбординг
// и режим страницы ссылок.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/vendo/internal/cache"
	"github.com/magabrotheeeer/vendo/internal/models"
	"github.com/magabrotheeeer/vendo/internal/storage"
)

// ErrNotFound пользователь не найден.
var ErrNotFound = errors.New("user not found")

const cacheTTL = time.Hour

// Repository определяет методы хранилища пользователей.
type Repository interface {
	// GetUser возвращает пользователя по ID.
	GetUser(ctx context.Context, id string) (*models.User, error)
	// UpdateUser перезаписывает изменяемые поля пользователя.
	UpdateUser(ctx context.Context, user models.User) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует операции над профилем пользователя.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Get возвращает пользователя, используя кеш или репозиторий.
func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	const op = "user.Get"

	var cached models.User
	key := cache.UserKey(id)
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		s.log.Warn("failed to read user from cache", slog.String("key", key), slog.Any("err", err))
	}
	if found {
		return &cached, nil
	}

	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.remember(u)
	return u, nil
}

// TogglePrivacy переключает автоудаление данных старше 24 месяцев.
func (s *Service) TogglePrivacy(ctx context.Context, id string) (*models.User, error) {
	return s.update(ctx, "user.TogglePrivacy", id, func(u *models.User) {
		u.PrivacySettings.AutoDeleteAfter24Months = !u.PrivacySettings.AutoDeleteAfter24Months
	})
}

// Upgrade переводит пользователя на тариф pro.
func (s *Service) Upgrade(ctx context.Context, id string) (*models.User, error) {
	return s.update(ctx, "user.Upgrade", id, func(u *models.User) {
		u.Subscription = models.SubscriptionPro
	})
}

// SetTrackingPixels сохраняет идентификаторы пикселей. Пустые значения удаляют пиксели.
func (s *Service) SetTrackingPixels(ctx context.Context, id string, pixels models.TrackingPixels) (*models.User, error) {
	return s.update(ctx, "user.SetTrackingPixels", id, func(u *models.User) {
		if pixels.FacebookPixelID == "" && pixels.GoogleAnalyticsID == "" {
			u.TrackingPixels = nil
			return
		}
		p := pixels
		u.TrackingPixels = &p
	})
}

// CompleteOnboarding отмечает, что пользователь прошёл онбординг.
func (s *Service) CompleteOnboarding(ctx context.Context, id string) (*models.User, error) {
	return s.update(ctx, "user.CompleteOnboarding", id, func(u *models.User) {
		u.HasCompletedOnboarding = true
	})
}

// SetHubMode сохраняет режим упорядочивания страницы ссылок.
func (s *Service) SetHubMode(ctx context.Context, id, mode string) (*models.User, error) {
	return s.update(ctx, "user.SetHubMode", id, func(u *models.User) {
		u.HubMode = mode
	})
}

func (s *Service) update(ctx context.Context, op, id string, mutate func(u *models.User)) (*models.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	mutate(u)

	if err := s.repo.UpdateUser(ctx, *u); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.forget(id)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user updated", slog.String("op", op), slog.String("user_id", id))
	s.remember(u)
	return u, nil
}

func (s *Service) remember(u *models.User) {
	key := cache.UserKey(u.ID)
	if err := s.cache.Set(key, u, cacheTTL); err != nil {
		s.log.Warn("failed to cache user", slog.String("key", key), slog.Any("err", err))
	}
}

func (s *Service) forget(id string) {
	key := cache.UserKey(id)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to remove user from cache", slog.String("key", key), slog.Any("err", err))
	}
}
