// Package heartbeat имитирует живой трафик: по тикеру добавляет
// случайным блокам небольшое неотрицательное число кликов. Имитационные
// клики копятся в Redis поверх сохранённых и влияют только на показ,
// в базу и статистику они не попадают.
package heartbeat

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/magabrotheeeer/vendo/internal/lib/sl"
	"github.com/magabrotheeeer/vendo/internal/storage/repository"
)

const (
	batchSize = 5
	maxDelta  = 3
)

// Repository выбирает случайные блоки.
type Repository interface {
	RandomLinks(ctx context.Context, limit int) ([]repository.LinkRef, error)
}

// Cache хранит имитационные клики.
type Cache interface {
	AddSimulatedClicks(userID, linkID string, delta int64) error
}

// Service периодически добавляет клики.
type Service struct {
	repo     Repository
	cache    Cache
	interval time.Duration
	log      *slog.Logger
	delta    func() int64
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, interval time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		interval: interval,
		log:      log,
		delta:    func() int64 { return rand.Int64N(maxDelta + 1) },
	}
}

// Run добавляет клики по тикеру до отмены ctx.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Beat(ctx)
		}
	}
}

// Beat выполняет один шаг: выбирает случайные блоки и добавляет им клики.
// Нулевая дельта пропускается.
func (s *Service) Beat(ctx context.Context) {
	refs, err := s.repo.RandomLinks(ctx, batchSize)
	if err != nil {
		s.log.Error("failed to pick links", sl.Err(err))
		return
	}

	for _, ref := range refs {
		d := s.delta()
		if d <= 0 {
			continue
		}
		if err := s.cache.AddSimulatedClicks(ref.UserID, ref.LinkID, d); err != nil {
			s.log.Warn("failed to add clicks", slog.String("link_id", ref.LinkID), sl.Err(err))
		}
	}
}
