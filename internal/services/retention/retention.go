// Package retention удаляет кампании старше 24 месяцев у пользователей,
// включивших автоудаление.
package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/vendo/internal/lib/sl"
)

// DefaultInterval период между проходами.
const DefaultInterval = 24 * time.Hour

// Repository удаляет устаревшие кампании.
type Repository interface {
	DeleteExpiredCampaigns(ctx context.Context, before time.Time) (int64, error)
}

// Service периодически чистит старые кампании.
type Service struct {
	repo     Repository
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, interval time.Duration, log *slog.Logger) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{
		repo:     repo,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Run выполняет проход сразу и затем по тикеру до отмены ctx.
func (s *Service) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep удаляет кампании, созданные раньше чем 24 месяца назад.
func (s *Service) Sweep(ctx context.Context) int64 {
	s.log.Info("starting retention sweep")
	n, err := s.repo.DeleteExpiredCampaigns(ctx, s.now().AddDate(0, -24, 0))
	if err != nil {
		s.log.Error("failed to delete expired campaigns", sl.Err(err))
		return 0
	}
	s.log.Info("retention sweep finished", slog.Int64("deleted", n))
	return n
}
