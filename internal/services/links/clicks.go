package links

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/vendo/internal/models"
	"github.com/magabrotheeeer/vendo/internal/storage"
)

// ClickHandler возвращает обработчик сообщений очереди кликов: каждое
// событие увеличивает счётчик блока на единицу. Событие для удалённого
// блока подтверждается без ошибки, иначе оно бы возвращалось в очередь.
func (s *Service) ClickHandler(ctx context.Context) func(body []byte) error {
	return func(body []byte) error {
		const op = "links.ClickHandler"

		var event models.ClickEvent
		if err := json.Unmarshal(body, &event); err != nil {
			s.log.Error("malformed click event", slog.String("op", op), slog.Any("err", err))
			return nil
		}
		if event.UserID == "" || event.LinkID == "" {
			s.log.Warn("click event without ids", slog.String("op", op))
			return nil
		}

		err := s.repo.IncrementClicks(ctx, event.UserID, event.LinkID, 1)
		if errors.Is(err, storage.ErrNotFound) {
			s.log.Info("click for removed link", slog.String("link_id", event.LinkID))
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.forget(event.UserID)
		return nil
	}
}
