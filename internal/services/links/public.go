package links

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/magabrotheeeer/vendo/internal/cache"
	"github.com/magabrotheeeer/vendo/internal/hub"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
	"github.com/magabrotheeeer/vendo/internal/models"
)

// Page возвращает публичную страницу для посетителя viewer. NSFW-блоки
// отдаются размытыми и без URL, пока посетитель их не раскрыл.
func (s *Service) Page(ctx context.Context, username, viewer string) (PublicPage, error) {
	const op = "links.Page"

	u, err := s.owner(ctx, username)
	if err != nil {
		return PublicPage{}, fmt.Errorf("%s: %w", op, err)
	}
	raw, err := s.load(ctx, u.ID)
	if err != nil {
		return PublicPage{}, fmt.Errorf("%s: %w", op, err)
	}
	unblurred := s.unblurred(viewer)

	page := PublicPage{Username: u.Username, Blocks: make([]models.PublicBlock, 0, len(raw))}
	for _, l := range hub.Arrange(s.withPulse(u.ID, raw), hub.Mode(u.HubMode)) {
		page.Blocks = append(page.Blocks, public(l, unblurred))
	}
	return page, nil
}

func public(l models.LinkBlock, unblurred []string) models.PublicBlock {
	b := models.PublicBlock{ID: l.ID, Title: l.Title, URL: l.URL, Type: l.Type}
	if l.IsNSFW && !slices.Contains(unblurred, l.ID) {
		b.Blurred = true
		b.URL = ""
	}
	return b
}

// ToggleBlur переключает размытие NSFW-блока для сессии посетителя.
// Состояние живёт в кеше с TTL и не сохраняется в блоке.
func (s *Service) ToggleBlur(ctx context.Context, username, viewer, id string) (models.PublicBlock, error) {
	const op = "links.ToggleBlur"

	block, err := s.find(ctx, username, id)
	if err != nil {
		return models.PublicBlock{}, fmt.Errorf("%s: %w", op, err)
	}

	if viewer == "" {
		return models.PublicBlock{}, ErrInvalidInput
	}
	unblurred := s.unblurred(viewer)
	if i := slices.Index(unblurred, id); i >= 0 {
		unblurred = slices.Delete(unblurred, i, i+1)
	} else if block.IsNSFW {
		unblurred = append(unblurred, id)
	}

	key := cache.UnblurKey(viewer)
	if err := s.cache.Set(key, unblurred, s.cfg.UnblurTTL); err != nil {
		return models.PublicBlock{}, fmt.Errorf("%s: %w", op, err)
	}
	return public(block.LinkBlock, unblurred), nil
}

// Resolve возвращает адрес перехода и публикует событие клика.
// Ошибка публикации не мешает переходу.
func (s *Service) Resolve(ctx context.Context, username, viewer, id string) (string, error) {
	const op = "links.Resolve"

	block, err := s.find(ctx, username, id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if public(block.LinkBlock, s.unblurred(viewer)).Blurred {
		return "", ErrBlurred
	}

	event := models.ClickEvent{
		UserID:  block.ownerID,
		LinkID:  block.ID,
		Viewer:  viewer,
		Clicked: s.now().Unix(),
	}
	if err := s.publisher.Publish(event); err != nil {
		s.log.Error("failed to publish click", slog.String("op", op), slog.String("link_id", id), sl.Err(err))
	}
	return block.URL, nil
}

type ownedBlock struct {
	models.LinkBlock
	ownerID string
}

func (s *Service) find(ctx context.Context, username, id string) (ownedBlock, error) {
	u, err := s.owner(ctx, username)
	if err != nil {
		return ownedBlock{}, err
	}
	raw, err := s.load(ctx, u.ID)
	if err != nil {
		return ownedBlock{}, err
	}
	for _, l := range raw {
		if l.ID == id {
			return ownedBlock{LinkBlock: l, ownerID: u.ID}, nil
		}
	}
	return ownedBlock{}, ErrNotFound
}

func (s *Service) unblurred(viewer string) []string {
	if viewer == "" {
		return nil
	}
	var ids []string
	key := cache.UnblurKey(viewer)
	if _, err := s.cache.Get(key, &ids); err != nil {
		s.log.Warn("failed to read blur state", slog.String("key", key), slog.Any("err", err))
	}
	return ids
}
