// Package links реализует управление блоками публичной страницы:
// добавление с нормализацией и проверкой безопасности, удаление,
// перемещение, режимы упорядочивания, QR-код, публичную страницу с
// размытием NSFW-блоков и учёт переходов через брокер.
package links

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/vendo/internal/cache"
	"github.com/magabrotheeeer/vendo/internal/config"
	"github.com/magabrotheeeer/vendo/internal/hub"
	"github.com/magabrotheeeer/vendo/internal/lib/sanitize"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
	"github.com/magabrotheeeer/vendo/internal/models"
	"github.com/magabrotheeeer/vendo/internal/storage"
)

var (
	// ErrNotFound блок или страница не найдены.
	ErrNotFound = errors.New("link not found")
	// ErrInvalidInput пустой заголовок или URL после очистки.
	ErrInvalidInput = errors.New("invalid link input")
	// ErrInvalidMode неизвестный режим страницы.
	ErrInvalidMode = errors.New("invalid hub mode")
	// ErrInvalidDirection неизвестное направление перемещения.
	ErrInvalidDirection = errors.New("invalid direction")
	// ErrBlurred посетитель не раскрыл NSFW-блок.
	ErrBlurred = errors.New("link is blurred")
)

const linksCacheTTL = 10 * time.Minute

// Repository определяет методы хранилища блоков.
type Repository interface {
	ListLinks(ctx context.Context, userID string) ([]models.LinkBlock, error)
	AddLink(ctx context.Context, userID string, link models.LinkBlock) error
	RemoveLink(ctx context.Context, userID, id string) (int, error)
	ReorderLinks(ctx context.Context, userID string, ids []string) error
	IncrementClicks(ctx context.Context, userID, id string, delta int64) error
}

// Owners ищет владельца публичной страницы по имени.
type Owners interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Users читает и меняет профиль владельца.
type Users interface {
	Get(ctx context.Context, id string) (*models.User, error)
	SetHubMode(ctx context.Context, id, mode string) (*models.User, error)
}

// SafetyClassifier проверяет ссылку на NSFW-контент.
type SafetyClassifier interface {
	ClassifyContentSafety(ctx context.Context, url, title string) (models.SafetyVerdict, error)
}

// Publisher отправляет события переходов в брокер.
type Publisher interface {
	Publish(message any) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
	SimulatedClicks(userID string) (map[string]int64, error)
}

// View упорядоченный список блоков владельца.
type View struct {
	Mode      hub.Mode           `json:"mode"`
	Links     []models.LinkBlock `json:"links"`
	Groups    []hub.Group        `json:"groups,omitempty"`
	TopLinkID string             `json:"topLinkId,omitempty"`
}

// PublicPage страница в том виде, в котором её видит посетитель.
type PublicPage struct {
	Username string               `json:"username"`
	Blocks   []models.PublicBlock `json:"blocks"`
}

// Service реализует бизнес-логику страницы ссылок.
type Service struct {
	repo      Repository
	owners    Owners
	users     Users
	safety    SafetyClassifier
	publisher Publisher
	cache     Cache
	cfg       config.Hub
	log       *slog.Logger
	now       func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, owners Owners, users Users, safety SafetyClassifier, publisher Publisher,
	cache Cache, cfg config.Hub, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		owners:    owners,
		users:     users,
		safety:    safety,
		publisher: publisher,
		cache:     cache,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// List возвращает блоки пользователя в режиме mode. Пустой режим означает
// сохранённый режим пользователя.
func (s *Service) List(ctx context.Context, userID string, mode hub.Mode) (View, error) {
	const op = "links.List"

	if mode == "" {
		u, err := s.users.Get(ctx, userID)
		if err != nil {
			return View{}, fmt.Errorf("%s: %w", op, err)
		}
		mode = hub.Mode(u.HubMode)
	}
	if !mode.Valid() {
		return View{}, ErrInvalidMode
	}

	raw, err := s.load(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}
	return view(s.withPulse(userID, raw), mode), nil
}

func view(raw []models.LinkBlock, mode hub.Mode) View {
	v := View{
		Mode:      mode,
		Links:     hub.Arrange(raw, mode),
		TopLinkID: hub.TopLinkID(raw),
	}
	if mode == hub.ModeGrouped {
		v.Groups = hub.Groups(raw)
	}
	return v
}

// Add очищает заголовок, нормализует и классифицирует URL, при
// необходимости проверяет ссылку на NSFW и добавляет блок в конец списка.
func (s *Service) Add(ctx context.Context, userID string, req models.NewLink) (models.LinkBlock, error) {
	const op = "links.Add"

	title := sanitize.Text(req.Title)
	url := hub.NormalizeURL(req.URL)
	if title == "" || url == "" {
		return models.LinkBlock{}, ErrInvalidInput
	}
	if req.Type != "" && !req.Type.Valid() {
		return models.LinkBlock{}, ErrInvalidInput
	}

	block := models.LinkBlock{
		ID:    uuid.NewString(),
		Title: title,
		URL:   url,
		Type:  hub.ClassifyType(url, req.Type),
	}

	if block.Type == models.LinkHero || req.CheckSafety {
		verdict, err := s.safety.ClassifyContentSafety(ctx, block.URL, block.Title)
		if err != nil {
			s.log.Error("safety check failed", slog.String("op", op), sl.Err(err))
			return models.LinkBlock{}, fmt.Errorf("%s: %w", op, err)
		}
		block.IsNSFW = verdict.IsNSFW
		if verdict.IsNSFW {
			s.log.Info("link flagged as nsfw", slog.String("link_id", block.ID), slog.String("reason", verdict.Reason))
		}
	}

	if err := s.repo.AddLink(ctx, userID, block); err != nil {
		return models.LinkBlock{}, fmt.Errorf("%s: %w", op, err)
	}
	s.forget(userID)
	return block, nil
}

// Remove удаляет блок пользователя.
func (s *Service) Remove(ctx context.Context, userID, id string) error {
	const op = "links.Remove"

	n, err := s.repo.RemoveLink(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.forget(userID)
	return nil
}

// Move фиксирует текущий показанный порядок, меняет блок местами с
// соседом и переводит страницу в ручной режим.
func (s *Service) Move(ctx context.Context, userID, id string, dir hub.Direction) (View, error) {
	const op = "links.Move"

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}
	raw, err := s.load(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}

	displayed := hub.Arrange(s.withPulse(userID, raw), hub.Mode(u.HubMode))
	moved, err := hub.Move(displayed, id, dir)
	switch {
	case errors.Is(err, hub.ErrNotFound):
		return View{}, ErrNotFound
	case errors.Is(err, hub.ErrInvalidDirection):
		return View{}, ErrInvalidDirection
	case err != nil:
		return View{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.ReorderLinks(ctx, userID, hub.IDs(moved)); err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}
	s.forget(userID)

	if u.HubMode != string(hub.ModeManual) {
		if _, err := s.users.SetHubMode(ctx, userID, string(hub.ModeManual)); err != nil {
			return View{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	return view(moved, hub.ModeManual), nil
}

// SetMode сохраняет режим страницы.
func (s *Service) SetMode(ctx context.Context, userID string, mode hub.Mode) error {
	const op = "links.SetMode"

	if !mode.Valid() {
		return ErrInvalidMode
	}
	if _, err := s.users.SetHubMode(ctx, userID, string(mode)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// QR возвращает QR-код публичной страницы пользователя.
func (s *Service) QR(ctx context.Context, userID string) (hub.QRCode, error) {
	const op = "links.QR"

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return hub.QRCode{}, fmt.Errorf("%s: %w", op, err)
	}
	raw, err := s.load(ctx, userID)
	if err != nil {
		return hub.QRCode{}, fmt.Errorf("%s: %w", op, err)
	}
	return hub.QR(hub.ProfileURL(s.cfg.PublicURLTemplate, u.Username), s.cfg.QRSize, raw)
}

// load читает исходный порядок блоков из кеша или репозитория.
func (s *Service) load(ctx context.Context, userID string) ([]models.LinkBlock, error) {
	var cached []models.LinkBlock
	key := cache.LinksKey(userID)
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		s.log.Warn("failed to read links from cache", slog.String("key", key), slog.Any("err", err))
	}
	if found {
		return cached, nil
	}

	raw, err := s.repo.ListLinks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(key, raw, linksCacheTTL); err != nil {
		s.log.Warn("failed to cache links", slog.String("key", key), slog.Any("err", err))
	}
	return raw, nil
}

// withPulse возвращает копию блоков с добавленными имитационными кликами.
// Сохранённые счётчики не меняются.
func (s *Service) withPulse(userID string, raw []models.LinkBlock) []models.LinkBlock {
	extra, err := s.cache.SimulatedClicks(userID)
	if err != nil {
		s.log.Warn("failed to read simulated clicks", slog.String("user_id", userID), sl.Err(err))
		return raw
	}
	if len(extra) == 0 {
		return raw
	}
	out := make([]models.LinkBlock, len(raw))
	copy(out, raw)
	for i := range out {
		out[i].Clicks += extra[out[i].ID]
	}
	return out
}

func (s *Service) forget(userID string) {
	key := cache.LinksKey(userID)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to remove links from cache", slog.String("key", key), slog.Any("err", err))
	}
}

func (s *Service) owner(ctx context.Context, username string) (*models.User, error) {
	u, err := s.owners.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}
