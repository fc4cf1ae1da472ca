// Package credential предоставляет ключ доступа к генеративной модели.
//
// Provider заменяет глобальный ключ: шлюз запрашивает ключ перед каждым
// вызовом, а при ошибке авторизации просит провайдера выбрать новый ключ
// через RequestCredential.
package credential

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrNoCredential ключ не настроен или отозван.
var ErrNoCredential = errors.New("credential: api key is not configured")

// Provider источник ключа API.
type Provider interface {
	// HasCredential сообщает, есть ли сейчас пригодный ключ.
	HasCredential(ctx context.Context) bool
	// RequestCredential сообщает, что текущий ключ отвергнут сервисом.
	RequestCredential(ctx context.Context) error
	// APIKey возвращает текущий ключ или ErrNoCredential.
	APIKey(ctx context.Context) (string, error)
}

// Static провайдер с ключом из конфигурации.
// После RequestCredential ключ считается отозванным до вызова Set.
type Static struct {
	mu       sync.RWMutex
	key      string
	revoked  bool
	requests atomic.Int64
	log      *slog.Logger
}

// NewStatic создаёт провайдер с фиксированным ключом.
func NewStatic(key string, log *slog.Logger) *Static {
	return &Static{key: strings.TrimSpace(key), log: log}
}

// HasCredential реализует Provider.
func (s *Static) HasCredential(_ context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key != "" && !s.revoked
}

// RequestCredential реализует Provider.
func (s *Static) RequestCredential(_ context.Context) error {
	s.requests.Add(1)
	s.mu.Lock()
	s.revoked = true
	s.mu.Unlock()
	s.log.Warn("api key rejected by the model service, set a new GENAI_API_KEY")
	return nil
}

// APIKey реализует Provider.
func (s *Static) APIKey(ctx context.Context) (string, error) {
	if !s.HasCredential(ctx) {
		return "", ErrNoCredential
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, nil
}

// Set заменяет ключ и снимает отзыв.
func (s *Static) Set(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = strings.TrimSpace(key)
	s.revoked = false
}

// Requests количество вызовов RequestCredential.
func (s *Static) Requests() int64 {
	return s.requests.Load()
}
