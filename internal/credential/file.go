package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/magabrotheeeer/vendo/internal/lib/sl"
)

// File провайдер, читающий ключ из файла и перечитывающий его при изменении.
// Отозванный ключ снова становится доступен, когда файл перезаписан.
type File struct {
	path     string
	log      *slog.Logger
	mu       sync.RWMutex
	key      string
	revoked  bool
	requests atomic.Int64
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewFile создаёт провайдер и читает ключ из path. Отсутствие файла не ошибка:
// ключ появится, когда файл будет создан.
func NewFile(path string, log *slog.Logger) (*File, error) {
	const op = "credential.NewFile"
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f := &File{path: abs, log: log}
	if err = f.reload(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

func (f *File) reload() error {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.mu.Lock()
		f.key = ""
		f.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.key = strings.TrimSpace(string(data))
	f.revoked = false
	f.mu.Unlock()
	return nil
}

// Start начинает следить за каталогом файла ключа. Каталог, а не сам файл,
// нужен, чтобы пережить атомарную замену файла через rename.
func (f *File) Start(ctx context.Context) error {
	const op = "credential.File.Start"
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = w.Add(filepath.Dir(f.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	f.watcher = w
	f.done = make(chan struct{})
	go f.run(ctx)
	return nil
}

func (f *File) run(ctx context.Context) {
	defer close(f.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if err := f.reload(); err != nil {
				f.log.Error("failed to reload api key file", slog.String("path", f.path), sl.Err(err))
				continue
			}
			f.log.Info("api key file reloaded", slog.String("path", f.path))
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.log.Error("api key watcher error", sl.Err(err))
		}
	}
}

// Stop останавливает наблюдение.
func (f *File) Stop() {
	if f.watcher == nil {
		return
	}
	_ = f.watcher.Close()
	<-f.done
}

// HasCredential реализует Provider.
func (f *File) HasCredential(_ context.Context) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.key != "" && !f.revoked
}

// RequestCredential реализует Provider.
func (f *File) RequestCredential(_ context.Context) error {
	f.requests.Add(1)
	f.mu.Lock()
	f.revoked = true
	f.mu.Unlock()
	f.log.Warn("api key rejected by the model service, waiting for a new key file", slog.String("path", f.path))
	return nil
}

// APIKey реализует Provider.
func (f *File) APIKey(ctx context.Context) (string, error) {
	if !f.HasCredential(ctx) {
		return "", ErrNoCredential
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.key, nil
}

// Requests количество вызовов RequestCredential.
func (f *File) Requests() int64 {
	return f.requests.Load()
}
