// Package clicks содержит приложение-потребитель очереди кликов по ссылкам.
package clicks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/vendo/internal/cache"
	"github.com/magabrotheeeer/vendo/internal/config"
	"github.com/magabrotheeeer/vendo/internal/rabbitmq"
	linksservice "github.com/magabrotheeeer/vendo/internal/services/links"
	userservice "github.com/magabrotheeeer/vendo/internal/services/user"
	"github.com/magabrotheeeer/vendo/internal/storage/repository"
)

// App потребитель кликов.
type App struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	db     *repository.Storage
	cache  *cache.Cache
	links  *linksservice.Service
	logger *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		if err := repository.CheckDatabaseReady(ctx, db); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения-потребителя.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger}

	var err error
	a.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	a.ch, err = rabbitmq.SetupChannel(a.conn, rabbitmq.ClickQueues())
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	a.db, err = repository.New(cfg.StorageConnectionString)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = waitForDB(ctx, a.db); err != nil {
		a.closeResources()
		return nil, err
	}

	a.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	// Потребителю нужны только хранилище и кеш: модель и брокер не вызываются.
	users := userservice.New(a.db, a.cache, logger)
	a.links = linksservice.New(a.db, a.db, users, nil, nil, a.cache, cfg.Hub, logger)

	return a, nil
}

// Run запускает потребителя и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.closeResources()

	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.ClickQueue, a.links.ClickHandler(ctx), a.logger)
	if err != nil {
		a.logger.Error("failed to start link_clicks consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("click consumer shutting down gracefully")
	return nil
}

func (a *App) closeResources() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", slog.Any("err", err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", slog.Any("err", err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", slog.Any("err", err))
		}
	}
	if a.db != nil {
		if err := a.db.DB.Close(); err != nil {
			a.logger.Error("failed to close storage", slog.Any("err", err))
		}
	}
}
