// Package vendo собирает HTTP API, gRPC health-сервер и фоновые задачи
// основного приложения.
package vendo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"google.golang.org/grpc"

	"github.com/magabrotheeeer/vendo/internal/cache"
	"github.com/magabrotheeeer/vendo/internal/config"
	"github.com/magabrotheeeer/vendo/internal/credential"
	"github.com/magabrotheeeer/vendo/internal/gateway"
	"github.com/magabrotheeeer/vendo/internal/grpc/server"
	"github.com/magabrotheeeer/vendo/internal/lib/jwt"
	"github.com/magabrotheeeer/vendo/internal/migrations"
	"github.com/magabrotheeeer/vendo/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/vendo/internal/services/auth"
	"github.com/magabrotheeeer/vendo/internal/services/heartbeat"
	linksservice "github.com/magabrotheeeer/vendo/internal/services/links"
	"github.com/magabrotheeeer/vendo/internal/services/retention"
	statsservice "github.com/magabrotheeeer/vendo/internal/services/stats"
	userservice "github.com/magabrotheeeer/vendo/internal/services/user"
	wizardservice "github.com/magabrotheeeer/vendo/internal/services/wizard"
	"github.com/magabrotheeeer/vendo/internal/storage/repository"
)

// janitorInterval период очистки простаивающих сессий мастера.
const janitorInterval = 10 * time.Minute

// App основное приложение.
type App struct {
	server     *http.Server
	grpcServer *grpc.Server
	listener   net.Listener
	logger     *slog.Logger
	cfg        *config.Config

	db        *repository.Storage
	cache     *cache.Cache
	conn      *amqp.Connection
	ch        *amqp.Channel
	keyFile   *credential.File
	health    *server.HealthServer
	wizard    *wizardservice.Service
	retention *retention.Service
	heartbeat *heartbeat.Service
}

// Services сервисы, которые обслуживают HTTP-маршруты.
type Services struct {
	JWT    jwt.Maker
	Auth   *authservice.Service
	Users  *userservice.Service
	Links  *linksservice.Service
	Stats  *statsservice.Service
	Wizard *wizardservice.Service
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

// New подключает хранилища и брокер и собирает сервисы. ctx ограничивает
// время жизни фоновых рендеров мастера.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger, cfg: cfg}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	a.db = db
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		a.closeResources()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	if err = waitForDB(ctx, db); err != nil {
		a.closeResources()
		return nil, err
	}

	a.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	a.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	a.ch, err = rabbitmq.SetupChannel(a.conn, rabbitmq.ClickQueues())
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	publisher := rabbitmq.NewPublisher(a.ch, rabbitmq.ExchangeName, rabbitmq.ClickRoutingKey)

	creds, err := a.credentials()
	if err != nil {
		a.closeResources()
		return nil, err
	}
	gw := gateway.New(gateway.NewSDKBackend(), creds, cfg.GenAI, logger)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	users := userservice.New(db, a.cache, logger)
	a.wizard = wizardservice.New(ctx, gw, db, creds, cfg.Wizard, logger)
	svc := Services{
		JWT:    jwtMaker,
		Auth:   authservice.New(db, db, jwtMaker, cfg.PublicURLTemplate, logger),
		Users:  users,
		Links:  linksservice.New(db, db, users, gw, publisher, a.cache, cfg.Hub, logger),
		Stats:  statsservice.New(gw, a.cache, logger),
		Wizard: a.wizard,
	}

	a.retention = retention.New(db, retention.DefaultInterval, logger)
	if cfg.HeartbeatEnabled {
		a.heartbeat = heartbeat.New(db, a.cache, cfg.HeartbeatInterval, logger)
	}

	a.health = server.NewHealthServer(map[string]server.Checker{
		"postgres": server.CheckerFunc(db.DB.PingContext),
		"redis":    a.cache,
	}, cfg.CheckInterval, logger)
	a.grpcServer = grpc.NewServer()
	a.health.Register(a.grpcServer)
	a.listener, err = net.Listen("tcp", cfg.AddressGRPC)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("failed to listen gRPC: %w", err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, svc)

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return a, nil
}

// credentials выбирает провайдера ключа: файл с отслеживанием изменений
// или ключ из конфигурации.
func (a *App) credentials() (credential.Provider, error) {
	if a.cfg.APIKeyFile == "" {
		return credential.NewStatic(a.cfg.APIKey, a.logger), nil
	}
	f, err := credential.NewFile(a.cfg.APIKeyFile, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to read api key file: %w", err)
	}
	a.keyFile = f
	return f, nil
}

// Run запускает серверы и фоновые задачи и блокируется до отмены ctx
// или ошибки одного из серверов.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	bgCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		wg.Wait()
		a.wizard.Wait()
		a.closeResources()
	}()

	if a.keyFile != nil {
		if err := a.keyFile.Start(bgCtx); err != nil {
			return fmt.Errorf("failed to watch api key file: %w", err)
		}
		defer a.keyFile.Stop()
	}

	background := []func(context.Context){
		a.health.Run,
		a.retention.Run,
		func(ctx context.Context) { a.wizard.RunJanitor(ctx, janitorInterval) },
	}
	if a.heartbeat != nil {
		background = append(background, a.heartbeat.Run)
	}
	for _, run := range background {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(bgCtx)
		}()
	}

	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()
	go func() {
		a.logger.Info("gRPC health service listening on", slog.String("address", a.listener.Addr().String()))
		errCh <- a.grpcServer.Serve(a.listener)
	}()

	select {
	case err := <-errCh:
		a.grpcServer.Stop()
		_ = a.server.Close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancelTimeout := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelTimeout()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.grpcServer.GracefulStop()
		return err
	}
}

func (a *App) closeResources() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", slog.Any("error", err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", slog.Any("error", err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", slog.Any("error", err))
		}
	}
	if a.listener != nil {
		_ = a.listener.Close()
	}
	if a.db != nil {
		if err := a.db.DB.Close(); err != nil {
			a.logger.Error("failed to close storage", slog.Any("error", err))
		}
	}
}
