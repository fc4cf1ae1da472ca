// Package server реализует gRPC-сервер проверки здоровья приложения.
//
// HealthServer публикует стандартный сервис grpc.health.v1.Health и
// периодически обновляет статус по результатам проверок зависимостей.
package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/vendo/internal/lib/sl"
)

// ServiceName имя сервиса, под которым публикуется статус приложения.
const ServiceName = "vendo"

// Checker проверяет доступность зависимости.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc адаптирует функцию к интерфейсу Checker.
type CheckerFunc func(ctx context.Context) error

// Ping вызывает f.
func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthServer хранит статус сервиса и набор проверок.
type HealthServer struct {
	health   *health.Server
	checks   map[string]Checker
	interval time.Duration
	log      *slog.Logger
}

// NewHealthServer создает HealthServer. Пока не выполнена первая проверка,
// сервис считается неготовым.
func NewHealthServer(checks map[string]Checker, interval time.Duration, logger *slog.Logger) *HealthServer {
	h := health.NewServer()
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &HealthServer{
		health:   h,
		checks:   checks,
		interval: interval,
		log:      logger,
	}
}

// Register регистрирует сервис здоровья на gRPC-сервере.
func (s *HealthServer) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, s.health)
}

// Check выполняет все проверки и обновляет статус.
func (s *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, c := range s.checks {
		checkCtx, cancel := context.WithTimeout(ctx, s.interval)
		err := c.Ping(checkCtx)
		cancel()
		if err != nil {
			s.log.Warn("health check failed", slog.String("dependency", name), sl.Err(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
	return status
}

// Run проверяет зависимости сразу и затем по тикеру до отмены ctx.
// При остановке переводит все сервисы в NOT_SERVING.
func (s *HealthServer) Run(ctx context.Context) {
	s.Check(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}
