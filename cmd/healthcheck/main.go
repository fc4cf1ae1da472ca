// Команда healthcheck опрашивает gRPC health-сервис и завершается с кодом 1,
// если приложение не готово. Используется как HEALTHCHECK контейнера.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/vendo/internal/grpc/client"
	"github.com/magabrotheeeer/vendo/internal/grpc/server"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "адрес gRPC health-сервиса")
	timeout := flag.Duration("timeout", 3*time.Second, "таймаут проверки")
	flag.Parse()

	if err := check(*addr, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func check(addr string, timeout time.Duration) error {
	c, err := client.NewHealthClient(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	status, err := c.Check(ctx, server.ServiceName)
	if err != nil {
		return err
	}
	if status != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("service %s is %s", server.ServiceName, status)
	}
	return nil
}
