package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/wercia/zeeland-agents/pkg/analytics"
	"github.com/wercia/zeeland-agents/pkg/database"
	"github.com/wercia/zeeland-agents/pkg/logger"
	"github.com/wercia/zeeland-agents/pkg/repository"
	"github.com/wercia/zeeland-agents/pkg/services"
	"github.com/wercia/zeeland-agents/pkg/workers"
	"github.com/wercia/zeeland-agents/pkg/zeeland"
)

type Config struct {
	BackendBaseURL      string        `env:"BACKEND_BASE_URL" envDefault:"https://wercia-102566788969.europe-west4.run.app"`
	AnalyticsEndpoint   string        `env:"ANALYTICS_ENDPOINT"`
	UserID              string        `env:"USER_ID" envDefault:"local"`
	PgURL               string        `env:"DATABASE_URL"`
	PgHost              string        `env:"DB_HOST" envDefault:"localhost:65432"`
	StatusProbeInterval time.Duration `env:"STATUS_PROBE_INTERVAL" envDefault:"30s"`
	StatusProbeTimeout  time.Duration `env:"STATUS_PROBE_TIMEOUT" envDefault:"5s"`
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	workerGroup, err := setupWorkers()
	if err != nil {
		return err
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return workerGroup.Start(ctx)
}

func setupWorkers() (workers.Group, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	backendClient, err := zeeland.NewClient(cfg.BackendBaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating backend client: %w", err)
	}

	db, err := database.NewPostgres(cfg.PgURL, cfg.PgHost)
	if err != nil {
		return nil, fmt.Errorf("creating db: %w", err)
	}

	scenarioRepository := repository.NewScenarioRecordRepository(db)
	analyticsClient := analytics.NewClient(cfg.AnalyticsEndpoint)

	scenarioService := services.NewScenarioService(scenarioRepository, analyticsClient)
	scenarioService.Load(context.Background(), cfg.UserID)

	chatService := services.NewChatService(scenarioService, backendClient, analyticsClient)

	return workers.Group{
		workers.NewStatusProbe(backendClient, cfg.StatusProbeInterval, cfg.StatusProbeTimeout),
		workers.NewConsole(os.Stdin, os.Stdout, chatService, scenarioService),
	}, nil
}
