package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/weirlabs/weir"
	"github.com/weirlabs/weir/internal/config"
	"github.com/weirlabs/weir/internal/schedule"
	"github.com/weirlabs/weir/internal/server"
	"github.com/weirlabs/weir/internal/steps"
	"github.com/weirlabs/weir/internal/store"
	"github.com/weirlabs/weir/pkg/log"
)

type weir struct {
	cfg        *config.Config
	vars       store.Variables
	redis      *store.RedisVariables
	scheduler  *schedule.Scheduler
	apiServer  *server.Server
	httpServer *http.Server
	cancel     context.CancelFunc
	quit       chan os.Signal
}

var ErrRedisUnreachable = errors.New("failed to reach Redis")

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &weir{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *weir) run() error {
	if err := s.initializeStore(); err != nil {
		return err
	}
	s.startScheduler()
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *weir) setupLogging() {
	level, ok := logLevels[s.cfg.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}

	env := os.Getenv("ENV")
	logger := log.NewWithLevel(app.Name, env, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Weir starting",
		slog.String("log_level", level.String()))
}

func (s *weir) initializeStore() error {
	if s.cfg.RedisAddr == "" {
		slog.Info("No Redis endpoint configured, using in-memory variables")
		s.vars = store.NewMemoryVariables()
		return nil
	}

	redis := store.NewRedisVariables(
		s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisPrefix,
		s.cfg.RedisDB,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redis.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnreachable, err)
	}

	s.redis = redis
	s.vars = redis
	return nil
}

func (s *weir) startScheduler() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.scheduler = schedule.New(time.Now, schedule.NewTimer)
	go s.scheduler.Run(ctx)
}

func (s *weir) startServer() {
	s.apiServer = server.NewServer(steps.Default(), s.vars, s.scheduler)
	router := s.apiServer.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("API server listening", slog.String("addr", addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server failed", log.Error(err))
		}
	}()
}

func (s *weir) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Failed to stop API server", log.Error(err))
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			slog.Error("Failed to close Redis", log.Error(err))
		}
	}

	slog.Info("Shutdown complete")
}
