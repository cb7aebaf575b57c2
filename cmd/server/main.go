package main

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/api/controller"
	apirepository "ctchen222/tictactoe-minimax/internal/api/repository"
	"ctchen222/tictactoe-minimax/internal/api/service"
	"ctchen222/tictactoe-minimax/internal/bot"
	"ctchen222/tictactoe-minimax/internal/config"
	"ctchen222/tictactoe-minimax/internal/db"
	"ctchen222/tictactoe-minimax/internal/events"
	"ctchen222/tictactoe-minimax/internal/logger"
	"ctchen222/tictactoe-minimax/internal/repository"
	"ctchen222/tictactoe-minimax/internal/server"
	"ctchen222/tictactoe-minimax/internal/session"
	"ctchen222/tictactoe-minimax/internal/telemetry"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file; the environment is used when empty")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server exiting")
}

func run(ctx context.Context, cfg *config.Config) error {
	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("Error shutting down telemetry", "error", err)
		}
	}()
	logger.Init(cfg.LogLevel)

	// Initialize Redis
	rdb, err := db.NewRedisClient(ctx, cfg.Redis.Addr)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// Initialize SQLite DB
	sqlDB, err := db.Connect(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := db.InitializeDB(ctx, sqlDB); err != nil {
		return err
	}

	// Create repositories
	gameRepo := repository.NewGameRepository(rdb, cfg.Session.TTL)
	userRepo := apirepository.NewUserRepository(sqlDB)
	resultRepo := apirepository.NewResultRepository(sqlDB)

	// Create services
	bus := events.NewRedisBus(rdb)
	engine, err := bot.NewEngine()
	if err != nil {
		return err
	}
	sessions, err := session.NewService(gameRepo, bus, engine)
	if err != nil {
		return err
	}
	userService := service.NewUserService(userRepo, cfg.JWTSecret)
	resultService := service.NewResultService(resultRepo)

	// Create controllers and the gin-based server
	srv, err := server.NewServer(
		controller.NewUserController(userService),
		controller.NewGameController(sessions, resultService),
		userService,
		sessions,
	)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bus.Subscribe(gCtx, resultService.HandleEvent, nil)
	})
	g.Go(func() error {
		slog.Info("http server started", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
