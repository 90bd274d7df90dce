package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/api"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/auth"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/config"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/database"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/notify"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/photos"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/logger"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/repository/postgres"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/account"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/visitor"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/worker"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %w", addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "err", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.Options{
		Level:       cfg.Log.Level,
		Development: cfg.IsDevelopment(),
		RedactPII:   cfg.Log.RedactPII,
	}); err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	addr := cfg.Server.Addr()
	if err := checkPortAvailable(addr); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected", "host", database.Host(cfg.Database.URL))

	redisClient, err := database.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, running as a single replica", "err", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("redis connected", "channel", cfg.Notifications.Channel)
	}

	// Notification bus
	hub := notify.NewHub(cfg.Notifications.ObserverBuffer)
	publisher, relay := busPublisher(ctx, hub, redisClient, cfg.Notifications.Channel)

	// Photos
	store, err := photos.Open(ctx, cfg.Photos)
	if err != nil {
		return fmt.Errorf("photos: %w", err)
	}
	photosDir := ""
	if cfg.Photos.Backend == "local" {
		photosDir = cfg.Photos.Dir
	}

	// Services
	accountRepo := postgres.NewAccountRepo(db)
	groupRepo := postgres.NewGroupRepo(db)
	accounts := account.NewService(accountRepo)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	visitors := visitor.NewService(postgres.NewVisitorRepo(db), groupRepo, notify.Messenger{Publisher: publisher})

	health := api.NewHealthChecker(db, redisClient, store, hub)
	if relay != nil {
		health.WithRelay(relay)
	}

	handlers := api.NewHandlers(api.Deps{
		Login:          auth.NewService(accounts, tokens),
		Tokens:         tokens,
		Visitors:       visitors,
		Accounts:       accounts,
		Groups:         groupRepo,
		DBNow:          func(ctx context.Context) (time.Time, error) { return postgres.Now(ctx, db) },
		Photos:         store,
		PhotosDir:      photosDir,
		Notifications:  notify.NewHandler(hub, cfg.CORS.AllowedOrigins),
		Health:         health,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// Daily reminder
	var reminder *worker.ReminderScheduler
	if cfg.Notifications.ReminderEnabled {
		reminder, err = worker.NewReminderFromConfig(cfg.Notifications, publisher, redisClient)
		if err != nil {
			return err
		}
		if err := reminder.Start(); err != nil {
			return err
		}
	}

	server := api.NewServer(cfg.Server, handlers)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-done:
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}

	if reminder != nil {
		reminder.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", "err", err)
	}
	logger.Info("server stopped")
	return nil
}

// busPublisher returns the Redis relay when Redis is available, so every
// replica's observers get each event, and the local hub otherwise. The relay
// keeps serving local observers if its subscription fails.
func busPublisher(ctx context.Context, hub *notify.Hub, client *redis.Client, channel string) (notify.Publisher, *notify.RedisRelay) {
	if client == nil {
		return hub, nil
	}
	relay := notify.NewRedisRelay(client, channel, hub)
	go func() {
		if err := relay.Run(ctx); err != nil {
			logger.Error("notification relay stopped, delivering locally", "err", err)
		}
	}()
	return relay, relay
}
