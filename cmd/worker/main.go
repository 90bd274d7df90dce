// Command worker runs the daily reminder outside the API process. It
// publishes through the Redis relay, so API replicas (with
// notifications.reminder_enabled set to false) deliver the reminder to their
// connected observers.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/config"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/database"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/notify"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/logger"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/worker"
)

func main() {
	if err := run(); err != nil {
		logger.Error("worker exited", "err", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Options{
		Level:       cfg.Log.Level,
		Development: cfg.IsDevelopment(),
		RedactPII:   cfg.Log.RedactPII,
	}); err != nil {
		return err
	}
	defer logger.Sync()

	if !cfg.Redis.Enabled() {
		return errors.New("the reminder worker needs REDIS_URL to reach the API replicas")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := database.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer client.Close()

	// The relay is only used to publish; the worker has no observers.
	relay := notify.NewRedisRelay(client, cfg.Notifications.Channel, notify.NewHub(1))
	reminder, err := worker.NewReminderFromConfig(cfg.Notifications, relay, client)
	if err != nil {
		return err
	}
	if err := reminder.Start(); err != nil {
		return err
	}
	logger.Info("reminder worker started", "channel", cfg.Notifications.Channel, "next", reminder.NextFire())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker")
	reminder.Stop()
	return nil
}
