// Command create-account creates an account directly in the database. It is
// how the first admin is bootstrapped, since account creation over HTTP
// requires an admin token.
//
//	DATABASE_URL=... create-account -name "Secretaria" -email sec@example.com -password s3cret -role admin
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/config"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/database"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/logger"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/repository/postgres"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/account"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "path to config file")
		name       = flag.String("name", "", "display name")
		email      = flag.String("email", "", "login email")
		password   = flag.String("password", os.Getenv("ACCOUNT_PASSWORD"), "password (or ACCOUNT_PASSWORD)")
		role       = flag.String("role", "admin", "admin or secretaria")
	)
	flag.Parse()

	if err := run(*configPath, account.CreateInput{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     *role,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "create-account:", err)
		os.Exit(1)
	}
}

func run(configPath string, in account.CreateInput) error {
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Options{Level: cfg.Log.Level, Development: true, RedactPII: cfg.Log.RedactPII}); err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	created, err := account.NewService(postgres.NewAccountRepo(db)).Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("account %d created: %s (%s)\n", created.ID, created.Email, created.Role)
	return nil
}
