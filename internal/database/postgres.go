// Package database opens the process-wide Postgres pool and the optional
// Redis client.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/config"
)

// Open creates the Postgres pool, applies the configured limits and pings it.
// The pool is shared by every request and closed once on shutdown.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime())
	db.SetConnMaxIdleTime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// connString appends connect/statement timeouts and the sslmode implied by
// cfg.SSL unless the URL already sets them.
func connString(cfg config.DatabaseConfig) string {
	dsn := cfg.URL
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	add := func(kv string) {
		dsn += sep + kv
		sep = "&"
	}
	if !strings.Contains(dsn, "sslmode=") {
		if cfg.SSL {
			add("sslmode=require")
		} else {
			add("sslmode=disable")
		}
	}
	if !strings.Contains(dsn, "connect_timeout") {
		add("connect_timeout=5")
	}
	if !strings.Contains(dsn, "statement_timeout") {
		add("options=" + url.QueryEscape("-c statement_timeout=15000"))
	}
	return dsn
}

// Host returns the host portion of a database URL for logging without
// credentials.
func Host(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
