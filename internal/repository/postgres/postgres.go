// Package postgres implements the service repositories against PostgreSQL
// using database/sql and lib/pq. Multi-statement writes run inside one
// transaction that is rolled back unless it commits.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Postgres error codes mapped to service errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// setBuilder collects "col = $n" assignments for partial updates.
type setBuilder struct {
	sets []string
	args []interface{}
}

func (b *setBuilder) add(col string, val interface{}) {
	b.args = append(b.args, val)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", col, len(b.args)))
}

// next returns the placeholder for the next argument appended after the SET
// list.
func (b *setBuilder) next(val interface{}) string {
	b.args = append(b.args, val)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *setBuilder) empty() bool { return len(b.sets) == 0 }

func (b *setBuilder) clause() string { return strings.Join(b.sets, ", ") }

func nullable(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}

// Now runs a trivial round trip and returns the database clock.
func Now(ctx context.Context, db *sql.DB) (time.Time, error) {
	var now time.Time
	if err := db.QueryRowContext(ctx, `SELECT NOW()`).Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("select now: %w", err)
	}
	return now, nil
}
