package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/visitor"
)

// GroupRepo is the read-only group directory over the gf table.
type GroupRepo struct{ db *sql.DB }

// NewGroupRepo creates a Postgres-backed group directory.
func NewGroupRepo(db *sql.DB) *GroupRepo { return &GroupRepo{db: db} }

// FindByName resolves a group name case-insensitively. It fetches at most two
// rows so a duplicate name is detected without scanning the table.
func (r *GroupRepo) FindByName(ctx context.Context, name string) (*domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, nome FROM gf
		WHERE LOWER(nome) = LOWER($1)
		ORDER BY id
		LIMIT 2
	`, name)
	if err != nil {
		return nil, fmt.Errorf("find group: %w", err)
	}
	defer rows.Close()

	var found []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		found = append(found, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find group: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: GF com o nome '%s' não encontrado", visitor.ErrGroupNotFound, name)
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("%w: mais de um GF com o nome '%s'", visitor.ErrGroupAmbiguous, name)
	}
}

// List returns every group ordered by name.
func (r *GroupRepo) List(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, nome FROM gf ORDER BY nome ASC`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	out := []domain.Group{}
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
