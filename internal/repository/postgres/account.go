package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/account"
)

// AccountRepo implements account.Repository against the usuarios table.
type AccountRepo struct{ db *sql.DB }

// NewAccountRepo creates a Postgres-backed account repository.
func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

const accountColumns = `id, nome_gf, email_gf, tipo_usuario, logo`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner, extra ...interface{}) (*domain.Account, error) {
	var (
		a    domain.Account
		logo sql.NullString
	)
	dest := append([]interface{}{&a.ID, &a.Name, &a.Email, &a.Role, &logo}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	a.Logo = stringPtr(logo)
	return &a, nil
}

func (r *AccountRepo) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM usuarios ORDER BY nome_gf ASC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AccountRepo) Get(ctx context.Context, id int64) (*domain.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM usuarios WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var hash string
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+`, senha_gf FROM usuarios WHERE email_gf = $1`, email), &hash)
	if err == sql.ErrNoRows {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	a.PasswordHash = hash
	return a, nil
}

func (r *AccountRepo) Create(ctx context.Context, in *domain.Account) (*domain.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, `
		INSERT INTO usuarios (nome_gf, email_gf, senha_gf, tipo_usuario, logo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+accountColumns,
		in.Name, in.Email, in.PasswordHash, in.Role, nullable(in.Logo)))
	if err != nil {
		if pqCode(err) == codeUniqueViolation {
			return nil, account.ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	a.PasswordHash = in.PasswordHash
	return a, nil
}

func (r *AccountRepo) Update(ctx context.Context, id int64, u account.UpdateFields) (*domain.Account, error) {
	var b setBuilder
	if u.Name != nil {
		b.add("nome_gf", *u.Name)
	}
	if u.Email != nil {
		b.add("email_gf", *u.Email)
	}
	if u.Role != nil {
		b.add("tipo_usuario", *u.Role)
	}
	if u.Logo != nil {
		b.add("logo", *u.Logo)
	}
	if u.PasswordHash != nil {
		b.add("senha_gf", *u.PasswordHash)
	}
	if b.empty() {
		return r.Get(ctx, id)
	}

	q := fmt.Sprintf(`UPDATE usuarios SET %s WHERE id = %s RETURNING %s`,
		b.clause(), b.next(id), accountColumns)
	a, err := scanAccount(r.db.QueryRowContext(ctx, q, b.args...))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, account.ErrNotFound
	case pqCode(err) == codeUniqueViolation:
		return nil, account.ErrEmailTaken
	case err != nil:
		return nil, fmt.Errorf("update account: %w", err)
	}
	return a, nil
}

func (r *AccountRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		if pqCode(err) == codeForeignKeyViolation {
			return account.ErrInUse
		}
		return fmt.Errorf("delete account: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return account.ErrNotFound
	}
	return nil
}
