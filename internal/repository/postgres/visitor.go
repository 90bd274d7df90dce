package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/visitor"
)

// VisitorRepo implements visitor.Repository against the visitantes and
// endereco_visitante tables.
type VisitorRepo struct{ db *sql.DB }

// NewVisitorRepo creates a Postgres-backed visitor repository.
func NewVisitorRepo(db *sql.DB) *VisitorRepo { return &VisitorRepo{db: db} }

const visitorColumns = `
	v.id, v.nome, to_char(v.data_nascimento, 'YYYY-MM-DD'), v.telefone,
	COALESCE(v.sexo, ''), v.email, COALESCE(v.estado_civil, ''),
	COALESCE(v.profissao, ''), COALESCE(v.como_conheceu, ''),
	COALESCE(v.tipo_evento, ''), v.usuario_id, v.gf_id, v.endereco_id,
	v.data_visita, v.status`

func scanVisitor(row rowScanner, extra ...interface{}) (*domain.Visitor, error) {
	var (
		v                  domain.Visitor
		birth, email       sql.NullString
		groupID, addressID sql.NullInt64
	)
	dest := append([]interface{}{
		&v.ID, &v.Name, &birth, &v.Phone,
		&v.Sex, &email, &v.MaritalStatus,
		&v.Occupation, &v.ReferralSource,
		&v.EventType, &v.AccountID, &groupID, &addressID,
		&v.VisitedAt, &v.Status,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	v.BirthDate = stringPtr(birth)
	v.Email = stringPtr(email)
	v.GroupID = int64Ptr(groupID)
	v.AddressID = int64Ptr(addressID)
	return &v, nil
}

// Create inserts the address and then the visitor referencing it in one
// transaction.
func (r *VisitorRepo) Create(ctx context.Context, nv domain.NewVisitor) (*domain.Visitor, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	addr := nv.Address
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO endereco_visitante (cep, endereco, numero, complemento, bairro, cidade, uf)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, addr.PostalCode, addr.Street, addr.Number, addr.Complement,
		addr.Neighborhood, addr.City, addr.State).Scan(&addr.ID); err != nil {
		return nil, fmt.Errorf("insert address: %w", err)
	}

	v, err := scanVisitor(tx.QueryRowContext(ctx, `
		INSERT INTO visitantes AS v (
			nome, data_nascimento, telefone, sexo, email, estado_civil, profissao,
			como_conheceu, tipo_evento, usuario_id, gf_id, endereco_id, data_visita, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), $13)
		RETURNING `+visitorColumns,
		nv.Name, nullable(nv.BirthDate), nv.Phone, nv.Sex, nullable(nv.Email),
		nv.MaritalStatus, nv.Occupation, nv.ReferralSource, nv.EventType,
		nv.AccountID, nv.GroupID, addr.ID, domain.StatusPending,
	))
	if err != nil {
		return nil, fmt.Errorf("insert visitor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	v.Address = &addr
	return v, nil
}

// List returns every visitor joined with its address and group name.
func (r *VisitorRepo) List(ctx context.Context) ([]domain.Visitor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+visitorColumns+`,
		       g.nome,
		       ev.id, ev.cep, ev.endereco, ev.numero, ev.complemento, ev.bairro, ev.cidade, ev.uf
		FROM visitantes v
		LEFT JOIN endereco_visitante ev ON ev.id = v.endereco_id
		LEFT JOIN gf g ON g.id = v.gf_id
		ORDER BY v.data_visita DESC, v.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list visitors: %w", err)
	}
	defer rows.Close()

	out := []domain.Visitor{}
	for rows.Next() {
		var (
			groupName sql.NullString
			addrID    sql.NullInt64
			a         [7]sql.NullString
		)
		v, err := scanVisitor(rows, &groupName, &addrID,
			&a[0], &a[1], &a[2], &a[3], &a[4], &a[5], &a[6])
		if err != nil {
			return nil, fmt.Errorf("scan visitor: %w", err)
		}
		v.GroupName = stringPtr(groupName)
		if addrID.Valid {
			v.Address = &domain.Address{
				ID:           addrID.Int64,
				PostalCode:   a[0].String,
				Street:       a[1].String,
				Number:       a[2].String,
				Complement:   a[3].String,
				Neighborhood: a[4].String,
				City:         a[5].String,
				State:        a[6].String,
			}
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// lockAddressRef locks the visitor row and returns its address reference.
func lockAddressRef(ctx context.Context, tx *sql.Tx, id int64) (sql.NullInt64, error) {
	var addrID sql.NullInt64
	err := tx.QueryRowContext(ctx,
		`SELECT endereco_id FROM visitantes WHERE id = $1 FOR UPDATE`, id).Scan(&addrID)
	if err == sql.ErrNoRows {
		return addrID, visitor.ErrNotFound
	}
	if err != nil {
		return addrID, fmt.Errorf("lock visitor: %w", err)
	}
	return addrID, nil
}

// Update applies the supplied visitor columns and, when the visitor owns an
// address, the supplied address in one transaction.
func (r *VisitorRepo) Update(ctx context.Context, id int64, u visitor.UpdateFields) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	addrID, err := lockAddressRef(ctx, tx, id)
	if err != nil {
		return err
	}

	var b setBuilder
	if u.Name != nil {
		b.add("nome", *u.Name)
	}
	if u.Phone != nil {
		b.add("telefone", *u.Phone)
	}
	switch {
	case u.ClearEmail:
		b.add("email", nil)
	case u.Email != nil:
		b.add("email", *u.Email)
	}
	if !b.empty() {
		q := fmt.Sprintf(`UPDATE visitantes SET %s WHERE id = %s`, b.clause(), b.next(id))
		if _, err := tx.ExecContext(ctx, q, b.args...); err != nil {
			return fmt.Errorf("update visitor: %w", err)
		}
	}

	if u.Address != nil && addrID.Valid {
		a := u.Address
		if _, err := tx.ExecContext(ctx, `
			UPDATE endereco_visitante
			SET cep = $1, endereco = $2, numero = $3, complemento = $4, bairro = $5, cidade = $6, uf = $7
			WHERE id = $8
		`, a.PostalCode, a.Street, a.Number, a.Complement, a.Neighborhood, a.City, a.State,
			addrID.Int64); err != nil {
			return fmt.Errorf("update address: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete removes the visitor and then its address in one transaction.
func (r *VisitorRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	addrID, err := lockAddressRef(ctx, tx, id)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM visitantes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete visitor: %w", err)
	}
	if addrID.Valid {
		if _, err := tx.ExecContext(ctx, `DELETE FROM endereco_visitante WHERE id = $1`, addrID.Int64); err != nil {
			return fmt.Errorf("delete address: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// UpdateStatus sets the visitor's follow-up status and returns the updated
// row.
func (r *VisitorRepo) UpdateStatus(ctx context.Context, id int64, status domain.VisitorStatus) (*domain.Visitor, error) {
	v, err := scanVisitor(r.db.QueryRowContext(ctx, `
		UPDATE visitantes AS v SET status = $1
		WHERE v.id = $2
		RETURNING `+visitorColumns,
		status, id))
	if err == sql.ErrNoRows {
		return nil, visitor.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	return v, nil
}
