package account

import (
	"context"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
)

// Repository defines the data access contract for accounts.
// Implementations must be safe for concurrent use.
type Repository interface {
	// List returns every account ordered by display name.
	List(ctx context.Context) ([]domain.Account, error)

	// Get returns a single account. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id int64) (*domain.Account, error)

	// FindByEmail looks an account up by normalized email, password hash
	// included. Returns ErrNotFound if no account matches.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)

	// Create inserts an account. Returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, a *domain.Account) (*domain.Account, error)

	// Update applies the non-nil fields and returns the updated row.
	// Returns ErrNotFound or ErrEmailTaken.
	Update(ctx context.Context, id int64, u UpdateFields) (*domain.Account, error)

	// Delete removes an account. Returns ErrNotFound, or ErrInUse while
	// visitors still reference it.
	Delete(ctx context.Context, id int64) error
}

// UpdateFields holds the mutable columns for an account update.
// Nil fields are not applied.
type UpdateFields struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *domain.Role
	Logo         *string
}

// Empty reports whether no field is set.
func (u UpdateFields) Empty() bool {
	return u.Name == nil && u.Email == nil && u.PasswordHash == nil && u.Role == nil && u.Logo == nil
}
