package visitor

import (
	"context"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
)

// Repository defines the data access contract for visitors. Create, Update
// and Delete each run as a single transaction.
type Repository interface {
	// Create inserts the address and the visitor referencing it, with status
	// pending and a server-assigned visit time. Nothing persists on error.
	Create(ctx context.Context, v domain.NewVisitor) (*domain.Visitor, error)

	// List returns every visitor with its address and group name, newest
	// visit first.
	List(ctx context.Context) ([]domain.Visitor, error)

	// Update applies the non-nil fields. Returns ErrNotFound if the visitor
	// does not exist.
	Update(ctx context.Context, id int64, u UpdateFields) error

	// Delete removes the visitor and its owned address. Returns ErrNotFound
	// before deleting anything if the visitor does not exist.
	Delete(ctx context.Context, id int64) error

	// UpdateStatus sets the status and returns the updated row, or
	// ErrNotFound.
	UpdateStatus(ctx context.Context, id int64, status domain.VisitorStatus) (*domain.Visitor, error)
}

// GroupDirectory resolves group names. Lookups are case-insensitive.
type GroupDirectory interface {
	// FindByName returns the single group whose name matches. Returns
	// ErrGroupNotFound or ErrGroupAmbiguous.
	FindByName(ctx context.Context, name string) (*domain.Group, error)
}

// Notifier receives the post-commit registration event.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, message string) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, message string) error { return f(ctx, message) }

// UpdateFields holds the mutable fields of a visitor update. Nil fields are
// not applied. Address is applied only when the visitor owns an address.
type UpdateFields struct {
	Name    *string
	Phone   *string
	Email   *string
	Address *domain.Address

	// ClearEmail sets the email column to NULL. It wins over Email.
	ClearEmail bool
}

// Empty reports whether no field is set.
func (u UpdateFields) Empty() bool {
	return u.Name == nil && u.Phone == nil && u.Email == nil && u.Address == nil && !u.ClearEmail
}
