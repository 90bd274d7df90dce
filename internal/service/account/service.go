package account

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/logger"
)

// Service implements account business logic on top of a Repository.
type Service struct {
	repo Repository
	cost int
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost overrides the password hashing cost. Tests use
// bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService creates an account service backed by the given repository.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, cost: 10}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateInput holds the fields for creating a new account.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Logo     *string
}

// UpdateInput holds the optional fields of an account update. Blank strings
// are treated as not supplied.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
	Logo     *string
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]domain.Account, error) {
	return s.repo.List(ctx)
}

// Get returns a single account.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Account, error) {
	return s.repo.Get(ctx, id)
}

// FindByEmail returns the account for a login email, normalizing it first.
func (s *Service) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
}

// Create validates the input, hashes the password and stores the account.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Account, error) {
	name := strings.TrimSpace(in.Name)
	email := domain.NormalizeEmail(in.Email)
	switch {
	case name == "":
		return nil, domain.Invalid("nome_gf", "obrigatório")
	case email == "":
		return nil, domain.Invalid("email_gf", "obrigatório")
	case strings.TrimSpace(in.Password) == "":
		return nil, domain.Invalid("senha_gf", "obrigatório")
	}
	role, ok := domain.ParseRole(in.Role)
	if !ok {
		return nil, domain.Invalid("tipo_usuario", "use 'admin' ou 'secretaria'")
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &domain.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Logo:         in.Logo,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("account created", "account_id", created.ID, "email", created.Email, "role", created.Role)
	return created, nil
}

// Update applies the supplied fields. Supplying nothing is a validation
// error. A new password is re-hashed.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*domain.Account, error) {
	var u UpdateFields
	if v := trimmed(in.Name); v != nil {
		u.Name = v
	}
	if v := trimmed(in.Email); v != nil {
		e := domain.NormalizeEmail(*v)
		u.Email = &e
	}
	if v := trimmed(in.Role); v != nil {
		role, ok := domain.ParseRole(*v)
		if !ok {
			return nil, domain.Invalid("tipo_usuario", "use 'admin' ou 'secretaria'")
		}
		u.Role = &role
	}
	if v := trimmed(in.Password); v != nil {
		hash, err := s.hash(*v)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = &hash
	}
	u.Logo = in.Logo

	if u.Empty() {
		return nil, domain.Invalid("", "nenhum campo fornecido para atualização")
	}
	return s.repo.Update(ctx, id, u)
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
