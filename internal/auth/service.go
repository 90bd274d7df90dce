package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/logger"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/account"
)

// CredentialStore looks accounts up by normalized email. It returns
// account.ErrNotFound when no account matches.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// LoginResult is a successful login: a signed token plus the account.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   domain.Account
}

// Service performs password login. It never mutates accounts.
type Service struct {
	store  CredentialStore
	tokens *TokenIssuer
}

// NewService creates a login service.
func NewService(store CredentialStore, tokens *TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens}
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// dummy returns a fixed bcrypt hash compared against when the email is
// unknown, so both failure paths do the same work.
func dummy() []byte {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("mava-connect-placeholder"), bcrypt.DefaultCost)
	})
	return dummyHash
}

// Login verifies the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.Invalid("", "email e senha são obrigatórios")
	}

	acct, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, account.ErrNotFound) {
			return nil, fmt.Errorf("lookup account: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummy(), []byte(password))
		logger.Info("login rejected", "email", email, "reason", "unknown email")
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		logger.Info("login rejected", "email", email, "reason", "password mismatch")
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(domain.Identity{ID: acct.ID, Email: acct.Email, Role: acct.Role})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, Account: *acct}, nil
}
