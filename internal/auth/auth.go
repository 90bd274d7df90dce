// Package auth implements password login, HS256 session tokens and the
// authenticate/authorize HTTP middleware shared by every protected route.
package auth

import (
	"net/http"
	"strings"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/httputil"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/logger"
)

// Authenticator verifies bearer tokens on incoming requests.
type Authenticator struct {
	tokens *TokenIssuer
}

// NewAuthenticator creates the authenticate middleware provider.
func NewAuthenticator(tokens *TokenIssuer) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Authenticate extracts the bearer token from the request and verifies it.
func (a *Authenticator) Authenticate(r *http.Request) (domain.Identity, error) {
	raw := bearerToken(r.Header.Get("Authorization"))
	if raw == "" {
		return domain.Identity{}, ErrMissingToken
	}
	return a.tokens.Verify(raw)
}

// Middleware rejects requests without a valid token and attaches the
// identity to the request context otherwise.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.Authenticate(r)
		if err != nil {
			writeAuthError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireRole is middleware that only lets identities with the given role
// through. It must run after Authenticator.Middleware.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				writeAuthError(w, r, ErrMissingToken)
				return
			}
			if err := Authorize(id, role); err != nil {
				writeAuthError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch err {
	case ErrMissingToken:
		httputil.Unauthorized(w, "missing_token", "Acesso negado. Token não fornecido.")
	case ErrForbidden:
		httputil.Forbidden(w, "Acesso negado. Permissão insuficiente.")
	default:
		logger.Debug("token rejected", "path", r.URL.Path, "err", err)
		httputil.Unauthorized(w, "invalid_token", "Token inválido ou expirado.")
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
