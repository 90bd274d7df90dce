package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
)

// Claims is the session token payload: {id, email, tipo, iat, exp}.
type Claims struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"tipo"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens with a server-held
// secret. Tokens are not persisted.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer whose tokens are valid for ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the identity and returns it with its expiry.
func (t *TokenIssuer) Issue(id domain.Identity) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:    id.ID,
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses a token, checking the HS256 signature and the expiry.
// Every failure is reported as ErrInvalidToken.
func (t *TokenIssuer) Verify(raw string) (domain.Identity, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return domain.Identity{}, ErrInvalidToken
	}
	if !parsed.Valid || claims.ID == 0 {
		return domain.Identity{}, ErrInvalidToken
	}
	return domain.Identity{ID: claims.ID, Email: claims.Email, Role: claims.Role}, nil
}
