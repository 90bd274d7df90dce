package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/httputil"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/account"
)

const testSecret = "test-secret"

type fakeStore map[string]*domain.Account

func (f fakeStore) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	if a, ok := f[email]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, account.ErrNotFound
}

func newStore(t *testing.T) fakeStore {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("senha123"), bcrypt.MinCost)
	require.NoError(t, err)
	return fakeStore{
		"admin@mava.org": {ID: 1, Name: "Admin", Email: "admin@mava.org", PasswordHash: string(hash), Role: domain.RoleAdmin},
		"sec@mava.org":   {ID: 2, Name: "Sec", Email: "sec@mava.org", PasswordHash: string(hash), Role: domain.RoleStaff},
	}
}

func TestLogin(t *testing.T) {
	tokens := NewTokenIssuer(testSecret, time.Hour)
	svc := NewService(newStore(t), tokens)

	res, err := svc.Login(context.Background(), "  ADMIN@mava.org ", "senha123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Account.ID)

	id, err := tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{ID: 1, Email: "admin@mava.org", Role: domain.RoleAdmin}, id)
}

func TestLoginFailures(t *testing.T) {
	svc := NewService(newStore(t), NewTokenIssuer(testSecret, time.Hour))

	_, err := svc.Login(context.Background(), "admin@mava.org", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@mava.org", "senha123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "", "")
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestVerifyRejects(t *testing.T) {
	tokens := NewTokenIssuer(testSecret, time.Hour)
	good, _, err := tokens.Issue(domain.Identity{ID: 7, Email: "a@b.c", Role: domain.RoleStaff})
	require.NoError(t, err)

	other := NewTokenIssuer("other-secret", time.Hour)
	_, err = other.Verify(good)
	assert.ErrorIs(t, err, ErrInvalidToken, "signature mismatch")

	_, err = tokens.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken, "malformed")

	expired := NewTokenIssuer(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(domain.Identity{ID: 7, Role: domain.RoleStaff})
	require.NoError(t, err)
	_, err = tokens.Verify(old)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{ID: 7, Role: domain.RoleStaff})
	raw, err := noExp.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = tokens.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken, "missing exp")

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		ID: 7, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	raw, err = hs512.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = tokens.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken, "only HS256 accepted")
}

func protected(tokens *TokenIssuer, mw ...func(http.Handler) http.Handler) http.Handler {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())
		httputil.OK(w, id)
	})
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return NewAuthenticator(tokens).Middleware(h)
}

func decodeCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Code
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokenIssuer(testSecret, time.Hour)
	h := protected(tokens)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/visitantes", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing_token", decodeCode(t, rec))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/visitantes", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", decodeCode(t, rec))

	tok, _, err := tokens.Issue(domain.Identity{ID: 3, Email: "x@y.z", Role: domain.RoleStaff})
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/visitantes", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var id domain.Identity
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&id))
	assert.Equal(t, int64(3), id.ID)
}

func TestRequireRole(t *testing.T) {
	tokens := NewTokenIssuer(testSecret, time.Hour)
	h := protected(tokens, RequireRole(domain.RoleAdmin))

	staff, _, _ := tokens.Issue(domain.Identity{ID: 2, Role: domain.RoleStaff})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/visitantes/1/status", nil)
	req.Header.Set("Authorization", "Bearer "+staff)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeCode(t, rec))

	admin, _, _ := tokens.Issue(domain.Identity{ID: 1, Role: domain.RoleAdmin})
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPatch, "/visitantes/1/status", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorize(t *testing.T) {
	assert.NoError(t, Authorize(domain.Identity{Role: domain.RoleAdmin}, domain.RoleAdmin))
	assert.ErrorIs(t, Authorize(domain.Identity{Role: domain.RoleStaff}, domain.RoleAdmin), ErrForbidden)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "", bearerToken("abc"))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken(""))
}
