// Package api wires the HTTP surface: routing, CORS, authentication
// middleware and the JSON handlers for visitors, accounts and groups.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/auth"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/photos"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/httputil"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/account"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/visitor"
)

// GroupLister lists every group ordered by name.
type GroupLister interface {
	List(ctx context.Context) ([]domain.Group, error)
}

// Clock reports the database server time.
type Clock func(ctx context.Context) (time.Time, error)

// Deps collects what the handlers need. Photos, Notifications and Health may
// be nil; the matching routes are then not mounted.
type Deps struct {
	Login          *auth.Service
	Tokens         *auth.TokenIssuer
	Visitors       *visitor.Service
	Accounts       *account.Service
	Groups         GroupLister
	DBNow          Clock
	Photos         *photos.Store
	PhotosDir      string
	Notifications  http.Handler
	Health         *HealthChecker
	AllowedOrigins []string
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	login         *auth.Service
	authn         *auth.Authenticator
	visitors      *visitor.Service
	accounts      *account.Service
	groups        GroupLister
	dbNow         Clock
	photos        *photos.Store
	photosDir     string
	notifications http.Handler
	health        *HealthChecker
	origins       []string
}

// NewHandlers creates the handler set from deps.
func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		login:         d.Login,
		authn:         auth.NewAuthenticator(d.Tokens),
		visitors:      d.Visitors,
		accounts:      d.Accounts,
		groups:        d.Groups,
		dbNow:         d.DBNow,
		photos:        d.Photos,
		photosDir:     d.PhotosDir,
		notifications: d.Notifications,
		health:        d.Health,
		origins:       d.AllowedOrigins,
	}
}

// pathID parses the {id} URL parameter. It writes a 400 and returns false
// when the value is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.BadRequest(w, "ID inválido.")
		return 0, false
	}
	return id, true
}

// caller returns the identity attached by the auth middleware.
func caller(r *http.Request) domain.Identity {
	id, _ := auth.IdentityFrom(r.Context())
	return id
}

// baseURL is the scheme and host the client used to reach this server.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
