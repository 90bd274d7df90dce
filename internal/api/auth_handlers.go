package api

import (
	"net/http"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/photos"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/httputil"
)

type loginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

type loginUser struct {
	ID      int64       `json:"id"`
	Nome    string      `json:"nome"`
	Tipo    domain.Role `json:"tipo"`
	Logo    *string     `json:"logo"`
	LogoURL *string     `json:"logo_url"`
}

type loginResponse struct {
	Token   string    `json:"token"`
	Usuario loginUser `json:"usuario"`
}

// Login handles POST /auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	res, err := h.login.Login(r.Context(), req.Email, req.Senha)
	if err != nil {
		respondError(w, r, err)
		return
	}

	acct := res.Account
	httputil.OK(w, loginResponse{
		Token: res.Token,
		Usuario: loginUser{
			ID:      acct.ID,
			Nome:    acct.Name,
			Tipo:    acct.Role,
			Logo:    acct.Logo,
			LogoURL: logoURL(acct.Logo, r),
		},
	})
}

func logoURL(logo *string, r *http.Request) *string {
	if logo == nil || *logo == "" {
		return nil
	}
	u := photos.URL(*logo, baseURL(r))
	return &u
}
