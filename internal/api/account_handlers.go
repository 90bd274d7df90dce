package api

import (
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/httputil"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/account"
)

// maxFormMemory is how much of a multipart form is kept in memory before
// spilling to temp files.
const maxFormMemory = 8 << 20

// accountResponse is an account with its logo resolved to a URL.
type accountResponse struct {
	domain.Account
	LogoURL *string `json:"logo_url"`
}

// accountForm holds the fields of a create/update request. Nil means the
// field was not sent.
type accountForm struct {
	Name     *string `json:"nome_gf"`
	Email    *string `json:"email_gf"`
	Password *string `json:"senha_gf"`
	Role     *string `json:"tipo_usuario"`

	logo     multipart.File
	logoName string
}

func (f *accountForm) close() {
	if f.logo != nil {
		f.logo.Close()
	}
}

// readAccountForm accepts multipart/form-data (with an optional "logo" file)
// or a JSON body.
func readAccountForm(r *http.Request) (*accountForm, error) {
	form := &accountForm{}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := json.NewDecoder(r.Body).Decode(form); err != nil {
			return nil, domain.Invalid("", "JSON inválido: "+err.Error())
		}
		return form, nil
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, domain.Invalid("", "formulário inválido: "+err.Error())
	}
	field := func(name string) *string {
		if vs, ok := r.MultipartForm.Value[name]; ok && len(vs) > 0 {
			return &vs[0]
		}
		return nil
	}
	form.Name = field("nome_gf")
	form.Email = field("email_gf")
	form.Password = field("senha_gf")
	form.Role = field("tipo_usuario")

	file, header, err := r.FormFile("logo")
	switch {
	case err == nil:
		form.logo = file
		form.logoName = header.Filename
	case !errors.Is(err, http.ErrMissingFile):
		return nil, domain.Invalid("logo", "arquivo inválido")
	}
	return form, nil
}

// storeLogo saves the uploaded logo, if any, and returns its reference.
func (h *Handlers) storeLogo(r *http.Request, form *accountForm) (*string, error) {
	if form.logo == nil {
		return nil, nil
	}
	if h.photos == nil {
		return nil, domain.Invalid("logo", "upload de imagens não está habilitado")
	}
	ref, err := h.photos.Save(r.Context(), form.logoName, form.logo)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (h *Handlers) accountView(r *http.Request, a domain.Account) accountResponse {
	return accountResponse{Account: a, LogoURL: logoURL(a.Logo, r)}
}

// ListAccounts handles GET /api/usuarios.
func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := h.accounts.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]accountResponse, 0, len(list))
	for _, a := range list {
		out = append(out, h.accountView(r, a))
	}
	httputil.OK(w, out)
}

// GetAccount handles GET /api/usuarios/{id}.
func (h *Handlers) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, h.accountView(r, *a))
}

// CreateAccount handles POST /api/usuarios.
func (h *Handlers) CreateAccount(w http.ResponseWriter, r *http.Request) {
	form, err := readAccountForm(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer form.close()

	logo, err := h.storeLogo(r, form)
	if err != nil {
		respondError(w, r, err)
		return
	}

	a, err := h.accounts.Create(r.Context(), account.CreateInput{
		Name:     deref(form.Name),
		Email:    deref(form.Email),
		Password: deref(form.Password),
		Role:     deref(form.Role),
		Logo:     logo,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.Created(w, h.accountView(r, *a))
}

// UpdateAccount handles PUT /api/usuarios/{id}.
func (h *Handlers) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	form, err := readAccountForm(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer form.close()

	logo, err := h.storeLogo(r, form)
	if err != nil {
		respondError(w, r, err)
		return
	}

	a, err := h.accounts.Update(r.Context(), id, account.UpdateInput{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		Role:     form.Role,
		Logo:     logo,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, h.accountView(r, *a))
}

// DeleteAccount handles DELETE /api/usuarios/{id}.
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.accounts.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	httputil.NoContent(w)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
