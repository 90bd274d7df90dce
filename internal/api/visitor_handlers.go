package api

import (
	"net/http"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/httputil"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/visitor"
)

type registerVisitorRequest struct {
	Nome           string          `json:"nome"`
	DataNascimento string          `json:"data_nascimento"`
	Telefone       string          `json:"telefone"`
	Sexo           string          `json:"sexo"`
	Email          string          `json:"email"`
	EstadoCivil    string          `json:"estado_civil"`
	Profissao      string          `json:"profissao"`
	ComoConheceu   string          `json:"como_conheceu"`
	TipoEvento     string          `json:"tipo_evento"`
	GFResponsavel  string          `json:"gf_responsavel"`
	Endereco       *domain.Address `json:"endereco"`
}

type updateVisitorRequest struct {
	Nome     *string         `json:"nome"`
	Telefone *string         `json:"telefone"`
	Email    *string         `json:"email"`
	Endereco *domain.Address `json:"endereco"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type statusResponse struct {
	Message   string          `json:"message"`
	Visitante *domain.Visitor `json:"visitante"`
}

// CreateVisitor handles POST /visitantes.
func (h *Handlers) CreateVisitor(w http.ResponseWriter, r *http.Request) {
	var req registerVisitorRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	v, err := h.visitors.Register(r.Context(), caller(r), visitor.RegisterInput{
		Name:           req.Nome,
		BirthDate:      req.DataNascimento,
		Phone:          req.Telefone,
		Sex:            req.Sexo,
		Email:          req.Email,
		MaritalStatus:  req.EstadoCivil,
		Occupation:     req.Profissao,
		ReferralSource: req.ComoConheceu,
		EventType:      req.TipoEvento,
		GroupName:      req.GFResponsavel,
		Address:        req.Endereco,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.Created(w, v)
}

// ListVisitors handles GET /visitantes.
func (h *Handlers) ListVisitors(w http.ResponseWriter, r *http.Request) {
	list, err := h.visitors.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Visitor{}
	}
	httputil.OK(w, list)
}

// UpdateVisitor handles PUT /visitantes/{id}.
func (h *Handlers) UpdateVisitor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateVisitorRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.visitors.Update(r.Context(), id, visitor.UpdateFields{
		Name:    req.Nome,
		Phone:   req.Telefone,
		Email:   req.Email,
		Address: req.Endereco,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.Message(w, "Visitante atualizado com sucesso.")
}

// UpdateVisitorStatus handles PATCH /visitantes/{id}/status.
func (h *Handlers) UpdateVisitorStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	v, err := h.visitors.UpdateStatus(r.Context(), caller(r), id, req.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, statusResponse{Message: "Status do visitante atualizado com sucesso.", Visitante: v})
}

// DeleteVisitor handles DELETE /visitantes/{id}.
func (h *Handlers) DeleteVisitor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.visitors.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	httputil.NoContent(w)
}
