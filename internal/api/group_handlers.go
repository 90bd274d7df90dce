package api

import (
	"net/http"
	"time"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/httputil"
)

type connectionResponse struct {
	Mensagem string    `json:"mensagem"`
	Agora    time.Time `json:"agora"`
}

// ListGroups handles GET /api/gfs.
func (h *Handlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	httputil.OK(w, groups)
}

// TestConnection handles GET /api/testar-conexao.
func (h *Handlers) TestConnection(w http.ResponseWriter, r *http.Request) {
	now, err := h.dbNow(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, connectionResponse{Mensagem: "Conexão com o banco OK", Agora: now})
}
