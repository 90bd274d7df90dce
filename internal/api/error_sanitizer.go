package api

import (
	"errors"
	"net/http"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/auth"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/photos"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/httputil"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/logger"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/account"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/visitor"
)

// respondError maps a service error to its HTTP status and reason code.
// Internal errors are logged in full and answered with a generic message;
// only group resolution failures carry details to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.BadRequest(w, verr.Error())
	case errors.Is(err, visitor.ErrInvalidStatus):
		httputil.Error(w, http.StatusBadRequest, "invalid_status", "Valor de status inválido.")
	case errors.Is(err, photos.ErrTooLarge), errors.Is(err, photos.ErrUnsupported):
		httputil.BadRequest(w, err.Error())

	case errors.Is(err, auth.ErrInvalidCredentials):
		httputil.Unauthorized(w, "invalid_credentials", "Credenciais inválidas.")
	case errors.Is(err, auth.ErrMissingToken):
		httputil.Unauthorized(w, "missing_token", "Acesso negado. Token não fornecido.")
	case errors.Is(err, auth.ErrInvalidToken):
		httputil.Unauthorized(w, "invalid_token", "Token inválido ou expirado.")
	case errors.Is(err, auth.ErrForbidden):
		httputil.Forbidden(w, "Acesso negado. Apenas administradores podem realizar esta ação.")

	case errors.Is(err, visitor.ErrNotFound):
		httputil.NotFound(w, "Visitante não encontrado.")
	case errors.Is(err, account.ErrNotFound):
		httputil.NotFound(w, "Usuário não encontrado.")
	case errors.Is(err, account.ErrEmailTaken):
		httputil.Error(w, http.StatusConflict, "conflict", "Este email já está cadastrado.")
	case errors.Is(err, account.ErrInUse):
		httputil.Error(w, http.StatusConflict, "conflict", "Usuário possui visitantes cadastrados e não pode ser removido.")

	case errors.Is(err, visitor.ErrGroupNotFound):
		logger.Warn("registration aborted", "path", r.URL.Path, "err", err)
		httputil.ErrorWithDetails(w, http.StatusInternalServerError, "group_not_found",
			"Erro interno ao cadastrar visitante.", err.Error())
	case errors.Is(err, visitor.ErrGroupAmbiguous):
		logger.Warn("registration aborted", "path", r.URL.Path, "err", err)
		httputil.ErrorWithDetails(w, http.StatusInternalServerError, "group_ambiguous",
			"Erro interno ao cadastrar visitante.", err.Error())

	default:
		httputil.InternalError(w, r, err)
	}
}
