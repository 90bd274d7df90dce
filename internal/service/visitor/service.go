package visitor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/auth"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/logger"
)

// notifyTimeout bounds the post-commit hook.
const notifyTimeout = 5 * time.Second

// Service implements visitor business logic. All public methods are safe for
// concurrent use if the repository and notifier are.
type Service struct {
	repo     Repository
	groups   GroupDirectory
	notifier Notifier
}

// NewService creates a visitor service. notifier may be nil.
func NewService(repo Repository, groups GroupDirectory, notifier Notifier) *Service {
	return &Service{repo: repo, groups: groups, notifier: notifier}
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name           string
	BirthDate      string
	Phone          string
	Sex            string
	Email          string
	MaritalStatus  string
	Occupation     string
	ReferralSource string
	EventType      string
	GroupName      string
	Address        *domain.Address
}

// Register validates the input, resolves the group, persists the address
// and visitor atomically and then fires the post-commit notification.
func (s *Service) Register(ctx context.Context, caller domain.Identity, in RegisterInput) (*domain.Visitor, error) {
	nv, err := validateRegistration(in)
	if err != nil {
		return nil, err
	}
	nv.AccountID = caller.ID

	group, err := s.groups.FindByName(ctx, nv.groupName)
	if err != nil {
		return nil, err
	}
	nv.GroupID = group.ID

	v, err := s.repo.Create(ctx, nv.NewVisitor)
	if err != nil {
		return nil, err
	}

	logger.Info("visitor registered", "visitor_id", v.ID, "account_id", caller.ID, "gf_id", group.ID)
	s.afterCommit(ctx, "Novo visitante cadastrado: "+v.Name)
	return v, nil
}

// afterCommit runs the notifier detached from request cancellation. Its
// failure is logged only.
func (s *Service) afterCommit(ctx context.Context, message string) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(nctx, message); err != nil {
		logger.Warn("registration notification failed", "err", err)
	}
}

type validated struct {
	domain.NewVisitor
	groupName string
}

func validateRegistration(in RegisterInput) (validated, error) {
	var out validated
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	group := strings.TrimSpace(in.GroupName)
	switch {
	case name == "":
		return out, domain.Invalid("nome", "obrigatório")
	case phone == "":
		return out, domain.Invalid("telefone", "obrigatório")
	case group == "":
		return out, domain.Invalid("gf_responsavel", "obrigatório")
	case in.Address == nil:
		return out, domain.Invalid("endereco", "obrigatório")
	}
	event := domain.EventType(strings.ToLower(strings.TrimSpace(in.EventType)))
	if event == "" {
		return out, domain.Invalid("tipo_evento", "obrigatório")
	}
	if !event.Valid() {
		return out, domain.Invalid("tipo_evento", "use 'gf', 'evangelismo' ou 'culto'")
	}

	var birth *string
	if b := strings.TrimSpace(in.BirthDate); b != "" {
		if _, err := time.Parse(domain.DateLayout, b); err != nil {
			return out, domain.Invalid("data_nascimento", "use o formato AAAA-MM-DD")
		}
		birth = &b
	}
	var email *string
	if e := strings.TrimSpace(in.Email); e != "" {
		email = &e
	}

	out.NewVisitor = domain.NewVisitor{
		Name:           name,
		BirthDate:      birth,
		Phone:          phone,
		Sex:            strings.TrimSpace(in.Sex),
		Email:          email,
		MaritalStatus:  strings.TrimSpace(in.MaritalStatus),
		Occupation:     strings.TrimSpace(in.Occupation),
		ReferralSource: strings.TrimSpace(in.ReferralSource),
		EventType:      event,
		Address:        *in.Address,
	}
	out.groupName = group
	return out, nil
}

// List returns all visitors, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Visitor, error) {
	return s.repo.List(ctx)
}

// Update applies a partial update to a visitor's core and address fields.
func (s *Service) Update(ctx context.Context, id int64, u UpdateFields) error {
	if u.Empty() {
		return domain.Invalid("", "nenhum campo fornecido para atualização")
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return domain.Invalid("nome", "não pode ser vazio")
	}
	if u.Phone != nil && strings.TrimSpace(*u.Phone) == "" {
		return domain.Invalid("telefone", "não pode ser vazio")
	}
	if u.Email != nil {
		e := strings.TrimSpace(*u.Email)
		if e == "" {
			u.Email, u.ClearEmail = nil, true
		} else {
			u.Email = &e
		}
	}
	return s.repo.Update(ctx, id, u)
}

// Delete removes a visitor and its address.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// UpdateStatus moves a visitor to another follow-up status. Only admins may
// do so; any valid status may follow any other.
func (s *Service) UpdateStatus(ctx context.Context, caller domain.Identity, id int64, status string) (*domain.Visitor, error) {
	if err := auth.Authorize(caller, domain.RoleAdmin); err != nil {
		return nil, err
	}
	st := domain.VisitorStatus(status)
	if !st.Valid() {
		return nil, ErrInvalidStatus
	}
	v, err := s.repo.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, err
	}
	logger.Info("visitor status changed", "visitor_id", id, "status", st, "account_id", caller.ID)
	return v, nil
}

// IsGroupResolution reports whether err is a group lookup failure.
func IsGroupResolution(err error) bool {
	return errors.Is(err, ErrGroupNotFound) || errors.Is(err, ErrGroupAmbiguous)
}
