package api

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/account"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/visitor"
)

// memVisitors is an in-memory visitor repository.
type memVisitors struct {
	mu       sync.Mutex
	nextID   int64
	visitors map[int64]*domain.Visitor
	creates  int
}

func newMemVisitors() *memVisitors {
	return &memVisitors{visitors: make(map[int64]*domain.Visitor)}
}

func (m *memVisitors) Create(_ context.Context, nv domain.NewVisitor) (*domain.Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	m.nextID++
	addr := nv.Address
	addr.ID = m.nextID
	groupID := nv.GroupID
	v := &domain.Visitor{
		ID:        m.nextID,
		Name:      nv.Name,
		BirthDate: nv.BirthDate,
		Phone:     nv.Phone,
		Email:     nv.Email,
		EventType: nv.EventType,
		AccountID: nv.AccountID,
		GroupID:   &groupID,
		AddressID: &addr.ID,
		VisitedAt: time.Now(),
		Status:    domain.StatusPending,
		Address:   &addr,
	}
	m.visitors[v.ID] = v
	cp := *v
	return &cp, nil
}

func (m *memVisitors) List(_ context.Context) ([]domain.Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Visitor, 0, len(m.visitors))
	for _, v := range m.visitors {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memVisitors) Update(_ context.Context, id int64, u visitor.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visitors[id]
	if !ok {
		return visitor.ErrNotFound
	}
	if u.Name != nil {
		v.Name = *u.Name
	}
	if u.Phone != nil {
		v.Phone = *u.Phone
	}
	return nil
}

func (m *memVisitors) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visitors[id]; !ok {
		return visitor.ErrNotFound
	}
	delete(m.visitors, id)
	return nil
}

func (m *memVisitors) UpdateStatus(_ context.Context, id int64, st domain.VisitorStatus) (*domain.Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visitors[id]
	if !ok {
		return nil, visitor.ErrNotFound
	}
	v.Status = st
	cp := *v
	return &cp, nil
}

func (m *memVisitors) createCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates
}

// fakeGroups resolves names case-insensitively over a fixed list.
type fakeGroups []domain.Group

func (g fakeGroups) FindByName(_ context.Context, name string) (*domain.Group, error) {
	var found []domain.Group
	for _, grp := range g {
		if strings.EqualFold(grp.Name, name) {
			found = append(found, grp)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: GF com o nome '%s' não encontrado", visitor.ErrGroupNotFound, name)
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("%w: '%s'", visitor.ErrGroupAmbiguous, name)
	}
}

func (g fakeGroups) List(_ context.Context) ([]domain.Group, error) {
	out := append([]domain.Group(nil), g...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// memAccounts is an in-memory account repository.
type memAccounts struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*domain.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{accounts: make(map[int64]*domain.Account)}
}

func (m *memAccounts) List(_ context.Context) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memAccounts) Get(_ context.Context, id int64) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, account.ErrNotFound
}

func (m *memAccounts) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Email == a.Email {
			return nil, account.ErrEmailTaken
		}
	}
	m.nextID++
	cp := *a
	cp.ID = m.nextID
	m.accounts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memAccounts) Update(_ context.Context, id int64, u account.UpdateFields) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Email != nil {
		a.Email = *u.Email
	}
	if u.PasswordHash != nil {
		a.PasswordHash = *u.PasswordHash
	}
	if u.Role != nil {
		a.Role = *u.Role
	}
	if u.Logo != nil {
		a.Logo = u.Logo
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return account.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}
