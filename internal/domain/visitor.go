package domain

import "time"

// VisitorStatus enumerates the follow-up (triage) states of a visitor.
// The stored values are the ones the deployed frontend already uses.
type VisitorStatus string

const (
	StatusPending   VisitorStatus = "pendente"
	StatusContacted VisitorStatus = "entrou em contato"
	StatusBadNumber VisitorStatus = "erro número"
)

// VisitorStatuses lists every valid status, in display order.
var VisitorStatuses = []VisitorStatus{StatusPending, StatusContacted, StatusBadNumber}

// Valid reports whether s is a known status. Any valid status may move to
// any other valid status.
func (s VisitorStatus) Valid() bool {
	for _, v := range VisitorStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// EventType is the kind of event the visitor attended.
type EventType string

const (
	EventGroupMeeting EventType = "gf"
	EventOutreach     EventType = "evangelismo"
	EventService      EventType = "culto"
)

// Valid reports whether e is a known event type.
func (e EventType) Valid() bool {
	switch e {
	case EventGroupMeeting, EventOutreach, EventService:
		return true
	}
	return false
}

// Address is a visitor's postal address. Each address belongs to exactly one
// visitor and is created and deleted with it.
type Address struct {
	ID           int64  `json:"id,omitempty"`
	PostalCode   string `json:"cep"`
	Street       string `json:"logradouro"`
	Number       string `json:"numero"`
	Complement   string `json:"complemento"`
	Neighborhood string `json:"bairro"`
	City         string `json:"cidade"`
	State        string `json:"uf"`
}

// Visitor is a person recorded at intake.
type Visitor struct {
	ID             int64         `json:"id"`
	Name           string        `json:"nome"`
	BirthDate      *string       `json:"data_nascimento"`
	Phone          string        `json:"telefone"`
	Sex            string        `json:"sexo"`
	Email          *string       `json:"email"`
	MaritalStatus  string        `json:"estado_civil"`
	Occupation     string        `json:"profissao"`
	ReferralSource string        `json:"como_conheceu"`
	EventType      EventType     `json:"tipo_evento"`
	AccountID      int64         `json:"usuario_id"`
	GroupID        *int64        `json:"gf_id"`
	AddressID      *int64        `json:"endereco_id"`
	VisitedAt      time.Time     `json:"data_visita"`
	Status         VisitorStatus `json:"status"`

	// Populated by listing queries only.
	GroupName *string  `json:"gf_nome,omitempty"`
	Address   *Address `json:"endereco,omitempty"`
}

// NewVisitor is the write model for one registration: everything the store
// needs to insert the address and visitor rows.
type NewVisitor struct {
	Name           string
	BirthDate      *string
	Phone          string
	Sex            string
	Email          *string
	MaritalStatus  string
	Occupation     string
	ReferralSource string
	EventType      EventType
	AccountID      int64
	GroupID        int64
	Address        Address
}

// DateLayout is the wire and storage layout for birth dates.
const DateLayout = "2006-01-02"
