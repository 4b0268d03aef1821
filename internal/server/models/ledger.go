// Package models defines server-side data models persisted in the database.
//
// The json tags double as the field names of the backup document, and the
// validate tags are checked on every row restored from a document. They
// mirror the CHECK constraints of the schema and nothing stricter, so every
// row the store holds survives an export and re-import.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement and party kinds.
const (
	KindCredit = "credit"
	KindDebit  = "debit"
)

// FinancialAccount is a bank account, cash box or card ("conto").
type FinancialAccount struct {
	ID             int64           `json:"id"`
	OwnerID        int64           `json:"-"`
	Name           string          `json:"name"`
	Holder         string          `json:"holder"`
	ExternalRef    string          `json:"external_ref"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Active         bool            `json:"active"`
}

// PartyType groups parties ("tipologia") and suggests a default kind for
// their movements.
type PartyType struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DefaultKind string `json:"default_kind" validate:"omitempty,oneof=credit debit"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Active      bool   `json:"active"`
}

type PartyCategory struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Active      bool   `json:"active"`
}

type MovementCategory struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"-"`
	Name        string `json:"name"`
	Kind        string `json:"kind" validate:"omitempty,oneof=credit debit"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Active      bool   `json:"active"`
}

// Party is a counterparty ("anagrafica"). TypeID is optional.
type Party struct {
	ID            int64  `json:"id"`
	OwnerID       int64  `json:"-"`
	Name          string `json:"name"`
	TypeID        *int64 `json:"type_id"`
	PreferredKind string `json:"preferred_kind" validate:"omitempty,oneof=credit debit"`
	Category      string `json:"category"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	TaxID         string `json:"tax_id"`
	Address       string `json:"address"`
	Active        bool   `json:"active"`
}

// Movement is a single ledger entry ("movimento"). AccountID is mandatory,
// PartyID is not.
type Movement struct {
	ID          int64           `json:"id"`
	OwnerID     int64           `json:"-"`
	Date        time.Time       `json:"date"`
	PartyID     *int64          `json:"party_id"`
	AccountID   int64           `json:"account_id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind" validate:"required,oneof=credit debit"`
	Note        string          `json:"note"`
}

// Signed returns the amount with the sign implied by Kind.
func (m *Movement) Signed() decimal.Decimal {
	if m.Kind == KindDebit {
		return m.Amount.Neg()
	}
	return m.Amount
}

type Alert struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"-"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Kind        string     `json:"kind"`
	Priority    string     `json:"priority"`
	Read        bool       `json:"read"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at"`
	ActionLink  string     `json:"action_link"`
	ActionLabel string     `json:"action_label"`
}
