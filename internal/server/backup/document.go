// Package backup exports an account's ledger into a self-describing JSON
// document and restores such documents into an account, remapping every
// identifier on the way.
package backup

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
)

const (
	FormatVersion = "1.0"
	ProductFamily = "Bookkeeper"
	ProductTag    = ProductFamily + " Backup"
	ContentFormat = "JSON"
)

type Metadata struct {
	ExportDate time.Time `json:"export_date"`
	AccountID  int64     `json:"account_id"`
	Version    string    `json:"version"`
	ProductTag string    `json:"product_tag"`
	Format     string    `json:"format"`
}

// AccountInfo is the public part of the exporting user.
type AccountInfo struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func accountInfo(u *models.User) *AccountInfo {
	return &AccountInfo{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Document is a point-in-time snapshot of one account.
type Document struct {
	Metadata *Metadata    `json:"metadata"`
	Account  *AccountInfo `json:"account"`

	FinancialAccounts  []*models.FinancialAccount `json:"financial_accounts"`
	PartyTypes         []*models.PartyType        `json:"party_types"`
	PartyCategories    []*models.PartyCategory    `json:"party_categories"`
	MovementCategories []*models.MovementCategory `json:"movement_categories"`
	Parties            []*models.Party            `json:"parties"`
	Movements          []*models.Movement         `json:"movements"`
	Alerts             []*models.Alert            `json:"alerts"`
}

// Len returns the number of rows the document holds for c.
func (d *Document) Len(c Collection) int {
	switch c {
	case FinancialAccounts:
		return len(d.FinancialAccounts)
	case PartyTypes:
		return len(d.PartyTypes)
	case PartyCategories:
		return len(d.PartyCategories)
	case MovementCategories:
		return len(d.MovementCategories)
	case Parties:
		return len(d.Parties)
	case Movements:
		return len(d.Movements)
	case Alerts:
		return len(d.Alerts)
	}
	return 0
}

// Marshal renders the document the way it is stored and transmitted.
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
