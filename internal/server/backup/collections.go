package backup

import (
	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/repomanager"
)

// handlers binds every collection of the graph to its repository.
func handlers(db dbx.DBTX, repos repomanager.RepositoryManager) map[Collection]handler {
	return map[Collection]handler{
		FinancialAccounts: &collection[models.FinancialAccount]{
			name:   FinancialAccounts,
			entity: "FinancialAccount",
			repo:   repos.FinancialAccounts(db),
			rows:   func(d *Document) *[]*models.FinancialAccount { return &d.FinancialAccounts },
			id:     func(a *models.FinancialAccount) int64 { return a.ID },
			label:  func(a *models.FinancialAccount) string { return a.Name },
		},
		PartyTypes: &collection[models.PartyType]{
			name:   PartyTypes,
			entity: "PartyType",
			repo:   repos.PartyTypes(db),
			rows:   func(d *Document) *[]*models.PartyType { return &d.PartyTypes },
			id:     func(t *models.PartyType) int64 { return t.ID },
			label:  func(t *models.PartyType) string { return t.Name },
		},
		PartyCategories: &collection[models.PartyCategory]{
			name:   PartyCategories,
			entity: "PartyCategory",
			repo:   repos.PartyCategories(db),
			rows:   func(d *Document) *[]*models.PartyCategory { return &d.PartyCategories },
			id:     func(c *models.PartyCategory) int64 { return c.ID },
			label:  func(c *models.PartyCategory) string { return c.Name },
		},
		MovementCategories: &collection[models.MovementCategory]{
			name:   MovementCategories,
			entity: "MovementCategory",
			repo:   repos.MovementCategories(db),
			rows:   func(d *Document) *[]*models.MovementCategory { return &d.MovementCategories },
			id:     func(c *models.MovementCategory) int64 { return c.ID },
			label:  func(c *models.MovementCategory) string { return c.Name },
		},
		Parties: &collection[models.Party]{
			name:   Parties,
			entity: "Party",
			repo:   repos.Parties(db),
			rows:   func(d *Document) *[]*models.Party { return &d.Parties },
			id:     func(p *models.Party) int64 { return p.ID },
			label:  func(p *models.Party) string { return p.Name },
			remap: func(r *run, p *models.Party) (*models.Party, error) {
				cp := *p
				cp.TypeID = r.maps[PartyTypes].Optional(p.TypeID)
				return &cp, nil
			},
		},
		Movements: &collection[models.Movement]{
			name:   Movements,
			entity: "Movement",
			repo:   repos.Movements(db),
			rows:   func(d *Document) *[]*models.Movement { return &d.Movements },
			id:     func(m *models.Movement) int64 { return m.ID },
			label:  func(m *models.Movement) string { return m.Description },
			remap: func(r *run, m *models.Movement) (*models.Movement, error) {
				accountID, ok := r.maps[FinancialAccounts].Lookup(m.AccountID)
				if !ok {
					return nil, missing("account")
				}
				cp := *m
				cp.AccountID = accountID
				cp.PartyID = r.maps[Parties].Optional(m.PartyID)
				return &cp, nil
			},
		},
		Alerts: &collection[models.Alert]{
			name:   Alerts,
			entity: "Alert",
			repo:   repos.Alerts(db),
			rows:   func(d *Document) *[]*models.Alert { return &d.Alerts },
			id:     func(a *models.Alert) int64 { return a.ID },
			label:  func(a *models.Alert) string { return a.Title },
		},
	}
}
