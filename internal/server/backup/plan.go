package backup

import (
	"errors"
	"fmt"
	"slices"
)

// Collection names one entity collection; the value is also its key in the
// backup document.
type Collection string

const (
	FinancialAccounts  Collection = "financial_accounts"
	PartyTypes         Collection = "party_types"
	PartyCategories    Collection = "party_categories"
	MovementCategories Collection = "movement_categories"
	Parties            Collection = "parties"
	Movements          Collection = "movements"
	Alerts             Collection = "alerts"
)

var ErrDependencyCycle = errors.New("collection references form a cycle")

// Node declares a collection and the collections its rows reference.
// BestEffort collections never fail a run.
type Node struct {
	Name       Collection
	Refs       []Collection
	BestEffort bool
}

// graph is the reference graph of an account. Declaration order breaks ties
// between collections that become ready at the same time.
var graph = []Node{
	{Name: FinancialAccounts},
	{Name: PartyTypes},
	{Name: PartyCategories},
	{Name: MovementCategories},
	{Name: Parties, Refs: []Collection{PartyTypes}},
	{Name: Movements, Refs: []Collection{Parties, FinancialAccounts}},
	{Name: Alerts, BestEffort: true},
}

// Plan is the resolved processing order of a graph.
type Plan struct {
	// Insert lists collections so that every referenced collection precedes
	// the collections referencing it.
	Insert []Collection

	// Purge deletes dependents before their parents; best-effort
	// collections come last.
	Purge []Collection

	// Referenced is the set of collections that need an identifier map.
	Referenced map[Collection]bool

	bestEffort map[Collection]bool
}

func (p *Plan) BestEffort(c Collection) bool { return p.bestEffort[c] }

// NewPlan topologically sorts nodes.
func NewPlan(nodes []Node) (*Plan, error) {
	known := make(map[Collection]bool, len(nodes))
	for _, n := range nodes {
		if known[n.Name] {
			return nil, fmt.Errorf("collection %q declared twice", n.Name)
		}
		known[n.Name] = true
	}

	p := &Plan{Referenced: map[Collection]bool{}, bestEffort: map[Collection]bool{}}
	for _, n := range nodes {
		for _, ref := range n.Refs {
			if !known[ref] {
				return nil, fmt.Errorf("collection %q references undeclared %q", n.Name, ref)
			}
			p.Referenced[ref] = true
		}
		if n.BestEffort {
			p.bestEffort[n.Name] = true
		}
	}

	placed := make(map[Collection]bool, len(nodes))
	for len(p.Insert) < len(nodes) {
		progressed := false
		for _, n := range nodes {
			if placed[n.Name] || !allPlaced(n.Refs, placed) {
				continue
			}
			placed[n.Name] = true
			p.Insert = append(p.Insert, n.Name)
			progressed = true
			break
		}
		if !progressed {
			return nil, ErrDependencyCycle
		}
	}

	for _, c := range slices.Backward(p.Insert) {
		if !p.bestEffort[c] {
			p.Purge = append(p.Purge, c)
		}
	}
	for _, c := range p.Insert {
		if p.bestEffort[c] {
			p.Purge = append(p.Purge, c)
		}
	}

	return p, nil
}

func allPlaced(refs []Collection, placed map[Collection]bool) bool {
	for _, r := range refs {
		if !placed[r] {
			return false
		}
	}
	return true
}

func mustPlan(nodes []Node) *Plan {
	p, err := NewPlan(nodes)
	if err != nil {
		panic(err)
	}
	return p
}

// DefaultPlan is the plan of the account graph.
var DefaultPlan = mustPlan(graph)
