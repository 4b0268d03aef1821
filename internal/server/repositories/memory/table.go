package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
)

type table[T any] struct {
	name  string
	rows  []*T
	id    func(*T) *int64
	owner func(*T) *int64

	// key, when set, must be unique per owner.
	key func(*T) string

	// check validates outgoing references of a row about to be stored.
	check func(*T) error

	// beforeDelete applies the referential actions of dependent tables.
	beforeDelete func(ids map[int64]bool) error

	less func(a, b *T) bool
}

// ownedBy reports whether row id exists and belongs to ownerID.
func (t *table[T]) ownedBy(id, ownerID int64) bool {
	return slices.ContainsFunc(t.rows, func(r *T) bool { return *t.id(r) == id && *t.owner(r) == ownerID })
}

func (t *table[T]) countOwner(ownerID int64) int {
	n := 0
	for _, r := range t.rows {
		if *t.owner(r) == ownerID {
			n++
		}
	}
	return n
}

func (t *table[T]) dropOwner(ownerID int64) int64 {
	before := len(t.rows)
	t.rows = slices.DeleteFunc(t.rows, func(r *T) bool { return *t.owner(r) == ownerID })
	return int64(before - len(t.rows))
}

type repo[T any] struct {
	m *Manager
	t *table[T]
}

func (r *repo[T]) Insert(_ context.Context, ownerID int64, row *T) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if fault := r.m.insertFaults[r.t.name]; fault != nil {
		if err := fault(row); err != nil {
			return 0, err
		}
	}
	if !r.m.userExists(ownerID) {
		return 0, fkError(r.t.name, "owner_id")
	}

	cp := *row
	*r.t.owner(&cp) = ownerID

	if r.t.key != nil {
		k := r.t.key(&cp)
		for _, existing := range r.t.rows {
			if *r.t.owner(existing) == ownerID && r.t.key(existing) == k {
				return 0, fmt.Errorf("%w: duplicate key value violates unique constraint \"%s_owner_id_name_key\"",
					common.ErrConstraintViolation, r.t.name)
			}
		}
	}
	if r.t.check != nil {
		if err := r.t.check(&cp); err != nil {
			return 0, err
		}
	}

	id := r.m.nextID()
	*r.t.id(&cp) = id
	r.t.rows = append(r.t.rows, &cp)
	return id, nil
}

func (r *repo[T]) FetchAll(_ context.Context, ownerID int64) ([]*T, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	out := make([]*T, 0)
	for _, row := range r.t.rows {
		if *r.t.owner(row) == ownerID {
			cp := *row
			out = append(out, &cp)
		}
	}
	if r.t.less != nil {
		slices.SortStableFunc(out, func(a, b *T) int {
			switch {
			case r.t.less(a, b):
				return -1
			case r.t.less(b, a):
				return 1
			}
			return 0
		})
	}
	return out, nil
}

func (r *repo[T]) DeleteAll(_ context.Context, ownerID int64) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if err := r.m.deleteFaults[r.t.name]; err != nil {
		return 0, err
	}

	ids := map[int64]bool{}
	for _, row := range r.t.rows {
		if *r.t.owner(row) == ownerID {
			ids[*r.t.id(row)] = true
		}
	}
	if r.t.beforeDelete != nil {
		if err := r.t.beforeDelete(ids); err != nil {
			return 0, err
		}
	}

	n := r.t.dropOwner(ownerID)
	r.m.deleteLog = append(r.m.deleteLog, r.t.name)
	return n, nil
}

func (r *repo[T]) Count(_ context.Context, ownerID int64) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(r.t.countOwner(ownerID)), nil
}
