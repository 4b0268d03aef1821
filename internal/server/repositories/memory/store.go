// Package memory is an in-process RepositoryManager. It mimics the relational
// rules of the PostgreSQL schema (foreign keys, unique names, ON DELETE SET
// NULL and cascading user deletes) so services can be exercised without a
// database, and it records the order of bulk deletes for inspection. Foreign
// keys are stricter than the schema's: a row may only reference rows of the
// same owner.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/alerts"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/financialaccounts"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/movementcategories"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/movements"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/parties"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/partycategories"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/partytypes"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/users"
)

type Option func(*Manager)

// WithoutCascade makes user deletion fail while the user still owns rows,
// like a schema declared without ON DELETE CASCADE.
func WithoutCascade() Option {
	return func(m *Manager) { m.noCascade = true }
}

// Manager implements repomanager.RepositoryManager. The DBTX handed to the
// factories is ignored; all repositories share the manager's state.
type Manager struct {
	mu        sync.Mutex
	seq       int64
	noCascade bool

	users  []*models.User
	tokens []*models.RefreshToken

	conti       *table[models.FinancialAccount]
	tipologie   *table[models.PartyType]
	catAnag     *table[models.PartyCategory]
	catMov      *table[models.MovementCategory]
	anagrafiche *table[models.Party]
	movimenti   *table[models.Movement]
	alerts      *table[models.Alert]

	insertFaults map[string]func(row any) error
	deleteFaults map[string]error
	deleteLog    []string
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		insertFaults: map[string]func(any) error{},
		deleteFaults: map[string]error{},
	}
	for _, o := range opts {
		o(m)
	}

	m.conti = &table[models.FinancialAccount]{
		name:  financialaccounts.Table,
		id:    func(r *models.FinancialAccount) *int64 { return &r.ID },
		owner: func(r *models.FinancialAccount) *int64 { return &r.OwnerID },
		key:   func(r *models.FinancialAccount) string { return r.Name },
	}
	m.tipologie = &table[models.PartyType]{
		name:  partytypes.Table,
		id:    func(r *models.PartyType) *int64 { return &r.ID },
		owner: func(r *models.PartyType) *int64 { return &r.OwnerID },
		key:   func(r *models.PartyType) string { return r.Name },
	}
	m.catAnag = &table[models.PartyCategory]{
		name:  partycategories.Table,
		id:    func(r *models.PartyCategory) *int64 { return &r.ID },
		owner: func(r *models.PartyCategory) *int64 { return &r.OwnerID },
		key:   func(r *models.PartyCategory) string { return r.Name },
	}
	m.catMov = &table[models.MovementCategory]{
		name:  movementcategories.Table,
		id:    func(r *models.MovementCategory) *int64 { return &r.ID },
		owner: func(r *models.MovementCategory) *int64 { return &r.OwnerID },
		key:   func(r *models.MovementCategory) string { return r.Name },
	}
	m.anagrafiche = &table[models.Party]{
		name:  parties.Table,
		id:    func(r *models.Party) *int64 { return &r.ID },
		owner: func(r *models.Party) *int64 { return &r.OwnerID },
		check: func(r *models.Party) error {
			if r.TypeID != nil && !m.tipologie.ownedBy(*r.TypeID, r.OwnerID) {
				return fkError(parties.Table, "tipologia_id")
			}
			return nil
		},
	}
	m.movimenti = &table[models.Movement]{
		name:  movements.Table,
		id:    func(r *models.Movement) *int64 { return &r.ID },
		owner: func(r *models.Movement) *int64 { return &r.OwnerID },
		check: func(r *models.Movement) error {
			if !m.conti.ownedBy(r.AccountID, r.OwnerID) {
				return fkError(movements.Table, "conto_id")
			}
			if r.PartyID != nil && !m.anagrafiche.ownedBy(*r.PartyID, r.OwnerID) {
				return fkError(movements.Table, "anagrafica_id")
			}
			return nil
		},
		less: func(a, b *models.Movement) bool {
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			return a.ID < b.ID
		},
	}
	m.alerts = &table[models.Alert]{
		name:  alerts.Table,
		id:    func(r *models.Alert) *int64 { return &r.ID },
		owner: func(r *models.Alert) *int64 { return &r.OwnerID },
	}

	// ON DELETE SET NULL
	m.tipologie.beforeDelete = func(ids map[int64]bool) error {
		for _, p := range m.anagrafiche.rows {
			if p.TypeID != nil && ids[*p.TypeID] {
				p.TypeID = nil
			}
		}
		return nil
	}
	m.anagrafiche.beforeDelete = func(ids map[int64]bool) error {
		for _, mv := range m.movimenti.rows {
			if mv.PartyID != nil && ids[*mv.PartyID] {
				mv.PartyID = nil
			}
		}
		return nil
	}
	// movimenti.conto_id has no ON DELETE action.
	m.conti.beforeDelete = func(ids map[int64]bool) error {
		for _, mv := range m.movimenti.rows {
			if ids[mv.AccountID] {
				return fmt.Errorf("%w: update or delete on table %q violates foreign key constraint on table %q",
					common.ErrConstraintViolation, financialaccounts.Table, movements.Table)
			}
		}
		return nil
	}

	return m
}

func fkError(table, column string) error {
	return fmt.Errorf("%w: insert or update on table %q violates foreign key constraint on %s",
		common.ErrConstraintViolation, table, column)
}

// FailInserts makes every Insert into table call fn first; a non-nil result
// is returned as the insert error.
func (m *Manager) FailInserts(table string, fn func(row any) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertFaults[table] = fn
}

// FailDeleteAll makes DeleteAll on table return err.
func (m *Manager) FailDeleteAll(table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteFaults[table] = err
}

// DeleteLog lists the tables DeleteAll succeeded on, in call order.
func (m *Manager) DeleteLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.deleteLog)
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) CascadeDeletes() bool { return !m.noCascade }

func (m *Manager) Users(dbx.DBTX) users.Repository { return &userRepo{m: m} }

func (m *Manager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return &tokenRepo{m: m} }

func (m *Manager) FinancialAccounts(dbx.DBTX) financialaccounts.Repository {
	return &repo[models.FinancialAccount]{m: m, t: m.conti}
}

func (m *Manager) PartyTypes(dbx.DBTX) partytypes.Repository {
	return &repo[models.PartyType]{m: m, t: m.tipologie}
}

func (m *Manager) PartyCategories(dbx.DBTX) partycategories.Repository {
	return &repo[models.PartyCategory]{m: m, t: m.catAnag}
}

func (m *Manager) MovementCategories(dbx.DBTX) movementcategories.Repository {
	return &repo[models.MovementCategory]{m: m, t: m.catMov}
}

func (m *Manager) Parties(dbx.DBTX) parties.Repository {
	return &repo[models.Party]{m: m, t: m.anagrafiche}
}

func (m *Manager) Movements(dbx.DBTX) movements.Repository {
	return &repo[models.Movement]{m: m, t: m.movimenti}
}

func (m *Manager) Alerts(dbx.DBTX) alerts.Repository {
	return &repo[models.Alert]{m: m, t: m.alerts}
}

func (m *Manager) nextID() int64 {
	m.seq++
	return m.seq
}

func (m *Manager) userExists(id int64) bool {
	return slices.ContainsFunc(m.users, func(u *models.User) bool { return u.ID == id })
}

// ownsRows reports whether any owned table still has rows of ownerID.
func (m *Manager) ownsRows(ownerID int64) bool {
	return m.conti.countOwner(ownerID) > 0 ||
		m.tipologie.countOwner(ownerID) > 0 ||
		m.catAnag.countOwner(ownerID) > 0 ||
		m.catMov.countOwner(ownerID) > 0 ||
		m.anagrafiche.countOwner(ownerID) > 0 ||
		m.movimenti.countOwner(ownerID) > 0 ||
		m.alerts.countOwner(ownerID) > 0
}

func (m *Manager) cascade(ownerID int64) {
	m.movimenti.dropOwner(ownerID)
	m.anagrafiche.dropOwner(ownerID)
	m.catMov.dropOwner(ownerID)
	m.catAnag.dropOwner(ownerID)
	m.tipologie.dropOwner(ownerID)
	m.conti.dropOwner(ownerID)
	m.alerts.dropOwner(ownerID)
	m.tokens = slices.DeleteFunc(m.tokens, func(t *models.RefreshToken) bool { return t.UserID == ownerID })
}

type userRepo struct{ m *Manager }

func (r *userRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, u := range r.m.users {
		if u.Username == user.Username {
			return nil, fmt.Errorf("%w: duplicate key value violates unique constraint \"users_username_key\"", common.ErrConstraintViolation)
		}
	}
	now := time.Now().UTC()
	user.ID = r.m.nextID()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	r.m.users = append(r.m.users, &cp)
	return user, nil
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *userRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *userRepo) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if !r.m.userExists(id) {
		return common.ErrorNotFound
	}
	if r.m.noCascade && r.m.ownsRows(id) {
		return fmt.Errorf("%w: update or delete on table \"users\" violates foreign key constraint", common.ErrConstraintViolation)
	}
	r.m.cascade(id)
	r.m.users = slices.DeleteFunc(r.m.users, func(u *models.User) bool { return u.ID == id })
	r.m.deleteLog = append(r.m.deleteLog, "users")
	return nil
}

type tokenRepo struct{ m *Manager }

func (r *tokenRepo) Create(_ context.Context, userID int64, token string, validity time.Duration) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if !r.m.userExists(userID) {
		return fkError("refresh_tokens", "user_id")
	}
	now := time.Now()
	r.m.tokens = append(r.m.tokens, &models.RefreshToken{
		ID: fmt.Sprint(r.m.nextID()), UserID: userID, Token: token, Expires: now.Add(validity), CreatedAt: now,
	})
	return nil
}

func (r *tokenRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, t := range r.m.tokens {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *tokenRepo) Delete(_ context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.tokens = slices.DeleteFunc(r.m.tokens, func(t *models.RefreshToken) bool { return t.Token == token })
	return nil
}

func (r *tokenRepo) DeleteForUser(_ context.Context, userID int64) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	before := len(r.m.tokens)
	r.m.tokens = slices.DeleteFunc(r.m.tokens, func(t *models.RefreshToken) bool { return t.UserID == userID })
	return int64(before - len(r.m.tokens)), nil
}
