package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bookkeeper/internal/cryptox"
	"github.com/dmitrijs2005/bookkeeper/internal/server/config"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
}

func createUser(t *testing.T, m *memory.Manager, name, password string) int64 {
	t.Helper()
	salt, hash := cryptox.HashPassword(password)
	u, err := m.Users(nil).Create(context.Background(), &models.User{
		Username: name, Email: name + "@example.com", PasswordSalt: salt, PasswordHash: hash,
	})
	require.NoError(t, err)
	return u.ID
}

// seedLedger gives owner two accounts, one typed party and two movements.
func seedLedger(t *testing.T, m *memory.Manager, owner int64) {
	t.Helper()
	ctx := context.Background()

	cassa, err := m.FinancialAccounts(nil).Insert(ctx, owner, &models.FinancialAccount{Name: "Cassa"})
	require.NoError(t, err)
	_, err = m.FinancialAccounts(nil).Insert(ctx, owner, &models.FinancialAccount{Name: "Banca"})
	require.NoError(t, err)
	typ, err := m.PartyTypes(nil).Insert(ctx, owner, &models.PartyType{Name: "Fornitore"})
	require.NoError(t, err)
	acme, err := m.Parties(nil).Insert(ctx, owner, &models.Party{Name: "ACME", TypeID: &typ})
	require.NoError(t, err)

	for _, mv := range []*models.Movement{
		{Date: fixedNow, AccountID: cassa, PartyID: &acme, Description: "Rent", Amount: decimal.NewFromInt(850), Kind: models.KindDebit},
		{Date: fixedNow, AccountID: cassa, Description: "Spesa", Amount: decimal.NewFromInt(20), Kind: models.KindDebit},
	} {
		_, err := m.Movements(nil).Insert(ctx, owner, mv)
		require.NoError(t, err)
	}
	_, err = m.Alerts(nil).Insert(ctx, owner, &models.Alert{Title: "Benvenuto", CreatedAt: fixedNow})
	require.NoError(t, err)
}
