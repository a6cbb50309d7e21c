package pgsql

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
	"github.com/ledgerpipe/ledgerpipe/internal/models"
)

type execCall struct {
	sql  string
	args []any
}

// fakeQuerier records Exec calls and serves a fixed account row, standing in
// for the pool in paths that do not need a live database.
type fakeQuerier struct {
	execs   []execCall
	account models.Account
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	if strings.Contains(sql, "INSERT INTO accounts") {
		// Simulate the ON CONFLICT DO NOTHING path: the row already exists.
		return pgconn.NewCommandTag("INSERT 0 0"), nil
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeQuerier) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (f *fakeQuerier) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return accountRow{m: f.account}
}

type accountRow struct {
	m models.Account
}

func (r accountRow) Scan(dest ...any) error {
	*dest[0].(*string) = r.m.AccountID
	*dest[1].(*string) = r.m.OrganizationID
	*dest[2].(*sql.NullString) = r.m.Environment
	*dest[3].(*string) = r.m.ExternalAccountID
	*dest[4].(*string) = r.m.CurrencyCode
	*dest[5].(*bool) = r.m.AllowNegative
	*dest[6].(*time.Time) = r.m.CreatedAt
	return nil
}

// A crash between the account insert and the balance insert must not leave the
// account permanently without a balance row: the next EnsureAccount call for
// the same tuple re-issues the balance insert against the stored row's id.
func TestEnsureAccount_RepeatBackfillsBalanceRow(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db := &fakeQuerier{account: models.Account{
		AccountID:         "acc-winner",
		OrganizationID:    "org-1",
		ExternalAccountID: "alice",
		CurrencyCode:      "USD",
		CreatedAt:         created,
	}}
	repo := &PgxAccountRepository{pool: db}

	got, err := repo.EnsureAccount(context.Background(), domain.Account{
		AccountID:         "acc-loser",
		OrganizationID:    "org-1",
		Environment:       domain.EnvironmentLegacy,
		ExternalAccountID: "alice",
		CurrencyCode:      "USD",
		CreatedAt:         time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, "acc-winner", got.AccountID)

	require.Len(t, db.execs, 2)
	assert.Contains(t, db.execs[0].sql, "INSERT INTO accounts")

	balanceInsert := db.execs[1]
	assert.Contains(t, balanceInsert.sql, "INSERT INTO balances")
	assert.Equal(t, "acc-winner", balanceInsert.args[0])
	assert.Equal(t, "USD", balanceInsert.args[1])
}
