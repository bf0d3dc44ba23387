package services_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitledger/internal/cache"
	"splitledger/internal/core"
	"splitledger/internal/ledger"
	"splitledger/internal/services"
	"splitledger/internal/storage"
)

// TestLedgerOverSQLite runs the user-facing flow against a real database:
// a shared expense, a partial settlement, then an edit of the expense.
func TestLedgerOverSQLite(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer repo.Close()

	ledgerSvc := services.NewLedgerService(repo, repo, cache.NewLRUCache[ledger.Plan](16, time.Minute))
	users := services.NewUserService(repo)
	groups := services.NewGroupService(repo, repo)
	expenses := services.NewExpenseService(repo, repo, ledgerSvc, nil)
	settlements := services.NewSettlementService(repo, repo, ledgerSvc, nil)

	a, err := users.Register(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)
	b, err := users.Register(ctx, "Bob", "bob@example.com")
	require.NoError(t, err)
	c, err := users.Register(ctx, "Carol", "carol@example.com")
	require.NoError(t, err)

	_, err = users.Register(ctx, "Alice again", "ALICE@example.com")
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	g, err := groups.CreateGroup(ctx, a.ID, "Trip", "")
	require.NoError(t, err)
	for _, id := range []core.UserID{b.ID, c.ID} {
		_, err := groups.AddMember(ctx, a.ID, g.ID, id)
		require.NoError(t, err)
	}

	// Alice pays 90.00 for the three of them
	e, err := expenses.CreateExpense(ctx, a.ID, services.ExpenseInput{
		GroupID:      &g.ID,
		Description:  "Museum",
		Amount:       core.Money{Cents: 9000},
		SplitType:    core.SplitEqual,
		Participants: []core.SplitInput{{UserID: a.ID}, {UserID: b.ID}, {UserID: c.ID}},
	})
	require.NoError(t, err)

	transfers, err := ledgerSvc.GroupSimplifiedDebts(ctx, g.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []core.Transfer{
		{From: b.ID, To: a.ID, Amount: core.Money{Cents: 3000}},
		{From: c.ID, To: a.ID, Amount: core.Money{Cents: 3000}},
	}, transfers)

	// Bob settles; the cached plan must not survive the write
	_, err = settlements.CreateSettlement(ctx, b.ID, services.SettlementInput{
		GroupID: &g.ID, PayeeID: a.ID, Amount: core.Money{Cents: 3000},
	})
	require.NoError(t, err)

	transfers, err = ledgerSvc.GroupSimplifiedDebts(ctx, g.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []core.Transfer{{From: c.ID, To: a.ID, Amount: core.Money{Cents: 3000}}}, transfers)

	balances, err := ledgerSvc.GroupBalances(ctx, g.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Balances{
		b.ID: {a.ID: core.Money{Cents: 0}},
		c.ID: {a.ID: core.Money{Cents: 3000}},
	}, balances)

	// Shrinking the expense leaves Bob overpaid
	_, err = expenses.UpdateExpense(ctx, a.ID, e.ID, services.ExpenseInput{
		Description:  "Museum (discount)",
		Amount:       core.Money{Cents: 6000},
		SplitType:    core.SplitEqual,
		Participants: []core.SplitInput{{UserID: a.ID}, {UserID: b.ID}, {UserID: c.ID}},
	})
	require.NoError(t, err)

	owed, err := ledgerSvc.UserBalances(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, map[core.UserID]core.Money{a.ID: {Cents: 2000}}, owed)

	global, err := ledgerSvc.SimplifiedDebts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Transfer{
		{From: c.ID, To: a.ID, Amount: core.Money{Cents: 1000}},
		{From: c.ID, To: b.ID, Amount: core.Money{Cents: 1000}},
	}, global)

	history, err := settlements.ListGroupSettlements(ctx, c.ID, g.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	require.NoError(t, expenses.DeleteExpense(ctx, a.ID, e.ID))
	transfers, err = ledgerSvc.GroupSimplifiedDebts(ctx, g.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []core.Transfer{{From: a.ID, To: b.ID, Amount: core.Money{Cents: 3000}}}, transfers)
}
