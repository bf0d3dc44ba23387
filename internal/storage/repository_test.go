package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitledger/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	// Deterministic, strictly increasing clock
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return repo
}

func mustUser(t *testing.T, r *SQLiteRepository, name string) core.User {
	t.Helper()
	u, err := r.CreateUser(context.Background(), core.User{Name: name, Email: name + "@example.com"})
	require.NoError(t, err)
	return u
}

func groupRef(id core.GroupID) *core.GroupID { return &id }

func TestUsers(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	alice := mustUser(t, r, "alice")
	assert.NotZero(t, alice.ID)

	got, err := r.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	_, err = r.CreateUser(ctx, core.User{Name: "other", Email: "ALICE@example.com"})
	assert.True(t, errors.Is(err, ErrConflict), "got %v", err)

	_, err = r.GetUser(ctx, 999)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestGroupsAndMembers(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	alice := mustUser(t, r, "alice")
	bob := mustUser(t, r, "bob")

	g, err := r.CreateGroup(ctx, core.Group{Name: "Trip", CreatedBy: alice.ID})
	require.NoError(t, err)

	m, err := r.GetMember(ctx, g.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, m.Role)

	ok, err := r.IsMember(ctx, g.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.AddMember(ctx, g.ID, bob.ID, core.RoleMember)
	require.NoError(t, err)
	_, err = r.AddMember(ctx, g.ID, bob.ID, core.RoleMember)
	assert.True(t, errors.Is(err, ErrConflict), "got %v", err)

	_, err = r.AddMember(ctx, g.ID, 999, core.RoleMember)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	members, err := r.ListMembers(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].Name)
	assert.Equal(t, "bob", members[1].Name)

	groups, err := r.ListGroupsForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, core.RoleMember, groups[0].Role)
	assert.Equal(t, "Trip", groups[0].Name)

	ids, err := r.ListGroupIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.GroupID{g.ID}, ids)

	require.NoError(t, r.RemoveMember(ctx, g.ID, bob.ID))
	assert.True(t, errors.Is(r.RemoveMember(ctx, g.ID, bob.ID), ErrNotFound))
}

func TestExpenseLifecycle(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	alice := mustUser(t, r, "alice")
	bob := mustUser(t, r, "bob")
	g, err := r.CreateGroup(ctx, core.Group{Name: "Flat", CreatedBy: alice.ID})
	require.NoError(t, err)

	e, err := r.CreateExpense(ctx, core.Expense{
		GroupID:     groupRef(g.ID),
		Description: "Dinner",
		Amount:      core.Money{Cents: 10000},
		SplitType:   core.SplitEqual,
		PaidBy:      alice.ID,
		CreatedBy:   alice.ID,
		Participants: []core.Participation{
			{ParticipantID: alice.ID, Share: core.Money{Cents: 5000}},
			{ParticipantID: bob.ID, Share: core.Money{Cents: 5000}},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, e.GroupID)
	assert.Equal(t, g.ID, *e.GroupID)
	require.Len(t, e.Participants, 2)
	assert.Equal(t, alice.ID, e.Participants[1].PayerID)

	e.Description = "Dinner and drinks"
	e.Amount = core.Money{Cents: 9000}
	e.SplitType = core.SplitExact
	e.Participants = []core.Participation{{ParticipantID: bob.ID, Share: core.Money{Cents: 9000}}}
	updated, err := r.UpdateExpense(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, "Dinner and drinks", updated.Description)
	require.Len(t, updated.Participants, 1)
	assert.Equal(t, int64(9000), updated.Participants[0].Share.Cents)

	list, err := r.ListGroupExpenses(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Participants, 1)

	require.NoError(t, r.DeleteExpense(ctx, e.ID))
	_, err = r.GetExpense(ctx, e.ID)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	assert.True(t, errors.Is(r.DeleteExpense(ctx, e.ID), ErrNotFound))

	_, err = r.UpdateExpense(ctx, e)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestScopedRecords(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	alice := mustUser(t, r, "alice")
	bob := mustUser(t, r, "bob")
	g, err := r.CreateGroup(ctx, core.Group{Name: "Flat", CreatedBy: alice.ID})
	require.NoError(t, err)

	_, err = r.CreateExpense(ctx, core.Expense{
		GroupID: groupRef(g.ID), Description: "Rent", Amount: core.Money{Cents: 2000},
		SplitType: core.SplitEqual, PaidBy: alice.ID, CreatedBy: alice.ID,
		Participants: []core.Participation{{ParticipantID: bob.ID, Share: core.Money{Cents: 2000}}},
	})
	require.NoError(t, err)
	_, err = r.CreateExpense(ctx, core.Expense{
		Description: "Coffee", Amount: core.Money{Cents: 300},
		SplitType: core.SplitEqual, PaidBy: bob.ID, CreatedBy: bob.ID,
		Participants: []core.Participation{{ParticipantID: alice.ID, Share: core.Money{Cents: 300}}},
	})
	require.NoError(t, err)

	first, err := r.CreateSettlement(ctx, core.Settlement{GroupID: groupRef(g.ID), PayerID: bob.ID, PayeeID: alice.ID, Amount: core.Money{Cents: 500}})
	require.NoError(t, err)
	second, err := r.CreateSettlement(ctx, core.Settlement{GroupID: groupRef(g.ID), PayerID: bob.ID, PayeeID: alice.ID, Amount: core.Money{Cents: 700}, Note: "rest"})
	require.NoError(t, err)

	all, err := r.ListParticipations(ctx, core.AllScope())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	grouped, err := r.ListParticipations(ctx, core.GroupScope(g.ID))
	require.NoError(t, err)
	require.Len(t, grouped, 1)
	assert.Equal(t, core.Participation{
		ExpenseID: grouped[0].ExpenseID, PayerID: alice.ID, ParticipantID: bob.ID, Share: core.Money{Cents: 2000},
	}, grouped[0])

	history, err := r.ListGroupSettlements(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID, "newest first")
	assert.Equal(t, first.ID, history[1].ID)
	assert.Equal(t, "rest", history[0].Note)

	empty, err := r.ListSettlements(ctx, core.GroupScope(g.ID+1))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSettlementConstraints(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	alice := mustUser(t, r, "alice")

	_, err := r.CreateSettlement(ctx, core.Settlement{PayerID: alice.ID, PayeeID: alice.ID, Amount: core.Money{Cents: 1}})
	assert.Error(t, err, "schema rejects self settlement")

	_, err = r.CreateSettlement(ctx, core.Settlement{PayerID: alice.ID, PayeeID: 404, Amount: core.Money{Cents: 1}})
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}
