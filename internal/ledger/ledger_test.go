package ledger

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitledger/internal/core"
)

const (
	alice core.UserID = 1
	bob   core.UserID = 2
	carol core.UserID = 3
	dave  core.UserID = 4
)

func cents(c int64) core.Money { return core.Money{Cents: c} }

func part(expense core.ExpenseID, payer, participant core.UserID, share int64) core.Participation {
	return core.Participation{ExpenseID: expense, PayerID: payer, ParticipantID: participant, Share: cents(share)}
}

func settle(payer, payee core.UserID, amount int64) core.Settlement {
	return core.Settlement{PayerID: payer, PayeeID: payee, Amount: cents(amount)}
}

func TestSettle_Scenarios(t *testing.T) {
	tests := []struct {
		name          string
		parts         []core.Participation
		settlements   []core.Settlement
		wantBalances  Balances
		wantPositions Positions
		wantTransfers []core.Transfer
	}{
		{
			name: "one expense split equally between two",
			parts: []core.Participation{
				part(1, alice, alice, 5000),
				part(1, alice, bob, 5000),
			},
			wantBalances:  Balances{bob: {alice: cents(5000)}},
			wantPositions: Positions{alice: cents(5000), bob: cents(-5000)},
			wantTransfers: []core.Transfer{{From: bob, To: alice, Amount: cents(5000)}},
		},
		{
			name: "three people, one payer",
			parts: []core.Participation{
				part(1, alice, alice, 3000),
				part(1, alice, bob, 3000),
				part(1, alice, carol, 3000),
			},
			wantBalances:  Balances{bob: {alice: cents(3000)}, carol: {alice: cents(3000)}},
			wantPositions: Positions{alice: cents(6000), bob: cents(-3000), carol: cents(-3000)},
			wantTransfers: []core.Transfer{
				{From: bob, To: alice, Amount: cents(3000)},
				{From: carol, To: alice, Amount: cents(3000)},
			},
		},
		{
			name:          "settlement clears the debt",
			parts:         []core.Participation{part(1, alice, bob, 5000)},
			settlements:   []core.Settlement{settle(bob, alice, 5000)},
			wantBalances:  Balances{bob: {alice: cents(0)}},
			wantPositions: Positions{alice: cents(0), bob: cents(0)},
			wantTransfers: []core.Transfer{},
		},
		{
			name:          "no records",
			wantBalances:  Balances{},
			wantPositions: Positions{},
			wantTransfers: []core.Transfer{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Settle(tt.parts, tt.settlements)
			assert.Equal(t, tt.wantBalances, plan.Balances)
			assert.Equal(t, tt.wantPositions, plan.Positions)
			assert.Equal(t, tt.wantTransfers, plan.Transfers)
		})
	}
}

func TestAggregate_SelfParticipationSkipped(t *testing.T) {
	b := Aggregate([]core.Participation{part(1, alice, alice, 9999)}, nil)
	assert.Empty(t, b)
}

func TestAggregate_SettlementReducesForwardEdge(t *testing.T) {
	// Overpaying leaves a negative forward edge, not a reverse one.
	b := Aggregate(
		[]core.Participation{part(1, alice, bob, 1000)},
		[]core.Settlement{settle(bob, alice, 1500)},
	)
	assert.Equal(t, Balances{bob: {alice: cents(-500)}}, b)

	pos := NetPositions(b)
	assert.Equal(t, Positions{alice: cents(-500), bob: cents(500)}, pos)
	assert.Equal(t, []core.Transfer{{From: alice, To: bob, Amount: cents(500)}}, Simplify(pos))
}

func TestAggregate_SettlementBeforeDebt(t *testing.T) {
	// Bob pays Alice up front, then an expense paid by Alice makes Bob owe
	// her the same amount: the pair nets to zero.
	b := Aggregate(
		[]core.Participation{part(1, alice, bob, 2000)},
		[]core.Settlement{settle(bob, alice, 2000)},
	)
	assert.Equal(t, Balances{bob: {alice: cents(0)}}, b)
	pos := NetPositions(b)
	assert.True(t, pos[alice].IsZero())
	assert.True(t, pos[bob].IsZero())
	assert.Empty(t, Simplify(pos))

	// Paying the other way round doubles the debt instead.
	b = Aggregate(
		[]core.Participation{part(1, bob, alice, 2000)},
		[]core.Settlement{settle(bob, alice, 2000)},
	)
	assert.Equal(t, Balances{alice: {bob: cents(2000)}, bob: {alice: cents(-2000)}}, b)
	assert.Equal(t, Positions{alice: cents(-4000), bob: cents(4000)}, NetPositions(b))
}

func TestNetPositions_ReconcilesBidirectionalEdges(t *testing.T) {
	b := Aggregate([]core.Participation{
		part(1, alice, bob, 4000),
		part(2, bob, alice, 1500),
	}, nil)
	require.Len(t, b, 2)
	pos := NetPositions(b)
	assert.Equal(t, Positions{alice: cents(2500), bob: cents(-2500)}, pos)
}

func TestSimplify_SortsByUserID(t *testing.T) {
	pos := Positions{
		dave:  cents(-100),
		bob:   cents(-300),
		carol: cents(250),
		alice: cents(150),
	}
	got := Simplify(pos)
	want := []core.Transfer{
		{From: bob, To: alice, Amount: cents(150)},
		{From: bob, To: carol, Amount: cents(150)},
		{From: dave, To: carol, Amount: cents(100)},
	}
	assert.Equal(t, want, got)
}

func TestSimplify_OnlyCreditors(t *testing.T) {
	assert.Empty(t, Simplify(Positions{alice: cents(10)}))
	assert.Empty(t, Simplify(Positions{alice: cents(-10)}))
}

func TestBalances_OwedAndEdges(t *testing.T) {
	b := Aggregate([]core.Participation{
		part(1, carol, bob, 700),
		part(2, alice, bob, 300),
		part(3, alice, carol, 100),
	}, nil)

	owed := b.Owed(bob)
	assert.Equal(t, map[core.UserID]core.Money{alice: cents(300), carol: cents(700)}, owed)
	owed[alice] = cents(1)
	assert.Equal(t, cents(300), b[bob][alice], "Owed must return a copy")

	assert.Empty(t, b.Owed(alice))

	assert.Equal(t, []Edge{
		{Debtor: bob, Creditor: alice, Amount: cents(300)},
		{Debtor: bob, Creditor: carol, Amount: cents(700)},
		{Debtor: carol, Creditor: alice, Amount: cents(100)},
	}, b.Edges())
}

// randomRecords builds a ledger with a handful of people so pairs repeat.
func randomRecords(r *rand.Rand) ([]core.Participation, []core.Settlement) {
	people := r.Intn(6) + 1
	var parts []core.Participation
	for e := 0; e < r.Intn(12); e++ {
		payer := core.UserID(r.Intn(people) + 1)
		for p := 1; p <= people; p++ {
			if r.Intn(3) == 0 {
				continue
			}
			parts = append(parts, part(core.ExpenseID(e+1), payer, core.UserID(p), r.Int63n(10000)))
		}
	}
	var settlements []core.Settlement
	for s := 0; s < r.Intn(5); s++ {
		payer := core.UserID(r.Intn(people) + 1)
		payee := core.UserID(r.Intn(people) + 1)
		settlements = append(settlements, settle(payer, payee, r.Int63n(5000)+1))
	}
	return parts, settlements
}

func TestSettle_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		parts, settlements := randomRecords(r)
		plan := Settle(parts, settlements)

		// Conservation
		require.Zero(t, plan.Positions.Sum().Cents, "iteration %d", i)

		// No self edges
		for debtor, row := range plan.Balances {
			_, self := row[debtor]
			require.False(t, self, "iteration %d: self edge for %d", i, debtor)
		}

		// Transfer bound and shape
		bound := max(0, plan.Positions.Debtors()+plan.Positions.Creditors()-1)
		require.LessOrEqual(t, len(plan.Transfers), bound, "iteration %d", i)
		for _, tr := range plan.Transfers {
			require.Positive(t, tr.Amount.Cents, "iteration %d", i)
			require.NotEqual(t, tr.From, tr.To, "iteration %d", i)
		}

		// Transfers clear every position, and netting them again is idempotent.
		replayed := NetPositions(BalancesFromTransfers(plan.Transfers))
		require.Equal(t, plan.Positions.NonZero(), replayed.NonZero(), "iteration %d", i)
	}
}

func TestSettle_OrderIndependent(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		parts, settlements := randomRecords(r)
		want := Settle(parts, settlements)

		r.Shuffle(len(parts), func(a, b int) { parts[a], parts[b] = parts[b], parts[a] })
		r.Shuffle(len(settlements), func(a, b int) { settlements[a], settlements[b] = settlements[b], settlements[a] })
		got := Settle(parts, settlements)

		require.Equal(t, want.Positions, got.Positions)
		require.Equal(t, want.Transfers, got.Transfers)
	}
}

// sinkBalances routes every position through one person: each other net
// debtor owes sink, and sink owes each other net creditor.
func sinkBalances(p Positions, sink core.UserID) Balances {
	var transfers []core.Transfer
	for id, m := range p {
		switch {
		case id == sink || m.IsZero():
		case m.Cents < 0:
			transfers = append(transfers, core.Transfer{From: id, To: sink, Amount: cents(-m.Cents)})
		default:
			transfers = append(transfers, core.Transfer{From: sink, To: id, Amount: m})
		}
	}
	return BalancesFromTransfers(transfers)
}

func TestNetPositions_IdempotentOnNettedBalances(t *testing.T) {
	pos := Positions{alice: cents(-700), bob: cents(-300), carol: cents(400), dave: cents(600)}
	b := sinkBalances(pos, dave)
	require.Len(t, b.Edges(), 3, "one edge per non-sink position")
	assert.Equal(t, pos, NetPositions(b))

	r := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		parts, settlements := randomRecords(r)
		want := Settle(parts, settlements).Positions.NonZero()
		if len(want) == 0 {
			continue
		}
		var sink core.UserID
		for id := range want {
			sink = id
			break
		}
		got := NetPositions(sinkBalances(want, sink)).NonZero()
		require.Equal(t, want, got, "iteration %d", i)
	}
}
