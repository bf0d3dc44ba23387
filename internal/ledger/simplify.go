package ledger

import (
	"sort"

	"splitledger/internal/core"
)

// Positions maps a person to their net amount across all counterparties:
// negative for a net debtor, positive for a net creditor.
type Positions map[core.UserID]core.Money

// NetPositions collapses a Balances map into one figure per person. Opposite
// edges between the same pair cancel out here. Anyone on a populated edge gets
// an entry, even when it nets to zero.
func NetPositions(b Balances) Positions {
	net := make(Positions)
	for debtor, row := range b {
		for creditor, amt := range row {
			net[debtor] = net[debtor].Sub(amt)
			net[creditor] = net[creditor].Add(amt)
		}
	}
	return net
}

// Sum is always zero for positions built by NetPositions.
func (p Positions) Sum() core.Money {
	var s core.Money
	for _, m := range p {
		s = s.Add(m)
	}
	return s
}

// Debtors counts the people with a negative position.
func (p Positions) Debtors() int {
	n := 0
	for _, m := range p {
		if m.Cents < 0 {
			n++
		}
	}
	return n
}

// Creditors counts the people with a positive position.
func (p Positions) Creditors() int {
	n := 0
	for _, m := range p {
		if m.Cents > 0 {
			n++
		}
	}
	return n
}

// NonZero returns a copy without settled people.
func (p Positions) NonZero() Positions {
	out := make(Positions, len(p))
	for id, m := range p {
		if !m.IsZero() {
			out[id] = m
		}
	}
	return out
}

type party struct {
	id  core.UserID
	amt int64
}

// Simplify greedily matches net debtors against net creditors.
//
// Both sides are ordered by user id. Each step settles min(debtor, creditor)
// between the current pair and advances whichever side reached zero, so the
// result has at most debtors+creditors-1 transfers, each positive and between
// two different people. No debtors or no creditors yields an empty list.
func Simplify(p Positions) []core.Transfer {
	var debtors, creditors []party
	for id, m := range p {
		switch {
		case m.Cents < 0:
			debtors = append(debtors, party{id: id, amt: -m.Cents})
		case m.Cents > 0:
			creditors = append(creditors, party{id: id, amt: m.Cents})
		}
	}
	sort.Slice(debtors, func(i, j int) bool { return debtors[i].id < debtors[j].id })
	sort.Slice(creditors, func(i, j int) bool { return creditors[i].id < creditors[j].id })

	transfers := make([]core.Transfer, 0, len(debtors)+len(creditors))
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]
		amt := min(d.amt, c.amt)
		transfers = append(transfers, core.Transfer{From: d.id, To: c.id, Amount: core.Money{Cents: amt}})
		d.amt -= amt
		c.amt -= amt
		if d.amt == 0 {
			i++
		}
		if c.amt == 0 {
			j++
		}
	}
	return transfers
}

// Plan is the full result of one ledger evaluation.
type Plan struct {
	Balances  Balances
	Positions Positions
	Transfers []core.Transfer
}

// Settle runs aggregation, netting and simplification in one pass.
func Settle(parts []core.Participation, settlements []core.Settlement) Plan {
	b := Aggregate(parts, settlements)
	pos := NetPositions(b)
	return Plan{
		Balances:  b,
		Positions: pos,
		Transfers: Simplify(pos),
	}
}
