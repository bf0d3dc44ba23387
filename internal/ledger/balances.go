// Package ledger turns expense participations and settlements into pairwise
// balances, net positions and a minimal list of settling transfers.
//
// Everything here is a pure function of its inputs. Callers fetch the records,
// gate access, and decide what to do with the result.
package ledger

import (
	"sort"

	"splitledger/internal/core"
)

// Balances maps debtor -> creditor -> amount the debtor owes the creditor.
// The map is directed and not pre-netted: [a][b] and [b][a] may both be set.
type Balances map[core.UserID]map[core.UserID]core.Money

// Edge is one populated entry of a Balances map.
type Edge struct {
	Debtor   core.UserID
	Creditor core.UserID
	Amount   core.Money
}

func (b Balances) add(debtor, creditor core.UserID, amount core.Money) {
	if debtor == creditor {
		return
	}
	row, ok := b[debtor]
	if !ok {
		row = make(map[core.UserID]core.Money)
		b[debtor] = row
	}
	row[creditor] = row[creditor].Add(amount)
}

// Aggregate folds participations and settlements into a Balances map.
//
// A participation adds the share to participant->payer; self-participation is
// skipped. A settlement subtracts its amount from payer->payee, reducing the
// forward debt rather than creating a reverse edge. Edges only exist once
// something contributed to them, so an empty input gives an empty map.
func Aggregate(parts []core.Participation, settlements []core.Settlement) Balances {
	b := make(Balances)
	for _, p := range parts {
		if p.ParticipantID == p.PayerID {
			continue
		}
		b.add(p.ParticipantID, p.PayerID, p.Share)
	}
	for _, s := range settlements {
		b.add(s.PayerID, s.PayeeID, s.Amount.Neg())
	}
	return b
}

// Owed returns a copy of what debtor owes each counterparty.
func (b Balances) Owed(debtor core.UserID) map[core.UserID]core.Money {
	out := make(map[core.UserID]core.Money, len(b[debtor]))
	for creditor, amt := range b[debtor] {
		out[creditor] = amt
	}
	return out
}

// Edges lists every populated entry ordered by debtor, then creditor.
func (b Balances) Edges() []Edge {
	var edges []Edge
	for debtor, row := range b {
		for creditor, amt := range row {
			edges = append(edges, Edge{Debtor: debtor, Creditor: creditor, Amount: amt})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Debtor != edges[j].Debtor {
			return edges[i].Debtor < edges[j].Debtor
		}
		return edges[i].Creditor < edges[j].Creditor
	})
	return edges
}

// BalancesFromTransfers reads a transfer list back as debts: each transfer
// becomes an edge From owes To.
func BalancesFromTransfers(transfers []core.Transfer) Balances {
	b := make(Balances)
	for _, t := range transfers {
		b.add(t.From, t.To, t.Amount)
	}
	return b
}
