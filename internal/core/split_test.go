package core

import (
	"errors"
	"testing"
)

func sumCents(ms []Money) int64 {
	var s int64
	for _, m := range ms {
		s += m.Cents
	}
	return s
}

func TestComputeSharesEqual(t *testing.T) {
	inputs := []SplitInput{{UserID: 1}, {UserID: 2}, {UserID: 3}}
	shares, err := ComputeShares(Money{Cents: 10000}, SplitEqual, inputs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{3334, 3333, 3333}
	for i, w := range want {
		if shares[i].Cents != w {
			t.Fatalf("share %d = %d, want %d", i, shares[i].Cents, w)
		}
	}

	shares, err = ComputeShares(Money{Cents: 10000}, SplitEqual, inputs[:2])
	if err != nil || shares[0].Cents != 5000 || shares[1].Cents != 5000 {
		t.Fatalf("expected 50/50, got %v (err=%v)", shares, err)
	}
}

func TestComputeSharesExact(t *testing.T) {
	inputs := []SplitInput{
		{UserID: 1, Share: Money{Cents: 2500}},
		{UserID: 2, Share: Money{Cents: 7500}},
	}
	shares, err := ComputeShares(Money{Cents: 10000}, SplitExact, inputs)
	if err != nil || shares[0].Cents != 2500 || shares[1].Cents != 7500 {
		t.Fatalf("unexpected shares %v (err=%v)", shares, err)
	}

	inputs[1].Share = Money{Cents: 7499}
	if _, err := ComputeShares(Money{Cents: 10000}, SplitExact, inputs); !errors.Is(err, ErrSplitMismatch) {
		t.Fatalf("expected ErrSplitMismatch, got %v", err)
	}

	inputs[1].Share = Money{Cents: -1}
	if _, err := ComputeShares(Money{Cents: 10000}, SplitExact, inputs); !errors.Is(err, ErrInvalidShare) {
		t.Fatalf("expected ErrInvalidShare, got %v", err)
	}
}

func TestComputeSharesPercent(t *testing.T) {
	inputs := []SplitInput{
		{UserID: 1, PercentBP: 3333},
		{UserID: 2, PercentBP: 3333},
		{UserID: 3, PercentBP: 3334},
	}
	shares, err := ComputeShares(Money{Cents: 1000}, SplitPercent, inputs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sumCents(shares) != 1000 {
		t.Fatalf("shares %v do not sum to 1000", shares)
	}
	// 333 + 333 + 333 allocated, one leftover cent to the first participant
	if shares[0].Cents != 334 || shares[1].Cents != 333 || shares[2].Cents != 333 {
		t.Fatalf("unexpected shares %v", shares)
	}

	inputs[2].PercentBP = 3300
	if _, err := ComputeShares(Money{Cents: 1000}, SplitPercent, inputs); !errors.Is(err, ErrPercentTotal) {
		t.Fatalf("expected ErrPercentTotal, got %v", err)
	}
}

func TestComputeSharesErrors(t *testing.T) {
	cases := []struct {
		name   string
		amount Money
		typ    SplitType
		inputs []SplitInput
		want   error
	}{
		{"zero amount", Money{}, SplitEqual, []SplitInput{{UserID: 1}}, ErrInvalidAmount},
		{"no participants", Money{Cents: 1}, SplitEqual, nil, ErrNoParticipants},
		{"duplicate", Money{Cents: 1}, SplitEqual, []SplitInput{{UserID: 1}, {UserID: 1}}, ErrDuplicateParticipant},
		{"bad type", Money{Cents: 1}, SplitType("HALF"), []SplitInput{{UserID: 1}}, ErrInvalidSplitType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeShares(tc.amount, tc.typ, tc.inputs)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestComputeSharesAlwaysSum(t *testing.T) {
	for amount := int64(1); amount < 500; amount += 7 {
		for n := 1; n <= 7; n++ {
			inputs := make([]SplitInput, n)
			for i := range inputs {
				inputs[i] = SplitInput{UserID: UserID(i + 1)}
			}
			shares, err := ComputeShares(Money{Cents: amount}, SplitEqual, inputs)
			if err != nil {
				t.Fatalf("amount=%d n=%d: %v", amount, n, err)
			}
			if got := sumCents(shares); got != amount {
				t.Fatalf("amount=%d n=%d: sum %d", amount, n, got)
			}
		}
	}
}

func TestParseSplitType(t *testing.T) {
	if got, err := ParseSplitType(" percent "); err != nil || got != SplitPercent {
		t.Fatalf("got %q (err=%v)", got, err)
	}
	if _, err := ParseSplitType("thirds"); !errors.Is(err, ErrInvalidSplitType) {
		t.Fatalf("expected ErrInvalidSplitType, got %v", err)
	}
}

func TestExpenseCanEdit(t *testing.T) {
	e := Expense{CreatedBy: 1, PaidBy: 2}
	if !e.CanEdit(1) || !e.CanEdit(2) || e.CanEdit(3) {
		t.Fatalf("unexpected edit permissions")
	}
}

func TestSettlementValidate(t *testing.T) {
	if err := (Settlement{PayerID: 1, PayeeID: 1, Amount: Money{Cents: 1}}).Validate(); !errors.Is(err, ErrSelfSettlement) {
		t.Fatalf("expected ErrSelfSettlement, got %v", err)
	}
	if err := (Settlement{PayerID: 1, PayeeID: 2}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestScope(t *testing.T) {
	all := AllScope()
	if !all.IsAll() || all.Key() != "all" {
		t.Fatalf("unexpected all scope %q", all.Key())
	}
	g := GroupScope(7)
	id, ok := g.Group()
	if !ok || id != 7 || g.Key() != "group:7" {
		t.Fatalf("unexpected group scope %q", g.Key())
	}
}

func TestComputeSharesRejectsAmountsAboveMax(t *testing.T) {
	halves := []SplitInput{{UserID: 1, PercentBP: 5000}, {UserID: 2, PercentBP: 5000}}

	// 900000000000000 units parses to 9e16 cents; multiplied by basis points
	// that would overflow int64
	if _, err := ComputeShares(Money{Cents: 90_000_000_000_000_000}, SplitPercent, halves); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	shares, err := ComputeShares(Money{Cents: MaxAmountCents}, SplitPercent, halves)
	if err != nil {
		t.Fatalf("unexpected error at the maximum: %v", err)
	}
	if sumCents(shares) != MaxAmountCents || shares[0].Cents != MaxAmountCents/2 {
		t.Fatalf("shares %v do not split the maximum evenly", shares)
	}

	odd := []SplitInput{{UserID: 1, PercentBP: 3333}, {UserID: 2, PercentBP: 3333}, {UserID: 3, PercentBP: 3334}}
	shares, err = ComputeShares(Money{Cents: MaxAmountCents - 1}, SplitPercent, odd)
	if err != nil || sumCents(shares) != MaxAmountCents-1 {
		t.Fatalf("shares %v (err=%v) must sum to the amount", shares, err)
	}
}

func TestComputeSharesExactShareAboveAmount(t *testing.T) {
	inputs := []SplitInput{
		{UserID: 1, Share: Money{Cents: 9_000_000_000_000_000_000}},
		{UserID: 2, Share: Money{Cents: -8_999_999_999_999_990_000}},
	}
	if _, err := ComputeShares(Money{Cents: 10000}, SplitExact, inputs); !errors.Is(err, ErrInvalidShare) {
		t.Fatalf("expected ErrInvalidShare, got %v", err)
	}
}

func TestDistributeRemainderBounds(t *testing.T) {
	shares := make([]Money, 3)
	if err := distributeRemainder(shares, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shares[0].Cents != 1 || shares[1].Cents != 1 || shares[2].Cents != 0 {
		t.Fatalf("unexpected distribution %v", shares)
	}

	for _, leftover := range []int64{-1, 3, 1 << 60} {
		if err := distributeRemainder(make([]Money, 3), leftover); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("leftover %d: expected ErrInvalidAmount, got %v", leftover, err)
		}
	}
}
