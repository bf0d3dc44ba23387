package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{".5", 50, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
		{"100000000000", 10_000_000_000_000, true},
		{"100000000000.01", 0, false},
		{"900000000000000", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseShareToCentsAllowsZero(t *testing.T) {
	got, err := ParseShareToCents("0")
	if err != nil || got != 0 {
		t.Fatalf("expected 0, got %d (err=%v)", got, err)
	}
	if _, err := ParseShareToCents("-0.01"); err == nil {
		t.Fatalf("expected error for negative share")
	}
}

func TestParsePercentToBasisPoints(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"100", 10000, true},
		{"33.33", 3333, true},
		{"0.5", 50, true},
		{"0", 0, true},
		{"100.01", 0, false},
		{"x", 0, false},
	}
	for _, tc := range cases {
		got, err := ParsePercentToBasisPoints(tc.in)
		if tc.ok && (err != nil || got != tc.out) {
			t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyFormatting(t *testing.T) {
	cases := []struct {
		m   Money
		str string
		flt float64
	}{
		{Money{Cents: 1234}, "12.34", 12.34},
		{Money{Cents: -5}, "-0.05", -0.05},
		{Money{Cents: 0}, "0.00", 0},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.str {
			t.Fatalf("String() = %q, want %q", got, tc.str)
		}
		if got := tc.m.Float(); got != tc.flt {
			t.Fatalf("Float() = %v, want %v", got, tc.flt)
		}
	}
	if got := FromFloat(0.125); got.Cents != 13 {
		t.Fatalf("FromFloat(0.125) = %d", got.Cents)
	}
	if got := FromFloat(-0.5); got.Cents != -50 {
		t.Fatalf("FromFloat(-0.5) = %d", got.Cents)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: MaxAmountCents}).Validate(); err != nil {
		t.Fatalf("expected the maximum to be accepted, got %v", err)
	}
	if err := (Money{Cents: MaxAmountCents + 1}).Validate(); err == nil {
		t.Fatalf("expected error above the maximum")
	}
}
