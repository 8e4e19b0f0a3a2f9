package amortization

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestCompute_StandardAnnuity(t *testing.T) {
	res, err := Compute(d("10000"), d("12"), 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := res.MonthlyPayment.StringFixed(2); got != "888.49" {
		t.Errorf("monthly payment = %s, want 888.49", got)
	}
	if len(res.Schedule) != 12 {
		t.Fatalf("expected 12 schedule entries, got %d", len(res.Schedule))
	}

	sumPrincipal := decimal.Zero
	for _, e := range res.Schedule {
		sumPrincipal = sumPrincipal.Add(e.Principal)
	}
	diff := sumPrincipal.Sub(d("10000")).Abs()
	if diff.GreaterThan(d("0.02")) {
		t.Errorf("principal components sum to %s, want 10000 within 0.02", sumPrincipal)
	}

	final := res.Schedule[len(res.Schedule)-1]
	if !final.Balance.IsZero() {
		t.Errorf("final balance = %s, want 0", final.Balance)
	}
}

func TestCompute_ZeroRate(t *testing.T) {
	res, err := Compute(d("1200"), decimal.Zero, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.MonthlyPayment.StringFixed(2); got != "100.00" {
		t.Errorf("monthly payment = %s, want 100.00", got)
	}
	if !res.TotalInterest.IsZero() {
		t.Errorf("total interest = %s, want 0", res.TotalInterest)
	}
	for _, e := range res.Schedule {
		if !e.Interest.IsZero() {
			t.Errorf("month %d interest = %s, want 0", e.Month, e.Interest)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	a, err := Compute(d("25000"), d("7.5"), 36)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Compute(d("25000"), d("7.5"), 36)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.MonthlyPayment.Equal(b.MonthlyPayment) || !a.TotalPayment.Equal(b.TotalPayment) {
		t.Fatal("identical inputs produced different payment figures")
	}
	for i := range a.Schedule {
		x, y := a.Schedule[i], b.Schedule[i]
		if !x.Principal.Equal(y.Principal) || !x.Interest.Equal(y.Interest) || !x.Balance.Equal(y.Balance) {
			t.Fatalf("schedules diverge at month %d", x.Month)
		}
	}
}

func TestCompute_BalanceDecreases(t *testing.T) {
	res, err := Compute(d("5000"), d("9"), 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prev := d("5000")
	for _, e := range res.Schedule {
		if e.Balance.GreaterThan(prev) {
			t.Fatalf("balance increased at month %d: %s > %s", e.Month, e.Balance, prev)
		}
		if e.Balance.IsNegative() {
			t.Fatalf("balance negative at month %d: %s", e.Month, e.Balance)
		}
		prev = e.Balance
	}
}

func TestCompute_InvalidInputs(t *testing.T) {
	cases := []struct {
		name      string
		principal decimal.Decimal
		rate      decimal.Decimal
		term      int
	}{
		{"zero principal", decimal.Zero, d("5"), 12},
		{"negative principal", d("-100"), d("5"), 12},
		{"negative rate", d("1000"), d("-1"), 12},
		{"zero term", d("1000"), d("5"), 0},
		{"negative term", d("1000"), d("5"), -3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Compute(tc.principal, tc.rate, tc.term); err == nil {
				t.Error("expected a validation error, got nil")
			}
		})
	}
}
