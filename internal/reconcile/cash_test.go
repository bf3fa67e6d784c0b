package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(value string) decimal.Decimal {
	out, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return out
}

func TestExpectedCashIsLinear(t *testing.T) {
	in := CashInputs{
		OpeningCash:      d("1000"),
		TotalRevenue:     d("500"),
		TotalIncome:      d("200"),
		TotalExpenses:    d("150"),
		TotalWithdrawals: d("100"),
	}

	expected := ExpectedCash(in)
	if !expected.Equal(d("1450")) {
		t.Fatalf("expected 1450, got %s", expected)
	}
}

func TestReconcileMatchWithinTolerance(t *testing.T) {
	in := CashInputs{OpeningCash: d("1000")}

	cases := []struct {
		counted string
		want    Classification
	}{
		{"1000", ClassMatch},
		{"1001", ClassMatch},
		{"999", ClassMatch},
		{"1000.5", ClassMatch},
		{"1001.01", ClassSurplus},
		{"998.99", ClassShortage},
	}
	for _, tc := range cases {
		result := Reconcile(in, d(tc.counted))
		if result.Classification != tc.want {
			t.Fatalf("counted %s: expected %s, got %s", tc.counted, tc.want, result.Classification)
		}
	}
}

func TestReconcileShortageReportsLoss(t *testing.T) {
	in := CashInputs{
		OpeningCash:  d("500"),
		TotalRevenue: d("200"),
	}

	result := Reconcile(in, d("650"))
	if result.Classification != ClassShortage {
		t.Fatalf("expected shortage, got %s", result.Classification)
	}
	if !result.Difference.Equal(d("-50")) {
		t.Fatalf("expected difference -50, got %s", result.Difference)
	}
	if !result.Loss.Equal(d("50")) {
		t.Fatalf("expected loss 50, got %s", result.Loss)
	}
	if !result.Extra.IsZero() {
		t.Fatalf("expected no extra on shortage, got %s", result.Extra)
	}
}

func TestReconcileSurplusReportsExtra(t *testing.T) {
	in := CashInputs{OpeningCash: d("500")}

	result := Reconcile(in, d("530"))
	if result.Classification != ClassSurplus {
		t.Fatalf("expected surplus, got %s", result.Classification)
	}
	if !result.Extra.Equal(d("30")) {
		t.Fatalf("expected extra 30, got %s", result.Extra)
	}
	if !result.Loss.IsZero() {
		t.Fatalf("expected no loss on surplus, got %s", result.Loss)
	}
}

func TestReconcileFractionalAmounts(t *testing.T) {
	in := CashInputs{
		OpeningCash:  d("100.25"),
		TotalRevenue: d("49.76"),
	}

	result := Reconcile(in, d("150"))
	if result.Classification != ClassMatch {
		t.Fatalf("expected match for 0.01 difference, got %s", result.Classification)
	}
	if !result.Expected.Equal(d("150.01")) {
		t.Fatalf("expected 150.01, got %s", result.Expected)
	}
}
