package reconcile

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"tutupbuku/backend/internal/domain"
)

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: "prd-a", Name: "Kopi Sachet", Unit: "pcs", SalePrice: d("10"), OpeningStock: d("20"), Active: true},
		{ID: "prd-b", Name: "Gula Pasir", Unit: "kg", SalePrice: d("17.5"), OpeningStock: d("5"), Active: true},
	}
}

func TestStockLineDerivation(t *testing.T) {
	table := NewStockTable(testProducts(), map[string]decimal.Decimal{
		"prd-a": d("5"),
	})

	if err := table.SetRemaining("prd-a", d("5")); err != nil {
		t.Fatalf("set remaining: %v", err)
	}

	line, ok := table.Line("prd-a")
	if !ok {
		t.Fatal("line prd-a missing")
	}
	if !line.Available().Equal(d("25")) {
		t.Fatalf("expected available 25, got %s", line.Available())
	}
	if !line.Sold().Equal(d("20")) {
		t.Fatalf("expected sold 20, got %s", line.Sold())
	}
	if !line.Revenue().Equal(d("200")) {
		t.Fatalf("expected revenue 200, got %s", line.Revenue())
	}
}

func TestSoldIsZeroBeforeCount(t *testing.T) {
	table := NewStockTable(testProducts(), nil)

	line, _ := table.Line("prd-a")
	if !line.Sold().IsZero() || !line.Revenue().IsZero() {
		t.Fatalf("uncounted line must contribute zero, got sold=%s revenue=%s", line.Sold(), line.Revenue())
	}

	totals := table.Totals()
	if !totals.TotalSold.IsZero() || !totals.TotalRevenue.IsZero() {
		t.Fatalf("totals must be zero before any count, got %+v", totals)
	}
}

func TestSetRemainingRejectsNegative(t *testing.T) {
	table := NewStockTable(testProducts(), nil)

	err := table.SetRemaining("prd-a", d("-1"))
	if !errors.Is(err, ErrNegativeRemaining) {
		t.Fatalf("expected ErrNegativeRemaining, got %v", err)
	}
}

func TestSetRemainingRejectsUnknownProduct(t *testing.T) {
	table := NewStockTable(testProducts(), nil)

	err := table.SetRemaining("prd-missing", d("1"))
	if !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("expected ErrUnknownProduct, got %v", err)
	}
}

func TestSetRemainingClampsAboveAvailable(t *testing.T) {
	table := NewStockTable(testProducts(), nil)

	if err := table.SetRemaining("prd-a", d("99")); err != nil {
		t.Fatalf("set remaining: %v", err)
	}

	line, _ := table.Line("prd-a")
	if !line.Remaining.Equal(d("20")) {
		t.Fatalf("expected remaining clamped to available 20, got %s", line.Remaining)
	}
	if !line.Sold().IsZero() {
		t.Fatalf("expected zero sold when count exceeds available, got %s", line.Sold())
	}
}

func TestAllCountedGate(t *testing.T) {
	table := NewStockTable(testProducts(), nil)

	if table.AllCounted() {
		t.Fatal("table should not be fully counted yet")
	}

	if err := table.SetRemaining("prd-a", d("10")); err != nil {
		t.Fatalf("set remaining: %v", err)
	}
	missing := table.UncountedProducts()
	if len(missing) != 1 || missing[0] != "prd-b" {
		t.Fatalf("expected prd-b uncounted, got %v", missing)
	}

	if err := table.SetRemaining("prd-b", d("2.5")); err != nil {
		t.Fatalf("set remaining: %v", err)
	}
	if !table.AllCounted() {
		t.Fatal("table should be fully counted")
	}
}

func TestTotalsWithFractionalQuantities(t *testing.T) {
	table := NewStockTable(testProducts(), nil)

	if err := table.SetRemaining("prd-a", d("12")); err != nil {
		t.Fatalf("set remaining: %v", err)
	}
	if err := table.SetRemaining("prd-b", d("2.5")); err != nil {
		t.Fatalf("set remaining: %v", err)
	}

	totals := table.Totals()
	// prd-a sold 8 at 10; prd-b sold 2.5 at 17.5.
	if !totals.TotalSold.Equal(d("10.5")) {
		t.Fatalf("expected total sold 10.5, got %s", totals.TotalSold)
	}
	if !totals.TotalRevenue.Equal(d("123.75")) {
		t.Fatalf("expected total revenue 123.75, got %s", totals.TotalRevenue)
	}
}
