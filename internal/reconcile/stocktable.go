package reconcile

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"tutupbuku/backend/internal/domain"
)

var (
	ErrUnknownProduct    = errors.New("unknown product")
	ErrNegativeRemaining = errors.New("remaining count must not be negative")
)

// StockLine is the derived per-product state of the reconciliation table.
type StockLine struct {
	Product   domain.Product
	Received  decimal.Decimal
	Remaining *decimal.Decimal
}

func (l StockLine) Opening() decimal.Decimal {
	return l.Product.OpeningStock
}

func (l StockLine) Available() decimal.Decimal {
	return l.Product.OpeningStock.Add(l.Received)
}

// Sold is max(0, available - remaining) once a count is entered, zero before.
func (l StockLine) Sold() decimal.Decimal {
	if l.Remaining == nil {
		return decimal.Zero
	}
	sold := l.Available().Sub(*l.Remaining)
	if sold.IsNegative() {
		return decimal.Zero
	}
	return sold
}

func (l StockLine) Revenue() decimal.Decimal {
	return l.Sold().Mul(l.Product.SalePrice)
}

type Totals struct {
	TotalSold    decimal.Decimal
	TotalRevenue decimal.Decimal
}

// StockTable holds the day's per-product reconciliation state. It is pure:
// construction takes the already-loaded products and net received quantities,
// and no method performs I/O.
type StockTable struct {
	lines map[string]*StockLine
	order []string
}

func NewStockTable(products []domain.Product, received map[string]decimal.Decimal) *StockTable {
	table := &StockTable{
		lines: make(map[string]*StockLine, len(products)),
		order: make([]string, 0, len(products)),
	}
	for _, product := range products {
		table.lines[product.ID] = &StockLine{
			Product:  product,
			Received: received[product.ID],
		}
		table.order = append(table.order, product.ID)
	}
	return table
}

// SetRemaining validates and clamps a counted quantity: negatives are
// rejected, values above available are capped to available (zero sold).
func (t *StockTable) SetRemaining(productID string, qty decimal.Decimal) error {
	line, ok := t.lines[productID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}
	if qty.IsNegative() {
		return fmt.Errorf("%w: product %s", ErrNegativeRemaining, productID)
	}
	if available := line.Available(); qty.GreaterThan(available) {
		qty = available
	}
	line.Remaining = &qty
	return nil
}

func (t *StockTable) Line(productID string) (StockLine, bool) {
	line, ok := t.lines[productID]
	if !ok {
		return StockLine{}, false
	}
	return *line, true
}

// Lines returns the table rows in construction order.
func (t *StockTable) Lines() []StockLine {
	result := make([]StockLine, 0, len(t.order))
	for _, id := range t.order {
		result = append(result, *t.lines[id])
	}
	return result
}

// Totals folds the current state. Products without a remaining entry
// contribute zero.
func (t *StockTable) Totals() Totals {
	totals := Totals{TotalSold: decimal.Zero, TotalRevenue: decimal.Zero}
	for _, id := range t.order {
		line := t.lines[id]
		totals.TotalSold = totals.TotalSold.Add(line.Sold())
		totals.TotalRevenue = totals.TotalRevenue.Add(line.Revenue())
	}
	return totals
}

// AllCounted reports whether every product has a remaining entry; it gates
// the lock transition.
func (t *StockTable) AllCounted() bool {
	for _, line := range t.lines {
		if line.Remaining == nil {
			return false
		}
	}
	return true
}

// UncountedProducts lists the product ids still missing a count.
func (t *StockTable) UncountedProducts() []string {
	missing := make([]string, 0)
	for _, id := range t.order {
		if t.lines[id].Remaining == nil {
			missing = append(missing, id)
		}
	}
	return missing
}

// RemainingCounts returns the entered counts keyed by product id.
func (t *StockTable) RemainingCounts() map[string]decimal.Decimal {
	counts := make(map[string]decimal.Decimal)
	for id, line := range t.lines {
		if line.Remaining != nil {
			counts[id] = *line.Remaining
		}
	}
	return counts
}
