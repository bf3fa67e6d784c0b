package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"tutupbuku/backend/internal/domain"
	"tutupbuku/backend/internal/store"
)

// Reader loads everything one business date's reconciliation needs in a
// single pass. Any read failure aborts the whole load; partial data is never
// returned as authoritative.
type Reader struct {
	repo store.Repository
}

func NewReader(repo store.Repository) *Reader {
	return &Reader{repo: repo}
}

// DayLedger is the loaded, annotated view of one business date.
type DayLedger struct {
	Date           string
	StockMovements []domain.StockMovement
	Expenses       []domain.CashMovement
	Incomes        []domain.CashMovement
	Withdrawals    []domain.CashMovement
	// Closings holds the date's records newest-first.
	Closings []domain.ClosingRecord
	// PriorFinal is the most recent earlier final closing; nil means
	// first-time use and opening cash must be seeded manually.
	PriorFinal *domain.ClosingRecord
}

func (r *Reader) Load(ctx context.Context, date string) (*DayLedger, error) {
	stockMovements, err := r.repo.ListStockMovements(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load stock movements for %s: %w", date, err)
	}

	expenses, err := r.repo.ListCashMovements(ctx, date, domain.CashExpense)
	if err != nil {
		return nil, fmt.Errorf("load expenses for %s: %w", date, err)
	}
	incomes, err := r.repo.ListCashMovements(ctx, date, domain.CashIncome)
	if err != nil {
		return nil, fmt.Errorf("load incomes for %s: %w", date, err)
	}
	withdrawals, err := r.repo.ListCashMovements(ctx, date, domain.CashWithdrawal)
	if err != nil {
		return nil, fmt.Errorf("load withdrawals for %s: %w", date, err)
	}

	closings, err := r.repo.FindClosingRecords(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load closing records for %s: %w", date, err)
	}

	priorFinal, err := r.repo.FindPriorFinalClosing(ctx, date)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("load prior final closing before %s: %w", date, err)
		}
		priorFinal = nil
	}

	led := &DayLedger{
		Date:           date,
		StockMovements: stockMovements,
		Expenses:       expenses,
		Incomes:        incomes,
		Withdrawals:    withdrawals,
		Closings:       closings,
		PriorFinal:     priorFinal,
	}
	led.flagReversedStock()
	led.Expenses = flagReversedCash(led.Expenses)
	led.Incomes = flagReversedCash(led.Incomes)
	led.Withdrawals = flagReversedCash(led.Withdrawals)
	return led, nil
}

func (l *DayLedger) flagReversedStock() {
	reversed := make(map[string]bool, len(l.StockMovements))
	for _, m := range l.StockMovements {
		if m.IsReversal && m.ReversedFromID != "" {
			reversed[m.ReversedFromID] = true
		}
	}
	for i := range l.StockMovements {
		l.StockMovements[i].HasBeenReversed = reversed[l.StockMovements[i].ID]
	}
}

func flagReversedCash(movements []domain.CashMovement) []domain.CashMovement {
	reversed := make(map[string]bool, len(movements))
	for _, m := range movements {
		if m.IsReversal && m.ReversedFromID != "" {
			reversed[m.ReversedFromID] = true
		}
	}
	for i := range movements {
		movements[i].HasBeenReversed = reversed[movements[i].ID]
	}
	return movements
}

// NetReceived sums signed stock quantities per product. Originals and their
// reversals cancel, so the sum is the net stock received regardless of order.
func (l *DayLedger) NetReceived() map[string]decimal.Decimal {
	net := make(map[string]decimal.Decimal)
	for _, m := range l.StockMovements {
		net[m.ProductID] = net[m.ProductID].Add(m.Qty)
	}
	return net
}

func netCash(movements []domain.CashMovement) decimal.Decimal {
	total := decimal.Zero
	for _, m := range movements {
		total = total.Add(m.Amount)
	}
	return total
}

func (l *DayLedger) NetExpenses() decimal.Decimal    { return netCash(l.Expenses) }
func (l *DayLedger) NetIncome() decimal.Decimal      { return netCash(l.Incomes) }
func (l *DayLedger) NetWithdrawals() decimal.Decimal { return netCash(l.Withdrawals) }

// OutstandingStockMovements lists entries still standing: reversals and
// reversed originals are excluded, but both stay in the net sums.
func (l *DayLedger) OutstandingStockMovements() []domain.StockMovement {
	outstanding := make([]domain.StockMovement, 0, len(l.StockMovements))
	for _, m := range l.StockMovements {
		if m.IsReversal || m.HasBeenReversed {
			continue
		}
		outstanding = append(outstanding, m)
	}
	return outstanding
}

func outstandingCash(movements []domain.CashMovement) []domain.CashMovement {
	outstanding := make([]domain.CashMovement, 0, len(movements))
	for _, m := range movements {
		if m.IsReversal || m.HasBeenReversed {
			continue
		}
		outstanding = append(outstanding, m)
	}
	return outstanding
}

func (l *DayLedger) OutstandingCashMovements(movementType domain.CashMovementType) []domain.CashMovement {
	switch movementType {
	case domain.CashExpense:
		return outstandingCash(l.Expenses)
	case domain.CashIncome:
		return outstandingCash(l.Incomes)
	case domain.CashWithdrawal:
		return outstandingCash(l.Withdrawals)
	default:
		all := outstandingCash(l.Expenses)
		all = append(all, outstandingCash(l.Incomes)...)
		return append(all, outstandingCash(l.Withdrawals)...)
	}
}

// LatestClosing returns the newest record for the date, draft or final.
func (l *DayLedger) LatestClosing() *domain.ClosingRecord {
	if len(l.Closings) == 0 {
		return nil
	}
	latest := l.Closings[0]
	return &latest
}

// FinalClosing returns the date's final record when the day is locked.
func (l *DayLedger) FinalClosing() *domain.ClosingRecord {
	for _, rec := range l.Closings {
		if rec.ClosingType == domain.ClosingFinal {
			final := rec
			return &final
		}
	}
	return nil
}
