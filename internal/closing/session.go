package closing

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"tutupbuku/backend/internal/domain"
	"tutupbuku/backend/internal/ledger"
	"tutupbuku/backend/internal/reconcile"
	"tutupbuku/backend/internal/store"
)

type State string

const (
	// StateUnset: no opening cash known for the date yet.
	StateUnset State = "unset"
	// StateDraft: opening cash known, reconciliation editable.
	StateDraft State = "draft"
	// StateLocked: final record written, stock rolled forward, immutable.
	StateLocked State = "locked"
)

// Session is the single authority over one business day's closing lifecycle.
// It owns the stock table and the counted cash, and it is the only component
// that writes closing records or product opening stock. In-memory state only
// advances after the corresponding writes succeed.
type Session struct {
	repo  store.Repository
	date  string
	actor string

	state         State
	openingCash   decimal.Decimal
	openingSeeded bool
	cashCounted   *decimal.Decimal
	handedOff     bool
	// restoredLocked marks a session opened on an already-final day: its
	// table was rebuilt from post-rollover stock and no longer reflects the
	// closed day's per-product sales.
	restoredLocked bool

	table  *reconcile.StockTable
	ledger *ledger.DayLedger
	record *domain.ClosingRecord
}

// Open loads the date's ledger and reconstructs the session state: a final
// record means LOCKED, a known opening cash (seeded draft record or prior
// day's handoff) means DRAFT, otherwise UNSET. The actor stamps ClosedBy on
// every write; date and actor are explicit so sessions are testable with
// synthetic values.
func Open(ctx context.Context, repo store.Repository, date string, actor string) (*Session, error) {
	led, err := ledger.NewReader(repo).Load(ctx, date)
	if err != nil {
		return nil, err
	}

	products, err := repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	s := &Session{
		repo:   repo,
		date:   date,
		actor:  actor,
		state:  StateUnset,
		table:  reconcile.NewStockTable(products, led.NetReceived()),
		ledger: led,
	}

	if final := led.FinalClosing(); final != nil {
		s.state = StateLocked
		s.record = final
		s.restoredLocked = true
		s.openingCash = final.OpeningCash
		s.openingSeeded = true
		s.cashCounted = final.CashCounted
		s.handedOff = final.NextDayOpeningCash != nil
		s.restoreRemaining(final.PerProductRemaining)
		return s, nil
	}

	if latest := led.LatestClosing(); latest != nil {
		s.state = StateDraft
		s.record = latest
		s.openingCash = latest.OpeningCash
		s.openingSeeded = true
		s.cashCounted = latest.CashCounted
		s.restoreRemaining(latest.PerProductRemaining)
		return s, nil
	}

	if led.PriorFinal != nil && led.PriorFinal.NextDayOpeningCash != nil {
		s.state = StateDraft
		s.openingCash = *led.PriorFinal.NextDayOpeningCash
		s.openingSeeded = true
	}

	return s, nil
}

func (s *Session) restoreRemaining(remaining map[string]decimal.Decimal) {
	for productID, qty := range remaining {
		if err := s.table.SetRemaining(productID, qty); err != nil {
			// A product deactivated after the record was written is not in
			// today's table; the stored count is still in the record.
			log.Printf("[closing] skipping stored count for %s: %v", productID, err)
		}
	}
}

func (s *Session) Date() string                 { return s.date }
func (s *Session) State() State                 { return s.state }
func (s *Session) HandedOff() bool              { return s.handedOff }
func (s *Session) OpeningCash() decimal.Decimal { return s.openingCash }
func (s *Session) OpeningSeeded() bool          { return s.openingSeeded }
func (s *Session) Table() *reconcile.StockTable { return s.table }
func (s *Session) Ledger() *ledger.DayLedger    { return s.ledger }
func (s *Session) Record() *domain.ClosingRecord {
	return s.record
}

func (s *Session) CashCounted() *decimal.Decimal {
	if s.cashCounted == nil {
		return nil
	}
	counted := *s.cashCounted
	return &counted
}

// CashInputs assembles the expected-cash components. Live drafts compute
// revenue from the table; a locked day uses the frozen record totals, since
// locking rolled product stock forward and a ledger recomputation would be
// wrong from then on.
func (s *Session) CashInputs() reconcile.CashInputs {
	if s.state == StateLocked && s.record != nil {
		return reconcile.CashInputs{
			OpeningCash:      s.record.OpeningCash,
			TotalRevenue:     s.record.TotalRevenue,
			TotalIncome:      s.ledger.NetIncome(),
			TotalExpenses:    s.ledger.NetExpenses(),
			TotalWithdrawals: s.record.TotalWithdrawals,
		}
	}
	return reconcile.CashInputs{
		OpeningCash:      s.openingCash,
		TotalRevenue:     s.table.Totals().TotalRevenue,
		TotalIncome:      s.ledger.NetIncome(),
		TotalExpenses:    s.ledger.NetExpenses(),
		TotalWithdrawals: s.ledger.NetWithdrawals(),
	}
}

// Reconciliation returns the cash comparison, or nil while no drawer count
// has been entered.
func (s *Session) Reconciliation() *reconcile.CashResult {
	if s.cashCounted == nil {
		return nil
	}
	result := reconcile.Reconcile(s.CashInputs(), *s.cashCounted)
	return &result
}

// ReadyToLock reports whether every lock precondition is met.
func (s *Session) ReadyToLock() bool {
	return s.state == StateDraft && s.openingSeeded && s.cashCounted != nil && s.table.AllCounted()
}

// SeedOpeningCash starts the day: UNSET only, amount non-negative. The seed
// is persisted immediately as a partial record so the immutable-once-seeded
// rule survives restarts.
func (s *Session) SeedOpeningCash(ctx context.Context, amount decimal.Decimal) error {
	if s.state == StateLocked {
		return ErrInvalidState
	}
	if s.openingSeeded {
		return ErrOpeningCashSeeded
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: opening cash %s", ErrNegativeAmount, amount)
	}

	saved, err := s.repo.InsertClosing(ctx, domain.ClosingRecord{
		Date:        s.date,
		ClosingType: domain.ClosingPartial,
		OpeningCash: amount,
		ClosedBy:    s.actor,
	})
	if err != nil {
		return fmt.Errorf("persist seeded opening cash: %w", err)
	}

	s.record = saved
	s.openingCash = amount
	s.openingSeeded = true
	s.state = StateDraft
	return nil
}

// SetRemaining records a counted remaining quantity. Draft only; pure table
// update, no I/O.
func (s *Session) SetRemaining(productID string, qty decimal.Decimal) error {
	if s.state != StateDraft {
		return ErrInvalidState
	}
	return s.table.SetRemaining(productID, qty)
}

// SetCashCounted records the physically counted drawer amount. Draft only.
func (s *Session) SetCashCounted(amount decimal.Decimal) error {
	if s.state != StateDraft {
		return ErrInvalidState
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: counted cash %s", ErrNegativeAmount, amount)
	}
	s.cashCounted = &amount
	return nil
}

// SaveDraft persists the current partial progress. Idempotent: repeated calls
// overwrite the same date's draft, last write wins. Product stock is never
// touched here.
func (s *Session) SaveDraft(ctx context.Context) error {
	if s.state != StateDraft {
		return ErrInvalidState
	}
	remaining := s.table.RemainingCounts()
	if len(remaining) == 0 && s.cashCounted == nil {
		return ErrNothingToSave
	}

	totals := s.table.Totals()
	withdrawals := s.ledger.NetWithdrawals()

	if s.record == nil {
		saved, err := s.repo.InsertClosing(ctx, domain.ClosingRecord{
			Date:                s.date,
			ClosingType:         domain.ClosingPartial,
			OpeningCash:         s.openingCash,
			TotalSold:           totals.TotalSold,
			TotalRevenue:        totals.TotalRevenue,
			CashCounted:         s.cashCounted,
			TotalWithdrawals:    withdrawals,
			PerProductRemaining: remaining,
			ClosedBy:            s.actor,
		})
		if err != nil {
			return fmt.Errorf("insert draft closing: %w", err)
		}
		s.record = saved
		return nil
	}

	partial := domain.ClosingPartial
	saved, err := s.repo.UpdateClosing(ctx, s.record.ID, domain.ClosingPatch{
		ClosingType:         &partial,
		TotalSold:           &totals.TotalSold,
		TotalRevenue:        &totals.TotalRevenue,
		CashCounted:         s.cashCounted,
		TotalWithdrawals:    &withdrawals,
		PerProductRemaining: remaining,
		ClosedBy:            &s.actor,
	})
	if err != nil {
		return fmt.Errorf("update draft closing: %w", err)
	}
	s.record = saved
	return nil
}

// Lock finalizes the day: every product counted, cash counted, opening cash
// seeded. A fresh guard read rejects a date that was finalized elsewhere.
// On success each product's opening stock becomes its counted remaining (the
// irreversible inventory rollover) and the final record freezes the totals.
func (s *Session) Lock(ctx context.Context) error {
	if s.state != StateDraft {
		if s.state == StateLocked {
			return store.ErrClosingFinalized
		}
		return ErrInvalidState
	}
	if !s.table.AllCounted() {
		return fmt.Errorf("%w: uncounted products %v", ErrNotReady, s.table.UncountedProducts())
	}
	if s.cashCounted == nil {
		return fmt.Errorf("%w: drawer cash not counted", ErrNotReady)
	}

	// Guard read: narrows (not eliminates) the two-device race window.
	existing, err := s.repo.FindClosingRecords(ctx, s.date)
	if err != nil {
		return fmt.Errorf("guard read before lock: %w", err)
	}
	for _, rec := range existing {
		if rec.ClosingType == domain.ClosingFinal {
			return store.ErrClosingFinalized
		}
	}

	totals := s.table.Totals()
	remaining := s.table.RemainingCounts()
	withdrawals := s.ledger.NetWithdrawals()

	final := domain.ClosingRecord{
		Date:                s.date,
		ClosingType:         domain.ClosingFinal,
		OpeningCash:         s.openingCash,
		TotalSold:           totals.TotalSold,
		TotalRevenue:        totals.TotalRevenue,
		CashCounted:         s.cashCounted,
		TotalWithdrawals:    withdrawals,
		PerProductRemaining: remaining,
		ClosedBy:            s.actor,
	}

	var saved *domain.ClosingRecord
	if locker, ok := s.repo.(store.AtomicLocker); ok {
		recordID := ""
		if s.record != nil {
			recordID = s.record.ID
		}
		saved, err = locker.ApplyLock(ctx, store.LockWrite{
			RecordID:     recordID,
			Record:       final,
			ProductStock: remaining,
		})
		if err != nil {
			return fmt.Errorf("apply lock: %w", err)
		}
	} else {
		saved, err = s.lockPerCall(ctx, final, remaining)
		if err != nil {
			return err
		}
	}

	s.record = saved
	s.state = StateLocked
	s.handedOff = false
	return nil
}

// lockPerCall is the fallback for stores without transactions: one write per
// product, then the final record. All stock writes must succeed before the
// final record is written; otherwise the lock is unsuccessful and the failing
// products are reported for a retry.
func (s *Session) lockPerCall(ctx context.Context, final domain.ClosingRecord, remaining map[string]decimal.Decimal) (*domain.ClosingRecord, error) {
	applied := make([]string, 0, len(remaining))
	failed := make([]string, 0)
	causes := make([]error, 0)

	for _, line := range s.table.Lines() {
		productID := line.Product.ID
		qty := remaining[productID]
		if err := s.repo.UpdateProductStock(ctx, productID, qty); err != nil {
			log.Printf("[closing] stock write failed during lock date=%s product=%s: %v", s.date, productID, err)
			failed = append(failed, productID)
			causes = append(causes, fmt.Errorf("product %s: %w", productID, err))
			continue
		}
		applied = append(applied, productID)
	}
	if len(failed) > 0 {
		return nil, &PartialLockError{Applied: applied, Failed: failed, Causes: causes}
	}

	if s.record != nil {
		finalType := domain.ClosingFinal
		saved, err := s.repo.UpdateClosing(ctx, s.record.ID, domain.ClosingPatch{
			ClosingType:         &finalType,
			TotalSold:           &final.TotalSold,
			TotalRevenue:        &final.TotalRevenue,
			CashCounted:         final.CashCounted,
			TotalWithdrawals:    &final.TotalWithdrawals,
			PerProductRemaining: final.PerProductRemaining,
			ClosedBy:            &final.ClosedBy,
		})
		if err != nil {
			return nil, fmt.Errorf("finalize closing record: %w", err)
		}
		return saved, nil
	}

	saved, err := s.repo.InsertClosing(ctx, final)
	if err != nil {
		return nil, fmt.Errorf("insert final closing record: %w", err)
	}
	return saved, nil
}

// SetNextDayOpeningCash hands the drawer forward. Valid once, only on a
// locked day, and it does not reopen the record for edits.
func (s *Session) SetNextDayOpeningCash(ctx context.Context, amount decimal.Decimal) error {
	if s.state != StateLocked {
		return ErrInvalidState
	}
	if s.handedOff {
		return ErrHandoffDone
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: next day opening cash %s", ErrNegativeAmount, amount)
	}

	saved, err := s.repo.UpdateClosing(ctx, s.record.ID, domain.ClosingPatch{
		NextDayOpeningCash: &amount,
	})
	if err != nil {
		return fmt.Errorf("persist next day opening cash: %w", err)
	}
	s.record = saved
	s.handedOff = true
	return nil
}

// Overview builds the client-facing day view from the session state. On a
// locked day the totals come from the frozen record, like CashInputs: locking
// rolled opening stock forward, so a table recomputation would report the
// next day's baseline (zero sold) instead of the closed day's figures.
func (s *Session) Overview() domain.DayOverview {
	totals := s.table.Totals()
	locked := s.state == StateLocked && s.record != nil
	if locked {
		totals.TotalSold = s.record.TotalSold
		totals.TotalRevenue = s.record.TotalRevenue
	}
	inputs := s.CashInputs()

	cash := domain.CashSummary{
		OpeningCash:      inputs.OpeningCash,
		TotalRevenue:     inputs.TotalRevenue,
		TotalIncome:      inputs.TotalIncome,
		TotalExpenses:    inputs.TotalExpenses,
		TotalWithdrawals: inputs.TotalWithdrawals,
		ExpectedCash:     reconcile.ExpectedCash(inputs),
		CashCounted:      s.CashCounted(),
	}
	if result := s.Reconciliation(); result != nil {
		difference := result.Difference
		cash.Difference = &difference
		cash.Classification = string(result.Classification)
		switch result.Classification {
		case reconcile.ClassShortage:
			loss := result.Loss
			cash.Loss = &loss
		case reconcile.ClassSurplus:
			extra := result.Extra
			cash.Extra = &extra
		}
	}

	rows := make([]domain.StockRow, 0, len(s.table.Lines()))
	for _, line := range s.table.Lines() {
		row := domain.StockRow{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Unit:      line.Product.Unit,
			SalePrice: line.Product.SalePrice,
			Opening:   line.Opening(),
			Received:  line.Received,
			Available: line.Available(),
			Sold:      line.Sold(),
			Revenue:   line.Revenue(),
		}
		if line.Remaining != nil {
			remaining := *line.Remaining
			row.Remaining = &remaining
		}
		if s.restoredLocked {
			// Per-product sold cannot be reconstructed after the rollover;
			// only the record's day totals survive.
			row.Sold = decimal.Zero
			row.Revenue = decimal.Zero
		}
		rows = append(rows, row)
	}

	return domain.DayOverview{
		Date:         s.date,
		State:        string(s.state),
		HandedOff:    s.handedOff,
		Rows:         rows,
		TotalSold:    totals.TotalSold,
		TotalRevenue: totals.TotalRevenue,
		Cash:         cash,
		ReadyToLock:  s.ReadyToLock(),
		Closing:      s.record,
	}
}
