// Package memory implements store.Repository with in-process maps. It backs
// the test suite and the zero-dependency demo mode; it persists nothing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tutupbuku/backend/internal/domain"
	"tutupbuku/backend/internal/store"
	"tutupbuku/backend/internal/xid"
)

// Store is safe for concurrent use. It deliberately does not implement
// store.AtomicLocker, so callers exercise the per-call lock path.
type Store struct {
	mu sync.RWMutex

	products       map[string]domain.Product
	stockMovements map[string]domain.StockMovement
	cashMovements  map[string]domain.CashMovement
	closings       map[string]domain.ClosingRecord
	auditLogs      []domain.AuditLog
	users          map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		products:       make(map[string]domain.Product),
		stockMovements: make(map[string]domain.StockMovement),
		cashMovements:  make(map[string]domain.CashMovement),
		closings:       make(map[string]domain.ClosingRecord),
		users:          make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns a store preloaded with demo products and two accounts
// (admin/admin123, staff/staff123). Plain-text seed passwords are upgraded to
// bcrypt hashes by the auth layer on first load.
func NewSeeded() *Store {
	s := New()
	now := time.Now()

	products := []domain.Product{
		{ID: "prd-kopi", Name: "Kopi Sachet", Unit: "pcs", SalePrice: decimal.NewFromInt(3000), OpeningStock: decimal.NewFromInt(40)},
		{ID: "prd-teh", Name: "Teh Botol", Unit: "botol", SalePrice: decimal.NewFromInt(5000), OpeningStock: decimal.NewFromInt(24)},
		{ID: "prd-roti", Name: "Roti Tawar", Unit: "bungkus", SalePrice: decimal.NewFromInt(15000), OpeningStock: decimal.NewFromInt(10)},
		{ID: "prd-gula", Name: "Gula Pasir", Unit: "kg", SalePrice: decimal.NewFromInt(17500), OpeningStock: decimal.NewFromFloat(12.5)},
		{ID: "prd-beras", Name: "Beras Premium", Unit: "kg", SalePrice: decimal.NewFromInt(14000), OpeningStock: decimal.NewFromInt(50)},
		{ID: "prd-minyak", Name: "Minyak Goreng 1L", Unit: "botol", SalePrice: decimal.NewFromInt(19000), OpeningStock: decimal.NewFromInt(18)},
	}
	for _, p := range products {
		p.Active = true
		p.CreatedAt = now
		p.UpdatedAt = now
		s.products[p.ID] = p
	}

	s.users["admin"] = domain.UserAccount{Username: "admin", Password: "admin123", Role: "admin", Active: true, CreatedAt: now}
	s.users["staff"] = domain.UserAccount{Username: "staff", Password: "staff123", Role: "staff", Active: true, CreatedAt: now}

	return s
}

func cloneClosing(rec domain.ClosingRecord) domain.ClosingRecord {
	out := rec
	if rec.CashCounted != nil {
		counted := *rec.CashCounted
		out.CashCounted = &counted
	}
	if rec.NextDayOpeningCash != nil {
		next := *rec.NextDayOpeningCash
		out.NextDayOpeningCash = &next
	}
	if rec.PerProductRemaining != nil {
		remaining := make(map[string]decimal.Decimal, len(rec.PerProductRemaining))
		for k, v := range rec.PerProductRemaining {
			remaining[k] = v
		}
		out.PerProductRemaining = remaining
	}
	return out
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", product.ID, store.ErrNotFound)
	}
	product.CreatedAt = existing.CreatedAt
	product.OpeningStock = existing.OpeningStock
	product.UpdatedAt = time.Now()
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) UpdateProductStock(ctx context.Context, productID string, newOpeningStock decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return fmt.Errorf("product %s: %w", productID, store.ErrNotFound)
	}
	p.OpeningStock = newOpeningStock
	p.UpdatedAt = time.Now()
	s.products[productID] = p
	return nil
}

func (s *Store) ListStockMovements(ctx context.Context, date string) ([]domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.StockMovement, 0)
	for _, m := range s.stockMovements {
		if m.Date == date {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetStockMovementByID(ctx context.Context, id string) (*domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.stockMovements[id]
	if !ok {
		return nil, fmt.Errorf("stock movement %s: %w", id, store.ErrNotFound)
	}
	return &m, nil
}

func (s *Store) CreateStockMovement(ctx context.Context, movement domain.StockMovement) (*domain.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[movement.ProductID]; !ok {
		return nil, fmt.Errorf("product %s: %w", movement.ProductID, store.ErrNotFound)
	}
	if movement.ID == "" {
		movement.ID = xid.New("stk")
	}
	movement.CreatedAt = time.Now()
	s.stockMovements[movement.ID] = movement
	return &movement, nil
}

func (s *Store) ListCashMovements(ctx context.Context, date string, movementType domain.CashMovementType) ([]domain.CashMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CashMovement, 0)
	for _, m := range s.cashMovements {
		if m.Date != date {
			continue
		}
		if movementType != "" && m.Type != movementType {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetCashMovementByID(ctx context.Context, id string) (*domain.CashMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.cashMovements[id]
	if !ok {
		return nil, fmt.Errorf("cash movement %s: %w", id, store.ErrNotFound)
	}
	return &m, nil
}

func (s *Store) CreateCashMovement(ctx context.Context, movement domain.CashMovement) (*domain.CashMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if movement.ID == "" {
		movement.ID = xid.New("csh")
	}
	movement.CreatedAt = time.Now()
	s.cashMovements[movement.ID] = movement
	return &movement, nil
}

func (s *Store) FindClosingRecords(ctx context.Context, date string) ([]domain.ClosingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ClosingRecord, 0)
	for _, rec := range s.closings {
		if rec.Date == date {
			out = append(out, cloneClosing(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Sequence > out[j].Sequence
	})
	return out, nil
}

func (s *Store) FindPriorFinalClosing(ctx context.Context, beforeDate string) (*domain.ClosingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.ClosingRecord
	for _, rec := range s.closings {
		if rec.ClosingType != domain.ClosingFinal || rec.Date >= beforeDate {
			continue
		}
		if best == nil || rec.Date > best.Date {
			found := cloneClosing(rec)
			best = &found
		}
	}
	if best == nil {
		return nil, fmt.Errorf("final closing before %s: %w", beforeDate, store.ErrNotFound)
	}
	return best, nil
}

func (s *Store) InsertClosing(ctx context.Context, record domain.ClosingRecord) (*domain.ClosingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxSequence := 0
	for _, rec := range s.closings {
		if rec.Date != record.Date {
			continue
		}
		if rec.ClosingType == domain.ClosingFinal {
			return nil, fmt.Errorf("date %s: %w", record.Date, store.ErrClosingFinalized)
		}
		if rec.Sequence > maxSequence {
			maxSequence = rec.Sequence
		}
	}

	record = cloneClosing(record)
	if record.ID == "" {
		record.ID = xid.New("cls")
	}
	record.Sequence = maxSequence + 1
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now
	s.closings[record.ID] = record

	out := cloneClosing(record)
	return &out, nil
}

func (s *Store) UpdateClosing(ctx context.Context, id string, patch domain.ClosingPatch) (*domain.ClosingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.closings[id]
	if !ok {
		return nil, fmt.Errorf("closing %s: %w", id, store.ErrNotFound)
	}

	if rec.ClosingType == domain.ClosingFinal {
		// Finalized records accept exactly one mutation: setting the next-day
		// handoff amount while it is still empty.
		onlyHandoff := patch.ClosingType == nil && patch.OpeningCash == nil &&
			patch.TotalSold == nil && patch.TotalRevenue == nil && patch.CashCounted == nil &&
			patch.TotalWithdrawals == nil && patch.PerProductRemaining == nil &&
			patch.ClosedBy == nil && patch.NextDayOpeningCash != nil
		if !onlyHandoff || rec.NextDayOpeningCash != nil {
			return nil, fmt.Errorf("closing %s: %w", id, store.ErrClosingFinalized)
		}
	}

	if patch.ClosingType != nil {
		rec.ClosingType = *patch.ClosingType
	}
	if patch.OpeningCash != nil {
		rec.OpeningCash = *patch.OpeningCash
	}
	if patch.TotalSold != nil {
		rec.TotalSold = *patch.TotalSold
	}
	if patch.TotalRevenue != nil {
		rec.TotalRevenue = *patch.TotalRevenue
	}
	if patch.CashCounted != nil {
		counted := *patch.CashCounted
		rec.CashCounted = &counted
	}
	if patch.TotalWithdrawals != nil {
		rec.TotalWithdrawals = *patch.TotalWithdrawals
	}
	if patch.PerProductRemaining != nil {
		remaining := make(map[string]decimal.Decimal, len(patch.PerProductRemaining))
		for k, v := range patch.PerProductRemaining {
			remaining[k] = v
		}
		rec.PerProductRemaining = remaining
	}
	if patch.NextDayOpeningCash != nil {
		next := *patch.NextDayOpeningCash
		rec.NextDayOpeningCash = &next
	}
	if patch.ClosedBy != nil {
		rec.ClosedBy = *patch.ClosedBy
	}
	rec.UpdatedAt = time.Now()
	s.closings[id] = rec

	out := cloneClosing(rec)
	return &out, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("aud")
	}
	entry.CreatedAt = time.Now()
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AuditLog, 0)
	for i := len(s.auditLogs) - 1; i >= 0; i-- {
		entry := s.auditLogs[i]
		if date != "" && entry.CreatedAt.Format(domain.BusinessDateLayout) != date {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return fmt.Errorf("user %s: %w", user.Username, store.ErrInvalidInput)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.Username] = user
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.UserAccount, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return fmt.Errorf("user %s: %w", username, store.ErrNotFound)
	}
	u.Password = password
	s.users[username] = u
	return nil
}

var _ store.Repository = (*Store)(nil)
