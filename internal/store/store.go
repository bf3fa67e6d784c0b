package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"tutupbuku/backend/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks a request rejected before any write happened.
	ErrInvalidInput = errors.New("invalid input")
	// ErrClosingFinalized guards the one-final-record-per-date invariant: a
	// finalized day accepts no new records and no mutation beyond the one-shot
	// next-day opening cash handoff.
	ErrClosingFinalized = errors.New("closing already finalized for date")
)

// Repository is the record-store contract. Every call is a single round trip;
// implementations must not assume multi-call transactions are available to
// callers.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	// UpdateProductStock is called exclusively by the closing lock transition.
	UpdateProductStock(ctx context.Context, productID string, newOpeningStock decimal.Decimal) error

	ListStockMovements(ctx context.Context, date string) ([]domain.StockMovement, error)
	GetStockMovementByID(ctx context.Context, id string) (*domain.StockMovement, error)
	CreateStockMovement(ctx context.Context, movement domain.StockMovement) (*domain.StockMovement, error)

	// ListCashMovements filters by type; an empty type returns all three.
	ListCashMovements(ctx context.Context, date string, movementType domain.CashMovementType) ([]domain.CashMovement, error)
	GetCashMovementByID(ctx context.Context, id string) (*domain.CashMovement, error)
	CreateCashMovement(ctx context.Context, movement domain.CashMovement) (*domain.CashMovement, error)

	// FindClosingRecords returns the date's records newest-first.
	FindClosingRecords(ctx context.Context, date string) ([]domain.ClosingRecord, error)
	// FindPriorFinalClosing returns the most recent final record strictly
	// before the given date, or ErrNotFound for first-time use.
	FindPriorFinalClosing(ctx context.Context, beforeDate string) (*domain.ClosingRecord, error)
	InsertClosing(ctx context.Context, record domain.ClosingRecord) (*domain.ClosingRecord, error)
	UpdateClosing(ctx context.Context, id string, patch domain.ClosingPatch) (*domain.ClosingRecord, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

// LockWrite bundles everything the lock transition must persist: the
// per-product stock rollover and the final closing record (updating the
// existing draft when RecordID is set, inserting otherwise).
type LockWrite struct {
	RecordID     string
	Record       domain.ClosingRecord
	ProductStock map[string]decimal.Decimal
}

// AtomicLocker is an optional upgrade interface. Stores backed by an engine
// with transactions implement it so the lock transition commits or fails as a
// whole; callers fall back to per-call writes when it is absent.
type AtomicLocker interface {
	ApplyLock(ctx context.Context, write LockWrite) (*domain.ClosingRecord, error)
}
