package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BusinessDateLayout is the canonical YYYY-MM-DD format used for all
// business-date fields and record-store queries.
const BusinessDateLayout = "2006-01-02"

type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	OpeningStock decimal.Decimal `json:"opening_stock"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type ProductCreateRequest struct {
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	OpeningStock decimal.Decimal `json:"opening_stock"`
}

// ProductUpdateRequest intentionally has no opening-stock field: opening stock
// is rolled forward only by locking a day's closing.
type ProductUpdateRequest struct {
	Name      *string          `json:"name,omitempty"`
	Unit      *string          `json:"unit,omitempty"`
	SalePrice *decimal.Decimal `json:"sale_price,omitempty"`
	Active    *bool            `json:"active,omitempty"`
}

// StockMovement is an append-only intake record. A reversal is a new movement
// with the negated quantity referencing the original; originals are never
// mutated or deleted.
type StockMovement struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	Date           string          `json:"date"`
	Qty            decimal.Decimal `json:"qty"`
	IsReversal     bool            `json:"is_reversal"`
	ReversedFromID string          `json:"reversed_from_id,omitempty"`
	Note           string          `json:"note,omitempty"`
	RecordedBy     string          `json:"recorded_by"`
	CreatedAt      time.Time       `json:"created_at"`

	// HasBeenReversed is derived at read time: true when another movement
	// references this one via ReversedFromID. Never stored.
	HasBeenReversed bool `json:"has_been_reversed"`
}

type CashMovementType string

const (
	CashExpense    CashMovementType = "expense"
	CashIncome     CashMovementType = "income"
	CashWithdrawal CashMovementType = "withdrawal"
)

// CashMovement follows the same append-only reversal convention as
// StockMovement.
type CashMovement struct {
	ID             string           `json:"id"`
	Type           CashMovementType `json:"type"`
	Date           string           `json:"date"`
	Amount         decimal.Decimal  `json:"amount"`
	Category       string           `json:"category,omitempty"`
	Note           string           `json:"note,omitempty"`
	IsReversal     bool             `json:"is_reversal"`
	ReversedFromID string           `json:"reversed_from_id,omitempty"`
	RecordedBy     string           `json:"recorded_by"`
	CreatedAt      time.Time        `json:"created_at"`

	HasBeenReversed bool `json:"has_been_reversed"`
}

type StockMovementCreateRequest struct {
	ProductID string          `json:"product_id"`
	Date      string          `json:"date,omitempty"`
	Qty       decimal.Decimal `json:"qty"`
	Note      string          `json:"note,omitempty"`
}

type CashMovementCreateRequest struct {
	Type     CashMovementType `json:"type"`
	Date     string           `json:"date,omitempty"`
	Amount   decimal.Decimal  `json:"amount"`
	Category string           `json:"category,omitempty"`
	Note     string           `json:"note,omitempty"`
}

type ReverseMovementRequest struct {
	Reason     string `json:"reason,omitempty"`
	ManagerPIN string `json:"manager_pin"`
}

type ClosingType string

const (
	ClosingPartial ClosingType = "partial"
	ClosingFinal   ClosingType = "final"
)

// ClosingRecord is one row per (date, sequence): a draft while partial, the
// immutable day snapshot once final. CashCounted and NextDayOpeningCash are
// pointers because both are legitimately absent on drafts and freshly locked
// records respectively.
type ClosingRecord struct {
	ID                  string                     `json:"id"`
	Date                string                     `json:"date"`
	Sequence            int                        `json:"sequence"`
	ClosingType         ClosingType                `json:"closing_type"`
	OpeningCash         decimal.Decimal            `json:"opening_cash"`
	TotalSold           decimal.Decimal            `json:"total_sold"`
	TotalRevenue        decimal.Decimal            `json:"total_revenue"`
	CashCounted         *decimal.Decimal           `json:"cash_counted,omitempty"`
	TotalWithdrawals    decimal.Decimal            `json:"total_withdrawals"`
	PerProductRemaining map[string]decimal.Decimal `json:"per_product_remaining,omitempty"`
	NextDayOpeningCash  *decimal.Decimal           `json:"next_day_opening_cash,omitempty"`
	ClosedBy            string                     `json:"closed_by"`
	CreatedAt           time.Time                  `json:"created_at"`
	UpdatedAt           time.Time                  `json:"updated_at"`
}

// ClosingPatch is a partial update applied to an existing closing record. Nil
// fields are left untouched.
type ClosingPatch struct {
	ClosingType         *ClosingType
	OpeningCash         *decimal.Decimal
	TotalSold           *decimal.Decimal
	TotalRevenue        *decimal.Decimal
	CashCounted         *decimal.Decimal
	TotalWithdrawals    *decimal.Decimal
	PerProductRemaining map[string]decimal.Decimal
	NextDayOpeningCash  *decimal.Decimal
	ClosedBy            *string
}

type SeedOpeningCashRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type ClosingDraftRequest struct {
	Remaining   map[string]decimal.Decimal `json:"remaining,omitempty"`
	CashCounted *decimal.Decimal           `json:"cash_counted,omitempty"`
}

type NextDayOpeningCashRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// StockRow is the per-product reconciliation view served to clients.
type StockRow struct {
	ProductID string           `json:"product_id"`
	Name      string           `json:"name"`
	Unit      string           `json:"unit"`
	SalePrice decimal.Decimal  `json:"sale_price"`
	Opening   decimal.Decimal  `json:"opening"`
	Received  decimal.Decimal  `json:"received"`
	Available decimal.Decimal  `json:"available"`
	Remaining *decimal.Decimal `json:"remaining,omitempty"`
	Sold      decimal.Decimal  `json:"sold"`
	Revenue   decimal.Decimal  `json:"revenue"`
}

type CashSummary struct {
	OpeningCash      decimal.Decimal  `json:"opening_cash"`
	TotalRevenue     decimal.Decimal  `json:"total_revenue"`
	TotalIncome      decimal.Decimal  `json:"total_income"`
	TotalExpenses    decimal.Decimal  `json:"total_expenses"`
	TotalWithdrawals decimal.Decimal  `json:"total_withdrawals"`
	ExpectedCash     decimal.Decimal  `json:"expected_cash"`
	CashCounted      *decimal.Decimal `json:"cash_counted,omitempty"`
	Difference       *decimal.Decimal `json:"difference,omitempty"`
	Classification   string           `json:"classification,omitempty"`
	Loss             *decimal.Decimal `json:"loss,omitempty"`
	Extra            *decimal.Decimal `json:"extra,omitempty"`
}

type DayOverview struct {
	Date         string          `json:"date"`
	State        string          `json:"state"`
	HandedOff    bool            `json:"handed_off"`
	Rows         []StockRow      `json:"rows"`
	TotalSold    decimal.Decimal `json:"total_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Cash         CashSummary     `json:"cash"`
	ReadyToLock  bool            `json:"ready_to_lock"`
	Closing      *ClosingRecord  `json:"closing,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}
