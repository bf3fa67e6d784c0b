package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tutupbuku/backend/internal/cache"
	"tutupbuku/backend/internal/closing"
	"tutupbuku/backend/internal/domain"
	"tutupbuku/backend/internal/ledger"
	"tutupbuku/backend/internal/store"
	"tutupbuku/backend/internal/xid"
)

var (
	ErrAdminRequired = errors.New("admin role required")
	// ErrAlreadyReversed rejects a second reversal of the same movement.
	ErrAlreadyReversed = errors.New("movement already reversed")
	// ErrReversalOfReversal keeps the reversal chain one level deep.
	ErrReversalOfReversal = errors.New("cannot reverse a reversal")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo        store.Repository
	overview    cache.OverviewCache
	overviewTTL time.Duration
}

func New(repo store.Repository, overview cache.OverviewCache, overviewTTL time.Duration) *Service {
	if overview == nil {
		overview = cache.NoopOverviewCache{}
	}
	if overviewTTL <= 0 {
		overviewTTL = 30 * time.Second
	}
	return &Service{repo: repo, overview: overview, overviewTTL: overviewTTL}
}

func overviewKey(date string) string {
	return "overview:" + date
}

// resolveDate defaults an empty date to today and validates the format.
func (s *Service) resolveDate(date string) (string, error) {
	if date == "" {
		return time.Now().Format(domain.BusinessDateLayout), nil
	}
	if _, err := time.Parse(domain.BusinessDateLayout, date); err != nil {
		return "", fmt.Errorf("date %q: %w", date, store.ErrInvalidInput)
	}
	return date, nil
}

func (s *Service) invalidateOverview(ctx context.Context, date string) {
	if err := s.overview.Invalidate(ctx, overviewKey(date)); err != nil {
		log.Printf("[service] overview cache invalidate failed date=%s: %v", date, err)
	}
}

// dateIsFinalized reports whether the date already has a final closing; new
// movements against a finalized day are rejected because they could no longer
// change the frozen reconciliation.
func (s *Service) dateIsFinalized(ctx context.Context, date string) (bool, error) {
	records, err := s.repo.FindClosingRecords(ctx, date)
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if rec.ClosingType == domain.ClosingFinal {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *p, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, ErrAdminRequired
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if req.Name == "" || req.Unit == "" {
		return domain.Product{}, fmt.Errorf("name and unit required: %w", store.ErrInvalidInput)
	}
	if req.SalePrice.IsNegative() || req.OpeningStock.IsNegative() {
		return domain.Product{}, fmt.Errorf("price and opening stock must not be negative: %w", store.ErrInvalidInput)
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Name:         req.Name,
		Unit:         req.Unit,
		SalePrice:    req.SalePrice,
		OpeningStock: req.OpeningStock,
		Active:       true,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,price=%s,stock=%s", created.Name, created.SalePrice, created.OpeningStock))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, ErrAdminRequired
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	product := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, fmt.Errorf("name required: %w", store.ErrInvalidInput)
		}
		product.Name = name
	}
	if req.Unit != nil {
		unit := strings.TrimSpace(*req.Unit)
		if unit == "" {
			return domain.Product{}, fmt.Errorf("unit required: %w", store.ErrInvalidInput)
		}
		product.Unit = unit
	}
	if req.SalePrice != nil {
		if req.SalePrice.IsNegative() {
			return domain.Product{}, fmt.Errorf("price must not be negative: %w", store.ErrInvalidInput)
		}
		product.SalePrice = *req.SalePrice
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	saved, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_update", "product", saved.ID, fmt.Sprintf("active=%t,price=%s", saved.Active, saved.SalePrice))
	return *saved, nil
}

// ListStockMovements returns the date's movements annotated with the derived
// reversed flag. With outstandingOnly set, reversals and reversed originals
// are filtered out.
func (s *Service) ListStockMovements(ctx context.Context, date string, outstandingOnly bool) ([]domain.StockMovement, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	led, err := ledger.NewReader(s.repo).Load(ctx, date)
	if err != nil {
		return nil, err
	}
	if outstandingOnly {
		return led.OutstandingStockMovements(), nil
	}
	return led.StockMovements, nil
}

func (s *Service) RecordStockIn(ctx context.Context, req domain.StockMovementCreateRequest) (domain.StockMovement, error) {
	date, err := s.resolveDate(req.Date)
	if err != nil {
		return domain.StockMovement{}, err
	}
	if !req.Qty.IsPositive() {
		return domain.StockMovement{}, fmt.Errorf("qty must be positive: %w", store.ErrInvalidInput)
	}
	if req.ProductID == "" {
		return domain.StockMovement{}, fmt.Errorf("product_id required: %w", store.ErrInvalidInput)
	}

	finalized, err := s.dateIsFinalized(ctx, date)
	if err != nil {
		return domain.StockMovement{}, err
	}
	if finalized {
		return domain.StockMovement{}, fmt.Errorf("date %s: %w", date, store.ErrClosingFinalized)
	}

	if _, err := s.repo.GetProductByID(ctx, req.ProductID); err != nil {
		return domain.StockMovement{}, err
	}

	actor, _ := ActorFromContext(ctx)
	created, err := s.repo.CreateStockMovement(ctx, domain.StockMovement{
		ID:         xid.New("stk"),
		ProductID:  req.ProductID,
		Date:       date,
		Qty:        req.Qty,
		Note:       strings.TrimSpace(req.Note),
		RecordedBy: actor.Username,
	})
	if err != nil {
		return domain.StockMovement{}, err
	}

	s.invalidateOverview(ctx, date)
	s.logAudit(ctx, "stock_in", "stock_movement", created.ID, fmt.Sprintf("product=%s,qty=%s", created.ProductID, created.Qty))
	return *created, nil
}

// ReverseStockMovement appends a compensating movement with the negated
// quantity. The original is untouched; at most one reversal per original.
func (s *Service) ReverseStockMovement(ctx context.Context, movementID string, reason string) (domain.StockMovement, error) {
	original, err := s.repo.GetStockMovementByID(ctx, movementID)
	if err != nil {
		return domain.StockMovement{}, err
	}
	if original.IsReversal {
		return domain.StockMovement{}, ErrReversalOfReversal
	}

	finalized, err := s.dateIsFinalized(ctx, original.Date)
	if err != nil {
		return domain.StockMovement{}, err
	}
	if finalized {
		return domain.StockMovement{}, fmt.Errorf("date %s: %w", original.Date, store.ErrClosingFinalized)
	}

	sameDay, err := s.repo.ListStockMovements(ctx, original.Date)
	if err != nil {
		return domain.StockMovement{}, err
	}
	for _, m := range sameDay {
		if m.IsReversal && m.ReversedFromID == original.ID {
			return domain.StockMovement{}, ErrAlreadyReversed
		}
	}

	actor, _ := ActorFromContext(ctx)
	reversal, err := s.repo.CreateStockMovement(ctx, domain.StockMovement{
		ID:             xid.New("stk"),
		ProductID:      original.ProductID,
		Date:           original.Date,
		Qty:            original.Qty.Neg(),
		IsReversal:     true,
		ReversedFromID: original.ID,
		Note:           strings.TrimSpace(reason),
		RecordedBy:     actor.Username,
	})
	if err != nil {
		return domain.StockMovement{}, err
	}

	s.invalidateOverview(ctx, original.Date)
	s.logAudit(ctx, "stock_reverse", "stock_movement", reversal.ID, fmt.Sprintf("original=%s,reason=%s", original.ID, reason))
	return *reversal, nil
}

func (s *Service) ListCashMovements(ctx context.Context, date string, movementType domain.CashMovementType, outstandingOnly bool) ([]domain.CashMovement, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	if movementType != "" && !validCashType(movementType) {
		return nil, fmt.Errorf("type %q: %w", movementType, store.ErrInvalidInput)
	}
	led, err := ledger.NewReader(s.repo).Load(ctx, date)
	if err != nil {
		return nil, err
	}
	if outstandingOnly {
		return led.OutstandingCashMovements(movementType), nil
	}
	switch movementType {
	case domain.CashExpense:
		return led.Expenses, nil
	case domain.CashIncome:
		return led.Incomes, nil
	case domain.CashWithdrawal:
		return led.Withdrawals, nil
	default:
		all := make([]domain.CashMovement, 0, len(led.Expenses)+len(led.Incomes)+len(led.Withdrawals))
		all = append(all, led.Expenses...)
		all = append(all, led.Incomes...)
		return append(all, led.Withdrawals...), nil
	}
}

func validCashType(t domain.CashMovementType) bool {
	switch t {
	case domain.CashExpense, domain.CashIncome, domain.CashWithdrawal:
		return true
	}
	return false
}

func (s *Service) RecordCashMovement(ctx context.Context, req domain.CashMovementCreateRequest) (domain.CashMovement, error) {
	date, err := s.resolveDate(req.Date)
	if err != nil {
		return domain.CashMovement{}, err
	}
	if !validCashType(req.Type) {
		return domain.CashMovement{}, fmt.Errorf("type %q: %w", req.Type, store.ErrInvalidInput)
	}
	if !req.Amount.IsPositive() {
		return domain.CashMovement{}, fmt.Errorf("amount must be positive: %w", store.ErrInvalidInput)
	}

	finalized, err := s.dateIsFinalized(ctx, date)
	if err != nil {
		return domain.CashMovement{}, err
	}
	if finalized {
		return domain.CashMovement{}, fmt.Errorf("date %s: %w", date, store.ErrClosingFinalized)
	}

	actor, _ := ActorFromContext(ctx)
	created, err := s.repo.CreateCashMovement(ctx, domain.CashMovement{
		ID:         xid.New("csh"),
		Type:       req.Type,
		Date:       date,
		Amount:     req.Amount,
		Category:   strings.TrimSpace(req.Category),
		Note:       strings.TrimSpace(req.Note),
		RecordedBy: actor.Username,
	})
	if err != nil {
		return domain.CashMovement{}, err
	}

	s.invalidateOverview(ctx, date)
	s.logAudit(ctx, "cash_record", "cash_movement", created.ID, fmt.Sprintf("type=%s,amount=%s", created.Type, created.Amount))
	return *created, nil
}

func (s *Service) ReverseCashMovement(ctx context.Context, movementID string, reason string) (domain.CashMovement, error) {
	original, err := s.repo.GetCashMovementByID(ctx, movementID)
	if err != nil {
		return domain.CashMovement{}, err
	}
	if original.IsReversal {
		return domain.CashMovement{}, ErrReversalOfReversal
	}

	finalized, err := s.dateIsFinalized(ctx, original.Date)
	if err != nil {
		return domain.CashMovement{}, err
	}
	if finalized {
		return domain.CashMovement{}, fmt.Errorf("date %s: %w", original.Date, store.ErrClosingFinalized)
	}

	sameDay, err := s.repo.ListCashMovements(ctx, original.Date, original.Type)
	if err != nil {
		return domain.CashMovement{}, err
	}
	for _, m := range sameDay {
		if m.IsReversal && m.ReversedFromID == original.ID {
			return domain.CashMovement{}, ErrAlreadyReversed
		}
	}

	actor, _ := ActorFromContext(ctx)
	reversal, err := s.repo.CreateCashMovement(ctx, domain.CashMovement{
		ID:             xid.New("csh"),
		Type:           original.Type,
		Date:           original.Date,
		Amount:         original.Amount.Neg(),
		Category:       original.Category,
		IsReversal:     true,
		ReversedFromID: original.ID,
		Note:           strings.TrimSpace(reason),
		RecordedBy:     actor.Username,
	})
	if err != nil {
		return domain.CashMovement{}, err
	}

	s.invalidateOverview(ctx, original.Date)
	s.logAudit(ctx, "cash_reverse", "cash_movement", reversal.ID, fmt.Sprintf("original=%s,reason=%s", original.ID, reason))
	return *reversal, nil
}

// DayOverview serves the cached day view when fresh, otherwise rebuilds it
// from a new session. Cache errors degrade to a rebuild, never to a failure.
func (s *Service) DayOverview(ctx context.Context, date string) (domain.DayOverview, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return domain.DayOverview{}, err
	}

	if cached, ok, err := s.overview.Get(ctx, overviewKey(date)); err != nil {
		log.Printf("[service] overview cache read failed date=%s: %v", date, err)
	} else if ok {
		return *cached, nil
	}

	session, err := s.openSession(ctx, date)
	if err != nil {
		return domain.DayOverview{}, err
	}

	overview := session.Overview()
	if err := s.overview.Set(ctx, overviewKey(date), &overview, s.overviewTTL); err != nil {
		log.Printf("[service] overview cache write failed date=%s: %v", date, err)
	}
	return overview, nil
}

func (s *Service) openSession(ctx context.Context, date string) (*closing.Session, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}
	return closing.Open(ctx, s.repo, date, actor.Username)
}

func (s *Service) SeedOpeningCash(ctx context.Context, date string, amount decimal.Decimal) (domain.DayOverview, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return domain.DayOverview{}, err
	}

	session, err := s.openSession(ctx, date)
	if err != nil {
		return domain.DayOverview{}, err
	}
	if err := session.SeedOpeningCash(ctx, amount); err != nil {
		return domain.DayOverview{}, err
	}

	s.invalidateOverview(ctx, date)
	s.logAudit(ctx, "closing_seed_opening_cash", "closing", date, fmt.Sprintf("amount=%s", amount))
	return session.Overview(), nil
}

// SaveClosingDraft applies the submitted counts to a fresh session and
// persists them. Repeating a draft with the same payload is a no-op beyond
// the overwrite.
func (s *Service) SaveClosingDraft(ctx context.Context, date string, req domain.ClosingDraftRequest) (domain.DayOverview, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return domain.DayOverview{}, err
	}

	session, err := s.openSession(ctx, date)
	if err != nil {
		return domain.DayOverview{}, err
	}
	if err := applyDraft(session, req); err != nil {
		return domain.DayOverview{}, err
	}
	if err := session.SaveDraft(ctx); err != nil {
		return domain.DayOverview{}, err
	}

	s.invalidateOverview(ctx, date)
	s.logAudit(ctx, "closing_save_draft", "closing", date, fmt.Sprintf("counts=%d", len(req.Remaining)))
	return session.Overview(), nil
}

func applyDraft(session *closing.Session, req domain.ClosingDraftRequest) error {
	for productID, qty := range req.Remaining {
		if err := session.SetRemaining(productID, qty); err != nil {
			return err
		}
	}
	if req.CashCounted != nil {
		if err := session.SetCashCounted(*req.CashCounted); err != nil {
			return err
		}
	}
	return nil
}

// LockClosing finalizes the date. The request may carry last-minute counts;
// they are applied before the lock gates run.
func (s *Service) LockClosing(ctx context.Context, date string, req domain.ClosingDraftRequest) (domain.DayOverview, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return domain.DayOverview{}, err
	}

	session, err := s.openSession(ctx, date)
	if err != nil {
		return domain.DayOverview{}, err
	}
	if err := applyDraft(session, req); err != nil {
		return domain.DayOverview{}, err
	}
	if err := session.Lock(ctx); err != nil {
		return domain.DayOverview{}, err
	}

	s.invalidateOverview(ctx, date)
	s.logAudit(ctx, "closing_lock", "closing", date, fmt.Sprintf("revenue=%s", session.Record().TotalRevenue))
	return session.Overview(), nil
}

func (s *Service) SetNextDayOpeningCash(ctx context.Context, date string, amount decimal.Decimal) (domain.DayOverview, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return domain.DayOverview{}, err
	}

	session, err := s.openSession(ctx, date)
	if err != nil {
		return domain.DayOverview{}, err
	}
	if err := session.SetNextDayOpeningCash(ctx, amount); err != nil {
		return domain.DayOverview{}, err
	}

	s.invalidateOverview(ctx, date)
	s.logAudit(ctx, "closing_handoff", "closing", date, fmt.Sprintf("amount=%s", amount))
	return session.Overview(), nil
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	if date != "" {
		if _, err := time.Parse(domain.BusinessDateLayout, date); err != nil {
			return nil, fmt.Errorf("date %q: %w", date, store.ErrInvalidInput)
		}
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.ListAuditLogs(ctx, date, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("aud"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[service] audit log write failed action=%s: %v", action, err)
	}
}
