// Package postgres implements store.Repository over PostgreSQL. Schema is
// managed outside the binary; queries here assume the tables exist.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"tutupbuku/backend/internal/domain"
	"tutupbuku/backend/internal/store"
	"tutupbuku/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, unit, sale_price, opening_stock, active, created_at, updated_at
		FROM products
		WHERE active = true
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Unit, &p.SalePrice, &p.OpeningStock, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, unit, sale_price, opening_stock, active, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Unit, &p.SalePrice, &p.OpeningStock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, unit, sale_price, opening_stock, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, product.ID, product.Name, product.Unit, product.SalePrice, product.OpeningStock, product.Active, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	// opening_stock is deliberately absent here; only UpdateProductStock and
	// ApplyLock touch it.
	err := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, unit = $3, sale_price = $4, active = $5, updated_at = now()
		WHERE id = $1
		RETURNING id, name, unit, sale_price, opening_stock, active, created_at, updated_at
	`, product.ID, product.Name, product.Unit, product.SalePrice, product.Active).Scan(
		&product.ID, &product.Name, &product.Unit, &product.SalePrice,
		&product.OpeningStock, &product.Active, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) UpdateProductStock(ctx context.Context, productID string, newOpeningStock decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET opening_stock = $2, updated_at = now() WHERE id = $1
	`, productID, newOpeningStock)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("product %s: %w", productID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListStockMovements(ctx context.Context, date string) ([]domain.StockMovement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, business_date, qty, is_reversal, reversed_from_id, note, recorded_by, created_at
		FROM stock_movements
		WHERE business_date = $1
		ORDER BY created_at, id
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0, 32)
	for rows.Next() {
		m, err := scanStockMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func (s *Store) GetStockMovementByID(ctx context.Context, id string) (*domain.StockMovement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, business_date, qty, is_reversal, reversed_from_id, note, recorded_by, created_at
		FROM stock_movements
		WHERE id = $1
	`, id)
	m, err := scanStockMovement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *Store) CreateStockMovement(ctx context.Context, movement domain.StockMovement) (*domain.StockMovement, error) {
	if movement.ID == "" {
		movement.ID = xid.New("stk")
	}
	movement.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_movements (id, product_id, business_date, qty, is_reversal, reversed_from_id, note, recorded_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, movement.ID, movement.ProductID, movement.Date, movement.Qty,
		movement.IsReversal, nullableString(movement.ReversedFromID), movement.Note, movement.RecordedBy, movement.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("product %s: %w", movement.ProductID, store.ErrNotFound)
		}
		return nil, err
	}
	return &movement, nil
}

func (s *Store) ListCashMovements(ctx context.Context, date string, movementType domain.CashMovementType) ([]domain.CashMovement, error) {
	query := `
		SELECT id, movement_type, business_date, amount, category, note, is_reversal, reversed_from_id, recorded_by, created_at
		FROM cash_movements
		WHERE business_date = $1
	`
	args := []any{date}
	if movementType != "" {
		query += ` AND movement_type = $2`
		args = append(args, string(movementType))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]domain.CashMovement, 0, 32)
	for rows.Next() {
		m, err := scanCashMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func (s *Store) GetCashMovementByID(ctx context.Context, id string) (*domain.CashMovement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, movement_type, business_date, amount, category, note, is_reversal, reversed_from_id, recorded_by, created_at
		FROM cash_movements
		WHERE id = $1
	`, id)
	m, err := scanCashMovement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *Store) CreateCashMovement(ctx context.Context, movement domain.CashMovement) (*domain.CashMovement, error) {
	if movement.ID == "" {
		movement.ID = xid.New("csh")
	}
	movement.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cash_movements (id, movement_type, business_date, amount, category, note, is_reversal, reversed_from_id, recorded_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, movement.ID, string(movement.Type), movement.Date, movement.Amount, movement.Category,
		movement.Note, movement.IsReversal, nullableString(movement.ReversedFromID), movement.RecordedBy, movement.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func (s *Store) FindClosingRecords(ctx context.Context, date string) ([]domain.ClosingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, business_date, sequence, closing_type, opening_cash, total_sold, total_revenue,
		       cash_counted, total_withdrawals, stock_snapshot, next_day_opening_cash,
		       closed_by, created_at, updated_at
		FROM closing_records
		WHERE business_date = $1
		ORDER BY sequence DESC
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.ClosingRecord, 0, 4)
	for rows.Next() {
		rec, err := scanClosing(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) FindPriorFinalClosing(ctx context.Context, beforeDate string) (*domain.ClosingRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, business_date, sequence, closing_type, opening_cash, total_sold, total_revenue,
		       cash_counted, total_withdrawals, stock_snapshot, next_day_opening_cash,
		       closed_by, created_at, updated_at
		FROM closing_records
		WHERE closing_type = 'final' AND business_date < $1
		ORDER BY business_date DESC
		LIMIT 1
	`, beforeDate)
	rec, err := scanClosing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("final closing before %s: %w", beforeDate, store.ErrNotFound)
		}
		return nil, err
	}
	return &rec, nil
}

func (s *Store) InsertClosing(ctx context.Context, record domain.ClosingRecord) (*domain.ClosingRecord, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	saved, err := insertClosingTx(ctx, tx, record)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

func insertClosingTx(ctx context.Context, tx *sql.Tx, record domain.ClosingRecord) (*domain.ClosingRecord, error) {
	var finalCount int
	if err := tx.QueryRowContext(ctx, `
		SELECT count(*) FROM closing_records WHERE business_date = $1 AND closing_type = 'final'
	`, record.Date).Scan(&finalCount); err != nil {
		return nil, err
	}
	if finalCount > 0 {
		return nil, fmt.Errorf("date %s: %w", record.Date, store.ErrClosingFinalized)
	}

	if record.ID == "" {
		record.ID = xid.New("cls")
	}
	snapshot, err := store.EncodeSnapshot(record.PerProductRemaining)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	err = tx.QueryRowContext(ctx, `
		INSERT INTO closing_records
			(id, business_date, sequence, closing_type, opening_cash, total_sold, total_revenue,
			 cash_counted, total_withdrawals, stock_snapshot, next_day_opening_cash,
			 closed_by, created_at, updated_at)
		VALUES ($1, $2,
			(SELECT COALESCE(MAX(sequence), 0) + 1 FROM closing_records WHERE business_date = $2),
			$3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING sequence
	`, record.ID, record.Date, string(record.ClosingType), record.OpeningCash, record.TotalSold,
		record.TotalRevenue, nullDecimal(record.CashCounted), record.TotalWithdrawals, snapshot,
		nullDecimal(record.NextDayOpeningCash), record.ClosedBy, record.CreatedAt, record.UpdatedAt,
	).Scan(&record.Sequence)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("date %s: %w", record.Date, store.ErrClosingFinalized)
		}
		return nil, err
	}
	return &record, nil
}

func (s *Store) UpdateClosing(ctx context.Context, id string, patch domain.ClosingPatch) (*domain.ClosingRecord, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	saved, err := updateClosingTx(ctx, tx, id, patch)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

func updateClosingTx(ctx context.Context, tx *sql.Tx, id string, patch domain.ClosingPatch) (*domain.ClosingRecord, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, business_date, sequence, closing_type, opening_cash, total_sold, total_revenue,
		       cash_counted, total_withdrawals, stock_snapshot, next_day_opening_cash,
		       closed_by, created_at, updated_at
		FROM closing_records
		WHERE id = $1
		FOR UPDATE
	`, id)
	rec, err := scanClosing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("closing %s: %w", id, store.ErrNotFound)
		}
		return nil, err
	}

	if rec.ClosingType == domain.ClosingFinal {
		// Finalized records accept exactly one mutation: the next-day handoff
		// while it is still empty.
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
		rec.PerProductRemaining = patch.PerProductRemaining
	}
	if patch.NextDayOpeningCash != nil {
		next := *patch.NextDayOpeningCash
		rec.NextDayOpeningCash = &next
	}
	if patch.ClosedBy != nil {
		rec.ClosedBy = *patch.ClosedBy
	}

	snapshot, err := store.EncodeSnapshot(rec.PerProductRemaining)
	if err != nil {
		return nil, err
	}
	rec.UpdatedAt = time.Now()

	_, err = tx.ExecContext(ctx, `
		UPDATE closing_records
		SET closing_type = $2, opening_cash = $3, total_sold = $4, total_revenue = $5,
		    cash_counted = $6, total_withdrawals = $7, stock_snapshot = $8,
		    next_day_opening_cash = $9, closed_by = $10, updated_at = $11
		WHERE id = $1
	`, rec.ID, string(rec.ClosingType), rec.OpeningCash, rec.TotalSold, rec.TotalRevenue,
		nullDecimal(rec.CashCounted), rec.TotalWithdrawals, snapshot,
		nullDecimal(rec.NextDayOpeningCash), rec.ClosedBy, rec.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("date %s: %w", rec.Date, store.ErrClosingFinalized)
		}
		return nil, err
	}
	return &rec, nil
}

// ApplyLock commits the whole lock transition in one serializable
// transaction: the per-product stock rollover and the final record, all or
// nothing.
func (s *Store) ApplyLock(ctx context.Context, write store.LockWrite) (*domain.ClosingRecord, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	for productID, qty := range write.ProductStock {
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET opening_stock = $2, updated_at = now() WHERE id = $1
		`, productID, qty)
		if err != nil {
			return nil, fmt.Errorf("roll stock for %s: %w", productID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, fmt.Errorf("product %s: %w", productID, store.ErrNotFound)
		}
	}

	var saved *domain.ClosingRecord
	if write.RecordID != "" {
		finalType := domain.ClosingFinal
		saved, err = updateClosingTx(ctx, tx, write.RecordID, domain.ClosingPatch{
			ClosingType:         &finalType,
			TotalSold:           &write.Record.TotalSold,
			TotalRevenue:        &write.Record.TotalRevenue,
			CashCounted:         write.Record.CashCounted,
			TotalWithdrawals:    &write.Record.TotalWithdrawals,
			PerProductRemaining: write.Record.PerProductRemaining,
			ClosedBy:            &write.Record.ClosedBy,
		})
	} else {
		saved, err = insertClosingTx(ctx, tx, write.Record)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("aud")
	}
	entry.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
	`
	args := []any{}
	if date != "" {
		query += ` WHERE created_at::date = $1::date`
		args = append(args, date)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var e domain.AuditLog
		if err := rows.Scan(&e.ID, &e.ActorUsername, &e.ActorRole, &e.Action, &e.EntityType, &e.EntityID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", user.Username, store.ErrInvalidInput)
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("user %s: %w", username, store.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStockMovement(row rowScanner) (domain.StockMovement, error) {
	var m domain.StockMovement
	var reversedFrom sql.NullString
	err := row.Scan(&m.ID, &m.ProductID, &m.Date, &m.Qty, &m.IsReversal, &reversedFrom, &m.Note, &m.RecordedBy, &m.CreatedAt)
	if err != nil {
		return domain.StockMovement{}, err
	}
	m.ReversedFromID = reversedFrom.String
	return m, nil
}

func scanCashMovement(row rowScanner) (domain.CashMovement, error) {
	var m domain.CashMovement
	var movementType string
	var reversedFrom sql.NullString
	err := row.Scan(&m.ID, &movementType, &m.Date, &m.Amount, &m.Category, &m.Note, &m.IsReversal, &reversedFrom, &m.RecordedBy, &m.CreatedAt)
	if err != nil {
		return domain.CashMovement{}, err
	}
	m.Type = domain.CashMovementType(movementType)
	m.ReversedFromID = reversedFrom.String
	return m, nil
}

func scanClosing(row rowScanner) (domain.ClosingRecord, error) {
	var rec domain.ClosingRecord
	var closingType string
	var cashCounted, nextDay decimal.NullDecimal
	var snapshot []byte
	err := row.Scan(&rec.ID, &rec.Date, &rec.Sequence, &closingType, &rec.OpeningCash, &rec.TotalSold,
		&rec.TotalRevenue, &cashCounted, &rec.TotalWithdrawals, &snapshot, &nextDay, &rec.ClosedBy,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return domain.ClosingRecord{}, err
	}
	rec.ClosingType = domain.ClosingType(closingType)
	if cashCounted.Valid {
		counted := cashCounted.Decimal
		rec.CashCounted = &counted
	}
	if nextDay.Valid {
		next := nextDay.Decimal
		rec.NextDayOpeningCash = &next
	}
	remaining, err := store.DecodeSnapshot(snapshot)
	if err != nil {
		return domain.ClosingRecord{}, err
	}
	rec.PerProductRemaining = remaining
	return rec, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

var (
	_ store.Repository   = (*Store)(nil)
	_ store.AtomicLocker = (*Store)(nil)
)
