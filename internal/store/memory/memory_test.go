package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"tutupbuku/backend/internal/domain"
	"tutupbuku/backend/internal/store"
)

const testDate = "2025-03-10"

func TestInsertClosingAssignsSequence(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.InsertClosing(ctx, domain.ClosingRecord{
		Date: testDate, ClosingType: domain.ClosingPartial,
		OpeningCash: decimal.NewFromInt(100), ClosedBy: "staff",
	})
	if err != nil {
		t.Fatalf("insert first: %v", err)
	}
	second, err := s.InsertClosing(ctx, domain.ClosingRecord{
		Date: testDate, ClosingType: domain.ClosingPartial,
		OpeningCash: decimal.NewFromInt(100), ClosedBy: "staff",
	})
	if err != nil {
		t.Fatalf("insert second: %v", err)
	}
	if first.Sequence != 1 || second.Sequence != 2 {
		t.Fatalf("expected sequences 1 and 2, got %d and %d", first.Sequence, second.Sequence)
	}

	records, err := s.FindClosingRecords(ctx, testDate)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(records) != 2 || records[0].Sequence != 2 {
		t.Fatalf("expected newest-first ordering, got %+v", records)
	}
}

func TestFinalizedDateRejectsInserts(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.InsertClosing(ctx, domain.ClosingRecord{
		Date: testDate, ClosingType: domain.ClosingFinal,
		OpeningCash: decimal.NewFromInt(100), ClosedBy: "staff",
	})
	if err != nil {
		t.Fatalf("insert final: %v", err)
	}

	_, err = s.InsertClosing(ctx, domain.ClosingRecord{
		Date: testDate, ClosingType: domain.ClosingPartial,
		OpeningCash: decimal.NewFromInt(100), ClosedBy: "staff",
	})
	if !errors.Is(err, store.ErrClosingFinalized) {
		t.Fatalf("expected ErrClosingFinalized, got %v", err)
	}
}

func TestFinalRecordAllowsOnlyHandoffPatch(t *testing.T) {
	s := New()
	ctx := context.Background()

	final, err := s.InsertClosing(ctx, domain.ClosingRecord{
		Date: testDate, ClosingType: domain.ClosingFinal,
		OpeningCash: decimal.NewFromInt(100), ClosedBy: "staff",
	})
	if err != nil {
		t.Fatalf("insert final: %v", err)
	}

	revenue := decimal.NewFromInt(999)
	if _, err := s.UpdateClosing(ctx, final.ID, domain.ClosingPatch{
		TotalRevenue: &revenue,
	}); !errors.Is(err, store.ErrClosingFinalized) {
		t.Fatalf("expected totals patch rejection, got %v", err)
	}

	handoff := decimal.NewFromInt(100)
	saved, err := s.UpdateClosing(ctx, final.ID, domain.ClosingPatch{
		NextDayOpeningCash: &handoff,
	})
	if err != nil {
		t.Fatalf("handoff patch: %v", err)
	}
	if saved.NextDayOpeningCash == nil || !saved.NextDayOpeningCash.Equal(handoff) {
		t.Fatalf("expected handoff 100, got %v", saved.NextDayOpeningCash)
	}

	again := decimal.NewFromInt(200)
	if _, err := s.UpdateClosing(ctx, final.ID, domain.ClosingPatch{
		NextDayOpeningCash: &again,
	}); !errors.Is(err, store.ErrClosingFinalized) {
		t.Fatalf("expected second handoff rejection, got %v", err)
	}
}

func TestFindPriorFinalClosing(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.FindPriorFinalClosing(ctx, testDate); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound with no history, got %v", err)
	}

	for _, date := range []string{"2025-03-07", "2025-03-08"} {
		if _, err := s.InsertClosing(ctx, domain.ClosingRecord{
			Date: date, ClosingType: domain.ClosingFinal,
			OpeningCash: decimal.NewFromInt(100), ClosedBy: "staff",
		}); err != nil {
			t.Fatalf("insert final for %s: %v", date, err)
		}
	}
	// A draft on a later date must not shadow the final history.
	if _, err := s.InsertClosing(ctx, domain.ClosingRecord{
		Date: "2025-03-09", ClosingType: domain.ClosingPartial,
		OpeningCash: decimal.NewFromInt(100), ClosedBy: "staff",
	}); err != nil {
		t.Fatalf("insert draft: %v", err)
	}

	prior, err := s.FindPriorFinalClosing(ctx, testDate)
	if err != nil {
		t.Fatalf("find prior final: %v", err)
	}
	if prior.Date != "2025-03-08" {
		t.Fatalf("expected most recent final 2025-03-08, got %s", prior.Date)
	}
}

func TestUpdateProductPreservesOpeningStock(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	product, err := s.GetProductByID(ctx, "prd-kopi")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	before := product.OpeningStock

	updated := *product
	updated.Name = "Kopi Sachet Baru"
	updated.OpeningStock = decimal.NewFromInt(999)
	saved, err := s.UpdateProduct(ctx, updated)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !saved.OpeningStock.Equal(before) {
		t.Fatalf("update must not touch opening stock, got %s", saved.OpeningStock)
	}
	if saved.Name != "Kopi Sachet Baru" {
		t.Fatalf("expected name update, got %s", saved.Name)
	}
}
