package store

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// The closing snapshot is the one wire format that must stay parseable across
// historical records: {"closingStock":[{"productId":...,"newOpeningStock":...}]}.
// It lives only at this persistence boundary; in-memory types use plain maps.

type closingStockEntry struct {
	ProductID       string          `json:"productId"`
	NewOpeningStock decimal.Decimal `json:"newOpeningStock"`
}

type closingSnapshot struct {
	ClosingStock []closingStockEntry `json:"closingStock"`
}

// EncodeSnapshot serializes per-product remaining counts in the stable
// snapshot format. Entries are sorted by product id so encoded blobs are
// deterministic.
func EncodeSnapshot(remaining map[string]decimal.Decimal) ([]byte, error) {
	entries := make([]closingStockEntry, 0, len(remaining))
	for productID, qty := range remaining {
		entries = append(entries, closingStockEntry{ProductID: productID, NewOpeningStock: qty})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ProductID < entries[j].ProductID })
	return json.Marshal(closingSnapshot{ClosingStock: entries})
}

// DecodeSnapshot parses a stored snapshot blob. An empty blob decodes to an
// empty map so pre-count drafts round-trip cleanly.
func DecodeSnapshot(blob []byte) (map[string]decimal.Decimal, error) {
	remaining := make(map[string]decimal.Decimal)
	if len(blob) == 0 {
		return remaining, nil
	}
	var snapshot closingSnapshot
	if err := json.Unmarshal(blob, &snapshot); err != nil {
		return nil, fmt.Errorf("decode closing snapshot: %w", err)
	}
	for _, entry := range snapshot.ClosingStock {
		remaining[entry.ProductID] = entry.NewOpeningStock
	}
	return remaining, nil
}
