package order

import (
	"testing"
	"time"
)

func at(t *testing.T, s string) *time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		t.Fatalf("bad fixture time %q: %v", s, err)
	}
	return &ts
}

func wantFloat(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s = nil, want %v", name, want)
	}
	if *got != want {
		t.Fatalf("%s = %v, want %v", name, *got, want)
	}
}

func TestEnrichDeliveredGrocery(t *testing.T) {
	raw := Raw{
		BuyerNP:        "buyer.example.in",
		SellerNP:       "seller.example.in",
		NetworkOrderID: "ORD-100",
		ProviderID:     "P1",
		TransactionID:  "TXN-100",
		Domain:         "ONDC:RET10",
		ItemCategory:   "Grocery",
		OrderStatus:    "Completed",
		CreatedAt:      at(t, "2025-03-01T10:00:00"),
		PromisedAt:     at(t, "2025-03-01T11:00:00"),
		CompletedAt:    at(t, "2025-03-01T11:30:00"),
		ShippedAt:      at(t, "2025-03-01T10:20:00"),
	}
	rec := Enrich(raw)

	if rec.Status != StatusDelivered {
		t.Fatalf("status = %q, want Delivered", rec.Status)
	}
	if rec.Category != "Grocery" {
		t.Fatalf("category = %q, want Grocery", rec.Category)
	}
	if rec.Key != IdentityKey(raw.SellerNP, raw.NetworkOrderID, raw.ProviderID, raw.TransactionID) {
		t.Fatalf("key mismatch: %q", rec.Key)
	}
	if rec.UpdatedAt == nil || !rec.UpdatedAt.Equal(*raw.CompletedAt) {
		t.Fatalf("updated at should be the completion time, got %v", rec.UpdatedAt)
	}

	// 10:00 created, 11:00 promised, 11:30 completed.
	wantFloat(t, "tat_dif", rec.TatDif, 1800)
	wantFloat(t, "tat_diff_days", rec.TatDiffDays, 0)
	wantFloat(t, "day_diff", rec.DayDiff, 0)
	wantFloat(t, "min_diff", rec.MinDiff, 90)
	wantFloat(t, "tat_time", rec.TatTime, 60)
	wantFloat(t, "on_time_del", rec.OnTimeDel, 0) // 30 minutes late
	if rec.NoKey != 1 {
		t.Fatalf("no_key = %d, want 1", rec.NoKey)
	}
	if rec.CancellationCode != nil {
		t.Fatalf("delivered order must not carry a cancellation code, got %q", *rec.CancellationCode)
	}
}

func TestEnrichFnBGrace(t *testing.T) {
	raw := Raw{
		SellerNP:       sellerMagicpin,
		NetworkOrderID: "ORD-200",
		TransactionID:  "TXN-200",
		OrderStatus:    "Completed",
		CreatedAt:      at(t, "2025-03-01T10:00:00"),
		PromisedAt:     at(t, "2025-03-01T11:00:00"),
		CompletedAt:    at(t, "2025-03-01T11:04:00"),
	}
	rec := Enrich(raw)

	if rec.ConsolidatedCategory != "F&B" || rec.Category != "F&B" {
		t.Fatalf("category = %q/%q, want F&B", rec.ConsolidatedCategory, rec.Category)
	}
	want := at(t, "2025-03-01T11:05:00")
	if rec.PromisedAt == nil || !rec.PromisedAt.Equal(*want) {
		t.Fatalf("promised at = %v, want %v (5 minute grace)", rec.PromisedAt, want)
	}
	// Completed a minute inside the graced window: early arrival.
	wantFloat(t, "tat_dif", rec.TatDif, -60)
	wantFloat(t, "on_time_del", rec.OnTimeDel, 1)
}

func TestEnrichPromisedFallback(t *testing.T) {
	raw := Raw{
		SellerNP:       sellerMagicpin, // F&B, but the grace must not reach the fallback
		NetworkOrderID: "ORD-201",
		TransactionID:  "TXN-201",
		OrderStatus:    "In Process",
		CreatedAt:      at(t, "2025-03-01T10:00:00"),
	}
	rec := Enrich(raw)

	if rec.PromisedAt == nil || !rec.PromisedAt.Equal(*raw.CreatedAt) {
		t.Fatalf("promised at = %v, want created-at fallback %v", rec.PromisedAt, raw.CreatedAt)
	}
	wantFloat(t, "tat_time", rec.TatTime, 0)
	if rec.TatDif != nil {
		t.Fatalf("tat_dif should be nil without a completion time, got %v", *rec.TatDif)
	}
}

func TestEnrichUpdatedAtSelection(t *testing.T) {
	created := at(t, "2025-03-01T10:00:00")
	completed := at(t, "2025-03-01T12:00:00")
	cancelled := at(t, "2025-03-01T11:00:00")

	cases := []struct {
		name string
		raw  Raw
		want *time.Time
	}{
		{
			name: "delivered uses completion",
			raw:  Raw{OrderStatus: "Completed", CreatedAt: created, CompletedAt: completed},
			want: completed,
		},
		{
			name: "cancelled uses cancellation",
			raw:  Raw{OrderStatus: "Cancelled", CreatedAt: created, CancelledAt: cancelled},
			want: cancelled,
		},
		{
			name: "in process uses creation",
			raw:  Raw{OrderStatus: "Packed", CreatedAt: created},
			want: created,
		},
		{
			name: "cancelled ignores completion noise",
			raw:  Raw{OrderStatus: "Cancelled", CreatedAt: created, CompletedAt: completed, CancelledAt: cancelled},
			want: cancelled,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := Enrich(tc.raw)
			if rec.UpdatedAt == nil || !rec.UpdatedAt.Equal(*tc.want) {
				t.Fatalf("updated at = %v, want %v", rec.UpdatedAt, tc.want)
			}
		})
	}
}

func TestEnrichCancelledDropsCompletionFields(t *testing.T) {
	raw := Raw{
		NetworkOrderID:   "ORD-300",
		OrderStatus:      "Cancelled",
		CancellationCode: "004",
		CreatedAt:        at(t, "2025-03-01T10:00:00"),
		PromisedAt:       at(t, "2025-03-01T11:00:00"),
		CompletedAt:      at(t, "2025-03-01T12:00:00"), // noise
		CancelledAt:      at(t, "2025-03-01T10:30:00"),
	}
	rec := Enrich(raw)

	if rec.Status != StatusCancelled {
		t.Fatalf("status = %q, want Cancelled", rec.Status)
	}
	if rec.TatDif != nil || rec.DayDiff != nil || rec.MinDiff != nil {
		t.Fatalf("completion-derived fields must be nil on cancelled orders: %v %v %v",
			rec.TatDif, rec.DayDiff, rec.MinDiff)
	}
	if rec.CancellationCode == nil || *rec.CancellationCode != "004" {
		t.Fatalf("cancellation code = %v, want 004", rec.CancellationCode)
	}
	wantFloat(t, "on_time_del", rec.OnTimeDel, 0)
}

func TestEnrichTruncatesTowardZero(t *testing.T) {
	// 2 days 5 hours is 2 whole days; 53 hours of minutes is 3180.
	raw := Raw{
		OrderStatus: "Completed",
		CreatedAt:   at(t, "2025-01-01T00:00:00"),
		PromisedAt:  at(t, "2025-01-01T06:00:00"),
		CompletedAt: at(t, "2025-01-03T05:00:00"),
	}
	rec := Enrich(raw)
	wantFloat(t, "day_diff", rec.DayDiff, 2)
	wantFloat(t, "min_diff", rec.MinDiff, 3180)
	wantFloat(t, "tat_diff_days", rec.TatDiffDays, 1) // 47 hours
}

func TestAssignWeights(t *testing.T) {
	recs := []Record{
		{NetworkOrderID: "O1", SellerNP: "s", TransactionID: "t", ConsolidatedCategory: "F&B"},
		{NetworkOrderID: "O1", SellerNP: "s", TransactionID: "t", ConsolidatedCategory: "F&B"},
		{NetworkOrderID: "O1", SellerNP: "s", TransactionID: "t", ConsolidatedCategory: "Grocery"},
		{NetworkOrderID: "O2", SellerNP: "s", TransactionID: "t", ConsolidatedCategory: "F&B"},
	}
	AssignWeights(recs)

	want := []int{1, 0, 1, 1}
	for i, rec := range recs {
		if rec.NoKey != want[i] {
			t.Fatalf("recs[%d].NoKey = %d, want %d", i, rec.NoKey, want[i])
		}
	}
}

func TestEnrichBatch(t *testing.T) {
	raws := []Raw{
		{NetworkOrderID: "O1", SellerNP: "s", TransactionID: "t", OrderStatus: "Completed"},
		{NetworkOrderID: "O1", SellerNP: "s", TransactionID: "t", OrderStatus: "Completed"},
	}
	recs := EnrichBatch(raws)
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].NoKey != 1 || recs[1].NoKey != 0 {
		t.Fatalf("weights = %d,%d, want 1,0", recs[0].NoKey, recs[1].NoKey)
	}
}
