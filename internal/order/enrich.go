package order

import "time"

// fnbGrace is the courtesy window added to promised delivery times for food
// orders before any turnaround time is measured against them.
const fnbGrace = 5 * time.Minute

// day is the unit for whole-day differences.
const day = 24 * time.Hour

// Enrich folds one raw feed row into its canonical Record: status and
// categories normalized, the promised time graced and defaulted, lifecycle
// timestamps selected per status, and the precomputed difference fields
// filled in. Enrich never fails; missing inputs leave the dependent fields
// nil.
func Enrich(raw Raw) Record {
	status := NormalizeStatus(repairStatus(raw), raw.FulfillmentStatus)
	consolidated := ConsolidateCategory(raw.SellerNP, raw.Domain, raw.ItemCategory, raw.ConsolidatedCategory)
	category := CollapseCategory(consolidated)

	// Grace applies only to a promised time the feed actually sent; the
	// created-at fallback is used as-is.
	promised := raw.PromisedAt
	if promised != nil && consolidated == "F&B" {
		t := promised.Add(fnbGrace)
		promised = &t
	}
	if promised == nil {
		promised = raw.CreatedAt
	}

	// Terminal timestamps only count once the order actually reached that
	// state; a completion time on a cancelled order is feed noise.
	var completed, cancelled *time.Time
	if status == StatusDelivered {
		completed = raw.CompletedAt
	}
	if status == StatusCancelled {
		cancelled = raw.CancelledAt
	}

	var updated *time.Time
	switch status {
	case StatusDelivered:
		updated = completed
	case StatusCancelled:
		updated = cancelled
	default:
		updated = raw.CreatedAt
	}

	rec := Record{
		Key:                  IdentityKey(raw.SellerNP, raw.NetworkOrderID, raw.ProviderID, raw.TransactionID),
		BuyerNP:              raw.BuyerNP,
		SellerNP:             raw.SellerNP,
		NetworkOrderID:       raw.NetworkOrderID,
		ProviderID:           raw.ProviderID,
		TransactionID:        raw.TransactionID,
		Domain:               raw.Domain,
		Category:             category,
		ConsolidatedCategory: consolidated,
		Status:               status,
		CreatedAt:            raw.CreatedAt,
		ReadyToShipAt:        raw.ReadyToShipAt,
		ShippedAt:            raw.ShippedAt,
		PromisedAt:           promised,
		UpdatedAt:            updated,
		CancellationCode:     NormalizeCancellationCode(raw.CancellationCode, raw.FulfillmentStatus, status),
		NoKey:                1,
	}

	rec.TatDif = diffIn(promised, completed, time.Second)
	rec.TatDiffDays = diffIn(promised, completed, day)
	rec.DayDiff = diffIn(raw.CreatedAt, completed, day)
	rec.MinDiff = diffIn(raw.CreatedAt, completed, time.Minute)
	rec.TatTime = diffIn(raw.CreatedAt, promised, time.Minute)

	onTime := 0.0
	if status == StatusDelivered && completed != nil && promised != nil && !completed.After(*promised) {
		onTime = 1
	}
	rec.OnTimeDel = &onTime

	return rec
}

// EnrichBatch enriches a whole feed batch and assigns unit weights across it.
func EnrichBatch(raws []Raw) []Record {
	recs := make([]Record, len(raws))
	for i, raw := range raws {
		recs[i] = Enrich(raw)
	}
	AssignWeights(recs)
	return recs
}

// AssignWeights sets the additive unit weight across a batch: the first
// record of each (order, seller, transaction, category) group counts 1 and
// duplicates count 0, so summed indicators still count each order once.
func AssignWeights(recs []Record) {
	seen := make(map[string]bool, len(recs))
	for i := range recs {
		k := recs[i].NetworkOrderID + "|" + recs[i].SellerNP + "|" + recs[i].TransactionID + "|" + recs[i].ConsolidatedCategory
		if seen[k] {
			recs[i].NoKey = 0
			continue
		}
		seen[k] = true
		recs[i].NoKey = 1
	}
}

// diffIn returns b minus a in whole units, truncated toward zero the way the
// upstream warehouse computes date differences. Nil operands yield nil.
func diffIn(a, b *time.Time, unit time.Duration) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := float64(b.Sub(*a) / unit)
	return &v
}
