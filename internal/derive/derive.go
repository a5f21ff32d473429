package derive

import (
	"time"

	"github.com/orderpulse/orderpulse/internal/order"
)

// Derive computes the full metrics row for one order at the evaluation
// instant now. It is pure: missing or unknown inputs land in the documented
// zero/null branches, never an error, and the input is not mutated. now is
// only consulted for the breach durations of in-flight orders, so callers
// evaluating a batch must pass one captured instant for the whole batch.
func Derive(o order.Record, now time.Time) Record {
	r := Record{
		Key:            o.Key,
		BuyerNP:        o.BuyerNP,
		SellerNP:       o.SellerNP,
		NetworkOrderID: o.NetworkOrderID,
		ProviderID:     o.ProviderID,
		TransactionID:  o.TransactionID,
		Domain:         o.Domain,
		Category:       o.Category,
		Status:         o.Status,
		EvaluatedAt:    now,
	}
	m := &r.Metrics

	statusSplits(o, m)
	cancellationFlag(o, m)
	tatBreachSplit(o, m)
	deliveredByObligation(o, m)
	breachDurations(o, now, m)
	deliveryAgeing(o, m)
	onTimeDeliveries(o, m)
	averages(o, m)
	fnbMinuteBuckets(o, m)
	tatSecondsBuckets(o, m)
	tatDayBuckets(o, m)
	tatSameDay(o, m)
	nonFnBDaysDiff(o, m)
	shippedMark(o, m)

	return r
}
