package derive

import (
	"time"

	"github.com/orderpulse/orderpulse/internal/order"
)

// bucket is one (predicate, destination) pair in an ordered bucket family.
type bucket struct {
	match bool
	dst   *float64
	val   float64
}

// firstMatch runs a bucket family top to bottom and stops at the first hit,
// which keeps every family mutually exclusive per record by construction.
func firstMatch(family []bucket) {
	for _, b := range family {
		if b.match {
			*b.dst = b.val
			return
		}
	}
}

// statusSplits emits the per-status indicators. Every ingested order counts
// as confirmed regardless of where it is in its lifecycle.
func statusSplits(o order.Record, m *Metrics) {
	w := float64(o.NoKey)
	m.Confirmed = w
	switch o.Status {
	case order.StatusDelivered:
		m.Delivered = w
	case order.StatusCancelled:
		m.Cancelled = w
	case order.StatusInProcess:
		m.InProcess = w
	case order.StatusPartDelivered:
		m.PartDelivered = w
	}
}

func cancellationFlag(o order.Record, m *Metrics) {
	if o.CancellationCode != nil {
		m.CancellationFlag = 1
	}
}

// tatBreachSplit passes the raw deviation through and splits delivered
// orders into on-promise and beyond-promise. Negative deviations (early
// arrivals) intentionally match neither split.
func tatBreachSplit(o order.Record, m *Metrics) {
	td := floatOrZero(o.TatDif)
	m.TatBreach = td
	if o.Status != order.StatusDelivered {
		return
	}
	w := float64(o.NoKey)
	switch {
	case td == 0:
		m.DeliveredWithTAT = w
	case td > 0:
		m.DeliveredBeyondTAT = w
	}
}

// deliveredByObligation marks orders whose final update landed at or before
// the promised time.
func deliveredByObligation(o order.Record, m *Metrics) {
	if o.Status != order.StatusDelivered || o.UpdatedAt == nil || o.PromisedAt == nil {
		return
	}
	if !o.UpdatedAt.After(*o.PromisedAt) {
		m.DBO = float64(o.NoKey)
	}
}

// breachDurations measures how far past the promised time the order ran:
// settled orders measure to their final update, in-flight orders to now.
// Negative values mean early. Statuses with no breach concept, and records
// missing a required timestamp, leave all three null.
func breachDurations(o order.Record, now time.Time, m *Metrics) {
	if o.PromisedAt == nil {
		return
	}
	var ref time.Time
	switch o.Status {
	case order.StatusDelivered, order.StatusCancelled:
		if o.UpdatedAt == nil {
			return
		}
		ref = *o.UpdatedAt
	case order.StatusInProcess:
		ref = now
	default:
		return
	}
	d := ref.Sub(*o.PromisedAt)
	m.BreachMins = num(d.Minutes())
	m.BreachHrs = num(d.Hours())
	m.BreachDays = num(d.Hours() / 24)
}

// deliveryAgeing buckets delivered orders by whole days from creation to
// completion. Same Day carries the unit weight; the later buckets count
// plain 1s.
func deliveryAgeing(o order.Record, m *Metrics) {
	if o.Status != order.StatusDelivered || o.DayDiff == nil {
		return
	}
	d, w := *o.DayDiff, float64(o.NoKey)
	firstMatch([]bucket{
		{d == 0, &m.SameDay, w},
		{d == 1, &m.NextDay, 1},
		{d == 2, &m.DayPlus2, 1},
		{d > 2, &m.MoreThan2Days, 1},
	})
}

func onTimeDeliveries(o order.Record, m *Metrics) {
	m.OnTimeDeliveries = floatOrZero(o.OnTimeDel)
}

// averages fills the measures that downstream dashboards average rather than
// sum. They apply to delivered orders only and stay null otherwise so the
// averages exclude non-applicable rows.
func averages(o order.Record, m *Metrics) {
	if o.Status != order.StatusDelivered {
		return
	}
	if o.TatTime != nil {
		m.AverageTAT = num(*o.TatTime)
	}
	if o.MinDiff != nil && *o.MinDiff > 0 {
		m.AvgDeliveryMins = num(*o.MinDiff)
	}
	if o.Category == "F&B" && o.CreatedAt != nil && o.UpdatedAt != nil {
		m.FnBMinsDiff = num(o.UpdatedAt.Sub(*o.CreatedAt).Minutes())
	}
}

// fnbMinuteBuckets buckets delivered food orders by minutes from creation to
// completion. The two slowest buckets count plain 1s, not unit weights.
func fnbMinuteBuckets(o order.Record, m *Metrics) {
	if o.Status != order.StatusDelivered || o.Category != "F&B" || o.MinDiff == nil {
		return
	}
	v, w := *o.MinDiff, float64(o.NoKey)
	firstMatch([]bucket{
		{v <= 15, &m.FnB0to15, w},
		{v <= 30, &m.FnB15to30, w},
		{v <= 45, &m.FnB30to45, w},
		{v <= 60, &m.FnB45to60, w},
		{v <= 120, &m.FnB60to120, 1},
		{true, &m.FnBOver120, 1},
	})
}

// tatSecondsBuckets buckets delivered orders by seconds past the promise.
// Zero and early arrivals stay out of the family entirely.
func tatSecondsBuckets(o order.Record, m *Metrics) {
	if o.Status != order.StatusDelivered || o.TatDif == nil {
		return
	}
	v := *o.TatDif
	if v <= 0 {
		return
	}
	w := float64(o.NoKey)
	firstMatch([]bucket{
		{v <= 300, &m.TATUnder5, w},
		{v <= 900, &m.TAT5to15, w},
		{v <= 1800, &m.TAT15to30, w},
		{v <= 3600, &m.TAT30to60, w},
		{true, &m.TATOver60, w},
	})
}

// tatDayBuckets keys on exact whole-day deviations: fractional or negative
// day counts match nothing.
func tatDayBuckets(o order.Record, m *Metrics) {
	if o.Status != order.StatusDelivered || o.TatDiffDays == nil {
		return
	}
	d, w := *o.TatDiffDays, float64(o.NoKey)
	firstMatch([]bucket{
		{d == 1, &m.TATDay1, w},
		{d == 2, &m.TATDay2, w},
		{d == 3, &m.TATDay3, w},
		{d == 4, &m.TATDay4, w},
		{d > 4, &m.TATBeyond4, w},
	})
}

// tatSameDay marks orders delivered past the promise but within the same
// day of it. Distinct from the Same Day ageing bucket, which keys on the
// creation-to-completion span.
func tatSameDay(o order.Record, m *Metrics) {
	if o.Status != order.StatusDelivered || o.TatDiffDays == nil ||
		o.PromisedAt == nil || o.UpdatedAt == nil {
		return
	}
	if *o.TatDiffDays < 1 && o.PromisedAt.Before(*o.UpdatedAt) {
		m.TATSameDay = float64(o.NoKey)
	}
}

// nonFnBDaysDiff reports whole days from creation to completion for
// delivered non-food orders. A missing category fails the test rather than
// counting as non-food.
func nonFnBDaysDiff(o order.Record, m *Metrics) {
	if o.Status != order.StatusDelivered || o.Category == "" || o.Category == "F&B" {
		return
	}
	if o.CreatedAt == nil || o.UpdatedAt == nil {
		return
	}
	m.NonFnBDaysDiff = num(float64(o.UpdatedAt.Sub(*o.CreatedAt) / (24 * time.Hour)))
}

func shippedMark(o order.Record, m *Metrics) {
	if o.ShippedAt != nil {
		m.Shipped = float64(o.NoKey)
	}
}
