package derive

import "time"

// Record is one derived metrics row, keyed by the identity of the order it
// was computed from. EvaluatedAt is the instant the whole pass captured.
type Record struct {
	Key            string    `json:"key"`
	BuyerNP        string    `json:"buyer_np"`
	SellerNP       string    `json:"seller_np"`
	NetworkOrderID string    `json:"network_order_id"`
	ProviderID     string    `json:"provider_id"`
	TransactionID  string    `json:"network_transaction_id"`
	Domain         string    `json:"domain"`
	Category       string    `json:"category"`
	Status         string    `json:"status"`
	EvaluatedAt    time.Time `json:"evaluated_at"`

	Metrics
}

// Metrics is the fixed derived schema. Indicator fields hold either 0 or the
// record's unit weight (a handful deliberately hold plain 1s instead, noted
// below), so downstream sums read as counts. Pointer fields are measures
// that must average correctly downstream: they stay null, not zero, whenever
// they do not apply.
type Metrics struct {
	// Status splits. Confirmed always carries the unit weight.
	Confirmed     float64 `json:"Confirmed"`
	Delivered     float64 `json:"Delivered"`
	Cancelled     float64 `json:"Cancelled"`
	InProcess     float64 `json:"In Process"`
	PartDelivered float64 `json:"Part Delivered"`

	// CancellationFlag is a plain 0/1, never weighted.
	CancellationFlag float64 `json:"Cancellation code cal"`

	// TatBreach passes the raw deviation seconds through, missing read as 0.
	TatBreach          float64 `json:"Tat breach"`
	DeliveredWithTAT   float64 `json:"Delivered with TAT"`
	DeliveredBeyondTAT float64 `json:"Delivered beyond TAT"`

	DBO float64 `json:"DBO"`

	BreachMins *float64 `json:"Breach (mins)"`
	BreachHrs  *float64 `json:"Breach (hrs)"`
	BreachDays *float64 `json:"Breach (days)"`

	// Delivery ageing. Same Day is weighted; the other three count plain 1s.
	SameDay       float64 `json:"Same Day"`
	NextDay       float64 `json:"Next Day"`
	DayPlus2      float64 `json:"Day + 2"`
	MoreThan2Days float64 `json:"More than 2 Days"`

	OnTimeDeliveries float64 `json:"On time deliveries"`

	AverageTAT      *float64 `json:"Average TAT"`
	AvgDeliveryMins *float64 `json:"Avg Delivery (mins)"`
	FnBMinsDiff     *float64 `json:"F&B mins diff"`

	// Food delivery minute buckets. The two slowest count plain 1s.
	FnB0to15   float64 `json:"0 - 15 mins"`
	FnB15to30  float64 `json:"15 - 30 mins"`
	FnB30to45  float64 `json:"30 - 45 mins"`
	FnB45to60  float64 `json:"45 - 60 mins"`
	FnB60to120 float64 `json:"60 - 120 mins"`
	FnBOver120 float64 `json:"More than 120 mins"`

	// Turnaround deviation buckets, keyed on seconds past the promise.
	TATUnder5 float64 `json:"0 - 5 mins TAT"`
	TAT5to15  float64 `json:"5 - 15 mins TAT"`
	TAT15to30 float64 `json:"15 - 30 mins TAT"`
	TAT30to60 float64 `json:"30 - 60 mins TAT"`
	TATOver60 float64 `json:"More than 60 mins TAT"`

	// Turnaround deviation buckets, keyed on exact whole days.
	TATDay1    float64 `json:"TAT 1 day"`
	TATDay2    float64 `json:"TAT 2 days"`
	TATDay3    float64 `json:"TAT 3 days"`
	TATDay4    float64 `json:"TAT 4 days"`
	TATBeyond4 float64 `json:"TAT beyond 4 days"`

	TATSameDay float64 `json:"TAT same day"`

	NonFnBDaysDiff *float64 `json:"Non F&B days diff"`

	Shipped float64 `json:"Shipped"`
}

func num(v float64) *float64 { return &v }

func floatOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
