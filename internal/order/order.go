package order

import (
	"strings"
	"time"
)

// Canonical order statuses. Everything the network feed sends is folded into
// one of these by NormalizeStatus.
const (
	StatusConfirmed     = "Confirmed"
	StatusInProcess     = "In Process"
	StatusDelivered     = "Delivered"
	StatusCancelled     = "Cancelled"
	StatusPartDelivered = "Part Delivered"
)

// Raw is one order row as the upstream network feed produces it. Field
// presence is unreliable and statuses arrive in many spellings; Enrich folds
// a Raw into its canonical Record.
type Raw struct {
	BuyerNP              string     `json:"buyer_np"`
	SellerNP             string     `json:"seller_np"`
	NetworkOrderID       string     `json:"network_order_id"`
	ProviderID           string     `json:"provider_id"`
	TransactionID        string     `json:"network_transaction_id"`
	Domain               string     `json:"domain"`
	ItemCategory         string     `json:"item_category"`
	ConsolidatedCategory string     `json:"item_consolidated_category"`
	OrderStatus          string     `json:"order_status"`
	FulfillmentStatus    string     `json:"fulfillment_status"`
	CancellationCode     string     `json:"cancellation_code"`
	CreatedAt            *time.Time `json:"created_at"`
	ReadyToShipAt        *time.Time `json:"ready_to_ship_at"`
	ShippedAt            *time.Time `json:"shipped_at"`
	PromisedAt           *time.Time `json:"promised_at"`
	CompletedAt          *time.Time `json:"completed_at"`
	CancelledAt          *time.Time `json:"cancelled_at"`
}

// Record is the canonical current-state row for one order. Nullable fields
// are pointers so a missing value survives storage and JSON round-trips as
// null rather than a zero.
type Record struct {
	Key                  string     `json:"key"`
	BuyerNP              string     `json:"buyer_np"`
	SellerNP             string     `json:"seller_np"`
	NetworkOrderID       string     `json:"network_order_id"`
	ProviderID           string     `json:"provider_id"`
	TransactionID        string     `json:"network_transaction_id"`
	Domain               string     `json:"domain"`
	Category             string     `json:"category"`
	ConsolidatedCategory string     `json:"consolidated_category"`
	Status               string     `json:"status"`
	CreatedAt            *time.Time `json:"created_at"`
	ReadyToShipAt        *time.Time `json:"ready_to_ship_at"`
	ShippedAt            *time.Time `json:"shipped_at"`
	PromisedAt           *time.Time `json:"promised_at"`
	UpdatedAt            *time.Time `json:"updated_at"`

	// Precomputed differences, filled by Enrich when the operand timestamps
	// exist. Units: TatDif seconds, TatDiffDays/DayDiff whole days,
	// MinDiff/TatTime whole minutes.
	TatDif      *float64 `json:"tat_dif"`
	TatDiffDays *float64 `json:"tat_diff_days"`
	DayDiff     *float64 `json:"day_diff"`
	MinDiff     *float64 `json:"min_diff"`
	TatTime     *float64 `json:"tat_time"`
	OnTimeDel   *float64 `json:"on_time_del"`

	CancellationCode *string `json:"cancellation_code"`

	// NoKey is the additive unit weight: 1 for the first row of an order in
	// a batch, 0 for duplicates, so summed indicators count orders once.
	NoKey int `json:"no_key"`
}

// IdentityKey is the case-normalized dedup key for one order. The upstream
// feed guarantees the (seller, order, provider, transaction) tuple is unique
// across the record set.
func IdentityKey(sellerNP, orderID, providerID, txnID string) string {
	return strings.ToLower(sellerNP + orderID + providerID + txnID)
}
