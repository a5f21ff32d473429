package order

import (
	"strconv"
	"strings"
)

// Seller networks whose uncategorized items belong to a known vertical.
// Exact ids are matched whole; the short names match as substrings because
// those networks register per-city endpoints.
const (
	sellerMagicpin  = "webapi.magicpin.in/oms_partner/ondc"
	sellerEsamudaay = "api.esamudaay.com/ondc/sdk/bpp/retail/lespl"
	sellerKiko      = "api.kiko.live/ondc-seller"
)

// repairStatus patches a stale order status from the lifecycle timestamps.
// Feeds sometimes stop updating the status field after the terminal event,
// but the completion or cancellation timestamp still lands.
func repairStatus(raw Raw) string {
	s := strings.TrimSpace(raw.OrderStatus)
	if s == "Cancelled" || s == "Completed" || strings.Contains(s, "Return") {
		return s
	}
	switch {
	case raw.CompletedAt != nil && raw.CancelledAt == nil:
		return "Completed"
	case raw.CompletedAt == nil && raw.CancelledAt != nil:
		return "Cancelled"
	}
	return s
}

// NormalizeStatus folds a raw feed status into the canonical set. The
// fulfillment status participates because RTO flows mark the cancellation
// there rather than on the order itself. Unknown spellings read as still
// in process.
func NormalizeStatus(status, fulfillment string) string {
	s := strings.TrimSpace(status)
	switch {
	case s == "":
		return StatusInProcess
	case s == StatusCancelled:
		return StatusCancelled
	case s == "Completed":
		return StatusDelivered
	case strings.EqualFold(s, "delivered"):
		return StatusDelivered
	case strings.HasPrefix(s, "Liquid"):
		return StatusDelivered
	case strings.HasSuffix(s, "leted"):
		return StatusDelivered
	case strings.HasPrefix(s, "Return"):
		return StatusDelivered
	case strings.HasPrefix(strings.TrimSpace(fulfillment), "RTO"):
		return StatusCancelled
	case s == StatusInProcess || s == StatusPartDelivered || s == StatusConfirmed:
		return s
	}
	return StatusInProcess
}

// ConsolidateCategory resolves the effective consolidated category for one
// record. Rules run top to bottom; the seller overrides only apply when the
// feed left the consolidated category blank.
func ConsolidateCategory(seller, domain, itemCategory, consolidated string) string {
	blank := strings.TrimSpace(consolidated) == ""
	switch {
	case blank && (seller == sellerMagicpin || strings.Contains(seller, "dominos")):
		return "F&B"
	case strings.HasPrefix(consolidated, "Agri") || strings.Contains(domain, "AGR"):
		return "Agriculture"
	case strings.Contains(seller, "agrevolution") || strings.Contains(seller, "enam.gov"):
		return "Agriculture"
	case blank && strings.Contains(seller, "crofarm"):
		return "Grocery"
	case blank && (strings.Contains(seller, "rebelfoods") || strings.Contains(seller, "uengage") || seller == sellerEsamudaay):
		return "F&B"
	case blank && seller == sellerKiko:
		return "Grocery"
	case itemCategory == "F&B":
		return "F&B"
	case itemCategory == "Grocery":
		return "Grocery"
	case itemCategory != "" && blank:
		return "Others"
	case itemCategory == "":
		return "Undefined"
	}
	return consolidated
}

// CollapseCategory folds a comma-joined multi-vertical consolidated category
// into the single reporting category. F&B orders whose other items were
// uncategorized stay F&B.
func CollapseCategory(consolidated string) string {
	if !strings.Contains(consolidated, ",") {
		return consolidated
	}
	if strings.Contains(consolidated, "F&B") && strings.Contains(consolidated, "Undefined") {
		return "F&B"
	}
	return "Multi Category"
}

// NormalizeCancellationCode folds a raw cancellation code into canonical
// three digit form: the last three characters of the raw code when they name
// a defined code, the catch-all 052 otherwise. RTO fulfillments without a
// code default to 013 and other cancellations to 050. Orders that are
// neither cancelled nor RTO never carry a code.
func NormalizeCancellationCode(raw, fulfillment, status string) *string {
	rto := strings.Contains(fulfillment, "RTO")
	if !rto && status != StatusCancelled {
		return nil
	}
	code := strings.TrimSpace(raw)
	if code != "" {
		if len(code) > 3 {
			code = code[len(code)-3:]
		}
		if !isKnownCode(code) {
			code = "052"
		}
		return &code
	}
	if rto {
		code = "013"
	} else {
		code = "050"
	}
	return &code
}

// isKnownCode reports whether code is one of the network's defined
// cancellation codes, the zero-padded strings 001 through 022.
func isKnownCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	n, _ := strconv.Atoi(code)
	return n >= 1 && n <= 22
}
