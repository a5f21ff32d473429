package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/orderpulse/orderpulse/internal/order"
)

func main() {
	count := flag.Int("count", 500, "number of raw order rows to generate")
	output := flag.String("output", "orders.jsonl", "output file")
	days := flag.Int("days", 7, "spread created-at over this many past days")
	seed := flag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := generate(*count, *days, *seed, *output); err != nil {
		slog.Error("generation failed", "err", err)
		os.Exit(1)
	}
}

func generate(count, days int, seed int64, output string) error {
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	sellers := []string{
		"webapi.magicpin.in/oms_partner/ondc",
		"api.kiko.live/ondc-seller",
		"seller.grocify.example.in",
		"ondc.freshcart.example.in",
	}
	categories := []string{"Grocery", "F&B", "Fashion", "Electronics", ""}
	statuses := []string{"Completed", "Completed", "Completed", "Cancelled", "In Process", "Confirmed", "Part Delivered"}

	rng := rand.New(rand.NewSource(seed))
	base := time.Now().UTC().Truncate(24 * time.Hour)
	enc := json.NewEncoder(f)
	rows := 0

	for i := 0; i < count; i++ {
		created := base.AddDate(0, 0, -rng.Intn(days)).Add(time.Duration(rng.Intn(86400)) * time.Second)
		promised := created.Add(time.Duration(30+rng.Intn(2880)) * time.Minute)
		status := statuses[rng.Intn(len(statuses))]

		raw := order.Raw{
			BuyerNP:        "buyer.ondc.example.in",
			SellerNP:       sellers[rng.Intn(len(sellers))],
			NetworkOrderID: fmt.Sprintf("ORD-%06d", i+1),
			ProviderID:     fmt.Sprintf("P%d", 1+rng.Intn(40)),
			TransactionID:  fmt.Sprintf("TXN-%06d", i+1),
			Domain:         "ONDC:RET10",
			ItemCategory:   categories[rng.Intn(len(categories))],
			OrderStatus:    status,
			CreatedAt:      &created,
			PromisedAt:     &promised,
		}

		switch status {
		case "Completed":
			// Most land near the promise, a tail runs hours late.
			completed := promised.Add(time.Duration(rng.Intn(10800)-7200) * time.Second)
			if completed.Before(created) {
				completed = created.Add(time.Minute)
			}
			raw.CompletedAt = &completed
			shipped := created.Add(time.Duration(10+rng.Intn(120)) * time.Minute)
			raw.ShippedAt = &shipped
		case "Cancelled":
			cancelled := created.Add(time.Duration(5+rng.Intn(720)) * time.Minute)
			raw.CancelledAt = &cancelled
			if rng.Intn(2) == 0 {
				raw.CancellationCode = fmt.Sprintf("C%03d", 1+rng.Intn(25))
			}
			if rng.Intn(5) == 0 {
				raw.FulfillmentStatus = "RTO-Initiated"
			}
		default:
			if rng.Intn(2) == 0 {
				shipped := created.Add(time.Duration(10+rng.Intn(240)) * time.Minute)
				raw.ShippedAt = &shipped
			}
		}

		if err := enc.Encode(&raw); err != nil {
			return fmt.Errorf("encode row %d: %w", i+1, err)
		}
		rows++

		// Re-send roughly one order in twenty so batch weighting has
		// duplicate rows to fold.
		if rng.Intn(20) == 0 {
			if err := enc.Encode(&raw); err != nil {
				return fmt.Errorf("encode duplicate row %d: %w", i+1, err)
			}
			rows++
		}
	}

	slog.Info("generated raw orders", "rows", rows, "file", output)
	return nil
}
