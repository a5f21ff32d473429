package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/orderpulse/orderpulse/internal/config"
	"github.com/orderpulse/orderpulse/internal/metrics"
	"github.com/orderpulse/orderpulse/internal/order"
	"github.com/orderpulse/orderpulse/internal/store"
)

// Consumer pulls raw order payloads off Kafka, folds them into canonical
// records, and upserts them into the store. Offsets commit only after the
// store write sticks, so a crash replays rather than loses orders; replays
// are harmless because upserts are idempotent per identity key.
type Consumer struct {
	consumer    *ck.Consumer
	store       store.Store
	pollTimeout time.Duration
}

func NewConsumer(cfg config.IngestConf, st store.Store) (*Consumer, error) {
	c, err := ck.NewConsumer(&ck.ConfigMap{
		"bootstrap.servers":  strings.Join(cfg.Brokers, ","),
		"group.id":           cfg.GroupID,
		"enable.auto.commit": false,
		"isolation.level":    "read_committed",
		"auto.offset.reset":  "earliest",
	})
	if err != nil {
		return nil, fmt.Errorf("consumer: %w", err)
	}
	if err := c.SubscribeTopics([]string{cfg.Topic}, nil); err != nil {
		c.Close()
		return nil, fmt.Errorf("subscribe %s: %w", cfg.Topic, err)
	}
	return &Consumer{
		consumer:    c,
		store:       st,
		pollTimeout: time.Duration(cfg.PollTimeoutMs) * time.Millisecond,
	}, nil
}

// Run consumes until ctx ends. Malformed payloads are counted and skipped;
// the derivation engine never sees them.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		msg, err := c.consumer.ReadMessage(c.pollTimeout)
		if err != nil {
			// Poll timeout or transient broker error; try again.
			continue
		}
		rec, err := Decode(msg.Value)
		if err != nil {
			metrics.IngestErrors.WithLabelValues("kafka").Inc()
			slog.Warn("skipping malformed order payload", "err", err, "offset", msg.TopicPartition.Offset)
			continue
		}
		if err := c.store.Upsert(rec); err != nil {
			metrics.IngestErrors.WithLabelValues("kafka").Inc()
			slog.Error("order upsert failed", "key", rec.Key, "err", err)
			continue
		}
		metrics.OrdersIngested.WithLabelValues("kafka").Inc()
		if _, err := c.consumer.Commit(); err != nil {
			slog.Warn("offset commit failed", "err", err)
		}
	}
}

func (c *Consumer) Close() error { return c.consumer.Close() }

// Decode parses one raw order payload into its canonical record. A payload
// without the identity fields cannot be keyed and is rejected here.
func Decode(payload []byte) (order.Record, error) {
	var raw order.Raw
	if err := json.Unmarshal(payload, &raw); err != nil {
		return order.Record{}, fmt.Errorf("decode raw order: %w", err)
	}
	if raw.SellerNP == "" || raw.NetworkOrderID == "" {
		return order.Record{}, fmt.Errorf("raw order missing identity fields")
	}
	return order.Enrich(raw), nil
}
