package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/segmentio/kafka-go"

	"github.com/orderpulse/orderpulse/internal/derive"
	"github.com/orderpulse/orderpulse/internal/metrics"
)

// Writer is a pass result sink. WriteBatch receives every row of one
// derivation pass in one call.
type Writer interface {
	WriteBatch(ctx context.Context, recs []derive.Record) error
	Close() error
}

// MultiWriter fans out batches to multiple underlying writers.
type MultiWriter struct {
	writers []Writer
}

func NewMultiWriter(ws ...Writer) *MultiWriter {
	return &MultiWriter{writers: ws}
}

func (m *MultiWriter) WriteBatch(ctx context.Context, recs []derive.Record) error {
	for _, w := range m.writers {
		if err := w.WriteBatch(ctx, recs); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every writer and reports the first failure.
func (m *MultiWriter) Close() error {
	var first error
	for _, w := range m.writers {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// FileWriter appends pass results to a JSONL file, one row per line. The
// file is opened per batch so a crash never holds a dangling handle.
type FileWriter struct {
	path string
}

func NewFileWriter(path string) (*FileWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	return &FileWriter{path: path}, nil
}

func (w *FileWriter) WriteBatch(ctx context.Context, recs []derive.Record) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		metrics.ExportErrors.WithLabelValues("file").Inc()
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for i := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.Encode(&recs[i]); err != nil {
			metrics.ExportErrors.WithLabelValues("file").Inc()
			return fmt.Errorf("encode %s: %w", recs[i].Key, err)
		}
	}
	return nil
}

func (w *FileWriter) Close() error { return nil }

// KafkaWriter publishes pass results to a Kafka topic, keyed by identity key
// so one order's rows land on one partition. Pure-Go client (segmentio/kafka-go).
type KafkaWriter struct {
	writer kafkaMessageWriter
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(brokers []string, topic string) *KafkaWriter {
	return &KafkaWriter{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}}
}

// NewKafkaWriterWith is only for tests to inject a fake writer.
func NewKafkaWriterWith(w kafkaMessageWriter) *KafkaWriter {
	return &KafkaWriter{writer: w}
}

func (k *KafkaWriter) WriteBatch(ctx context.Context, recs []derive.Record) error {
	msgs := make([]kafka.Message, 0, len(recs))
	for i := range recs {
		b, err := json.Marshal(&recs[i])
		if err != nil {
			metrics.ExportErrors.WithLabelValues("kafka").Inc()
			return fmt.Errorf("marshal %s: %w", recs[i].Key, err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(recs[i].Key), Value: b})
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		metrics.ExportErrors.WithLabelValues("kafka").Inc()
		return fmt.Errorf("write messages: %w", err)
	}
	return nil
}

func (k *KafkaWriter) Close() error { return k.writer.Close() }
