package export

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/orderpulse/orderpulse/internal/derive"
)

func row(key string) derive.Record {
	r := derive.Record{
		Key:            key,
		SellerNP:       "seller.example.in",
		NetworkOrderID: key,
		Status:         "Delivered",
		EvaluatedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	r.Confirmed = 1
	r.Delivered = 1
	return r
}

func TestFileWriter_WriteBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "pass.jsonl")
	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	batch := []derive.Record{row("a"), row("b")}
	if err := w.WriteBatch(context.Background(), batch); err != nil {
		t.Fatalf("write batch 1: %v", err)
	}
	if err := w.WriteBatch(context.Background(), []derive.Record{row("c")}); err != nil {
		t.Fatalf("write batch 2: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open results: %v", err)
	}
	defer f.Close()

	var keys []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		var r derive.Record
		if err := json.Unmarshal(s.Bytes(), &r); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if r.Confirmed != 1 {
			t.Fatalf("row %s lost its metrics: %+v", r.Key, r)
		}
		keys = append(keys, r.Key)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(keys) != len(want) {
		t.Fatalf("got %d lines, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("line %d key = %q, want %q", i, keys[i], want[i])
		}
	}
}

// fakeKafkaWriter implements kafkaMessageWriter for tests.
type fakeKafkaWriter struct {
	msgs   []kafka.Message
	fail   bool
	closed bool
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.fail {
		return errors.New("fail")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeKafkaWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaWriter_WriteBatch_Success(t *testing.T) {
	fk := &fakeKafkaWriter{}
	kw := NewKafkaWriterWith(fk)
	if err := kw.WriteBatch(context.Background(), []derive.Record{row("k1"), row("k2")}); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	if len(fk.msgs) != 2 {
		t.Fatalf("want 2 msgs, got %d", len(fk.msgs))
	}
	if string(fk.msgs[0].Key) != "k1" || string(fk.msgs[1].Key) != "k2" {
		t.Fatalf("bad keys: %s, %s", fk.msgs[0].Key, fk.msgs[1].Key)
	}
	var decoded derive.Record
	if err := json.Unmarshal(fk.msgs[0].Value, &decoded); err != nil {
		t.Fatalf("value not valid JSON: %v", err)
	}
	if decoded.Delivered != 1 {
		t.Fatalf("decoded row lost metrics: %+v", decoded)
	}
}

func TestKafkaWriter_WriteBatch_Fail(t *testing.T) {
	kw := NewKafkaWriterWith(&fakeKafkaWriter{fail: true})
	if err := kw.WriteBatch(context.Background(), []derive.Record{row("k1")}); err == nil {
		t.Fatal("expected error")
	}
}

func TestKafkaWriter_EmptyBatchSkipsWrite(t *testing.T) {
	fk := &fakeKafkaWriter{fail: true}
	kw := NewKafkaWriterWith(fk)
	if err := kw.WriteBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty batch should not touch the broker: %v", err)
	}
}

func TestMultiWriter(t *testing.T) {
	a, b := &fakeKafkaWriter{}, &fakeKafkaWriter{}
	mw := NewMultiWriter(NewKafkaWriterWith(a), NewKafkaWriterWith(b))

	if err := mw.WriteBatch(context.Background(), []derive.Record{row("x")}); err != nil {
		t.Fatalf("fan out: %v", err)
	}
	if len(a.msgs) != 1 || len(b.msgs) != 1 {
		t.Fatalf("fan out reached %d and %d writers", len(a.msgs), len(b.msgs))
	}

	failing := NewMultiWriter(NewKafkaWriterWith(&fakeKafkaWriter{fail: true}), NewKafkaWriterWith(b))
	if err := failing.WriteBatch(context.Background(), []derive.Record{row("y")}); err == nil {
		t.Fatal("expected first writer's error")
	}
	if len(b.msgs) != 1 {
		t.Fatalf("later writer ran after a failure: %d msgs", len(b.msgs))
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !a.closed || !b.closed {
		t.Fatal("close did not reach every writer")
	}
}
