package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/orderpulse/orderpulse/internal/order"
)

// Pebble persists the order book on disk so a restart resumes with the same
// records. Keys are identity keys, values JSON-encoded records.
type Pebble struct {
	db *pebble.DB
}

func NewPebble(dir string) (*Pebble, error) {
	opts := &pebble.Options{
		// Order records are small and write-heavy during ingest bursts:
		// larger memtables and earlier compaction keep the write path flat.
		MemTableSize:             256 << 20,
		MaxConcurrentCompactions: func() int { return 4 },
		L0CompactionThreshold:    4,
		L0StopWritesThreshold:    8,
		WALBytesPerSync:          1 << 20,
		DisableWAL:               false,
		WALMinSyncInterval:       func() time.Duration { return 0 },
	}
	db, err := pebble.Open(filepath.Clean(dir), opts)
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &Pebble{db: db}, nil
}

func (p *Pebble) Close() error { return p.db.Close() }

func (p *Pebble) Upsert(rec order.Record) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.Key, err)
	}
	// NoSync: the WAL covers durability, syncing per record would cap ingest.
	if err := p.db.Set([]byte(rec.Key), val, pebble.NoSync); err != nil {
		return fmt.Errorf("set record %s: %w", rec.Key, err)
	}
	return nil
}

func (p *Pebble) Get(key string) (order.Record, bool, error) {
	val, closer, err := p.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return order.Record{}, false, nil
	}
	if err != nil {
		return order.Record{}, false, err
	}
	defer closer.Close()
	var rec order.Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return order.Record{}, false, fmt.Errorf("decode record %s: %w", key, err)
	}
	return rec, true, nil
}

func (p *Pebble) Range(fn func(rec order.Record) bool) error {
	it, err := p.db.NewIter(nil)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		val := append([]byte(nil), it.Value()...)
		var rec order.Record
		if err := json.Unmarshal(val, &rec); err != nil {
			return fmt.Errorf("decode record %s: %w", string(it.Key()), err)
		}
		if !fn(rec) {
			return nil
		}
	}
	return it.Error()
}

func (p *Pebble) Len() int {
	it, err := p.db.NewIter(nil)
	if err != nil {
		return 0
	}
	defer it.Close()
	n := 0
	for it.First(); it.Valid(); it.Next() {
		n++
	}
	return n
}
