// Package history holds the in-process log of accepted dispatches.
package history

import (
	"sync"

	"github.com/tinywideclouds/go-push-relay/pkg/dispatch"
)

// Log is an append-only, insertion-ordered record of dispatch attempts.
// It is the only mutable state shared between concurrent requests, so every
// access goes through the mutex. Nothing is persisted; a restart empties it.
type Log struct {
	mu      sync.Mutex
	records []dispatch.Record
}

func NewLog() *Log {
	return &Log{records: make([]dispatch.Record, 0)}
}

// Append adds one record. Records are never updated or removed.
func (l *Log) Append(record dispatch.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
}

// List returns a copy of all records in insertion order.
func (l *Log) List() []dispatch.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]dispatch.Record, len(l.records))
	copy(out, l.records)
	return out
}
