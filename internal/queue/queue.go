// Package queue holds the ordered history of processed images and the
// cursor pointing at the currently displayed record.
package queue

import (
	"errors"
	"sync"

	"github.com/bgcut/bgcut/internal/model"
)

var ErrIndexOutOfRange = errors.New("queue index out of range")

// Queue is an append-only record store with a navigable cursor. The cursor
// is always a valid index while the queue is non-empty, and -1 when empty.
type Queue struct {
	mu      sync.RWMutex
	records []model.ImageRecord
	cursor  int
}

func New() *Queue {
	return &Queue{cursor: -1}
}

// Append adds a record to the end and moves the cursor to it.
// Returns the new cursor position.
func (q *Queue) Append(rec model.ImageRecord) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.records = append(q.records, rec)
	q.cursor = len(q.records) - 1

	return q.cursor
}

// Select moves the cursor to index i. Out-of-range indexes are rejected.
func (q *Queue) Select(i int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if i < 0 || i >= len(q.records) {
		return ErrIndexOutOfRange
	}
	q.cursor = i

	return nil
}

// Prev moves the cursor one step back, clamped at the first record.
// Returns the cursor position.
func (q *Queue) Prev() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cursor > 0 {
		q.cursor--
	}

	return q.cursor
}

// Next moves the cursor one step forward, clamped at the last record.
// Returns the cursor position.
func (q *Queue) Next() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cursor >= 0 && q.cursor < len(q.records)-1 {
		q.cursor++
	}

	return q.cursor
}

// Current returns the record under the cursor and its index.
// ok is false when the queue is empty.
func (q *Queue) Current() (rec model.ImageRecord, idx int, ok bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.cursor < 0 {
		return model.ImageRecord{}, -1, false
	}

	return q.records[q.cursor], q.cursor, true
}

// Len returns the number of records.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return len(q.records)
}

// MultiItem reports whether the multi-image indicator should be shown.
func (q *Queue) MultiItem() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return len(q.records) > 1
}

// Items returns a snapshot of all records in insertion order.
func (q *Queue) Items() []model.ImageRecord {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]model.ImageRecord, len(q.records))
	copy(out, q.records)

	return out
}
