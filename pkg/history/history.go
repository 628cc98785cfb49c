// Package history provides the linear undo/redo log. Every story mutation is
// recorded as a typed event carrying enough data to fully invert or replay
// it; undoing and redoing walk a position cursor over the record.
package history

import (
	"errors"

	"github.com/kittclouds/arbor/pkg/script"
)

var (
	// ErrHistoryEmpty means there is nothing to undo. Informational, never
	// fatal.
	ErrHistoryEmpty = errors.New("history: event history is empty, undo not possible")
	// ErrFuturesEmpty means there is nothing to redo. Informational, never
	// fatal.
	ErrFuturesEmpty = errors.New("history: event future queue is empty, redo not possible")
)

// Event is a reversible story mutation.
type Event interface {
	// Undo reverts the mutation on the story.
	Undo(s *script.Story) error
	// Redo applies the mutation to the story again.
	Redo(s *script.Story) error
}

// History is a record of events with a cursor. Events before the cursor are
// committed; events at or after it have been undone and are candidates for
// redo until a new push drops them.
type History struct {
	record   []Event
	position int
}

// New creates an empty history.
func New() *History {
	return &History{record: make([]Event, 0, 256)}
}

// Push appends an event at the cursor, dropping any undone events beyond it.
func (h *History) Push(event Event) {
	h.record = append(h.record[:h.position], event)
	h.position++
}

// Undo reverts the most recent committed event and moves the cursor back.
func (h *History) Undo(s *script.Story) error {
	if h.position == 0 {
		return ErrHistoryEmpty
	}
	if err := h.record[h.position-1].Undo(s); err != nil {
		return err
	}
	h.position--
	return nil
}

// Redo replays the most recently undone event and moves the cursor forward.
func (h *History) Redo(s *script.Story) error {
	if h.position == len(h.record) {
		return ErrFuturesEmpty
	}
	if err := h.record[h.position].Redo(s); err != nil {
		return err
	}
	h.position++
	return nil
}

// Clear permanently drops all recorded events. Required after a rebuild,
// which invalidates every recorded text offset.
func (h *History) Clear() {
	h.record = h.record[:0]
	h.position = 0
}

// Len returns the number of committed events before the cursor.
func (h *History) Len() int {
	return h.position
}

// Futures returns the number of undone events available to redo.
func (h *History) Futures() int {
	return len(h.record) - h.position
}
