// Package memory implements the ability to read and write journal records
// to memory using a slice.
package memory

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/paystream/foundation/paystream/journal"
)

// Memory represents the serialization implementation for reading and storing
// records in memory using a slice. This implements the journal.Storage
// interface.
type Memory struct {
	mu      sync.RWMutex
	records []journal.Record
}

// New constructs an Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified record and stores it in memory.
func (m *Memory) Write(rec journal.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := len(m.records)
	if uint64(l+1) != rec.Seq {
		return fmt.Errorf("record %d is out of order, expected %d", rec.Seq, l+1)
	}

	m.records = append(m.records, rec)

	return nil
}

// GetRecord returns the record with the specified sequence number.
func (m *Memory) GetRecord(seq uint64) (journal.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l := uint64(len(m.records))
	if seq == 0 || seq > l {
		return journal.Record{}, journal.ErrNotFound
	}

	return m.records[seq-1], nil
}

// ForEach returns an iterator to walk through all the records
// starting with sequence number 1.
func (m *Memory) ForEach() journal.Iterator {
	return &memoryIterator{storage: m}
}

// Reset will clear out the journal.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = nil
	return nil
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through the records in memory.
type memoryIterator struct {
	storage *Memory // Access to the storage API.
	current uint64  // Current sequence number being iterated over.
	eoj     bool    // Represents the iterator is at the end of the journal.
}

// Next retrieves the next record.
func (mi *memoryIterator) Next() (journal.Record, error) {
	if mi.eoj {
		return journal.Record{}, journal.ErrNotFound
	}

	mi.current++
	rec, err := mi.storage.GetRecord(mi.current)
	if err != nil {
		mi.eoj = true
	}

	return rec, err
}

// Done returns the end of journal value.
func (mi *memoryIterator) Done() bool {
	return mi.eoj
}
