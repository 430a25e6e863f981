// Package journal defines the record written for every committed ledger
// operation and the storage behavior required to persist those records.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record does not exist in storage.
var ErrNotFound = errors.New("record not found")

// Record represents one committed ledger operation. State carries the full
// ledger snapshot after the operation so the latest record is enough to
// restore the ledger.
type Record struct {
	Seq       uint64          `json:"seq"`
	Kind      string          `json:"kind"`
	Actor     string          `json:"actor"`
	StreamID  uint64          `json:"stream_id,omitempty"`
	TimeStamp uint64          `json:"timestamp"`
	State     json.RawMessage `json:"state"`
}

// Storage interface represents the behavior required to be implemented by any
// package providing support for reading and writing the journal.
type Storage interface {
	Write(rec Record) error
	GetRecord(seq uint64) (Record, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the records in sequence order.
type Iterator interface {
	Next() (Record, error)
	Done() bool
}

// Latest walks the journal and returns the last record. The bool is false
// when the journal is empty.
func Latest(strg Storage) (Record, bool, error) {
	var latest Record
	var found bool

	iter := strg.ForEach()
	for {
		rec, err := iter.Next()
		if iter.Done() {
			break
		}
		if err != nil {
			return Record{}, false, fmt.Errorf("reading journal: %w", err)
		}

		if found && rec.Seq != latest.Seq+1 {
			return Record{}, false, fmt.Errorf("journal out of order: %d follows %d", rec.Seq, latest.Seq)
		}

		latest = rec
		found = true
	}

	return latest, found, nil
}
