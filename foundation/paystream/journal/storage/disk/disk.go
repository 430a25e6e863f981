// Package disk implements the ability to read and write journal records
// to disk, one json file per record.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/ardanlabs/paystream/foundation/paystream/journal"
)

// Disk represents the serialization implementation for reading and storing
// records in their own separate files on disk. This implements the
// journal.Storage interface.
type Disk struct {
	dbPath string
}

// New constructs a Disk value for use.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each record and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write takes the specified record and stores it on disk in a file labeled
// with the sequence number.
func (d *Disk) Write(rec journal.Record) error {

	// Marshal the record for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	// Write to a temporary file first so a crash never leaves a partial
	// record behind under the final name.
	tmp := d.getPath(rec.Seq) + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmp, d.getPath(rec.Seq))
}

// GetRecord searches the journal on disk to locate and return the
// contents of the specified record by sequence.
func (d *Disk) GetRecord(seq uint64) (journal.Record, error) {

	// Open the record file for the specified sequence.
	f, err := os.OpenFile(d.getPath(seq), os.O_RDONLY, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return journal.Record{}, fmt.Errorf("record %d: %w", seq, journal.ErrNotFound)
		}
		return journal.Record{}, err
	}
	defer f.Close()

	// Decode the contents of the record.
	var rec journal.Record
	if err := json.NewDecoder(f).Decode(&rec); err != nil {
		return journal.Record{}, err
	}

	return rec, nil
}

// ForEach returns an iterator to walk through all the records
// starting with sequence number 1.
func (d *Disk) ForEach() journal.Iterator {
	return &diskIterator{disk: d}
}

// Reset will clear out the journal on disk.
func (d *Disk) Reset() error {
	files, err := filepath.Glob(path.Join(d.dbPath, "*.json"))
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := os.Remove(file); err != nil {
			return err
		}
	}

	return nil
}

// getPath forms the path to the specified record.
func (d *Disk) getPath(seq uint64) string {
	name := strconv.FormatUint(seq, 10)
	return path.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}

// =============================================================================

// diskIterator represents the iteration implementation for walking
// through and reading records on disk.
type diskIterator struct {
	disk    *Disk  // Access to the disk storage API.
	current uint64 // Current sequence number being iterated over.
	eoj     bool   // Represents the iterator is at the end of the journal.
}

// Next retrieves the next record from disk.
func (di *diskIterator) Next() (journal.Record, error) {
	if di.eoj {
		return journal.Record{}, journal.ErrNotFound
	}

	di.current++
	rec, err := di.disk.GetRecord(di.current)
	if errors.Is(err, journal.ErrNotFound) {
		di.eoj = true
	}

	return rec, err
}

// Done returns the end of journal value.
func (di *diskIterator) Done() bool {
	return di.eoj
}
