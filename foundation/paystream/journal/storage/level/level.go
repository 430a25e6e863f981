// Package level implements the ability to read and write journal records
// to a LevelDB database.
package level

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/paystream/foundation/paystream/journal"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// recordPrefix namespaces journal records inside the database.
const recordPrefix = "record:"

// Level represents the serialization implementation for reading and storing
// records in LevelDB. This implements the journal.Storage interface.
type Level struct {
	db *leveldb.DB
}

// New opens (or creates) a LevelDB database at the provided path.
func New(dbPath string) (*Level, error) {
	trimmed := strings.TrimSpace(dbPath)
	if trimmed == "" {
		return nil, errors.New("leveldb journal path required")
	}

	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve leveldb journal path: %w", err)
	}

	db, err := leveldb.OpenFile(abs, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb journal: %w", err)
	}

	return &Level{db: db}, nil
}

// Close releases the underlying LevelDB resources.
func (l *Level) Close() error {
	return l.db.Close()
}

// Write stores the record under its sequence number.
func (l *Level) Write(rec journal.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	if err := l.db.Put(recordKey(rec.Seq), data, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("write record %d: %w", rec.Seq, err)
	}

	return nil
}

// GetRecord returns the record with the specified sequence number.
func (l *Level) GetRecord(seq uint64) (journal.Record, error) {
	data, err := l.db.Get(recordKey(seq), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return journal.Record{}, fmt.Errorf("record %d: %w", seq, journal.ErrNotFound)
		}
		return journal.Record{}, fmt.Errorf("load record %d: %w", seq, err)
	}

	var rec journal.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return journal.Record{}, err
	}

	return rec, nil
}

// ForEach returns an iterator over the records in sequence order. Keys are
// big endian encoded so the database order is the sequence order.
func (l *Level) ForEach() journal.Iterator {
	return &levelIterator{
		iter: l.db.NewIterator(util.BytesPrefix([]byte(recordPrefix)), nil),
	}
}

// Reset deletes every record in the journal.
func (l *Level) Reset() error {
	iter := l.db.NewIterator(util.BytesPrefix([]byte(recordPrefix)), nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterate journal: %w", err)
	}

	if batch.Len() == 0 {
		return nil
	}

	return l.db.Write(batch, nil)
}

// recordKey builds the database key for a sequence number.
func recordKey(seq uint64) []byte {
	key := make([]byte, len(recordPrefix)+8)
	copy(key, recordPrefix)
	binary.BigEndian.PutUint64(key[len(recordPrefix):], seq)
	return key
}

// =============================================================================

// levelIterator walks the records using a LevelDB iterator.
type levelIterator struct {
	iter iterator.Iterator
	eoj  bool
}

// Next retrieves the next record from the database.
func (li *levelIterator) Next() (journal.Record, error) {
	if li.eoj {
		return journal.Record{}, journal.ErrNotFound
	}

	if !li.iter.Next() {
		defer li.iter.Release()
		if err := li.iter.Error(); err != nil {
			return journal.Record{}, err
		}
		li.eoj = true
		return journal.Record{}, journal.ErrNotFound
	}

	var rec journal.Record
	if err := json.Unmarshal(li.iter.Value(), &rec); err != nil {
		return journal.Record{}, err
	}

	return rec, nil
}

// Done returns the end of journal value.
func (li *levelIterator) Done() bool {
	return li.eoj
}
