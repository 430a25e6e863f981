package journal_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/paystream/foundation/paystream/journal"
	"github.com/ardanlabs/paystream/foundation/paystream/journal/storage/disk"
	"github.com/ardanlabs/paystream/foundation/paystream/journal/storage/level"
	"github.com/ardanlabs/paystream/foundation/paystream/journal/storage/memory"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestStorage(t *testing.T) {
	type table struct {
		name string
		open func(t *testing.T) journal.Storage
	}

	tt := []table{
		{
			name: "memory",
			open: func(t *testing.T) journal.Storage {
				return memory.New()
			},
		},
		{
			name: "disk",
			open: func(t *testing.T) journal.Storage {
				strg, err := disk.New(t.TempDir())
				if err != nil {
					t.Fatalf("\t%s\tShould be able to open disk storage: %s", failed, err)
				}
				return strg
			},
		},
		{
			name: "level",
			open: func(t *testing.T) journal.Storage {
				strg, err := level.New(filepath.Join(t.TempDir(), "journal"))
				if err != nil {
					t.Fatalf("\t%s\tShould be able to open leveldb storage: %s", failed, err)
				}
				return strg
			},
		},
	}

	t.Log("Given the need to persist journal records.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				strg := tst.open(t)
				defer strg.Close()

				t.Logf("\tTest %d:\tWhen the journal is empty.", testID)
				{
					_, found, err := journal.Latest(strg)
					if err != nil || found {
						t.Fatalf("\t%s\tTest %d:\tShould find nothing in an empty journal: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould find nothing in an empty journal.", success, testID)
				}

				t.Logf("\tTest %d:\tWhen records are written.", testID)
				{
					for seq := uint64(1); seq <= 12; seq++ {
						rec := journal.Record{
							Seq:       seq,
							Kind:      "create_stream",
							Actor:     "0x3333333333333333333333333333333333333333",
							StreamID:  seq,
							TimeStamp: 1_000 + seq,
							State:     json.RawMessage(`{"next_id":1}`),
						}
						if err := strg.Write(rec); err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to write record %d: %s", failed, testID, seq, err)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be able to write records.", success, testID)

					rec, err := strg.GetRecord(10)
					if err != nil || rec.StreamID != 10 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to read record 10: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to read a record.", success, testID)

					if _, err := strg.GetRecord(13); !errors.Is(err, journal.ErrNotFound) {
						t.Fatalf("\t%s\tTest %d:\tShould not find a missing record, got %v.", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould not find a missing record.", success, testID)

					latest, found, err := journal.Latest(strg)
					if err != nil || !found || latest.Seq != 12 {
						t.Fatalf("\t%s\tTest %d:\tShould find record 12 as the latest: %v", failed, testID, err)
					}
					var state bytes.Buffer
					if err := json.Compact(&state, latest.State); err != nil || state.String() != `{"next_id":1}` {
						t.Fatalf("\t%s\tTest %d:\tShould keep the state snapshot, got %s.", failed, testID, latest.State)
					}
					t.Logf("\t%s\tTest %d:\tShould find the latest record.", success, testID)
				}

				t.Logf("\tTest %d:\tWhen the journal is reset.", testID)
				{
					if err := strg.Reset(); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to reset: %s", failed, testID, err)
					}

					_, found, err := journal.Latest(strg)
					if err != nil || found {
						t.Fatalf("\t%s\tTest %d:\tShould find nothing after reset: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould find nothing after reset.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
