package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/paystream/foundation/paystream/journal"
	"github.com/ardanlabs/paystream/foundation/paystream/journal/storage/level"
)

// Journal prints the ledger journal kept at dbPath. A non zero seq prints
// that record in full, state included.
func Journal(dbPath string, seq uint64) error {
	strg, err := level.New(dbPath)
	if err != nil {
		return err
	}
	defer strg.Close()

	if seq != 0 {
		rec, err := strg.GetRecord(seq)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	return list(strg)
}

func list(strg journal.Storage) error {
	iter := strg.ForEach()
	for {
		rec, err := iter.Next()
		if iter.Done() {
			return nil
		}
		if err != nil {
			return err
		}

		ts := time.Unix(int64(rec.TimeStamp), 0).UTC().Format(time.RFC3339)
		fmt.Printf("Seq: %-6d Time: %s  Kind: %-20s Actor: %s  Stream: %d\n", rec.Seq, ts, rec.Kind, rec.Actor, rec.StreamID)
	}
}
