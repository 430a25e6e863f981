package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/ardanlabs/paystream/foundation/paystream/genesis"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const doc = `{
	"date": "2026-01-01T00:00:00Z",
	"chain_id": 31337,
	"name": "PayStream",
	"version": "1",
	"ledger": "0x5FbDB2315678afecb367f032d93F642f64180aa3",
	"vault": "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512",
	"tax_collector": "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0",
	"owner": "0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8",
	"yield_rate_bps": 500,
	"max_rate_per_second": "1000",
	"max_batch": 200,
	"balances": {
		"0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8": "1000000.5"
	}
}`

func TestLoad(t *testing.T) {
	t.Log("Given the need to load a genesis file.")
	{
		t.Logf("\tTest 0:\tWhen the file is well formed.")
		{
			path := filepath.Join(t.TempDir(), "genesis.json")
			if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write the file: %s", failed, err)
			}

			g, err := genesis.Load(path)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to load the file: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to load the file.", success)

			bals, err := g.StartingBalances()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to read balances: %s", failed, err)
			}

			exp, _ := amount.Parse("1000000.5")
			got := bals[accounts.MustToAccountID(g.Owner)]
			if got == nil || !got.Eq(exp) {
				t.Fatalf("\t%s\tTest 0:\tShould convert balances to base units, got %v.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould convert balances to base units.", success)
		}

		t.Logf("\tTest 1:\tWhen the file has a bad owner.")
		{
			g := genesis.Genesis{
				Name:         "PayStream",
				Version:      "1",
				Ledger:       "0x5FbDB2315678afecb367f032d93F642f64180aa3",
				Vault:        "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512",
				TaxCollector: "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0",
				Owner:        "0x0000000000000000000000000000000000000000",
			}
			if err := g.Validate(); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould reject a zero owner.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a zero owner.", success)
		}
	}
}
