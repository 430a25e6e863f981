// Package genesis maintains access to the genesis file that configures a
// payroll ledger deployment.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/holiman/uint256"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date             time.Time         `json:"date"`
	ChainID          uint64            `json:"chain_id"`            // The chain id the signing domain is bound to.
	Name             string            `json:"name"`                // Protocol name used in the signing domain.
	Version          string            `json:"version"`             // Protocol version used in the signing domain.
	Ledger           string            `json:"ledger"`              // Stream ledger account, also the verifying contract.
	Vault            string            `json:"vault"`               // Treasury vault custody account.
	TaxCollector     string            `json:"tax_collector"`       // Tax collector custody account.
	Owner            string            `json:"owner"`               // Administrator of the deployment.
	YieldRateBps     uint64            `json:"yield_rate_bps"`      // Simulated treasury yield.
	MaxRatePerSecond string            `json:"max_rate_per_second"` // Sanity ceiling for stream rates, in units.
	MaxBatch         int               `json:"max_batch"`           // Largest batch of streams created at once.
	Balances         map[string]string `json:"balances"`            // Starting balances, in units.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, fmt.Errorf("genesis %s: %w", path, err)
	}

	return genesis, nil
}

// Validate checks the genesis values are usable.
func (g Genesis) Validate() error {
	for name, id := range map[string]string{
		"ledger":        g.Ledger,
		"vault":         g.Vault,
		"tax_collector": g.TaxCollector,
		"owner":         g.Owner,
	} {
		a, err := accounts.ToAccountID(id)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if a.IsZero() {
			return fmt.Errorf("%s: zero account", name)
		}
	}

	if g.Name == "" || g.Version == "" {
		return errors.New("name and version are required")
	}

	if g.YieldRateBps > amount.BpsDenominator {
		return fmt.Errorf("yield rate %d bps out of range", g.YieldRateBps)
	}

	if g.MaxBatch < 0 {
		return fmt.Errorf("max batch %d out of range", g.MaxBatch)
	}

	if g.MaxRatePerSecond != "" {
		if _, err := amount.Parse(g.MaxRatePerSecond); err != nil {
			return fmt.Errorf("max rate: %w", err)
		}
	}

	if _, err := g.StartingBalances(); err != nil {
		return err
	}

	return nil
}

// StartingBalances converts the genesis balances into base units.
func (g Genesis) StartingBalances() (map[accounts.AccountID]*uint256.Int, error) {
	balances := make(map[accounts.AccountID]*uint256.Int, len(g.Balances))
	for id, value := range g.Balances {
		accountID, err := accounts.ToAccountID(id)
		if err != nil {
			return nil, fmt.Errorf("balance %s: %w", id, err)
		}

		v, err := amount.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("balance %s: %w", id, err)
		}

		balances[accountID] = v
	}

	return balances, nil
}
