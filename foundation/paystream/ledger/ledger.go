// Package ledger is the core API for the payroll streams and implements all
// the business rules for accrual, settlement, and relayed withdrawals.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/ardanlabs/paystream/foundation/paystream/genesis"
	"github.com/ardanlabs/paystream/foundation/paystream/journal"
	"github.com/ardanlabs/paystream/foundation/paystream/signature"
	"github.com/ardanlabs/paystream/foundation/paystream/taxcollector"
	"github.com/ardanlabs/paystream/foundation/paystream/vault"
	"github.com/holiman/uint256"
)

// DefaultMaxBatch is the batch limit used when the genesis leaves it unset.
const DefaultMaxBatch = 200

// DefaultMaxRatePerSecond is the rate ceiling, in units, used when the
// genesis leaves it unset.
const DefaultMaxRatePerSecond = 1_000

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of ledger operations.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis   genesis.Genesis
	Storage   journal.Storage
	Now       func() time.Time
	EvHandler EventHandler
}

// Ledger manages the payroll streams and the funds that back them.
type Ledger struct {
	owner     accounts.AccountID
	id        accounts.AccountID
	domain    signature.Domain
	maxRate   *uint256.Int
	maxBatch  int
	now       func() time.Time
	evHandler EventHandler
	storage   journal.Storage

	mu    sync.RWMutex
	seq   uint64
	state *world
}

// New constructs a ledger from the genesis. When the storage holds a
// journal, the ledger resumes from the latest committed record.
func New(cfg Config) (*Ledger, error) {
	if err := cfg.Genesis.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	gen := cfg.Genesis

	maxRate := amount.Units(DefaultMaxRatePerSecond)
	if gen.MaxRatePerSecond != "" {
		v, err := amount.Parse(gen.MaxRatePerSecond)
		if err != nil {
			return nil, fmt.Errorf("max rate: %w", err)
		}
		maxRate = v
	}

	maxBatch := gen.MaxBatch
	if maxBatch == 0 {
		maxBatch = DefaultMaxBatch
	}

	l := Ledger{
		owner: accounts.MustToAccountID(gen.Owner),
		id:    accounts.MustToAccountID(gen.Ledger),
		domain: signature.Domain{
			Name:              gen.Name,
			Version:           gen.Version,
			ChainID:           gen.ChainID,
			VerifyingContract: string(accounts.MustToAccountID(gen.Ledger)),
		},
		maxRate:   maxRate,
		maxBatch:  maxBatch,
		now:       now,
		evHandler: ev,
		storage:   cfg.Storage,
	}

	if err := l.load(gen); err != nil {
		return nil, err
	}

	return &l, nil
}

// Shutdown closes the journal storage.
func (l *Ledger) Shutdown() error {
	l.evHandler("ledger: shutdown: started")
	defer l.evHandler("ledger: shutdown: completed")

	if l.storage == nil {
		return nil
	}

	return l.storage.Close()
}

// ID returns the account that custodies the ledger's funds. It is also the
// verifying contract of the signing domain.
func (l *Ledger) ID() accounts.AccountID {
	return l.id
}

// Owner returns the administrator of the ledger.
func (l *Ledger) Owner() accounts.AccountID {
	return l.owner
}

// =============================================================================

// load builds the committed state from the journal, falling back to the
// genesis when there is nothing to resume from.
func (l *Ledger) load(gen genesis.Genesis) error {
	if l.storage != nil {
		rec, found, err := journal.Latest(l.storage)
		if err != nil {
			return err
		}

		if found {
			var snap snapshot
			if err := json.Unmarshal(rec.State, &snap); err != nil {
				return fmt.Errorf("decoding record %d: %w", rec.Seq, err)
			}

			w, err := restoreWorld(gen, snap, l.unixNow)
			if err != nil {
				return fmt.Errorf("restoring record %d: %w", rec.Seq, err)
			}

			l.evHandler("ledger: load: resumed: seq[%d] streams[%d]", rec.Seq, len(w.streams))

			l.seq = rec.Seq
			l.state = w
			return nil
		}
	}

	w, err := genesisWorld(gen, l.unixNow)
	if err != nil {
		return err
	}

	l.evHandler("ledger: load: genesis: accounts[%d]", len(gen.Balances))

	l.state = w
	return nil
}

// unixNow returns the ledger clock in unix seconds.
func (l *Ledger) unixNow() uint64 {
	t := l.now().Unix()
	if t < 0 {
		return 0
	}
	return uint64(t)
}

// authorize checks the caller is the owner.
func (l *Ledger) authorize(caller accounts.AccountID) error {
	if caller != l.owner {
		return ErrUnauthorized
	}
	return nil
}

// txFunc is a unit of work applied to a working copy of the ledger state at
// a fixed timestamp.
type txFunc func(w *world, now uint64) error

// execute runs the function against a working copy of the state. The copy
// replaces the committed state only when the function succeeds and the
// journal record is written, so a failure leaves no trace.
func (l *Ledger) execute(kind string, actor accounts.AccountID, streamID uint64, fn txFunc) (uint64, uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.unixNow()
	w := l.state.clone(func() uint64 { return now })

	if err := fn(w, now); err != nil {
		return 0, 0, err
	}

	seq := l.seq + 1

	if l.storage != nil {
		data, err := json.Marshal(w.snapshot())
		if err != nil {
			return 0, 0, fmt.Errorf("encoding state: %w", err)
		}

		rec := journal.Record{
			Seq:       seq,
			Kind:      kind,
			Actor:     string(actor),
			StreamID:  streamID,
			TimeStamp: now,
			State:     data,
		}

		if err := l.storage.Write(rec); err != nil {
			return 0, 0, fmt.Errorf("journal write: %w", err)
		}
	}

	// The committed vault reads the live clock so views see pending yield.
	w.vault = w.vault.Clone(w.book, l.unixNow)

	l.seq = seq
	l.state = w

	return seq, now, nil
}

// =============================================================================

// world is the complete mutable state of the ledger.
type world struct {
	book        *accounts.Accounts
	vault       *vault.Vault
	tax         *taxcollector.Collector
	streams     map[uint64]Stream
	nextID      uint64
	nonces      map[accounts.AccountID]uint64
	sponsorship *uint256.Int
}

// clone returns a deep copy of the world whose vault reads the clock given.
func (w *world) clone(now vault.Clock) *world {
	book := w.book.Clone()

	streams := make(map[uint64]Stream, len(w.streams))
	for id, s := range w.streams {
		streams[id] = s.clone()
	}

	nonces := make(map[accounts.AccountID]uint64, len(w.nonces))
	for id, n := range w.nonces {
		nonces[id] = n
	}

	return &world{
		book:        book,
		vault:       w.vault.Clone(book, now),
		tax:         w.tax.Clone(book),
		streams:     streams,
		nextID:      w.nextID,
		nonces:      nonces,
		sponsorship: w.sponsorship.Clone(),
	}
}

// snapshot is the persisted form of the world.
type snapshot struct {
	NextID       uint64                              `json:"next_id"`
	Streams      []Stream                            `json:"streams"`
	Nonces       map[accounts.AccountID]uint64       `json:"nonces"`
	Sponsorship  *uint256.Int                        `json:"sponsorship"`
	Vault        vault.State                         `json:"vault"`
	TaxCollected *uint256.Int                        `json:"tax_collected"`
	Balances     map[accounts.AccountID]*uint256.Int `json:"balances"`
}

func (w *world) snapshot() snapshot {
	balances := make(map[accounts.AccountID]*uint256.Int)
	for _, info := range w.book.Copy() {
		balances[info.AccountID] = info.Balance
	}

	nonces := make(map[accounts.AccountID]uint64, len(w.nonces))
	for id, n := range w.nonces {
		nonces[id] = n
	}

	return snapshot{
		NextID:       w.nextID,
		Streams:      w.sortedStreams(),
		Nonces:       nonces,
		Sponsorship:  w.sponsorship.Clone(),
		Vault:        w.vault.State(),
		TaxCollected: w.tax.TotalCollected(),
		Balances:     balances,
	}
}

// genesisWorld constructs the initial world from the genesis.
func genesisWorld(gen genesis.Genesis, now vault.Clock) (*world, error) {
	balances, err := gen.StartingBalances()
	if err != nil {
		return nil, err
	}

	book := accounts.New(balances)

	v, err := vault.New(vaultConfig(gen), book, now)
	if err != nil {
		return nil, err
	}

	tc, err := taxcollector.New(accounts.MustToAccountID(gen.TaxCollector), accounts.MustToAccountID(gen.Owner), book)
	if err != nil {
		return nil, err
	}

	w := world{
		book:        book,
		vault:       v,
		tax:         tc,
		streams:     make(map[uint64]Stream),
		nextID:      1,
		nonces:      make(map[accounts.AccountID]uint64),
		sponsorship: new(uint256.Int),
	}

	return &w, nil
}

// restoreWorld constructs the world from a persisted snapshot.
func restoreWorld(gen genesis.Genesis, snap snapshot, now vault.Clock) (*world, error) {
	if snap.NextID == 0 {
		return nil, errors.New("invalid next stream id")
	}

	book := accounts.New(snap.Balances)

	v, err := vault.Restore(vaultConfig(gen), book, now, snap.Vault)
	if err != nil {
		return nil, err
	}

	tc, err := taxcollector.Restore(accounts.MustToAccountID(gen.TaxCollector), accounts.MustToAccountID(gen.Owner), book, snap.TaxCollected)
	if err != nil {
		return nil, err
	}

	streams := make(map[uint64]Stream, len(snap.Streams))
	for _, s := range snap.Streams {
		if s.ID == 0 || s.ID >= snap.NextID {
			return nil, fmt.Errorf("stream id %d out of range", s.ID)
		}
		streams[s.ID] = s.clone()
	}

	nonces := snap.Nonces
	if nonces == nil {
		nonces = make(map[accounts.AccountID]uint64)
	}

	w := world{
		book:        book,
		vault:       v,
		tax:         tc,
		streams:     streams,
		nextID:      snap.NextID,
		nonces:      nonces,
		sponsorship: cloneAmount(snap.Sponsorship),
	}

	return &w, nil
}

// vaultConfig extracts the vault configuration. The ledger owns the vault
// so stream settlement can draw on it.
func vaultConfig(gen genesis.Genesis) vault.Config {
	return vault.Config{
		ID:           accounts.MustToAccountID(gen.Vault),
		Owner:        accounts.MustToAccountID(gen.Ledger),
		YieldRateBps: gen.YieldRateBps,
	}
}
