package ledger

import (
	"fmt"
	"sort"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/ardanlabs/paystream/foundation/paystream/signature"
	"github.com/ardanlabs/paystream/foundation/paystream/vault"
	"github.com/holiman/uint256"
)

// Domain returns the signing domain withdrawal authorizations are bound to.
func (l *Ledger) Domain() signature.Domain {
	return l.domain
}

// StreamInfo returns a copy of the stream.
func (l *Ledger) StreamInfo(streamID uint64) (Stream, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, exists := l.state.streams[streamID]
	if !exists {
		return Stream{}, fmt.Errorf("stream %d: %w", streamID, ErrStreamNotFound)
	}

	return s.clone(), nil
}

// Streams returns a copy of every stream ordered by id.
func (l *Ledger) Streams() []Stream {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.state.sortedStreams()
}

// StreamsByEmployee returns a copy of the employee's streams ordered by id.
func (l *Ledger) StreamsByEmployee(employee accounts.AccountID) []Stream {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var streams []Stream
	for _, s := range l.state.sortedStreams() {
		if s.Employee == employee {
			streams = append(streams, s)
		}
	}

	return streams
}

// AccruedSalary returns the salary earned since the last checkpoint. It is
// zero for a paused or cancelled stream.
func (l *Ledger) AccruedSalary(streamID uint64) (*uint256.Int, error) {
	s, err := l.StreamInfo(streamID)
	if err != nil {
		return nil, err
	}

	return s.accrued(l.unixNow())
}

// NetWithdrawable returns accrued salary plus any released bonus, net of
// tax on the salary. It is zero for a cancelled stream.
func (l *Ledger) NetWithdrawable(streamID uint64) (*uint256.Int, error) {
	s, err := l.StreamInfo(streamID)
	if err != nil {
		return nil, err
	}

	if !s.Active {
		return new(uint256.Int), nil
	}

	now := l.unixNow()

	accrued, err := s.accrued(now)
	if err != nil {
		return nil, err
	}

	tax, err := amount.Bps(accrued, s.TaxBps)
	if err != nil {
		return nil, err
	}

	net, overflow := new(uint256.Int).AddOverflow(accrued, s.claimableBonus(now))
	if overflow {
		return nil, amount.ErrOverflow
	}

	return net.Sub(net, tax), nil
}

// Nonce returns the next nonce the employee must sign.
func (l *Ledger) Nonce(employee accounts.AccountID) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.state.nonces[employee]
}

// TreasuryBalance returns the treasury principal plus all yield to date.
func (l *Ledger) TreasuryBalance() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.state.vault.CurrentBalance()
}

// TreasuryState returns the vault accounting and the current yield rate.
func (l *Ledger) TreasuryState() vault.State {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.state.vault.State()
}

// SponsorshipBalance returns the funds available to pay relayer fees.
func (l *Ledger) SponsorshipBalance() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.state.sponsorship.Clone()
}

// TaxCollected returns the running total of tax withheld and the amount
// currently held by the tax collector.
func (l *Ledger) TaxCollected() (total *uint256.Int, held *uint256.Int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.state.tax.TotalCollected(), l.state.tax.Balance()
}

// Balance returns the spendable balance of the account.
func (l *Ledger) Balance(id accounts.AccountID) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.state.book.Balance(id)
}

// Accounts returns the balance of every known account.
func (l *Ledger) Accounts() []accounts.Info {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.state.book.Copy()
}

// LatestSeq returns the sequence of the last committed operation.
func (l *Ledger) LatestSeq() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.seq
}

// =============================================================================

// sortedStreams returns copies of the streams ordered by id.
func (w *world) sortedStreams() []Stream {
	streams := make([]Stream, 0, len(w.streams))
	for _, s := range w.streams {
		streams = append(streams, s.clone())
	}

	sort.Slice(streams, func(i, j int) bool {
		return streams[i].ID < streams[j].ID
	})

	return streams
}
