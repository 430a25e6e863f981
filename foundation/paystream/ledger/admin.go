package ledger

import (
	"fmt"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/holiman/uint256"
)

// CreateStream opens a new stream for the employee and returns its id.
// Accrual starts at the moment of creation.
func (l *Ledger) CreateStream(caller accounts.AccountID, ns NewStream) (uint64, error) {
	if err := l.authorize(caller); err != nil {
		return 0, err
	}

	if err := validateNewStream(ns, l.maxRate); err != nil {
		return 0, err
	}

	var id uint64
	_, _, err := l.execute("create_stream", caller, 0, func(w *world, now uint64) error {
		id = w.openStream(ns, now)
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.evHandler("ledger: create stream: id[%d] employee[%s] rate[%s] taxbps[%d]", id, ns.Employee, amount.Format(ns.RatePerSecond), ns.TaxBps)

	return id, nil
}

// BatchCreateStreams opens one stream per entry, in order, and returns the
// ids assigned. Any invalid entry rejects the whole batch.
func (l *Ledger) BatchCreateStreams(caller accounts.AccountID, batch []NewStream) ([]uint64, error) {
	if err := l.authorize(caller); err != nil {
		return nil, err
	}

	if len(batch) == 0 || len(batch) > l.maxBatch {
		return nil, fmt.Errorf("batch of %d, limit %d: %w", len(batch), l.maxBatch, ErrInvalidBatchSize)
	}

	for i, ns := range batch {
		if err := validateNewStream(ns, l.maxRate); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	ids := make([]uint64, 0, len(batch))
	_, _, err := l.execute("batch_create_streams", caller, 0, func(w *world, now uint64) error {
		for _, ns := range batch {
			ids = append(ids, w.openStream(ns, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, id := range ids {
		l.evHandler("ledger: create stream: id[%d] employee[%s] rate[%s] taxbps[%d]", id, batch[i].Employee, amount.Format(batch[i].RatePerSecond), batch[i].TaxBps)
	}

	return ids, nil
}

// ScheduleBonus attaches a one time bonus to the stream, claimable on or
// after the release time. A pending unclaimed bonus is replaced and its
// amount returned.
func (l *Ledger) ScheduleBonus(caller accounts.AccountID, streamID uint64, amt *uint256.Int, releaseTime uint64) (*uint256.Int, error) {
	if err := l.authorize(caller); err != nil {
		return nil, err
	}

	if amt == nil || amt.IsZero() {
		return nil, ErrZeroAmount
	}

	replaced := new(uint256.Int)
	_, _, err := l.execute("schedule_bonus", caller, streamID, func(w *world, now uint64) error {
		s, err := w.activeStream(streamID)
		if err != nil {
			return err
		}

		if releaseTime <= now {
			return fmt.Errorf("release %d, now %d: %w", releaseTime, now, ErrReleaseTimeNotFuture)
		}

		if s.pendingBonus() {
			replaced = s.BonusAmount.Clone()
		}

		s.BonusAmount = amt.Clone()
		s.BonusReleaseTime = releaseTime
		s.BonusClaimed = false
		w.streams[streamID] = s

		return nil
	})
	if err != nil {
		return nil, err
	}

	if !replaced.IsZero() {
		l.evHandler("ledger: schedule bonus: id[%d] WARNING replaced unclaimed bonus[%s]", streamID, amount.Format(replaced))
	}
	l.evHandler("ledger: schedule bonus: id[%d] amount[%s] release[%d]", streamID, amount.Format(amt), releaseTime)

	return replaced, nil
}

// PauseStream pays the employee the salary accrued up to now plus any
// released bonus, then stops accrual. If the treasury cannot cover the
// payment the pause fails and nothing changes.
func (l *Ledger) PauseStream(caller accounts.AccountID, streamID uint64) (Settlement, error) {
	if err := l.authorize(caller); err != nil {
		return Settlement{}, err
	}

	var stl Settlement
	seq, _, err := l.execute("pause_stream", caller, streamID, func(w *world, now uint64) error {
		s, err := w.activeStream(streamID)
		if err != nil {
			return err
		}

		if s.Paused {
			return ErrAlreadyPaused
		}

		stl, err = w.settle(l.id, s, now)
		if err != nil {
			return err
		}

		s = w.streams[streamID]
		s.Paused = true
		s.LastCheckpoint = now
		w.streams[streamID] = s

		return nil
	})
	if err != nil {
		return Settlement{}, err
	}

	stl.Seq = seq
	stl.Receipt = receipt(stl)

	l.evHandler("ledger: pause stream: id[%d] settled gross[%s] tax[%s] net[%s]", streamID, amount.Format(stl.Gross), amount.Format(stl.Tax), amount.Format(stl.Net))

	return stl, nil
}

// ResumeStream restarts accrual from now and returns the journal sequence
// of the change. Time spent paused never accrues.
func (l *Ledger) ResumeStream(caller accounts.AccountID, streamID uint64) (uint64, error) {
	if err := l.authorize(caller); err != nil {
		return 0, err
	}

	seq, _, err := l.execute("resume_stream", caller, streamID, func(w *world, now uint64) error {
		s, err := w.activeStream(streamID)
		if err != nil {
			return err
		}

		if !s.Paused {
			return ErrNotPaused
		}

		s.Paused = false
		s.LastCheckpoint = now
		w.streams[streamID] = s

		return nil
	})
	if err != nil {
		return 0, err
	}

	l.evHandler("ledger: resume stream: id[%d]", streamID)

	return seq, nil
}

// CancelStream permanently deactivates the stream. Salary accrued up to now
// and any released bonus are paid to the employee first. If the treasury
// cannot cover them the cancellation fails and nothing changes. A bonus that
// has not been released yet is forfeited.
func (l *Ledger) CancelStream(caller accounts.AccountID, streamID uint64) (Settlement, error) {
	if err := l.authorize(caller); err != nil {
		return Settlement{}, err
	}

	var stl Settlement
	seq, _, err := l.execute("cancel_stream", caller, streamID, func(w *world, now uint64) error {
		s, err := w.activeStream(streamID)
		if err != nil {
			return err
		}

		stl, err = w.settle(l.id, s, now)
		if err != nil {
			return err
		}

		s = w.streams[streamID]
		s.Active = false
		s.LastCheckpoint = now
		w.streams[streamID] = s

		return nil
	})
	if err != nil {
		return Settlement{}, err
	}

	stl.Seq = seq
	stl.Receipt = receipt(stl)

	l.evHandler("ledger: cancel stream: id[%d] settled gross[%s] tax[%s] net[%s]", streamID, amount.Format(stl.Gross), amount.Format(stl.Tax), amount.Format(stl.Net))

	return stl, nil
}

// DepositTreasury moves funds from the caller into the treasury vault and
// returns the journal sequence of the deposit.
func (l *Ledger) DepositTreasury(caller accounts.AccountID, amt *uint256.Int) (uint64, error) {
	if err := l.authorize(caller); err != nil {
		return 0, err
	}

	if amt == nil || amt.IsZero() {
		return 0, ErrZeroAmount
	}

	seq, _, err := l.execute("deposit_treasury", caller, 0, func(w *world, now uint64) error {
		return w.vault.Deposit(l.id, caller, amt)
	})
	if err != nil {
		return 0, err
	}

	l.evHandler("ledger: deposit treasury: from[%s] amount[%s]", caller, amount.Format(amt))

	return seq, nil
}

// DepositSponsorship moves funds from the caller into the pool that pays
// relayer fees.
func (l *Ledger) DepositSponsorship(caller accounts.AccountID, amt *uint256.Int) (uint64, error) {
	if err := l.authorize(caller); err != nil {
		return 0, err
	}

	if amt == nil || amt.IsZero() {
		return 0, ErrZeroAmount
	}

	seq, _, err := l.execute("deposit_sponsorship", caller, 0, func(w *world, now uint64) error {
		pool, overflow := new(uint256.Int).AddOverflow(w.sponsorship, amt)
		if overflow {
			return amount.ErrOverflow
		}

		if err := w.book.Transfer(caller, l.id, amt); err != nil {
			return fmt.Errorf("sponsorship deposit: %w", err)
		}

		w.sponsorship = pool
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.evHandler("ledger: deposit sponsorship: from[%s] amount[%s]", caller, amount.Format(amt))

	return seq, nil
}

// SetYieldRate changes the treasury's simulated yield rate.
func (l *Ledger) SetYieldRate(caller accounts.AccountID, bps uint64) (uint64, error) {
	if err := l.authorize(caller); err != nil {
		return 0, err
	}

	seq, _, err := l.execute("set_yield_rate", caller, 0, func(w *world, now uint64) error {
		return w.vault.SetYieldRate(l.id, bps)
	})
	if err != nil {
		return 0, err
	}

	l.evHandler("ledger: set yield rate: bps[%d]", bps)

	return seq, nil
}

// WithdrawTax moves collected tax to the specified account.
func (l *Ledger) WithdrawTax(caller accounts.AccountID, to accounts.AccountID, amt *uint256.Int) (uint64, error) {
	if err := l.authorize(caller); err != nil {
		return 0, err
	}

	if to.IsZero() {
		return 0, ErrZeroAddress
	}

	seq, _, err := l.execute("withdraw_tax", caller, 0, func(w *world, now uint64) error {
		return w.tax.WithdrawTax(caller, to, amt)
	})
	if err != nil {
		return 0, err
	}

	l.evHandler("ledger: withdraw tax: to[%s] amount[%s]", to, amount.Format(amt))

	return seq, nil
}

// =============================================================================

// openStream assigns the next id and records a new active stream.
func (w *world) openStream(ns NewStream, now uint64) uint64 {
	id := w.nextID
	w.nextID++

	w.streams[id] = Stream{
		ID:             id,
		Employee:       ns.Employee,
		RatePerSecond:  ns.RatePerSecond.Clone(),
		LastCheckpoint: now,
		TaxBps:         ns.TaxBps,
		Active:         true,
		BonusAmount:    new(uint256.Int),
		CreatedAt:      now,
	}

	return id
}

// activeStream returns a copy of the stream, failing unless it is active.
func (w *world) activeStream(streamID uint64) (Stream, error) {
	s, exists := w.streams[streamID]
	if !exists {
		return Stream{}, fmt.Errorf("stream %d: %w", streamID, ErrStreamNotFound)
	}

	if !s.Active {
		return Stream{}, fmt.Errorf("stream %d: %w", streamID, ErrStreamInactive)
	}

	return s, nil
}
