package ledger

import (
	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/holiman/uint256"
)

// Stream is one employer to employee payment channel.
type Stream struct {
	ID               uint64             `json:"id"`
	Employee         accounts.AccountID `json:"employee"`
	RatePerSecond    *uint256.Int       `json:"rate_per_second"`
	LastCheckpoint   uint64             `json:"last_checkpoint"`
	TaxBps           uint64             `json:"tax_bps"`
	Active           bool               `json:"active"`
	Paused           bool               `json:"paused"`
	BonusAmount      *uint256.Int       `json:"bonus_amount"`
	BonusReleaseTime uint64             `json:"bonus_release_time"`
	BonusClaimed     bool               `json:"bonus_claimed"`
	CreatedAt        uint64             `json:"created_at"`
}

// NewStream is the information required to open a stream.
type NewStream struct {
	Employee      accounts.AccountID
	RatePerSecond *uint256.Int
	TaxBps        uint64
}

// clone makes a deep copy of the stream.
func (s Stream) clone() Stream {
	s.RatePerSecond = cloneAmount(s.RatePerSecond)
	s.BonusAmount = cloneAmount(s.BonusAmount)
	return s
}

// cloneAmount copies the value, treating nil as zero.
func cloneAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}

// accrues reports whether the stream is currently earning salary.
func (s Stream) accrues() bool {
	return s.Active && !s.Paused
}

// accrued returns rate * (now - checkpoint) for a stream that is earning,
// zero otherwise.
func (s Stream) accrued(now uint64) (*uint256.Int, error) {
	if !s.accrues() || now <= s.LastCheckpoint {
		return new(uint256.Int), nil
	}

	elapsed := uint256.NewInt(now - s.LastCheckpoint)
	v, overflow := new(uint256.Int).MulOverflow(s.RatePerSecond, elapsed)
	if overflow {
		return nil, amount.ErrOverflow
	}

	return v, nil
}

// pendingBonus reports whether a bonus is scheduled and not yet claimed.
func (s Stream) pendingBonus() bool {
	return !s.BonusClaimed && s.BonusAmount != nil && !s.BonusAmount.IsZero()
}

// claimableBonus returns the bonus amount when it has been released and not
// yet claimed, zero otherwise.
func (s Stream) claimableBonus(now uint64) *uint256.Int {
	if !s.pendingBonus() || now < s.BonusReleaseTime {
		return new(uint256.Int)
	}
	return s.BonusAmount.Clone()
}

// validateNewStream checks a stream request against the ledger limits.
func validateNewStream(ns NewStream, maxRate *uint256.Int) error {
	if ns.Employee.IsZero() {
		return ErrZeroAddress
	}

	if ns.RatePerSecond == nil || ns.RatePerSecond.IsZero() || ns.RatePerSecond.Gt(maxRate) {
		return ErrInvalidRate
	}

	if ns.TaxBps > amount.BpsDenominator {
		return ErrInvalidTaxBps
	}

	return nil
}
