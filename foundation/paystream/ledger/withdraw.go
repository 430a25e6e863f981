package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/ardanlabs/paystream/foundation/paystream/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Settlement describes the funds moved by one withdrawal.
type Settlement struct {
	StreamID   uint64             `json:"stream_id"`
	Employee   accounts.AccountID `json:"employee"`
	Accrued    *uint256.Int       `json:"accrued"`
	Bonus      *uint256.Int       `json:"bonus"`
	Gross      *uint256.Int       `json:"gross"`
	Tax        *uint256.Int       `json:"tax"`
	Net        *uint256.Int       `json:"net"`
	Relayer    accounts.AccountID `json:"relayer,omitempty"`
	RelayerFee *uint256.Int       `json:"relayer_fee"`
	Nonce      uint64             `json:"nonce,omitempty"`
	TimeStamp  uint64             `json:"timestamp"`
	Seq        uint64             `json:"seq"`
	Receipt    string             `json:"receipt"`
}

// SignedWithdraw is a withdrawal authorized by the employee's signature and
// submitted by a relayer.
type SignedWithdraw struct {
	StreamID   uint64
	Nonce      uint64
	Deadline   uint64
	Signature  []byte
	Relayer    accounts.AccountID
	RelayerFee *uint256.Int
}

// Withdraw pays the employee the salary accrued since the last checkpoint
// plus any released bonus, net of tax on the salary.
func (l *Ledger) Withdraw(caller accounts.AccountID, streamID uint64) (Settlement, error) {
	var stl Settlement
	seq, _, err := l.execute("withdraw", caller, streamID, func(w *world, now uint64) error {
		s, err := w.withdrawableStream(streamID)
		if err != nil {
			return err
		}

		if caller != s.Employee {
			return ErrNotEmployee
		}

		stl, err = w.settle(l.id, s, now)
		if err != nil {
			return err
		}

		if stl.Gross.IsZero() {
			return ErrNothingToWithdraw
		}

		return nil
	})
	if err != nil {
		return Settlement{}, err
	}

	stl.Seq = seq
	stl.Receipt = receipt(stl)

	l.evHandler("ledger: withdraw: id[%d] employee[%s] gross[%s] tax[%s] net[%s]", streamID, stl.Employee, amount.Format(stl.Gross), amount.Format(stl.Tax), amount.Format(stl.Net))

	return stl, nil
}

// WithdrawSigned performs a withdrawal on behalf of the employee who signed
// the authorization. The relayer fee is paid from the sponsorship pool and
// never from the employee's pay.
func (l *Ledger) WithdrawSigned(sw SignedWithdraw) (Settlement, error) {
	fee := cloneAmount(sw.RelayerFee)
	if !fee.IsZero() && sw.Relayer.IsZero() {
		return Settlement{}, ErrZeroAddress
	}

	msg := signature.Withdraw{
		StreamID: sw.StreamID,
		Nonce:    sw.Nonce,
		Deadline: sw.Deadline,
	}

	var stl Settlement
	seq, _, err := l.execute("withdraw_signed", sw.Relayer, sw.StreamID, func(w *world, now uint64) error {
		if now > sw.Deadline {
			return fmt.Errorf("deadline %d, now %d: %w", sw.Deadline, now, ErrSignatureExpired)
		}

		s, err := w.withdrawableStream(sw.StreamID)
		if err != nil {
			return err
		}

		if expected := w.nonces[s.Employee]; sw.Nonce != expected {
			return fmt.Errorf("got %d, expected %d: %w", sw.Nonce, expected, ErrInvalidNonce)
		}

		signer, err := signature.FromAddress(l.domain, msg, sw.Signature)
		if err != nil {
			return fmt.Errorf("%s: %w", err, ErrInvalidSignature)
		}

		if accounts.AccountID(signer) != s.Employee {
			return fmt.Errorf("signed by %s: %w", signer, ErrInvalidSignature)
		}

		// The nonce is consumed before any funds move.
		w.nonces[s.Employee]++

		stl, err = w.settle(l.id, s, now)
		if err != nil {
			return err
		}

		if stl.Gross.IsZero() {
			return ErrNothingToWithdraw
		}

		if !fee.IsZero() {
			if fee.Gt(w.sponsorship) {
				return fmt.Errorf("fee %s, pool %s: %w", fee, w.sponsorship, ErrInsufficientSponsorship)
			}

			w.sponsorship = new(uint256.Int).Sub(w.sponsorship, fee)
			if err := w.book.Transfer(l.id, sw.Relayer, fee); err != nil {
				return fmt.Errorf("relayer fee: %w", err)
			}
		}

		stl.Relayer = sw.Relayer
		stl.RelayerFee = fee
		stl.Nonce = sw.Nonce

		return nil
	})
	if err != nil {
		return Settlement{}, err
	}

	stl.Seq = seq
	stl.Receipt = receipt(stl)

	l.evHandler("ledger: withdraw signed: id[%d] employee[%s] nonce[%d] relayer[%s] fee[%s] net[%s]", sw.StreamID, stl.Employee, sw.Nonce, sw.Relayer, amount.Format(fee), amount.Format(stl.Net))

	return stl, nil
}

// =============================================================================

// withdrawableStream returns a copy of the stream, failing unless it is
// active and not paused.
func (w *world) withdrawableStream(streamID uint64) (Stream, error) {
	s, err := w.activeStream(streamID)
	if err != nil {
		return Stream{}, err
	}

	if s.Paused {
		return Stream{}, fmt.Errorf("stream %d: %w", streamID, ErrStreamPaused)
	}

	return s, nil
}

// settle checkpoints the stream, marks a released bonus claimed, and then
// moves the gross amount out of the treasury. Tax on the salary goes to the
// tax collector and the rest to the employee. A zero gross moves nothing.
func (w *world) settle(ledgerID accounts.AccountID, s Stream, now uint64) (Settlement, error) {
	accrued, err := s.accrued(now)
	if err != nil {
		return Settlement{}, err
	}

	bonus := s.claimableBonus(now)

	gross, overflow := new(uint256.Int).AddOverflow(accrued, bonus)
	if overflow {
		return Settlement{}, amount.ErrOverflow
	}

	tax, err := amount.Bps(accrued, s.TaxBps)
	if err != nil {
		return Settlement{}, err
	}

	net := new(uint256.Int).Sub(gross, tax)

	stl := Settlement{
		StreamID:   s.ID,
		Employee:   s.Employee,
		Accrued:    accrued,
		Bonus:      bonus,
		Gross:      gross,
		Tax:        tax,
		Net:        net,
		RelayerFee: new(uint256.Int),
		TimeStamp:  now,
	}

	if gross.IsZero() {
		return stl, nil
	}

	// Internal accounting is final before any funds move.
	if s.accrues() && now > s.LastCheckpoint {
		s.LastCheckpoint = now
	}
	if !bonus.IsZero() {
		s.BonusClaimed = true
	}
	w.streams[s.ID] = s

	if err := w.vault.Withdraw(ledgerID, gross, ledgerID); err != nil {
		return Settlement{}, fmt.Errorf("treasury: %w", err)
	}

	if !tax.IsZero() {
		if err := w.tax.DepositTax(ledgerID, tax); err != nil {
			return Settlement{}, err
		}
	}

	if !net.IsZero() {
		if err := w.book.Transfer(ledgerID, s.Employee, net); err != nil {
			return Settlement{}, fmt.Errorf("pay employee: %w", err)
		}
	}

	return stl, nil
}

// receipt returns the keccak256 hash of the settlement, which identifies it
// to the party that submitted it.
func receipt(stl Settlement) string {
	stl.Receipt = ""

	data, err := json.Marshal(stl)
	if err != nil {
		return ""
	}

	return hexutil.Encode(crypto.Keccak256(data))
}
