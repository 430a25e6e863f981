// Package vault implements the treasury that holds pooled payroll funds.
// The vault simulates a linear, non compounding yield on its principal that
// is accrued lazily whenever the vault is touched.
package vault

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/holiman/uint256"
)

// SecondsPerYear is the length of the year used by the yield simulation.
const SecondsPerYear = 365 * 24 * 60 * 60

// MaxYieldRateBps is the largest yield rate the vault accepts.
const MaxYieldRateBps = amount.BpsDenominator

// Set of error variables for vault operations.
var (
	ErrUnauthorized        = errors.New("caller is not the vault owner")
	ErrZeroAmount          = errors.New("amount must be greater than zero")
	ErrInsufficientBalance = errors.New("insufficient vault balance")
	ErrRateTooHigh         = errors.New("yield rate too high")
)

// Book represents the behavior the vault needs from the balance ledger to
// move real funds.
type Book interface {
	Transfer(from accounts.AccountID, to accounts.AccountID, amount *uint256.Int) error
	Credit(id accounts.AccountID, amount *uint256.Int) error
}

// Clock returns the current time in unix seconds.
type Clock func() uint64

// Config represents the configuration required to construct a vault.
type Config struct {
	ID           accounts.AccountID
	Owner        accounts.AccountID
	YieldRateBps uint64
}

// State is the persisted form of the vault's accounting.
type State struct {
	TotalPrincipal   *uint256.Int `json:"total_principal"`
	YieldRateBps     uint64       `json:"yield_rate_bps"`
	LastUpdate       uint64       `json:"last_update"`
	AccumulatedYield *uint256.Int `json:"accumulated_yield"`
}

// Vault manages the treasury principal and its simulated yield.
type Vault struct {
	id    accounts.AccountID
	owner accounts.AccountID
	book  Book
	now   Clock

	totalPrincipal   *uint256.Int
	yieldRateBps     uint64
	lastUpdate       uint64
	accumulatedYield *uint256.Int
}

// New constructs a vault with no principal.
func New(cfg Config, book Book, now Clock) (*Vault, error) {
	if cfg.ID.IsZero() || cfg.Owner.IsZero() {
		return nil, errors.New("vault requires an id and an owner")
	}

	if cfg.YieldRateBps > MaxYieldRateBps {
		return nil, ErrRateTooHigh
	}

	v := Vault{
		id:               cfg.ID,
		owner:            cfg.Owner,
		book:             book,
		now:              now,
		totalPrincipal:   new(uint256.Int),
		yieldRateBps:     cfg.YieldRateBps,
		lastUpdate:       now(),
		accumulatedYield: new(uint256.Int),
	}

	return &v, nil
}

// Restore constructs a vault from previously persisted state.
func Restore(cfg Config, book Book, now Clock, st State) (*Vault, error) {
	v, err := New(cfg, book, now)
	if err != nil {
		return nil, err
	}

	if st.YieldRateBps > MaxYieldRateBps {
		return nil, ErrRateTooHigh
	}

	v.totalPrincipal = orZero(st.TotalPrincipal)
	v.yieldRateBps = st.YieldRateBps
	v.lastUpdate = st.LastUpdate
	v.accumulatedYield = orZero(st.AccumulatedYield)

	return v, nil
}

// Clone returns a copy of the vault bound to a different book and clock.
func (v *Vault) Clone(book Book, now Clock) *Vault {
	return &Vault{
		id:               v.id,
		owner:            v.owner,
		book:             book,
		now:              now,
		totalPrincipal:   v.totalPrincipal.Clone(),
		yieldRateBps:     v.yieldRateBps,
		lastUpdate:       v.lastUpdate,
		accumulatedYield: v.accumulatedYield.Clone(),
	}
}

// ID returns the account that holds the vault's funds.
func (v *Vault) ID() accounts.AccountID {
	return v.id
}

// State returns a copy of the vault's accounting.
func (v *Vault) State() State {
	return State{
		TotalPrincipal:   v.totalPrincipal.Clone(),
		YieldRateBps:     v.yieldRateBps,
		LastUpdate:       v.lastUpdate,
		AccumulatedYield: v.accumulatedYield.Clone(),
	}
}

// Deposit accrues any pending yield and then pulls the amount from the
// specified account into the vault as principal.
func (v *Vault) Deposit(caller accounts.AccountID, from accounts.AccountID, amt *uint256.Int) error {
	if caller != v.owner {
		return ErrUnauthorized
	}

	if amt == nil || amt.IsZero() {
		return ErrZeroAmount
	}

	if err := v.accrue(); err != nil {
		return err
	}

	principal, overflow := new(uint256.Int).AddOverflow(v.totalPrincipal, amt)
	if overflow {
		return amount.ErrOverflow
	}

	if err := v.book.Transfer(from, v.id, amt); err != nil {
		return fmt.Errorf("vault deposit: %w", err)
	}

	v.totalPrincipal = principal

	return nil
}

// Withdraw accrues any pending yield and sends the amount to the specified
// account. Accumulated yield is consumed before principal.
func (v *Vault) Withdraw(caller accounts.AccountID, amt *uint256.Int, to accounts.AccountID) error {
	if caller != v.owner {
		return ErrUnauthorized
	}

	if amt == nil || amt.IsZero() {
		return ErrZeroAmount
	}

	if err := v.accrue(); err != nil {
		return err
	}

	available, overflow := new(uint256.Int).AddOverflow(v.totalPrincipal, v.accumulatedYield)
	if overflow || amt.Gt(available) {
		return fmt.Errorf("requested %s, available %s: %w", amt, available, ErrInsufficientBalance)
	}

	fromYield := amount.Min(amt, v.accumulatedYield)
	fromPrincipal := new(uint256.Int).Sub(amt, fromYield)

	v.accumulatedYield = new(uint256.Int).Sub(v.accumulatedYield, fromYield)
	v.totalPrincipal = new(uint256.Int).Sub(v.totalPrincipal, fromPrincipal)

	// The yield is simulated, so the funds backing it are created at the
	// moment they leave the vault.
	if !fromYield.IsZero() {
		if err := v.book.Credit(v.id, fromYield); err != nil {
			return fmt.Errorf("vault yield: %w", err)
		}
	}

	if err := v.book.Transfer(v.id, to, amt); err != nil {
		return fmt.Errorf("vault withdraw: %w", err)
	}

	return nil
}

// SetYieldRate changes the simulated yield rate. Yield up to now is accrued
// at the old rate first so the change is never applied retroactively.
func (v *Vault) SetYieldRate(caller accounts.AccountID, bps uint64) error {
	if caller != v.owner {
		return ErrUnauthorized
	}

	if bps > MaxYieldRateBps {
		return fmt.Errorf("rate %d bps: %w", bps, ErrRateTooHigh)
	}

	if err := v.accrue(); err != nil {
		return err
	}

	v.yieldRateBps = bps

	return nil
}

// YieldRate returns the current yield rate in basis points.
func (v *Vault) YieldRate() uint64 {
	return v.yieldRateBps
}

// CurrentBalance returns the principal plus accrued and pending yield
// without changing any state.
func (v *Vault) CurrentBalance() *uint256.Int {
	pending, err := v.pendingYield()
	if err != nil {
		pending = new(uint256.Int)
	}

	balance := new(uint256.Int).Add(v.totalPrincipal, v.accumulatedYield)
	return balance.Add(balance, pending)
}

// =============================================================================

// accrue moves pending yield into the accumulated yield.
func (v *Vault) accrue() error {
	now := v.now()
	if now <= v.lastUpdate {
		return nil
	}

	pending, err := v.pendingYield()
	if err != nil {
		return err
	}

	accumulated, overflow := new(uint256.Int).AddOverflow(v.accumulatedYield, pending)
	if overflow {
		return amount.ErrOverflow
	}

	v.accumulatedYield = accumulated
	v.lastUpdate = now

	return nil
}

// pendingYield calculates principal * rate * elapsed / (10000 * year).
func (v *Vault) pendingYield() (*uint256.Int, error) {
	now := v.now()
	if now <= v.lastUpdate || v.yieldRateBps == 0 || v.totalPrincipal.IsZero() {
		return new(uint256.Int), nil
	}

	elapsed := now - v.lastUpdate
	factor := new(uint256.Int).Mul(uint256.NewInt(v.yieldRateBps), uint256.NewInt(elapsed))
	denom := uint256.NewInt(amount.BpsDenominator * SecondsPerYear)

	return amount.MulDiv(v.totalPrincipal, factor, denom)
}

// orZero protects against missing values in persisted state.
func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}
