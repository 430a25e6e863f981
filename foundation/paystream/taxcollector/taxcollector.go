// Package taxcollector implements the passive account that receives tax
// withheld from stream withdrawals.
package taxcollector

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/holiman/uint256"
)

// Set of error variables for tax collector operations.
var (
	ErrUnauthorized        = errors.New("caller is not the tax collector owner")
	ErrZeroAmount          = errors.New("amount must be greater than zero")
	ErrInsufficientBalance = errors.New("insufficient tax balance")
)

// Book represents the behavior the collector needs from the balance ledger.
type Book interface {
	Transfer(from accounts.AccountID, to accounts.AccountID, amount *uint256.Int) error
	Balance(id accounts.AccountID) *uint256.Int
}

// Collector accumulates tax deposits and lets the owner move them out.
type Collector struct {
	id             accounts.AccountID
	owner          accounts.AccountID
	book           Book
	totalCollected *uint256.Int
}

// New constructs a collector holding its funds under the specified id.
func New(id accounts.AccountID, owner accounts.AccountID, book Book) (*Collector, error) {
	if id.IsZero() || owner.IsZero() {
		return nil, errors.New("tax collector requires an id and an owner")
	}

	c := Collector{
		id:             id,
		owner:          owner,
		book:           book,
		totalCollected: new(uint256.Int),
	}

	return &c, nil
}

// Restore constructs a collector with a previously persisted running total.
func Restore(id accounts.AccountID, owner accounts.AccountID, book Book, totalCollected *uint256.Int) (*Collector, error) {
	c, err := New(id, owner, book)
	if err != nil {
		return nil, err
	}

	if totalCollected != nil {
		c.totalCollected = totalCollected.Clone()
	}

	return c, nil
}

// Clone returns a copy of the collector bound to a different book.
func (c *Collector) Clone(book Book) *Collector {
	return &Collector{
		id:             c.id,
		owner:          c.owner,
		book:           book,
		totalCollected: c.totalCollected.Clone(),
	}
}

// ID returns the account that holds the collected tax.
func (c *Collector) ID() accounts.AccountID {
	return c.id
}

// DepositTax pulls the amount from the specified account. Anyone may deposit.
func (c *Collector) DepositTax(from accounts.AccountID, amt *uint256.Int) error {
	if amt == nil || amt.IsZero() {
		return ErrZeroAmount
	}

	total, overflow := new(uint256.Int).AddOverflow(c.totalCollected, amt)
	if overflow {
		return fmt.Errorf("tax total: %w", amount.ErrOverflow)
	}

	if err := c.book.Transfer(from, c.id, amt); err != nil {
		return fmt.Errorf("tax deposit: %w", err)
	}

	c.totalCollected = total

	return nil
}

// WithdrawTax sends collected tax to the specified account.
func (c *Collector) WithdrawTax(caller accounts.AccountID, to accounts.AccountID, amt *uint256.Int) error {
	if caller != c.owner {
		return ErrUnauthorized
	}

	if amt == nil || amt.IsZero() {
		return ErrZeroAmount
	}

	if to.IsZero() {
		return errors.New("tax withdraw to the zero account")
	}

	if held := c.book.Balance(c.id); amt.Gt(held) {
		return fmt.Errorf("requested %s, held %s: %w", amt, held, ErrInsufficientBalance)
	}

	if err := c.book.Transfer(c.id, to, amt); err != nil {
		return fmt.Errorf("tax withdraw: %w", err)
	}

	return nil
}

// TotalCollected returns the running total of all tax ever deposited.
func (c *Collector) TotalCollected() *uint256.Int {
	return c.totalCollected.Clone()
}

// Balance returns the tax currently held.
func (c *Collector) Balance() *uint256.Int {
	return c.book.Balance(c.id)
}
