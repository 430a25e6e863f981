// Package accounts maintains the spendable balances of every party that
// moves funds through the payroll system. It plays the role of the external
// ledger: components never hold money themselves, they move it here.
package accounts

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/holiman/uint256"
)

// ErrInsufficientFunds is returned when a transfer exceeds the balance of
// the paying account.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Info represents information stored for an individual account.
type Info struct {
	AccountID AccountID
	Balance   *uint256.Int
}

// Accounts manages the balances of all known accounts.
type Accounts struct {
	info map[AccountID]*uint256.Int
	mu   sync.RWMutex
}

// New constructs an accounts book with the specified starting balances,
// usually from the genesis file.
func New(balances map[AccountID]*uint256.Int) *Accounts {
	act := Accounts{
		info: make(map[AccountID]*uint256.Int),
	}

	for id, balance := range balances {
		act.info[id] = balance.Clone()
	}

	return &act
}

// Clone makes a deep copy of the current accounts.
func (act *Accounts) Clone() *Accounts {
	act.mu.RLock()
	defer act.mu.RUnlock()

	return New(act.info)
}

// Copy makes a copy of the current information for all accounts, sorted
// by account id.
func (act *Accounts) Copy() []Info {
	act.mu.RLock()
	defer act.mu.RUnlock()

	infos := make([]Info, 0, len(act.info))
	for id, balance := range act.info {
		infos = append(infos, Info{AccountID: id, Balance: balance.Clone()})
	}

	sort.Sort(byAccount(infos))
	return infos
}

// Balance returns the current balance for the specified account. Unknown
// accounts have a zero balance.
func (act *Accounts) Balance(id AccountID) *uint256.Int {
	act.mu.RLock()
	defer act.mu.RUnlock()

	balance, exists := act.info[id]
	if !exists {
		return new(uint256.Int)
	}
	return balance.Clone()
}

// Credit adds funds to the specified account without a paying party. This
// is used for genesis funding and simulated yield.
func (act *Accounts) Credit(id AccountID, amt *uint256.Int) error {
	act.mu.Lock()
	defer act.mu.Unlock()

	balance := act.balance(id)
	sum, overflow := new(uint256.Int).AddOverflow(balance, amt)
	if overflow {
		return fmt.Errorf("credit %s: %w", id, amount.ErrOverflow)
	}

	act.info[id] = sum
	return nil
}

// Transfer moves the amount from one account to another. Either both sides
// are updated or neither is.
func (act *Accounts) Transfer(from AccountID, to AccountID, amt *uint256.Int) error {
	act.mu.Lock()
	defer act.mu.Unlock()

	fromBalance := act.balance(from)
	if fromBalance.Lt(amt) {
		return fmt.Errorf("%s has %s, needs %s: %w", from, fromBalance, amt, ErrInsufficientFunds)
	}

	if from == to {
		return nil
	}

	toBalance, overflow := new(uint256.Int).AddOverflow(act.balance(to), amt)
	if overflow {
		return fmt.Errorf("transfer to %s: %w", to, amount.ErrOverflow)
	}

	act.info[from] = new(uint256.Int).Sub(fromBalance, amt)
	act.info[to] = toBalance

	return nil
}

// balance returns the stored balance or zero. The caller must hold the lock.
func (act *Accounts) balance(id AccountID) *uint256.Int {
	balance, exists := act.info[id]
	if !exists {
		return new(uint256.Int)
	}
	return balance
}

// =============================================================================

// byAccount provides sorting support by the account id value.
type byAccount []Info

// Len returns the number of accounts in the list.
func (ba byAccount) Len() int {
	return len(ba)
}

// Less helps to sort the list by account id in ascending order.
func (ba byAccount) Less(i, j int) bool {
	return ba[i].AccountID < ba[j].AccountID
}

// Swap moves accounts in the order of the account id value.
func (ba byAccount) Swap(i, j int) {
	ba[i], ba[j] = ba[j], ba[i]
}
