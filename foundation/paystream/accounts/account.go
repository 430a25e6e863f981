package accounts

import (
	"crypto/ecdsa"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroAccountID represents the account id of all zeros. It is never a valid
// party to a stream or a transfer.
const ZeroAccountID AccountID = "0x0000000000000000000000000000000000000000"

// AccountID represents an account id that is used to sign withdrawal
// authorizations and own balances inside the book.
type AccountID string

// ToAccountID converts a hex-encoded string to an account and validates the
// hex-encoded string is formatted correctly. The result is always in the
// checksum format so ids can be compared as map keys.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(hex)
	if !a.IsAccountID() {
		return "", errors.New("invalid account format")
	}

	return AccountID(common.HexToAddress(hex).Hex()), nil
}

// MustToAccountID is ToAccountID for values known to be correct, such as
// constants in tests and genesis defaults.
func MustToAccountID(hex string) AccountID {
	a, err := ToAccountID(hex)
	if err != nil {
		panic(err)
	}
	return a
}

// PublicKeyToAccountID converts the public key to an account value.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	return AccountID(crypto.PubkeyToAddress(pk).Hex())
}

// IsAccountID verifies whether the underlying data represents a valid
// hex-encoded account.
func (a AccountID) IsAccountID() bool {
	const addressLength = 20

	if has0xPrefix(a) {
		a = a[2:]
	}

	return len(a) == 2*addressLength && isHex(a)
}

// IsZero reports whether the account is empty or the zero address.
func (a AccountID) IsZero() bool {
	if a == "" {
		return true
	}
	return common.HexToAddress(string(a)) == common.Address{}
}

// Address returns the account as a go-ethereum address.
func (a AccountID) Address() common.Address {
	return common.HexToAddress(string(a))
}

// =============================================================================

// has0xPrefix validates the account starts with a 0x.
func has0xPrefix(a AccountID) bool {
	return len(a) >= 2 && a[0] == '0' && (a[1] == 'x' || a[1] == 'X')
}

// isHex validates whether each byte is valid hexadecimal string.
func isHex(a AccountID) bool {
	if len(a)%2 != 0 {
		return false
	}

	for _, c := range []byte(a) {
		if !isHexCharacter(c) {
			return false
		}
	}

	return true
}

// isHexCharacter returns bool of c being a valid hexadecimal.
func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
