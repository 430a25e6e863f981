// Package signature provides helper functions for signing and verifying the
// typed withdrawal authorizations an employee hands to a relayer.
package signature

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// recoveryOffset is added to the recovery id so signatures match what
// Ethereum wallets produce for typed data.
const recoveryOffset = 27

// primaryType is the name of the signed message type.
const primaryType = "Withdraw"

// types describes the domain and the withdrawal message.
var types = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	primaryType: {
		{Name: "streamId", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	},
}

// =============================================================================

// Domain binds a signature to one deployment of the stream ledger.
type Domain struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	ChainID           uint64 `json:"chain_id"`
	VerifyingContract string `json:"verifying_contract"`
}

// Withdraw is the message an employee signs to let a relayer withdraw on
// their behalf.
type Withdraw struct {
	StreamID uint64 `json:"stream_id"`
	Nonce    uint64 `json:"nonce"`
	Deadline uint64 `json:"deadline"`
}

// TypedData returns the full typed data document for the message. Wallets
// that speak eth_signTypedData_v4 can sign this value directly.
func TypedData(d Domain, w Withdraw) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       types,
		PrimaryType: primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              d.Name,
			Version:           d.Version,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).SetUint64(d.ChainID)),
			VerifyingContract: d.VerifyingContract,
		},
		Message: apitypes.TypedDataMessage{
			"streamId": new(big.Int).SetUint64(w.StreamID),
			"nonce":    new(big.Int).SetUint64(w.Nonce),
			"deadline": new(big.Int).SetUint64(w.Deadline),
		},
	}
}

// Hash returns the 32 byte digest that gets signed for the message.
func Hash(d Domain, w Withdraw) ([]byte, error) {
	if !common.IsHexAddress(d.VerifyingContract) {
		return nil, fmt.Errorf("invalid verifying contract %q", d.VerifyingContract)
	}

	hash, _, err := apitypes.TypedDataAndHash(TypedData(d, w))
	if err != nil {
		return nil, fmt.Errorf("hashing typed data: %w", err)
	}

	return hash, nil
}

// Sign uses the specified private key to sign the withdrawal message. The
// result is the 65 byte [R|S|V] signature.
func Sign(d Domain, w Withdraw, privateKey *ecdsa.PrivateKey) ([]byte, error) {

	// Prepare the data for signing.
	data, err := Hash(d, w)
	if err != nil {
		return nil, err
	}

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, err
	}

	// Check the public key extracted from the data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, err
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return nil, errors.New("invalid signature")
	}

	sig[crypto.RecoveryIDOffset] += recoveryOffset

	return sig, nil
}

// VerifySignature verifies the signature conforms to our standards. High S
// values are rejected so a signature can't be mutated into a second valid
// form.
func VerifySignature(sig []byte) error {
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("invalid signature length %d", len(sig))
	}

	v, r, s := toSignatureValues(sig)

	// Check the recovery id is either 0 or 1.
	uintV := v.Uint64() - recoveryOffset
	if uintV != 0 && uintV != 1 {
		return errors.New("invalid recovery id")
	}

	// Check the signature values are valid.
	if !crypto.ValidateSignatureValues(byte(uintV), r, s, true) {
		return errors.New("invalid signature values")
	}

	return nil
}

// FromAddress extracts the address for the account that signed the message.
func FromAddress(d Domain, w Withdraw, sig []byte) (string, error) {

	// NOTE: If the same exact message for the given signature is not provided
	// we will get the wrong from address. There is no way to detect this
	// since the public key is being extracted from the data and signature.

	if err := VerifySignature(sig); err != nil {
		return "", err
	}

	// Prepare the data for public key extraction.
	data, err := Hash(d, w)
	if err != nil {
		return "", err
	}

	// Remove the recovery offset before handing it to the crypto package.
	raw := make([]byte, crypto.SignatureLength)
	copy(raw, sig)
	raw[crypto.RecoveryIDOffset] -= recoveryOffset

	// Capture the public key associated with this data and signature.
	publicKey, err := crypto.SigToPub(data, raw)
	if err != nil {
		return "", err
	}

	// Extract the account address from the public key.
	return crypto.PubkeyToAddress(*publicKey).Hex(), nil
}

// SignatureString returns the signature as a hex string.
func SignatureString(sig []byte) string {
	return hexutil.Encode(sig)
}

// FromHexSignature converts a hex representation of the signature into
// its 65 byte form.
func FromHexSignature(sigStr string) ([]byte, error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return nil, fmt.Errorf("decoding signature: %w", err)
	}

	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("invalid signature length %d", len(sig))
	}

	return sig, nil
}

// =============================================================================

// toSignatureValues converts the signature into the r, s, v values.
func toSignatureValues(sig []byte) (v, r, s *big.Int) {
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64]})

	return v, r, s
}
