package ledger

import (
	"errors"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/ardanlabs/paystream/foundation/paystream/taxcollector"
	"github.com/ardanlabs/paystream/foundation/paystream/vault"
)

// Validation errors are returned before any state is touched.
var (
	ErrZeroAddress          = errors.New("zero address")
	ErrZeroAmount           = errors.New("amount must be greater than zero")
	ErrInvalidRate          = errors.New("invalid rate")
	ErrInvalidTaxBps        = errors.New("invalid tax bps")
	ErrInvalidBatchSize     = errors.New("invalid batch size")
	ErrReleaseTimeNotFuture = errors.New("release time must be in the future")
)

// State precondition errors.
var (
	ErrStreamNotFound = errors.New("stream not found")
	ErrStreamInactive = errors.New("stream inactive")
	ErrStreamPaused   = errors.New("stream paused")
	ErrAlreadyPaused  = errors.New("stream already paused")
	ErrNotPaused      = errors.New("stream not paused")
)

// Authorization errors.
var (
	ErrUnauthorized            = errors.New("caller is not the owner")
	ErrNotEmployee             = errors.New("caller is not the stream employee")
	ErrInvalidNonce            = errors.New("invalid nonce")
	ErrSignatureExpired        = errors.New("signature expired")
	ErrInvalidSignature        = errors.New("invalid signature")
	ErrInsufficientSponsorship = errors.New("insufficient sponsorship funds")
)

// Resource errors.
var (
	ErrNothingToWithdraw = errors.New("nothing to withdraw")
)

// =============================================================================

// Kind classifies an error returned by the ledger.
type Kind int

// Set of error kinds.
const (
	KindUnknown Kind = iota
	KindValidation
	KindState
	KindAuthorization
	KindResource
)

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindAuthorization:
		return "authorization"
	case KindResource:
		return "resource"
	}
	return "unknown"
}

var kinds = map[Kind][]error{
	KindValidation: {
		ErrZeroAddress, ErrZeroAmount, ErrInvalidRate, ErrInvalidTaxBps,
		ErrInvalidBatchSize, ErrReleaseTimeNotFuture,
		vault.ErrRateTooHigh, vault.ErrZeroAmount, taxcollector.ErrZeroAmount,
	},
	KindState: {
		ErrStreamNotFound, ErrStreamInactive, ErrStreamPaused, ErrAlreadyPaused, ErrNotPaused,
	},
	KindAuthorization: {
		ErrUnauthorized, ErrNotEmployee, ErrInvalidNonce, ErrSignatureExpired,
		ErrInvalidSignature, ErrInsufficientSponsorship,
		vault.ErrUnauthorized, taxcollector.ErrUnauthorized,
	},
	KindResource: {
		ErrNothingToWithdraw, vault.ErrInsufficientBalance,
		taxcollector.ErrInsufficientBalance, accounts.ErrInsufficientFunds,
		amount.ErrOverflow,
	},
}

// KindOf returns the classification of the error.
func KindOf(err error) Kind {
	for kind, errs := range kinds {
		for _, target := range errs {
			if errors.Is(err, target) {
				return kind
			}
		}
	}
	return KindUnknown
}
