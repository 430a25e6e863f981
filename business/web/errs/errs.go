// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/paystream/foundation/paystream/ledger"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Kind   string            `json:"kind,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
	Kind   string
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{Err: err, Status: status}
}

// NewTrustedKind wraps a provided error with an HTTP status code and the
// error kind reported to the client. It is used when the kind was decided
// by another service.
func NewTrustedKind(err error, status int, kind string) error {
	return &Trusted{Err: err, Status: status, Kind: kind}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// Unwrap returns the wrapped error.
func (re *Trusted) Unwrap() error {
	return re.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}

// FromLedger converts an error returned by the ledger into a trusted error
// with the status code for its kind. Errors the ledger does not classify
// are returned as is and end up as a 500.
func FromLedger(err error) error {
	switch ledger.KindOf(err) {
	case ledger.KindValidation:
		return NewTrusted(err, http.StatusBadRequest)

	case ledger.KindState:
		if errors.Is(err, ledger.ErrStreamNotFound) {
			return NewTrusted(err, http.StatusNotFound)
		}
		return NewTrusted(err, http.StatusConflict)

	case ledger.KindAuthorization:
		return NewTrusted(err, http.StatusForbidden)

	case ledger.KindResource:
		return NewTrusted(err, http.StatusUnprocessableEntity)
	}

	return err
}
