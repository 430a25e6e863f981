// Package relaygrp maintains the group of handlers that submit signed
// withdrawals to the node on behalf of employees.
package relaygrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/paystream/business/web/errs"
	"github.com/ardanlabs/paystream/business/web/metrics"
	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/ardanlabs/paystream/foundation/paystream/client"
	"github.com/ardanlabs/paystream/foundation/paystream/ledger"
	"github.com/ardanlabs/paystream/foundation/paystream/signature"
	"github.com/ardanlabs/paystream/foundation/validate"
	"github.com/ardanlabs/paystream/foundation/web"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// Handlers manages the set of relay endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Node    *client.Client
	Token   string
	Domain  signature.Domain
	Fee     *uint256.Int
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Withdraw checks a signed withdrawal and submits it to the node. The
// relayer's fee is paid by the sponsorship pool, never by the employee.
func (h Handlers) Withdraw(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req relayWithdraw
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	if now := uint64(h.Now().Unix()); now > req.Deadline {
		return errs.FromLedger(fmt.Errorf("deadline %d, now %d: %w", req.Deadline, now, ledger.ErrSignatureExpired))
	}

	sig, err := signature.FromHexSignature(req.Signature)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	s, err := h.Node.Stream(ctx, req.StreamID)
	if err != nil {
		return fromNode(err)
	}

	// Refuse anything the node would reject for the signer so the relayer
	// does not spend a submission on it.
	msg := signature.Withdraw{StreamID: req.StreamID, Nonce: req.Nonce, Deadline: req.Deadline}
	signer, err := signature.FromAddress(h.Domain, msg, sig)
	if err != nil {
		return errs.FromLedger(fmt.Errorf("%s: %w", err, ledger.ErrInvalidSignature))
	}

	if !sameAccount(signer, s.Employee) {
		return errs.FromLedger(fmt.Errorf("signed by %s: %w", signer, ledger.ErrInvalidSignature))
	}

	h.Log.Infow("relay withdraw", "traceid", web.GetTraceID(ctx), "stream", req.StreamID, "nonce", req.Nonce, "fee", amount.Format(h.Fee))

	stl, err := h.Node.WithdrawSigned(ctx, h.Token, client.SignedWithdraw{
		StreamID:   req.StreamID,
		Nonce:      req.Nonce,
		Deadline:   req.Deadline,
		Signature:  req.Signature,
		RelayerFee: amount.Format(h.Fee),
	})
	if err != nil {
		return fromNode(err)
	}

	h.Metrics.Withdrawals.WithLabelValues("relayed").Inc()

	return web.Respond(ctx, w, stl, http.StatusOK)
}

// =============================================================================

// fromNode carries the node's verdict and error kind back to the caller.
// Transport failures are reported as a bad gateway.
func fromNode(err error) error {
	var ce *client.Error
	if errors.As(err, &ce) {
		if ce.Status >= http.StatusInternalServerError {
			return errs.NewTrusted(fmt.Errorf("node: %s", ce.Message), http.StatusBadGateway)
		}
		return errs.NewTrustedKind(errors.New(ce.Message), ce.Status, ce.Kind)
	}

	return errs.NewTrusted(fmt.Errorf("node unavailable: %w", err), http.StatusBadGateway)
}

func sameAccount(a string, b string) bool {
	ida, err := accounts.ToAccountID(a)
	if err != nil {
		return false
	}

	idb, err := accounts.ToAccountID(b)
	if err != nil {
		return false
	}

	return ida == idb
}
