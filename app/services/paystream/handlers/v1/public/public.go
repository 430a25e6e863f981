// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/paystream/app/services/paystream/handlers/v1/view"
	"github.com/ardanlabs/paystream/business/web/auth"
	"github.com/ardanlabs/paystream/business/web/errs"
	"github.com/ardanlabs/paystream/business/web/metrics"
	"github.com/ardanlabs/paystream/foundation/events"
	"github.com/ardanlabs/paystream/foundation/nameservice"
	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/ardanlabs/paystream/foundation/paystream/genesis"
	"github.com/ardanlabs/paystream/foundation/paystream/ledger"
	"github.com/ardanlabs/paystream/foundation/paystream/signature"
	"github.com/ardanlabs/paystream/foundation/validate"
	"github.com/ardanlabs/paystream/foundation/web"
	"github.com/gorilla/websocket"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// Handlers manages the set of public ledger endpoints.
type Handlers struct {
	Log           *zap.SugaredLogger
	Ledger        *ledger.Ledger
	Gen           genesis.Genesis
	NS            *nameservice.NameService
	WS            websocket.Upgrader
	Evts          *events.Events
	Metrics       *metrics.Metrics
	MaxRelayerFee *uint256.Int
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(evt); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Gen, http.StatusOK)
}

// Domain returns the signing domain withdrawal authorizations are bound to.
func (h Handlers) Domain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Ledger.Domain(), http.StatusOK)
}

// TypedData returns the typed data document an employee signs to authorize
// a relayed withdrawal. Wallets can pass it straight to eth_signTypedData_v4.
func (h Handlers) TypedData(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	streamID, err := streamIDParam(r)
	if err != nil {
		return err
	}

	s, err := h.Ledger.StreamInfo(streamID)
	if err != nil {
		return errs.FromLedger(err)
	}

	deadline, err := strconv.ParseUint(r.URL.Query().Get("deadline"), 10, 64)
	if err != nil {
		return errs.NewTrusted(errors.New("deadline query parameter is required"), http.StatusBadRequest)
	}

	msg := signature.Withdraw{
		StreamID: streamID,
		Nonce:    h.Ledger.Nonce(s.Employee),
		Deadline: deadline,
	}

	return web.Respond(ctx, w, signature.TypedData(h.Ledger.Domain(), msg), http.StatusOK)
}

// Streams returns the streams, optionally only those of one employee.
func (h Handlers) Streams(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var streams []ledger.Stream
	switch employee := r.URL.Query().Get("employee"); employee {
	case "":
		streams = h.Ledger.Streams()

	default:
		accountID, err := h.NS.Resolve(employee)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		streams = h.Ledger.StreamsByEmployee(accountID)
	}

	resp := make([]stream, 0, len(streams))
	for _, s := range streams {
		st, err := h.view(s)
		if err != nil {
			return err
		}
		resp = append(resp, st)
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Stream returns a single stream with its accrued and withdrawable amounts.
func (h Handlers) Stream(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	streamID, err := streamIDParam(r)
	if err != nil {
		return err
	}

	s, err := h.Ledger.StreamInfo(streamID)
	if err != nil {
		return errs.FromLedger(err)
	}

	st, err := h.view(s)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, st, http.StatusOK)
}

// Accounts returns the current balances and nonces of all accounts, or of
// one account.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var infos []accounts.Info
	switch account := web.Param(r, "account"); account {
	case "":
		infos = h.Ledger.Accounts()

	default:
		accountID, err := h.NS.Resolve(account)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		infos = []accounts.Info{{AccountID: accountID, Balance: h.Ledger.Balance(accountID)}}
	}

	resp := make([]info, len(infos))
	for i, inf := range infos {
		resp[i] = info{
			Account: string(inf.AccountID),
			Name:    h.NS.Lookup(inf.AccountID),
			Balance: view.ToValue(inf.Balance),
			Nonce:   h.Ledger.Nonce(inf.AccountID),
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Treasury returns the state of the treasury, sponsorship pool and tax.
func (h Handlers) Treasury(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	st := h.Ledger.TreasuryState()
	total, held := h.Ledger.TaxCollected()

	resp := treasury{
		Balance:          view.ToValue(h.Ledger.TreasuryBalance()),
		TotalPrincipal:   view.ToValue(st.TotalPrincipal),
		AccumulatedYield: view.ToValue(st.AccumulatedYield),
		YieldRateBps:     st.YieldRateBps,
		Sponsorship:      view.ToValue(h.Ledger.SponsorshipBalance()),
		TaxCollected:     view.ToValue(total),
		TaxHeld:          view.ToValue(held),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Withdraw pays the authenticated employee what the stream owes them.
func (h Handlers) Withdraw(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	caller, err := auth.GetAccountID(ctx)
	if err != nil {
		return errs.NewTrusted(err, http.StatusUnauthorized)
	}

	streamID, err := streamIDParam(r)
	if err != nil {
		return err
	}

	h.Log.Infow("withdraw", "traceid", v.TraceID, "stream", streamID, "caller", caller)

	stl, err := h.Ledger.Withdraw(caller, streamID)
	if err != nil {
		return errs.FromLedger(err)
	}

	h.Metrics.Withdrawals.WithLabelValues("direct").Inc()

	return web.Respond(ctx, w, view.ToSettlement(stl), http.StatusOK)
}

// WithdrawSigned performs a withdrawal authorized by the employee's typed
// data signature. The authenticated relayer receives the fee.
func (h Handlers) WithdrawSigned(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	relayer, err := auth.GetAccountID(ctx)
	if err != nil {
		return errs.NewTrusted(err, http.StatusUnauthorized)
	}

	streamID, err := streamIDParam(r)
	if err != nil {
		return err
	}

	var req signedWithdraw
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	sig, err := signature.FromHexSignature(req.Signature)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	fee := new(uint256.Int)
	if req.RelayerFee != "" {
		if fee, err = amount.Parse(req.RelayerFee); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	if fee.Gt(h.MaxRelayerFee) {
		return errs.NewTrusted(fmt.Errorf("relayer fee %s above the limit of %s", amount.Format(fee), amount.Format(h.MaxRelayerFee)), http.StatusBadRequest)
	}

	h.Log.Infow("withdraw signed", "traceid", v.TraceID, "stream", streamID, "nonce", req.Nonce, "relayer", relayer, "fee", amount.Format(fee))

	stl, err := h.Ledger.WithdrawSigned(ledger.SignedWithdraw{
		StreamID:   streamID,
		Nonce:      req.Nonce,
		Deadline:   req.Deadline,
		Signature:  sig,
		Relayer:    relayer,
		RelayerFee: fee,
	})
	if err != nil {
		return errs.FromLedger(err)
	}

	h.Metrics.Withdrawals.WithLabelValues("signed").Inc()

	return web.Respond(ctx, w, view.ToSettlement(stl), http.StatusOK)
}

// =============================================================================

// view adds the live amounts to the stream.
func (h Handlers) view(s ledger.Stream) (stream, error) {
	accrued, err := h.Ledger.AccruedSalary(s.ID)
	if err != nil {
		return stream{}, errs.FromLedger(err)
	}

	net, err := h.Ledger.NetWithdrawable(s.ID)
	if err != nil {
		return stream{}, errs.FromLedger(err)
	}

	return toStream(s, h.NS, accrued, net), nil
}

// streamIDParam reads the stream id from the route.
func streamIDParam(r *http.Request) (uint64, error) {
	streamID, err := strconv.ParseUint(web.Param(r, "id"), 10, 64)
	if err != nil {
		return 0, errs.NewTrusted(fmt.Errorf("invalid stream id: %w", err), http.StatusBadRequest)
	}
	return streamID, nil
}
