// Package private maintains the group of handlers for the administrator.
package private

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/paystream/app/services/paystream/handlers/v1/view"
	"github.com/ardanlabs/paystream/business/web/auth"
	"github.com/ardanlabs/paystream/business/web/errs"
	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/ardanlabs/paystream/foundation/paystream/journal"
	"github.com/ardanlabs/paystream/foundation/paystream/ledger"
	"github.com/ardanlabs/paystream/foundation/validate"
	"github.com/ardanlabs/paystream/foundation/web"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// Handlers manages the set of administrator endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Ledger  *ledger.Ledger
	Journal journal.Storage
}

// CreateStream opens a stream for an employee.
func (h Handlers) CreateStream(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	caller, err := callerID(ctx)
	if err != nil {
		return err
	}

	var req newStream
	if err := decode(r, &req); err != nil {
		return err
	}

	ns, err := req.toLedger()
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	id, err := h.Ledger.CreateStream(caller, ns)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, created{IDs: []uint64{id}}, http.StatusCreated)
}

// BatchCreateStreams opens a stream for every entry or none at all.
func (h Handlers) BatchCreateStreams(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	caller, err := callerID(ctx)
	if err != nil {
		return err
	}

	var req batch
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	// An empty or oversized batch is reported by the ledger so the caller
	// sees the batch size error rather than a field error.
	entries := make([]ledger.NewStream, len(req.Streams))
	for i, e := range req.Streams {
		if err := validate.Check(e); err != nil {
			return err
		}

		ns, err := e.toLedger()
		if err != nil {
			return errs.NewTrusted(fmt.Errorf("entry %d: %w", i, err), http.StatusBadRequest)
		}
		entries[i] = ns
	}

	ids, err := h.Ledger.BatchCreateStreams(caller, entries)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, created{IDs: ids}, http.StatusCreated)
}

// ScheduleBonus attaches a one time bonus to a stream.
func (h Handlers) ScheduleBonus(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	caller, err := callerID(ctx)
	if err != nil {
		return err
	}

	streamID, err := streamIDParam(r)
	if err != nil {
		return err
	}

	var req bonus
	if err := decode(r, &req); err != nil {
		return err
	}

	amt, err := parseAmount(req.Amount)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	replaced, err := h.Ledger.ScheduleBonus(caller, streamID, amt, req.ReleaseTime)
	if err != nil {
		return errs.FromLedger(err)
	}

	if !replaced.IsZero() {
		h.Log.Warnw("schedule bonus", "traceid", web.GetTraceID(ctx), "stream", streamID, "replaced", amount.Format(replaced))
	}

	resp := bonusScheduled{
		StreamID:    streamID,
		Amount:      amount.Format(amt),
		ReleaseTime: req.ReleaseTime,
		Replaced:    amount.Format(replaced),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// PauseStream settles a stream and suspends its accrual.
func (h Handlers) PauseStream(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	caller, err := callerID(ctx)
	if err != nil {
		return err
	}

	streamID, err := streamIDParam(r)
	if err != nil {
		return err
	}

	stl, err := h.Ledger.PauseStream(caller, streamID)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, view.ToSettlement(stl), http.StatusOK)
}

// ResumeStream restarts accrual on a paused stream.
func (h Handlers) ResumeStream(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	caller, err := callerID(ctx)
	if err != nil {
		return err
	}

	streamID, err := streamIDParam(r)
	if err != nil {
		return err
	}

	seq, err := h.Ledger.ResumeStream(caller, streamID)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, status{Status: "stream resumed", Seq: seq}, http.StatusOK)
}

// CancelStream settles and permanently deactivates a stream.
func (h Handlers) CancelStream(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	caller, err := callerID(ctx)
	if err != nil {
		return err
	}

	streamID, err := streamIDParam(r)
	if err != nil {
		return err
	}

	stl, err := h.Ledger.CancelStream(caller, streamID)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, view.ToSettlement(stl), http.StatusOK)
}

// DepositTreasury moves the administrator's funds into the treasury.
func (h Handlers) DepositTreasury(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return h.fundsAction(ctx, w, r, "deposited", h.Ledger.DepositTreasury)
}

// DepositSponsorship moves the administrator's funds into the pool that pays
// relayer fees.
func (h Handlers) DepositSponsorship(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return h.fundsAction(ctx, w, r, "sponsored", h.Ledger.DepositSponsorship)
}

// SetYieldRate changes the treasury yield rate.
func (h Handlers) SetYieldRate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	caller, err := callerID(ctx)
	if err != nil {
		return err
	}

	var req yieldRate
	if err := decode(r, &req); err != nil {
		return err
	}

	seq, err := h.Ledger.SetYieldRate(caller, req.Bps)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, status{Status: "yield rate set", Seq: seq}, http.StatusOK)
}

// WithdrawTax moves collected tax out of the tax collector.
func (h Handlers) WithdrawTax(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	caller, err := callerID(ctx)
	if err != nil {
		return err
	}

	var req taxWithdraw
	if err := decode(r, &req); err != nil {
		return err
	}

	to, err := accounts.ToAccountID(req.To)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	amt, err := parseAmount(req.Amount)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	seq, err := h.Ledger.WithdrawTax(caller, to, amt)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, status{Status: "tax withdrawn", Seq: seq}, http.StatusOK)
}

// Record returns a committed journal record by sequence number.
func (h Handlers) Record(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	seq, err := strconv.ParseUint(web.Param(r, "seq"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid seq: %w", err), http.StatusBadRequest)
	}

	if h.Journal == nil {
		return errs.NewTrusted(journal.ErrNotFound, http.StatusNotFound)
	}

	rec, err := h.Journal.GetRecord(seq)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, rec, http.StatusOK)
}

// =============================================================================

func (h Handlers) fundsAction(ctx context.Context, w http.ResponseWriter, r *http.Request, done string, fn func(accounts.AccountID, *uint256.Int) (uint64, error)) error {
	caller, err := callerID(ctx)
	if err != nil {
		return err
	}

	var req funds
	if err := decode(r, &req); err != nil {
		return err
	}

	amt, err := parseAmount(req.Amount)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	seq, err := fn(caller, amt)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, status{Status: amount.Format(amt) + " " + done, Seq: seq}, http.StatusOK)
}

// callerID returns the authenticated administrator.
func callerID(ctx context.Context) (accounts.AccountID, error) {
	caller, err := auth.GetAccountID(ctx)
	if err != nil {
		return "", errs.NewTrusted(err, http.StatusUnauthorized)
	}
	return caller, nil
}

// decode reads and validates the request document.
func decode(r *http.Request, val any) error {
	if err := web.Decode(r, val); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(val); err != nil {
		return err
	}

	return nil
}

// streamIDParam reads the stream id from the route.
func streamIDParam(r *http.Request) (uint64, error) {
	streamID, err := strconv.ParseUint(web.Param(r, "id"), 10, 64)
	if err != nil {
		return 0, errs.NewTrusted(fmt.Errorf("invalid stream id: %w", err), http.StatusBadRequest)
	}
	return streamID, nil
}
