// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/paystream/app/services/paystream/handlers/v1/private"
	"github.com/ardanlabs/paystream/app/services/paystream/handlers/v1/public"
	"github.com/ardanlabs/paystream/business/web/auth"
	"github.com/ardanlabs/paystream/business/web/metrics"
	"github.com/ardanlabs/paystream/business/web/mid"
	"github.com/ardanlabs/paystream/foundation/events"
	"github.com/ardanlabs/paystream/foundation/nameservice"
	"github.com/ardanlabs/paystream/foundation/paystream/genesis"
	"github.com/ardanlabs/paystream/foundation/paystream/journal"
	"github.com/ardanlabs/paystream/foundation/paystream/ledger"
	"github.com/ardanlabs/paystream/foundation/web"
	"github.com/gorilla/websocket"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log           *zap.SugaredLogger
	Ledger        *ledger.Ledger
	Genesis       genesis.Genesis
	Journal       journal.Storage
	NS            *nameservice.NameService
	Evts          *events.Events
	Auth          *auth.Auth
	Metrics       *metrics.Metrics
	MaxRelayerFee *uint256.Int
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:           cfg.Log,
		Ledger:        cfg.Ledger,
		Gen:           cfg.Genesis,
		NS:            cfg.NS,
		WS:            websocket.Upgrader{},
		Evts:          cfg.Evts,
		Metrics:       cfg.Metrics,
		MaxRelayerFee: cfg.MaxRelayerFee,
	}

	authen := mid.Authenticate(cfg.Auth)

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/domain", pbl.Domain)
	app.Handle(http.MethodGet, version, "/treasury", pbl.Treasury)
	app.Handle(http.MethodGet, version, "/accounts/list", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/accounts/list/:account", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/streams", pbl.Streams)
	app.Handle(http.MethodGet, version, "/streams/:id", pbl.Stream)
	app.Handle(http.MethodGet, version, "/streams/:id/typeddata", pbl.TypedData)
	app.Handle(http.MethodPost, version, "/streams/:id/withdraw", pbl.Withdraw, authen, mid.Authorize(auth.RoleUser))
	app.Handle(http.MethodPost, version, "/streams/:id/withdraw/signed", pbl.WithdrawSigned, authen, mid.Authorize(auth.RoleRelayer))
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:     cfg.Log,
		Ledger:  cfg.Ledger,
		Journal: cfg.Journal,
	}

	authen := mid.Authenticate(cfg.Auth)
	admin := mid.Authorize(auth.RoleAdmin)

	app.Handle(http.MethodPost, version, "/admin/streams", prv.CreateStream, authen, admin)
	app.Handle(http.MethodPost, version, "/admin/streams/batch", prv.BatchCreateStreams, authen, admin)
	app.Handle(http.MethodPost, version, "/admin/streams/:id/bonus", prv.ScheduleBonus, authen, admin)
	app.Handle(http.MethodPost, version, "/admin/streams/:id/pause", prv.PauseStream, authen, admin)
	app.Handle(http.MethodPost, version, "/admin/streams/:id/resume", prv.ResumeStream, authen, admin)
	app.Handle(http.MethodPost, version, "/admin/streams/:id/cancel", prv.CancelStream, authen, admin)
	app.Handle(http.MethodPost, version, "/admin/treasury/deposit", prv.DepositTreasury, authen, admin)
	app.Handle(http.MethodPost, version, "/admin/treasury/yield", prv.SetYieldRate, authen, admin)
	app.Handle(http.MethodPost, version, "/admin/sponsorship/deposit", prv.DepositSponsorship, authen, admin)
	app.Handle(http.MethodPost, version, "/admin/tax/withdraw", prv.WithdrawTax, authen, admin)
	app.Handle(http.MethodGet, version, "/admin/journal/:seq", prv.Record, authen, admin)
}
