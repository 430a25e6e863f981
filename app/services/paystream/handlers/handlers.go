// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/ardanlabs/paystream/app/services/paystream/handlers/debug/checkgrp"
	v1 "github.com/ardanlabs/paystream/app/services/paystream/handlers/v1"
	"github.com/ardanlabs/paystream/business/web/auth"
	"github.com/ardanlabs/paystream/business/web/metrics"
	"github.com/ardanlabs/paystream/business/web/mid"
	"github.com/ardanlabs/paystream/foundation/events"
	"github.com/ardanlabs/paystream/foundation/nameservice"
	"github.com/ardanlabs/paystream/foundation/paystream/genesis"
	"github.com/ardanlabs/paystream/foundation/paystream/journal"
	"github.com/ardanlabs/paystream/foundation/paystream/ledger"
	"github.com/ardanlabs/paystream/foundation/web"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown      chan os.Signal
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

func (cfg MuxConfig) v1() v1.Config {
	return v1.Config{
		Log:           cfg.Log,
		Ledger:        cfg.Ledger,
		Genesis:       cfg.Genesis,
		Journal:       cfg.Journal,
		NS:            cfg.NS,
		Evts:          cfg.Evts,
		Auth:          cfg.Auth,
		Metrics:       cfg.Metrics,
		MaxRelayerFee: cfg.MaxRelayerFee,
	}
}

// PublicMux constructs a http.Handler with all application routes defined.
func PublicMux(cfg MuxConfig) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Metrics(cfg.Metrics),
		mid.Errors(cfg.Log),
		mid.Cors("*"),
		mid.Panics(cfg.Metrics),
	)

	// Accept CORS 'OPTIONS' preflight requests.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h, mid.Cors("*"))

	// Load the v1 routes.
	v1.PublicRoutes(app, cfg.v1())

	return app
}

// PrivateMux constructs a http.Handler with all administrator routes defined.
func PrivateMux(cfg MuxConfig) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Metrics(cfg.Metrics),
		mid.Errors(cfg.Log),
		mid.Panics(cfg.Metrics),
	)

	// Load the v1 routes.
	v1.PrivateRoutes(app, cfg.v1())

	return app
}

// DebugStandardLibraryMux registers all the debug routes from the standard library
// into a new mux bypassing the use of the DefaultServerMux. Using the
// DefaultServerMux would be a security risk since a dependency could inject a
// handler into our service without us knowing it.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Register all the standard library debug endpoints.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugMux registers all the debug standard library routes and then custom
// debug application routes for the service, including the prometheus
// metrics gathered from the registry.
func DebugMux(build string, log *zap.SugaredLogger, ldgr *ledger.Ledger, reg prometheus.Gatherer) http.Handler {
	mux := DebugStandardLibraryMux()

	// Register debug check endpoints.
	cgh := checkgrp.Handlers{
		Build:  build,
		Log:    log,
		Ledger: ldgr,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return mux
}
