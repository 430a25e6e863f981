// Package handlers manages the different versions of the relayer API.
package handlers

import (
	"context"
	"encoding/json"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/ardanlabs/paystream/app/services/relayer/handlers/v1/relaygrp"
	"github.com/ardanlabs/paystream/business/web/metrics"
	"github.com/ardanlabs/paystream/business/web/mid"
	"github.com/ardanlabs/paystream/foundation/paystream/client"
	"github.com/ardanlabs/paystream/foundation/paystream/signature"
	"github.com/ardanlabs/paystream/foundation/web"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	Node     *client.Client
	Token    string
	Domain   signature.Domain
	Fee      *uint256.Int
	APIKeys  []string
	Limiter  *mid.RateLimiter
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// APIMux constructs a http.Handler with the relay routes defined.
func APIMux(cfg MuxConfig) http.Handler {

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

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	rgh := relaygrp.Handlers{
		Log:     cfg.Log,
		Node:    cfg.Node,
		Token:   cfg.Token,
		Domain:  cfg.Domain,
		Fee:     cfg.Fee,
		Metrics: cfg.Metrics,
		Now:     now,
	}

	// The rate limit runs after the key check so unknown callers can't use
	// up a real client's budget.
	app.Handle(http.MethodPost, "v1", "/relay/withdraw", rgh.Withdraw, mid.APIKey(cfg.APIKeys), mid.RateLimit(cfg.Limiter))

	return app
}

// DebugMux registers the standard library debug routes, the health checks
// and the prometheus metrics gathered from the registry.
func DebugMux(build string, log *zap.SugaredLogger, node *client.Client, reg prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	// Readiness means the node can be reached.
	mux.HandleFunc("/debug/readiness", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := struct {
			Status string `json:"status"`
			Build  string `json:"build"`
		}{Status: "ok", Build: build}
		statusCode := http.StatusOK

		if _, err := node.Domain(ctx); err != nil {
			log.Errorw("readiness", "ERROR", err)
			status.Status = "node unavailable"
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(status)
	})
	mux.HandleFunc("/debug/liveness", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "up", "build": build})
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return mux
}
