package mid

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/paystream/business/web/metrics"
	"github.com/ardanlabs/paystream/foundation/web"
)

// Metrics updates program counters.
func Metrics(m *metrics.Metrics) web.Middleware {

	// This is the actual middleware function to be executed.
	mw := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// Metrics runs outside of Errors so the status code of a failed
			// request is already recorded in the context.
			status := http.StatusOK
			if v, verr := web.GetValues(ctx); verr == nil {
				if v.StatusCode != 0 {
					status = v.StatusCode
				}
				m.Duration.WithLabelValues(r.Method).Observe(time.Since(v.Now).Seconds())
			}

			m.Requests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
			if err != nil || status >= http.StatusBadRequest {
				m.Errors.Inc()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return mw
}
