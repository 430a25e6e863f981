package mid

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/ardanlabs/paystream/business/web/errs"
	"github.com/ardanlabs/paystream/foundation/web"
)

// APIKey rejects requests whose `X-API-Key` header does not match one of the
// configured keys.
func APIKey(keys []string) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			got := []byte(r.Header.Get("X-API-Key"))

			for _, key := range keys {
				if len(got) > 0 && subtle.ConstantTimeCompare(got, []byte(key)) == 1 {
					return handler(ctx, w, r)
				}
			}

			return errs.NewTrusted(errors.New("invalid api key"), http.StatusUnauthorized)
		}

		return h
	}

	return m
}
