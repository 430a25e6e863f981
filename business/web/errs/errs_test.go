package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ardanlabs/paystream/business/web/errs"
	"github.com/ardanlabs/paystream/foundation/paystream/ledger"
	"github.com/ardanlabs/paystream/foundation/paystream/vault"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestFromLedger(t *testing.T) {
	tt := []struct {
		err    error
		status int
	}{
		{ledger.ErrInvalidRate, http.StatusBadRequest},
		{fmt.Errorf("stream 9: %w", ledger.ErrStreamNotFound), http.StatusNotFound},
		{ledger.ErrAlreadyPaused, http.StatusConflict},
		{ledger.ErrInvalidNonce, http.StatusForbidden},
		{fmt.Errorf("treasury: %w", vault.ErrInsufficientBalance), http.StatusUnprocessableEntity},
	}

	t.Log("Given the need to map ledger errors to status codes.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %q.", testID, tst.err)
			{
				re := errs.GetTrusted(errs.FromLedger(tst.err))
				if re == nil || re.Status != tst.status {
					t.Fatalf("\t%s\tTest %d:\tShould map to status %d, got %v.", failed, testID, tst.status, re)
				}
				t.Logf("\t%s\tTest %d:\tShould map to status %d.", success, testID, tst.status)
			}
		}

		testID := len(tt)
		t.Logf("\tTest %d:\tWhen handling an unclassified error.", testID)
		{
			err := errs.FromLedger(errors.New("disk full"))
			if errs.IsTrusted(err) {
				t.Fatalf("\t%s\tTest %d:\tShould not trust the error.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not trust the error.", success, testID)
		}
	}
}
