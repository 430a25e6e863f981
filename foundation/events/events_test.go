package events_test

import (
	"sync"
	"testing"

	"github.com/ardanlabs/paystream/foundation/events"
	"go.uber.org/goleak"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFanOut(t *testing.T) {
	t.Log("Given the need to fan events out to subscribers.")
	{
		t.Logf("\tTest 0:\tWhen two subscribers are registered.")
		{
			evts := events.New()

			var wg sync.WaitGroup
			got := make([][]string, 2)

			for i, id := range []string{"a", "b"} {
				ch := evts.Acquire(id)

				wg.Add(1)
				go func() {
					defer wg.Done()
					for e := range ch {
						got[i] = append(got[i], e.Message)
					}
				}()
			}

			evts.Send("ledger: create stream: id[1]")
			evts.Send("ledger: withdraw: id[1]")

			if err := evts.Release("a"); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to release a subscriber: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to release a subscriber.", success)

			if err := evts.Release("a"); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould fail to release twice.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould fail to release twice.", success)

			evts.Shutdown()
			wg.Wait()

			for i := range got {
				if len(got[i]) != 2 {
					t.Fatalf("\t%s\tTest 0:\tShould deliver both messages to subscriber %d, got %d.", failed, i, len(got[i]))
				}
			}
			t.Logf("\t%s\tTest 0:\tShould deliver both messages to every subscriber.", success)
		}

		t.Logf("\tTest 1:\tWhen a subscriber is not reading.")
		{
			evts := events.New()
			evts.Acquire("slow")

			for range 101 {
				evts.Send("tick")
			}

			if n := evts.Dropped(); n != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould drop the message past the buffer, got %d.", failed, n)
			}
			t.Logf("\t%s\tTest 1:\tShould drop the message past the buffer.", success)

			evts.Shutdown()
		}
	}
}
