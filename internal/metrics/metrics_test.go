package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrementByLabel(t *testing.T) {
	MustRegister()
	MustRegister()

	before := testutil.ToFloat64(messagesSentTotal.WithLabelValues("text", "error"))
	ObserveSend(" TEXT ", errors.New("boom"))
	if got := testutil.ToFloat64(messagesSentTotal.WithLabelValues("text", "error")); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}

	before = testutil.ToFloat64(storeRequestsTotal.WithLabelValues("get", "ok"))
	ObserveStore("get", nil)
	if got := testutil.ToFloat64(storeRequestsTotal.WithLabelValues("get", "ok")); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}

	before = testutil.ToFloat64(deliveriesTotal.WithLabelValues("ignored"))
	IncDelivery("ignored")
	if got := testutil.ToFloat64(deliveriesTotal.WithLabelValues("ignored")); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}
}

func TestTrackDispatchObserves(t *testing.T) {
	TrackDispatch("text_menu")()
	if n := testutil.CollectAndCount(dispatchDuration); n == 0 {
		t.Fatal("expected at least one histogram series")
	}
}
