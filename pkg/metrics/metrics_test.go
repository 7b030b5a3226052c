package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestConnectionOpenedAndClosed(t *testing.T) {
	r := NewRegistry()

	r.ConnectionOpened()
	r.ConnectionOpened()
	if got := testutil.ToFloat64(r.connectionsOpened); got != 2 {
		t.Errorf("connectionsOpened = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.connectionsActive); got != 2 {
		t.Errorf("connectionsActive = %v, want 2", got)
	}

	r.ConnectionClosed()
	if got := testutil.ToFloat64(r.connectionsActive); got != 1 {
		t.Errorf("connectionsActive after close = %v, want 1", got)
	}
}

func TestStatementPrepared(t *testing.T) {
	r := NewRegistry()

	r.StatementPrepared()
	r.StatementPrepared()
	r.StatementPrepared()
	if got := testutil.ToFloat64(r.statementsPrepared); got != 3 {
		t.Errorf("statementsPrepared = %v, want 3", got)
	}
}

func TestErrorSentByCode(t *testing.T) {
	r := NewRegistry()

	r.ErrorSent("42601")
	r.ErrorSent("42601")
	r.ErrorSent("23505")

	if got := testutil.ToFloat64(r.errorsByCode.WithLabelValues("42601")); got != 2 {
		t.Errorf("errorsByCode[42601] = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.errorsByCode.WithLabelValues("23505")); got != 1 {
		t.Errorf("errorsByCode[23505] = %v, want 1", got)
	}
}

func TestGathererReflectsRegisteredMetrics(t *testing.T) {
	r := NewRegistry()
	r.ConnectionOpened()

	families, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one registered metric family")
	}
}
