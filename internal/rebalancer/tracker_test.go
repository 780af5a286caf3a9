package rebalancer

import "testing"

func TestAdvanceRevertsToImporterExporterAtDwellTime(t *testing.T) {
	tr := &GoodTracker{State: Importer, Days: dwellDays - 1}
	if err := tr.Advance(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.State != ImporterExporter || tr.Days != 0 {
		t.Fatalf("expected reversion to ImporterExporter at dwell time, got state=%v days=%d", tr.State, tr.Days)
	}
}

func TestAdvanceIsNoOpOnImporterExporter(t *testing.T) {
	tr := &GoodTracker{State: ImporterExporter}
	if err := tr.Advance(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Days != 0 {
		t.Fatalf("expected Days to stay 0, got %d", tr.Days)
	}
}

func TestAdvanceReportsNegativeDayInvariantViolation(t *testing.T) {
	tr := &GoodTracker{State: Shortage, Days: -1}
	if err := tr.Advance(); err == nil {
		t.Fatal("expected an error for a negative day counter")
	}
}
