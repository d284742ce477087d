package metrics

import (
	"testing"
	"time"
)

func TestCollector_EmptySnapshot(t *testing.T) {
	c := NewCollector()
	snap := c.Snapshot()

	if snap.Completion != nil {
		t.Error("expected nil completion snapshot with no data")
	}
	if snap.StoreSave != nil || snap.StoreLoad != nil {
		t.Error("expected nil store snapshots with no data")
	}
}

func TestCollector_RecordTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpStoreSave, 10*time.Millisecond)
	c.RecordTiming(OpStoreSave, 30*time.Millisecond)

	snap := c.Snapshot().StoreSave
	if snap == nil {
		t.Fatal("expected store_save snapshot")
	}
	if snap.Count != 2 {
		t.Errorf("Count = %d, want 2", snap.Count)
	}
	if snap.MinTimeMs != 10 || snap.MaxTimeMs != 30 {
		t.Errorf("min/max = %d/%d, want 10/30", snap.MinTimeMs, snap.MaxTimeMs)
	}
	if snap.AvgTimeMs != 20 {
		t.Errorf("AvgTimeMs = %f, want 20", snap.AvgTimeMs)
	}
}

func TestCollector_RecordCompletion(t *testing.T) {
	c := NewCollector()
	c.RecordCompletion(100*time.Millisecond, 50, 200)
	c.RecordCompletion(200*time.Millisecond, 150, 400)

	snap := c.Snapshot().Completion
	if snap == nil {
		t.Fatal("expected completion snapshot")
	}
	if snap.Count != 2 {
		t.Errorf("Count = %d, want 2", snap.Count)
	}
	if snap.TotalInputTokens == nil || *snap.TotalInputTokens != 200 {
		t.Errorf("TotalInputTokens = %v, want 200", snap.TotalInputTokens)
	}
	if snap.AvgOutputTokens == nil || *snap.AvgOutputTokens != 300 {
		t.Errorf("AvgOutputTokens = %v, want 300", snap.AvgOutputTokens)
	}
}

func TestCollector_RecordError(t *testing.T) {
	c := NewCollector()
	c.RecordError(OpLLMComplete)

	snap := c.Snapshot().Completion
	if snap == nil {
		t.Fatal("expected completion snapshot after error")
	}
	if snap.Errors != 1 {
		t.Errorf("Errors = %d, want 1", snap.Errors)
	}
	if snap.Count != 0 {
		t.Errorf("Count = %d, want 0", snap.Count)
	}
}
