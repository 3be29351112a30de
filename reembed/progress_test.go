package reembed

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressTracker_ReportsAtInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 10)
	tracker.Start()

	tracker.Update(5)
	if buf.Len() != 0 {
		t.Errorf("Reported below the interval threshold: %q", buf.String())
	}

	tracker.Update(10)
	if !strings.Contains(buf.String(), "10/100") {
		t.Errorf("Expected progress report, got %q", buf.String())
	}
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 50, 100)
	tracker.Start()
	tracker.Increment(20)
	tracker.Finish()

	out := buf.String()
	if !strings.Contains(out, "50/50") {
		t.Errorf("Expected final count in output, got %q", out)
	}
	if !strings.Contains(out, "100.0%") {
		t.Errorf("Expected 100%% in output, got %q", out)
	}
}

func TestProgressTracker_IgnoresUpdatesBeforeStart(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 1)
	tracker.Update(5)
	tracker.Increment(5)
	tracker.Finish()

	if buf.Len() != 0 {
		t.Errorf("Expected no output before Start, got %q", buf.String())
	}
}
