package report

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestHistoryRingBuffer(t *testing.T) {
	h := NewHistory(3)
	start := time.Now()

	for i := 1; i <= 5; i++ {
		h.Record(NewResult(fmt.Sprintf("run-%d", i), i, "", start, start.Add(time.Second)))
	}

	if h.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", h.Count())
	}

	tests := []struct {
		n    int
		want []string
	}{
		{0, []string{"run-5", "run-4", "run-3"}},
		{2, []string{"run-5", "run-4"}},
		{10, []string{"run-5", "run-4", "run-3"}},
	}
	for _, tt := range tests {
		got := h.Recent(tt.n)
		if len(got) != len(tt.want) {
			t.Fatalf("Recent(%d) returned %d runs, want %d", tt.n, len(got), len(tt.want))
		}
		for i := range tt.want {
			if got[i].RunID != tt.want[i] {
				t.Errorf("Recent(%d)[%d] = %s, want %s", tt.n, i, got[i].RunID, tt.want[i])
			}
		}
	}
}

func TestHistoryDefaultSize(t *testing.T) {
	h := NewHistory(0)
	start := time.Now()
	for i := 0; i < DefaultHistorySize+5; i++ {
		h.Record(NewResult("r", i, "", start, start))
	}
	h.Record(nil)

	if h.Count() != DefaultHistorySize {
		t.Errorf("Count() = %d, want %d", h.Count(), DefaultHistorySize)
	}
}

func TestResultSummary(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewResult("abc", 4242, "/tmp/stunnel-config-9", start, start.Add(2*time.Minute))
	r.SetExit("reaped", "terminated by SIGTERM", -1)

	got := r.Summary()
	want := "TUNNEL abc | outcome=reaped | exit=terminated by SIGTERM | runtime=120s | pid=4242"
	if got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(got, "TUNNEL ") {
		t.Error("summary must start with TUNNEL for grep")
	}
}
