package report

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// gathered flattens reg into "name{label=value}" -> value.
func gathered(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "{" + lp.GetName() + "=" + lp.GetValue() + "}"
			}
			out[key] = value(mf.GetType(), m)
		}
	}
	return out
}

func value(typ dto.MetricType, m *dto.Metric) float64 {
	switch typ {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(m.GetHistogram().GetSampleCount())
	default:
		return 0
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveStart("ok")
	m.ObserveStart("ok")
	m.ObserveStart("not_ready")
	m.ObserveStop("reaped")
	m.ObserveRender()
	m.SetUp(true)

	want := map[string]float64{
		"tunnelsup_starts_total{result=ok}":        2,
		"tunnelsup_starts_total{result=not_ready}": 1,
		"tunnelsup_stops_total{outcome=reaped}":    1,
		"tunnelsup_config_renders_total":           1,
		"tunnelsup_tunnel_up":                      1,
		"tunnelsup_run_duration_seconds":           0,
	}

	got := gathered(t, reg)
	if len(got) != len(want) {
		t.Errorf("gathered %d series, want %d: %v", len(got), len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}

	m.SetUp(false)
	if got := gathered(t, reg)["tunnelsup_tunnel_up"]; got != 0 {
		t.Errorf("tunnel_up after stop = %v, want 0", got)
	}
}

func TestObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewResult("run-1", 42, "/tmp/stunnel-config-1", start, start.Add(90*time.Second))
	r.SetExit("reaped", "terminated by SIGTERM", -1)

	m.ObserveRun(r)
	m.ObserveRun(nil)

	if got := gathered(t, reg)["tunnelsup_run_duration_seconds"]; got != 1 {
		t.Errorf("run_duration_seconds sample count = %v, want 1", got)
	}
	recent := m.History().Recent(0)
	if len(recent) != 1 || recent[0].RunID != "run-1" {
		t.Fatalf("History().Recent() = %+v", recent)
	}
	if recent[0].RuntimeSeconds != 90 {
		t.Errorf("RuntimeSeconds = %v, want 90", recent[0].RuntimeSeconds)
	}
}

func TestNewMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewMetrics(reg)
}
