package stats

import (
	"testing"
	"time"

	"github.com/dmagro/ethlog/internal/ethval"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestCalculateTailLatency(t *testing.T) {
	// 1..100ms: percentile ranks are unambiguous.
	samples := make([]time.Duration, 100)
	for i := range samples {
		samples[i] = ms(i + 1)
	}

	tl := CalculateTailLatency(samples)
	if tl.P50 != ms(50) {
		t.Errorf("P50 = %v, want 50ms", tl.P50)
	}
	if tl.P95 != ms(95) {
		t.Errorf("P95 = %v, want 95ms", tl.P95)
	}
	if tl.P99 != ms(99) {
		t.Errorf("P99 = %v, want 99ms", tl.P99)
	}
	if tl.Max != ms(100) {
		t.Errorf("Max = %v, want 100ms", tl.Max)
	}
}

func TestCalculateTailLatency_SmallSamples(t *testing.T) {
	// With few samples the high percentiles equal the max.
	tl := CalculateTailLatency([]time.Duration{ms(10), ms(20), ms(30)})
	if tl.P95 != ms(30) || tl.P99 != ms(30) || tl.Max != ms(30) {
		t.Errorf("small-sample tails = %+v, want all 30ms", tl)
	}
	if tl.P50 != ms(20) {
		t.Errorf("P50 = %v, want 20ms", tl.P50)
	}
}

func TestCalculateTailLatency_Empty(t *testing.T) {
	if tl := CalculateTailLatency(nil); tl != (TailLatency{}) {
		t.Errorf("empty samples should yield zero values, got %+v", tl)
	}
}

func TestCalculateTailLatency_DoesNotMutateInput(t *testing.T) {
	samples := []time.Duration{ms(30), ms(10), ms(20)}
	_ = CalculateTailLatency(samples)
	if samples[0] != ms(30) || samples[1] != ms(10) || samples[2] != ms(20) {
		t.Error("input slice was reordered")
	}
}

func TestFromTimespans(t *testing.T) {
	spans := []ethval.Timespan{
		ethval.NewTimespan(10),
		ethval.NewTimespan(20),
		ethval.NewTimespan(30),
	}
	tl := FromTimespans(spans)
	if tl.P50 != ms(20) || tl.Max != ms(30) {
		t.Errorf("FromTimespans = %+v", tl)
	}
}
