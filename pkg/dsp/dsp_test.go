package dsp_test

import (
	"errors"
	"math"
	"testing"

	"github.com/voxtools/gobark/pkg/dsp"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestStretchLength(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n    int
		rate float64
		want int
	}{
		{48000, 1.0, 48000},
		{48000, 2.0, 24000},
		{48000, 0.5, 96000},
		{100, 3.0, 33},
		{10, 4.0, 3}, // 2.5 rounds half away from zero
	}
	for _, tt := range tests {
		if got := dsp.StretchLength(tt.n, tt.rate); got != tt.want {
			t.Errorf("StretchLength(%d, %v) = %d, want %d", tt.n, tt.rate, got, tt.want)
		}
	}
}

func TestStretch_Identity(t *testing.T) {
	t.Parallel()
	in := sine(440, 24000, 2048)
	out, err := dsp.Stretch(in, 1.0)
	if err != nil {
		t.Fatalf("stretch: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d changed: got %v, want %v", i, out[i], in[i])
		}
	}
	// Must be a copy, not an alias.
	out[0] = 99
	if in[0] == 99 {
		t.Error("output aliases input")
	}
}

func TestStretch_TargetLengths(t *testing.T) {
	t.Parallel()
	in := sine(440, 24000, 10000)
	for _, rate := range []float64{0.5, 0.8, 1.25, 2.0} {
		out, err := dsp.Stretch(in, rate)
		if err != nil {
			t.Fatalf("stretch rate %v: %v", rate, err)
		}
		want := dsp.StretchLength(len(in), rate)
		if len(out) != want {
			t.Errorf("rate %v: length = %d, want %d", rate, len(out), want)
		}
	}
}

func TestStretch_PreservesShape(t *testing.T) {
	t.Parallel()
	// Stretching a sine by rate r shifts its apparent frequency by r.
	// Check the interpolated signal stays bounded and nonzero.
	in := sine(440, 24000, 24000)
	out, err := dsp.Stretch(in, 1.5)
	if err != nil {
		t.Fatalf("stretch: %v", err)
	}
	peak := 0.0
	for _, v := range out {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak < 0.9 || peak > 1.1 {
		t.Errorf("peak after stretch = %v, want near 1", peak)
	}
}

func TestStretch_BadRate(t *testing.T) {
	t.Parallel()
	in := []float64{1, 2, 3}
	for _, rate := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := dsp.Stretch(in, rate)
		if !errors.Is(err, dsp.ErrStretchRate) {
			t.Errorf("rate %v: error = %v, want ErrStretchRate", rate, err)
		}
	}
}

func TestStretch_Empty(t *testing.T) {
	t.Parallel()
	out, err := dsp.Stretch(nil, 2.0)
	if err != nil {
		t.Fatalf("stretch: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("length = %d, want 0", len(out))
	}
}

func TestPeakFrequency_Sine(t *testing.T) {
	t.Parallel()
	const rate = 24000
	for _, freq := range []float64{220, 440, 880} {
		in := sine(freq, rate, rate) // one second
		got, err := dsp.PeakFrequency(in, rate, 50, 2000)
		if err != nil {
			t.Fatalf("peak frequency: %v", err)
		}
		if math.Abs(got-freq) > 15 {
			t.Errorf("freq %v: got %v, want within 15 Hz", freq, got)
		}
	}
}

func TestPeakFrequency_Silence(t *testing.T) {
	t.Parallel()
	in := make([]float64, 24000)
	got, err := dsp.PeakFrequency(in, 24000, 50, 2000)
	if err != nil {
		t.Fatalf("peak frequency: %v", err)
	}
	if got != 0 {
		t.Errorf("got %v, want 0 for silence", got)
	}
}

func TestPeakFrequency_BadRate(t *testing.T) {
	t.Parallel()
	if _, err := dsp.PeakFrequency([]float64{1}, 0, 50, 2000); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestOnsetEnvelope_ClicksProduceFlux(t *testing.T) {
	t.Parallel()
	const rate = 24000
	in := make([]float64, rate)
	// Two short bursts half a second apart.
	for _, start := range []int{1000, 13000} {
		for i := 0; i < 200; i++ {
			in[start+i] = 0.9
		}
	}
	env, err := dsp.OnsetEnvelope(in)
	if err != nil {
		t.Fatalf("onset envelope: %v", err)
	}
	if len(env) == 0 {
		t.Fatal("empty envelope")
	}
	max := 0.0
	for _, v := range env {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		t.Error("envelope has no energy for a signal with bursts")
	}
}

func TestOnsetEnvelope_Silence(t *testing.T) {
	t.Parallel()
	env, err := dsp.OnsetEnvelope(make([]float64, 24000))
	if err != nil {
		t.Fatalf("onset envelope: %v", err)
	}
	for i, v := range env {
		if v != 0 {
			t.Fatalf("env[%d] = %v, want 0 for silence", i, v)
		}
	}
}

func TestAutocorrelate_Periodic(t *testing.T) {
	t.Parallel()
	// A periodic signal peaks again at its period lag.
	const period = 50
	in := make([]float64, 1000)
	for i := range in {
		if i%period == 0 {
			in[i] = 1
		}
	}
	ac := dsp.Autocorrelate(in)
	if math.Abs(ac[0]-1) > 1e-12 {
		t.Errorf("ac[0] = %v, want 1", ac[0])
	}
	// The period lag must dominate its neighbourhood.
	for lag := period - 10; lag < period+10; lag++ {
		if lag == period {
			continue
		}
		if ac[lag] >= ac[period] {
			t.Errorf("ac[%d]=%v >= ac[%d]=%v", lag, ac[lag], period, ac[period])
		}
	}
}

func TestAutocorrelate_ZeroEnergy(t *testing.T) {
	t.Parallel()
	ac := dsp.Autocorrelate(make([]float64, 16))
	for i, v := range ac {
		if v != 0 {
			t.Errorf("ac[%d] = %v, want 0", i, v)
		}
	}
}

func TestAnalysisFrameRate(t *testing.T) {
	t.Parallel()
	if got := dsp.AnalysisFrameRate(24000); got != 24000.0/256.0 {
		t.Errorf("frame rate = %v, want %v", got, 24000.0/256.0)
	}
}
