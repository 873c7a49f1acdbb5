package dsp

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/interp"
)

// ErrStretchRate indicates a non-positive or non-finite time-stretch rate,
// which would produce an undefined or infinite target length.
var ErrStretchRate = errors.New("dsp: stretch rate must be positive and finite")

// StretchLength returns the sample count produced by stretching n samples by
// rate: round(n / rate). rate > 1 shortens the signal, rate < 1 lengthens it.
func StretchLength(n int, rate float64) int {
	return int(math.Round(float64(n) / rate))
}

// Stretch resamples x to exactly [StretchLength](len(x), rate) samples using
// 4-point Hermite interpolation. The sample rate of the signal is unchanged;
// only the sample count is, which is what makes this a tempo change when the
// result is played back at the original rate.
//
// A rate of exactly 1 returns a copy. rate <= 0, NaN or Inf returns
// [ErrStretchRate] before any resampling happens.
func Stretch(x []float64, rate float64) ([]float64, error) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("%w: %v", ErrStretchRate, rate)
	}
	if len(x) == 0 {
		return nil, nil
	}
	if rate == 1 {
		out := make([]float64, len(x))
		copy(out, x)
		return out, nil
	}

	target := StretchLength(len(x), rate)
	out := make([]float64, target)
	for i := range out {
		pos := float64(i) * rate
		idx := int(pos)
		frac := pos - float64(idx)
		out[i] = interp.Hermite4(frac, sampleAt(x, idx-1), sampleAt(x, idx), sampleAt(x, idx+1), sampleAt(x, idx+2))
	}
	return out, nil
}

// sampleAt reads x[i] with edge clamping so the interpolator can reach one
// sample past either end.
func sampleAt(x []float64, i int) float64 {
	if i < 0 {
		i = 0
	}
	if i >= len(x) {
		i = len(x) - 1
	}
	return x[i]
}
