package dsp

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

const (
	// analysisFrameSize is the STFT frame length used by the feature
	// extraction helpers. Power of two as required by the FFT plan.
	analysisFrameSize = 2048

	// analysisHop is the STFT hop in samples.
	analysisHop = 256
)

// AnalysisFrameRate returns the STFT frame rate (envelope samples per
// second) for a signal at sampleRate, as used by [OnsetEnvelope].
func AnalysisFrameRate(sampleRate int) float64 {
	return float64(sampleRate) / float64(analysisHop)
}

// MeanSpectrum computes the average STFT magnitude spectrum of x using a
// periodic Hann window of analysisFrameSize samples. The result holds
// frameSize/2+1 bins; bin k corresponds to k*sampleRate/frameSize Hz.
// Inputs shorter than one frame are zero-padded.
func MeanSpectrum(x []float64) ([]float64, error) {
	coeffs := window.Generate(window.TypeHann, analysisFrameSize, window.WithPeriodic())
	plan, err := algofft.NewPlan64(analysisFrameSize)
	if err != nil {
		return nil, fmt.Errorf("dsp: create fft plan: %w", err)
	}

	half := analysisFrameSize / 2
	mean := make([]float64, half+1)
	frame := make([]complex128, analysisFrameSize)

	frames := 0
	for pos := 0; pos == 0 || pos+analysisFrameSize <= len(x); pos += analysisHop {
		for i := range frame {
			v := 0.0
			if pos+i < len(x) {
				v = x[pos+i]
			}
			frame[i] = complex(v*coeffs[i], 0)
		}
		if err := plan.Forward(frame, frame); err != nil {
			return nil, fmt.Errorf("dsp: forward fft: %w", err)
		}
		mags := spectrum.Magnitude(frame[:half+1])
		for k, m := range mags {
			mean[k] += m
		}
		frames++
	}

	for k := range mean {
		mean[k] /= float64(frames)
	}
	return mean, nil
}

// PeakFrequency locates the dominant spectral peak of x between loHz and
// hiHz and returns its frequency refined by parabolic interpolation.
// Returns 0 when the search band contains no energy above silenceFloor
// (relative to a full-scale sine), which is the silence case.
func PeakFrequency(x []float64, sampleRate int, loHz, hiHz float64) (float64, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("dsp: invalid sample rate %d", sampleRate)
	}
	mean, err := MeanSpectrum(x)
	if err != nil {
		return 0, err
	}

	binHz := float64(sampleRate) / float64(analysisFrameSize)
	lo := int(loHz / binHz)
	hi := int(hiHz / binHz)
	if lo < 1 {
		lo = 1
	}
	if hi > len(mean)-2 {
		hi = len(mean) - 2
	}
	if lo >= hi {
		return 0, nil
	}

	const silenceFloor = 1e-6
	best := lo
	for k := lo; k <= hi; k++ {
		if mean[k] > mean[best] {
			best = k
		}
	}
	if mean[best] <= silenceFloor*float64(analysisFrameSize) {
		return 0, nil
	}

	// Parabolic refinement over the three bins around the peak.
	delta := parabolicOffset(mean[best-1], mean[best], mean[best+1])
	return (float64(best) + delta) * binHz, nil
}

// OnsetEnvelope computes an onset-strength envelope via spectral flux: for
// each STFT frame, the sum of positive magnitude increases over the previous
// frame. The envelope has one value per hop, at [AnalysisFrameRate].
func OnsetEnvelope(x []float64) ([]float64, error) {
	coeffs := window.Generate(window.TypeHann, analysisFrameSize, window.WithPeriodic())
	plan, err := algofft.NewPlan64(analysisFrameSize)
	if err != nil {
		return nil, fmt.Errorf("dsp: create fft plan: %w", err)
	}

	half := analysisFrameSize / 2
	frame := make([]complex128, analysisFrameSize)
	prev := make([]float64, half+1)
	var env []float64

	for pos := 0; pos == 0 || pos+analysisHop <= len(x); pos += analysisHop {
		for i := range frame {
			v := 0.0
			if pos+i < len(x) {
				v = x[pos+i]
			}
			frame[i] = complex(v*coeffs[i], 0)
		}
		if err := plan.Forward(frame, frame); err != nil {
			return nil, fmt.Errorf("dsp: forward fft: %w", err)
		}
		mags := spectrum.Magnitude(frame[:half+1])

		if pos > 0 {
			flux := 0.0
			for k, m := range mags {
				if d := m - prev[k]; d > 0 {
					flux += d
				}
			}
			env = append(env, flux)
		}
		copy(prev, mags)
	}
	return env, nil
}

// Autocorrelate returns the normalized autocorrelation of x for all
// non-negative lags, with the zero-lag term scaled to 1. A zero-energy input
// returns an all-zero result.
func Autocorrelate(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	energy := 0.0
	for _, v := range x {
		energy += v * v
	}
	if energy == 0 {
		return out
	}

	for lag := 0; lag < n; lag++ {
		sum := 0.0
		for i := 0; i+lag < n; i++ {
			sum += x[i] * x[i+lag]
		}
		out[lag] = sum / energy
	}
	return out
}

// parabolicOffset fits a parabola through three equally spaced points and
// returns the fractional offset of its vertex from the centre point, in
// [-0.5, 0.5].
func parabolicOffset(a, b, c float64) float64 {
	den := a - 2*b + c
	if den == 0 {
		return 0
	}
	d := 0.5 * (a - c) / den
	if d > 0.5 {
		d = 0.5
	} else if d < -0.5 {
		d = -0.5
	}
	return d
}
