// Package audio provides the PCM toolkit shared by the synthesis and
// restyling pipeline: WAV encoding/decoding, int16 ↔ float64 sample
// conversion, peak normalization, clipped quantization, length fitting and
// segment concatenation.
//
// Throughout the package a waveform is a mono, time-ordered sample sequence.
// Samples are 16-bit signed little-endian integers at rest and float64 in
// [-1, 1] while being processed.
package audio

// ToFloat64 converts 16-bit PCM samples to float64 in [-1, 1).
func ToFloat64(pcm []int16) []float64 {
	out := make([]float64, len(pcm))
	for i, s := range pcm {
		out[i] = float64(s) / 32768.0
	}
	return out
}

// Normalize peak-normalizes x to [-1, 1] and returns a new slice. The input
// is divided by its maximum absolute sample; an all-zero input is returned
// as an unmodified copy so that no division by zero can occur.
func Normalize(x []float64) []float64 {
	out := make([]float64, len(x))
	peak := 0.0
	for _, v := range x {
		if a := abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		copy(out, x)
		return out
	}
	for i, v := range x {
		out[i] = v / peak
	}
	return out
}

// Quantize converts float samples to 16-bit PCM by scaling with 32767.
// Values are clamped to [-32768, 32767] before the cast so that samples
// whose magnitude exceeds 1.0 saturate instead of wrapping around.
func Quantize(x []float64) []int16 {
	out := make([]int16, len(x))
	for i, v := range x {
		s := v * 32767.0
		if s > 32767 {
			s = 32767
		} else if s < -32768 {
			s = -32768
		}
		out[i] = int16(s)
	}
	return out
}

// FitLength forces x to exactly n samples: longer inputs are truncated,
// shorter inputs are zero-padded at the end. The result is always a new
// slice of length n.
func FitLength(x []float64, n int) []float64 {
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	copy(out, x)
	return out
}

// ConcatSegments joins PCM segments into a single waveform with
// pauseSamples of silence between consecutive segments. No pause is
// appended after the final segment. Empty segments are kept (they
// contribute zero samples but still separate their neighbours by a pause).
func ConcatSegments(segments [][]int16, pauseSamples int) []int16 {
	if len(segments) == 0 {
		return nil
	}
	if pauseSamples < 0 {
		pauseSamples = 0
	}
	total := pauseSamples * (len(segments) - 1)
	for _, seg := range segments {
		total += len(seg)
	}
	out := make([]int16, 0, total)
	for i, seg := range segments {
		if i > 0 {
			out = append(out, make([]int16, pauseSamples)...)
		}
		out = append(out, seg...)
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
