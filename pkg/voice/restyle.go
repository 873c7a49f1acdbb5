package voice

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/effects/pitch"

	"github.com/voxtools/gobark/pkg/audio"
	"github.com/voxtools/gobark/pkg/dsp"
)

// ErrTempoRange indicates a profile tempo outside the usable band.
var ErrTempoRange = errors.New("voice: profile tempo out of range")

// Usable tempo band for restyling. Matches the band the extractor can
// produce, so every extracted profile is convertible.
const (
	restyleTempoMin = tempoMin
	restyleTempoMax = tempoMax
)

// Restyler applies a [Profile] to synthesized audio. All stages operate at
// a fixed sample rate; the output always has exactly as many samples as the
// input. Safe for concurrent use.
type Restyler struct {
	sampleRate int

	// The spectral shifter keeps per-call scratch buffers and is not safe
	// for concurrent use; mu serializes access to it.
	mu      sync.Mutex
	shifter *pitch.SpectralPitchShifter
}

// NewRestyler returns a Restyler for audio at sampleRate.
func NewRestyler(sampleRate int) (*Restyler, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("voice: invalid sample rate %d", sampleRate)
	}
	shifter, err := pitch.NewSpectralPitchShifter(float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("voice: create pitch shifter: %w", err)
	}
	return &Restyler{sampleRate: sampleRate, shifter: shifter}, nil
}

// SampleRate returns the rate the restyler operates at.
func (r *Restyler) SampleRate() int { return r.sampleRate }

// Convert applies p to pcm: peak normalization, pitch shift by
// p.Pitch semitone-fractions scaled to full semitones, time stretch by
// p.Tempo relative to [ReferenceTempo], then a fit back to the input length
// and quantization with clamping. The result has len(pcm) samples.
//
// A neutral profile {0, ReferenceTempo} applied to peak-normalized input
// returns the input unchanged. Tempo outside [30, 300] BPM returns
// [ErrTempoRange].
func (r *Restyler) Convert(pcm []int16, p Profile) ([]int16, error) {
	if math.IsNaN(p.Tempo) || p.Tempo < restyleTempoMin || p.Tempo > restyleTempoMax {
		return nil, fmt.Errorf("%w: %.1f BPM not in [%.0f, %.0f]",
			ErrTempoRange, p.Tempo, restyleTempoMin, restyleTempoMax)
	}
	if len(pcm) == 0 {
		return []int16{}, nil
	}

	x := audio.Normalize(audio.ToFloat64(pcm))

	if p.Pitch != 0 {
		var err error
		x, err = r.pitchShift(x, p.Pitch*12)
		if err != nil {
			return nil, err
		}
	}

	rate := p.Tempo / ReferenceTempo
	stretched, err := dsp.Stretch(x, rate)
	if err != nil {
		return nil, fmt.Errorf("voice: time stretch: %w", err)
	}

	return audio.Quantize(audio.FitLength(stretched, len(pcm))), nil
}

// pitchShift runs x through the shared spectral shifter. Process resets the
// shifter's phase-tracking state on every call, so serialized reuse stays
// deterministic.
func (r *Restyler) pitchShift(x []float64, semitones float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.shifter.SetPitchSemitones(semitones); err != nil {
		return nil, fmt.Errorf("voice: set pitch shift: %w", err)
	}
	return r.shifter.Process(x), nil
}
