package voice

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/voxtools/gobark/pkg/audio"
	"github.com/voxtools/gobark/pkg/dsp"
)

// Pitch search band in Hz, covering the fundamental range of human speech
// plus the first harmonics that usually dominate the spectrum.
const (
	pitchBandLowHz  = 50.0
	pitchBandHighHz = 2000.0
)

// Tempo search band in BPM.
const (
	tempoMin = 30.0
	tempoMax = 300.0
)

// a4Hz is the tuning reference for semitone deviation.
const a4Hz = 440.0

// onsetSignificance is the minimum peak spectral flux, relative to the
// signal's mean spectral magnitude, for the onset envelope to count as
// rhythmic content. Real onsets change the spectrum on the order of the
// spectrum itself; the flux of silence, steady tones, and quantization
// noise sits orders of magnitude below this.
const onsetSignificance = 0.01

// Extractor derives a [Profile] from reference audio. The zero value is not
// usable; construct with [NewExtractor].
type Extractor struct {
	log *slog.Logger
}

// NewExtractor returns an Extractor that logs analysis details to logger.
// A nil logger falls back to [slog.Default].
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{log: logger}
}

// Extract analyzes pcm at sampleRate and returns its voice profile. The
// analysis is deterministic: the same input always yields the same profile.
// Silent or degenerate input yields the neutral profile
// {Pitch: 0, Tempo: ReferenceTempo}.
func (e *Extractor) Extract(pcm []int16, sampleRate int) (Profile, error) {
	if sampleRate <= 0 {
		return Profile{}, fmt.Errorf("voice: invalid sample rate %d", sampleRate)
	}

	x := audio.ToFloat64(pcm)

	pitch, err := e.extractPitch(x, sampleRate)
	if err != nil {
		return Profile{}, fmt.Errorf("voice: extract pitch: %w", err)
	}

	tempo, err := e.extractTempo(x, sampleRate)
	if err != nil {
		return Profile{}, fmt.Errorf("voice: extract tempo: %w", err)
	}

	p := Profile{Pitch: pitch, Tempo: tempo}
	e.log.Debug("extracted voice profile",
		slog.Float64("pitch", p.Pitch),
		slog.Float64("tempo", p.Tempo),
		slog.Int("samples", len(pcm)),
		slog.Int("sample_rate", sampleRate))
	return p, nil
}

// extractPitch finds the dominant spectral frequency and returns its
// deviation from the nearest equal-tempered semitone, in fractional
// semitones.
func (e *Extractor) extractPitch(x []float64, sampleRate int) (float64, error) {
	freq, err := dsp.PeakFrequency(x, sampleRate, pitchBandLowHz, pitchBandHighHz)
	if err != nil {
		return 0, err
	}
	if freq <= 0 {
		e.log.Debug("no dominant pitch found, using neutral pitch")
		return 0, nil
	}

	// Semitone offset from A4; the deviation from its nearest integer is
	// how far the voice sits off the equal-tempered grid.
	n := 12 * math.Log2(freq/a4Hz)
	return n - math.Round(n), nil
}

// extractTempo estimates speaking tempo from the periodicity of the onset
// envelope. Inputs without a detectable rhythm fall back to ReferenceTempo.
func (e *Extractor) extractTempo(x []float64, sampleRate int) (float64, error) {
	env, err := dsp.OnsetEnvelope(x)
	if err != nil {
		return 0, err
	}
	if len(env) < 4 {
		e.log.Debug("input too short for tempo analysis, using reference tempo")
		return ReferenceTempo, nil
	}

	// A beatless signal still has a nonzero envelope from rounding noise,
	// and the autocorrelation of noise peaks at an arbitrary lag. Require
	// the strongest onset to be significant against the spectrum before
	// trusting any periodicity in the envelope.
	spec, err := dsp.MeanSpectrum(x)
	if err != nil {
		return 0, err
	}
	magScale := 0.0
	for _, m := range spec {
		magScale += m
	}
	peakFlux := 0.0
	for _, v := range env {
		if v > peakFlux {
			peakFlux = v
		}
	}
	if peakFlux <= onsetSignificance*magScale {
		e.log.Debug("no significant onsets, using reference tempo")
		return ReferenceTempo, nil
	}

	// Center the envelope so silence between onsets does not bias the
	// autocorrelation toward lag zero.
	mean := 0.0
	for _, v := range env {
		mean += v
	}
	mean /= float64(len(env))
	centered := make([]float64, len(env))
	for i, v := range env {
		centered[i] = v - mean
	}

	ac := dsp.Autocorrelate(centered)
	frameRate := dsp.AnalysisFrameRate(sampleRate)

	// A tempo of b BPM corresponds to a lag of frameRate*60/b frames.
	minLag := int(frameRate * 60 / tempoMax)
	maxLag := int(frameRate * 60 / tempoMin)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag > len(ac)-2 {
		maxLag = len(ac) - 2
	}
	if minLag >= maxLag {
		e.log.Debug("input too short for tempo analysis, using reference tempo")
		return ReferenceTempo, nil
	}

	best := minLag
	for lag := minLag; lag <= maxLag; lag++ {
		if ac[lag] > ac[best] {
			best = lag
		}
	}
	if ac[best] <= 0 {
		e.log.Debug("no periodicity in onset envelope, using reference tempo")
		return ReferenceTempo, nil
	}

	// Parabolic refinement of the peak lag for sub-frame resolution.
	lag := float64(best)
	if best > 0 && best < len(ac)-1 {
		a, b, c := ac[best-1], ac[best], ac[best+1]
		if den := a - 2*b + c; den != 0 {
			d := 0.5 * (a - c) / den
			if d > -0.5 && d < 0.5 {
				lag += d
			}
		}
	}

	tempo := frameRate * 60 / lag
	if tempo < tempoMin || tempo > tempoMax {
		e.log.Debug("estimated tempo outside plausible band, using reference tempo",
			slog.Float64("tempo", tempo))
		return ReferenceTempo, nil
	}
	return tempo, nil
}
