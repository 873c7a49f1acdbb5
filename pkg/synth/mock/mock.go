// Package mock provides a test double for the synth.Synthesizer interface.
//
// Use Synthesizer to feed controlled PCM to consumers and to verify the text
// and preset passed to the backend.
//
// Example:
//
//	s := &mock.Synthesizer{
//	    SynthesizeResult: []int16{0, 100, -100},
//	    PresetsResult:    []string{"v2/en_speaker_0"},
//	}
//	pcm, _ := s.Synthesize(ctx, "hello", "")
package mock

import (
	"context"
	"sync"

	"github.com/voxtools/gobark/pkg/synth"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Text is the text passed to Synthesize.
	Text string
	// Preset is the voice preset passed to Synthesize.
	Preset string
}

// PresetsCall records a single invocation of Presets.
type PresetsCall struct {
	// Ctx is the context passed to Presets.
	Ctx context.Context
}

// Synthesizer is a mock implementation of synth.Synthesizer.
type Synthesizer struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// SynthesizeResult is returned as the PCM from Synthesize. When
	// SynthesizeFunc is set it takes precedence.
	SynthesizeResult []int16

	// SynthesizeErr, if non-nil, is returned as the error from Synthesize.
	SynthesizeErr error

	// SynthesizeFunc, if set, computes the result of Synthesize per call.
	SynthesizeFunc func(ctx context.Context, text, preset string) ([]int16, error)

	// PresetsResult is returned by Presets.
	PresetsResult []string

	// PresetsErr, if non-nil, is returned as the error from Presets.
	PresetsErr error

	// --- Call records ---

	// SynthesizeCalls records every call to Synthesize in order.
	SynthesizeCalls []SynthesizeCall

	// PresetsCalls records every call to Presets in order.
	PresetsCalls []PresetsCall
}

// Synthesize records the call and returns SynthesizeFunc's result when set,
// otherwise a copy of SynthesizeResult and SynthesizeErr.
func (s *Synthesizer) Synthesize(ctx context.Context, text, preset string) ([]int16, error) {
	s.mu.Lock()
	s.SynthesizeCalls = append(s.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Text: text, Preset: preset})
	fn := s.SynthesizeFunc
	result := make([]int16, len(s.SynthesizeResult))
	copy(result, s.SynthesizeResult)
	err := s.SynthesizeErr
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, preset)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Presets records the call and returns PresetsResult, PresetsErr.
func (s *Synthesizer) Presets(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PresetsCalls = append(s.PresetsCalls, PresetsCall{Ctx: ctx})
	return s.PresetsResult, s.PresetsErr
}

// Reset clears all recorded calls. Thread-safe.
func (s *Synthesizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SynthesizeCalls = nil
	s.PresetsCalls = nil
}

// Ensure Synthesizer implements synth.Synthesizer at compile time.
var _ synth.Synthesizer = (*Synthesizer)(nil)
