// Package synth defines the Synthesizer interface for speech synthesis
// backends.
//
// A Synthesizer wraps a text-to-speech engine (a local Bark server, the
// OpenAI speech API, or a test double) and presents a uniform PCM interface:
// text in, mono 16-bit samples at [SampleRate] out. Backends that produce
// audio at a different rate resample before returning.
//
// Implementations must be safe for concurrent use.
package synth

import (
	"context"
	"errors"
)

// SampleRate is the sample rate of all synthesized audio, in Hz. It matches
// the native output rate of the Bark model.
const SampleRate = 24000

// ErrInvalidPreset indicates a voice preset the backend does not know.
var ErrInvalidPreset = errors.New("synth: invalid voice preset")

// Synthesizer is the abstraction over any speech synthesis backend.
//
// Implementations must be safe for concurrent use; long texts are
// synthesized as parallel chunks.
type Synthesizer interface {
	// Synthesize renders text as mono 16-bit PCM at [SampleRate] using the
	// given voice preset. An empty preset selects the backend's default
	// voice. A preset the backend does not recognize returns an error
	// wrapping [ErrInvalidPreset].
	Synthesize(ctx context.Context, text, preset string) ([]int16, error)

	// Presets returns the voice presets this backend accepts, in a stable
	// order. Returns an error if the backend cannot be reached.
	Presets(ctx context.Context) ([]string, error)
}
