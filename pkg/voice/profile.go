// Package voice extracts vocal characteristics from recorded speech and
// applies them to synthesized audio, so that generated speech takes on the
// pitch and pacing of a reference speaker.
package voice

import "fmt"

// ReferenceTempo is the neutral speaking tempo in beats per minute. A
// profile at this tempo leaves the duration of restyled audio unchanged.
const ReferenceTempo = 120.0

// Profile captures the transferable characteristics of a voice.
type Profile struct {
	// Pitch is the deviation of the dominant pitch from the nearest
	// equal-tempered semitone, in fractional semitones within [-0.5, 0.5].
	// Zero means the voice sits exactly on a semitone (or was silent).
	Pitch float64 `json:"pitch"`

	// Tempo is the estimated speaking tempo in beats per minute.
	Tempo float64 `json:"tempo"`
}

func (p Profile) String() string {
	return fmt.Sprintf("pitch=%+.3f tempo=%.1f", p.Pitch, p.Tempo)
}
