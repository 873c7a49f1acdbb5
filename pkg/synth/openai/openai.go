// Package openai provides a synth.Synthesizer backed by the OpenAI speech
// API. It exists as an alternative to a local Bark server when no GPU is
// available; output is resampled to the common synthesis rate so both
// backends are interchangeable.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/voxtools/gobark/pkg/audio"
	"github.com/voxtools/gobark/pkg/synth"
)

// Compile-time interface assertion.
var _ synth.Synthesizer = (*Synthesizer)(nil)

const defaultModel = "gpt-4o-mini-tts"

// voices maps preset names to the API's voice identifiers. The OpenAI API
// has a fixed voice catalogue rather than Bark-style history prompts.
var voices = map[string]openai.AudioSpeechNewParamsVoice{
	"alloy":   openai.AudioSpeechNewParamsVoiceAlloy,
	"ash":     openai.AudioSpeechNewParamsVoiceAsh,
	"ballad":  openai.AudioSpeechNewParamsVoiceBallad,
	"coral":   openai.AudioSpeechNewParamsVoiceCoral,
	"echo":    openai.AudioSpeechNewParamsVoiceEcho,
	"sage":    openai.AudioSpeechNewParamsVoiceSage,
	"shimmer": openai.AudioSpeechNewParamsVoiceShimmer,
	"verse":   openai.AudioSpeechNewParamsVoiceVerse,
}

// presetOrder is the stable listing order for Presets.
var presetOrder = []string{"alloy", "ash", "ballad", "coral", "echo", "sage", "shimmer", "verse"}

// Option is a functional option for configuring a Synthesizer.
type Option func(*Synthesizer)

// WithModel overrides the speech model. Defaults to gpt-4o-mini-tts.
func WithModel(model string) Option {
	return func(s *Synthesizer) {
		s.model = model
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(s *Synthesizer) {
		s.baseURL = url
	}
}

// WithHTTPClient replaces the HTTP client used for all requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Synthesizer) {
		s.httpClient = c
	}
}

// Synthesizer implements synth.Synthesizer via the OpenAI speech endpoint.
// Safe for concurrent use.
type Synthesizer struct {
	model      string
	baseURL    string
	httpClient *http.Client
	speech     openai.AudioSpeechService
}

// New creates a Synthesizer authenticated with apiKey.
func New(apiKey string, opts ...Option) (*Synthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	s := &Synthesizer{model: defaultModel}
	for _, o := range opts {
		o(s)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if s.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(s.baseURL, "/")+"/"))
	}
	if s.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(s.httpClient))
	}
	s.speech = openai.NewAudioSpeechService(reqOpts...)
	return s, nil
}

// Synthesize renders text with the named voice and returns mono PCM at
// [synth.SampleRate]. An empty preset uses the "alloy" voice; a preset not
// in the catalogue returns an error wrapping [synth.ErrInvalidPreset].
func (s *Synthesizer) Synthesize(ctx context.Context, text, preset string) ([]int16, error) {
	if preset == "" {
		preset = "alloy"
	}
	voice, ok := voices[preset]
	if !ok {
		return nil, fmt.Errorf("openai: %w: %q", synth.ErrInvalidPreset, preset)
	}

	result, err := s.speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          s.model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatWAV,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: speech request: %w", err)
	}
	defer result.Body.Close()

	pcm, rate, err := audio.Decode(result.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: decode speech response: %w", err)
	}
	if rate != synth.SampleRate {
		pcm, err = audio.ResamplePCM(pcm, rate, synth.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("openai: resample %d Hz response: %w", rate, err)
		}
	}
	return pcm, nil
}

// Presets returns the fixed voice catalogue of the speech API.
func (s *Synthesizer) Presets(_ context.Context) ([]string, error) {
	out := make([]string, len(presetOrder))
	copy(out, presetOrder)
	return out, nil
}
