// Package bark provides a synth.Synthesizer backed by a locally-running Bark
// inference server via its REST API.
//
// Synthesis is performed via POST /api/generate with a JSON body; the server
// responds with a WAV file which is decoded to PCM. The preset catalogue is
// retrieved from GET /api/presets. The server keeps the model loaded between
// requests; POST /api/warmup forces the model to load ahead of the first
// synthesis call.
//
// Typical usage:
//
//	s, err := bark.New("http://localhost:5001",
//	    bark.WithTimeout(2*time.Minute),
//	)
//	pcm, err := s.Synthesize(ctx, "Hello there.", "v2/en_speaker_6")
package bark

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voxtools/gobark/pkg/audio"
	"github.com/voxtools/gobark/pkg/synth"
)

// Compile-time interface assertion.
var _ synth.Synthesizer = (*Synthesizer)(nil)

const (
	generateEndpoint = "/api/generate"
	presetsEndpoint  = "/api/presets"
	warmupEndpoint   = "/api/warmup"

	// defaultTimeout is generous because Bark inference on CPU can take
	// tens of seconds per sentence.
	defaultTimeout = 2 * time.Minute
)

// Option is a functional option for configuring a Bark Synthesizer.
type Option func(*Synthesizer)

// WithTimeout sets the per-request HTTP timeout for calls to the Bark server.
// Defaults to 2 min if not set.
func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		s.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the HTTP client used for all requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Synthesizer) {
		s.httpClient = c
	}
}

// Synthesizer implements synth.Synthesizer backed by a Bark inference server.
// It is safe for concurrent use; multiple Synthesize calls may run in
// parallel.
type Synthesizer struct {
	serverURL  string
	httpClient *http.Client
}

// New creates a Synthesizer that targets the Bark server at serverURL
// (e.g., "http://localhost:5001"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Synthesizer, error) {
	if serverURL == "" {
		return nil, errors.New("bark: serverURL must not be empty")
	}
	s := &Synthesizer{
		serverURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// generateRequest is the JSON body sent to POST /api/generate.
type generateRequest struct {
	Text          string `json:"text"`
	HistoryPrompt string `json:"history_prompt,omitempty"`
}

// presetsResponse is the JSON body returned by GET /api/presets.
type presetsResponse struct {
	Presets []string `json:"presets"`
}

// Synthesize performs a single POST /api/generate call and returns the
// decoded PCM at [synth.SampleRate]. Audio the server delivers at a
// different rate is resampled.
//
// A client-error status (400 or 422) is reported as an error wrapping
// [synth.ErrInvalidPreset] when a preset was supplied, since an unknown
// history prompt is the only client input the server validates.
func (s *Synthesizer) Synthesize(ctx context.Context, text, preset string) ([]int16, error) {
	body := generateRequest{
		Text:          text,
		HistoryPrompt: preset,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("bark: marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+generateEndpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("bark: create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bark: POST %s: %w", generateEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if preset != "" && (resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity) {
			return nil, fmt.Errorf("bark: %w: %q (server status %d)", synth.ErrInvalidPreset, preset, resp.StatusCode)
		}
		return nil, fmt.Errorf("bark: POST %s returned status %d", generateEndpoint, resp.StatusCode)
	}

	pcm, rate, err := audio.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bark: decode WAV response: %w", err)
	}
	if rate != synth.SampleRate {
		pcm, err = audio.ResamplePCM(pcm, rate, synth.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("bark: resample %d Hz response: %w", rate, err)
		}
	}
	return pcm, nil
}

// Presets retrieves the history-prompt catalogue from the Bark server via
// GET /api/presets. The server returns presets in a stable order.
func (s *Synthesizer) Presets(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.serverURL+presetsEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("bark: create presets request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bark: GET %s: %w", presetsEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bark: GET %s returned status %d", presetsEndpoint, resp.StatusCode)
	}

	var pr presetsResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("bark: decode presets response: %w", err)
	}
	return pr.Presets, nil
}

// Warmup asks the server to load the Bark model via POST /api/warmup so the
// first Synthesize call does not pay the model load time. Safe to call more
// than once.
func (s *Synthesizer) Warmup(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+warmupEndpoint, nil)
	if err != nil {
		return fmt.Errorf("bark: create warmup request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bark: POST %s: %w", warmupEndpoint, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bark: POST %s returned status %d", warmupEndpoint, resp.StatusCode)
	}
	return nil
}
