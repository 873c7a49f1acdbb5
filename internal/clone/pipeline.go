// Package clone orchestrates the end-to-end generation flows: plain
// synthesis, voice cloning, restyled generation, long-form texts, and
// multi-speaker conversations. It sequences pkg/synth, pkg/voice, and
// pkg/audio; the pieces themselves stay independently usable.
package clone

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voxtools/gobark/internal/observe"
	"github.com/voxtools/gobark/pkg/audio"
	"github.com/voxtools/gobark/pkg/synth"
	"github.com/voxtools/gobark/pkg/voice"
)

// defaultChunkConcurrency bounds how many chunks of a long text are
// synthesized in parallel. Bark servers queue requests anyway; a small
// lookahead hides round-trip latency without overloading the server.
const defaultChunkConcurrency = 4

// Turn is one utterance of a conversation.
type Turn struct {
	// Preset is the speaker's voice preset.
	Preset string
	// Text is what the speaker says.
	Text string
}

// Option is a functional option for configuring a Pipeline.
type Option func(*Pipeline)

// WithMetrics sets the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithChunkConcurrency bounds parallel chunk synthesis in
// [Pipeline.GenerateLong]. Values below 1 fall back to the default.
func WithChunkConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n >= 1 {
			p.chunkConcurrency = n
		}
	}
}

// Pipeline wires a synthesis backend to the voice extraction and restyling
// stages. Safe for concurrent use.
type Pipeline struct {
	synth            synth.Synthesizer
	extractor        *voice.Extractor
	restyler         *voice.Restyler
	metrics          *observe.Metrics
	chunkConcurrency int
}

// New creates a Pipeline around the given backend. The extractor and
// restyler operate at [synth.SampleRate].
func New(s synth.Synthesizer, opts ...Option) (*Pipeline, error) {
	restyler, err := voice.NewRestyler(synth.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("clone: create restyler: %w", err)
	}
	p := &Pipeline{
		synth:            s,
		extractor:        voice.NewExtractor(slog.Default()),
		restyler:         restyler,
		chunkConcurrency: defaultChunkConcurrency,
	}
	for _, o := range opts {
		o(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p, nil
}

// Generate synthesizes text with the given preset and returns mono PCM at
// [synth.SampleRate].
func (p *Pipeline) Generate(ctx context.Context, text, preset string) ([]int16, error) {
	ctx, span := observe.StartSpan(ctx, "clone.Generate")
	defer span.End()

	pcm, err := p.synthesize(ctx, text, preset)
	if err != nil {
		return nil, err
	}
	p.metrics.RecordSegments(ctx, "say", 1)
	return pcm, nil
}

// CloneVoice decodes the reference recording at refPath and extracts its
// voice profile. A missing or undecodable file surfaces [audio.ErrDecode].
func (p *Pipeline) CloneVoice(ctx context.Context, refPath string) (voice.Profile, error) {
	ctx, span := observe.StartSpan(ctx, "clone.CloneVoice")
	defer span.End()

	pcm, rate, err := audio.DecodeFile(refPath)
	if err != nil {
		return voice.Profile{}, fmt.Errorf("clone: read reference %q: %w", refPath, err)
	}
	return p.extract(ctx, pcm, rate)
}

// ExtractFile is an alias flow for CloneVoice without the pipeline's
// synthesis stages attached: decode a file and extract its profile.
func (p *Pipeline) ExtractFile(ctx context.Context, path string) (voice.Profile, error) {
	return p.CloneVoice(ctx, path)
}

// GenerateWithVoice synthesizes text and restyles the result with profile.
// The output has exactly as many samples as the raw synthesis.
func (p *Pipeline) GenerateWithVoice(ctx context.Context, text, preset string, profile voice.Profile) ([]int16, error) {
	ctx, span := observe.StartSpan(ctx, "clone.GenerateWithVoice")
	defer span.End()

	pcm, err := p.synthesize(ctx, text, preset)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	restyled, err := p.restyler.Convert(pcm, profile)
	p.metrics.RestyleDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("clone: restyle: %w", err)
	}
	p.metrics.RecordSegments(ctx, "clone", 1)
	return restyled, nil
}

// GenerateLong splits text into chunks of at most maxChunkChars characters,
// synthesizes them with bounded concurrency, and joins the results with
// pause seconds of silence between chunks. Chunk order is preserved.
func (p *Pipeline) GenerateLong(ctx context.Context, text, preset string, maxChunkChars int, pause float64) ([]int16, error) {
	ctx, span := observe.StartSpan(ctx, "clone.GenerateLong")
	defer span.End()

	chunks := splitText(text, maxChunkChars)
	if len(chunks) == 0 {
		return nil, nil
	}

	segments := make([][]int16, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.chunkConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			pcm, err := p.synthesize(gctx, chunk, preset)
			if err != nil {
				return fmt.Errorf("clone: chunk %d: %w", i, err)
			}
			segments[i] = pcm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.metrics.RecordSegments(ctx, "long", int64(len(segments)))
	return audio.ConcatSegments(segments, pauseSamples(pause)), nil
}

// Conversation synthesizes each turn with its speaker's preset and joins
// the turns with speakerPause seconds of silence between them.
func (p *Pipeline) Conversation(ctx context.Context, turns []Turn, speakerPause float64) ([]int16, error) {
	ctx, span := observe.StartSpan(ctx, "clone.Conversation")
	defer span.End()

	if len(turns) == 0 {
		return nil, nil
	}

	segments := make([][]int16, 0, len(turns))
	for i, turn := range turns {
		pcm, err := p.synthesize(ctx, turn.Text, turn.Preset)
		if err != nil {
			return nil, fmt.Errorf("clone: turn %d (%s): %w", i, turn.Preset, err)
		}
		segments = append(segments, pcm)
	}

	p.metrics.RecordSegments(ctx, "conversation", int64(len(segments)))
	return audio.ConcatSegments(segments, pauseSamples(speakerPause)), nil
}

// synthesize calls the backend with timing and request/error accounting.
func (p *Pipeline) synthesize(ctx context.Context, text, preset string) ([]int16, error) {
	start := time.Now()
	pcm, err := p.synth.Synthesize(ctx, text, preset)
	p.metrics.SynthesisDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordProviderRequest(ctx, "synth", "error")
		p.metrics.RecordProviderError(ctx, "synth")
		return nil, fmt.Errorf("clone: synthesize: %w", err)
	}
	p.metrics.RecordProviderRequest(ctx, "synth", "ok")
	return pcm, nil
}

// extract runs profile extraction with timing.
func (p *Pipeline) extract(ctx context.Context, pcm []int16, rate int) (voice.Profile, error) {
	start := time.Now()
	profile, err := p.extractor.Extract(pcm, rate)
	p.metrics.ExtractionDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return voice.Profile{}, fmt.Errorf("clone: extract profile: %w", err)
	}
	observe.Logger(ctx).Debug("cloned voice profile",
		slog.Float64("pitch", profile.Pitch),
		slog.Float64("tempo", profile.Tempo))
	return profile, nil
}

// pauseSamples converts a pause in seconds to samples at the synthesis
// rate. Negative pauses clamp to zero.
func pauseSamples(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(seconds * synth.SampleRate))
}
