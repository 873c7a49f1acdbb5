// Command gobark generates speech with a Bark-compatible backend and
// optionally restyles it with the vocal characteristics of a reference
// recording.
//
// Usage:
//
//	gobark [-config config.yaml] <command> [flags]
//
// Commands:
//
//	say        synthesize a single text to a WAV file
//	long       synthesize a long text in chunks
//	convo      synthesize a multi-speaker conversation
//	clone      extract a voice profile from a reference recording
//	convert    synthesize text restyled with a stored or extracted profile
//	profiles   list or delete stored voice profiles
//	presets    list the backend's voice presets
//	languages  list the languages Bark supports
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxtools/gobark/internal/clone"
	"github.com/voxtools/gobark/internal/config"
	"github.com/voxtools/gobark/internal/observe"
	"github.com/voxtools/gobark/internal/profilestore"
	"github.com/voxtools/gobark/pkg/audio"
	"github.com/voxtools/gobark/pkg/lang"
	"github.com/voxtools/gobark/pkg/synth"
	"github.com/voxtools/gobark/pkg/synth/bark"
	"github.com/voxtools/gobark/pkg/synth/mock"
	synthopenai "github.com/voxtools/gobark/pkg/synth/openai"
	"github.com/voxtools/gobark/pkg/voice"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		return 2
	}
	command := flag.Arg(0)
	args := flag.Args()[1:]

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "gobark: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "gobark: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry. The languages command is static and skips it.
	if command != "languages" {
		shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "gobark"})
		if err != nil {
			slog.Error("failed to initialise telemetry", "err", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("telemetry shutdown error", "err", err)
			}
		}()

		if addr := cfg.Telemetry.MetricsAddr; addr != "" {
			go serveMetrics(addr)
		}
	}

	app := &application{cfg: cfg}

	switch command {
	case "say":
		return app.say(ctx, args)
	case "long":
		return app.long(ctx, args)
	case "convo":
		return app.convo(ctx, args)
	case "clone":
		return app.clone(ctx, args)
	case "convert":
		return app.convert(ctx, args)
	case "profiles":
		return app.profiles(ctx, args)
	case "presets":
		return app.presets(ctx, args)
	case "languages":
		return app.languages()
	default:
		fmt.Fprintf(os.Stderr, "gobark: unknown command %q\n", command)
		usage()
		return 2
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: gobark [-config config.yaml] <command> [flags]

commands:
  say        synthesize a single text to a WAV file
  long       synthesize a long text in chunks
  convo      synthesize a multi-speaker conversation
  clone      extract a voice profile from a reference recording
  convert    synthesize text restyled with a voice profile
  profiles   list or delete stored voice profiles
  presets    list the backend's voice presets
  languages  list the languages Bark supports
`)
}

// application carries the loaded config across subcommand handlers.
type application struct {
	cfg *config.Config
}

// ── Subcommands ──────────────────────────────────────────────────────────────

func (a *application) say(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("say", flag.ExitOnError)
	text := fs.String("text", "", "text to synthesize (required)")
	preset := fs.String("preset", a.cfg.Defaults.Preset, "voice preset")
	out := fs.String("out", "say.wav", "output WAV file")
	fs.Parse(args)

	if *text == "" {
		fmt.Fprintln(os.Stderr, "gobark say: -text is required")
		return 2
	}

	p, cleanup, err := a.newPipeline(ctx)
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		return 1
	}
	defer cleanup()

	pcm, err := p.Generate(ctx, *text, *preset)
	if err != nil {
		slog.Error("synthesis failed", "err", err)
		return 1
	}
	return a.writeWAV(*out, pcm)
}

func (a *application) long(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("long", flag.ExitOnError)
	text := fs.String("text", "", "text to synthesize (required)")
	preset := fs.String("preset", a.cfg.Defaults.Preset, "voice preset")
	out := fs.String("out", "long.wav", "output WAV file")
	chunk := fs.Int("chunk", a.cfg.Defaults.MaxChunkChars, "max characters per chunk")
	pause := fs.Float64("pause", a.cfg.Defaults.PauseSeconds, "pause between chunks in seconds")
	fs.Parse(args)

	if *text == "" {
		fmt.Fprintln(os.Stderr, "gobark long: -text is required")
		return 2
	}

	p, cleanup, err := a.newPipeline(ctx)
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		return 1
	}
	defer cleanup()

	pcm, err := p.GenerateLong(ctx, *text, *preset, *chunk, *pause)
	if err != nil {
		slog.Error("synthesis failed", "err", err)
		return 1
	}
	return a.writeWAV(*out, pcm)
}

func (a *application) convo(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("convo", flag.ExitOnError)
	out := fs.String("out", "convo.wav", "output WAV file")
	pause := fs.Float64("pause", a.cfg.Defaults.SpeakerPauseSeconds, "pause between turns in seconds")
	fs.Parse(args)

	// Remaining arguments are turns as "preset:text".
	turns := make([]clone.Turn, 0, fs.NArg())
	for _, arg := range fs.Args() {
		preset, text, ok := strings.Cut(arg, ":")
		if !ok || text == "" {
			fmt.Fprintf(os.Stderr, "gobark convo: turn %q must be preset:text\n", arg)
			return 2
		}
		turns = append(turns, clone.Turn{Preset: preset, Text: text})
	}
	if len(turns) == 0 {
		fmt.Fprintln(os.Stderr, "gobark convo: at least one preset:text turn is required")
		return 2
	}

	p, cleanup, err := a.newPipeline(ctx)
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		return 1
	}
	defer cleanup()

	pcm, err := p.Conversation(ctx, turns, *pause)
	if err != nil {
		slog.Error("synthesis failed", "err", err)
		return 1
	}
	return a.writeWAV(*out, pcm)
}

func (a *application) clone(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("clone", flag.ExitOnError)
	ref := fs.String("ref", "", "reference WAV recording (required)")
	save := fs.String("save", "", "store the profile under this name")
	fs.Parse(args)

	if *ref == "" {
		fmt.Fprintln(os.Stderr, "gobark clone: -ref is required")
		return 2
	}

	p, cleanup, err := a.newPipeline(ctx)
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		return 1
	}
	defer cleanup()

	profile, err := p.CloneVoice(ctx, *ref)
	if err != nil {
		slog.Error("voice extraction failed", "err", err)
		return 1
	}
	fmt.Printf("profile: %s\n", profile)

	if *save != "" {
		store, closeStore, err := a.newStore(ctx)
		if err != nil {
			slog.Error("failed to open profile store", "err", err)
			return 1
		}
		defer closeStore()

		rec := &profilestore.Record{
			Name:       *save,
			Pitch:      profile.Pitch,
			Tempo:      profile.Tempo,
			SourcePath: *ref,
		}
		if err := store.Save(ctx, rec); err != nil {
			slog.Error("failed to save profile", "err", err)
			return 1
		}
		slog.Info("profile saved", "name", *save, "id", rec.ID)
	}
	return 0
}

func (a *application) convert(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	text := fs.String("text", "", "text to synthesize (required)")
	preset := fs.String("preset", a.cfg.Defaults.Preset, "voice preset")
	ref := fs.String("ref", "", "reference WAV recording to extract the profile from")
	name := fs.String("profile", "", "name of a stored profile to apply")
	out := fs.String("out", "convert.wav", "output WAV file")
	fs.Parse(args)

	if *text == "" {
		fmt.Fprintln(os.Stderr, "gobark convert: -text is required")
		return 2
	}
	if (*ref == "") == (*name == "") {
		fmt.Fprintln(os.Stderr, "gobark convert: exactly one of -ref or -profile is required")
		return 2
	}

	p, cleanup, err := a.newPipeline(ctx)
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		return 1
	}
	defer cleanup()

	var profile voice.Profile
	if *ref != "" {
		profile, err = p.CloneVoice(ctx, *ref)
		if err != nil {
			slog.Error("voice extraction failed", "err", err)
			return 1
		}
	} else {
		store, closeStore, err := a.newStore(ctx)
		if err != nil {
			slog.Error("failed to open profile store", "err", err)
			return 1
		}
		defer closeStore()

		rec, err := store.Get(ctx, *name)
		if err != nil {
			slog.Error("failed to load profile", "name", *name, "err", err)
			return 1
		}
		profile = voice.Profile{Pitch: rec.Pitch, Tempo: rec.Tempo}
	}

	pcm, err := p.GenerateWithVoice(ctx, *text, *preset, profile)
	if err != nil {
		slog.Error("synthesis failed", "err", err)
		return 1
	}
	return a.writeWAV(*out, pcm)
}

func (a *application) profiles(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("profiles", flag.ExitOnError)
	del := fs.String("delete", "", "delete the profile with this name instead of listing")
	fs.Parse(args)

	store, closeStore, err := a.newStore(ctx)
	if err != nil {
		slog.Error("failed to open profile store", "err", err)
		return 1
	}
	defer closeStore()

	if *del != "" {
		if err := store.Delete(ctx, *del); err != nil {
			slog.Error("failed to delete profile", "name", *del, "err", err)
			return 1
		}
		slog.Info("profile deleted", "name", *del)
		return 0
	}

	recs, err := store.List(ctx)
	if err != nil {
		slog.Error("failed to list profiles", "err", err)
		return 1
	}
	for _, rec := range recs {
		fmt.Printf("%s\tpitch=%+.3f\ttempo=%.1f\t%s\n", rec.Name, rec.Pitch, rec.Tempo, rec.CreatedAt.Format(time.RFC3339))
	}
	return 0
}

func (a *application) presets(ctx context.Context, args []string) int {
	s, err := a.newSynth(ctx)
	if err != nil {
		slog.Error("failed to build synthesizer", "err", err)
		return 1
	}
	names, err := s.Presets(ctx)
	if err != nil {
		slog.Error("failed to list presets", "err", err)
		return 1
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return 0
}

func (a *application) languages() int {
	for _, code := range lang.Codes() {
		name, _ := lang.Name(code)
		fmt.Printf("%s\t%s\n", code, name)
	}
	return 0
}

// ── Wiring ───────────────────────────────────────────────────────────────────

// registerBuiltinSynths wires the backend factories that ship with gobark.
func registerBuiltinSynths(reg *config.Registry) {
	reg.RegisterSynth("bark", func(entry config.ProviderEntry) (synth.Synthesizer, error) {
		var opts []bark.Option
		if d := optDuration(entry.Options, "timeout"); d > 0 {
			opts = append(opts, bark.WithTimeout(d))
		}
		return bark.New(entry.BaseURL, opts...)
	})

	reg.RegisterSynth("openai", func(entry config.ProviderEntry) (synth.Synthesizer, error) {
		var opts []synthopenai.Option
		if entry.Model != "" {
			opts = append(opts, synthopenai.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, synthopenai.WithBaseURL(entry.BaseURL))
		}
		return synthopenai.New(entry.APIKey, opts...)
	})

	reg.RegisterSynth("mock", func(config.ProviderEntry) (synth.Synthesizer, error) {
		return &mock.Synthesizer{SynthesizeResult: make([]int16, synth.SampleRate)}, nil
	})
}

// newSynth builds the configured synthesis backend. A bark backend is warmed
// up so the first generation does not pay the model load time.
func (a *application) newSynth(ctx context.Context) (synth.Synthesizer, error) {
	reg := config.NewRegistry()
	registerBuiltinSynths(reg)

	s, err := reg.CreateSynth(a.cfg.Synth)
	if err != nil {
		return nil, fmt.Errorf("create synth backend %q: %w", a.cfg.Synth.Name, err)
	}
	slog.Info("synth backend ready", "name", a.cfg.Synth.Name)

	if b, ok := s.(*bark.Synthesizer); ok {
		if err := b.Warmup(ctx); err != nil {
			slog.Warn("bark warmup failed — first synthesis will be slow", "err", err)
		}
	}
	return s, nil
}

// newPipeline builds the generation pipeline around the configured backend.
func (a *application) newPipeline(ctx context.Context) (*clone.Pipeline, func(), error) {
	s, err := a.newSynth(ctx)
	if err != nil {
		return nil, nil, err
	}
	p, err := clone.New(s)
	if err != nil {
		return nil, nil, err
	}
	return p, func() {}, nil
}

// newStore opens the configured profile store: PostgreSQL when a DSN is set,
// otherwise in-memory (profiles then last only for this invocation).
func (a *application) newStore(ctx context.Context) (profilestore.Store, func(), error) {
	dsn := a.cfg.Profiles.PostgresDSN
	if dsn == "" {
		slog.Warn("profiles.postgres_dsn is empty; profiles will not survive this invocation")
		return profilestore.NewMemStore(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect profile store: %w", err)
	}
	store := profilestore.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}

// writeWAV persists pcm to path inside the configured output directory.
func (a *application) writeWAV(path string, pcm []int16) int {
	if a.cfg.Output.Dir != "" && !filepath.IsAbs(path) {
		if err := os.MkdirAll(a.cfg.Output.Dir, 0o755); err != nil {
			slog.Error("failed to create output dir", "dir", a.cfg.Output.Dir, "err", err)
			return 1
		}
		path = filepath.Join(a.cfg.Output.Dir, path)
	}
	if err := audio.EncodeFile(path, pcm, synth.SampleRate); err != nil {
		slog.Error("failed to write output", "path", path, "err", err)
		return 1
	}
	seconds := float64(len(pcm)) / synth.SampleRate
	slog.Info("audio written", "path", path, "samples", len(pcm), "seconds", fmt.Sprintf("%.2f", seconds))
	return 0
}

// serveMetrics exposes the Prometheus /metrics endpoint.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("metrics endpoint error", "err", err)
	}
}

// ── Logger ───────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// optDuration extracts a duration value (Go duration string) from an Options
// map. Returns 0 if absent or unparsable.
func optDuration(opts map[string]any, key string) time.Duration {
	if opts == nil {
		return 0
	}
	v, ok := opts[key]
	if !ok {
		return 0
	}
	s, ok := v.(string)
	if !ok {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
