package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidSynthNames lists the backend names shipped with gobark. Used by
// [Validate] to warn about unrecognised names.
var ValidSynthNames = []string{"bark", "openai", "mock"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	if cfg.Synth.Name == "" {
		errs = append(errs, errors.New("synth.name is required"))
	} else if !slices.Contains(ValidSynthNames, cfg.Synth.Name) {
		slog.Warn("unknown synth backend name — may be a typo or third-party backend",
			"name", cfg.Synth.Name,
			"known", ValidSynthNames,
		)
	}

	switch cfg.Synth.Name {
	case "bark":
		if cfg.Synth.BaseURL == "" {
			errs = append(errs, errors.New("synth.base_url is required for the bark backend"))
		}
	case "openai":
		if cfg.Synth.APIKey == "" {
			errs = append(errs, errors.New("synth.api_key is required for the openai backend"))
		}
	}

	if cfg.Defaults.PauseSeconds < 0 {
		errs = append(errs, fmt.Errorf("defaults.pause_seconds %.2f must not be negative", cfg.Defaults.PauseSeconds))
	}
	if cfg.Defaults.SpeakerPauseSeconds < 0 {
		errs = append(errs, fmt.Errorf("defaults.speaker_pause_seconds %.2f must not be negative", cfg.Defaults.SpeakerPauseSeconds))
	}
	if cfg.Defaults.MaxChunkChars < 0 {
		errs = append(errs, fmt.Errorf("defaults.max_chunk_chars %d must not be negative", cfg.Defaults.MaxChunkChars))
	}

	return errors.Join(errs...)
}
