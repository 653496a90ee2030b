package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"geo":        {"overpass", "photon"},
	"summarizer": {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq"},
}

// Defaults applied by [LoadFromReader] before validation.
const (
	DefaultListenAddr          = ":8080"
	DefaultBaseRadiusMeters    = 1000
	DefaultMinRadiusMeters     = 200
	DefaultMaxRadiusMeters     = 3000
	DefaultSpeedReferenceKmh   = 50
	DefaultRadiusRetries       = 3
	DefaultRadiusRetryDelay    = 2 * time.Second
	DefaultTransportRetries    = 3
	DefaultTransportBackoff    = 500 * time.Millisecond
	DefaultHistoryTTL          = time.Hour
	DefaultBaseThresholdMeters = 500
	DefaultLookaheadSeconds    = 30
	DefaultMaxSentences        = 8
	DefaultMinSentences        = 4
	DefaultSignificance        = 0.5
)

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
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills zero-valued fields so a minimal config file works out
// of the box. Explicit values are never overwritten.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}

	d := &cfg.Discovery
	if d.BaseRadiusMeters == 0 {
		d.BaseRadiusMeters = DefaultBaseRadiusMeters
	}
	if d.MinRadiusMeters == 0 {
		d.MinRadiusMeters = DefaultMinRadiusMeters
	}
	if d.MaxRadiusMeters == 0 {
		d.MaxRadiusMeters = DefaultMaxRadiusMeters
	}
	if d.SpeedReferenceKmh == 0 {
		d.SpeedReferenceKmh = DefaultSpeedReferenceKmh
	}
	if d.RadiusRetries == 0 {
		d.RadiusRetries = DefaultRadiusRetries
	}
	if d.RadiusRetryDelay == 0 {
		d.RadiusRetryDelay = Duration(DefaultRadiusRetryDelay)
	}
	if d.TransportRetries == 0 {
		d.TransportRetries = DefaultTransportRetries
	}
	if d.TransportBackoff == 0 {
		d.TransportBackoff = Duration(DefaultTransportBackoff)
	}

	if cfg.History.TTL == 0 {
		cfg.History.TTL = Duration(DefaultHistoryTTL)
	}

	if cfg.Trigger.BaseThresholdMeters == 0 {
		cfg.Trigger.BaseThresholdMeters = DefaultBaseThresholdMeters
	}
	if cfg.Trigger.LookaheadSeconds == 0 {
		cfg.Trigger.LookaheadSeconds = DefaultLookaheadSeconds
	}

	n := &cfg.Narration
	if n.DefaultMaxSentences == 0 {
		n.DefaultMaxSentences = DefaultMaxSentences
	}
	if n.MinSentences == 0 {
		n.MinSentences = DefaultMinSentences
	}
	if n.SignificanceThreshold == 0 {
		n.SignificanceThreshold = DefaultSignificance
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("geo", cfg.Providers.Geo.Name)
	validateProviderName("summarizer", cfg.Providers.Summarizer.Name)
	if cfg.Providers.Summarizer.Name == "" {
		slog.Warn("no summarizer provider configured; no narration will be generated")
	}

	// Discovery
	d := cfg.Discovery
	if d.BaseRadiusMeters <= 0 {
		errs = append(errs, fmt.Errorf("discovery.base_radius_m must be positive, got %v", d.BaseRadiusMeters))
	}
	if d.MinRadiusMeters <= 0 {
		errs = append(errs, fmt.Errorf("discovery.min_radius_m must be positive, got %v", d.MinRadiusMeters))
	}
	if d.MinRadiusMeters > d.MaxRadiusMeters {
		errs = append(errs, fmt.Errorf("discovery.min_radius_m %v exceeds max_radius_m %v", d.MinRadiusMeters, d.MaxRadiusMeters))
	}
	if d.SpeedReferenceKmh <= 0 {
		errs = append(errs, fmt.Errorf("discovery.speed_reference_kmh must be positive, got %v", d.SpeedReferenceKmh))
	}
	if d.RadiusRetries <= 0 {
		errs = append(errs, fmt.Errorf("discovery.radius_retries must be positive, got %d", d.RadiusRetries))
	}
	if d.TransportRetries < 0 {
		errs = append(errs, fmt.Errorf("discovery.transport_retries must be non-negative, got %d", d.TransportRetries))
	}

	// Ranking
	if t := cfg.Ranking.ImportanceThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("ranking.importance_threshold must be in [0, 1], got %v", t))
	}
	if cfg.Ranking.MaxResults < 0 {
		errs = append(errs, fmt.Errorf("ranking.max_results must be non-negative, got %d", cfg.Ranking.MaxResults))
	}
	for i, rule := range cfg.Ranking.ExcludeTags {
		if len(rule) == 0 {
			errs = append(errs, fmt.Errorf("ranking.exclude_tags[%d] is empty", i))
		}
	}

	// History
	if cfg.History.TTL <= 0 {
		errs = append(errs, fmt.Errorf("history.ttl must be positive, got %v", cfg.History.TTL.Std()))
	}

	// Trigger
	if cfg.Trigger.BaseThresholdMeters <= 0 {
		errs = append(errs, fmt.Errorf("trigger.base_threshold_m must be positive, got %v", cfg.Trigger.BaseThresholdMeters))
	}
	if cfg.Trigger.LookaheadSeconds < 0 {
		errs = append(errs, fmt.Errorf("trigger.lookahead_seconds must be non-negative, got %v", cfg.Trigger.LookaheadSeconds))
	}

	// Narration
	n := cfg.Narration
	if n.DefaultMaxSentences <= 0 {
		errs = append(errs, fmt.Errorf("narration.default_max_sentences must be positive, got %d", n.DefaultMaxSentences))
	}
	if n.MinSentences <= 0 || n.MinSentences > n.DefaultMaxSentences {
		errs = append(errs, fmt.Errorf("narration.min_sentences must be in [1, %d], got %d", n.DefaultMaxSentences, n.MinSentences))
	}
	if n.SignificanceThreshold < 0 || n.SignificanceThreshold > 1 {
		errs = append(errs, fmt.Errorf("narration.significance_threshold must be in [0, 1], got %v", n.SignificanceThreshold))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
