package config

import (
	"strings"
	"testing"
	"time"
)

const fullConfig = `
server:
  listen_addr: ":9090"
  log_level: debug
providers:
  geo:
    name: overpass
    timeout: 10s
  summarizer:
    name: openai
    api_key: sk-test
    model: gpt-4o-mini
discovery:
  base_radius_m: 1200
  min_radius_m: 250
  max_radius_m: 5000
  speed_reference_kmh: 60
  radius_retries: 4
  radius_retry_delay: 1s
  transport_retries: 2
  transport_backoff: 250ms
ranking:
  importance_threshold: 0.3
  max_results: 5
  exclude_tags: [["highway:"], ["amenity:parking"]]
history:
  ttl: 2h
trigger:
  base_threshold_m: 400
  lookahead_seconds: 20
narration:
  default_max_sentences: 6
  min_sentences: 4
  significance_threshold: 0.4
`

func TestLoadFromReader_FullConfig(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(fullConfig))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want :9090", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != LogDebug {
		t.Errorf("LogLevel = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Providers.Geo.Name != "overpass" {
		t.Errorf("geo provider = %q, want overpass", cfg.Providers.Geo.Name)
	}
	if cfg.Providers.Geo.Timeout.Std() != 10*time.Second {
		t.Errorf("geo timeout = %v, want 10s", cfg.Providers.Geo.Timeout.Std())
	}
	if cfg.Discovery.BaseRadiusMeters != 1200 {
		t.Errorf("base_radius_m = %v, want 1200", cfg.Discovery.BaseRadiusMeters)
	}
	if cfg.Discovery.TransportBackoff.Std() != 250*time.Millisecond {
		t.Errorf("transport_backoff = %v, want 250ms", cfg.Discovery.TransportBackoff.Std())
	}
	if len(cfg.Ranking.ExcludeTags) != 2 || cfg.Ranking.ExcludeTags[0][0] != "highway:" {
		t.Errorf("exclude_tags = %v, want two rules", cfg.Ranking.ExcludeTags)
	}
	if cfg.History.TTL.Std() != 2*time.Hour {
		t.Errorf("ttl = %v, want 2h", cfg.History.TTL.Std())
	}
	if cfg.Narration.DefaultMaxSentences != 6 {
		t.Errorf("default_max_sentences = %d, want 6", cfg.Narration.DefaultMaxSentences)
	}
}

func TestLoadFromReader_DefaultsApplied(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(`
providers:
  geo: {name: overpass}
  summarizer: {name: openai, api_key: sk-test}
`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %q, want default %q", cfg.Server.ListenAddr, DefaultListenAddr)
	}
	if cfg.Server.LogLevel != LogInfo {
		t.Errorf("LogLevel = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Discovery.BaseRadiusMeters != DefaultBaseRadiusMeters {
		t.Errorf("base_radius_m = %v, want default %v", cfg.Discovery.BaseRadiusMeters, float64(DefaultBaseRadiusMeters))
	}
	if cfg.Discovery.RadiusRetries != DefaultRadiusRetries {
		t.Errorf("radius_retries = %d, want default %d", cfg.Discovery.RadiusRetries, DefaultRadiusRetries)
	}
	if cfg.History.TTL.Std() != DefaultHistoryTTL {
		t.Errorf("ttl = %v, want default %v", cfg.History.TTL.Std(), DefaultHistoryTTL)
	}
	if cfg.Trigger.BaseThresholdMeters != DefaultBaseThresholdMeters {
		t.Errorf("base_threshold_m = %v, want default %v", cfg.Trigger.BaseThresholdMeters, float64(DefaultBaseThresholdMeters))
	}
	if cfg.Narration.DefaultMaxSentences != DefaultMaxSentences {
		t.Errorf("default_max_sentences = %d, want default %d", cfg.Narration.DefaultMaxSentences, DefaultMaxSentences)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(`
server:
  listen_addr: ":8080"
  listne_addr_typo: ":8081"
`))
	if err == nil {
		t.Fatal("unknown field accepted, want decode error")
	}
}

func TestLoadFromReader_InvalidDuration(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(`
history:
  ttl: "one hour"
`))
	if err == nil || !strings.Contains(err.Error(), "invalid duration") {
		t.Fatalf("err = %v, want invalid duration", err)
	}
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Server.LogLevel = "verbose"
	cfg.Discovery.MinRadiusMeters = 9000
	cfg.Discovery.MaxRadiusMeters = 3000
	cfg.Trigger.BaseThresholdMeters = -1
	cfg.Narration.MinSentences = 20

	err := Validate(cfg)
	if err == nil {
		t.Fatal("invalid config accepted")
	}
	msg := err.Error()
	for _, want := range []string{
		"server.log_level",
		"discovery.min_radius_m",
		"trigger.base_threshold_m",
		"narration.min_sentences",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %s", msg, want)
		}
	}
}

func TestValidate_TLSRequiresBothFiles(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Server.TLS = &TLSConfig{CertFile: "cert.pem"}

	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "server.tls") {
		t.Errorf("err = %v, want server.tls error", err)
	}
}

func TestValidate_EmptyExcludeRule(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Ranking.ExcludeTags = [][]string{{}}

	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "exclude_tags") {
		t.Errorf("err = %v, want exclude_tags error", err)
	}
}
