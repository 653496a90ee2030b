// Command tourguided is the headless tour-guide discovery and narration
// daemon. A GPS-equipped client streams location fixes to it and polls for
// freshly narrated nearby-place summaries.
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
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/danif1973/tour-guide-mobile/internal/config"
	"github.com/danif1973/tour-guide-mobile/internal/discover"
	"github.com/danif1973/tour-guide-mobile/internal/health"
	"github.com/danif1973/tour-guide-mobile/internal/history"
	"github.com/danif1973/tour-guide-mobile/internal/narrate"
	"github.com/danif1973/tour-guide-mobile/internal/observe"
	"github.com/danif1973/tour-guide-mobile/internal/rank"
	"github.com/danif1973/tour-guide-mobile/internal/server"
	"github.com/danif1973/tour-guide-mobile/internal/trigger"
	"github.com/danif1973/tour-guide-mobile/pkg/provider/geosource"
	"github.com/danif1973/tour-guide-mobile/pkg/provider/geosource/overpass"
	"github.com/danif1973/tour-guide-mobile/pkg/provider/geosource/photon"
	"github.com/danif1973/tour-guide-mobile/pkg/provider/summarizer"
	"github.com/danif1973/tour-guide-mobile/pkg/provider/summarizer/anyllm"
	oasum "github.com/danif1973/tour-guide-mobile/pkg/provider/summarizer/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "tourguided: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "tourguided: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("tourguided starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "tourguided"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	geoProv, err := reg.CreateGeo(cfg.Providers.Geo)
	if err != nil {
		slog.Error("failed to create geodata provider", "name", cfg.Providers.Geo.Name, "err", err)
		return 1
	}
	sumProv, err := reg.CreateSummarizer(cfg.Providers.Summarizer)
	if err != nil {
		slog.Error("failed to create summarizer provider", "name", cfg.Providers.Summarizer.Name, "err", err)
		return 1
	}
	slog.Info("providers created",
		"geo", cfg.Providers.Geo.Name,
		"summarizer", cfg.Providers.Summarizer.Name,
	)

	// ── History store ─────────────────────────────────────────────────────────
	var (
		hist    history.Store
		checks  []health.Checker
		histTTL = cfg.History.TTL.Std()
	)
	if dsn := cfg.History.PostgresDSN; dsn != "" {
		store, pool, err := history.Connect(ctx, dsn, histTTL)
		if err != nil {
			slog.Error("failed to connect to postgres history store", "err", err)
			return 1
		}
		defer pool.Close()
		hist = store
		checks = append(checks, health.PingChecker("history", pool))
		slog.Info("history store ready", "backend", "postgres", "ttl", histTTL)
	} else {
		hist = history.NewMemStore(histTTL)
		slog.Info("history store ready", "backend", "memory", "ttl", histTTL)
	}

	// ── Pipeline wiring ───────────────────────────────────────────────────────
	rules, err := rank.ParseRules(cfg.Ranking.ExcludeTags)
	if err != nil {
		slog.Error("invalid exclusion rules", "err", err)
		return 1
	}
	ranker := rank.New(rank.Config{
		ImportanceThreshold: cfg.Ranking.ImportanceThreshold,
		MaxResults:          cfg.Ranking.MaxResults,
		ExcludeRules:        rules,
	}, hist)

	discCfg := discover.Config{
		BaseRadiusMeters:  cfg.Discovery.BaseRadiusMeters,
		MinRadiusMeters:   cfg.Discovery.MinRadiusMeters,
		MaxRadiusMeters:   cfg.Discovery.MaxRadiusMeters,
		SpeedReferenceKmh: cfg.Discovery.SpeedReferenceKmh,
		RadiusRetries:     cfg.Discovery.RadiusRetries,
		RadiusRetryDelay:  cfg.Discovery.RadiusRetryDelay.Std(),
		TransportRetries:  cfg.Discovery.TransportRetries,
		TransportBackoff:  cfg.Discovery.TransportBackoff.Std(),
	}
	if err := discCfg.Validate(); err != nil {
		slog.Error("invalid discovery configuration", "err", err)
		return 1
	}
	disc := discover.New(discCfg, geoProv, ranker, metrics)

	narrCfg := narrate.Config{
		DefaultMaxSentences:   cfg.Narration.DefaultMaxSentences,
		MinSentences:          cfg.Narration.MinSentences,
		SignificanceThreshold: cfg.Narration.SignificanceThreshold,
	}
	if err := narrCfg.Validate(); err != nil {
		slog.Error("invalid narration configuration", "err", err)
		return 1
	}
	narrator := narrate.New(narrCfg, sumProv, metrics)

	trigCfg := trigger.Config{
		BaseThresholdMeters: cfg.Trigger.BaseThresholdMeters,
		SpeedReferenceKmh:   cfg.Discovery.SpeedReferenceKmh,
		LookaheadSeconds:    cfg.Trigger.LookaheadSeconds,
	}
	if err := trigCfg.Validate(); err != nil {
		slog.Error("invalid trigger configuration", "err", err)
		return 1
	}
	engine := trigger.NewEngine(trigCfg, disc, narrator, metrics)
	defer engine.Close()

	// ── HTTP routes ───────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	server.New(engine).Register(mux)
	health.New(checks...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server ready — press Ctrl+C to shut down", "addr", cfg.Server.ListenAddr)
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			err = httpServer.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping…")
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the
// appropriate provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── Geodata ───────────────────────────────────────────────────────────────

	reg.RegisterGeo("overpass", func(entry config.ProviderEntry) (geosource.Provider, error) {
		var opts []overpass.Option
		if entry.BaseURL != "" {
			opts = append(opts, overpass.WithBaseURL(entry.BaseURL))
		}
		if entry.Timeout > 0 {
			opts = append(opts, overpass.WithTimeout(entry.Timeout.Std()))
		}
		return overpass.New(opts...), nil
	})

	reg.RegisterGeo("photon", func(entry config.ProviderEntry) (geosource.Provider, error) {
		var opts []photon.Option
		if entry.BaseURL != "" {
			opts = append(opts, photon.WithBaseURL(entry.BaseURL))
		}
		if entry.Timeout > 0 {
			opts = append(opts, photon.WithTimeout(entry.Timeout.Std()))
		}
		return photon.New(opts...), nil
	})

	// ── Summarizer ────────────────────────────────────────────────────────────
	// openai goes through the official SDK; the rest share the any-llm
	// pattern of optional APIKey + optional BaseURL.

	reg.RegisterSummarizer("openai", func(entry config.ProviderEntry) (summarizer.Provider, error) {
		var opts []oasum.Option
		if entry.BaseURL != "" {
			opts = append(opts, oasum.WithBaseURL(entry.BaseURL))
		}
		if entry.Timeout > 0 {
			opts = append(opts, oasum.WithTimeout(entry.Timeout.Std()))
		}
		return oasum.New(entry.APIKey, entry.Model, opts...)
	})

	for _, providerName := range []string{"anthropic", "gemini", "deepseek", "mistral", "groq"} {
		reg.RegisterSummarizer(providerName, func(entry config.ProviderEntry) (summarizer.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterSummarizer("ollama", func(entry config.ProviderEntry) (summarizer.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})
}

// ── Logger ─────────────────────────────────────────────────────────────────────

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
