// Package config provides application-wide configuration loaded from
// environment variables, with every field defaulting to a value that lets
// the binary run with zero setup. Directly grounded on
// internal/infra/config/config.go's envOr/Load shape, extended with every
// cultivation tunable spec.md §6 names and an optional YAML overlay for
// static tuning files (gopkg.in/yaml.v3, reused from the teacher's go.mod).
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime tunable the cultivation core exposes.
type Config struct {
	// HTTP
	ListenAddr string // LISTEN_ADDR — default: ":8080"

	// Embedder backend selection (SPEC_FULL.md §10 Open Question decision)
	EmbedderBackend string // EMBEDDER_BACKEND — "local" (default) or "http"
	EmbedderBaseURL string // EMBEDDER_BASE_URL — default: "http://localhost:11434"
	EmbedderModel   string // EMBEDDER_MODEL — default: "nomic-embed-text"

	// Knowledge base tunables (spec.md §3/§4.B, §6)
	MergeThreshold    float64 // MERGE_THRESHOLD — default: 0.90
	QueryThreshold    float64 // QUERY_THRESHOLD — default: 0.35
	EmbeddingDim      int     // EMBEDDING_DIM — default: 256
	EvidentialHorizon float64 // EVIDENTIAL_HORIZON — default: 1.0

	// Cultivation lifecycle tunables (spec.md §3 Lifecycle, §4.E)
	DecayRate         float64 // DECAY_RATE — default: 0.05
	DormantThreshold  float64 // DORMANT_THRESHOLD — default: 0.4
	FadingThreshold   float64 // FADING_THRESHOLD — default: 0.15
	ArchiveAfterTicks int     // ARCHIVE_AFTER_TICKS — default: 5

	// Inference tunables (spec.md §4.D)
	MaxDerivationsPerCycle int // MAX_DERIVATIONS_PER_CYCLE — default: 50

	// Germinate tunables (spec.md §4.E: energy > e_high and confidence < c_low)
	GerminateTopN          int     // GERMINATE_TOP_N — default: 5
	GerminateEnergyHigh    float64 // GERMINATE_ENERGY_HIGH — default: 0.6
	GerminateConfidenceLow float64 // GERMINATE_CONFIDENCE_LOW — default: 0.3

	// Ingestion tunables (spec.md §4.F)
	ChunkSize int // CHUNK_SIZE — default: 2000

	// Optional append-only audit log (SPEC_FULL.md §9, internal/store)
	WALPath string // WAL_PATH — default: "" (disabled)

	// TickIntervalSeconds drives the germinate/prune scheduled timer
	// (spec.md §4.E) independent of new ingestion. 0 disables the ticker.
	TickIntervalSeconds int // TICK_INTERVAL_SECONDS — default: 60
}

const (
	envListenAddr = "LISTEN_ADDR"

	envEmbedderBackend = "EMBEDDER_BACKEND"
	envEmbedderBaseURL = "EMBEDDER_BASE_URL"
	envEmbedderModel   = "EMBEDDER_MODEL"

	envMergeThreshold    = "MERGE_THRESHOLD"
	envQueryThreshold    = "QUERY_THRESHOLD"
	envEmbeddingDim      = "EMBEDDING_DIM"
	envEvidentialHorizon = "EVIDENTIAL_HORIZON"

	envDecayRate         = "DECAY_RATE"
	envDormantThreshold  = "DORMANT_THRESHOLD"
	envFadingThreshold   = "FADING_THRESHOLD"
	envArchiveAfterTicks = "ARCHIVE_AFTER_TICKS"

	envMaxDerivationsPerCycle = "MAX_DERIVATIONS_PER_CYCLE"

	envGerminateTopN          = "GERMINATE_TOP_N"
	envGerminateEnergyHigh    = "GERMINATE_ENERGY_HIGH"
	envGerminateConfidenceLow = "GERMINATE_CONFIDENCE_LOW"

	envChunkSize = "CHUNK_SIZE"
	envWALPath   = "WAL_PATH"

	envTickIntervalSeconds = "TICK_INTERVAL_SECONDS"
)

// Load reads configuration from environment variables, applying defaults
// for missing values — matching internal/infra/config.Load's posture of
// "works locally without any env setup."
func Load() Config {
	return Config{
		ListenAddr: envOr(envListenAddr, ":8080"),

		EmbedderBackend: envOr(envEmbedderBackend, "local"),
		EmbedderBaseURL: envOr(envEmbedderBaseURL, "http://localhost:11434"),
		EmbedderModel:   envOr(envEmbedderModel, "nomic-embed-text"),

		MergeThreshold:    envOrFloat(envMergeThreshold, 0.90),
		QueryThreshold:    envOrFloat(envQueryThreshold, 0.35),
		EmbeddingDim:      envOrInt(envEmbeddingDim, 256),
		EvidentialHorizon: envOrFloat(envEvidentialHorizon, 1.0),

		DecayRate:         envOrFloat(envDecayRate, 0.05),
		DormantThreshold:  envOrFloat(envDormantThreshold, 0.4),
		FadingThreshold:   envOrFloat(envFadingThreshold, 0.15),
		ArchiveAfterTicks: envOrInt(envArchiveAfterTicks, 5),

		MaxDerivationsPerCycle: envOrInt(envMaxDerivationsPerCycle, 50),

		GerminateTopN:          envOrInt(envGerminateTopN, 5),
		GerminateEnergyHigh:    envOrFloat(envGerminateEnergyHigh, 0.6),
		GerminateConfidenceLow: envOrFloat(envGerminateConfidenceLow, 0.3),

		ChunkSize: envOrInt(envChunkSize, 2000),
		WALPath:   envOr(envWALPath, ""),

		TickIntervalSeconds: envOrInt(envTickIntervalSeconds, 60),
	}
}

// LoadYAML reads a static tuning file at path and layers it over base,
// overriding only the fields present in the file. A missing file is not an
// error — the YAML layer is optional, matching spec.md's "environment
// variables are the primary configuration surface."
func LoadYAML(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, fmt.Errorf("config: read %s: %w", path, err)
	}

	var overlay yamlOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return base, fmt.Errorf("config: parse %s: %w", path, err)
	}
	overlay.applyTo(&base)
	return base, nil
}

// yamlOverlay mirrors Config with pointer fields, so "absent from the
// file" and "explicitly zero" are distinguishable.
type yamlOverlay struct {
	ListenAddr             *string  `yaml:"listen_addr"`
	EmbedderBackend        *string  `yaml:"embedder_backend"`
	EmbedderBaseURL        *string  `yaml:"embedder_base_url"`
	EmbedderModel          *string  `yaml:"embedder_model"`
	MergeThreshold         *float64 `yaml:"merge_threshold"`
	QueryThreshold         *float64 `yaml:"query_threshold"`
	EmbeddingDim           *int     `yaml:"embedding_dim"`
	EvidentialHorizon      *float64 `yaml:"evidential_horizon"`
	DecayRate              *float64 `yaml:"decay_rate"`
	DormantThreshold       *float64 `yaml:"dormant_threshold"`
	FadingThreshold        *float64 `yaml:"fading_threshold"`
	ArchiveAfterTicks      *int     `yaml:"archive_after_ticks"`
	MaxDerivationsPerCycle *int     `yaml:"max_derivations_per_cycle"`
	GerminateTopN          *int     `yaml:"germinate_top_n"`
	GerminateEnergyHigh    *float64 `yaml:"germinate_energy_high"`
	GerminateConfidenceLow *float64 `yaml:"germinate_confidence_low"`
	ChunkSize              *int     `yaml:"chunk_size"`
	WALPath                *string  `yaml:"wal_path"`
	TickIntervalSeconds    *int     `yaml:"tick_interval_seconds"`
}

func (o yamlOverlay) applyTo(c *Config) {
	if o.ListenAddr != nil {
		c.ListenAddr = *o.ListenAddr
	}
	if o.EmbedderBackend != nil {
		c.EmbedderBackend = *o.EmbedderBackend
	}
	if o.EmbedderBaseURL != nil {
		c.EmbedderBaseURL = *o.EmbedderBaseURL
	}
	if o.EmbedderModel != nil {
		c.EmbedderModel = *o.EmbedderModel
	}
	if o.MergeThreshold != nil {
		c.MergeThreshold = *o.MergeThreshold
	}
	if o.QueryThreshold != nil {
		c.QueryThreshold = *o.QueryThreshold
	}
	if o.EmbeddingDim != nil {
		c.EmbeddingDim = *o.EmbeddingDim
	}
	if o.EvidentialHorizon != nil {
		c.EvidentialHorizon = *o.EvidentialHorizon
	}
	if o.DecayRate != nil {
		c.DecayRate = *o.DecayRate
	}
	if o.DormantThreshold != nil {
		c.DormantThreshold = *o.DormantThreshold
	}
	if o.FadingThreshold != nil {
		c.FadingThreshold = *o.FadingThreshold
	}
	if o.ArchiveAfterTicks != nil {
		c.ArchiveAfterTicks = *o.ArchiveAfterTicks
	}
	if o.MaxDerivationsPerCycle != nil {
		c.MaxDerivationsPerCycle = *o.MaxDerivationsPerCycle
	}
	if o.GerminateTopN != nil {
		c.GerminateTopN = *o.GerminateTopN
	}
	if o.GerminateEnergyHigh != nil {
		c.GerminateEnergyHigh = *o.GerminateEnergyHigh
	}
	if o.GerminateConfidenceLow != nil {
		c.GerminateConfidenceLow = *o.GerminateConfidenceLow
	}
	if o.ChunkSize != nil {
		c.ChunkSize = *o.ChunkSize
	}
	if o.WALPath != nil {
		c.WALPath = *o.WALPath
	}
	if o.TickIntervalSeconds != nil {
		c.TickIntervalSeconds = *o.TickIntervalSeconds
	}
}

// envOr returns the value of the environment variable key, or fallback if
// not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
