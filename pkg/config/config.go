// Package config loads the genre-map pipeline and server configuration from
// YAML with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-genremap/pkg/genre"
	"github.com/dd0wney/cluso-genremap/pkg/validation"
)

// Embedding providers.
const (
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderHashing = "hashing"
)

// Reducers.
const (
	ReducerTSNE = "tsne"
	ReducerPCA  = "pca"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "all-minilm"
	defaultOpenAIURL   = "https://api.openai.com"
	defaultOpenAIModel = "text-embedding-3-small"
	defaultTimeout     = 2 * time.Minute
	defaultConcurrency = 2
)

// Config is the full run configuration.
type Config struct {
	CatalogPath        string   `yaml:"catalog_path" validate:"required"`
	OutputDir          string   `yaml:"output_dir" validate:"required"`
	TSNEPerplexity     float64  `yaml:"tsne_perplexity"`
	TopGenres          []string `yaml:"top_genres"`
	ClustererSmoothing float64  `yaml:"clusterer_smoothing"`
	Seed               int64    `yaml:"seed"`
	Reducer            string   `yaml:"reducer" validate:"oneof=tsne pca"`
	TSNEIterations     int      `yaml:"tsne_iterations" validate:"gte=0"`
	TSNELearningRate   float64  `yaml:"tsne_learning_rate" validate:"gte=0"`
	MetricsTextfile    string   `yaml:"metrics_textfile"`
	LogLevel           string   `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat          string   `yaml:"log_format" validate:"omitempty,oneof=json console"`

	Embedder EmbedderConfig `yaml:"embedder"`
	Server   ServerConfig   `yaml:"server"`
}

// EmbedderConfig selects and configures the embedding backend.
type EmbedderConfig struct {
	Provider   string        `yaml:"provider" validate:"oneof=ollama openai hashing"`
	URL        string        `yaml:"url"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	Dimensions int           `yaml:"dimensions" validate:"gte=0"`
	Timeout    time.Duration `yaml:"timeout"`
	// BatchSize caps texts per backend request; 0 sends the whole catalog
	// at once. Concurrency bounds in-flight batches.
	BatchSize   int `yaml:"batch_size" validate:"gte=0"`
	Concurrency int `yaml:"concurrency" validate:"gte=0"`
	// MaxRetries applies to throttled, 5xx and network failures only.
	MaxRetries        int     `yaml:"max_retries" validate:"gte=0"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
}

// ServerConfig configures the read-only map server.
type ServerConfig struct {
	Port       int    `yaml:"port"`
	PointsPath string `yaml:"points_path"`
	EdgesPath  string `yaml:"edges_path"`
}

// Default returns the configuration used when a key is absent.
func Default() *Config {
	return &Config{
		CatalogPath:        "genres.json",
		OutputDir:          "output",
		TSNEPerplexity:     30,
		ClustererSmoothing: 3,
		Reducer:            ReducerTSNE,
		LogLevel:           "info",
		LogFormat:          "json",
		Embedder: EmbedderConfig{
			Provider:   ProviderOllama,
			MaxRetries: 3,
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

// Load reads path, applies environment overrides and defaults, resolves
// relative paths against the config file's directory and validates the
// result. Every failure wraps genre.ErrConfiguration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read config: %v", genre.ErrConfiguration, err)
	}

	cfg, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.ResolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Decode parses YAML from r and finishes the configuration like Load, with
// paths left as written.
func Decode(r io.Reader) (*Config, error) {
	return decode(r)
}

func decode(r io.Reader) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parse config: %v", genre.ErrConfiguration, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with GENREMAP_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("GENREMAP_CATALOG_PATH", &c.CatalogPath)
	str("GENREMAP_OUTPUT_DIR", &c.OutputDir)
	str("GENREMAP_REDUCER", &c.Reducer)
	str("GENREMAP_METRICS_TEXTFILE", &c.MetricsTextfile)
	str("LOG_LEVEL", &c.LogLevel)
	str("GENREMAP_EMBEDDER_PROVIDER", &c.Embedder.Provider)
	str("GENREMAP_EMBEDDER_URL", &c.Embedder.URL)
	str("GENREMAP_EMBEDDER_MODEL", &c.Embedder.Model)
	str("OPENAI_API_KEY", &c.Embedder.APIKey)
	str("GENREMAP_EMBEDDER_API_KEY", &c.Embedder.APIKey)
	str("GENREMAP_POINTS_PATH", &c.Server.PointsPath)
	str("GENREMAP_EDGES_PATH", &c.Server.EdgesPath)

	if v, ok := lookup("GENREMAP_SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: GENREMAP_SEED: %v", genre.ErrConfiguration, err)
		}
		c.Seed = seed
	}
	if v, ok := lookup("GENREMAP_SERVER_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: GENREMAP_SERVER_PORT: %v", genre.ErrConfiguration, err)
		}
		c.Server.Port = port
	}
	return nil
}

// applyDefaults fills provider-dependent values that have no single default.
func (c *Config) applyDefaults() {
	switch c.Embedder.Provider {
	case ProviderOllama:
		c.Embedder.URL = validation.DefaultOr(c.Embedder.URL, defaultOllamaURL)
		c.Embedder.Model = validation.DefaultOr(c.Embedder.Model, defaultOllamaModel)
	case ProviderOpenAI:
		c.Embedder.URL = validation.DefaultOr(c.Embedder.URL, defaultOpenAIURL)
		c.Embedder.Model = validation.DefaultOr(c.Embedder.Model, defaultOpenAIModel)
	}
	c.Embedder.Timeout = validation.DefaultOrDuration(c.Embedder.Timeout, defaultTimeout)
	if c.Embedder.Concurrency == 0 {
		c.Embedder.Concurrency = defaultConcurrency
	}
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", genre.ErrConfiguration, err)
	}

	cv := validation.NewConfigValidator("config")
	cv.PositiveFloat("tsne_perplexity", c.TSNEPerplexity).
		PositiveFloat("clusterer_smoothing", c.ClustererSmoothing).
		NonEmptyStrings("top_genres", c.TopGenres).
		UniqueStrings("top_genres", c.TopGenres).
		RangeInt("server.port", c.Server.Port, 0, 65535).
		When(c.Embedder.Provider == ProviderOpenAI, func(v *validation.ConfigValidator) {
			v.Required("embedder.api_key", c.Embedder.APIKey)
		}).
		When(c.Embedder.Provider != ProviderHashing, func(v *validation.ConfigValidator) {
			v.Required("embedder.url", c.Embedder.URL).
				MinDuration("embedder.timeout", c.Embedder.Timeout, time.Second)
		})

	if err := cv.Validate(); err != nil {
		return fmt.Errorf("%w: %w", genre.ErrConfiguration, err)
	}
	return nil
}

// ResolvePaths makes relative file paths relative to baseDir.
func (c *Config) ResolvePaths(baseDir string) {
	for _, p := range []*string{&c.CatalogPath, &c.OutputDir, &c.MetricsTextfile, &c.Server.PointsPath, &c.Server.EdgesPath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(baseDir, *p)
		}
	}
}

// PointsPath is the points artifact the server reads.
func (c *Config) PointsPath() string {
	return validation.DefaultOr(c.Server.PointsPath, filepath.Join(c.OutputDir, "points.json"))
}

// EdgesPath is the edges artifact the server reads.
func (c *Config) EdgesPath() string {
	return validation.DefaultOr(c.Server.EdgesPath, filepath.Join(c.OutputDir, "edges.json"))
}

// Addr is the server listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}
