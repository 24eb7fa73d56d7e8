package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the ragsearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Rerank    RerankConfig    `yaml:"rerank"`
	Search    SearchConfig    `yaml:"search"`
	Timeouts  TimeoutsConfig  `yaml:"timeouts"`
	CORS      CORSConfig      `yaml:"cors"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds content store settings.
type DatabaseConfig struct {
	Driver           string `yaml:"driver"` // postgres, memory (default: postgres)
	DSN              string `yaml:"dsn"`
	SeedFile         string `yaml:"seed_file"` // memory driver only
	Table            string `yaml:"table"`
	MatchFunction    string `yaml:"match_function"` // optional stored procedure, e.g. match_documents
	TextSearchConfig string `yaml:"text_search_config"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds embedding cache settings. Empty Addrs disables the cache.
type CacheConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	TTLSec   int      `yaml:"ttl_sec"`
}

// Enabled reports whether an embedding cache is configured.
func (c CacheConfig) Enabled() bool {
	return len(c.Addrs) > 0
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// RerankConfig holds rerank provider settings. Empty APIKey disables reranking.
type RerankConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Enabled reports whether a rerank credential is configured.
func (c RerankConfig) Enabled() bool {
	return c.APIKey != ""
}

// SearchConfig holds pipeline tuning.
type SearchConfig struct {
	MatchThreshold float64 `yaml:"match_threshold"`
	MatchCount     int     `yaml:"match_count"`
	RerankTopK     int     `yaml:"rerank_top_k"`
	TextLimit      int     `yaml:"text_limit"`
	MaxQueryRunes  int     `yaml:"max_query_runes"`
}

// TimeoutsConfig bounds each outbound call of a search, in milliseconds.
type TimeoutsConfig struct {
	EmbeddingMs    int `yaml:"embedding_ms"`
	VectorSearchMs int `yaml:"vector_search_ms"`
	TextSearchMs   int `yaml:"text_search_ms"`
	RerankMs       int `yaml:"rerank_ms"`
}

// Embedding returns the embedding call timeout.
func (t TimeoutsConfig) Embedding() time.Duration { return ms(t.EmbeddingMs) }

// VectorSearch returns the vector query timeout.
func (t TimeoutsConfig) VectorSearch() time.Duration { return ms(t.VectorSearchMs) }

// TextSearch returns the text query timeout.
func (t TimeoutsConfig) TextSearch() time.Duration { return ms(t.TextSearchMs) }

// Rerank returns the rerank call timeout.
func (t TimeoutsConfig) Rerank() time.Duration { return ms(t.RerankMs) }

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// CORSConfig holds Access-Control-Allow-* values.
type CORSConfig struct {
	AllowOrigin  string `yaml:"allow_origin"`
	AllowHeaders string `yaml:"allow_headers"`
	AllowMethods string `yaml:"allow_methods"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands environment variables in data, then decodes, defaults and validates it.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error: the service can run on real environment variables alone.
// Variables already set in the environment win.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.Table == "" {
		c.Database.Table = "school_info"
	}
	if c.Database.TextSearchConfig == "" {
		c.Database.TextSearchConfig = "simple"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 86400
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-ada-002"
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Rerank.Model == "" {
		c.Rerank.Model = "rerank-multilingual-v2.0"
	}
	if c.Search.MatchThreshold == 0 {
		c.Search.MatchThreshold = 0.7
	}
	if c.Search.MatchCount <= 0 {
		c.Search.MatchCount = 10
	}
	if c.Search.RerankTopK <= 0 {
		c.Search.RerankTopK = 5
	}
	if c.Search.TextLimit <= 0 {
		c.Search.TextLimit = 10
	}
	if c.Search.MaxQueryRunes <= 0 {
		c.Search.MaxQueryRunes = 1000
	}
	if c.Timeouts.EmbeddingMs <= 0 {
		c.Timeouts.EmbeddingMs = 5000
	}
	if c.Timeouts.VectorSearchMs <= 0 {
		c.Timeouts.VectorSearchMs = 3000
	}
	if c.Timeouts.TextSearchMs <= 0 {
		c.Timeouts.TextSearchMs = 3000
	}
	if c.Timeouts.RerankMs <= 0 {
		c.Timeouts.RerankMs = 5000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for the postgres driver")
		}
	case DriverMemory:
		if c.Database.SeedFile == "" {
			return errors.New("database.seed_file is required for the memory driver")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q",
			DriverPostgres, DriverMemory, c.Database.Driver)
	}
	if c.Embedding.APIKey == "" {
		return errors.New("embedding.api_key is required")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must be >= 0, got %d", c.Embedding.Dimensions)
	}
	// Zero is filled in by ApplyDefaults, so only (0, 1) reaches the pipeline.
	if c.Search.MatchThreshold <= 0 || c.Search.MatchThreshold >= 1 {
		return fmt.Errorf("search.match_threshold must be in (0, 1), got %g", c.Search.MatchThreshold)
	}
	if c.Search.RerankTopK > c.Search.MatchCount {
		return fmt.Errorf("search.rerank_top_k (%d) must not exceed search.match_count (%d)",
			c.Search.RerankTopK, c.Search.MatchCount)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
