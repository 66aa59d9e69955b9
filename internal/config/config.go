package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/lookbook/internal/domain"
)

// Config holds the lookbook service configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Tagging     TaggingConfig     `yaml:"tagging"`
	Search      SearchConfig      `yaml:"search"`
	Upload      UploadConfig      `yaml:"upload"`
	Session     SessionConfig     `yaml:"session"`
	Auth        AuthConfig        `yaml:"auth"`
	Storage     StorageConfig     `yaml:"storage"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
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

// DatabaseConfig holds key-value database settings. Sessions and the embedding cache
// always live here; items too unless vector_store.backend is qdrant.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// VectorStoreConfig selects and tunes the item store.
type VectorStoreConfig struct {
	Backend         string       `yaml:"backend"` // database (default) or qdrant
	HNSWM           int          `yaml:"hnsw_m"`
	HNSWEFConstruct int          `yaml:"hnsw_ef_construction"`
	Qdrant          QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig holds Qdrant gRPC settings.
type QdrantConfig struct {
	Addr       string `yaml:"addr"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // gemini (default) or openai
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	CacheTTLHours       int    `yaml:"cache_ttl_hours"` // 0 keeps cached vectors forever
}

// TaggingConfig holds multimodal tagging settings.
type TaggingConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Prompt  string `yaml:"prompt"`
	Workers int    `yaml:"workers"`
}

// SearchConfig holds ranking settings.
type SearchConfig struct {
	MaxDistance float64 `yaml:"max_distance"`
}

// UploadConfig bounds a single upload request.
type UploadConfig struct {
	MaxFiles  int `yaml:"max_files"`
	MaxFileMB int `yaml:"max_file_mb"`
}

// SessionConfig holds search session settings.
type SessionConfig struct {
	TTLHours int `yaml:"ttl_hours"`
}

// Backend and provider names.
const (
	BackendDatabase = "database"
	BackendQdrant   = "qdrant"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Load reads configuration from a YAML file by environment name (local, dev, docker, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} and ${VAR:-default} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.VectorStore.Backend == "" {
		c.VectorStore.Backend = BackendDatabase
	}
	if c.VectorStore.HNSWM <= 0 {
		c.VectorStore.HNSWM = 16
	}
	if c.VectorStore.HNSWEFConstruct <= 0 {
		c.VectorStore.HNSWEFConstruct = 200
	}
	if c.VectorStore.Qdrant.Collection == "" {
		c.VectorStore.Qdrant.Collection = "lookbook_items"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderGemini
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 768
	}
	if c.Tagging.Workers <= 0 {
		c.Tagging.Workers = 2
	}
	if c.Search.MaxDistance == 0 {
		c.Search.MaxDistance = 2.0
	}
	if c.Upload.MaxFiles <= 0 {
		c.Upload.MaxFiles = 4
	}
	if c.Upload.MaxFileMB <= 0 {
		c.Upload.MaxFileMB = 10
	}
	if c.Session.TTLHours <= 0 {
		c.Session.TTLHours = 24
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "lookbook:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return domain.NewConfigurationError("http.port", fmt.Sprintf("must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return domain.NewConfigurationError("database.driver",
			fmt.Sprintf("must be \"valkey\" or \"redis\", got %q", c.Database.Driver))
	}
	if len(c.Database.Addrs) == 0 {
		return domain.NewConfigurationError("database.addrs", "is required")
	}
	switch c.VectorStore.Backend {
	case BackendDatabase:
	case BackendQdrant:
		if c.VectorStore.Qdrant.Addr == "" {
			return domain.NewConfigurationError("vector_store.qdrant.addr", "is required for the qdrant backend")
		}
	default:
		return domain.NewConfigurationError("vector_store.backend",
			fmt.Sprintf("must be %q or %q, got %q", BackendDatabase, BackendQdrant, c.VectorStore.Backend))
	}
	switch c.Embedding.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return domain.NewConfigurationError("embedding.provider",
			fmt.Sprintf("must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, c.Embedding.Provider))
	}
	if c.Embedding.Provider == ProviderOpenAI && c.Embedding.Model == "" {
		return domain.NewConfigurationError("embedding.model", "is required for the openai provider")
	}
	if math.IsNaN(c.Search.MaxDistance) || math.IsInf(c.Search.MaxDistance, 0) || c.Search.MaxDistance <= 0 {
		return domain.NewConfigurationError("search.max_distance",
			fmt.Sprintf("must be a positive finite number, got %v", c.Search.MaxDistance))
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
