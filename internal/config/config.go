package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration for a memcore agent instance.
type Config struct {
	Version int `yaml:"version" json:"version" validate:"required"`

	// StateDir is the root directory for all persistent state.
	// The SQLite store for a given agent lives at
	// <state_dir>/memory/<agent_id>.sqlite.
	StateDir string `yaml:"state_dir" json:"state_dir" validate:"required"`

	// AgentID identifies the conversational agent whose memory this is.
	AgentID string `yaml:"agent_id" json:"agent_id" validate:"required"`

	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings" validate:"required"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" json:"retrieval" validate:"required"`
	Server     ServerConfig     `yaml:"server" json:"server" validate:"required"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging" validate:"required"`
}

// EmbeddingsConfig selects and configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "remote" or "local".
	Provider string `yaml:"provider" json:"provider" validate:"required,oneof=remote local"`
	Model    string `yaml:"model" json:"model" validate:"required"`

	// Remote provider settings (HTTP embedding service).
	RemoteBaseURL string        `yaml:"remote_base_url" json:"remote_base_url"`
	RemoteAPIKey  string        `yaml:"remote_api_key" json:"remote_api_key"`
	RemoteTimeout time.Duration `yaml:"remote_timeout" json:"remote_timeout"`

	// LocalModelPath is the symbolic model name for the local provider
	// ("small", "medium", "large"); empty falls back to Model.
	LocalModelPath string `yaml:"local_model_path" json:"local_model_path"`

	BatchSize int `yaml:"batch_size" json:"batch_size" validate:"gte=1"`
	CacheSize int `yaml:"cache_size" json:"cache_size" validate:"gte=0"`
}

// RetrievalConfig holds search settings. They are loaded, merged and
// validated here, but the search paths do not read them: the retriever
// uses its fixed retriever.Overfetch factor, and the CLI and MCP search
// default k to 10 without an upper cap.
type RetrievalConfig struct {
	// Overfetch is the candidate multiplier applied to k before cosine
	// scoring and ranking (spec.md's OVERFETCH=4 default).
	Overfetch int `yaml:"overfetch" json:"overfetch" validate:"gte=1"`
	// DefaultK is the default number of results returned when the caller
	// does not specify one.
	DefaultK int `yaml:"default_k" json:"default_k" validate:"gte=1"`
	// MaxK caps the number of results a single search may return.
	MaxK int `yaml:"max_k" json:"max_k" validate:"gte=1"`
}

// ServerConfig holds MCP server transport settings. They are loaded and
// validated; memcored serve always runs over stdio and does not read them.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport" validate:"required,oneof=stdio sse"`
	Port      int    `yaml:"port" json:"port"`
}

// LoggingConfig holds file logger settings. They are loaded and validated;
// the CLI's --debug logging uses logging.DebugConfig and does not read them.
type LoggingConfig struct {
	Level         string `yaml:"level" json:"level" validate:"required,oneof=debug info warn error"`
	FilePath      string `yaml:"file_path" json:"file_path"`
	MaxSizeMB     int    `yaml:"max_size_mb" json:"max_size_mb" validate:"gte=0"`
	MaxFiles      int    `yaml:"max_files" json:"max_files" validate:"gte=0"`
	WriteToStderr bool   `yaml:"write_to_stderr" json:"write_to_stderr"`
}

var validate = validator.New()

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version:  1,
		StateDir: defaultStateDir(),
		AgentID:  "default",
		Embeddings: EmbeddingsConfig{
			Provider:       "local",
			Model:          "text-embedding-3-small",
			LocalModelPath: "small",
			RemoteBaseURL:  "http://localhost:11434",
			RemoteTimeout:  30 * time.Second,
			BatchSize:      32,
			CacheSize:      2048,
		},
		Retrieval: RetrievalConfig{
			Overfetch: 4,
			DefaultK:  10,
			MaxK:      100,
		},
		Server: ServerConfig{
			Transport: "stdio",
			Port:      8765,
		},
		Logging: LoggingConfig{
			Level:         "info",
			MaxSizeMB:     10,
			MaxFiles:      5,
			WriteToStderr: true,
		},
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".memcore")
	}
	return filepath.Join(home, ".memcore")
}

// DBPath returns the path to this agent's SQLite store.
func (c *Config) DBPath() string {
	return filepath.Join(c.StateDir, "memory", c.AgentID+".sqlite")
}

// GetUserConfigPath returns the user/global config file location, following
// the XDG Base Directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "memcore", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "memcore", "config.yaml")
	}
	return filepath.Join(home, ".config", "memcore", "config.yaml")
}

// Load builds the effective configuration by layering, in order of
// increasing precedence:
//
//  1. hardcoded defaults
//  2. the user/global config (~/.config/memcore/config.yaml)
//  3. the project config (.memcore.yaml in dir)
//  4. MEMCORE_* environment variables
//
// The result is validated before being returned.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadIfExists(GetUserConfigPath()); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if projCfg, err := loadProjectConfig(dir); err != nil {
		return nil, err
	} else if projCfg != nil {
		cfg.mergeWith(projCfg)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadProjectConfig(dir string) (*Config, error) {
	for _, name := range []string{".memcore.yaml", ".memcore.yml"} {
		path := filepath.Join(dir, name)
		if cfg, err := loadIfExists(path); err != nil {
			return nil, fmt.Errorf("failed to load project config from %s: %w", path, err)
		} else if cfg != nil {
			return cfg, nil
		}
	}
	return nil, nil
}

func loadIfExists(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// mergeWith overlays non-zero fields from other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.StateDir != "" {
		c.StateDir = other.StateDir
	}
	if other.AgentID != "" {
		c.AgentID = other.AgentID
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.RemoteBaseURL != "" {
		c.Embeddings.RemoteBaseURL = other.Embeddings.RemoteBaseURL
	}
	if other.Embeddings.RemoteAPIKey != "" {
		c.Embeddings.RemoteAPIKey = other.Embeddings.RemoteAPIKey
	}
	if other.Embeddings.RemoteTimeout != 0 {
		c.Embeddings.RemoteTimeout = other.Embeddings.RemoteTimeout
	}
	if other.Embeddings.LocalModelPath != "" {
		c.Embeddings.LocalModelPath = other.Embeddings.LocalModelPath
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}

	if other.Retrieval.Overfetch != 0 {
		c.Retrieval.Overfetch = other.Retrieval.Overfetch
	}
	if other.Retrieval.DefaultK != 0 {
		c.Retrieval.DefaultK = other.Retrieval.DefaultK
	}
	if other.Retrieval.MaxK != 0 {
		c.Retrieval.MaxK = other.Retrieval.MaxK
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies MEMCORE_* environment variables, the highest
// precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MEMCORE_STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv("MEMCORE_AGENT_ID"); v != "" {
		c.AgentID = v
	}
	if v := os.Getenv("MEMCORE_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("MEMCORE_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("MEMCORE_REMOTE_BASE_URL"); v != "" {
		c.Embeddings.RemoteBaseURL = v
	}
	if v := os.Getenv("MEMCORE_REMOTE_API_KEY"); v != "" {
		c.Embeddings.RemoteAPIKey = v
	}
	if v := os.Getenv("MEMCORE_OVERFETCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retrieval.Overfetch = n
		}
	}
	if v := os.Getenv("MEMCORE_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("MEMCORE_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
}

// Validate checks structural constraints (via struct tags) plus the
// cross-field invariants a tag alone cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Embeddings.Provider == "remote" && c.Embeddings.RemoteBaseURL == "" {
		return fmt.Errorf("embeddings.remote_base_url is required when provider is remote")
	}
	if c.Retrieval.DefaultK > c.Retrieval.MaxK {
		return fmt.Errorf("retrieval.default_k (%d) must not exceed retrieval.max_k (%d)", c.Retrieval.DefaultK, c.Retrieval.MaxK)
	}
	return nil
}

// WriteYAML persists the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
