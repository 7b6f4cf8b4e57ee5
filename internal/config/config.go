package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	Game     GameConfig     `yaml:"game"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	MySQL  MySQLConfig  `yaml:"mysql"`
	Redis  RedisConfig  `yaml:"redis"`
	Qdrant QdrantConfig `yaml:"qdrant"`
}

type MySQLConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	UseTLS     bool   `yaml:"use_tls"`
	VectorSize int    `yaml:"vector_size"`
}

type AIConfig struct {
	DefaultBackend string          `yaml:"default_backend"`
	Backends       []BackendConfig `yaml:"backends"`
	Embedding      EmbeddingConfig `yaml:"embedding"`
}

// BackendConfig describes one text-generation backend. Type is either
// "openai" (any OpenAI-compatible chat completions API) or "ollama".
type BackendConfig struct {
	ID          string        `yaml:"id"`
	Type        string        `yaml:"type"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Description string        `yaml:"description"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

type EmbeddingConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

type GameConfig struct {
	HistoryLimit   int `yaml:"history_limit"`   // messages included in the prompt
	RetrievalLimit int `yaml:"retrieval_limit"` // records per retrieved-context section
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Game.HistoryLimit <= 0 {
		c.Game.HistoryLimit = 20
	}
	if c.Game.RetrievalLimit <= 0 {
		c.Game.RetrievalLimit = 3
	}
	if c.Database.Qdrant.VectorSize <= 0 {
		c.Database.Qdrant.VectorSize = 1536
	}
}

// applyEnvOverrides lets deployments inject secrets without editing the
// config file. This is the only place the process environment is consulted;
// everything downstream receives the constructed Config by reference.
func (c *Config) applyEnvOverrides() {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		for i := range c.AI.Backends {
			if c.AI.Backends[i].Type == "openai" && c.AI.Backends[i].APIKey == "" {
				c.AI.Backends[i].APIKey = apiKey
			}
		}
		if c.AI.Embedding.APIKey == "" {
			c.AI.Embedding.APIKey = apiKey
		}
	}
	if url := os.Getenv("OLLAMA_API_URL"); url != "" {
		for i := range c.AI.Backends {
			if c.AI.Backends[i].Type == "ollama" {
				c.AI.Backends[i].BaseURL = url
			}
		}
	}
	if apiKey := os.Getenv("QDRANT_API_KEY"); apiKey != "" {
		c.Database.Qdrant.APIKey = apiKey
	}
	if password := os.Getenv("MYSQL_PASSWORD"); password != "" {
		c.Database.MySQL.Password = password
	}
}
