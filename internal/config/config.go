package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port                 int           `yaml:"port"`
		ReadTimeout          time.Duration `yaml:"readTimeout"`
		WriteTimeout         time.Duration `yaml:"writeTimeout"`
		MaxUploadBytes       int64         `yaml:"maxUploadBytes"`
		MaxFiles             int           `yaml:"maxFiles"`
		MaxConcurrentBatches int64         `yaml:"maxConcurrentBatches"`
		AllowedOrigins       []string      `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`

	Tools struct {
		Flake8  string        `yaml:"flake8"`
		Bandit  string        `yaml:"bandit"`
		Safety  string        `yaml:"safety"`
		Timeout time.Duration `yaml:"timeout"`
		TempDir string        `yaml:"tempDir"`
	} `yaml:"tools"`

	Probe struct {
		Mode    string        `yaml:"mode"` // subprocess | docker | disabled
		Python  string        `yaml:"python"`
		Image   string        `yaml:"image"`
		Memory  string        `yaml:"memory"`
		CPUs    string        `yaml:"cpus"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"probe"`

	Thresholds struct {
		HighComplexity int `yaml:"highComplexity"`
	} `yaml:"thresholds"`

	Database struct {
		Driver   string `yaml:"driver"` // "" | bolt | mysql | postgres
		Path     string `yaml:"path"`   // bolt file
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Ollama struct {
		Host  string `yaml:"host"` // empty disables
		Model string `yaml:"model"`
	} `yaml:"ollama"`

	Auth struct {
		APIKeys map[string]string `yaml:"apiKeys"` // client name -> key
	} `yaml:"auth"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`
}

// Load reads the YAML config at path. A missing file yields defaults.
// OPENAI_API_KEY, OLLAMA_HOST and DB_PASSWORD override the file when set.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Ollama.Host = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8501
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Minute
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 8 << 20
	}
	if c.Server.MaxFiles == 0 {
		c.Server.MaxFiles = 20
	}
	if c.Server.MaxConcurrentBatches == 0 {
		c.Server.MaxConcurrentBatches = 2
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Tools.Flake8 == "" {
		c.Tools.Flake8 = "flake8"
	}
	if c.Tools.Bandit == "" {
		c.Tools.Bandit = "bandit"
	}
	if c.Tools.Safety == "" {
		c.Tools.Safety = "safety"
	}
	if c.Tools.Timeout == 0 {
		c.Tools.Timeout = 60 * time.Second
	}
	if c.Probe.Mode == "" {
		c.Probe.Mode = "subprocess"
	}
	if c.Probe.Python == "" {
		c.Probe.Python = "python3"
	}
	if c.Probe.Image == "" {
		c.Probe.Image = "python:3.12-slim"
	}
	if c.Probe.Memory == "" {
		c.Probe.Memory = "256m"
	}
	if c.Probe.CPUs == "" {
		c.Probe.CPUs = "1"
	}
	if c.Probe.Timeout == 0 {
		c.Probe.Timeout = 10 * time.Second
	}
	if c.Thresholds.HighComplexity == 0 {
		c.Thresholds.HighComplexity = 10
	}
	if c.Database.Port == 0 {
		switch c.Database.Driver {
		case "mysql":
			c.Database.Port = 3306
		case "postgres":
			c.Database.Port = 5432
		}
	}
	if c.Database.Driver == "bolt" && c.Database.Path == "" {
		c.Database.Path = "pyaudit.db"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "pyaudit-reports"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Ollama.Host != "" && c.Ollama.Model == "" {
		c.Ollama.Model = "gemma3:latest"
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 30
	}
	if c.RateLimit.RefillRate == 0 {
		c.RateLimit.RefillRate = 1
	}
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Probe.Mode {
	case "subprocess", "docker", "disabled":
	default:
		return fmt.Errorf("probe.mode %q: want subprocess, docker or disabled", c.Probe.Mode)
	}
	switch c.Database.Driver {
	case "", "bolt", "mysql", "postgres":
	default:
		return fmt.Errorf("database.driver %q: want bolt, mysql, postgres or empty", c.Database.Driver)
	}
	if c.Minio.Enabled && c.Minio.Endpoint == "" {
		return errors.New("minio.endpoint is required when minio is enabled")
	}
	if c.Tools.Timeout < 0 || c.Probe.Timeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
