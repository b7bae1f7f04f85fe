package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	AI       AIConfig       `yaml:"ai"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

// AIConfig AI 服务配置，进程启动时构造一次，之后只读
type AIConfig struct {
	Provider         string  `yaml:"provider"`
	Model            string  `yaml:"model"`
	APIKey           string  `yaml:"api_key"`
	BaseURL          string  `yaml:"base_url"`
	MaxRetries       int     `yaml:"max_retries"`
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
	Temperature      float32 `yaml:"temperature"`
	MaxTokens        int     `yaml:"max_tokens"`
	SummaryMaxLength int     `yaml:"summary_max_length"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxAge     int    `yaml:"max_age"`
	MaxBackups int    `yaml:"max_backups"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	// 首先尝试从 YAML 文件加载
	if data, err := os.ReadFile("configs/config.yaml"); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// 然后从环境变量覆盖
	cfg.overrideFromEnv()

	// 设置默认值
	cfg.setDefaults()

	return cfg, nil
}

func (c *Config) overrideFromEnv() {
	// Database
	if val := os.Getenv("DATABASE_URL"); val != "" {
		c.Database.URL = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Database.Port = port
		}
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.DBName = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Server.Port = port
		}
	}
	if val := os.Getenv("GIN_MODE"); val != "" {
		c.Server.Mode = val
	}

	// AI
	if val := os.Getenv("AI_PROVIDER"); val != "" {
		c.AI.Provider = val
	}
	if val := os.Getenv("AI_MODEL"); val != "" {
		c.AI.Model = val
	}
	if val := os.Getenv("AI_API_KEY"); val != "" {
		c.AI.APIKey = val
	}
	if val := os.Getenv("AI_BASE_URL"); val != "" {
		c.AI.BaseURL = val
	}
	if val := os.Getenv("AI_MAX_RETRIES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.AI.MaxRetries = n
		}
	}
	if val := os.Getenv("AI_TIMEOUT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.AI.TimeoutSeconds = n
		}
	}
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}

	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.JWT.ExpireHours == 0 {
		c.JWT.ExpireHours = 24
	}

	if c.AI.Provider == "" {
		c.AI.Provider = "openai"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o-mini"
	}
	if c.AI.MaxRetries == 0 {
		c.AI.MaxRetries = 3
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = 30
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.3
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 200
	}
	if c.AI.SummaryMaxLength == 0 {
		c.AI.SummaryMaxLength = 150
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.File == "" {
		c.Log.File = "./logs/app.log"
	}
}

func (c *Config) GetDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}
