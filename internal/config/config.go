package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// MongoDB Configuration (attempt journal)
	MongoDB MongoConfig `json:"mongodb"`

	// Delayed execution engine configuration
	Engine EngineConfig `json:"engine"`

	// External platform API configuration
	Platform PlatformConfig `json:"platform"`

	// Email Configuration (failure notifications, optional)
	Email EmailConfig `json:"email"`

	// Logging Configuration
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port         string `json:"port"`
	Host         string `json:"host"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	Environment  string `json:"environment"` // development, staging, production
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

// MongoConfig contains the attempt journal connection configuration
type MongoConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
	Enabled  bool   `json:"enabled"`
}

// EngineConfig contains delayed execution engine configuration
type EngineConfig struct {
	MaxAttempts   int  `json:"max_attempts"`   // Total attempts per record, including the first
	RetryDelay    int  `json:"retry_delay"`    // Base backoff in seconds, doubled per attempt
	SweepInterval int  `json:"sweep_interval"` // Minutes between recovery sweeps
	Enabled       bool `json:"enabled"`
}

// PlatformConfig contains the external publish API configuration
type PlatformConfig struct {
	BaseURL     string `json:"base_url"`
	CallTimeout int    `json:"call_timeout"` // Seconds per external call
	DeepLinkURL string `json:"deep_link_url"`
}

// EmailConfig contains email service configuration (optional)
type EmailConfig struct {
	SMTPHost  string `json:"smtp_host"`
	SMTPPort  int    `json:"smtp_port"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FromEmail string `json:"from_email"`
	FromName  string `json:"from_name"`
	Enabled   bool   `json:"enabled"`
	UseTLS    bool   `json:"use_tls"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Format     string `json:"format"`      // json, text
	OutputPath string `json:"output_path"` // stdout, stderr, or file path
}

// LoadConfig builds the full configuration from environment variables with
// development defaults. Entrypoints call godotenv.Load first.
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "7005"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			Environment:  getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "3306"),
			Username:     getEnv("DB_USER", "postflow"),
			Password:     getEnv("DB_PASSWORD", "postflow123"),
			DatabaseName: getEnv("DB_NAME", "postflow_db"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		MongoDB: MongoConfig{
			Host:     getEnv("MONGO_HOST", "localhost"),
			Port:     getEnv("MONGO_PORT", "27017"),
			Username: getEnv("MONGO_USER", "admin"),
			Password: getEnv("MONGO_PASSWORD", "admin123"),
			Database: getEnv("MONGO_DB", "postflow"),
			Enabled:  getEnv("MONGO_ENABLED", "true") == "true",
		},
		Engine: EngineConfig{
			MaxAttempts:   getEnvInt("ENGINE_MAX_ATTEMPTS", 3),
			RetryDelay:    getEnvInt("ENGINE_RETRY_DELAY", 30),
			SweepInterval: getEnvInt("ENGINE_SWEEP_INTERVAL", 1),
			Enabled:       getEnv("ENGINE_ENABLED", "true") == "true",
		},
		Platform: PlatformConfig{
			BaseURL:     getEnv("PLATFORM_BASE_URL", "http://localhost:9090"),
			CallTimeout: getEnvInt("PLATFORM_CALL_TIMEOUT", 15),
			DeepLinkURL: getEnv("DEEP_LINK_URL", "http://localhost:3000/records"),
		},
		Email: EmailConfig{
			SMTPHost:  getEnv("SMTP_HOST", ""),
			SMTPPort:  getEnvInt("SMTP_PORT", 587),
			Username:  getEnv("SMTP_USERNAME", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			FromEmail: getEnv("FROM_EMAIL", ""),
			FromName:  getEnv("FROM_NAME", "Postflow"),
			Enabled:   getEnv("EMAIL_ENABLED", "false") == "true",
			UseTLS:    true,
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "text"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
	}
}

func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func (cfg *Config) MongoURI() string {
	if cfg.MongoDB.Username == "" {
		return fmt.Sprintf("mongodb://%s:%s", cfg.MongoDB.Host, cfg.MongoDB.Port)
	}

	return fmt.Sprintf("mongodb://%s:%s@%s:%s",
		cfg.MongoDB.Username,
		cfg.MongoDB.Password,
		cfg.MongoDB.Host,
		cfg.MongoDB.Port,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
