package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"github.com/voxlink-ai/voxlink/pkg/logger"
)

// Config main configuration structure
type Config struct {
	Server Server           `mapstructure:"server"`
	AWS    AWS              `mapstructure:"aws"`
	ASR    ASR              `mapstructure:"asr"`
	Log    logger.LogConfig `mapstructure:"log"`
}

// Server HTTP/WebSocket listener configuration. The TLS paths use TLS_*
// names; SSL_CERT_FILE is taken by the OpenSSL CA-bundle convention and is
// commonly exported by container base images.
type Server struct {
	Port        int      `env:"PORT"`
	Mode        string   `env:"MODE"`
	CORSOrigins []string `env:"CORS_ORIGIN"`
	TLSCertFile string   `env:"TLS_CERT_FILE"`
	TLSKeyFile  string   `env:"TLS_KEY_FILE"`
}

// AWS shared AWS client configuration
type AWS struct {
	Region        string `env:"AWS_REGION"`
	DynamoDBTable string `env:"DYNAMODB_TABLE_NAME"`
}

// ASR streaming recognizer configuration
type ASR struct {
	Provider       string `env:"ASR_PROVIDER"` // "aws" or "deepgram"
	DeepgramAPIKey string `env:"DEEPGRAM_API_KEY"`
}

var GlobalConfig *Config

// Load reads configuration from the environment into GlobalConfig.
// A .env file is honored when present so local runs match deployments.
func Load() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		_ = godotenv.Load()
	} else {
		_ = godotenv.Load(".env." + env)
	}

	GlobalConfig = &Config{
		Server: Server{
			Port:        getIntOrDefault("PORT", 3001),
			Mode:        getStringOrDefault("MODE", "development"),
			CORSOrigins: splitCSV(os.Getenv("CORS_ORIGIN")),
			TLSCertFile: os.Getenv("TLS_CERT_FILE"),
			TLSKeyFile:  os.Getenv("TLS_KEY_FILE"),
		},
		AWS: AWS{
			Region:        getStringOrDefault("AWS_REGION", "us-east-1"),
			DynamoDBTable: os.Getenv("DYNAMODB_TABLE_NAME"),
		},
		ASR: ASR{
			Provider:       getStringOrDefault("ASR_PROVIDER", "aws"),
			DeepgramAPIKey: os.Getenv("DEEPGRAM_API_KEY"),
		},
		Log: logger.LogConfig{
			Level:      getStringOrDefault("LOG_LEVEL", "info"),
			Filename:   getStringOrDefault("LOG_FILENAME", "voxlink.log"),
			MaxSize:    getIntOrDefault("LOG_MAX_SIZE", 64),
			MaxAge:     getIntOrDefault("LOG_MAX_AGE", 14),
			MaxBackups: getIntOrDefault("LOG_MAX_BACKUPS", 7),
		},
	}

	return GlobalConfig.Validate()
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server port out of range")
	}
	switch c.ASR.Provider {
	case "aws":
	case "deepgram":
		if c.ASR.DeepgramAPIKey == "" {
			return errors.New("DEEPGRAM_API_KEY is required when ASR_PROVIDER=deepgram")
		}
	default:
		return errors.New("unsupported ASR provider: " + c.ASR.Provider)
	}
	// TLS needs both halves of the key pair.
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

// TLSEnabled reports whether the parallel TLS listener should start.
func (c *Config) TLSEnabled() bool {
	return c.Server.TLSCertFile != "" && c.Server.TLSKeyFile != ""
}

func getStringOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return cast.ToInt(value)
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
