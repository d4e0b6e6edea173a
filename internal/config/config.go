package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	WebSocket WebSocketConfig
	Presence  PresenceConfig
	LogLevel  string

	// SeedDemoDocument creates the "demo-doc" welcome document at startup.
	SeedDemoDocument bool
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ClientOrigin string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type WebSocketConfig struct {
	MaxMessageBytes int64
	SendBuffer      int
}

type PresenceConfig struct {
	TTL time.Duration
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("CLIENT_ORIGIN", "http://localhost:3000")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "collaborative-editor")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MINIO_BUCKET", "collab-snapshots")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("WS_MAX_MESSAGE_BYTES", 1<<20)
	v.SetDefault("WS_SEND_BUFFER", 256)
	v.SetDefault("PRESENCE_TTL_SECONDS", 3600)
	v.SetDefault("SEED_DEMO_DOCUMENT", true)
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ClientOrigin: v.GetString("CLIENT_ORIGIN"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
		},
		WebSocket: WebSocketConfig{
			MaxMessageBytes: v.GetInt64("WS_MAX_MESSAGE_BYTES"),
			SendBuffer:      v.GetInt("WS_SEND_BUFFER"),
		},
		Presence: PresenceConfig{
			TTL: time.Duration(v.GetInt("PRESENCE_TTL_SECONDS")) * time.Second,
		},
		LogLevel:         v.GetString("LOG_LEVEL"),
		SeedDemoDocument: v.GetBool("SEED_DEMO_DOCUMENT"),
	}

	return cfg, nil
}

// Addr is the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// RedisAddr returns "" when Redis is not configured.
func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return c.Redis.Host + ":" + c.Redis.Port
}
