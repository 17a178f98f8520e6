package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// MailDomain is the shared domain aliases live under.
	MailDomain string `env:"MAIL_DOMAIN, default=mael.example"`

	Auth   AuthConfig
	Ingest IngestConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	S3     S3Config
	SMTP   SMTPConfig
}

type AuthConfig struct {
	// SessionTTL bounds how long a login session stays valid.
	SessionTTL time.Duration `env:"SESSION_TTL,       default=720h"`
	// ResetTTL bounds how long a password-reset token stays valid.
	ResetTTL time.Duration `env:"RESET_TOKEN_TTL,   default=1h"`
	// PBKDF2Iterations is the default work factor for new password hashes.
	// It must fall within the hasher's accepted range.
	PBKDF2Iterations int `env:"PBKDF2_ITERATIONS, default=100000"`
	// DefaultAliasLimit is granted to every new account at signup.
	DefaultAliasLimit int `env:"DEFAULT_ALIAS_LIMIT, default=10"`
	// SecureCookies marks session cookies Secure; enable behind TLS.
	SecureCookies bool `env:"SECURE_COOKIES, default=false"`
	// SweepInterval rate-limits the opportunistic expiry sweep.
	SweepInterval time.Duration `env:"SWEEP_INTERVAL, default=1m"`
}

type IngestConfig struct {
	// JWTSecret authenticates the inbound delivery agent on /v1/ingest.
	JWTSecret string `env:"INGEST_JWT_SECRET"`
	// Workers is the size of the ingestion worker pool.
	Workers int `env:"INGEST_WORKERS, default=4"`
	// MaxMessageBytes caps the accepted raw message size.
	MaxMessageBytes int64 `env:"INGEST_MAX_BYTES, default=10485760"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=mael"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type S3Config struct {
	Region    string `env:"S3_REGION,    default=us-east-1"`
	Bucket    string `env:"S3_BUCKET,    default=mael-messages"`
	Endpoint  string `env:"S3_ENDPOINT"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
}

type SMTPConfig struct {
	// Addr is the outbound relay; empty disables real sends.
	Addr      string `env:"SMTP_ADDR"`
	From      string `env:"SMTP_FROM,  default=no-reply@mael.example"`
	ResetLink string `env:"RESET_LINK, default=https://mael.example/reset"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return &cfg, nil
}
