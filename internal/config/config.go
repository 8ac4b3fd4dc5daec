package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
		Mode            string        `yaml:"mode" env:"SERVER_MODE" env-default:"development"`
		ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
		MaxUploadBytes  int64         `yaml:"max_upload_bytes" env:"SERVER_MAX_UPLOAD_BYTES" env-default:"8388608"`
	} `yaml:"server"`

	Database struct {
		Host            string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
		Port            string        `yaml:"port" env:"DB_PORT" env-default:"5432"`
		User            string        `yaml:"user" env:"DB_USER" env-default:"postgres"`
		Password        string        `yaml:"password" env:"DB_PASSWORD" env-default:"postgres"`
		DBName          string        `yaml:"dbname" env:"DB_NAME" env-default:"library"`
		SSLMode         string        `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
		MaxOpenConns    int32         `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"20"`
		MaxIdleConns    int32         `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"2"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
		MigrationsDir   string        `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR" env-default:"migrations"`
	} `yaml:"database"`

	JWT struct {
		Secret                string        `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration time.Duration `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION" env-default:"24h"`
		Issuer                string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"librarium"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
		Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	} `yaml:"logging"`

	Mail struct {
		// Driver is "smtp" or "log"
		Driver        string        `yaml:"driver" env:"MAIL_DRIVER" env-default:"log"`
		Host          string        `yaml:"host" env:"MAIL_SERVER" env-default:"localhost"`
		Port          int           `yaml:"port" env:"MAIL_PORT" env-default:"587"`
		Username      string        `yaml:"username" env:"MAIL_USERNAME"`
		Password      string        `yaml:"password" env:"MAIL_PASSWORD"`
		UseTLS        bool          `yaml:"use_tls" env:"MAIL_USE_TLS"`
		UseSSL        bool          `yaml:"use_ssl" env:"MAIL_USE_SSL"`
		DefaultSender string        `yaml:"default_sender" env:"MAIL_DEFAULT_SENDER" env-default:"Library <noreply@library.local>"`
		Timeout       time.Duration `yaml:"timeout" env:"MAIL_TIMEOUT" env-default:"10s"`
	} `yaml:"mail"`

	Redis struct {
		// Addr empty means the in-process cache is used
		Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
		Password string        `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
		Prefix   string        `yaml:"prefix" env:"REDIS_PREFIX" env-default:"library:"`
		StatsTTL time.Duration `yaml:"stats_ttl" env:"REDIS_STATS_TTL" env-default:"30s"`
	} `yaml:"redis"`

	Storage struct {
		// Driver is "local" or "minio"
		Driver    string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"local"`
		LocalPath string `yaml:"local_path" env:"STORAGE_LOCAL_PATH" env-default:"uploads"`
		PublicURL string `yaml:"public_url" env:"STORAGE_PUBLIC_URL" env-default:"/uploads"`
		MinIO     struct {
			Endpoint  string        `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
			AccessKey string        `yaml:"access_key" env:"MINIO_USER" env-default:"minioadmin"`
			SecretKey string        `yaml:"secret_key" env:"MINIO_PASSWORD" env-default:"minioadmin"`
			Bucket    string        `yaml:"bucket" env:"MINIO_BUCKET" env-default:"forum-photos"`
			UseSSL    bool          `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
			URLExpiry time.Duration `yaml:"url_expiry" env:"MINIO_URL_EXPIRY" env-default:"24h"`
		} `yaml:"minio"`
	} `yaml:"storage"`
}

// LoadConfig loads configuration from an optional .env file, a YAML file and
// environment variables, in increasing order of precedence.
func LoadConfig(configPath, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets defaults that env-default cannot express. cleanenv treats
// a false bool as unset, so a true default has to be in place before parsing.
func setDefaults(config *Config) {
	config.Mail.UseTLS = true
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if config.JWT.AccessTokenExpiration <= 0 {
		return fmt.Errorf("JWT access token expiration must be positive")
	}

	switch strings.ToLower(config.Mail.Driver) {
	case "smtp", "log":
	default:
		return fmt.Errorf("unsupported mail driver %q", config.Mail.Driver)
	}

	if config.Mail.UseTLS && config.Mail.UseSSL {
		return fmt.Errorf("mail use_tls and use_ssl are mutually exclusive")
	}

	switch strings.ToLower(config.Storage.Driver) {
	case "local", "minio":
	default:
		return fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     c.Database.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// IsProduction reports whether the server runs in release mode
func (c *Config) IsProduction() bool {
	mode := strings.ToLower(c.Server.Mode)
	return mode == "production" || mode == "release"
}
