package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	Cache    CacheConfig    `yaml:"cache"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Chat     ChatConfig     `yaml:"chat"`
	Client   ClientConfig   `yaml:"client"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int     `yaml:"port"`
	Host           string  `yaml:"host"`
	AuthRateLimit  float64 `yaml:"auth_rate_limit"` // requests per second per client IP
	AuthRateBurst  int     `yaml:"auth_rate_burst"`
	MaxUploadBytes int64   `yaml:"max_upload_bytes"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres | memory
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// AWSConfig holds S3 storage configuration
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"` // S3-compatible endpoint, path-style addressing when set
	PublicURL string `yaml:"public_url"`
}

// JWTConfig holds token and password reset configuration
type JWTConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
	ResetTTL time.Duration `yaml:"reset_ttl"`
	ResetURL string        `yaml:"reset_url"`
}

// CacheConfig selects the store for revoked tokens and reset tokens
type CacheConfig struct {
	Driver        string `yaml:"driver"` // memory | redis
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// SMTPConfig holds outgoing mail configuration; an empty host logs mails instead of sending
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// ChatConfig holds the conversational webhook configuration
type ChatConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ClientConfig holds command-line client configuration
type ClientConfig struct {
	APIURL      string        `yaml:"api_url"`
	SessionFile string        `yaml:"session_file"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

// Load reads configuration from a YAML file, then applies .env and environment overrides.
// A missing file is not an error: defaults and the environment are enough for the client.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"CITYTOURS_DB_DRIVER":      &c.Database.Driver,
		"CITYTOURS_DB_HOST":        &c.Database.Host,
		"CITYTOURS_DB_USER":        &c.Database.User,
		"CITYTOURS_DB_PASSWORD":    &c.Database.Password,
		"CITYTOURS_DB_NAME":        &c.Database.DBName,
		"CITYTOURS_JWT_SECRET":     &c.JWT.Secret,
		"CITYTOURS_S3_BUCKET":      &c.AWS.S3Bucket,
		"CITYTOURS_S3_ENDPOINT":    &c.AWS.Endpoint,
		"AWS_REGION":               &c.AWS.Region,
		"AWS_ACCESS_KEY_ID":        &c.AWS.AccessKey,
		"AWS_SECRET_ACCESS_KEY":    &c.AWS.SecretKey,
		"CITYTOURS_REDIS_ADDR":     &c.Cache.RedisAddr,
		"CITYTOURS_REDIS_PASSWORD": &c.Cache.RedisPassword,
		"CITYTOURS_SMTP_HOST":      &c.SMTP.Host,
		"CITYTOURS_SMTP_USER":      &c.SMTP.User,
		"CITYTOURS_SMTP_PASSWORD":  &c.SMTP.Password,
		"CITYTOURS_CHAT_URL":       &c.Chat.BaseURL,
		"CITYTOURS_API_URL":        &c.Client.APIURL,
		"CITYTOURS_LOG_LEVEL":      &c.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"CITYTOURS_PORT":      &c.Server.Port,
		"CITYTOURS_DB_PORT":   &c.Database.Port,
		"CITYTOURS_SMTP_PORT": &c.SMTP.Port,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.AuthRateLimit == 0 {
		c.Server.AuthRateLimit = 5
	}
	if c.Server.AuthRateBurst == 0 {
		c.Server.AuthRateBurst = 10
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 5 << 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.AWS.Region == "" {
		c.AWS.Region = "us-east-1"
	}
	if c.JWT.TokenTTL == 0 {
		c.JWT.TokenTTL = 7 * 24 * time.Hour
	}
	if c.JWT.ResetTTL == 0 {
		c.JWT.ResetTTL = time.Hour
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Chat.Timeout == 0 {
		c.Chat.Timeout = 5 * time.Second
	}
	if c.Client.APIURL == "" {
		c.Client.APIURL = "http://localhost:8080"
	}
	if c.Client.SessionFile == "" {
		c.Client.SessionFile = defaultSessionFile()
	}
	if c.Client.Timeout == 0 {
		c.Client.Timeout = 15 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".city-tours-session.yaml"
	}
	return dir + "/city-tours/session.yaml"
}

// Validate checks the settings required to run the server
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Server.AuthRateLimit < 0 || c.Server.AuthRateBurst < 0 {
		return errors.New("server.auth_rate_limit and server.auth_rate_burst must not be negative")
	}
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required for the redis cache driver")
		}
	default:
		return fmt.Errorf("unsupported cache driver %q", c.Cache.Driver)
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL returns the PostgreSQL connection URL used by the migrator
func (c *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}
