package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	AWS       AWSConfig       `yaml:"aws"`
	APNS      APNSConfig      `yaml:"apns"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Compat    CompatConfig    `yaml:"compat"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MigrationsDir   string        `yaml:"migrations_dir"`
}

// RedisConfig holds the pair cache connection. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PairTTL  time.Duration `yaml:"pair_ttl"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// AWSConfig holds the avatar bucket. An empty S3Bucket disables avatar uploads.
type AWSConfig struct {
	Region        string `yaml:"region"`
	S3Bucket      string `yaml:"s3_bucket"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Endpoint      string `yaml:"endpoint"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// APNSConfig holds push notification credentials. An empty KeyFile disables push.
type APNSConfig struct {
	KeyFile    string `yaml:"key_file"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// RateLimitConfig holds per-caller limits. A zero RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// CompatConfig re-enables legacy authorization behaviour
type CompatConfig struct {
	LegacyAnswerCheck bool `yaml:"legacy_answer_check"`
	LegacyLoveCheck   bool `yaml:"legacy_love_check"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used for anything the file leaves out
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MigrationsDir:   "migrations",
		},
		Redis:     RedisConfig{PairTTL: 10 * time.Minute},
		JWT:       JWTConfig{TTL: 365 * 24 * time.Hour},
		RateLimit: RateLimitConfig{RPS: 20, Burst: 40},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads configuration from a YAML file, then applies LOVEBOX_* environment
// overrides. A .env file in the working directory is loaded first when present.
// A missing config file is not an error; defaults and the environment apply.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"LOVEBOX_SERVER_HOST":       &c.Server.Host,
		"LOVEBOX_DB_DRIVER":         &c.Database.Driver,
		"LOVEBOX_DB_HOST":           &c.Database.Host,
		"LOVEBOX_DB_USER":           &c.Database.User,
		"LOVEBOX_DB_PASSWORD":       &c.Database.Password,
		"LOVEBOX_DB_NAME":           &c.Database.DBName,
		"LOVEBOX_DB_SSLMODE":        &c.Database.SSLMode,
		"LOVEBOX_DB_MIGRATIONS_DIR": &c.Database.MigrationsDir,
		"LOVEBOX_REDIS_ADDR":        &c.Redis.Addr,
		"LOVEBOX_REDIS_PASSWORD":    &c.Redis.Password,
		"LOVEBOX_JWT_SECRET":        &c.JWT.Secret,
		"LOVEBOX_AWS_REGION":        &c.AWS.Region,
		"LOVEBOX_AWS_S3_BUCKET":     &c.AWS.S3Bucket,
		"LOVEBOX_AWS_ACCESS_KEY":    &c.AWS.AccessKey,
		"LOVEBOX_AWS_SECRET_KEY":    &c.AWS.SecretKey,
		"LOVEBOX_AWS_ENDPOINT":      &c.AWS.Endpoint,
		"LOVEBOX_AWS_PUBLIC_URL":    &c.AWS.PublicBaseURL,
		"LOVEBOX_APNS_KEY_FILE":     &c.APNS.KeyFile,
		"LOVEBOX_APNS_KEY_ID":       &c.APNS.KeyID,
		"LOVEBOX_APNS_TEAM_ID":      &c.APNS.TeamID,
		"LOVEBOX_APNS_TOPIC":        &c.APNS.Topic,
		"LOVEBOX_LOG_LEVEL":         &c.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"LOVEBOX_SERVER_PORT": &c.Server.Port,
		"LOVEBOX_DB_PORT":     &c.Database.Port,
		"LOVEBOX_REDIS_DB":    &c.Redis.DB,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
	}

	if v, ok := os.LookupEnv("LOVEBOX_JWT_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LOVEBOX_JWT_TTL: %w", err)
		}
		c.JWT.TTL = d
	}

	bools := map[string]*bool{
		"LOVEBOX_APNS_PRODUCTION":      &c.APNS.Production,
		"LOVEBOX_COMPAT_LEGACY_ANSWER": &c.Compat.LegacyAnswerCheck,
		"LOVEBOX_COMPAT_LEGACY_LOVE":   &c.Compat.LegacyLoveCheck,
	}
	for key, dst := range bools {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.APNS.KeyFile != "" && (c.APNS.KeyID == "" || c.APNS.TeamID == "" || c.APNS.Topic == "") {
		return errors.New("apns.key_id, apns.team_id and apns.topic are required with apns.key_file")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
