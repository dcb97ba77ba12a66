package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Env names for values that must not live in the config file.
const (
	EnvConfigPath = "CONFIG_PATH"
	EnvAIKey      = "THREATDESK_AI_API_KEY"
	EnvBotToken   = "THREATDESK_BOT_TOKEN"
	EnvChatID     = "THREATDESK_CHAT_ID"
	EnvAPIKey     = "THREATDESK_API_KEY"
)

const DefaultPath = "config.yaml"

// Storage drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMinio    = "minio"
	DriverS3       = "s3"
)

type Config struct {
	Server struct {
		Addr        string   `yaml:"addr"`
		APIKey      string   `yaml:"apiKey"`
		CORSOrigins []string `yaml:"corsOrigins"`
		RateLimit   int      `yaml:"rateLimit"` // requests per second per client
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	AI struct {
		BaseURL  string        `yaml:"baseURL"`
		APIKey   string        `yaml:"apiKey"`
		Model    string        `yaml:"model"`
		Persona  string        `yaml:"persona"`
		Language string        `yaml:"language"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"ai"`

	Alert struct {
		Enabled  bool          `yaml:"enabled"`
		BaseURL  string        `yaml:"baseURL"`
		BotToken string        `yaml:"botToken"`
		ChatID   string        `yaml:"chatID"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"alert"`

	Scan struct {
		ProgressDelay time.Duration `yaml:"progressDelay"`
		SettleDelay   time.Duration `yaml:"settleDelay"`
		FeedInterval  time.Duration `yaml:"feedInterval"`
	} `yaml:"scan"`

	Storage struct {
		Driver string `yaml:"driver"`
		Dir    string `yaml:"dir"`    // file driver; empty means the XDG data dir
		Path   string `yaml:"path"`   // sqlite file; empty means in-memory
		Prefix string `yaml:"prefix"` // key prefix, lets several consoles share one backend

		Database struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			Name     string `yaml:"name"`
			SSLMode  string `yaml:"sslMode"`
		} `yaml:"database"`

		Minio struct {
			Endpoint   string `yaml:"endpoint"`
			AccessKey  string `yaml:"accessKey"`
			SecretKey  string `yaml:"secretKey"`
			BucketName string `yaml:"bucketName"`
			Region     string `yaml:"region"`
			UseSSL     bool   `yaml:"useSSL"`
		} `yaml:"minio"`

		// S3 talks to AWS or any S3-compatible endpoint through the AWS SDK.
		// Empty credentials fall back to the SDK's default chain.
		S3 struct {
			Endpoint     string `yaml:"endpoint"`
			Region       string `yaml:"region"`
			Bucket       string `yaml:"bucket"`
			AccessKey    string `yaml:"accessKey"`
			SecretKey    string `yaml:"secretKey"`
			UsePathStyle bool   `yaml:"usePathStyle"`
		} `yaml:"s3"`
	} `yaml:"storage"`
}

var (
	ErrMissingAIKey      = errors.New("ai.apiKey is required (or set " + EnvAIKey + ")")
	ErrMissingAlertCreds = errors.New("alert.botToken and alert.chatID are required when alerts are enabled")
	ErrUnknownDriver     = errors.New("unknown storage driver")
	ErrNegativeDelay     = errors.New("scan delays must be non-negative")
	ErrInvalidPrefix     = errors.New("storage.prefix cannot be used as a file name")
)

// filePrefix is what the file driver can turn into directories and file
// names: slash-separated parts of letters, digits, '_', '-' and '.', none
// starting with a dot.
var filePrefix = regexp.MustCompile(`^([A-Za-z0-9_-][A-Za-z0-9_.-]*/)*([A-Za-z0-9_-][A-Za-z0-9_.-]*)?$`)

// Default returns a config that runs a local console with file storage.
func Default() *Config {
	var c Config
	c.Server.Addr = "127.0.0.1:8088"
	c.Server.RateLimit = 5
	c.Log.Level = "info"
	c.Log.Format = "text"
	c.AI.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	c.AI.Model = "gemini-2.0-flash"
	c.AI.Persona = "You are an elite cyber security expert."
	c.AI.Language = "English"
	c.AI.Timeout = 60 * time.Second
	c.Alert.BaseURL = "https://api.telegram.org"
	c.Alert.Timeout = 10 * time.Second
	c.Scan.ProgressDelay = 800 * time.Millisecond
	c.Scan.SettleDelay = 500 * time.Millisecond
	c.Scan.FeedInterval = 4 * time.Second
	c.Storage.Driver = DriverFile
	c.Storage.Database.Port = 3306
	c.Storage.Database.SSLMode = "disable"
	c.Storage.Minio.BucketName = "threatdesk"
	c.Storage.S3.Region = "us-east-1"
	c.Storage.S3.Bucket = "threatdesk"
	return &c
}

// Load baca file config.yaml on top of the defaults. A missing file is not
// an error; env overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// PathFromEnv returns CONFIG_PATH or the default path.
func PathFromEnv() string {
	if v := os.Getenv(EnvConfigPath); v != "" {
		return v
	}
	return DefaultPath
}

func (c *Config) applyEnv() {
	set := func(dst *string, env string) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
	set(&c.AI.APIKey, EnvAIKey)
	set(&c.Alert.BotToken, EnvBotToken)
	set(&c.Alert.ChatID, EnvChatID)
	set(&c.Server.APIKey, EnvAPIKey)
}

// Validate checks what is needed to run scans. requireAI is false for
// commands that only touch history or the profile.
func (c *Config) Validate(requireAI bool) error {
	if requireAI && c.AI.APIKey == "" {
		return ErrMissingAIKey
	}
	if c.Alert.Enabled && (c.Alert.BotToken == "" || c.Alert.ChatID == "") {
		return ErrMissingAlertCreds
	}
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite, DriverMySQL, DriverPostgres, DriverMinio, DriverS3:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Storage.Driver)
	}
	if c.Storage.Driver == DriverFile && !filePrefix.MatchString(c.Storage.Prefix) {
		return fmt.Errorf("%w: %q", ErrInvalidPrefix, c.Storage.Prefix)
	}
	if c.Scan.ProgressDelay < 0 || c.Scan.SettleDelay < 0 {
		return ErrNegativeDelay
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	db := c.Storage.Database
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		db.User, db.Password, db.Host, db.Port, db.Name)
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	db := c.Storage.Database
	port := db.Port
	if port == 0 || port == 3306 {
		port = 5432
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, port, db.User, db.Password, db.Name, db.SSLMode)
}
