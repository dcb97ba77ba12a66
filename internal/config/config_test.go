package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAIKey, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Driver != DriverFile {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, DriverFile)
	}
	if cfg.Scan.ProgressDelay != 800*time.Millisecond || cfg.Scan.SettleDelay != 500*time.Millisecond {
		t.Errorf("scan delays = %v/%v", cfg.Scan.ProgressDelay, cfg.Scan.SettleDelay)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  addr: ":9000"
ai:
  apiKey: from-file
  model: gpt-4o-mini
alert:
  enabled: true
  chatID: "42"
scan:
  progressDelay: 0s
storage:
  driver: sqlite
  path: /tmp/td.db
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvAIKey, "")
	t.Setenv(EnvBotToken, "123:abc")
	t.Setenv(EnvChatID, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.AI.Model != "gpt-4o-mini" || cfg.AI.APIKey != "from-file" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Alert.BotToken != "123:abc" || cfg.Alert.ChatID != "42" {
		t.Errorf("alert creds = %q/%q", cfg.Alert.BotToken, cfg.Alert.ChatID)
	}
	if cfg.Scan.ProgressDelay != 0 || cfg.Scan.SettleDelay != 500*time.Millisecond {
		t.Errorf("scan delays = %v/%v", cfg.Scan.ProgressDelay, cfg.Scan.SettleDelay)
	}
	if cfg.AI.BaseURL == "" {
		t.Error("default base URL lost after partial file")
	}
	if err := cfg.Validate(true); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: ["), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() accepted malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(c *Config)
		requireAI bool
		wantErr   error
	}{
		{name: "defaults without ai", mutate: func(*Config) {}},
		{name: "ai key required for scans", mutate: func(*Config) {}, requireAI: true, wantErr: ErrMissingAIKey},
		{
			name:    "alerts need credentials",
			mutate:  func(c *Config) { c.Alert.Enabled = true; c.Alert.BotToken = "t" },
			wantErr: ErrMissingAlertCreds,
		},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "redis" }, wantErr: ErrUnknownDriver},
		{name: "file prefix with directory", mutate: func(c *Config) { c.Storage.Prefix = "team/blue-" }},
		{name: "file prefix climbing out", mutate: func(c *Config) { c.Storage.Prefix = "../team/" }, wantErr: ErrInvalidPrefix},
		{name: "file prefix with space", mutate: func(c *Config) { c.Storage.Prefix = "red team/" }, wantErr: ErrInvalidPrefix},
		{name: "file prefix with empty part", mutate: func(c *Config) { c.Storage.Prefix = "team//" }, wantErr: ErrInvalidPrefix},
		{
			name:   "other drivers take any prefix",
			mutate: func(c *Config) { c.Storage.Driver = DriverSQLite; c.Storage.Prefix = "red team/" },
		},
		{name: "negative delay", mutate: func(c *Config) { c.Scan.SettleDelay = -time.Second }, wantErr: ErrNegativeDelay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate(tt.requireAI)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Storage.Database.Host = "db"
	cfg.Storage.Database.User = "u"
	cfg.Storage.Database.Password = "p"
	cfg.Storage.Database.Name = "td"

	if got, want := cfg.MySQLDSN(), "u:p@tcp(db:3306)/td?parseTime=true&charset=utf8mb4&loc=UTC"; got != want {
		t.Errorf("MySQLDSN() = %q, want %q", got, want)
	}
	if got, want := cfg.PostgresDSN(), "host=db port=5432 user=u password=p dbname=td sslmode=disable"; got != want {
		t.Errorf("PostgresDSN() = %q, want %q", got, want)
	}
}
