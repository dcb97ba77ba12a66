package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mitchellh/go-homedir"

	appai "github.com/bryanwahyu/threatdesk/internal/application/ai"
	appscans "github.com/bryanwahyu/threatdesk/internal/application/scans"
	"github.com/bryanwahyu/threatdesk/internal/config"
	"github.com/bryanwahyu/threatdesk/internal/domain/alert"
	"github.com/bryanwahyu/threatdesk/internal/domain/records"
	"github.com/bryanwahyu/threatdesk/internal/infra/ai/openai"
	"github.com/bryanwahyu/threatdesk/internal/infra/alert/telegram"
	"github.com/bryanwahyu/threatdesk/internal/infra/db/mysql"
	"github.com/bryanwahyu/threatdesk/internal/infra/db/postgres"
	"github.com/bryanwahyu/threatdesk/internal/infra/db/sqlite"
	inforecords "github.com/bryanwahyu/threatdesk/internal/infra/records"
	"github.com/bryanwahyu/threatdesk/internal/infra/storage"
	"github.com/bryanwahyu/threatdesk/internal/metrics"
)

// app is everything a command needs, built from one config.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	store   records.Store
	console *appscans.Console
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, requireAI bool) (*app, error) {
	if err := cfg.Validate(requireAI); err != nil {
		return nil, err
	}
	m := metrics.New()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	store = inforecords.WithPrefix(store, cfg.Storage.Prefix)

	notifier, err := newNotifier(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	client := openai.NewClient(openai.Options{
		BaseURL:    cfg.AI.BaseURL,
		APIKey:     cfg.AI.APIKey,
		Model:      cfg.AI.Model,
		Persona:    cfg.AI.Persona,
		Language:   cfg.AI.Language,
		HTTPClient: &http.Client{Timeout: cfg.AI.Timeout},
	})

	console := appscans.NewConsole(ctx, appscans.Deps{
		Analyzer:      appai.NewService(client, logger, m),
		Relay:         notifier,
		Profiles:      inforecords.NewProfileRepository(store, logger),
		History:       inforecords.NewScanLogRepository(store, logger),
		Logger:        logger,
		Metrics:       m,
		ProgressDelay: cfg.Scan.ProgressDelay,
		SettleDelay:   cfg.Scan.SettleDelay,
		RelayTimeout:  cfg.Alert.Timeout,
	})

	return &app{cfg: cfg, logger: logger, metrics: m, store: store, console: console}, nil
}

// Close waits for pending relays, then releases the store.
func (a *app) Close() {
	a.console.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close storage", "error", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (records.Store, error) {
	s := cfg.Storage
	switch s.Driver {
	case config.DriverFile:
		dir := s.Dir
		if dir == "" {
			dir = storage.DefaultDir()
		}
		dir, err := homedir.Expand(dir)
		if err != nil {
			return nil, err
		}
		return storage.NewFileStore(dir)
	case config.DriverSQLite:
		path, err := homedir.Expand(s.Path)
		if err != nil {
			return nil, err
		}
		return sqlite.Open(ctx, path)
	case config.DriverMySQL:
		db, err := mysql.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, err
		}
		repo, err := mysql.NewRecordRepository(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return repo, nil
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		repo, err := postgres.NewRecordRepository(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return repo, nil
	case config.DriverMinio:
		return storage.NewMinio(ctx,
			s.Minio.Endpoint,
			s.Minio.Region,
			s.Minio.BucketName,
			s.Minio.AccessKey,
			s.Minio.SecretKey,
			s.Minio.UseSSL,
		)
	case config.DriverS3:
		return storage.NewS3(ctx, storage.S3Options{
			Endpoint:        s.S3.Endpoint,
			Region:          s.S3.Region,
			Bucket:          s.S3.Bucket,
			AccessKeyID:     s.S3.AccessKey,
			SecretAccessKey: s.S3.SecretKey,
			UsePathStyle:    s.S3.UsePathStyle,
		})
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, s.Driver)
}

func newNotifier(cfg *config.Config) (alert.Notifier, error) {
	if !cfg.Alert.Enabled {
		return alert.Nop{}, nil
	}
	return telegram.NewClient(telegram.Options{
		BaseURL:    cfg.Alert.BaseURL,
		Token:      cfg.Alert.BotToken,
		ChatID:     cfg.Alert.ChatID,
		HTTPClient: &http.Client{Timeout: cfg.Alert.Timeout},
	})
}
