package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config selects and configures the storage backend.
type Config struct {
	// DataDir holds the local database.
	DataDir string `mapstructure:"dataDir"`
	// DatabaseURL is the hosted Postgres DSN. Empty means local only.
	DatabaseURL string   `mapstructure:"databaseUrl"`
	S3          S3Config `mapstructure:"s3"`
	// Debug logs every SQL statement.
	Debug bool `mapstructure:"debug"`
}

// RemoteConfigured reports whether a hosted database was configured.
func (c Config) RemoteConfigured() bool { return c.DatabaseURL != "" }

// ObjectStorageConfigured reports whether a bucket endpoint or credentials
// were configured.
func (c Config) ObjectStorageConfigured() bool {
	return c.S3.Endpoint != "" || c.S3.AccessKeyID != ""
}

// Open probes the configured backends once and returns the one to use for
// the whole process. Without a hosted database, or when it cannot be
// reached, the local store is returned.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	local, err := NewLocalBackend(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if !cfg.RemoteConfigured() {
		logger.Debug("storage backend selected", "backend", local.Name(), "dir", cfg.DataDir)
		return local, nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	remote, err := openRemote(probeCtx, cfg, logger)
	if err != nil {
		logger.Warn("remote storage unavailable, using local store", "error", err)
		return local, nil
	}

	logger.Debug("storage backend selected", "backend", "remote", "object_storage", remote.Capabilities().ObjectStorage)
	return newMirrored(remote, local, logger), nil
}

func openRemote(ctx context.Context, cfg Config, logger *slog.Logger) (*RemoteBackend, error) {
	db, err := OpenPostgres(cfg.DatabaseURL, cfg.Debug, logger)
	if err != nil {
		return nil, err
	}

	var objects ObjectStore
	if cfg.ObjectStorageConfigured() {
		s3Store, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			logger.Warn("object storage disabled", "error", err)
		} else if err := s3Store.Probe(ctx); err != nil {
			logger.Warn("object storage disabled", "error", err)
		} else {
			objects = s3Store
		}
	}

	remote := NewRemoteBackend(db, objects, logger)
	if err := remote.Probe(ctx); err != nil {
		_ = remote.Close()
		return nil, err
	}
	if err := remote.Migrate(ctx); err != nil {
		_ = remote.Close()
		return nil, err
	}
	return remote, nil
}

// OpenPostgres connects gorm to dsn with SQL logging routed through logger.
func OpenPostgres(dsn string, debug bool, logger *slog.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	gormLogger := slogGorm.New(
		slogGorm.WithHandler(logger.Handler()),
		slogGorm.WithTraceAll(),
		slogGorm.WithSlowThreshold(500*time.Millisecond),
	).LogMode(level)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}
