package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/matcha/internal/auth"
	"github.com/redmonkez12/matcha/internal/blob"
	"github.com/redmonkez12/matcha/internal/config"
	"github.com/redmonkez12/matcha/internal/database"
	"github.com/redmonkez12/matcha/internal/email"
	"github.com/redmonkez12/matcha/internal/logging"
	"github.com/redmonkez12/matcha/internal/photo"
	"github.com/redmonkez12/matcha/internal/ratelimit"
	"github.com/redmonkez12/matcha/internal/store"
	"github.com/redmonkez12/matcha/internal/store/memstore"
	"github.com/redmonkez12/matcha/internal/store/postgres"
)

// initDB opens the PostgreSQL pool configured in cfg.
func initDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	return database.Open(ctx, cfg.ConnectionString(), database.PoolOptions{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
}

// initStore returns the configured store and a cleanup func.
func initStore(ctx context.Context, cfg *config.Config, migrate bool, logger *logging.Logger) (store.Store, func(), error) {
	if cfg.Store.Driver == "memory" {
		logger.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), func() {}, nil
	}

	sqlDB, err := initDB(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	if migrate {
		if err := database.MigrateUp(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
	}

	db := database.NewBunDB(sqlDB)
	return postgres.New(db), func() { db.Close() }, nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// initRateLimiter falls back to the no-op limiter when Redis is disabled.
func initRateLimiter(ctx context.Context, cfg config.RedisConfig, logger *logging.Logger) (auth.RateLimiter, func(), error) {
	if !cfg.Enabled {
		logger.Warn("redis disabled, rate limiting is off")
		return ratelimit.Noop{}, func() {}, nil
	}

	client, err := initRedis(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return ratelimit.NewLimiter(client), func() { client.Close() }, nil
}

func initMailer(cfg config.EmailConfig, logger *logging.Logger) (*email.Service, error) {
	var sender email.Sender
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, emails are logged instead of sent")
		sender = email.NewLogSender(logger)
	} else {
		sender = email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	}
	return email.NewService(sender, cfg.From, logger)
}

// initBlobs returns the photo blob store. disk is non-nil when photos live
// on local disk and must be served by the router.
func initBlobs(ctx context.Context, cfg config.BlobConfig) (photo.BlobStore, *blob.Disk, error) {
	if cfg.Driver == "s3" {
		s3Store, err := blob.NewS3(ctx, blob.S3Options{
			Bucket:     cfg.S3Bucket,
			Region:     cfg.S3Region,
			Endpoint:   cfg.S3Endpoint,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			PublicBase: cfg.S3PublicBase,
		})
		if err != nil {
			return nil, nil, err
		}
		return s3Store, nil, nil
	}

	disk, err := blob.NewDisk(cfg.UploadDir, cfg.PublicPrefix)
	if err != nil {
		return nil, nil, err
	}
	return disk, disk, nil
}
