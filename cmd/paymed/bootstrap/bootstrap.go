package bootstrap

import (
	"context"
	"encoding/json"
	"time"

	"github.com/payme/contracts/internal/platform/config"
	"github.com/payme/contracts/internal/platform/db"
	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/internal/platform/logger"
)

// NewContextWithLogger returns a Context carrying the root logger described by cfg. An invalid log
// config falls back to the default production logger.
func NewContextWithLogger(cfg *config.Config) context.Context {
	ctx := context.Background()

	if cfg == nil {
		return logger.NewContext()
	}

	ctx, err := logger.ContextWithConfig(ctx, logger.Config{
		Development: cfg.Log.Development,
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		File:        cfg.Log.File,
	})
	if err != nil {
		ctx = logger.NewContext()
		logger.Warn(ctx, "Invalid log config, using defaults : %s", err)
	}

	return ctx
}

// NewConfigFromEnv loads the config and logs it with secrets masked.
func NewConfigFromEnv(ctx context.Context) *config.Config {
	cfg, err := config.Environment()
	if err != nil {
		logger.Fatal(ctx, "Parsing Config : %s", err)
	}

	// Mask sensitive values
	cfgSafe := config.SafeConfig(*cfg)
	cfgJSON, err := json.MarshalIndent(cfgSafe, "", "    ")
	if err != nil {
		logger.Fatal(ctx, "Marshalling Config to JSON : %s", err)
	}
	logger.Info(ctx, "Config : %v", string(cfgJSON))

	return cfg
}

// NewMasterDB opens the configured storage.
func NewMasterDB(ctx context.Context, cfg *config.Config) *db.DB {
	masterDB, err := db.New(ctx, &db.StorageConfig{
		Bucket:     cfg.Storage.Bucket,
		Root:       cfg.Storage.Root,
		URL:        cfg.Storage.URL,
		MaxRetries: cfg.AWS.MaxRetries,
		RetryDelay: int(cfg.AWS.RetryDelay / time.Millisecond),
		Region:     cfg.AWS.Region,
		AccessKey:  cfg.AWS.AccessKeyID,
		Secret:     cfg.AWS.SecretAccessKey,
	})
	if err != nil {
		logger.Fatal(ctx, "Register DB : %s", err)
	}

	if err := masterDB.StatusCheck(ctx); err != nil {
		logger.Fatal(ctx, "DB status : %s", err)
	}

	return masterDB
}

// NewHost returns the host that serializes contract invocations over masterDB.
func NewHost(ctx context.Context, masterDB *db.DB, mw ...host.Middleware) *host.Host {
	h := host.New(masterDB, mw...)

	seq, err := h.Sequence(ctx)
	if err != nil {
		logger.Fatal(ctx, "Load ledger sequence : %s", err)
	}
	logger.Info(ctx, "Ledger sequence : %d", seq)

	return h
}
