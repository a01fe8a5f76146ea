package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is used to hold all runtime configuration. Nested fields name their full variable, otherwise
// envconfig reads them as PAYME_NODE_..., PAYME_CLIENT_... and so on.
type Config struct {
	Node struct {
		ListenAddress       string        `default:"127.0.0.1:8080" envconfig:"PAYME_LISTEN_ADDRESS"`
		LedgerCloseInterval time.Duration `default:"5s" envconfig:"PAYME_LEDGER_CLOSE_INTERVAL"`
		RateLimit           float64       `default:"50" envconfig:"PAYME_RATE_LIMIT"` // mutating requests per second
		RateBurst           int           `default:"100" envconfig:"PAYME_RATE_BURST"`
		ShutdownTimeout     time.Duration `default:"10s" envconfig:"PAYME_SHUTDOWN_TIMEOUT"`
	}
	Log struct {
		Development bool   `default:"false" envconfig:"PAYME_LOG_DEVELOPMENT"`
		Level       string `default:"info" envconfig:"PAYME_LOG_LEVEL"`
		Format      string `default:"json" envconfig:"PAYME_LOG_FORMAT"`
		File        string `envconfig:"PAYME_LOG_FILE_PATH"`
	}
	AWS struct {
		Region          string        `default:"ap-southeast-2" envconfig:"AWS_REGION" json:"AWS_REGION"`
		AccessKeyID     string        `envconfig:"AWS_ACCESS_KEY_ID" json:"AWS_ACCESS_KEY_ID"`
		SecretAccessKey string        `envconfig:"AWS_SECRET_ACCESS_KEY" json:"AWS_SECRET_ACCESS_KEY"`
		MaxRetries      int           `default:"10" envconfig:"AWS_MAX_RETRIES"`
		RetryDelay      time.Duration `default:"2s" envconfig:"AWS_RETRY_DELAY"`
	}
	Storage struct {
		Bucket string `default:"standalone" envconfig:"PAYME_STORAGE_BUCKET"`
		Root   string `default:"./tmp" envconfig:"PAYME_STORAGE_ROOT"`
		URL    string `envconfig:"PAYME_STORAGE_URL"` // redis://, sqlite://, postgres://
	}
	Token struct {
		Name     string `default:"PaymeToken" envconfig:"PAYME_TOKEN_NAME"`
		Symbol   string `default:"PAYME" envconfig:"PAYME_TOKEN_SYMBOL"`
		Decimals uint8  `default:"7" envconfig:"PAYME_TOKEN_DECIMALS"`
	}
	Client struct {
		Key      string `envconfig:"PAYME_CLIENT_KEY"`
		Mnemonic string `envconfig:"PAYME_CLIENT_MNEMONIC"`
	}
}

const masked = "*** Masked ***"

// SafeConfig masks sensitive config values
func SafeConfig(cfg Config) *Config {
	cfgSafe := cfg

	if len(cfgSafe.AWS.AccessKeyID) > 0 {
		cfgSafe.AWS.AccessKeyID = masked
	}
	if len(cfgSafe.AWS.SecretAccessKey) > 0 {
		cfgSafe.AWS.SecretAccessKey = masked
	}
	if len(cfgSafe.Storage.URL) > 0 {
		cfgSafe.Storage.URL = masked
	}
	if len(cfgSafe.Client.Key) > 0 {
		cfgSafe.Client.Key = masked
	}
	if len(cfgSafe.Client.Mnemonic) > 0 {
		cfgSafe.Client.Mnemonic = masked
	}

	return &cfgSafe
}

// Environment returns configuration sourced from environment variables
func Environment() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PAYME", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
