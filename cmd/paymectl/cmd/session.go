package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/payme/contracts/internal/platform/config"
	"github.com/payme/contracts/internal/platform/db"
	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/internal/platform/logger"
	"github.com/payme/contracts/pkg/address"
	"github.com/payme/contracts/pkg/wallet"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var errNoKey = errors.New("No acting key, set --key or --mnemonic")

// session is the storage and host one command runs against.
type session struct {
	ctx  context.Context
	cfg  *config.Config
	db   *db.DB
	host *host.Host
}

func newSession() (*session, error) {
	cfg, err := config.Environment()
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}

	ctx, err := logger.ContextWithConfig(context.Background(), logger.Config{
		Development: cfg.Log.Development,
		Level:       "warn",
		Format:      "text",
		File:        cfg.Log.File,
	})
	if err != nil {
		return nil, errors.Wrap(err, "logger")
	}
	ctx = logger.ContextWithNamedLogger(ctx, "paymectl")

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
		return nil, errors.Wrap(err, "open storage")
	}

	return &session{
		ctx:  ctx,
		cfg:  cfg,
		db:   masterDB,
		host: host.New(masterDB),
	}, nil
}

func (s *session) close() {
	if err := s.db.Close(); err != nil {
		logger.Warn(s.ctx, "Close storage : %s", err)
	}
}

// invoke runs fn as one host invocation.
func (s *session) invoke(operation string, fn host.Handler) error {
	return s.host.Invoke(s.ctx, operation, fn)
}

// actorKey returns the key named by the flags, falling back to the environment.
func (s *session) actorKey(c *cobra.Command) (*address.Key, error) {
	keyHex, _ := c.Flags().GetString(FlagKey)
	if len(keyHex) == 0 {
		keyHex = s.cfg.Client.Key
	}
	if len(keyHex) > 0 {
		key, err := address.KeyFromHex(keyHex)
		if err != nil {
			return nil, errors.Wrap(err, "key")
		}
		return key, nil
	}

	mnemonic, _ := c.Flags().GetString(FlagMnemonic)
	if len(mnemonic) == 0 {
		mnemonic = s.cfg.Client.Mnemonic
	}
	if len(mnemonic) == 0 {
		return nil, errNoKey
	}

	passphrase, _ := c.Flags().GetString(FlagPassphrase)
	index, _ := c.Flags().GetUint32(FlagIndex)

	return wallet.DeriveKey(mnemonic, passphrase, index)
}

// actor returns the address of the acting key.
func (s *session) actor(c *cobra.Command) (address.Address, error) {
	key, err := s.actorKey(c)
	if err != nil {
		return address.Address{}, err
	}
	return key.Address(), nil
}

// withSession opens a session for the duration of fn.
func withSession(fn func(s *session) error) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	return fn(s)
}

func parseAddress(name, s string) (address.Address, error) {
	a, err := address.Decode(s)
	if err != nil {
		return address.Address{}, errors.Wrap(err, name)
	}
	return a, nil
}

func parseAmount(name, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, name)
	}
	return v, nil
}

func parseSequence(name, s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Wrap(err, name)
	}
	return uint32(v), nil
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", b)
	return nil
}
