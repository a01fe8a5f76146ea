package tests

import (
	"context"
	"time"

	"github.com/payme/contracts/internal/platform/db"
	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/internal/platform/logger"
	"github.com/payme/contracts/pkg/address"
	"github.com/payme/contracts/pkg/storage"
	"github.com/payme/contracts/pkg/wallet"

	"github.com/pkg/errors"
)

// Test holds the shared fixtures for contract tests.
type Test struct {
	DB     *db.DB
	Ledger *MockLedger
	Wallet *wallet.Wallet
	Admin  *address.Key
	Users  []*address.Key
	Now    time.Time
}

// New returns a Test over in memory storage with an admin key and userCount user keys.
func New(userCount int) (*Test, error) {
	test := &Test{
		DB:     db.NewWithStorage(storage.NewMemoryStorage()),
		Ledger: NewMockLedger(host.GenesisSequence),
		Wallet: wallet.New(),
		Now:    time.Unix(1700000000, 0),
	}

	var err error
	test.Admin, err = test.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to generate admin key")
	}

	for i := 0; i < userCount; i++ {
		key, err := test.GenerateKey()
		if err != nil {
			return nil, errors.Wrap(err, "Failed to generate user key")
		}
		test.Users = append(test.Users, key)
	}

	return test, nil
}

// Close releases the DB.
func (test *Test) Close(ctx context.Context) {
	if test.DB != nil {
		test.DB.Close()
	}
}

// Context returns a Context as seen by an invoked operation, with a silent logger.
func (test *Test) Context(ctx context.Context, operation string) context.Context {
	seq, _ := test.Ledger.Sequence(ctx)

	v := host.Values{
		TraceID:   "test",
		Operation: operation,
		Now:       test.Now,
		Sequence:  seq,
	}
	ctx = context.WithValue(ctx, host.KeyValues, &v)

	return logger.ContextWithNoLogger(ctx)
}

// GenerateKey creates a key and adds it to the wallet.
func (test *Test) GenerateKey() (*address.Key, error) {
	key, err := address.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to generate key")
	}

	test.Wallet.Add(key)
	return key, nil
}

// User returns the address of user i.
func (test *Test) User(i int) address.Address {
	return test.Users[i].Address()
}
