package tests

import (
	"context"
	"sync"

	"github.com/payme/contracts/pkg/storage"

	"github.com/pkg/errors"
)

// ErrMockStorage is returned by FailingStorage once its writes run out.
var ErrMockStorage = errors.New("Mock storage failure")

// ============================================================
// Ledger

// MockLedger is a ledger whose sequence tests move by hand.
type MockLedger struct {
	sequence uint32
	lock     sync.Mutex
}

// NewMockLedger returns a MockLedger at seq.
func NewMockLedger(seq uint32) *MockLedger {
	return &MockLedger{sequence: seq}
}

// Sequence implements host.Ledger.
func (l *MockLedger) Sequence(ctx context.Context) (uint32, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.sequence, nil
}

// Set moves the ledger to seq.
func (l *MockLedger) Set(seq uint32) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.sequence = seq
}

// ============================================================
// Storage

// FailingStorage wraps a Storage and fails every write after the first Writes.
type FailingStorage struct {
	storage.Storage
	Writes int
	lock   sync.Mutex
}

// NewFailingStorage returns a FailingStorage over memory storage that allows writes writes.
func NewFailingStorage(writes int) *FailingStorage {
	return &FailingStorage{
		Storage: storage.NewMemoryStorage(),
		Writes:  writes,
	}
}

func (s *FailingStorage) take() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.Writes <= 0 {
		return ErrMockStorage
	}
	s.Writes--
	return nil
}

// Write implements storage.Storage.
func (s *FailingStorage) Write(ctx context.Context, key string, body []byte,
	options *storage.Options) error {

	if err := s.take(); err != nil {
		return err
	}
	return s.Storage.Write(ctx, key, body, options)
}

// Remove implements storage.Storage.
func (s *FailingStorage) Remove(ctx context.Context, key string) error {
	if err := s.take(); err != nil {
		return err
	}
	return s.Storage.Remove(ctx, key)
}
