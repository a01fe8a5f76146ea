package wallet

/**
 * Wallet
 *
 * What is my purpose?
 * - You hold the keys that act for addresses
 */

import (
	"sort"
	"sync"

	"github.com/payme/contracts/pkg/address"

	"github.com/pkg/errors"
)

var (
	ErrKeyNotFound = errors.New("Key not found")
)

type Wallet struct {
	lock sync.RWMutex
	keys map[address.Address]*address.Key
}

func New() *Wallet {
	return &Wallet{
		keys: make(map[address.Address]*address.Key),
	}
}

func (w *Wallet) Add(key *address.Key) {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.keys[key.Address()] = key
}

// Register adds a key from the hex encoding of its secret and returns its address.
func (w *Wallet) Register(secret string) (address.Address, error) {
	if len(secret) == 0 {
		return address.Address{}, errors.New("Register key failed: missing secret")
	}

	key, err := address.KeyFromHex(secret)
	if err != nil {
		return address.Address{}, err
	}

	w.Add(key)
	return key.Address(), nil
}

func (w *Wallet) Get(a address.Address) (*address.Key, error) {
	w.lock.RLock()
	defer w.lock.RUnlock()

	key, exists := w.keys[a]
	if !exists {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

// ListAll returns the keys ordered by address.
func (w *Wallet) ListAll() []*address.Key {
	w.lock.RLock()
	defer w.lock.RUnlock()

	result := make([]*address.Key, 0, len(w.keys))
	for _, key := range w.keys {
		result = append(result, key)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Address().Compare(result[j].Address()) < 0
	})
	return result
}
