package wallet

import (
	"github.com/payme/contracts/pkg/address"

	"github.com/pkg/errors"
	bip32 "github.com/tyler-smith/go-bip32"
	bip39 "github.com/tyler-smith/go-bip39"
)

// MnemonicEntropyBits gives 24 word mnemonics.
const MnemonicEntropyBits = 256

var (
	ErrInvalidMnemonic = errors.New("Mnemonic invalid")
)

// NewMnemonic returns a new random BIP-39 mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", errors.Wrap(err, "entropy")
	}

	return bip39.NewMnemonic(entropy)
}

// DeriveKey returns the key at hardened child index of the BIP-32 master key seeded by the
// mnemonic and passphrase.
func DeriveKey(mnemonic, passphrase string, index uint32) (*address.Key, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, passphrase)

	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(err, "master key")
	}

	child, err := master.NewChildKey(bip32.FirstHardenedChild + index)
	if err != nil {
		return nil, errors.Wrapf(err, "child key %d", index)
	}

	// child secrets are big-endian integers and can come back shorter than 32 bytes
	secret := child.Key
	if len(secret) < 32 {
		padded := make([]byte, 32)
		copy(padded[32-len(secret):], secret)
		secret = padded
	}

	return address.KeyFromBytes(secret)
}

// FromMnemonic returns a wallet holding the first count derived keys.
func FromMnemonic(mnemonic, passphrase string, count uint32) (*Wallet, error) {
	w := New()
	for i := uint32(0); i < count; i++ {
		key, err := DeriveKey(mnemonic, passphrase, i)
		if err != nil {
			return nil, err
		}
		w.Add(key)
	}
	return w, nil
}
