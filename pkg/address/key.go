package address

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

var (
	// ErrBadKeyLength occurs when private key data is not 32 bytes.
	ErrBadKeyLength = errors.New("Key has invalid length")

	// ErrBadSignature occurs when a signature does not verify against the public key.
	ErrBadSignature = errors.New("Signature invalid")
)

// Key is a secp256k1 private key that acts for the Address of its public key.
type Key struct {
	privateKey *btcec.PrivateKey
}

// GenerateKey creates a new random key.
func GenerateKey() (*Key, error) {
	pk, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return nil, errors.Wrap(err, "generate key")
	}
	return &Key{privateKey: pk}, nil
}

// KeyFromBytes returns a key from its 32 byte secret.
func KeyFromBytes(b []byte) (*Key, error) {
	if len(b) != 32 {
		return nil, ErrBadKeyLength
	}
	pk, _ := btcec.PrivKeyFromBytes(btcec.S256(), b)
	return &Key{privateKey: pk}, nil
}

// KeyFromHex returns a key from the hex encoding of its 32 byte secret.
func KeyFromHex(s string) (*Key, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decode hex")
	}
	return KeyFromBytes(b)
}

// Bytes returns the 32 byte secret.
func (k *Key) Bytes() []byte {
	return k.privateKey.Serialize()
}

// Hex returns the hex encoding of the secret.
func (k *Key) Hex() string {
	return hex.EncodeToString(k.Bytes())
}

// PublicKey returns the compressed public key.
func (k *Key) PublicKey() []byte {
	return k.privateKey.PubKey().SerializeCompressed()
}

// Address returns the address the key acts for.
func (k *Key) Address() Address {
	return FromPublicKey(k.PublicKey())
}

// Sign returns a DER signature of the double SHA256 of msg.
func (k *Key) Sign(msg []byte) ([]byte, error) {
	sig, err := k.privateKey.Sign(chainhash.DoubleHashB(msg))
	if err != nil {
		return nil, errors.Wrap(err, "sign")
	}
	return sig.Serialize(), nil
}

// Verify checks a signature made by Sign and returns the address of the signing public key.
func Verify(pubKey, signature, msg []byte) (Address, error) {
	pk, err := btcec.ParsePubKey(pubKey, btcec.S256())
	if err != nil {
		return Address{}, errors.Wrap(err, "parse public key")
	}

	sig, err := btcec.ParseDERSignature(signature, btcec.S256())
	if err != nil {
		return Address{}, errors.Wrap(err, "parse signature")
	}

	if !sig.Verify(chainhash.DoubleHashB(msg), pk) {
		return Address{}, ErrBadSignature
	}

	return FromPublicKey(pk.SerializeCompressed()), nil
}
