// Package address provides the holder identities used to key balances, allowances and employee
// records. An Address is the Hash160 (RIPEMD160 of SHA256) of a compressed secp256k1 public key and
// is presented as a base58check pay-to-public-key-hash string.
package address

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160"
)

// Size is the byte length of an Address.
const Size = 20

var (
	// ErrBadLength occurs when raw address data is not Size bytes.
	ErrBadLength = errors.New("Address has invalid length")

	// ErrBadType occurs when the text form of an address is not pay-to-public-key-hash.
	ErrBadType = errors.New("Address is not a public key hash")
)

// Address identifies a holder. The zero value is the empty address, which never holds anything.
type Address [Size]byte

// Hash160 returns RIPEMD160(SHA256(b)).
func Hash160(b []byte) []byte {
	h := sha256.Sum256(b)
	r := ripemd160.New()
	r.Write(h[:])
	return r.Sum(nil)
}

// FromPublicKey returns the address of a serialized (compressed) public key.
func FromPublicKey(pubKey []byte) Address {
	var result Address
	copy(result[:], Hash160(pubKey))
	return result
}

// FromBytes returns an address from its raw 20 byte form.
func FromBytes(b []byte) (Address, error) {
	var result Address
	if len(b) != Size {
		return result, ErrBadLength
	}
	copy(result[:], b)
	return result, nil
}

// FromHex returns an address from the hex encoding of its raw form, as used in storage keys.
func FromHex(s string) (Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, errors.Wrap(err, "decode hex")
	}
	return FromBytes(b)
}

// Decode parses the base58check text form of an address. Main and test network encodings are
// both accepted.
func Decode(s string) (Address, error) {
	a, err := btcutil.DecodeAddress(s, &chaincfg.MainNetParams)
	if err != nil {
		return Address{}, errors.Wrap(err, "decode address")
	}

	pkh, ok := a.(*btcutil.AddressPubKeyHash)
	if !ok {
		return Address{}, ErrBadType
	}

	return Address(*pkh.Hash160()), nil
}

// String returns the main network base58check encoding.
func (a Address) String() string {
	pkh, err := btcutil.NewAddressPubKeyHash(a[:], &chaincfg.MainNetParams)
	if err != nil {
		// only possible with a bad length, which the array type prevents
		return fmt.Sprintf("%x", a[:])
	}
	return pkh.EncodeAddress()
}

// Hex returns the hex encoding of the raw address.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// Bytes returns the raw address data.
func (a Address) Bytes() []byte {
	return a[:]
}

// IsEmpty returns true for the zero address.
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// Equal returns true if the parameter has the same value.
func (a Address) Equal(o Address) bool {
	return a == o
}

// Compare orders addresses by their raw bytes.
func (a Address) Compare(o Address) int {
	return bytes.Compare(a[:], o[:])
}

// MarshalText converts to the base58check text form.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText converts from the base58check text form.
func (a *Address) UnmarshalText(text []byte) error {
	d, err := Decode(string(text))
	if err != nil {
		return err
	}
	*a = d
	return nil
}
