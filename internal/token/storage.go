package token

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/payme/contracts/internal/platform/db"
	"github.com/payme/contracts/pkg/address"

	"github.com/pkg/errors"
)

const (
	storageKey       = "tokens"
	metadataSubKey   = "metadata"
	balancesSubKey   = "balances"
	allowancesSubKey = "allowances"
	balanceVersion   = uint8(0)
	allowanceVersion = uint8(0)
)

var (
	// ErrNotFound abstracts the standard not found error.
	ErrNotFound = errors.New("Token record not found")
)

// fetchMetadata returns the token metadata or ErrNotFound.
func fetchMetadata(ctx context.Context, dbConn *db.DB, contract address.Address) (*Metadata, error) {
	b, err := dbConn.Fetch(ctx, metadataPath(contract))
	if err != nil {
		if err == db.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "fetch metadata")
	}

	var m Metadata
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.Wrap(err, "unmarshal metadata")
	}

	return &m, nil
}

func saveMetadata(batch *db.Batch, contract address.Address, m *Metadata) error {
	b, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshal metadata")
	}

	batch.Put(metadataPath(contract), b)
	return nil
}

// fetchBalance returns the balance of holder. A holder with no record has a zero balance.
func fetchBalance(ctx context.Context, dbConn *db.DB, contract, holder address.Address) (uint64, error) {
	b, err := dbConn.Fetch(ctx, balancePath(contract, holder))
	if err != nil {
		if err == db.ErrNotFound {
			return 0, nil
		}
		return 0, errors.Wrap(err, "fetch balance")
	}

	balance, err := deserializeBalance(bytes.NewReader(b))
	if err != nil {
		return 0, errors.Wrap(err, "deserialize balance")
	}

	return balance, nil
}

// saveBalance stages a balance write. Zero balances are removed.
func saveBalance(batch *db.Batch, contract, holder address.Address, balance uint64) {
	key := balancePath(contract, holder)
	if balance == 0 {
		batch.Remove(key)
		return
	}

	batch.Put(key, serializeBalance(balance))
}

// listHoldings returns every non-zero balance, sorted by holder.
func listHoldings(ctx context.Context, dbConn *db.DB, contract address.Address) ([]Holding, error) {
	keys, err := dbConn.List(ctx, fmt.Sprintf("%s/%x/%s", storageKey, contract.Bytes(), balancesSubKey))
	if err != nil {
		return nil, errors.Wrap(err, "list balances")
	}

	result := make([]Holding, 0, len(keys))
	for _, key := range keys {
		holder, err := address.FromHex(key[strings.LastIndex(key, "/")+1:])
		if err != nil {
			return nil, errors.Wrapf(err, "balance key %s", key)
		}

		balance, err := fetchBalance(ctx, dbConn, contract, holder)
		if err != nil {
			return nil, err
		}
		if balance == 0 {
			continue
		}

		result = append(result, Holding{Holder: holder, Balance: balance})
	}

	return result, nil
}

// fetchAllowance returns the allowance record for the pair or ErrNotFound.
func fetchAllowance(ctx context.Context, dbConn *db.DB, contract, owner,
	spender address.Address) (*Allowance, error) {

	b, err := dbConn.Fetch(ctx, allowancePath(contract, owner, spender))
	if err != nil {
		if err == db.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "fetch allowance")
	}

	a, err := deserializeAllowance(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "deserialize allowance")
	}

	return a, nil
}

// saveAllowance stages an allowance write. An allowance with nothing left is removed.
func saveAllowance(batch *db.Batch, contract, owner, spender address.Address, a Allowance) {
	key := allowancePath(contract, owner, spender)
	if a.Amount == 0 {
		batch.Remove(key)
		return
	}

	batch.Put(key, serializeAllowance(a))
}

func metadataPath(contract address.Address) string {
	return fmt.Sprintf("%s/%x/%s", storageKey, contract.Bytes(), metadataSubKey)
}

func balancePath(contract, holder address.Address) string {
	return fmt.Sprintf("%s/%x/%s/%x", storageKey, contract.Bytes(), balancesSubKey, holder.Bytes())
}

func allowancePath(contract, owner, spender address.Address) string {
	return fmt.Sprintf("%s/%x/%s/%x/%x", storageKey, contract.Bytes(), allowancesSubKey,
		owner.Bytes(), spender.Bytes())
}

func serializeBalance(balance uint64) []byte {
	var buf bytes.Buffer

	// Version
	binary.Write(&buf, binary.LittleEndian, balanceVersion)
	binary.Write(&buf, binary.LittleEndian, balance)

	return buf.Bytes()
}

func deserializeBalance(buf *bytes.Reader) (uint64, error) {
	var version uint8
	if err := binary.Read(buf, binary.LittleEndian, &version); err != nil {
		return 0, errors.Wrap(err, "version")
	}
	if version != balanceVersion {
		return 0, fmt.Errorf("Unknown version : %d", version)
	}

	var balance uint64
	if err := binary.Read(buf, binary.LittleEndian, &balance); err != nil {
		return 0, errors.Wrap(err, "balance")
	}

	return balance, nil
}

func serializeAllowance(a Allowance) []byte {
	var buf bytes.Buffer

	// Version
	binary.Write(&buf, binary.LittleEndian, allowanceVersion)
	binary.Write(&buf, binary.LittleEndian, a.Amount)
	binary.Write(&buf, binary.LittleEndian, a.ExpirationLedger)

	return buf.Bytes()
}

func deserializeAllowance(buf *bytes.Reader) (*Allowance, error) {
	var version uint8
	if err := binary.Read(buf, binary.LittleEndian, &version); err != nil {
		return nil, errors.Wrap(err, "version")
	}
	if version != allowanceVersion {
		return nil, fmt.Errorf("Unknown version : %d", version)
	}

	var result Allowance
	if err := binary.Read(buf, binary.LittleEndian, &result.Amount); err != nil {
		return nil, errors.Wrap(err, "amount")
	}
	if err := binary.Read(buf, binary.LittleEndian, &result.ExpirationLedger); err != nil {
		return nil, errors.Wrap(err, "expiration")
	}

	return &result, nil
}
