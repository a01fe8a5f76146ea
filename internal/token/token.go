package token

import (
	"context"
	"math"

	"github.com/payme/contracts/internal/platform/db"
	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/pkg/address"
	"github.com/payme/contracts/pkg/protocol"

	"go.opencensus.io/trace"
)

// Token is one fungible token contract. Every Token is scoped to its contract address so many
// can share one store.
type Token struct {
	dbConn   *db.DB
	ledger   host.Ledger
	contract address.Address
}

// New returns the token contract at contract.
func New(dbConn *db.DB, ledger host.Ledger, contract address.Address) *Token {
	return &Token{
		dbConn:   dbConn,
		ledger:   ledger,
		contract: contract,
	}
}

// Contract returns the address of the token contract.
func (t *Token) Contract() address.Address {
	return t.contract
}

// Initialize creates the token with actor as its admin.
func (t *Token) Initialize(ctx context.Context, actor address.Address, name, symbol string,
	decimals uint8) error {

	ctx, span := trace.StartSpan(ctx, "internal.token.Initialize")
	defer span.End()

	_, err := fetchMetadata(ctx, t.dbConn, t.contract)
	if err == nil {
		return protocol.ErrAlreadyInitialized
	}
	if err != ErrNotFound {
		return err
	}

	if actor.IsEmpty() {
		return protocol.ErrUnauthorized
	}
	if len(name) == 0 || len(symbol) == 0 {
		return protocol.ErrInvalidName
	}

	now := host.Now(ctx).UnixNano()
	m := &Metadata{
		Admin:     actor,
		Name:      name,
		Symbol:    symbol,
		Decimals:  decimals,
		CreatedAt: now,
		UpdatedAt: now,
	}

	batch := t.dbConn.NewBatch()
	if err := saveMetadata(batch, t.contract, m); err != nil {
		return err
	}
	return batch.Commit(ctx)
}

// Mint creates amount new tokens in the balance of to. Only the admin can mint.
func (t *Token) Mint(ctx context.Context, actor, to address.Address, amount uint64) error {
	ctx, span := trace.StartSpan(ctx, "internal.token.Mint")
	defer span.End()

	m, err := t.metadata(ctx)
	if err != nil {
		return err
	}

	if !actor.Equal(m.Admin) {
		return protocol.ErrUnauthorized
	}
	if amount == 0 {
		return protocol.ErrInvalidAmount
	}

	balance, err := fetchBalance(ctx, t.dbConn, t.contract, to)
	if err != nil {
		return err
	}

	if m.TotalSupply > math.MaxUint64-amount || balance > math.MaxUint64-amount {
		return protocol.ErrInvalidAmount
	}

	m.TotalSupply += amount
	m.UpdatedAt = host.Now(ctx).UnixNano()

	batch := t.dbConn.NewBatch()
	saveBalance(batch, t.contract, to, balance+amount)
	if err := saveMetadata(batch, t.contract, m); err != nil {
		return err
	}
	return batch.Commit(ctx)
}

// Burn destroys amount tokens from the balance of from.
func (t *Token) Burn(ctx context.Context, actor, from address.Address, amount uint64) error {
	ctx, span := trace.StartSpan(ctx, "internal.token.Burn")
	defer span.End()

	m, err := t.metadata(ctx)
	if err != nil {
		return err
	}

	if !actor.Equal(from) {
		return protocol.ErrUnauthorized
	}
	if amount == 0 {
		return protocol.ErrInvalidAmount
	}

	batch := t.dbConn.NewBatch()
	if err := t.stageBurn(ctx, batch, m, from, amount); err != nil {
		return err
	}
	return batch.Commit(ctx)
}

// Transfer moves amount tokens from the balance of from to the balance of to.
func (t *Token) Transfer(ctx context.Context, actor, from, to address.Address, amount uint64) error {
	ctx, span := trace.StartSpan(ctx, "internal.token.Transfer")
	defer span.End()

	batch := t.dbConn.NewBatch()
	if err := t.StageTransfer(ctx, batch, actor, from, to, amount); err != nil {
		return err
	}
	return batch.Commit(ctx)
}

// StageTransfer validates a transfer and stages its writes in batch without committing, so callers
// can commit it together with their own records. batch must come from the same DB as the Token
// and must not already hold balance writes for this token.
func (t *Token) StageTransfer(ctx context.Context, batch *db.Batch, actor, from, to address.Address,
	amount uint64) error {

	if _, err := t.metadata(ctx); err != nil {
		return err
	}

	if !actor.Equal(from) {
		return protocol.ErrUnauthorized
	}
	if amount == 0 {
		return protocol.ErrInvalidAmount
	}

	return t.stageTransfer(ctx, batch, from, to, amount)
}

// Balance returns the balance of holder.
func (t *Token) Balance(ctx context.Context, holder address.Address) (uint64, error) {
	ctx, span := trace.StartSpan(ctx, "internal.token.Balance")
	defer span.End()

	if _, err := t.metadata(ctx); err != nil {
		return 0, err
	}

	return fetchBalance(ctx, t.dbConn, t.contract, holder)
}

// Holdings returns every holder with a non-zero balance, sorted by address.
func (t *Token) Holdings(ctx context.Context) ([]Holding, error) {
	ctx, span := trace.StartSpan(ctx, "internal.token.Holdings")
	defer span.End()

	if _, err := t.metadata(ctx); err != nil {
		return nil, err
	}

	return listHoldings(ctx, t.dbConn, t.contract)
}

// SetAdmin hands the admin role to newAdmin.
func (t *Token) SetAdmin(ctx context.Context, actor, newAdmin address.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.token.SetAdmin")
	defer span.End()

	m, err := t.metadata(ctx)
	if err != nil {
		return err
	}

	if !actor.Equal(m.Admin) || newAdmin.IsEmpty() {
		return protocol.ErrUnauthorized
	}

	m.Admin = newAdmin
	m.UpdatedAt = host.Now(ctx).UnixNano()

	batch := t.dbConn.NewBatch()
	if err := saveMetadata(batch, t.contract, m); err != nil {
		return err
	}
	return batch.Commit(ctx)
}

// Metadata returns the token metadata.
func (t *Token) Metadata(ctx context.Context) (*Metadata, error) {
	ctx, span := trace.StartSpan(ctx, "internal.token.Metadata")
	defer span.End()

	return t.metadata(ctx)
}

// Name returns the token name.
func (t *Token) Name(ctx context.Context) (string, error) {
	m, err := t.Metadata(ctx)
	if err != nil {
		return "", err
	}
	return m.Name, nil
}

// Symbol returns the token symbol.
func (t *Token) Symbol(ctx context.Context) (string, error) {
	m, err := t.Metadata(ctx)
	if err != nil {
		return "", err
	}
	return m.Symbol, nil
}

// Decimals returns the number of decimal places of the token.
func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	m, err := t.Metadata(ctx)
	if err != nil {
		return 0, err
	}
	return m.Decimals, nil
}

// TotalSupply returns the number of tokens in existence.
func (t *Token) TotalSupply(ctx context.Context) (uint64, error) {
	m, err := t.Metadata(ctx)
	if err != nil {
		return 0, err
	}
	return m.TotalSupply, nil
}

// metadata fetches the metadata, mapping a missing record to NotInitialized.
func (t *Token) metadata(ctx context.Context) (*Metadata, error) {
	m, err := fetchMetadata(ctx, t.dbConn, t.contract)
	if err != nil {
		if err == ErrNotFound {
			return nil, protocol.ErrNotInitialized
		}
		return nil, err
	}
	return m, nil
}

// stageBurn checks the balance of from and stages the burn.
func (t *Token) stageBurn(ctx context.Context, batch *db.Batch, m *Metadata, from address.Address,
	amount uint64) error {

	balance, err := fetchBalance(ctx, t.dbConn, t.contract, from)
	if err != nil {
		return err
	}
	if balance < amount {
		return protocol.ErrInsufficientBalance
	}

	m.TotalSupply -= amount
	m.UpdatedAt = host.Now(ctx).UnixNano()

	saveBalance(batch, t.contract, from, balance-amount)
	return saveMetadata(batch, t.contract, m)
}

// stageTransfer checks the balance of from and stages the move.
func (t *Token) stageTransfer(ctx context.Context, batch *db.Batch, from, to address.Address,
	amount uint64) error {

	fromBalance, err := fetchBalance(ctx, t.dbConn, t.contract, from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return protocol.ErrInsufficientBalance
	}

	if from.Equal(to) {
		return nil
	}

	toBalance, err := fetchBalance(ctx, t.dbConn, t.contract, to)
	if err != nil {
		return err
	}

	saveBalance(batch, t.contract, from, fromBalance-amount)
	saveBalance(batch, t.contract, to, toBalance+amount)
	return nil
}
