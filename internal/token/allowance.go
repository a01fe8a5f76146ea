package token

import (
	"context"

	"github.com/payme/contracts/pkg/address"
	"github.com/payme/contracts/pkg/protocol"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Approve sets the amount spender may move out of the balance of owner until expirationLedger.
// It replaces any existing approval. An amount of zero removes the approval.
func (t *Token) Approve(ctx context.Context, actor, owner, spender address.Address, amount uint64,
	expirationLedger uint32) error {

	ctx, span := trace.StartSpan(ctx, "internal.token.Approve")
	defer span.End()

	if _, err := t.metadata(ctx); err != nil {
		return err
	}

	if !actor.Equal(owner) {
		return protocol.ErrUnauthorized
	}

	seq, err := t.ledger.Sequence(ctx)
	if err != nil {
		return errors.Wrap(err, "ledger sequence")
	}

	if amount > 0 && expirationLedger < seq {
		return protocol.ErrAllowanceExpired
	}

	batch := t.dbConn.NewBatch()
	saveAllowance(batch, t.contract, owner, spender, Allowance{
		Amount:           amount,
		ExpirationLedger: expirationLedger,
	})
	return batch.Commit(ctx)
}

// Allowance returns the amount spender may still move out of the balance of owner. Expired
// approvals are zero.
func (t *Token) Allowance(ctx context.Context, owner, spender address.Address) (uint64, error) {
	ctx, span := trace.StartSpan(ctx, "internal.token.Allowance")
	defer span.End()

	if _, err := t.metadata(ctx); err != nil {
		return 0, err
	}

	a, err := fetchAllowance(ctx, t.dbConn, t.contract, owner, spender)
	if err != nil {
		if err == ErrNotFound {
			return 0, nil
		}
		return 0, err
	}

	seq, err := t.ledger.Sequence(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "ledger sequence")
	}

	if !a.Live(seq) {
		return 0, nil
	}

	return a.Amount, nil
}

// TransferFrom moves amount tokens from the balance of from to the balance of to, spending the
// allowance from granted to spender.
func (t *Token) TransferFrom(ctx context.Context, actor, spender, from, to address.Address,
	amount uint64) error {

	ctx, span := trace.StartSpan(ctx, "internal.token.TransferFrom")
	defer span.End()

	if _, err := t.metadata(ctx); err != nil {
		return err
	}

	if !actor.Equal(spender) {
		return protocol.ErrUnauthorized
	}
	if amount == 0 {
		return protocol.ErrInvalidAmount
	}

	a, err := t.spendable(ctx, from, spender, amount)
	if err != nil {
		return err
	}

	batch := t.dbConn.NewBatch()
	saveAllowance(batch, t.contract, from, spender, Allowance{
		Amount:           a.Amount - amount,
		ExpirationLedger: a.ExpirationLedger,
	})
	if err := t.stageTransfer(ctx, batch, from, to, amount); err != nil {
		return err
	}
	return batch.Commit(ctx)
}

// BurnFrom destroys amount tokens from the balance of from, spending the allowance from granted
// to spender.
func (t *Token) BurnFrom(ctx context.Context, actor, spender, from address.Address,
	amount uint64) error {

	ctx, span := trace.StartSpan(ctx, "internal.token.BurnFrom")
	defer span.End()

	m, err := t.metadata(ctx)
	if err != nil {
		return err
	}

	if !actor.Equal(spender) {
		return protocol.ErrUnauthorized
	}
	if amount == 0 {
		return protocol.ErrInvalidAmount
	}

	a, err := t.spendable(ctx, from, spender, amount)
	if err != nil {
		return err
	}

	batch := t.dbConn.NewBatch()
	saveAllowance(batch, t.contract, from, spender, Allowance{
		Amount:           a.Amount - amount,
		ExpirationLedger: a.ExpirationLedger,
	})
	if err := t.stageBurn(ctx, batch, m, from, amount); err != nil {
		return err
	}
	return batch.Commit(ctx)
}

// spendable returns the allowance from owner to spender if it is live and covers amount.
func (t *Token) spendable(ctx context.Context, owner, spender address.Address,
	amount uint64) (*Allowance, error) {

	a, err := fetchAllowance(ctx, t.dbConn, t.contract, owner, spender)
	if err != nil {
		if err == ErrNotFound {
			return nil, protocol.ErrInsufficientAllowance
		}
		return nil, err
	}

	seq, err := t.ledger.Sequence(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "ledger sequence")
	}

	if !a.Live(seq) {
		return nil, protocol.ErrAllowanceExpired
	}
	if amount > a.Amount {
		return nil, protocol.ErrInsufficientAllowance
	}

	return a, nil
}
