package token

import (
	"testing"

	"github.com/payme/contracts/pkg/protocol"
)

func TestApprove(t *testing.T) {
	ctx, test, tok := setup(t, 2)
	owner, spender := test.User(0), test.User(1)

	test.Ledger.Set(50)

	if err := tok.Approve(ctx, spender, owner, spender, 10, 100); err != protocol.ErrUnauthorized {
		t.Errorf("got %v, want %v", err, protocol.ErrUnauthorized)
	}
	if err := tok.Approve(ctx, owner, owner, spender, 10, 49); err != protocol.ErrAllowanceExpired {
		t.Errorf("got %v, want %v", err, protocol.ErrAllowanceExpired)
	}

	if err := tok.Approve(ctx, owner, owner, spender, 10, 50); err != nil {
		t.Fatalf("Failed to approve : %s", err)
	}
	checkAllowance(ctx, t, tok, test, 0, 1, 10)

	// Overwrite
	if err := tok.Approve(ctx, owner, owner, spender, 25, 100); err != nil {
		t.Fatalf("Failed to approve : %s", err)
	}
	checkAllowance(ctx, t, tok, test, 0, 1, 25)

	// Clearing never expires.
	if err := tok.Approve(ctx, owner, owner, spender, 0, 0); err != nil {
		t.Fatalf("Failed to clear approval : %s", err)
	}
	checkAllowance(ctx, t, tok, test, 0, 1, 0)

	// The reverse direction was never approved.
	checkAllowance(ctx, t, tok, test, 1, 0, 0)
}

func TestAllowance_expiry(t *testing.T) {
	ctx, test, tok := setup(t, 2)
	owner, spender := test.User(0), test.User(1)

	if err := tok.Mint(ctx, test.Admin.Address(), owner, 1000); err != nil {
		t.Fatalf("Failed to mint : %s", err)
	}
	if err := tok.Approve(ctx, owner, owner, spender, 500, 100); err != nil {
		t.Fatalf("Failed to approve : %s", err)
	}

	test.Ledger.Set(100)
	checkAllowance(ctx, t, tok, test, 0, 1, 500)

	test.Ledger.Set(101)
	checkAllowance(ctx, t, tok, test, 0, 1, 0)

	err := tok.TransferFrom(ctx, spender, spender, owner, spender, 1)
	if err != protocol.ErrAllowanceExpired {
		t.Errorf("got %v, want %v", err, protocol.ErrAllowanceExpired)
	}
	err = tok.BurnFrom(ctx, spender, spender, owner, 1)
	if err != protocol.ErrAllowanceExpired {
		t.Errorf("got %v, want %v", err, protocol.ErrAllowanceExpired)
	}

	checkBalance(ctx, t, tok, test, 0, 1000)
}

func TestTransferFrom(t *testing.T) {
	ctx, test, tok := setup(t, 3)
	owner, spender, receiver := test.User(0), test.User(1), test.User(2)

	if err := tok.Mint(ctx, test.Admin.Address(), owner, 100); err != nil {
		t.Fatalf("Failed to mint : %s", err)
	}

	// No approval yet
	err := tok.TransferFrom(ctx, spender, spender, owner, receiver, 1)
	if err != protocol.ErrInsufficientAllowance {
		t.Errorf("got %v, want %v", err, protocol.ErrInsufficientAllowance)
	}

	if err := tok.Approve(ctx, owner, owner, spender, 150, 100); err != nil {
		t.Fatalf("Failed to approve : %s", err)
	}

	tt := []struct {
		name   string
		actor  actorRole
		amount uint64
		err    error
	}{
		{"not spender", ownerActor, 10, protocol.ErrUnauthorized},
		{"zero", spenderActor, 0, protocol.ErrInvalidAmount},
		{"over allowance", spenderActor, 151, protocol.ErrInsufficientAllowance},
		{"over balance", spenderActor, 120, protocol.ErrInsufficientBalance},
		{"valid", spenderActor, 70, nil},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			actor := spender
			if tc.actor == ownerActor {
				actor = owner
			}

			err := tok.TransferFrom(ctx, actor, spender, owner, receiver, tc.amount)
			if err != tc.err {
				t.Errorf("got %v, want %v", err, tc.err)
			}
		})
	}

	// Rejected calls left the allowance alone.
	checkAllowance(ctx, t, tok, test, 0, 1, 80)
	checkBalance(ctx, t, tok, test, 0, 30)
	checkBalance(ctx, t, tok, test, 2, 70)
	checkSupply(ctx, t, tok, 100)
}

func TestBurnFrom(t *testing.T) {
	ctx, test, tok := setup(t, 2)
	owner, spender := test.User(0), test.User(1)

	if err := tok.Mint(ctx, test.Admin.Address(), owner, 100); err != nil {
		t.Fatalf("Failed to mint : %s", err)
	}
	if err := tok.Approve(ctx, owner, owner, spender, 60, 100); err != nil {
		t.Fatalf("Failed to approve : %s", err)
	}

	if err := tok.BurnFrom(ctx, owner, spender, owner, 10); err != protocol.ErrUnauthorized {
		t.Errorf("got %v, want %v", err, protocol.ErrUnauthorized)
	}
	if err := tok.BurnFrom(ctx, spender, spender, owner, 61); err != protocol.ErrInsufficientAllowance {
		t.Errorf("got %v, want %v", err, protocol.ErrInsufficientAllowance)
	}
	if err := tok.BurnFrom(ctx, spender, spender, owner, 60); err != nil {
		t.Fatalf("Failed to burn from : %s", err)
	}

	checkAllowance(ctx, t, tok, test, 0, 1, 0)
	checkBalance(ctx, t, tok, test, 0, 40)
	checkSupply(ctx, t, tok, 40)

	// Allowance fully spent, the record is gone.
	if err := tok.BurnFrom(ctx, spender, spender, owner, 1); err != protocol.ErrInsufficientAllowance {
		t.Errorf("got %v, want %v", err, protocol.ErrInsufficientAllowance)
	}
}

type actorRole int

const (
	ownerActor actorRole = iota
	spenderActor
)
