package registry

import (
	"context"

	"github.com/payme/contracts/internal/platform/db"
	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/internal/token"
	"github.com/payme/contracts/pkg/address"
	"github.com/payme/contracts/pkg/protocol"

	"go.opencensus.io/trace"
)

// Registry is the employee registry of one institution, scoped to its contract address.
type Registry struct {
	dbConn   *db.DB
	ledger   host.Ledger
	contract address.Address
}

// New returns the registry contract at contract.
func New(dbConn *db.DB, ledger host.Ledger, contract address.Address) *Registry {
	return &Registry{
		dbConn:   dbConn,
		ledger:   ledger,
		contract: contract,
	}
}

// Contract returns the address of the registry contract.
func (r *Registry) Contract() address.Address {
	return r.contract
}

// Initialize creates the institution with actor as its admin. Salaries are paid in the token at
// tokenContract.
func (r *Registry) Initialize(ctx context.Context, actor address.Address, name string,
	tokenContract address.Address) error {

	ctx, span := trace.StartSpan(ctx, "internal.registry.Initialize")
	defer span.End()

	_, err := fetchInstitution(ctx, r.dbConn, r.contract)
	if err == nil {
		return protocol.ErrAlreadyInitialized
	}
	if err != ErrNotFound {
		return err
	}

	if actor.IsEmpty() {
		return protocol.ErrUnauthorized
	}
	if len(name) == 0 {
		return protocol.ErrInvalidName
	}

	now := host.Now(ctx).UnixNano()
	inst := &Institution{
		Admin:         actor,
		Name:          name,
		TokenContract: tokenContract,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	batch := r.dbConn.NewBatch()
	if err := saveInstitution(batch, r.contract, inst); err != nil {
		return err
	}
	return batch.Commit(ctx)
}

// GetInstitutionInfo returns the institution.
func (r *Registry) GetInstitutionInfo(ctx context.Context) (*Institution, error) {
	ctx, span := trace.StartSpan(ctx, "internal.registry.GetInstitutionInfo")
	defer span.End()

	return r.institution(ctx)
}

// Token returns the token salaries are paid in.
func (r *Registry) Token(ctx context.Context) (*token.Token, error) {
	inst, err := r.institution(ctx)
	if err != nil {
		return nil, err
	}

	return token.New(r.dbConn, r.ledger, inst.TokenContract), nil
}

// institution fetches the institution, mapping a missing record to NotInitialized.
func (r *Registry) institution(ctx context.Context) (*Institution, error) {
	inst, err := fetchInstitution(ctx, r.dbConn, r.contract)
	if err != nil {
		if err == ErrNotFound {
			return nil, protocol.ErrNotInitialized
		}
		return nil, err
	}
	return inst, nil
}

// authorize returns the institution if actor is its admin.
func (r *Registry) authorize(ctx context.Context, actor address.Address) (*Institution, error) {
	inst, err := r.institution(ctx)
	if err != nil {
		return nil, err
	}

	if !actor.Equal(inst.Admin) {
		return nil, protocol.ErrUnauthorized
	}

	return inst, nil
}
