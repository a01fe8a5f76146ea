package registry

import (
	"context"
	"math"

	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/internal/token"
	"github.com/payme/contracts/pkg/address"
	"github.com/payme/contracts/pkg/protocol"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Payroll summarizes one PayAll run.
type Payroll struct {
	Employees int    `json:"employees"`
	Total     uint64 `json:"total"`
	Sequence  uint32 `json:"sequence"`
}

// PayEmployee transfers one salary from the admin to the employee and records the ledger
// sequence it was paid at.
func (r *Registry) PayEmployee(ctx context.Context, actor, employee address.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.registry.PayEmployee")
	defer span.End()

	inst, err := r.authorize(ctx, actor)
	if err != nil {
		return err
	}

	e, err := r.employee(ctx, employee)
	if err != nil {
		return err
	}
	if e.Status != StatusActive {
		return protocol.ErrEmployeeNotFound
	}

	seq, err := r.ledger.Sequence(ctx)
	if err != nil {
		return errors.Wrap(err, "ledger sequence")
	}

	return r.pay(ctx, r.payToken(inst), inst.Admin, e, seq)
}

// PayAll pays every Active employee in address order. The admin balance must cover the whole
// payroll or nobody is paid.
func (r *Registry) PayAll(ctx context.Context, actor address.Address) (*Payroll, error) {
	ctx, span := trace.StartSpan(ctx, "internal.registry.PayAll")
	defer span.End()

	inst, err := r.authorize(ctx, actor)
	if err != nil {
		return nil, err
	}

	employees, err := listEmployees(ctx, r.dbConn, r.contract)
	if err != nil {
		return nil, err
	}

	seq, err := r.ledger.Sequence(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "ledger sequence")
	}

	result := &Payroll{Sequence: seq}
	var payable []*Employee
	for _, e := range employees {
		if e.Status != StatusActive {
			continue
		}
		if result.Total > math.MaxUint64-e.Salary {
			return nil, protocol.ErrInvalidAmount
		}
		result.Total += e.Salary
		payable = append(payable, e)
	}
	result.Employees = len(payable)

	tok := r.payToken(inst)
	balance, err := tok.Balance(ctx, inst.Admin)
	if err != nil {
		return nil, err
	}
	if balance < result.Total {
		return nil, protocol.ErrInsufficientBalance
	}

	for _, e := range payable {
		if err := r.pay(ctx, tok, inst.Admin, e, seq); err != nil {
			return nil, errors.Wrapf(err, "pay %s", e.Address)
		}
	}

	return result, nil
}

// pay commits the salary transfer and the payment record together.
func (r *Registry) pay(ctx context.Context, tok *token.Token, admin address.Address, e *Employee,
	seq uint32) error {

	batch := r.dbConn.NewBatch()
	if err := tok.StageTransfer(ctx, batch, admin, admin, e.Address, e.Salary); err != nil {
		return err
	}

	e.LastPaidAt = seq
	e.UpdatedAt = host.Now(ctx).UnixNano()
	if err := saveEmployee(batch, r.contract, e); err != nil {
		return err
	}

	return batch.Commit(ctx)
}

func (r *Registry) payToken(inst *Institution) *token.Token {
	return token.New(r.dbConn, r.ledger, inst.TokenContract)
}
