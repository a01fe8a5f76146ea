package registry

import (
	"context"

	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/pkg/address"
	"github.com/payme/contracts/pkg/protocol"

	"go.opencensus.io/trace"
)

// AddEmployee creates an Active employee record and increments the employee count.
func (r *Registry) AddEmployee(ctx context.Context, actor, employee address.Address, name string,
	salary uint64, rank Rank) error {

	ctx, span := trace.StartSpan(ctx, "internal.registry.AddEmployee")
	defer span.End()

	inst, err := r.authorize(ctx, actor)
	if err != nil {
		return err
	}

	if salary == 0 {
		return protocol.ErrInvalidSalary
	}
	if len(name) == 0 {
		return protocol.ErrInvalidName
	}

	if _, err := fetchEmployee(ctx, r.dbConn, r.contract, employee); err == nil {
		return protocol.ErrEmployeeAlreadyExists
	} else if err != ErrNotFound {
		return err
	}

	now := host.Now(ctx).UnixNano()
	e := &Employee{
		Address:   employee,
		Name:      name,
		Salary:    salary,
		Rank:      rank,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	inst.EmployeeCount++
	inst.UpdatedAt = now

	batch := r.dbConn.NewBatch()
	if err := saveEmployee(batch, r.contract, e); err != nil {
		return err
	}
	if err := saveInstitution(batch, r.contract, inst); err != nil {
		return err
	}
	return batch.Commit(ctx)
}

// GetEmployee returns the employee record.
func (r *Registry) GetEmployee(ctx context.Context, employee address.Address) (*Employee, error) {
	ctx, span := trace.StartSpan(ctx, "internal.registry.GetEmployee")
	defer span.End()

	if _, err := r.institution(ctx); err != nil {
		return nil, err
	}

	return r.employee(ctx, employee)
}

// ListEmployees returns every employee record sorted by address.
func (r *Registry) ListEmployees(ctx context.Context) ([]*Employee, error) {
	ctx, span := trace.StartSpan(ctx, "internal.registry.ListEmployees")
	defer span.End()

	if _, err := r.institution(ctx); err != nil {
		return nil, err
	}

	return listEmployees(ctx, r.dbConn, r.contract)
}

// RemoveEmployee deletes the employee record and decrements the employee count.
func (r *Registry) RemoveEmployee(ctx context.Context, actor, employee address.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.registry.RemoveEmployee")
	defer span.End()

	inst, err := r.authorize(ctx, actor)
	if err != nil {
		return err
	}

	if _, err := r.employee(ctx, employee); err != nil {
		return err
	}

	if inst.EmployeeCount > 0 {
		inst.EmployeeCount--
	}
	inst.UpdatedAt = host.Now(ctx).UnixNano()

	batch := r.dbConn.NewBatch()
	removeEmployee(batch, r.contract, employee)
	if err := saveInstitution(batch, r.contract, inst); err != nil {
		return err
	}
	return batch.Commit(ctx)
}

// UpdateEmployee replaces the fields that are set and leaves the others unchanged.
func (r *Registry) UpdateEmployee(ctx context.Context, actor, employee address.Address,
	name Optional[string], salary Optional[uint64]) error {

	ctx, span := trace.StartSpan(ctx, "internal.registry.UpdateEmployee")
	defer span.End()

	if _, err := r.authorize(ctx, actor); err != nil {
		return err
	}

	e, err := r.employee(ctx, employee)
	if err != nil {
		return err
	}

	if v, ok := name.Get(); ok {
		if len(v) == 0 {
			return protocol.ErrInvalidName
		}
		e.Name = v
	}
	if v, ok := salary.Get(); ok {
		if v == 0 {
			return protocol.ErrInvalidSalary
		}
		e.Salary = v
	}

	e.UpdatedAt = host.Now(ctx).UnixNano()

	batch := r.dbConn.NewBatch()
	if err := saveEmployee(batch, r.contract, e); err != nil {
		return err
	}
	return batch.Commit(ctx)
}

// PromoteEmployee changes the rank and salary of the employee. The new rank must differ from the
// current one but may be lower.
func (r *Registry) PromoteEmployee(ctx context.Context, actor, employee address.Address,
	rank Rank, salary uint64) error {

	ctx, span := trace.StartSpan(ctx, "internal.registry.PromoteEmployee")
	defer span.End()

	if _, err := r.authorize(ctx, actor); err != nil {
		return err
	}

	e, err := r.employee(ctx, employee)
	if err != nil {
		return err
	}

	if e.Rank == rank {
		return protocol.ErrSameRank
	}
	if salary == 0 {
		return protocol.ErrInvalidSalary
	}

	e.Rank = rank
	e.Salary = salary
	e.UpdatedAt = host.Now(ctx).UnixNano()

	batch := r.dbConn.NewBatch()
	if err := saveEmployee(batch, r.contract, e); err != nil {
		return err
	}
	return batch.Commit(ctx)
}

// employee fetches the employee, mapping a missing record to EmployeeNotFound.
func (r *Registry) employee(ctx context.Context, employee address.Address) (*Employee, error) {
	e, err := fetchEmployee(ctx, r.dbConn, r.contract, employee)
	if err != nil {
		if err == ErrNotFound {
			return nil, protocol.ErrEmployeeNotFound
		}
		return nil, err
	}
	return e, nil
}
