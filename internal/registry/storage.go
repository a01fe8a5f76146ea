package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/payme/contracts/internal/platform/db"
	"github.com/payme/contracts/pkg/address"

	"github.com/pkg/errors"
)

const (
	storageKey        = "institutions"
	institutionSubKey = "institution"
	employeesSubKey   = "employees"
)

var (
	// ErrNotFound abstracts the standard not found error.
	ErrNotFound = errors.New("Registry record not found")
)

// fetchInstitution returns the institution or ErrNotFound.
func fetchInstitution(ctx context.Context, dbConn *db.DB,
	contract address.Address) (*Institution, error) {

	b, err := dbConn.Fetch(ctx, institutionPath(contract))
	if err != nil {
		if err == db.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "fetch institution")
	}

	var inst Institution
	if err := json.Unmarshal(b, &inst); err != nil {
		return nil, errors.Wrap(err, "unmarshal institution")
	}

	return &inst, nil
}

func saveInstitution(batch *db.Batch, contract address.Address, inst *Institution) error {
	b, err := json.Marshal(inst)
	if err != nil {
		return errors.Wrap(err, "marshal institution")
	}

	batch.Put(institutionPath(contract), b)
	return nil
}

// fetchEmployee returns the employee or ErrNotFound.
func fetchEmployee(ctx context.Context, dbConn *db.DB, contract,
	employee address.Address) (*Employee, error) {

	b, err := dbConn.Fetch(ctx, employeePath(contract, employee))
	if err != nil {
		if err == db.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "fetch employee")
	}

	var e Employee
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, errors.Wrap(err, "unmarshal employee")
	}

	return &e, nil
}

func saveEmployee(batch *db.Batch, contract address.Address, e *Employee) error {
	b, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "marshal employee")
	}

	batch.Put(employeePath(contract, e.Address), b)
	return nil
}

func removeEmployee(batch *db.Batch, contract, employee address.Address) {
	batch.Remove(employeePath(contract, employee))
}

// listEmployees returns every employee sorted by address.
func listEmployees(ctx context.Context, dbConn *db.DB, contract address.Address) ([]*Employee, error) {
	path := fmt.Sprintf("%s/%x/%s", storageKey, contract.Bytes(), employeesSubKey)

	keys, err := dbConn.List(ctx, path)
	if err != nil {
		return nil, errors.Wrap(err, "list employees")
	}

	result := make([]*Employee, 0, len(keys))
	for _, key := range keys {
		b, err := dbConn.Fetch(ctx, key)
		if err != nil {
			if err == db.ErrNotFound {
				continue // removed since listing
			}
			return nil, errors.Wrapf(err, "fetch %s", key)
		}

		var e Employee
		if err := json.Unmarshal(b, &e); err != nil {
			return nil, errors.Wrapf(err, "unmarshal %s", key)
		}
		result = append(result, &e)
	}

	return result, nil
}

func institutionPath(contract address.Address) string {
	return fmt.Sprintf("%s/%x/%s", storageKey, contract.Bytes(), institutionSubKey)
}

func employeePath(contract, employee address.Address) string {
	return fmt.Sprintf("%s/%x/%s/%x", storageKey, contract.Bytes(), employeesSubKey,
		employee.Bytes())
}
