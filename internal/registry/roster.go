package registry

import (
	"context"
	"io"
	"os"

	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/pkg/address"
	"github.com/payme/contracts/pkg/protocol"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"gopkg.in/yaml.v3"
)

// Roster is a list of employees to add in one call.
//
//	employees:
//	  - address: 1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH
//	    name: Ada Lovelace
//	    salary: 5000
//	    rank: Senior
type Roster struct {
	Employees []RosterEntry `yaml:"employees"`
}

// RosterEntry is one employee of a Roster. Rank is required.
type RosterEntry struct {
	Address address.Address `yaml:"address"`
	Name    string          `yaml:"name"`
	Salary  uint64          `yaml:"salary"`
	Rank    *Rank           `yaml:"rank"`
}

// LoadRoster decodes a YAML roster. Unknown fields and entries without a rank are rejected.
func LoadRoster(r io.Reader) (*Roster, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var roster Roster
	if err := decoder.Decode(&roster); err != nil {
		if err == io.EOF {
			return &roster, nil
		}
		return nil, errors.Wrap(err, "decode roster")
	}

	for i, entry := range roster.Employees {
		if entry.Rank == nil {
			return nil, errors.Wrapf(ErrUnknownRank, "entry %d missing rank", i)
		}
	}

	return &roster, nil
}

// LoadRosterFile decodes the YAML roster in the file at path.
func LoadRosterFile(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open roster")
	}
	defer f.Close()

	return LoadRoster(f)
}

// Import adds every employee of the roster. Every entry is checked the same way AddEmployee checks
// it before anything is written, so either all are added or none are.
func (r *Registry) Import(ctx context.Context, actor address.Address, roster *Roster) error {
	ctx, span := trace.StartSpan(ctx, "internal.registry.Import")
	defer span.End()

	inst, err := r.authorize(ctx, actor)
	if err != nil {
		return err
	}

	now := host.Now(ctx).UnixNano()
	seen := make(map[address.Address]bool)
	batch := r.dbConn.NewBatch()

	for _, entry := range roster.Employees {
		if entry.Salary == 0 {
			return protocol.ErrInvalidSalary
		}
		if len(entry.Name) == 0 {
			return protocol.ErrInvalidName
		}
		if entry.Rank == nil {
			return errors.Wrapf(ErrUnknownRank, "missing rank for %s", entry.Address)
		}
		if seen[entry.Address] {
			return protocol.ErrEmployeeAlreadyExists
		}
		seen[entry.Address] = true

		if _, err := fetchEmployee(ctx, r.dbConn, r.contract, entry.Address); err == nil {
			return protocol.ErrEmployeeAlreadyExists
		} else if err != ErrNotFound {
			return err
		}

		e := &Employee{
			Address:   entry.Address,
			Name:      entry.Name,
			Salary:    entry.Salary,
			Rank:      *entry.Rank,
			Status:    StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := saveEmployee(batch, r.contract, e); err != nil {
			return err
		}
	}

	if len(roster.Employees) == 0 {
		return nil
	}

	inst.EmployeeCount += uint32(len(roster.Employees))
	inst.UpdatedAt = now
	if err := saveInstitution(batch, r.contract, inst); err != nil {
		return err
	}

	return batch.Commit(ctx)
}
