package registry

import (
	"fmt"

	"github.com/payme/contracts/pkg/address"

	"github.com/pkg/errors"
)

// Rank is the seniority of an employee. Ranks are not ordered for promotion purposes.
type Rank uint8

const (
	RankJunior Rank = iota
	RankMid
	RankSenior
	RankLead
	RankManager
	RankDirector
)

var rankNames = []string{"Junior", "Mid", "Senior", "Lead", "Manager", "Director"}

// ErrUnknownRank is returned when parsing text that names no rank.
var ErrUnknownRank = errors.New("Unknown rank")

// ErrUnknownStatus is returned when parsing text that names no status.
var ErrUnknownStatus = errors.New("Unknown status")

func (r Rank) String() string {
	if int(r) >= len(rankNames) {
		return fmt.Sprintf("Rank(%d)", uint8(r))
	}
	return rankNames[r]
}

// RankFromString returns the rank named s.
func RankFromString(s string) (Rank, error) {
	for i, name := range rankNames {
		if name == s {
			return Rank(i), nil
		}
	}
	return 0, errors.Wrap(ErrUnknownRank, s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Rank) MarshalText() ([]byte, error) {
	if int(r) >= len(rankNames) {
		return nil, errors.Wrapf(ErrUnknownRank, "%d", uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rank) UnmarshalText(text []byte) error {
	rank, err := RankFromString(string(text))
	if err != nil {
		return err
	}
	*r = rank
	return nil
}

// Status is the employment status of an employee. Only Active is produced by registry
// operations.
type Status uint8

const (
	StatusActive Status = iota
	StatusInactive
	StatusTerminated
)

var statusNames = []string{"Active", "Inactive", "Terminated"}

func (s Status) String() string {
	if int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, errors.Wrapf(ErrUnknownStatus, "%d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return errors.Wrap(ErrUnknownStatus, string(text))
}

// Institution is the singleton record of a registry contract.
type Institution struct {
	Admin         address.Address `json:"admin"`
	Name          string          `json:"name"`
	TokenContract address.Address `json:"token_contract"`
	EmployeeCount uint32          `json:"employee_count"`
	CreatedAt     int64           `json:"created_at"`
	UpdatedAt     int64           `json:"updated_at"`
}

// Employee is the record of one employee, keyed by address.
type Employee struct {
	Address    address.Address `json:"address"`
	Name       string          `json:"name"`
	Salary     uint64          `json:"salary"`
	Rank       Rank            `json:"rank"`
	Status     Status          `json:"status"`
	CreatedAt  int64           `json:"created_at"`
	UpdatedAt  int64           `json:"updated_at"`
	LastPaidAt uint32          `json:"last_paid_at"` // ledger sequence, 0 is never
}

// Optional is an update field that is either replaced with a value or left unchanged.
type Optional[T any] struct {
	value T
	set   bool
}

// Set returns an Optional that replaces the field with v.
func Set[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Unchanged returns an Optional that leaves the field alone.
func Unchanged[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is set.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet returns true when the field will be replaced.
func (o Optional[T]) IsSet() bool {
	return o.set
}
