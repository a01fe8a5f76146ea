package protocol

import (
	"fmt"

	"github.com/pkg/errors"
)

// RejectionCode identifies the precondition an operation failed. Codes are stable and are
// exposed to invokers, so new codes are only ever appended.
type RejectionCode uint8

const (
	RejectAlreadyInitialized RejectionCode = iota + 1
	RejectNotInitialized
	RejectUnauthorized
	RejectInvalidSalary
	RejectInvalidName
	RejectEmployeeAlreadyExists
	RejectEmployeeNotFound
	RejectSameRank
	RejectInsufficientBalance
	RejectInsufficientAllowance
	RejectAllowanceExpired
	RejectInvalidAmount
)

type rejectionText struct {
	name  string
	label string
}

var rejectionCodes = map[RejectionCode]rejectionText{
	RejectAlreadyInitialized:    {"AlreadyInitialized", "Already Initialized"},
	RejectNotInitialized:        {"NotInitialized", "Not Initialized"},
	RejectUnauthorized:          {"Unauthorized", "Unauthorized"},
	RejectInvalidSalary:         {"InvalidSalary", "Invalid Salary"},
	RejectInvalidName:           {"InvalidName", "Invalid Name"},
	RejectEmployeeAlreadyExists: {"EmployeeAlreadyExists", "Employee Already Exists"},
	RejectEmployeeNotFound:      {"EmployeeNotFound", "Employee Not Found"},
	RejectSameRank:              {"SameRank", "Same Rank"},
	RejectInsufficientBalance:   {"InsufficientBalance", "Insufficient Balance"},
	RejectInsufficientAllowance: {"InsufficientAllowance", "Insufficient Allowance"},
	RejectAllowanceExpired:      {"AllowanceExpired", "Allowance Expired"},
	RejectInvalidAmount:         {"InvalidAmount", "Invalid Amount"},
}

var (
	ErrAlreadyInitialized    = &Rejection{Code: RejectAlreadyInitialized}
	ErrNotInitialized        = &Rejection{Code: RejectNotInitialized}
	ErrUnauthorized          = &Rejection{Code: RejectUnauthorized}
	ErrInvalidSalary         = &Rejection{Code: RejectInvalidSalary}
	ErrInvalidName           = &Rejection{Code: RejectInvalidName}
	ErrEmployeeAlreadyExists = &Rejection{Code: RejectEmployeeAlreadyExists}
	ErrEmployeeNotFound      = &Rejection{Code: RejectEmployeeNotFound}
	ErrSameRank              = &Rejection{Code: RejectSameRank}
	ErrInsufficientBalance   = &Rejection{Code: RejectInsufficientBalance}
	ErrInsufficientAllowance = &Rejection{Code: RejectInsufficientAllowance}
	ErrAllowanceExpired      = &Rejection{Code: RejectAllowanceExpired}
	ErrInvalidAmount         = &Rejection{Code: RejectInvalidAmount}
)

// String returns the identifier of the code, e.g. "SameRank".
func (c RejectionCode) String() string {
	t, ok := rejectionCodes[c]
	if !ok {
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
	return t.name
}

// Label returns the human readable form of the code.
func (c RejectionCode) Label() string {
	t, ok := rejectionCodes[c]
	if !ok {
		return fmt.Sprintf("Unknown rejection code %d", uint8(c))
	}
	return t.label
}

// RejectionCodeFromString returns the code for an identifier returned by String.
func RejectionCodeFromString(s string) (RejectionCode, bool) {
	for code, t := range rejectionCodes {
		if t.name == s {
			return code, true
		}
	}
	return 0, false
}

// Rejection is returned when an operation fails one of its preconditions. An operation that
// returns a Rejection has not written any state.
type Rejection struct {
	Code RejectionCode
}

func (r *Rejection) Error() string {
	return r.Code.Label()
}

// RejectionFromError returns the Rejection at the root of err, or nil when err was caused by
// something else (storage failures and the like).
func RejectionFromError(err error) *Rejection {
	if err == nil {
		return nil
	}

	r, ok := errors.Cause(err).(*Rejection)
	if !ok {
		return nil
	}
	return r
}

// IsRejection returns true when err is a Rejection, possibly wrapped.
func IsRejection(err error) bool {
	return RejectionFromError(err) != nil
}
