package registry

import (
	"testing"

	"github.com/payme/contracts/pkg/protocol"
)

func TestPayEmployee(t *testing.T) {
	f := setup(t, 2)
	employee := f.test.User(0)

	if err := f.reg.AddEmployee(f.ctx, f.admin, employee, "Ada", 300, RankSenior); err != nil {
		t.Fatalf("Failed to add employee : %s", err)
	}

	// Admin holds nothing yet.
	if err := f.reg.PayEmployee(f.ctx, f.admin, employee); err != protocol.ErrInsufficientBalance {
		t.Errorf("got %v, want %v", err, protocol.ErrInsufficientBalance)
	}

	if err := f.tok.Mint(f.ctx, f.admin, f.admin, 1000); err != nil {
		t.Fatalf("Failed to mint : %s", err)
	}

	if err := f.reg.PayEmployee(f.ctx, employee, employee); err != protocol.ErrUnauthorized {
		t.Errorf("got %v, want %v", err, protocol.ErrUnauthorized)
	}
	if err := f.reg.PayEmployee(f.ctx, f.admin, f.test.User(1)); err != protocol.ErrEmployeeNotFound {
		t.Errorf("got %v, want %v", err, protocol.ErrEmployeeNotFound)
	}

	f.test.Ledger.Set(12)
	if err := f.reg.PayEmployee(f.ctx, f.admin, employee); err != nil {
		t.Fatalf("Failed to pay employee : %s", err)
	}

	balance, _ := f.tok.Balance(f.ctx, employee)
	if balance != 300 {
		t.Errorf("got %v, want %v", balance, 300)
	}
	balance, _ = f.tok.Balance(f.ctx, f.admin)
	if balance != 700 {
		t.Errorf("got %v, want %v", balance, 700)
	}

	e, err := f.reg.GetEmployee(f.ctx, employee)
	if err != nil {
		t.Fatalf("Failed to get employee : %s", err)
	}
	if e.LastPaidAt != 12 {
		t.Errorf("got %v, want %v", e.LastPaidAt, 12)
	}
}

func TestPayAll(t *testing.T) {
	f := setup(t, 3)

	salaries := []uint64{100, 200, 300}
	for i, salary := range salaries {
		if err := f.reg.AddEmployee(f.ctx, f.admin, f.test.User(i), "Employee", salary,
			RankJunior); err != nil {
			t.Fatalf("Failed to add employee : %s", err)
		}
	}

	if err := f.tok.Mint(f.ctx, f.admin, f.admin, 599); err != nil {
		t.Fatalf("Failed to mint : %s", err)
	}

	// One short of the payroll, nobody is paid.
	if _, err := f.reg.PayAll(f.ctx, f.admin); err != protocol.ErrInsufficientBalance {
		t.Errorf("got %v, want %v", err, protocol.ErrInsufficientBalance)
	}
	for i := range salaries {
		if balance, _ := f.tok.Balance(f.ctx, f.test.User(i)); balance != 0 {
			t.Errorf("user%d paid %d after rejected payroll", i+1, balance)
		}
	}

	if err := f.tok.Mint(f.ctx, f.admin, f.admin, 1); err != nil {
		t.Fatalf("Failed to mint : %s", err)
	}

	f.test.Ledger.Set(5)
	payroll, err := f.reg.PayAll(f.ctx, f.admin)
	if err != nil {
		t.Fatalf("Failed to pay all : %s", err)
	}

	if payroll.Employees != 3 || payroll.Total != 600 || payroll.Sequence != 5 {
		t.Errorf("got %+v", payroll)
	}

	for i, salary := range salaries {
		if balance, _ := f.tok.Balance(f.ctx, f.test.User(i)); balance != salary {
			t.Errorf("got %v, want %v", balance, salary)
		}
	}
	if balance, _ := f.tok.Balance(f.ctx, f.admin); balance != 0 {
		t.Errorf("got %v, want %v", balance, 0)
	}

	employees, err := f.reg.ListEmployees(f.ctx)
	if err != nil {
		t.Fatalf("Failed to list employees : %s", err)
	}
	for _, e := range employees {
		if e.LastPaidAt != 5 {
			t.Errorf("%s : got %v, want %v", e.Address, e.LastPaidAt, 5)
		}
	}

	supply, _ := f.tok.TotalSupply(f.ctx)
	if supply != 600 {
		t.Errorf("got %v, want %v", supply, 600)
	}
}

func TestPayAll_unauthorized(t *testing.T) {
	f := setup(t, 1)

	if _, err := f.reg.PayAll(f.ctx, f.test.User(0)); err != protocol.ErrUnauthorized {
		t.Errorf("got %v, want %v", err, protocol.ErrUnauthorized)
	}
}
