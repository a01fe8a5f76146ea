package registry

import (
	"context"
	"testing"

	"github.com/payme/contracts/internal/platform/tests"
	"github.com/payme/contracts/internal/token"
	"github.com/payme/contracts/pkg/address"
	"github.com/payme/contracts/pkg/protocol"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
)

type fixture struct {
	ctx   context.Context
	test  *tests.Test
	reg   *Registry
	tok   *token.Token
	admin address.Address
}

func setup(t *testing.T, users int) *fixture {
	t.Helper()

	test, err := tests.New(users)
	if err != nil {
		t.Fatalf("Failed to create test : %s", err)
	}

	f := &fixture{
		ctx:   test.Context(context.Background(), "registry"),
		test:  test,
		admin: test.Admin.Address(),
	}

	f.tok = token.New(test.DB, test.Ledger, tests.RandomAddress())
	if err := f.tok.Initialize(f.ctx, f.admin, "PaymeToken", "PAYME", 7); err != nil {
		t.Fatalf("Failed to initialize token : %s", err)
	}

	f.reg = New(test.DB, test.Ledger, tests.RandomAddress())
	if err := f.reg.Initialize(f.ctx, f.admin, "Acme", f.tok.Contract()); err != nil {
		t.Fatalf("Failed to initialize registry : %s", err)
	}

	return f
}

func (f *fixture) count(t *testing.T) uint32 {
	t.Helper()

	inst, err := f.reg.GetInstitutionInfo(f.ctx)
	if err != nil {
		t.Fatalf("Failed to get institution : %s", err)
	}
	return inst.EmployeeCount
}

func TestInitialize(t *testing.T) {
	f := setup(t, 1)

	err := f.reg.Initialize(f.ctx, f.test.User(0), "Other", tests.RandomAddress())
	if err != protocol.ErrAlreadyInitialized {
		t.Errorf("got %v, want %v", err, protocol.ErrAlreadyInitialized)
	}

	inst, err := f.reg.GetInstitutionInfo(f.ctx)
	if err != nil {
		t.Fatalf("Failed to get institution : %s", err)
	}

	want := &Institution{
		Admin:         f.admin,
		Name:          "Acme",
		TokenContract: f.tok.Contract(),
		CreatedAt:     f.test.Now.UnixNano(),
		UpdatedAt:     f.test.Now.UnixNano(),
	}
	if diff := cmp.Diff(want, inst); diff != "" {
		t.Errorf("Institution mismatch (-want +got):\n%s", diff)
	}
}

func TestNotInitialized(t *testing.T) {
	test, err := tests.New(1)
	if err != nil {
		t.Fatalf("Failed to create test : %s", err)
	}
	ctx := test.Context(context.Background(), "registry")
	reg := New(test.DB, test.Ledger, tests.RandomAddress())

	if _, err := reg.GetInstitutionInfo(ctx); err != protocol.ErrNotInitialized {
		t.Errorf("got %v, want %v", err, protocol.ErrNotInitialized)
	}
	err = reg.AddEmployee(ctx, test.Admin.Address(), test.User(0), "Ada", 100, RankJunior)
	if err != protocol.ErrNotInitialized {
		t.Errorf("got %v, want %v", err, protocol.ErrNotInitialized)
	}
	if _, err := reg.GetEmployee(ctx, test.User(0)); err != protocol.ErrNotInitialized {
		t.Errorf("got %v, want %v", err, protocol.ErrNotInitialized)
	}

	if err := reg.Initialize(ctx, test.Admin.Address(), "", tests.RandomAddress()); err != protocol.ErrInvalidName {
		t.Errorf("got %v, want %v", err, protocol.ErrInvalidName)
	}
}

func TestAddEmployee(t *testing.T) {
	f := setup(t, 2)

	if err := f.reg.AddEmployee(f.ctx, f.admin, f.test.User(0), "Ada Lovelace", 5000,
		RankSenior); err != nil {
		t.Fatalf("Failed to add employee : %s", err)
	}

	e, err := f.reg.GetEmployee(f.ctx, f.test.User(0))
	if err != nil {
		t.Fatalf("Failed to get employee : %s", err)
	}

	want := &Employee{
		Address:   f.test.User(0),
		Name:      "Ada Lovelace",
		Salary:    5000,
		Rank:      RankSenior,
		Status:    StatusActive,
		CreatedAt: f.test.Now.UnixNano(),
		UpdatedAt: f.test.Now.UnixNano(),
	}
	if diff := cmp.Diff(want, e); diff != "" {
		t.Errorf("Employee mismatch (-want +got):\n%s", diff)
	}

	if got := f.count(t); got != 1 {
		t.Errorf("got %v, want %v", got, 1)
	}
}

func TestAddEmployee_rejections(t *testing.T) {
	f := setup(t, 2)

	if err := f.reg.AddEmployee(f.ctx, f.admin, f.test.User(0), "Ada", 100, RankJunior); err != nil {
		t.Fatalf("Failed to add employee : %s", err)
	}

	tt := []struct {
		name     string
		actor    address.Address
		employee address.Address
		empName  string
		salary   uint64
		err      error
	}{
		{"not admin", f.test.User(1), f.test.User(1), "Grace", 100, protocol.ErrUnauthorized},
		{"zero salary", f.admin, f.test.User(1), "Grace", 0, protocol.ErrInvalidSalary},
		{"salary before name", f.admin, f.test.User(1), "", 0, protocol.ErrInvalidSalary},
		{"empty name", f.admin, f.test.User(1), "", 100, protocol.ErrInvalidName},
		{"exists", f.admin, f.test.User(0), "Ada", 100, protocol.ErrEmployeeAlreadyExists},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := f.reg.AddEmployee(f.ctx, tc.actor, tc.employee, tc.empName, tc.salary, RankMid)
			if err != tc.err {
				t.Errorf("got %v, want %v", err, tc.err)
			}
		})
	}

	if got := f.count(t); got != 1 {
		t.Errorf("got %v, want %v", got, 1)
	}
	if _, err := f.reg.GetEmployee(f.ctx, f.test.User(1)); err != protocol.ErrEmployeeNotFound {
		t.Errorf("got %v, want %v", err, protocol.ErrEmployeeNotFound)
	}
}

func TestRemoveEmployee(t *testing.T) {
	f := setup(t, 2)

	if err := f.reg.RemoveEmployee(f.ctx, f.admin, f.test.User(0)); err != protocol.ErrEmployeeNotFound {
		t.Errorf("got %v, want %v", err, protocol.ErrEmployeeNotFound)
	}

	for i := 0; i < 2; i++ {
		if err := f.reg.AddEmployee(f.ctx, f.admin, f.test.User(i), tests.RandomName(), 100,
			RankJunior); err != nil {
			t.Fatalf("Failed to add employee : %s", err)
		}
	}

	if err := f.reg.RemoveEmployee(f.ctx, f.test.User(0), f.test.User(0)); err != protocol.ErrUnauthorized {
		t.Errorf("got %v, want %v", err, protocol.ErrUnauthorized)
	}
	if err := f.reg.RemoveEmployee(f.ctx, f.admin, f.test.User(0)); err != nil {
		t.Fatalf("Failed to remove employee : %s", err)
	}

	if _, err := f.reg.GetEmployee(f.ctx, f.test.User(0)); err != protocol.ErrEmployeeNotFound {
		t.Errorf("got %v, want %v", err, protocol.ErrEmployeeNotFound)
	}
	if got := f.count(t); got != 1 {
		t.Errorf("got %v, want %v", got, 1)
	}

	if err := f.reg.RemoveEmployee(f.ctx, f.admin, f.test.User(1)); err != nil {
		t.Fatalf("Failed to remove employee : %s", err)
	}
	if got := f.count(t); got != 0 {
		t.Errorf("got %v, want %v", got, 0)
	}
}

func TestUpdateEmployee(t *testing.T) {
	f := setup(t, 2)
	employee := f.test.User(0)

	if err := f.reg.AddEmployee(f.ctx, f.admin, employee, "Ada", 100, RankJunior); err != nil {
		t.Fatalf("Failed to add employee : %s", err)
	}

	tt := []struct {
		name       string
		actor      address.Address
		employee   address.Address
		newName    Optional[string]
		newSalary  Optional[uint64]
		err        error
		wantName   string
		wantSalary uint64
	}{
		{"name only", f.admin, employee, Set("Ada L"), Unchanged[uint64](), nil, "Ada L", 100},
		{"salary only", f.admin, employee, Unchanged[string](), Set[uint64](250), nil, "Ada L", 250},
		{"both", f.admin, employee, Set("Ada Lovelace"), Set[uint64](300), nil, "Ada Lovelace", 300},
		{"neither", f.admin, employee, Unchanged[string](), Unchanged[uint64](), nil, "Ada Lovelace", 300},
		{"empty name", f.admin, employee, Set(""), Set[uint64](1), protocol.ErrInvalidName, "Ada Lovelace", 300},
		{"zero salary", f.admin, employee, Set("X"), Set[uint64](0), protocol.ErrInvalidSalary, "Ada Lovelace", 300},
		{"not admin", employee, employee, Set("X"), Unchanged[uint64](), protocol.ErrUnauthorized, "Ada Lovelace", 300},
		{"missing", f.admin, f.test.User(1), Set("X"), Unchanged[uint64](), protocol.ErrEmployeeNotFound, "Ada Lovelace", 300},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := f.reg.UpdateEmployee(f.ctx, tc.actor, tc.employee, tc.newName, tc.newSalary)
			if err != tc.err {
				t.Errorf("got %v, want %v", err, tc.err)
			}

			e, err := f.reg.GetEmployee(f.ctx, employee)
			if err != nil {
				t.Fatalf("Failed to get employee : %s", err)
			}
			if e.Name != tc.wantName || e.Salary != tc.wantSalary {
				t.Errorf("got %s/%d, want %s/%d", e.Name, e.Salary, tc.wantName, tc.wantSalary)
			}
			if e.Rank != RankJunior || e.Status != StatusActive {
				t.Errorf("Update changed other fields : %s", spew.Sdump(e))
			}
		})
	}
}

func TestPromoteEmployee(t *testing.T) {
	f := setup(t, 2)
	employee := f.test.User(0)

	if err := f.reg.PromoteEmployee(f.ctx, f.admin, employee, RankMid, 10); err != protocol.ErrEmployeeNotFound {
		t.Errorf("got %v, want %v", err, protocol.ErrEmployeeNotFound)
	}

	if err := f.reg.AddEmployee(f.ctx, f.admin, employee, "Ada", 100, RankMid); err != nil {
		t.Fatalf("Failed to add employee : %s", err)
	}

	tt := []struct {
		name       string
		actor      address.Address
		rank       Rank
		salary     uint64
		err        error
		wantRank   Rank
		wantSalary uint64
	}{
		{"same rank", f.admin, RankMid, 500, protocol.ErrSameRank, RankMid, 100},
		{"not admin", employee, RankLead, 500, protocol.ErrUnauthorized, RankMid, 100},
		{"zero salary", f.admin, RankLead, 0, protocol.ErrInvalidSalary, RankMid, 100},
		{"promote", f.admin, RankLead, 500, nil, RankLead, 500},
		{"demote", f.admin, RankJunior, 80, nil, RankJunior, 80},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := f.reg.PromoteEmployee(f.ctx, tc.actor, employee, tc.rank, tc.salary)
			if err != tc.err {
				t.Errorf("got %v, want %v", err, tc.err)
			}

			e, err := f.reg.GetEmployee(f.ctx, employee)
			if err != nil {
				t.Fatalf("Failed to get employee : %s", err)
			}
			if e.Rank != tc.wantRank || e.Salary != tc.wantSalary {
				t.Errorf("got %s/%d, want %s/%d", e.Rank, e.Salary, tc.wantRank, tc.wantSalary)
			}
		})
	}
}

func TestListEmployees(t *testing.T) {
	f := setup(t, 4)

	for i := 3; i >= 0; i-- {
		if err := f.reg.AddEmployee(f.ctx, f.admin, f.test.User(i), tests.RandomName(), 100,
			RankJunior); err != nil {
			t.Fatalf("Failed to add employee : %s", err)
		}
	}

	employees, err := f.reg.ListEmployees(f.ctx)
	if err != nil {
		t.Fatalf("Failed to list employees : %s", err)
	}

	if len(employees) != 4 {
		t.Fatalf("got %d employees, want 4", len(employees))
	}
	for i := 1; i < len(employees); i++ {
		if employees[i-1].Address.Compare(employees[i].Address) >= 0 {
			t.Errorf("Employees not sorted :\n%s", spew.Sdump(employees))
		}
	}
}

func TestRank(t *testing.T) {
	tt := []struct {
		text string
		rank Rank
	}{
		{"Junior", RankJunior},
		{"Mid", RankMid},
		{"Senior", RankSenior},
		{"Lead", RankLead},
		{"Manager", RankManager},
		{"Director", RankDirector},
	}

	for _, tc := range tt {
		t.Run(tc.text, func(t *testing.T) {
			got, err := RankFromString(tc.text)
			if err != nil {
				t.Fatalf("Failed to parse rank : %s", err)
			}
			if got != tc.rank {
				t.Errorf("got %v, want %v", got, tc.rank)
			}
		})
	}

	if _, err := RankFromString("Intern"); err == nil {
		t.Errorf("Want error for unknown rank")
	}
	if _, err := Rank(42).MarshalText(); err == nil {
		t.Errorf("Want error for out of range rank")
	}
}
