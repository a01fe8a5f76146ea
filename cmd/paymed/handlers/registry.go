package handlers

import (
	"bytes"
	"context"

	"github.com/payme/contracts/internal/platform/db"
	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/internal/registry"
	"github.com/payme/contracts/pkg/address"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// Registry serves the employee registry operations.
type Registry struct {
	MasterDB *db.DB
	Host     *host.Host
}

type initializeRegistryRequest struct {
	Name          string          `json:"name"`
	TokenContract address.Address `json:"token_contract"`
}

type addEmployeeRequest struct {
	Address address.Address `json:"address"`
	Name    string          `json:"name"`
	Salary  uint64          `json:"salary"`
	Rank    registry.Rank   `json:"rank"`
}

// Absent fields are left unchanged.
type updateEmployeeRequest struct {
	Name   *string `json:"name"`
	Salary *uint64 `json:"salary"`
}

type promoteEmployeeRequest struct {
	Rank   registry.Rank `json:"rank"`
	Salary uint64        `json:"salary"`
}

func (r *Registry) registry(c *fiber.Ctx) (*registry.Registry, error) {
	contract, err := addressParam(c, "contract")
	if err != nil {
		return nil, err
	}
	return registry.New(r.MasterDB, r.Host, contract), nil
}

// Initialize creates the institution with the signer as admin.
func (r *Registry) Initialize(c *fiber.Ctx) error {
	reg, err := r.registry(c)
	if err != nil {
		return err
	}
	var req initializeRegistryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	actor := actorFrom(c)
	err = invoke(c, r.Host, "registry.Initialize", func(ctx context.Context) error {
		return reg.Initialize(ctx, actor, req.Name, req.TokenContract)
	})
	if err != nil {
		return err
	}

	return r.respondInstitution(c, reg, fiber.StatusCreated)
}

// Institution returns the institution.
func (r *Registry) Institution(c *fiber.Ctx) error {
	reg, err := r.registry(c)
	if err != nil {
		return err
	}

	return r.respondInstitution(c, reg, fiber.StatusOK)
}

// Add creates an employee.
func (r *Registry) Add(c *fiber.Ctx) error {
	reg, err := r.registry(c)
	if err != nil {
		return err
	}
	var req addEmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	actor := actorFrom(c)
	err = invoke(c, r.Host, "registry.AddEmployee", func(ctx context.Context) error {
		return reg.AddEmployee(ctx, actor, req.Address, req.Name, req.Salary, req.Rank)
	})
	if err != nil {
		return err
	}

	return r.respondEmployee(c, reg, req.Address, fiber.StatusCreated)
}

// Get returns an employee.
func (r *Registry) Get(c *fiber.Ctx) error {
	reg, err := r.registry(c)
	if err != nil {
		return err
	}
	employee, err := addressParam(c, "employee")
	if err != nil {
		return err
	}

	return r.respondEmployee(c, reg, employee, fiber.StatusOK)
}

// List returns every employee.
func (r *Registry) List(c *fiber.Ctx) error {
	reg, err := r.registry(c)
	if err != nil {
		return err
	}

	var employees []*registry.Employee
	err = invoke(c, r.Host, "registry.ListEmployees", func(ctx context.Context) error {
		var err error
		employees, err = reg.ListEmployees(ctx)
		return err
	})
	if err != nil {
		return err
	}

	return c.JSON(employees)
}

// Remove deletes an employee.
func (r *Registry) Remove(c *fiber.Ctx) error {
	reg, err := r.registry(c)
	if err != nil {
		return err
	}
	employee, err := addressParam(c, "employee")
	if err != nil {
		return err
	}

	actor := actorFrom(c)
	err = invoke(c, r.Host, "registry.RemoveEmployee", func(ctx context.Context) error {
		return reg.RemoveEmployee(ctx, actor, employee)
	})
	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Update changes the name and/or salary of an employee.
func (r *Registry) Update(c *fiber.Ctx) error {
	reg, err := r.registry(c)
	if err != nil {
		return err
	}
	employee, err := addressParam(c, "employee")
	if err != nil {
		return err
	}
	var req updateEmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	name := registry.Unchanged[string]()
	if req.Name != nil {
		name = registry.Set(*req.Name)
	}
	salary := registry.Unchanged[uint64]()
	if req.Salary != nil {
		salary = registry.Set(*req.Salary)
	}

	actor := actorFrom(c)
	err = invoke(c, r.Host, "registry.UpdateEmployee", func(ctx context.Context) error {
		return reg.UpdateEmployee(ctx, actor, employee, name, salary)
	})
	if err != nil {
		return err
	}

	return r.respondEmployee(c, reg, employee, fiber.StatusOK)
}

// Promote changes the rank and salary of an employee.
func (r *Registry) Promote(c *fiber.Ctx) error {
	reg, err := r.registry(c)
	if err != nil {
		return err
	}
	employee, err := addressParam(c, "employee")
	if err != nil {
		return err
	}
	var req promoteEmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	actor := actorFrom(c)
	err = invoke(c, r.Host, "registry.PromoteEmployee", func(ctx context.Context) error {
		return reg.PromoteEmployee(ctx, actor, employee, req.Rank, req.Salary)
	})
	if err != nil {
		return err
	}

	return r.respondEmployee(c, reg, employee, fiber.StatusOK)
}

// Pay pays one salary to an employee.
func (r *Registry) Pay(c *fiber.Ctx) error {
	reg, err := r.registry(c)
	if err != nil {
		return err
	}
	employee, err := addressParam(c, "employee")
	if err != nil {
		return err
	}

	actor := actorFrom(c)
	err = invoke(c, r.Host, "registry.PayEmployee", func(ctx context.Context) error {
		return reg.PayEmployee(ctx, actor, employee)
	})
	if err != nil {
		return err
	}

	return r.respondEmployee(c, reg, employee, fiber.StatusOK)
}

// PayAll pays every active employee.
func (r *Registry) PayAll(c *fiber.Ctx) error {
	reg, err := r.registry(c)
	if err != nil {
		return err
	}

	actor := actorFrom(c)
	var payroll *registry.Payroll
	err = invoke(c, r.Host, "registry.PayAll", func(ctx context.Context) error {
		var err error
		payroll, err = reg.PayAll(ctx, actor)
		return err
	})
	if err != nil {
		return err
	}

	return c.JSON(payroll)
}

// Import adds every employee of a YAML roster body.
func (r *Registry) Import(c *fiber.Ctx) error {
	reg, err := r.registry(c)
	if err != nil {
		return err
	}

	roster, err := registry.LoadRoster(bytes.NewReader(c.Body()))
	if err != nil {
		return badRequest(errors.Wrap(err, "roster"))
	}

	actor := actorFrom(c)
	err = invoke(c, r.Host, "registry.Import", func(ctx context.Context) error {
		return reg.Import(ctx, actor, roster)
	})
	if err != nil {
		return err
	}

	return r.respondInstitution(c, reg, fiber.StatusCreated)
}

func (r *Registry) respondInstitution(c *fiber.Ctx, reg *registry.Registry, status int) error {
	var inst *registry.Institution
	err := invoke(c, r.Host, "registry.GetInstitutionInfo", func(ctx context.Context) error {
		var err error
		inst, err = reg.GetInstitutionInfo(ctx)
		return err
	})
	if err != nil {
		return err
	}

	return c.Status(status).JSON(inst)
}

func (r *Registry) respondEmployee(c *fiber.Ctx, reg *registry.Registry, employee address.Address,
	status int) error {

	var e *registry.Employee
	err := invoke(c, r.Host, "registry.GetEmployee", func(ctx context.Context) error {
		var err error
		e, err = reg.GetEmployee(ctx, employee)
		return err
	})
	if err != nil {
		return err
	}

	return c.Status(status).JSON(e)
}
