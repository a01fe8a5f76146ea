package cmd

import (
	"context"

	"github.com/payme/contracts/internal/registry"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	FlagName   = "name"
	FlagSalary = "salary"
)

var cmdRegistry = &cobra.Command{
	Use:   "registry",
	Short: "Employee registry operations",
}

// registryCommand builds a subcommand whose first argument is the registry contract address.
func registryCommand(use, short string, argCount int,
	run func(c *cobra.Command, s *session, reg *registry.Registry, args []string) error) *cobra.Command {

	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(c *cobra.Command, args []string) error {
			if len(args) != argCount {
				return errors.New("Incorrect argument count")
			}

			contract, err := parseAddress("contract", args[0])
			if err != nil {
				return err
			}

			return withSession(func(s *session) error {
				return run(c, s, registry.New(s.db, s.host, contract), args[1:])
			})
		},
	}
}

var cmdRegistryInit = registryCommand("init contract name token_contract",
	"Initializes an institution with the acting key as admin", 3,
	func(c *cobra.Command, s *session, reg *registry.Registry, args []string) error {
		tokenContract, err := parseAddress("token_contract", args[1])
		if err != nil {
			return err
		}
		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		if err := s.invoke("registry.Initialize", func(ctx context.Context) error {
			return reg.Initialize(ctx, actor, args[0], tokenContract)
		}); err != nil {
			return err
		}
		return printInstitution(s, reg)
	})

var cmdRegistryInfo = registryCommand("info contract", "Prints the institution", 1,
	func(c *cobra.Command, s *session, reg *registry.Registry, args []string) error {
		return printInstitution(s, reg)
	})

var cmdRegistryAdd = registryCommand("add contract employee name salary rank", "Adds an employee", 5,
	func(c *cobra.Command, s *session, reg *registry.Registry, args []string) error {
		employee, err := parseAddress("employee", args[0])
		if err != nil {
			return err
		}
		salary, err := parseAmount("salary", args[2])
		if err != nil {
			return err
		}
		rank, err := registry.RankFromString(args[3])
		if err != nil {
			return err
		}
		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		return s.invoke("registry.AddEmployee", func(ctx context.Context) error {
			return reg.AddEmployee(ctx, actor, employee, args[1], salary, rank)
		})
	})

var cmdRegistryGet = registryCommand("get contract employee", "Prints an employee", 2,
	func(c *cobra.Command, s *session, reg *registry.Registry, args []string) error {
		employee, err := parseAddress("employee", args[0])
		if err != nil {
			return err
		}

		var e *registry.Employee
		if err := s.invoke("registry.GetEmployee", func(ctx context.Context) error {
			var err error
			e, err = reg.GetEmployee(ctx, employee)
			return err
		}); err != nil {
			return err
		}

		return printJSON(e)
	})

var cmdRegistryList = registryCommand("list contract", "Lists every employee", 1,
	func(c *cobra.Command, s *session, reg *registry.Registry, args []string) error {
		var employees []*registry.Employee
		if err := s.invoke("registry.ListEmployees", func(ctx context.Context) error {
			var err error
			employees, err = reg.ListEmployees(ctx)
			return err
		}); err != nil {
			return err
		}

		return printJSON(employees)
	})

var cmdRegistryRemove = registryCommand("remove contract employee", "Removes an employee", 2,
	func(c *cobra.Command, s *session, reg *registry.Registry, args []string) error {
		employee, err := parseAddress("employee", args[0])
		if err != nil {
			return err
		}
		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		return s.invoke("registry.RemoveEmployee", func(ctx context.Context) error {
			return reg.RemoveEmployee(ctx, actor, employee)
		})
	})

var cmdRegistryUpdate = registryCommand("update contract employee",
	"Updates the name and/or salary of an employee", 2,
	func(c *cobra.Command, s *session, reg *registry.Registry, args []string) error {
		employee, err := parseAddress("employee", args[0])
		if err != nil {
			return err
		}

		name := registry.Unchanged[string]()
		if c.Flags().Changed(FlagName) {
			v, _ := c.Flags().GetString(FlagName)
			name = registry.Set(v)
		}

		salary := registry.Unchanged[uint64]()
		if c.Flags().Changed(FlagSalary) {
			v, _ := c.Flags().GetUint64(FlagSalary)
			salary = registry.Set(v)
		}

		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		return s.invoke("registry.UpdateEmployee", func(ctx context.Context) error {
			return reg.UpdateEmployee(ctx, actor, employee, name, salary)
		})
	})

var cmdRegistryPromote = registryCommand("promote contract employee rank salary",
	"Changes the rank and salary of an employee", 4,
	func(c *cobra.Command, s *session, reg *registry.Registry, args []string) error {
		employee, err := parseAddress("employee", args[0])
		if err != nil {
			return err
		}
		rank, err := registry.RankFromString(args[1])
		if err != nil {
			return err
		}
		salary, err := parseAmount("salary", args[2])
		if err != nil {
			return err
		}
		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		return s.invoke("registry.PromoteEmployee", func(ctx context.Context) error {
			return reg.PromoteEmployee(ctx, actor, employee, rank, salary)
		})
	})

var cmdRegistryPay = registryCommand("pay contract employee", "Pays one employee", 2,
	func(c *cobra.Command, s *session, reg *registry.Registry, args []string) error {
		employee, err := parseAddress("employee", args[0])
		if err != nil {
			return err
		}
		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		return s.invoke("registry.PayEmployee", func(ctx context.Context) error {
			return reg.PayEmployee(ctx, actor, employee)
		})
	})

var cmdRegistryPayAll = registryCommand("pay-all contract", "Pays every active employee", 1,
	func(c *cobra.Command, s *session, reg *registry.Registry, args []string) error {
		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		var payroll *registry.Payroll
		if err := s.invoke("registry.PayAll", func(ctx context.Context) error {
			var err error
			payroll, err = reg.PayAll(ctx, actor)
			return err
		}); err != nil {
			return err
		}

		return printJSON(payroll)
	})

var cmdRegistryImport = registryCommand("import contract roster.yaml",
	"Adds every employee of a YAML roster", 2,
	func(c *cobra.Command, s *session, reg *registry.Registry, args []string) error {
		roster, err := registry.LoadRosterFile(args[0])
		if err != nil {
			return err
		}
		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		return s.invoke("registry.Import", func(ctx context.Context) error {
			return reg.Import(ctx, actor, roster)
		})
	})

func printInstitution(s *session, reg *registry.Registry) error {
	var inst *registry.Institution
	if err := s.invoke("registry.GetInstitutionInfo", func(ctx context.Context) error {
		var err error
		inst, err = reg.GetInstitutionInfo(ctx)
		return err
	}); err != nil {
		return err
	}

	return printJSON(inst)
}

func init() {
	cmdRegistryUpdate.Flags().String(FlagName, "", "new name")
	cmdRegistryUpdate.Flags().Uint64(FlagSalary, 0, "new salary")

	cmdRegistry.AddCommand(cmdRegistryInit)
	cmdRegistry.AddCommand(cmdRegistryInfo)
	cmdRegistry.AddCommand(cmdRegistryAdd)
	cmdRegistry.AddCommand(cmdRegistryGet)
	cmdRegistry.AddCommand(cmdRegistryList)
	cmdRegistry.AddCommand(cmdRegistryRemove)
	cmdRegistry.AddCommand(cmdRegistryUpdate)
	cmdRegistry.AddCommand(cmdRegistryPromote)
	cmdRegistry.AddCommand(cmdRegistryPay)
	cmdRegistry.AddCommand(cmdRegistryPayAll)
	cmdRegistry.AddCommand(cmdRegistryImport)
}
