package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdLedger = &cobra.Command{
	Use:   "ledger",
	Short: "Ledger sequence",
}

var cmdLedgerSequence = &cobra.Command{
	Use:   "sequence",
	Short: "Prints the current ledger sequence",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) != 0 {
			return errors.New("Incorrect argument count")
		}

		return withSession(func(s *session) error {
			seq, err := s.host.Sequence(s.ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%d\n", seq)
			return nil
		})
	},
}

var cmdLedgerAdvance = &cobra.Command{
	Use:   "advance [count]",
	Short: "Closes count ledgers (default 1)",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) > 1 {
			return errors.New("Incorrect argument count")
		}

		count := uint32(1)
		if len(args) == 1 {
			var err error
			if count, err = parseSequence("count", args[0]); err != nil {
				return err
			}
		}

		return withSession(func(s *session) error {
			var seq uint32
			for i := uint32(0); i < count; i++ {
				var err error
				if seq, err = s.host.Advance(s.ctx); err != nil {
					return err
				}
			}
			fmt.Printf("%d\n", seq)
			return nil
		})
	},
}

func init() {
	cmdLedger.AddCommand(cmdLedgerSequence)
	cmdLedger.AddCommand(cmdLedgerAdvance)
}
