package cmd

import (
	"github.com/spf13/cobra"
)

const (
	FlagKey        = "key"
	FlagMnemonic   = "mnemonic"
	FlagPassphrase = "passphrase"
	FlagIndex      = "index"
)

var rootCmd = &cobra.Command{
	Use:           "paymectl",
	Short:         "Payme token ledger and employee registry CLI",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the command named by the process arguments.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(cmdKeygen)
	rootCmd.AddCommand(cmdLedger)
	rootCmd.AddCommand(cmdToken)
	rootCmd.AddCommand(cmdRegistry)

	rootCmd.PersistentFlags().String(FlagKey, "", "hex private key of the acting identity")
	rootCmd.PersistentFlags().String(FlagMnemonic, "", "BIP-39 mnemonic of the acting identity")
	rootCmd.PersistentFlags().String(FlagPassphrase, "", "BIP-39 passphrase")
	rootCmd.PersistentFlags().Uint32(FlagIndex, 0, "child index derived from the mnemonic")
}
