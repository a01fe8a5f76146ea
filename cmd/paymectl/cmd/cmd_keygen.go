package cmd

import (
	"fmt"

	"github.com/payme/contracts/pkg/wallet"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const FlagCount = "count"

var cmdKeygen = &cobra.Command{
	Use:   "keygen",
	Short: "Generates a mnemonic, or derives keys from --mnemonic",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) != 0 {
			return errors.New("Incorrect argument count")
		}

		mnemonic, _ := c.Flags().GetString(FlagMnemonic)
		passphrase, _ := c.Flags().GetString(FlagPassphrase)
		index, _ := c.Flags().GetUint32(FlagIndex)
		count, _ := c.Flags().GetUint32(FlagCount)

		if len(mnemonic) == 0 {
			var err error
			mnemonic, err = wallet.NewMnemonic()
			if err != nil {
				return err
			}
			fmt.Printf("Mnemonic : %s\n", mnemonic)
		}

		for i := index; i < index+count; i++ {
			key, err := wallet.DeriveKey(mnemonic, passphrase, i)
			if err != nil {
				return err
			}

			fmt.Printf("Index %d\n", i)
			fmt.Printf("  Private Key : %s\n", key.Hex())
			fmt.Printf("  Address : %s\n", key.Address())
		}
		return nil
	},
}

func init() {
	cmdKeygen.Flags().Uint32(FlagCount, 1, "number of keys to derive")
}
