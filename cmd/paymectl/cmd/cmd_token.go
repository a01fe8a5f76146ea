package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/payme/contracts/internal/token"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdToken = &cobra.Command{
	Use:   "token",
	Short: "Token ledger operations",
}

// tokenCommand builds a subcommand whose first argument is the token contract address.
func tokenCommand(use, short string, argCount int,
	run func(c *cobra.Command, s *session, tok *token.Token, args []string) error) *cobra.Command {

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
				return run(c, s, token.New(s.db, s.host, contract), args[1:])
			})
		},
	}
}

var cmdTokenInit = tokenCommand("init contract name symbol decimals",
	"Initializes a token with the acting key as admin", 4,
	func(c *cobra.Command, s *session, tok *token.Token, args []string) error {
		decimals, err := strconv.ParseUint(args[2], 10, 8)
		if err != nil {
			return errors.Wrap(err, "decimals")
		}

		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		if err := s.invoke("token.Initialize", func(ctx context.Context) error {
			return tok.Initialize(ctx, actor, args[0], args[1], uint8(decimals))
		}); err != nil {
			return err
		}
		return printMetadata(s, tok)
	})

var cmdTokenMint = tokenCommand("mint contract to amount", "Mints new tokens", 3,
	func(c *cobra.Command, s *session, tok *token.Token, args []string) error {
		to, err := parseAddress("to", args[0])
		if err != nil {
			return err
		}
		amount, err := parseAmount("amount", args[1])
		if err != nil {
			return err
		}
		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		return s.invoke("token.Mint", func(ctx context.Context) error {
			return tok.Mint(ctx, actor, to, amount)
		})
	})

var cmdTokenBurn = tokenCommand("burn contract amount", "Burns tokens of the acting key", 2,
	func(c *cobra.Command, s *session, tok *token.Token, args []string) error {
		amount, err := parseAmount("amount", args[0])
		if err != nil {
			return err
		}
		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		return s.invoke("token.Burn", func(ctx context.Context) error {
			return tok.Burn(ctx, actor, actor, amount)
		})
	})

var cmdTokenTransfer = tokenCommand("transfer contract to amount",
	"Transfers tokens from the acting key", 3,
	func(c *cobra.Command, s *session, tok *token.Token, args []string) error {
		to, err := parseAddress("to", args[0])
		if err != nil {
			return err
		}
		amount, err := parseAmount("amount", args[1])
		if err != nil {
			return err
		}
		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		return s.invoke("token.Transfer", func(ctx context.Context) error {
			return tok.Transfer(ctx, actor, actor, to, amount)
		})
	})

var cmdTokenApprove = tokenCommand("approve contract spender amount expiration_ledger",
	"Approves spender to move tokens of the acting key", 4,
	func(c *cobra.Command, s *session, tok *token.Token, args []string) error {
		spender, err := parseAddress("spender", args[0])
		if err != nil {
			return err
		}
		amount, err := parseAmount("amount", args[1])
		if err != nil {
			return err
		}
		expiration, err := parseSequence("expiration_ledger", args[2])
		if err != nil {
			return err
		}
		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		return s.invoke("token.Approve", func(ctx context.Context) error {
			return tok.Approve(ctx, actor, actor, spender, amount, expiration)
		})
	})

var cmdTokenAllowance = tokenCommand("allowance contract owner spender",
	"Prints the live allowance of spender over owner", 3,
	func(c *cobra.Command, s *session, tok *token.Token, args []string) error {
		owner, err := parseAddress("owner", args[0])
		if err != nil {
			return err
		}
		spender, err := parseAddress("spender", args[1])
		if err != nil {
			return err
		}

		var amount uint64
		if err := s.invoke("token.Allowance", func(ctx context.Context) error {
			var err error
			amount, err = tok.Allowance(ctx, owner, spender)
			return err
		}); err != nil {
			return err
		}

		fmt.Printf("%d\n", amount)
		return nil
	})

var cmdTokenTransferFrom = tokenCommand("transfer-from contract from to amount",
	"Moves approved tokens with the acting key as spender", 4,
	func(c *cobra.Command, s *session, tok *token.Token, args []string) error {
		from, err := parseAddress("from", args[0])
		if err != nil {
			return err
		}
		to, err := parseAddress("to", args[1])
		if err != nil {
			return err
		}
		amount, err := parseAmount("amount", args[2])
		if err != nil {
			return err
		}
		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		return s.invoke("token.TransferFrom", func(ctx context.Context) error {
			return tok.TransferFrom(ctx, actor, actor, from, to, amount)
		})
	})

var cmdTokenBurnFrom = tokenCommand("burn-from contract from amount",
	"Burns approved tokens with the acting key as spender", 3,
	func(c *cobra.Command, s *session, tok *token.Token, args []string) error {
		from, err := parseAddress("from", args[0])
		if err != nil {
			return err
		}
		amount, err := parseAmount("amount", args[1])
		if err != nil {
			return err
		}
		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		return s.invoke("token.BurnFrom", func(ctx context.Context) error {
			return tok.BurnFrom(ctx, actor, actor, from, amount)
		})
	})

var cmdTokenBalance = tokenCommand("balance contract holder", "Prints the balance of holder", 2,
	func(c *cobra.Command, s *session, tok *token.Token, args []string) error {
		holder, err := parseAddress("holder", args[0])
		if err != nil {
			return err
		}

		var balance uint64
		if err := s.invoke("token.Balance", func(ctx context.Context) error {
			var err error
			balance, err = tok.Balance(ctx, holder)
			return err
		}); err != nil {
			return err
		}

		fmt.Printf("%d\n", balance)
		return nil
	})

var cmdTokenHoldings = tokenCommand("holdings contract", "Lists every non-zero balance", 1,
	func(c *cobra.Command, s *session, tok *token.Token, args []string) error {
		var holdings []token.Holding
		if err := s.invoke("token.Holdings", func(ctx context.Context) error {
			var err error
			holdings, err = tok.Holdings(ctx)
			return err
		}); err != nil {
			return err
		}

		return printJSON(holdings)
	})

var cmdTokenInfo = tokenCommand("info contract", "Prints the token metadata", 1,
	func(c *cobra.Command, s *session, tok *token.Token, args []string) error {
		return printMetadata(s, tok)
	})

var cmdTokenSetAdmin = tokenCommand("set-admin contract admin", "Hands the admin role over", 2,
	func(c *cobra.Command, s *session, tok *token.Token, args []string) error {
		admin, err := parseAddress("admin", args[0])
		if err != nil {
			return err
		}
		actor, err := s.actor(c)
		if err != nil {
			return err
		}

		return s.invoke("token.SetAdmin", func(ctx context.Context) error {
			return tok.SetAdmin(ctx, actor, admin)
		})
	})

func printMetadata(s *session, tok *token.Token) error {
	var m *token.Metadata
	if err := s.invoke("token.Metadata", func(ctx context.Context) error {
		var err error
		m, err = tok.Metadata(ctx)
		return err
	}); err != nil {
		return err
	}

	return printJSON(m)
}

func init() {
	cmdToken.AddCommand(cmdTokenInit)
	cmdToken.AddCommand(cmdTokenMint)
	cmdToken.AddCommand(cmdTokenBurn)
	cmdToken.AddCommand(cmdTokenTransfer)
	cmdToken.AddCommand(cmdTokenApprove)
	cmdToken.AddCommand(cmdTokenAllowance)
	cmdToken.AddCommand(cmdTokenTransferFrom)
	cmdToken.AddCommand(cmdTokenBurnFrom)
	cmdToken.AddCommand(cmdTokenBalance)
	cmdToken.AddCommand(cmdTokenHoldings)
	cmdToken.AddCommand(cmdTokenInfo)
	cmdToken.AddCommand(cmdTokenSetAdmin)
}
