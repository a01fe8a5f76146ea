package handlers

import (
	"context"

	"github.com/payme/contracts/internal/platform/db"
	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/internal/token"
	"github.com/payme/contracts/pkg/address"

	"github.com/gofiber/fiber/v2"
)

// Token serves the token ledger operations.
type Token struct {
	MasterDB *db.DB
	Host     *host.Host
}

type initializeTokenRequest struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type mintRequest struct {
	To     address.Address `json:"to"`
	Amount uint64          `json:"amount"`
}

type burnRequest struct {
	From   address.Address `json:"from"`
	Amount uint64          `json:"amount"`
}

type transferRequest struct {
	From   address.Address `json:"from"`
	To     address.Address `json:"to"`
	Amount uint64          `json:"amount"`
}

type approveRequest struct {
	Owner            address.Address `json:"owner"`
	Spender          address.Address `json:"spender"`
	Amount           uint64          `json:"amount"`
	ExpirationLedger uint32          `json:"expiration_ledger"`
}

type transferFromRequest struct {
	Spender address.Address `json:"spender"`
	From    address.Address `json:"from"`
	To      address.Address `json:"to"`
	Amount  uint64          `json:"amount"`
}

type burnFromRequest struct {
	Spender address.Address `json:"spender"`
	From    address.Address `json:"from"`
	Amount  uint64          `json:"amount"`
}

type setAdminRequest struct {
	Admin address.Address `json:"admin"`
}

// BalanceResponse is the body returned for a balance query.
type BalanceResponse struct {
	Holder  address.Address `json:"holder"`
	Balance uint64          `json:"balance"`
}

// AllowanceResponse is the body returned for an allowance query.
type AllowanceResponse struct {
	Owner   address.Address `json:"owner"`
	Spender address.Address `json:"spender"`
	Amount  uint64          `json:"amount"`
}

func (t *Token) token(c *fiber.Ctx) (*token.Token, error) {
	contract, err := addressParam(c, "contract")
	if err != nil {
		return nil, err
	}
	return token.New(t.MasterDB, t.Host, contract), nil
}

// Initialize creates the token with the signer as admin.
func (t *Token) Initialize(c *fiber.Ctx) error {
	tok, err := t.token(c)
	if err != nil {
		return err
	}
	var req initializeTokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	actor := actorFrom(c)
	err = invoke(c, t.Host, "token.Initialize", func(ctx context.Context) error {
		return tok.Initialize(ctx, actor, req.Name, req.Symbol, req.Decimals)
	})
	if err != nil {
		return err
	}

	return t.respondMetadata(c, tok, fiber.StatusCreated)
}

// Mint creates tokens. Admin only.
func (t *Token) Mint(c *fiber.Ctx) error {
	tok, err := t.token(c)
	if err != nil {
		return err
	}
	var req mintRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	actor := actorFrom(c)
	err = invoke(c, t.Host, "token.Mint", func(ctx context.Context) error {
		return tok.Mint(ctx, actor, req.To, req.Amount)
	})
	if err != nil {
		return err
	}

	return t.respondBalance(c, tok, req.To)
}

// Burn destroys tokens of the signer.
func (t *Token) Burn(c *fiber.Ctx) error {
	tok, err := t.token(c)
	if err != nil {
		return err
	}
	var req burnRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	actor := actorFrom(c)
	err = invoke(c, t.Host, "token.Burn", func(ctx context.Context) error {
		return tok.Burn(ctx, actor, req.From, req.Amount)
	})
	if err != nil {
		return err
	}

	return t.respondBalance(c, tok, req.From)
}

// Transfer moves tokens of the signer.
func (t *Token) Transfer(c *fiber.Ctx) error {
	tok, err := t.token(c)
	if err != nil {
		return err
	}
	var req transferRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	actor := actorFrom(c)
	err = invoke(c, t.Host, "token.Transfer", func(ctx context.Context) error {
		return tok.Transfer(ctx, actor, req.From, req.To, req.Amount)
	})
	if err != nil {
		return err
	}

	return t.respondBalance(c, tok, req.From)
}

// Approve sets an allowance of the signer.
func (t *Token) Approve(c *fiber.Ctx) error {
	tok, err := t.token(c)
	if err != nil {
		return err
	}
	var req approveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	actor := actorFrom(c)
	err = invoke(c, t.Host, "token.Approve", func(ctx context.Context) error {
		return tok.Approve(ctx, actor, req.Owner, req.Spender, req.Amount, req.ExpirationLedger)
	})
	if err != nil {
		return err
	}

	return t.respondAllowance(c, tok, req.Owner, req.Spender)
}

// TransferFrom spends an allowance granted to the signer.
func (t *Token) TransferFrom(c *fiber.Ctx) error {
	tok, err := t.token(c)
	if err != nil {
		return err
	}
	var req transferFromRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	actor := actorFrom(c)
	err = invoke(c, t.Host, "token.TransferFrom", func(ctx context.Context) error {
		return tok.TransferFrom(ctx, actor, req.Spender, req.From, req.To, req.Amount)
	})
	if err != nil {
		return err
	}

	return t.respondAllowance(c, tok, req.From, req.Spender)
}

// BurnFrom burns through an allowance granted to the signer.
func (t *Token) BurnFrom(c *fiber.Ctx) error {
	tok, err := t.token(c)
	if err != nil {
		return err
	}
	var req burnFromRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	actor := actorFrom(c)
	err = invoke(c, t.Host, "token.BurnFrom", func(ctx context.Context) error {
		return tok.BurnFrom(ctx, actor, req.Spender, req.From, req.Amount)
	})
	if err != nil {
		return err
	}

	return t.respondAllowance(c, tok, req.From, req.Spender)
}

// SetAdmin hands over the admin role.
func (t *Token) SetAdmin(c *fiber.Ctx) error {
	tok, err := t.token(c)
	if err != nil {
		return err
	}
	var req setAdminRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	actor := actorFrom(c)
	err = invoke(c, t.Host, "token.SetAdmin", func(ctx context.Context) error {
		return tok.SetAdmin(ctx, actor, req.Admin)
	})
	if err != nil {
		return err
	}

	return t.respondMetadata(c, tok, fiber.StatusOK)
}

// Metadata returns the token metadata.
func (t *Token) Metadata(c *fiber.Ctx) error {
	tok, err := t.token(c)
	if err != nil {
		return err
	}

	return t.respondMetadata(c, tok, fiber.StatusOK)
}

// Balance returns the balance of a holder.
func (t *Token) Balance(c *fiber.Ctx) error {
	tok, err := t.token(c)
	if err != nil {
		return err
	}
	holder, err := addressParam(c, "holder")
	if err != nil {
		return err
	}

	return t.respondBalance(c, tok, holder)
}

// Holdings returns every non-zero balance.
func (t *Token) Holdings(c *fiber.Ctx) error {
	tok, err := t.token(c)
	if err != nil {
		return err
	}

	var holdings []token.Holding
	err = invoke(c, t.Host, "token.Holdings", func(ctx context.Context) error {
		var err error
		holdings, err = tok.Holdings(ctx)
		return err
	})
	if err != nil {
		return err
	}

	return c.JSON(holdings)
}

// Allowance returns the live allowance of a pair.
func (t *Token) Allowance(c *fiber.Ctx) error {
	tok, err := t.token(c)
	if err != nil {
		return err
	}
	owner, err := addressParam(c, "owner")
	if err != nil {
		return err
	}
	spender, err := addressParam(c, "spender")
	if err != nil {
		return err
	}

	return t.respondAllowance(c, tok, owner, spender)
}

func (t *Token) respondMetadata(c *fiber.Ctx, tok *token.Token, status int) error {
	var m *token.Metadata
	err := invoke(c, t.Host, "token.Metadata", func(ctx context.Context) error {
		var err error
		m, err = tok.Metadata(ctx)
		return err
	})
	if err != nil {
		return err
	}

	return c.Status(status).JSON(m)
}

func (t *Token) respondBalance(c *fiber.Ctx, tok *token.Token, holder address.Address) error {
	var balance uint64
	err := invoke(c, t.Host, "token.Balance", func(ctx context.Context) error {
		var err error
		balance, err = tok.Balance(ctx, holder)
		return err
	})
	if err != nil {
		return err
	}

	return c.JSON(BalanceResponse{Holder: holder, Balance: balance})
}

func (t *Token) respondAllowance(c *fiber.Ctx, tok *token.Token, owner,
	spender address.Address) error {

	var amount uint64
	err := invoke(c, t.Host, "token.Allowance", func(ctx context.Context) error {
		var err error
		amount, err = tok.Allowance(ctx, owner, spender)
		return err
	})
	if err != nil {
		return err
	}

	return c.JSON(AllowanceResponse{Owner: owner, Spender: spender, Amount: amount})
}
