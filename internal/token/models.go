package token

import (
	"github.com/payme/contracts/pkg/address"
)

// Metadata is the singleton record of a token contract.
type Metadata struct {
	Admin       address.Address `json:"admin"`
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	Decimals    uint8           `json:"decimals"`
	TotalSupply uint64          `json:"total_supply"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
}

// Allowance is the amount a spender may still move out of an owner's balance, up to and
// including the expiration ledger.
type Allowance struct {
	Amount           uint64 `json:"amount"`
	ExpirationLedger uint32 `json:"expiration_ledger"`
}

// Live returns true when the allowance can still be spent at ledger sequence seq.
func (a Allowance) Live(seq uint32) bool {
	return seq <= a.ExpirationLedger
}

// Holding is the balance of one holder.
type Holding struct {
	Holder  address.Address `json:"holder"`
	Balance uint64          `json:"balance"`
}
