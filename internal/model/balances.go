package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalances holds an account's holdings in token units (not base units).
type AccountBalances struct {
	Native  decimal.Decimal `json:"native_balance"`
	Wrapped decimal.Decimal `json:"wrapped_token_balance"`
	Vault   decimal.Decimal `json:"vault_token_balance"`
}

// AllowanceState is the wrapped-token allowance granted to the vault contract.
type AllowanceState struct {
	Amount decimal.Decimal `json:"allowance_amount"`
}

// Snapshot is one read of an account's on-chain state.
type Snapshot struct {
	Account   string          `json:"account"`
	Balances  AccountBalances `json:"balances"`
	Allowance AllowanceState  `json:"allowance"`
	Missing   []string        `json:"missing,omitempty"` // fields that failed to load and read as zero
	FetchedAt time.Time       `json:"fetched_at"`
}

// Snapshot field names used in Missing.
const (
	FieldNative    = "native_balance"
	FieldWrapped   = "wrapped_token_balance"
	FieldVault     = "vault_token_balance"
	FieldAllowance = "allowance_amount"
)

// Changed reports whether balances or allowance differ from prev.
func (s *Snapshot) Changed(prev *Snapshot) bool {
	if prev == nil {
		return true
	}
	return !s.Balances.Native.Equal(prev.Balances.Native) ||
		!s.Balances.Wrapped.Equal(prev.Balances.Wrapped) ||
		!s.Balances.Vault.Equal(prev.Balances.Vault) ||
		!s.Allowance.Amount.Equal(prev.Allowance.Amount)
}
