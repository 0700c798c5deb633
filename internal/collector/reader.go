package collector

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Reader reads raw on-chain values in base units.
type Reader interface {
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error)
	TokenAllowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)
	Name() string
}
