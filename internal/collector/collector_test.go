package collector

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"LeveredVault/internal/model"
)

var (
	account = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	wrapped = common.HexToAddress("0xf237dE5664D3c2D2545684E76fef02A3A58A364c")
	vault   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func ether(s string) *big.Int {
	v, _ := new(big.Int).SetString(s+"000000000000000000", 10)
	return v
}

func tokens() Tokens {
	return Tokens{Wrapped: wrapped, Vault: vault, NativeDecimals: 18, WrappedDecimals: 18, VaultDecimals: 18}
}

func TestCollect(t *testing.T) {
	reader := &MockReader{
		Native:       ether("10"),
		Wrapped:      ether("3"),
		Vault:        ether("100"),
		Allowance:    ether("2"),
		VaultToken:   vault,
		WrappedToken: wrapped,
	}
	c := NewCollector(reader, tokens(), zaptest.NewLogger(t))

	snap, err := c.Collect(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, account.Hex(), snap.Account)
	assert.True(t, snap.Balances.Native.Equal(decimal.NewFromInt(10)))
	assert.True(t, snap.Balances.Wrapped.Equal(decimal.NewFromInt(3)))
	assert.True(t, snap.Balances.Vault.Equal(decimal.NewFromInt(100)))
	assert.True(t, snap.Allowance.Amount.Equal(decimal.NewFromInt(2)))
	assert.Empty(t, snap.Missing)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestCollect_FailedReadsAreZeroAndMissing(t *testing.T) {
	reader := &MockReader{
		Native:     ether("10"),
		Allowance:  ether("5"),
		VaultToken: vault,
		Errs: map[string]error{
			"TokenBalance":   errors.New("execution reverted"),
			"TokenAllowance": errors.New("timeout"),
		},
	}
	c := NewCollector(reader, tokens(), zaptest.NewLogger(t))

	snap, err := c.Collect(context.Background(), account)
	require.NoError(t, err)
	assert.True(t, snap.Balances.Native.Equal(decimal.NewFromInt(10)))
	assert.True(t, snap.Balances.Wrapped.IsZero())
	assert.True(t, snap.Balances.Vault.IsZero())
	assert.True(t, snap.Allowance.Amount.IsZero())
	assert.ElementsMatch(t, []string{model.FieldWrapped, model.FieldVault, model.FieldAllowance}, snap.Missing)
}

func TestCollect_NilValuesReadAsZero(t *testing.T) {
	c := NewCollector(&MockReader{}, tokens(), zaptest.NewLogger(t))
	snap, err := c.Collect(context.Background(), account)
	require.NoError(t, err)
	assert.True(t, snap.Balances.Native.IsZero())
	assert.True(t, snap.Allowance.Amount.IsZero())
}

func TestCollect_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewCollector(&MockReader{}, tokens(), zaptest.NewLogger(t))
	_, err := c.Collect(ctx, account)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadDecimals(t *testing.T) {
	c := NewCollector(&MockReader{Decimals: 6}, tokens(), zaptest.NewLogger(t))
	c.LoadDecimals(context.Background())
	assert.Equal(t, int32(6), c.Tokens.WrappedDecimals)
	assert.Equal(t, int32(6), c.Tokens.VaultDecimals)

	failing := NewCollector(&MockReader{Errs: map[string]error{"TokenDecimals": errors.New("no code")}}, tokens(), zaptest.NewLogger(t))
	failing.LoadDecimals(context.Background())
	assert.Equal(t, int32(18), failing.Tokens.WrappedDecimals)
}
