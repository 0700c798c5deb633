package collector

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"LeveredVault/internal/model"
	"LeveredVault/internal/units"
)

// MockReader returns fixed base-unit values for development and testing.
// Errs maps a method name ("NativeBalance", "TokenBalance", ...) to the
// error it should fail with.
type MockReader struct {
	Native    *big.Int
	Wrapped   *big.Int
	Vault     *big.Int
	Allowance *big.Int
	Decimals  uint8
	Errs      map[string]error

	WrappedToken common.Address
	VaultToken   common.Address
}

func (m *MockReader) Name() string { return "mock" }

func (m *MockReader) NativeBalance(_ context.Context, _ common.Address) (*big.Int, error) {
	if err := m.Errs["NativeBalance"]; err != nil {
		return nil, err
	}
	return m.Native, nil
}

func (m *MockReader) TokenBalance(_ context.Context, token, _ common.Address) (*big.Int, error) {
	if err := m.Errs["TokenBalance"]; err != nil {
		return nil, err
	}
	if token == m.VaultToken {
		return m.Vault, nil
	}
	return m.Wrapped, nil
}

func (m *MockReader) TokenAllowance(_ context.Context, _, _, _ common.Address) (*big.Int, error) {
	if err := m.Errs["TokenAllowance"]; err != nil {
		return nil, err
	}
	return m.Allowance, nil
}

func (m *MockReader) TokenDecimals(_ context.Context, _ common.Address) (uint8, error) {
	if err := m.Errs["TokenDecimals"]; err != nil {
		return 0, err
	}
	if m.Decimals == 0 {
		return units.DefaultDecimals, nil
	}
	return m.Decimals, nil
}

// Tokens identifies the contracts an account is read against. The vault
// contract is both the LVT token and the allowance spender.
type Tokens struct {
	Wrapped         common.Address
	Vault           common.Address
	NativeDecimals  int32
	WrappedDecimals int32
	VaultDecimals   int32
}

// Collector reads an account's balances and allowance into a Snapshot.
type Collector struct {
	Reader Reader
	Tokens Tokens
	logger *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(reader Reader, tokens Tokens, logger *zap.Logger) *Collector {
	return &Collector{Reader: reader, Tokens: tokens, logger: logger}
}

// LoadDecimals asks the token contracts for their precision, keeping the
// configured value for any token that cannot answer.
func (c *Collector) LoadDecimals(ctx context.Context) {
	if d, err := c.Reader.TokenDecimals(ctx, c.Tokens.Wrapped); err != nil {
		c.logger.Warn("wrapped token decimals unavailable, keeping configured value",
			zap.Int32("decimals", c.Tokens.WrappedDecimals), zap.Error(err))
	} else {
		c.Tokens.WrappedDecimals = int32(d)
	}
	if d, err := c.Reader.TokenDecimals(ctx, c.Tokens.Vault); err != nil {
		c.logger.Warn("vault token decimals unavailable, keeping configured value",
			zap.Int32("decimals", c.Tokens.VaultDecimals), zap.Error(err))
	} else {
		c.Tokens.VaultDecimals = int32(d)
	}
}

// Collect reads every value for account. A value that fails to load is
// logged, reads as zero and is named in Snapshot.Missing; only context
// cancellation fails the whole collection.
func (c *Collector) Collect(ctx context.Context, account common.Address) (*model.Snapshot, error) {
	snap := &model.Snapshot{Account: account.Hex()}

	// Native balance
	if v, err := c.Reader.NativeBalance(ctx, account); err != nil {
		c.missing(snap, model.FieldNative, err)
	} else {
		snap.Balances.Native = units.FromBaseUnits(v, c.Tokens.NativeDecimals)
	}

	// Wrapped token balance
	if v, err := c.Reader.TokenBalance(ctx, c.Tokens.Wrapped, account); err != nil {
		c.missing(snap, model.FieldWrapped, err)
	} else {
		snap.Balances.Wrapped = units.FromBaseUnits(v, c.Tokens.WrappedDecimals)
	}

	// Vault token (LVT) balance
	if v, err := c.Reader.TokenBalance(ctx, c.Tokens.Vault, account); err != nil {
		c.missing(snap, model.FieldVault, err)
	} else {
		snap.Balances.Vault = units.FromBaseUnits(v, c.Tokens.VaultDecimals)
	}

	// Wrapped token allowance granted to the vault
	if v, err := c.Reader.TokenAllowance(ctx, c.Tokens.Wrapped, account, c.Tokens.Vault); err != nil {
		c.missing(snap, model.FieldAllowance, err)
	} else {
		snap.Allowance.Amount = units.FromBaseUnits(v, c.Tokens.WrappedDecimals)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect %s: %w", account.Hex(), err)
	}
	snap.FetchedAt = time.Now()
	return snap, nil
}

func (c *Collector) missing(snap *model.Snapshot, field string, err error) {
	c.logger.Warn("value unavailable, reading as zero",
		zap.String("account", snap.Account),
		zap.String("field", field),
		zap.String("reader", c.Reader.Name()),
		zap.Error(err))
	snap.Missing = append(snap.Missing, field)
}
