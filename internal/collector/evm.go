package collector

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// erc20ABI covers the read-only subset of ERC-20 the collector needs.
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

// chainClient is the part of ethclient.Client the reader uses.
type chainClient interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// EVMReader implements Reader over an EVM JSON-RPC endpoint.
type EVMReader struct {
	client chainClient
	erc20  abi.ABI
	closer func()
}

// NewEVMReader dials rpcURL.
func NewEVMReader(ctx context.Context, rpcURL string) (*EVMReader, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	r, err := newEVMReader(client)
	if err != nil {
		client.Close()
		return nil, err
	}
	r.closer = client.Close
	return r, nil
}

func newEVMReader(client chainClient) (*EVMReader, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	return &EVMReader{client: client, erc20: parsed}, nil
}

func (r *EVMReader) Name() string { return "evm" }

func (r *EVMReader) Close() {
	if r.closer != nil {
		r.closer()
	}
}

func (r *EVMReader) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	bal, err := r.client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("native balance of %s: %w", account.Hex(), err)
	}
	return bal, nil
}

func (r *EVMReader) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	out, err := r.call(ctx, token, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return toBigInt(out, "balanceOf")
}

func (r *EVMReader) TokenAllowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	out, err := r.call(ctx, token, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return toBigInt(out, "allowance")
}

func (r *EVMReader) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	out, err := r.call(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("decimals: expected 1 output, got %d", len(out))
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected type %T", out[0])
	}
	return d, nil
}

func (r *EVMReader) call(ctx context.Context, token common.Address, method string, args ...interface{}) ([]interface{}, error) {
	input, err := r.erc20.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	output, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, token.Hex(), err)
	}
	values, err := r.erc20.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func toBigInt(out []interface{}, method string) (*big.Int, error) {
	if len(out) != 1 {
		return nil, fmt.Errorf("%s: expected 1 output, got %d", method, len(out))
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected type %T", method, out[0])
	}
	return v, nil
}
