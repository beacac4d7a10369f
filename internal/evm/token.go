package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// erc20ReadABI is the minimal token read interface the functionality check
// binds against. Dynamic ABI dispatch is deliberately avoided: these four
// methods are the whole surface.
const erc20ReadABI = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// ContractCaller is the read-only call capability the token check needs.
// *chain.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TokenConfig is the expected token configuration used at deploy time.
// TotalSupply is in human-readable units; it is scaled by Decimals wherever
// raw integer units are required.
type TokenConfig struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
}

// FieldCheck is a single actual-vs-expected comparison.
type FieldCheck struct {
	Actual   string `json:"actual"`
	Expected string `json:"expected"`
	Matches  bool   `json:"matches"`
}

// FunctionalityCheck is the aggregate result of the four token read calls.
type FunctionalityCheck struct {
	Responsive  bool       `json:"responsive"`
	Error       string     `json:"error,omitempty"`
	Name        FieldCheck `json:"name"`
	Symbol      FieldCheck `json:"symbol"`
	Decimals    FieldCheck `json:"decimals"`
	TotalSupply FieldCheck `json:"totalSupply"`
	AllMatch    bool       `json:"allMatch"`
}

// TokenReadABI returns the parsed minimal token interface.
func TokenReadABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(erc20ReadABI))
}

// CheckToken issues the four token read calls concurrently and compares
// the answers against the expected configuration. A failing call marks the
// contract not responsive with the underlying error text; it never returns
// an error itself.
func CheckToken(ctx context.Context, caller ContractCaller, address common.Address, expected TokenConfig) FunctionalityCheck {
	tokenABI, err := TokenReadABI()
	if err != nil {
		return FunctionalityCheck{Error: fmt.Sprintf("parse token abi: %v", err)}
	}

	var (
		name     string
		symbol   string
		decimals uint8
		supply   *big.Int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		values, err := callTokenMethod(gctx, caller, address, tokenABI, "name")
		if err != nil {
			return err
		}
		name, _ = values[0].(string)
		return nil
	})
	g.Go(func() error {
		values, err := callTokenMethod(gctx, caller, address, tokenABI, "symbol")
		if err != nil {
			return err
		}
		symbol, _ = values[0].(string)
		return nil
	})
	g.Go(func() error {
		values, err := callTokenMethod(gctx, caller, address, tokenABI, "decimals")
		if err != nil {
			return err
		}
		decimals, _ = values[0].(uint8)
		return nil
	})
	g.Go(func() error {
		values, err := callTokenMethod(gctx, caller, address, tokenABI, "totalSupply")
		if err != nil {
			return err
		}
		supply, _ = values[0].(*big.Int)
		return nil
	})

	if err := g.Wait(); err != nil {
		return FunctionalityCheck{Responsive: false, Error: err.Error()}
	}

	check := FunctionalityCheck{Responsive: true}
	check.Name = FieldCheck{Actual: name, Expected: expected.Name, Matches: name == expected.Name}
	check.Symbol = FieldCheck{Actual: symbol, Expected: expected.Symbol, Matches: symbol == expected.Symbol}
	check.Decimals = FieldCheck{
		Actual:   fmt.Sprintf("%d", decimals),
		Expected: fmt.Sprintf("%d", expected.Decimals),
		Matches:  decimals == expected.Decimals,
	}

	expectedRaw := ScaleSupply(expected.TotalSupply, expected.Decimals)
	check.TotalSupply = FieldCheck{
		Actual:   DescaleSupply(supply, decimals).String(),
		Expected: expected.TotalSupply.String(),
		Matches:  supply != nil && supply.Cmp(expectedRaw) == 0,
	}

	check.AllMatch = check.Name.Matches && check.Symbol.Matches &&
		check.Decimals.Matches && check.TotalSupply.Matches
	return check
}

func callTokenMethod(ctx context.Context, caller ContractCaller, address common.Address, tokenABI abi.ABI, method string) ([]interface{}, error) {
	data, err := tokenABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &address, Data: data}
	resp, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := tokenABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("call %s: empty return", method)
	}
	return values, nil
}

// ScaleSupply converts a human-readable token amount to raw integer units.
func ScaleSupply(supply *big.Int, decimals uint8) *big.Int {
	if supply == nil {
		return new(big.Int)
	}
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(supply, factor)
}

// DescaleSupply converts raw integer units back to a human-readable amount,
// truncating any fractional part.
func DescaleSupply(raw *big.Int, decimals uint8) *big.Int {
	if raw == nil {
		return new(big.Int)
	}
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Div(raw, factor)
}
