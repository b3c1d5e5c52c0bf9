package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Contract performs read-only calls against one deployed contract.
type Contract struct {
	address common.Address
	abi     abi.ABI
	caller  bind.ContractCaller
}

func NewContract(address common.Address, parsed abi.ABI, caller bind.ContractCaller) *Contract {
	return &Contract{address: address, abi: parsed, caller: caller}
}

func (c *Contract) Address() common.Address {
	return c.address
}

func (c *Contract) Pack(method string, args ...interface{}) ([]byte, error) {
	return c.abi.Pack(method, args...)
}

// Call packs, executes at the latest block and unpacks a view method.
func (c *Contract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	if c.caller == nil {
		return nil, errors.New("contract caller is nil")
	}
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	to := c.address
	out, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(out) == 0 {
		code, err := c.caller.CodeAt(ctx, c.address, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		if len(code) == 0 {
			return nil, fmt.Errorf("call %s: %w", method, bind.ErrNoCode)
		}
	}
	values, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// ArbContract is a flash-loan arbitrage contract exposing calculateProfit
// and executeArbitrage.
type ArbContract struct {
	*Contract
}

func NewStETHArb(address common.Address, caller bind.ContractCaller) *ArbContract {
	return &ArbContract{Contract: NewContract(address, StETHArbABI, caller)}
}

func NewDaiPegArb(address common.Address, caller bind.ContractCaller) *ArbContract {
	return &ArbContract{Contract: NewContract(address, DaiPegArbABI, caller)}
}

// CalculateProfit runs the contract's simulation. aux carries the extra price
// inputs some contracts take after the flash amount.
func (a *ArbContract) CalculateProfit(ctx context.Context, flashAmount *big.Int, aux ...*big.Int) (*big.Int, bool, error) {
	args := make([]interface{}, 0, len(aux)+1)
	args = append(args, flashAmount)
	for _, v := range aux {
		args = append(args, v)
	}
	out, err := a.Call(ctx, "calculateProfit", args...)
	if err != nil {
		return nil, false, err
	}
	if len(out) != 2 {
		return nil, false, fmt.Errorf("calculateProfit: expected 2 outputs, got %d", len(out))
	}
	profit, ok := out[0].(*big.Int)
	if !ok {
		return nil, false, fmt.Errorf("calculateProfit: unexpected profit type %T", out[0])
	}
	profitable, ok := out[1].(bool)
	if !ok {
		return nil, false, fmt.Errorf("calculateProfit: unexpected flag type %T", out[1])
	}
	return profit, profitable, nil
}

// PackExecuteSpread encodes executeArbitrage for the multi-venue contract.
func (a *ArbContract) PackExecuteSpread(flashAmount, minOut *big.Int, path []common.Address, swapData []byte) ([]byte, error) {
	if path == nil {
		path = []common.Address{}
	}
	if swapData == nil {
		swapData = []byte{}
	}
	return a.Pack("executeArbitrage", flashAmount, minOut, path, swapData)
}

// PackExecutePeg encodes executeArbitrage for the peg contract.
func (a *ArbContract) PackExecutePeg(flashAmount, minOut *big.Int, router common.Address, swapData []byte, aOverB bool) ([]byte, error) {
	if swapData == nil {
		swapData = []byte{}
	}
	return a.Pack("executeArbitrage", flashAmount, minOut, router, swapData, aOverB)
}
