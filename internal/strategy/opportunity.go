package strategy

import (
	"context"
	"math/big"

	"flashpeg-keeper/internal/exec"
	"flashpeg-keeper/internal/route"
	"flashpeg-keeper/internal/units"
)

type Direction string

const (
	DirectionNone Direction = ""
	// DirectionLowToHigh buys on the cheapest venue and sells on the richest.
	DirectionLowToHigh Direction = "buy_low_sell_high"
	DirectionAOverB    Direction = "a_over_b"
	DirectionBOverA    Direction = "b_over_a"
)

// Opportunity is built once per cycle and consumed by at most one execution.
type Opportunity struct {
	Profitable     bool
	ExpectedProfit *big.Int
	FlashAmount    *big.Int
	MinOut         *big.Int
	Route          route.Route
	Direction      Direction
	SpreadBps      int64
	BuyVenue       string
	SellVenue      string
}

// NoOp is the result for any cycle that must not execute.
func NoOp() Opportunity {
	return Opportunity{
		ExpectedProfit: new(big.Int),
		FlashAmount:    new(big.Int),
		MinOut:         new(big.Int),
	}
}

// MinOut applies the slippage tolerance: profit*(10000-slippageBps)/10000.
func MinOut(expectedProfit *big.Int, slippageBps int64) *big.Int {
	if expectedProfit == nil {
		return new(big.Int)
	}
	out := new(big.Int).Mul(expectedProfit, big.NewInt(units.BpsOne-slippageBps))
	return out.Quo(out, big.NewInt(units.BpsOne))
}

// Strategy evaluates one arbitrage type.
type Strategy interface {
	Name() string
	// Check never returns a profitable Opportunity together with an error.
	Check(ctx context.Context) (Opportunity, error)
	// Encode turns a profitable Opportunity into the executeArbitrage call.
	Encode(op Opportunity) (exec.Request, error)
}
