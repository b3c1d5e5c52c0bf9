package evaluator

import (
	"context"
	"errors"
	"math/big"

	"flashpeg-keeper/internal/faults"
)

// Simulator is the contract's read-only profitability entry point.
type Simulator interface {
	CalculateProfit(ctx context.Context, flashAmount *big.Int, aux ...*big.Int) (*big.Int, bool, error)
}

type Result struct {
	ExpectedProfit *big.Int
	Profitable     bool
}

func notProfitable() Result {
	return Result{ExpectedProfit: new(big.Int)}
}

// Evaluator trusts the contract simulation as the only profitability
// verdict and fails closed.
type Evaluator struct {
	sim Simulator
}

func New(sim Simulator) *Evaluator {
	return &Evaluator{sim: sim}
}

// Evaluate returns a not-profitable result alongside a faults.KindEvaluation
// error whenever the simulation cannot be trusted.
func (e *Evaluator) Evaluate(ctx context.Context, flashAmount *big.Int, aux ...*big.Int) (Result, error) {
	const op = "calculateProfit"
	if e.sim == nil {
		return notProfitable(), faults.New(faults.KindEvaluation, op, errors.New("no simulator"))
	}
	if flashAmount == nil || flashAmount.Sign() <= 0 {
		return notProfitable(), nil
	}
	profit, ok, err := e.sim.CalculateProfit(ctx, flashAmount, aux...)
	if err != nil {
		return notProfitable(), faults.New(faults.KindEvaluation, op, err)
	}
	if !ok || profit == nil || profit.Sign() <= 0 {
		return notProfitable(), nil
	}
	return Result{ExpectedProfit: new(big.Int).Set(profit), Profitable: true}, nil
}
