package strategy

import (
	"context"
	"math/big"

	"flashpeg-keeper/internal/evaluator"
	"flashpeg-keeper/internal/faults"
	"flashpeg-keeper/internal/metrics"
	"flashpeg-keeper/internal/oracle"
	"flashpeg-keeper/internal/route"
	"flashpeg-keeper/internal/sizing"

	"go.uber.org/zap"
)

// Quoter is the price side of the oracle adapter.
type Quoter interface {
	Quote(ctx context.Context, venue, pair string) (oracle.Quote, error)
	QuoteAll(ctx context.Context, venues []string, pair string) ([]oracle.Quote, []error)
}

// Deps are the collaborators shared by both strategy kinds.
type Deps struct {
	Quoter      Quoter
	Evaluator   *evaluator.Evaluator
	Routes      route.Builder
	Sizing      sizing.Policy
	MinBps      int64
	SlippageBps int64
	Metrics     *metrics.Metrics
	Log         *zap.Logger
}

type pipeline struct {
	name string
	Deps
}

func newPipeline(name string, deps Deps) pipeline {
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNoop()
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	deps.Log = deps.Log.With(zap.String("strategy", name))
	return pipeline{name: name, Deps: deps}
}

// candidate carries a deviation that already cleared the threshold.
type candidate struct {
	bps       int64
	buy, sell string
	direction Direction
	aux       []*big.Int
}

// evaluate runs sizing, the contract simulation and route construction.
func (p pipeline) evaluate(ctx context.Context, c candidate) (Opportunity, error) {
	amount := p.Sizing.Size(c.bps)
	if amount.Sign() <= 0 {
		p.Log.Debug("deviation below one sizing step", zap.Int64("bps", c.bps))
		return NoOp(), nil
	}
	res, err := p.Evaluator.Evaluate(ctx, amount, c.aux...)
	if err != nil {
		p.Metrics.EvaluationFailures.Inc(p.name)
		return NoOp(), err
	}
	if !res.Profitable {
		p.Log.Debug("contract reports not profitable",
			zap.Int64("bps", c.bps),
			zap.String("flash_amount", amount.String()),
		)
		return NoOp(), nil
	}
	rt, err := p.Routes.Build(ctx, amount, c.buy, c.sell)
	if err != nil {
		return NoOp(), faults.New(faults.KindEvaluation, "build route", err)
	}
	return Opportunity{
		Profitable:     true,
		ExpectedProfit: res.ExpectedProfit,
		FlashAmount:    amount,
		MinOut:         MinOut(res.ExpectedProfit, p.SlippageBps),
		Route:          rt,
		Direction:      c.direction,
		SpreadBps:      c.bps,
		BuyVenue:       c.buy,
		SellVenue:      c.sell,
	}, nil
}
