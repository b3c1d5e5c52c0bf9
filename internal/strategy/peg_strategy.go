package strategy

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"flashpeg-keeper/internal/exec"
	"flashpeg-keeper/internal/spread"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

type PegContract interface {
	Address() common.Address
	PackExecutePeg(flashAmount, minOut *big.Int, router common.Address, swapData []byte, aOverB bool) ([]byte, error)
}

// PegStrategy trades the deviation between two basis-point price feeds.
// A feed that fails to quote is replaced by the configured peg value.
type PegStrategy struct {
	pipeline
	pair       string
	priceA     string
	priceB     string
	swapVenue  string
	defaultBps *big.Int
	contract   PegContract
}

func NewPegStrategy(name, pair, priceA, priceB, swapVenue string, defaultBps int64, contract PegContract, deps Deps) (*PegStrategy, error) {
	if priceA == "" || priceB == "" {
		return nil, fmt.Errorf("strategy %s: price_a and price_b are required", name)
	}
	if contract == nil {
		return nil, fmt.Errorf("strategy %s: contract is required", name)
	}
	return &PegStrategy{
		pipeline:   newPipeline(name, deps),
		pair:       pair,
		priceA:     priceA,
		priceB:     priceB,
		swapVenue:  swapVenue,
		defaultBps: big.NewInt(defaultBps),
		contract:   contract,
	}, nil
}

func (p *PegStrategy) Name() string { return p.name }

func (p *PegStrategy) Check(ctx context.Context) (Opportunity, error) {
	a := p.price(ctx, p.priceA)
	b := p.price(ctx, p.priceB)
	dev, ok := spread.Peg(a, b, p.MinBps)
	if !ok {
		return NoOp(), nil
	}
	direction := DirectionBOverA
	if dev.AOverB {
		direction = DirectionAOverB
	}
	p.Log.Debug("peg deviation above threshold",
		zap.Int64("bps", dev.Bps),
		zap.String("price_a", a.String()),
		zap.String("price_b", b.String()),
	)
	return p.evaluate(ctx, candidate{
		bps:       dev.Bps,
		sell:      p.swapVenue,
		direction: direction,
		aux:       []*big.Int{a, b},
	})
}

func (p *PegStrategy) price(ctx context.Context, venue string) *big.Int {
	q, err := p.Quoter.Quote(ctx, venue, p.pair)
	if err != nil {
		p.Metrics.QuoteFailures.Inc(p.name)
		p.Log.Warn("price feed unavailable, assuming peg",
			zap.String("venue", venue),
			zap.String("default_bps", p.defaultBps.String()),
			zap.Error(err),
		)
		return new(big.Int).Set(p.defaultBps)
	}
	return q.Value
}

func (p *PegStrategy) Encode(op Opportunity) (exec.Request, error) {
	if !op.Profitable {
		return exec.Request{}, errors.New("opportunity is not profitable")
	}
	data, err := p.contract.PackExecutePeg(op.FlashAmount, op.MinOut, op.Route.Router, op.Route.Calldata, op.Direction == DirectionAOverB)
	if err != nil {
		return exec.Request{}, err
	}
	return exec.Request{
		Strategy:       p.name,
		To:             p.contract.Address(),
		Data:           data,
		FlashAmount:    op.FlashAmount,
		MinOut:         op.MinOut,
		ExpectedProfit: op.ExpectedProfit,
	}, nil
}
