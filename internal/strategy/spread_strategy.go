package strategy

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"flashpeg-keeper/internal/exec"
	"flashpeg-keeper/internal/faults"
	"flashpeg-keeper/internal/oracle"
	"flashpeg-keeper/internal/spread"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

type SpreadContract interface {
	Address() common.Address
	PackExecuteSpread(flashAmount, minOut *big.Int, path []common.Address, swapData []byte) ([]byte, error)
}

// SpreadStrategy trades the widest gap between venues quoting the same pair.
// Venues that fail to quote are left out of the cycle.
type SpreadStrategy struct {
	pipeline
	pair     string
	venues   []string
	contract SpreadContract
}

func NewSpreadStrategy(name, pair string, venues []string, contract SpreadContract, deps Deps) (*SpreadStrategy, error) {
	if len(venues) < 2 {
		return nil, fmt.Errorf("strategy %s: at least two venues are required", name)
	}
	if contract == nil {
		return nil, fmt.Errorf("strategy %s: contract is required", name)
	}
	return &SpreadStrategy{
		pipeline: newPipeline(name, deps),
		pair:     pair,
		venues:   append([]string(nil), venues...),
		contract: contract,
	}, nil
}

func (s *SpreadStrategy) Name() string { return s.name }

func (s *SpreadStrategy) Check(ctx context.Context) (Opportunity, error) {
	quotes, errs := s.Quoter.QuoteAll(ctx, s.venues, s.pair)
	usable := make([]oracle.Quote, 0, len(quotes))
	var failed []error
	for i, err := range errs {
		if err != nil {
			s.Metrics.QuoteFailures.Inc(s.name)
			s.Log.Warn("venue quote unavailable, excluding", zap.String("venue", s.venues[i]), zap.Error(err))
			failed = append(failed, err)
			continue
		}
		usable = append(usable, quotes[i])
	}
	if len(usable) < 2 {
		return NoOp(), faults.New(faults.KindQuoteFetch, "quote venues", errors.Join(append(failed, spread.ErrTooFewQuotes)...))
	}
	sp, ok, err := spread.Best(usable, s.MinBps)
	if err != nil {
		return NoOp(), faults.New(faults.KindQuoteFetch, "spread", err)
	}
	if !ok {
		return NoOp(), nil
	}
	s.Log.Debug("spread above threshold",
		zap.Int64("bps", sp.Bps),
		zap.String("buy", sp.Low),
		zap.String("sell", sp.High),
	)
	return s.evaluate(ctx, candidate{
		bps:       sp.Bps,
		buy:       sp.Low,
		sell:      sp.High,
		direction: DirectionLowToHigh,
	})
}

func (s *SpreadStrategy) Encode(op Opportunity) (exec.Request, error) {
	if !op.Profitable {
		return exec.Request{}, errors.New("opportunity is not profitable")
	}
	data, err := s.contract.PackExecuteSpread(op.FlashAmount, op.MinOut, op.Route.Path, op.Route.Calldata)
	if err != nil {
		return exec.Request{}, err
	}
	return exec.Request{
		Strategy:       s.name,
		To:             s.contract.Address(),
		Data:           data,
		FlashAmount:    op.FlashAmount,
		MinOut:         op.MinOut,
		ExpectedProfit: op.ExpectedProfit,
	}, nil
}
