package oracle

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"flashpeg-keeper/internal/chain"
	"flashpeg-keeper/internal/units"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// CurvePool reads a pool's EMA price_oracle(), an 18-decimal price.
type CurvePool struct {
	pool *chain.Contract
}

func NewCurvePool(address common.Address, caller bind.ContractCaller) *CurvePool {
	return &CurvePool{pool: chain.NewContract(address, chain.CurvePoolABI, caller)}
}

func (c *CurvePool) Price(ctx context.Context) (*big.Int, error) {
	out, err := c.pool.Call(ctx, "price_oracle")
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("price_oracle: expected 1 output, got %d", len(out))
	}
	price, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("price_oracle: unexpected type %T", out[0])
	}
	return price, nil
}

// ChainlinkFeed reads latestRoundData and normalizes the answer to basis
// points (10000 = 1.00). A zero maxAge leaves staleness unchecked.
type ChainlinkFeed struct {
	feed     *chain.Contract
	decimals int32
	maxAge   time.Duration
	now      func() time.Time
}

func NewChainlinkFeed(address common.Address, caller bind.ContractCaller, decimals int32, maxAge time.Duration) *ChainlinkFeed {
	return &ChainlinkFeed{
		feed:     chain.NewContract(address, chain.AggregatorV3ABI, caller),
		decimals: decimals,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

func (c *ChainlinkFeed) Price(ctx context.Context) (*big.Int, error) {
	out, err := c.feed.Call(ctx, "latestRoundData")
	if err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("latestRoundData: expected 5 outputs, got %d", len(out))
	}
	answer, ok := out[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("latestRoundData: unexpected answer type %T", out[1])
	}
	updatedAt, ok := out[3].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("latestRoundData: unexpected updatedAt type %T", out[3])
	}
	if answer.Sign() <= 0 {
		return nil, fmt.Errorf("%w: answer %s", ErrNonPositive, answer)
	}
	if c.maxAge > 0 {
		age := c.now().Sub(time.Unix(updatedAt.Int64(), 0))
		if age > c.maxAge {
			return nil, fmt.Errorf("%w: updated %s ago", ErrStale, age.Truncate(time.Second))
		}
	}
	return ToBps(answer, c.decimals), nil
}

// ToBps rescales a price with the given decimals to basis points, truncating.
func ToBps(price *big.Int, decimals int32) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	out := new(big.Int).Mul(price, big.NewInt(units.BpsOne))
	return out.Quo(out, scale)
}

// Static serves a configured constant. It stands in for venues whose
// on-chain query is not wired.
type Static struct {
	value *big.Int
}

func NewStatic(value *big.Int) *Static {
	return &Static{value: new(big.Int).Set(value)}
}

func (s *Static) Price(context.Context) (*big.Int, error) {
	return new(big.Int).Set(s.value), nil
}
