package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"
)

// RateLimitedCaller bounds the read-call rate every strategy shares against
// one RPC endpoint.
type RateLimitedCaller struct {
	inner   bind.ContractCaller
	limiter *rate.Limiter
}

// NewRateLimitedCaller returns inner unchanged when perSecond is zero.
func NewRateLimitedCaller(inner bind.ContractCaller, perSecond float64, burst int) bind.ContractCaller {
	if perSecond <= 0 {
		return inner
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedCaller{inner: inner, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *RateLimitedCaller) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.CodeAt(ctx, contract, blockNumber)
}

func (r *RateLimitedCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.CallContract(ctx, call, blockNumber)
}
