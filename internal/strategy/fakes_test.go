package strategy

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"flashpeg-keeper/internal/config"
	"flashpeg-keeper/internal/evaluator"
	"flashpeg-keeper/internal/metrics"
	"flashpeg-keeper/internal/oracle"
	"flashpeg-keeper/internal/route"
	"flashpeg-keeper/internal/sizing"
	"flashpeg-keeper/internal/units"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

type fakeQuoter struct {
	prices map[string]*big.Int
}

func (f *fakeQuoter) Quote(ctx context.Context, venue, pair string) (oracle.Quote, error) {
	v, ok := f.prices[venue]
	if !ok {
		return oracle.Quote{}, errors.New("venue unreachable")
	}
	return oracle.Quote{Venue: venue, Pair: pair, Value: v}, nil
}

func (f *fakeQuoter) QuoteAll(ctx context.Context, venues []string, pair string) ([]oracle.Quote, []error) {
	quotes := make([]oracle.Quote, len(venues))
	errs := make([]error, len(venues))
	for i, v := range venues {
		quotes[i], errs[i] = f.Quote(ctx, v, pair)
	}
	return quotes, errs
}

type fakeSim struct {
	mu     sync.Mutex
	profit *big.Int
	ok     bool
	err    error
	calls  int
	amount *big.Int
	aux    []*big.Int
}

func (f *fakeSim) CalculateProfit(ctx context.Context, flashAmount *big.Int, aux ...*big.Int) (*big.Int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.amount = flashAmount
	f.aux = aux
	return f.profit, f.ok, f.err
}

type fakeContract struct {
	address common.Address
	path    []common.Address
	router  common.Address
	aOverB  bool
}

func (f *fakeContract) Address() common.Address { return f.address }

func (f *fakeContract) PackExecuteSpread(flashAmount, minOut *big.Int, path []common.Address, swapData []byte) ([]byte, error) {
	f.path = path
	return []byte{0x01}, nil
}

func (f *fakeContract) PackExecutePeg(flashAmount, minOut *big.Int, router common.Address, swapData []byte, aOverB bool) ([]byte, error) {
	f.router = router
	f.aOverB = aOverB
	return []byte{0x02}, nil
}

type fakeChain struct {
	mu          sync.Mutex
	estimateErr error
	sends       int
	receipt     *types.Receipt
}

func (f *fakeChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(10e9), nil
}

func (f *fakeChain) EstimateGas(ctx context.Context, to common.Address, data []byte) (uint64, error) {
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return 300000, nil
}

func (f *fakeChain) Send(ctx context.Context, to common.Address, data []byte, gasLimit uint64, gasPrice *big.Int) (*types.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	return types.NewTx(&types.LegacyTx{Nonce: uint64(f.sends), To: &to, Gas: gasLimit, GasPrice: gasPrice, Data: data}), nil
}

func (f *fakeChain) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return f.receipt, nil
}

const (
	curveRouter   = "0x99a58482BD75cbab83b27EC03CA68fF489b5788f"
	balancerVault = "0xBA12222222228d8Ba445958a75a0704d566BF2C8"
	uniswapRouter = "0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45"
)

func testRoutes() route.Builder {
	table, err := route.NewTable(map[string]config.VenueConfig{
		"curve":    {Router: curveRouter},
		"balancer": {Router: balancerVault},
		"uniswap":  {Router: uniswapRouter},
	}, "uniswap")
	if err != nil {
		panic(err)
	}
	return route.NewStubBuilder(table)
}

func testDeps(q Quoter, sim evaluator.Simulator, policy sizing.Policy, m *metrics.Metrics) Deps {
	return Deps{
		Quoter:      q,
		Evaluator:   evaluator.New(sim),
		Routes:      testRoutes(),
		Sizing:      policy,
		MinBps:      10,
		SlippageBps: 500,
		Metrics:     m,
		Log:         zap.NewNop(),
	}
}

func stethPolicy() sizing.Policy {
	return sizing.Policy{Base: units.MustParse("100", 18), PerBps: 10, MaxScale: 10, HardCap: units.MustParse("1000", 18)}
}

func daiPolicy() sizing.Policy {
	return sizing.Policy{Base: units.MustParse("100000", 18), PerBps: 5, MaxScale: 50, HardCap: units.MustParse("500000000", 18)}
}

func eth(v string) *big.Int {
	return units.MustParse(v, 18)
}
