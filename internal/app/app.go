package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"flashpeg-keeper/internal/alerts"
	"flashpeg-keeper/internal/chain"
	"flashpeg-keeper/internal/config"
	"flashpeg-keeper/internal/evaluator"
	"flashpeg-keeper/internal/exec"
	"flashpeg-keeper/internal/faults"
	"flashpeg-keeper/internal/metrics"
	"flashpeg-keeper/internal/oracle"
	"flashpeg-keeper/internal/route"
	"flashpeg-keeper/internal/sizing"
	"flashpeg-keeper/internal/state"
	"flashpeg-keeper/internal/state/sqlite"
	"flashpeg-keeper/internal/status"
	"flashpeg-keeper/internal/strategy"
	"flashpeg-keeper/internal/timescale"
	"flashpeg-keeper/internal/units"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	dialTimeout     = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// App owns every long-lived resource and one runner per enabled strategy.
type App struct {
	cfg       *config.Config
	log       *zap.Logger
	store     *sqlite.Store
	client    *ethclient.Client
	prom      *metrics.Prometheus
	metrics   *metrics.Metrics
	notifier  *alerts.Notifier
	history   *timescale.Writer
	wallet    string
	globalErr error
	started   time.Time

	entries []*entry
}

type entry struct {
	strategy strategy.Strategy
	status   *strategy.Status
	runner   *strategy.Runner
}

// CheckResult is the outcome of a dry evaluation of one strategy.
type CheckResult struct {
	Strategy    string
	Opportunity strategy.Opportunity
	Err         error
}

// New wires the keeper from configuration. Missing chain credentials do not
// fail construction: the app starts in a not-ready mode that only serves
// the status surface. Per-strategy configuration errors disable that
// strategy alone.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	store, err := sqlite.New(cfg.State.SQLitePath)
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg:     cfg,
		log:     log,
		store:   store,
		metrics: metrics.NewNoop(),
		started: time.Now(),
	}
	if cfg.Metrics.EnabledValue() {
		a.prom = metrics.NewPrometheus()
		a.metrics = a.prom.Metrics
	}
	a.notifier = alerts.NewNotifier(log, senders(cfg, log)...)
	history, err := timescale.New(cfg.Timescale, log)
	if err != nil {
		log.Warn("timescale disabled", zap.Error(err))
	} else {
		a.history = history
	}

	caller, submitter, err := a.connect()
	if err != nil {
		a.globalErr = err
		log.Error("keeper not ready", zap.Error(err))
	}
	if caller == nil {
		for _, sc := range cfg.Strategies {
			if sc.Disabled {
				continue
			}
			a.entries = append(a.entries, &entry{status: strategy.NotReady(sc.Name, err)})
		}
		return a, nil
	}

	var engine *exec.Engine
	if submitter != nil {
		engine = exec.New(submitter, store, exec.Config{
			MaxGasPrice:    units.Gwei(cfg.Keeper.MaxGasPriceGwei),
			ConfirmTimeout: cfg.Keeper.ConfirmTimeout,
		}, log)
	}
	adapter, adapterErr := oracle.FromConfig(cfg.Venues, caller)
	table, tableErr := route.NewTable(cfg.Venues, cfg.Routing.DefaultVenue)
	sharedErr := errors.Join(adapterErr, tableErr)

	for _, sc := range cfg.Strategies {
		if sc.Disabled {
			log.Info("strategy disabled", zap.String("strategy", sc.Name))
			continue
		}
		if sharedErr != nil {
			a.entries = append(a.entries, &entry{status: strategy.NotReady(sc.Name, configError(sc.Name, sharedErr))})
			continue
		}
		s, err := a.buildStrategy(sc, adapter, table, caller)
		if err != nil {
			log.Error("strategy not ready", zap.String("strategy", sc.Name), zap.Error(err))
			a.entries = append(a.entries, &entry{status: strategy.NotReady(sc.Name, err)})
			continue
		}
		log.Info("strategy configured",
			zap.String("strategy", sc.Name),
			zap.String("kind", sc.Kind),
			zap.Strings("venues", sc.QueriedVenues()),
		)
		e := &entry{strategy: s}
		if engine == nil {
			e.status = strategy.NotReady(sc.Name, a.globalErr)
		} else {
			e.status = strategy.NewStatus(sc.Name)
			e.runner = strategy.NewRunner(s, engine, e.status, strategy.RunnerOptions{
				PollInterval: cfg.Keeper.PollInterval,
				Metrics:      a.metrics,
				Notifier:     a.notifier,
				History:      a.history,
				Log:          log,
			})
		}
		a.entries = append(a.entries, e)
	}
	return a, nil
}

func senders(cfg *config.Config, log *zap.Logger) []alerts.Sender {
	var out []alerts.Sender
	if cfg.Telegram.Enabled {
		out = append(out, alerts.NewTelegram(cfg.Telegram, log))
	}
	if cfg.Discord.Enabled {
		out = append(out, alerts.NewDiscord(cfg.Discord))
	}
	return out
}

// connect dials the RPC endpoint. A missing private key still yields a read
// caller so dry checks can run; only execution needs the submitter.
func (a *App) connect() (bind.ContractCaller, *chain.Submitter, error) {
	rpcURL := strings.TrimSpace(a.cfg.Chain.RPCURL)
	if rpcURL == "" {
		return nil, nil, faults.New(faults.KindConfiguration, "connect", errors.New("MAINNET_RPC_URL is required"))
	}
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, faults.New(faults.KindConfiguration, "connect", err)
	}
	a.client = client
	caller := chain.NewRateLimitedCaller(client, a.cfg.Chain.RPCRateLimit, a.cfg.Chain.RPCBurst)

	key := strings.TrimSpace(a.cfg.Chain.PrivateKey)
	if key == "" {
		return caller, nil, faults.New(faults.KindConfiguration, "connect", errors.New("KEEPER_PRIVATE_KEY is required"))
	}
	signer, err := chain.NewSigner(key, big.NewInt(a.cfg.Chain.ChainID))
	if err != nil {
		return caller, nil, faults.New(faults.KindConfiguration, "connect", err)
	}
	submitter, err := chain.NewSubmitter(client, signer)
	if err != nil {
		return caller, nil, faults.New(faults.KindConfiguration, "connect", err)
	}
	a.wallet = submitter.Address().Hex()
	return caller, submitter, nil
}

func (a *App) buildStrategy(sc config.StrategyConfig, adapter *oracle.Adapter, table *route.Table, caller bind.ContractCaller) (strategy.Strategy, error) {
	addr := sc.ContractAddress()
	if !common.IsHexAddress(addr) {
		name := sc.ContractEnv
		if name == "" {
			name = "contract"
		}
		return nil, configError(sc.Name, fmt.Errorf("%s is missing or not an address", name))
	}
	priced, routed := sc.Venues, sc.Venues
	if sc.Kind == config.StrategyPeg {
		priced, routed = []string{sc.PriceA, sc.PriceB}, []string{sc.SwapVenue}
	}
	for _, venue := range priced {
		if !adapter.Has(venue) {
			return nil, configError(sc.Name, fmt.Errorf("venue %q has no price source", venue))
		}
	}
	if err := table.Validate(routed); err != nil {
		return nil, configError(sc.Name, err)
	}
	policy, err := sizing.FromConfig(sc.Sizing)
	if err != nil {
		return nil, configError(sc.Name, err)
	}
	deps := strategy.Deps{
		Quoter:      adapter,
		Routes:      route.NewStubBuilder(table),
		Sizing:      policy,
		MinBps:      a.cfg.Keeper.MinSpreadBps,
		SlippageBps: a.cfg.Keeper.SlippageBps,
		Metrics:     a.metrics,
		Log:         a.log,
	}
	address := common.HexToAddress(addr)
	switch sc.Kind {
	case config.StrategySpread:
		contract := chain.NewStETHArb(address, caller)
		deps.Evaluator = evaluator.New(contract)
		s, err := strategy.NewSpreadStrategy(sc.Name, sc.Pair, sc.Venues, contract, deps)
		if err != nil {
			return nil, configError(sc.Name, err)
		}
		return s, nil
	case config.StrategyPeg:
		contract := chain.NewDaiPegArb(address, caller)
		deps.Evaluator = evaluator.New(contract)
		s, err := strategy.NewPegStrategy(sc.Name, sc.Pair, sc.PriceA, sc.PriceB, sc.SwapVenue, sc.PegDefaultBps, contract, deps)
		if err != nil {
			return nil, configError(sc.Name, err)
		}
		return s, nil
	}
	return nil, configError(sc.Name, fmt.Errorf("unknown kind %q", sc.Kind))
}

func configError(name string, err error) error {
	return faults.New(faults.KindConfiguration, "strategy "+name, err)
}

// Report implements status.Reporter.
func (a *App) Report() status.Report {
	report := status.Report{Wallet: a.wallet}
	if a.globalErr != nil {
		report.Error = a.globalErr.Error()
	}
	for _, e := range a.entries {
		report.Strategies = append(report.Strategies, e.status.Snapshot())
	}
	return report
}

// Run serves the status surface and drives every ready strategy until ctx
// is cancelled. Each runner finishes its current cycle before returning.
func (a *App) Run(ctx context.Context) error {
	defer a.close()
	a.logUnsettled(ctx)

	var metricsHandler http.Handler
	if a.prom != nil {
		metricsHandler = a.prom.Handler()
	}
	server := status.NewServer(a.cfg.Metrics.Address, status.NewRouter(a, metricsHandler, a.cfg.Metrics.Path, a.started), a.log)
	server.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("status server shutdown failed", zap.Error(err))
		}
	}()
	a.history.Start(ctx)

	if a.globalErr != nil {
		a.log.Warn("keeper running in not-ready mode", zap.Error(a.globalErr))
	}
	err := a.runAll(ctx)
	a.log.Info("keeper stopped")
	return err
}

func (a *App) runAll(ctx context.Context) error {
	var g errgroup.Group
	running := 0
	for _, e := range a.entries {
		if e.runner == nil {
			continue
		}
		runner := e.runner
		running++
		g.Go(func() error {
			return runner.Run(ctx)
		})
	}
	if running == 0 {
		<-ctx.Done()
		return nil
	}
	return g.Wait()
}

// CheckOnce evaluates every buildable strategy once without executing.
func (a *App) CheckOnce(ctx context.Context) ([]CheckResult, error) {
	defer a.close()
	var out []CheckResult
	for _, e := range a.entries {
		name := e.status.Name()
		if e.strategy == nil {
			out = append(out, CheckResult{Strategy: name, Opportunity: strategy.NoOp(), Err: notReadyError(e.status)})
			continue
		}
		op, err := e.strategy.Check(ctx)
		out = append(out, CheckResult{Strategy: name, Opportunity: op, Err: err})
	}
	if len(out) == 0 && a.globalErr != nil {
		return nil, a.globalErr
	}
	return out, nil
}

func notReadyError(s *strategy.Status) error {
	if msg := s.Snapshot().Error; msg != "" {
		return errors.New(msg)
	}
	return errors.New("strategy not ready")
}

// logUnsettled reports transactions a previous run left without a final
// receipt. They are never resubmitted.
func (a *App) logUnsettled(ctx context.Context) {
	for _, e := range a.entries {
		name := e.status.Name()
		record, ok, err := state.LastTx(ctx, a.store, name)
		if err != nil {
			a.log.Warn("journal read failed", zap.String("strategy", name), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		if !record.Terminal() || record.Status == state.TxInconclusive {
			a.log.Warn("unsettled transaction from previous run",
				zap.String("strategy", name),
				zap.String("tx_hash", record.Hash),
				zap.String("status", string(record.Status)),
				zap.Uint64("nonce", record.Nonce),
			)
		}
	}
}

func (a *App) close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.log.Warn("timescale close failed", zap.Error(err))
		}
	}
	if a.client != nil {
		a.client.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("state store close failed", zap.Error(err))
		}
	}
}
