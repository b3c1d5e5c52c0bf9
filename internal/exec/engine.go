package exec

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"flashpeg-keeper/internal/faults"
	"flashpeg-keeper/internal/state"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

var (
	ErrGasPriceTooHigh     = errors.New("gas price above ceiling")
	ErrReverted            = errors.New("transaction reverted")
	ErrConfirmationTimeout = errors.New("confirmation timed out")
)

// Chain is the signing side of the chain session.
type Chain interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, to common.Address, data []byte) (uint64, error)
	Send(ctx context.Context, to common.Address, data []byte, gasLimit uint64, gasPrice *big.Int) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

type Config struct {
	// MaxGasPrice is the ceiling in wei. Nil disables it.
	MaxGasPrice    *big.Int
	ConfirmTimeout time.Duration
}

// Request is a fully encoded executeArbitrage call.
type Request struct {
	Strategy       string
	To             common.Address
	Data           []byte
	FlashAmount    *big.Int
	MinOut         *big.Int
	ExpectedProfit *big.Int
}

// Outcome is the terminal record of one execution attempt.
type Outcome struct {
	Hash         common.Hash
	Submitted    bool
	Confirmed    bool
	Skipped      bool
	Inconclusive bool
	GasUsed      uint64
	GasLimit     uint64
	GasPrice     *big.Int
	Err          error
}

// Failed reports whether the attempt counts against the strategy.
func (o Outcome) Failed() bool {
	return !o.Skipped && !o.Confirmed
}

type Engine struct {
	chain Chain
	store state.Store
	cfg   Config
	log   *zap.Logger
	now   func() time.Time

	retryAttempts int
	retryBackoff  time.Duration
}

func New(chain Chain, store state.Store, cfg Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		chain:         chain,
		store:         store,
		cfg:           cfg,
		log:           log,
		now:           time.Now,
		retryAttempts: 3,
		retryBackoff:  200 * time.Millisecond,
	}
}

// Execute runs gas checks, submits and waits for the receipt. It never
// retries a submission and never cancels an in-flight transaction.
func (e *Engine) Execute(ctx context.Context, req Request) Outcome {
	log := e.log.With(zap.String("strategy", req.Strategy), zap.String("contract", req.To.Hex()))

	var gasPrice *big.Int
	err := e.retry(ctx, func() error {
		var err error
		gasPrice, err = e.chain.SuggestGasPrice(ctx)
		return err
	})
	if err != nil {
		return Outcome{Err: faults.New(faults.KindGasEstimation, "gas price", err)}
	}
	if e.cfg.MaxGasPrice != nil && gasPrice.Cmp(e.cfg.MaxGasPrice) > 0 {
		log.Info("gas price above ceiling, skipping execution",
			zap.String("gas_price_wei", gasPrice.String()),
			zap.String("max_gas_price_wei", e.cfg.MaxGasPrice.String()),
		)
		return Outcome{
			Skipped:  true,
			GasPrice: gasPrice,
			Err:      fmt.Errorf("%w: %s > %s", ErrGasPriceTooHigh, gasPrice, e.cfg.MaxGasPrice),
		}
	}

	estimate, err := e.chain.EstimateGas(ctx, req.To, req.Data)
	if err != nil {
		log.Warn("gas estimation failed, not submitting", zap.Error(err))
		return Outcome{GasPrice: gasPrice, Err: faults.New(faults.KindGasEstimation, "estimate gas", err)}
	}
	limit := BufferedGasLimit(estimate)

	tx, err := e.chain.Send(ctx, req.To, req.Data, limit, gasPrice)
	if err != nil {
		log.Error("transaction submission failed", zap.Error(err))
		return Outcome{GasLimit: limit, GasPrice: gasPrice, Err: faults.New(faults.KindExecution, "send", err)}
	}
	out := Outcome{Hash: tx.Hash(), Submitted: true, GasLimit: limit, GasPrice: gasPrice}
	log = log.With(zap.String("tx_hash", out.Hash.Hex()))
	log.Info("transaction submitted",
		zap.Uint64("nonce", tx.Nonce()),
		zap.Uint64("gas_estimate", estimate),
		zap.Uint64("gas_limit", limit),
		zap.String("gas_price_wei", gasPrice.String()),
	)
	record := e.record(req, tx, gasPrice)
	e.journal(ctx, log, record)

	waitCtx := ctx
	if e.cfg.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, e.cfg.ConfirmTimeout)
		defer cancel()
	}
	receipt, err := e.chain.WaitMined(waitCtx, tx)
	switch {
	case err != nil:
		out.Inconclusive = true
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", ErrConfirmationTimeout, e.cfg.ConfirmTimeout)
		}
		out.Err = faults.New(faults.KindExecution, "confirm", err)
		record.Status = state.TxInconclusive
		log.Error("confirmation inconclusive, manual reconciliation required", zap.Error(err))
	case receipt.Status != types.ReceiptStatusSuccessful:
		out.GasUsed = receipt.GasUsed
		out.Err = faults.New(faults.KindExecution, "confirm", ErrReverted)
		record.Status = state.TxFailed
		log.Error("transaction reverted", zap.Uint64("gas_used", receipt.GasUsed))
	default:
		out.GasUsed = receipt.GasUsed
		out.Confirmed = true
		record.Status = state.TxConfirmed
		log.Info("transaction confirmed",
			zap.Uint64("gas_used", receipt.GasUsed),
			zap.String("block", receipt.BlockNumber.String()),
		)
	}
	record.GasUsed = out.GasUsed
	if receipt != nil && receipt.BlockNumber != nil {
		record.Block = receipt.BlockNumber.Uint64()
	}
	if out.Err != nil {
		record.Error = out.Err.Error()
	}
	record.UpdatedAtMS = e.now().UnixMilli()
	e.journal(ctx, log, record)
	return out
}

// gasBufferPct is the submitted gas limit as a percentage of the estimate.
const gasBufferPct = 120

// BufferedGasLimit returns estimate*120/100 truncated, without overflowing
// for any realistic estimate.
func BufferedGasLimit(estimate uint64) uint64 {
	return estimate/100*gasBufferPct + estimate%100*gasBufferPct/100
}

func (e *Engine) record(req Request, tx *types.Transaction, gasPrice *big.Int) state.TxRecord {
	nowMS := e.now().UnixMilli()
	return state.TxRecord{
		Hash:           tx.Hash().Hex(),
		Strategy:       req.Strategy,
		Contract:       req.To.Hex(),
		Status:         state.TxPending,
		FlashAmount:    bigString(req.FlashAmount),
		MinOut:         bigString(req.MinOut),
		ExpectedProfit: bigString(req.ExpectedProfit),
		Nonce:          tx.Nonce(),
		GasLimit:       tx.Gas(),
		GasPriceWei:    gasPrice.String(),
		SubmittedAtMS:  nowMS,
		UpdatedAtMS:    nowMS,
	}
}

func (e *Engine) journal(ctx context.Context, log *zap.Logger, record state.TxRecord) {
	if e.store == nil {
		return
	}
	if err := state.SaveTx(ctx, e.store, record); err != nil {
		log.Warn("failed to persist tx record", zap.String("status", string(record.Status)), zap.Error(err))
	}
}

// retry is only used for idempotent reads.
func (e *Engine) retry(ctx context.Context, fn func() error) error {
	backoff := e.retryBackoff
	for attempt := 0; attempt < e.retryAttempts; attempt++ {
		if err := fn(); err != nil {
			if attempt == e.retryAttempts-1 {
				return fmt.Errorf("retry failed: %w", err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
			continue
		}
		return nil
	}
	return nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
