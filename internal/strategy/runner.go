package strategy

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"flashpeg-keeper/internal/exec"
	"flashpeg-keeper/internal/faults"
	"flashpeg-keeper/internal/metrics"
	"flashpeg-keeper/internal/timescale"
	"flashpeg-keeper/internal/units"

	"go.uber.org/zap"
)

const defaultCheckTimeout = 30 * time.Second

type Executor interface {
	Execute(ctx context.Context, req exec.Request) exec.Outcome
}

type Notifier interface {
	Notify(message string)
}

type RunnerOptions struct {
	PollInterval time.Duration
	CheckTimeout time.Duration
	Metrics      *metrics.Metrics
	Notifier     Notifier
	History      *timescale.Writer
	Log          *zap.Logger
}

// Runner drives one strategy through its polling loop.
type Runner struct {
	strategy Strategy
	engine   Executor
	status   *Status
	machine  *StateMachine
	opts     RunnerOptions
	log      *zap.Logger
	now      func() time.Time
}

func NewRunner(s Strategy, engine Executor, status *Status, opts RunnerOptions) *Runner {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = defaultCheckTimeout
	}
	if status == nil {
		status = NewStatus(s.Name())
	}
	return &Runner{
		strategy: s,
		engine:   engine,
		status:   status,
		machine:  NewStateMachine(),
		opts:     opts,
		log:      opts.Log.With(zap.String("strategy", s.Name())),
		now:      time.Now,
	}
}

func (r *Runner) Status() *Status {
	return r.status
}

// Run loops until ctx is done. The stop signal is only observed between
// cycles; a cycle in progress, including a pending confirmation, completes.
func (r *Runner) Run(ctx context.Context) error {
	r.status.SetRunning(true)
	defer func() {
		r.status.SetRunning(false)
		r.apply(EventStop)
		r.log.Info("strategy stopped")
	}()
	r.log.Info("strategy started", zap.Duration("poll_interval", r.opts.PollInterval))
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		r.Cycle(context.WithoutCancel(ctx))
		r.apply(EventSleep)
		timer := time.NewTimer(r.opts.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Cycle runs one check and, when profitable, one execution. It never
// panics and never returns an error: every failure is logged and counted.
func (r *Runner) Cycle(ctx context.Context) (out exec.Outcome) {
	name := r.strategy.Name()
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("strategy cycle panicked", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			r.status.RecordFailure("")
			r.opts.Metrics.ExecutionsFailed.Inc(name)
			r.apply(EventFailed)
			out = exec.Outcome{Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	r.apply(EventCheck)
	r.opts.Metrics.Cycles.Inc(name)
	checkCtx, cancel := context.WithTimeout(ctx, r.opts.CheckTimeout)
	op, err := r.strategy.Check(checkCtx)
	cancel()
	now := r.now()
	r.status.MarkChecked(now)
	r.opts.Metrics.LastCheck.Set(name, float64(now.Unix()))
	r.opts.Metrics.SpreadBps.Set(name, float64(op.SpreadBps))
	r.recordObservation(now, op)
	if err != nil {
		r.log.Warn("check failed", zap.String("kind", faults.KindOf(err).String()), zap.Error(err))
	}
	if err != nil || !op.Profitable {
		r.apply(EventNotProfitable)
		return exec.Outcome{}
	}

	r.apply(EventProfitable)
	r.opts.Metrics.Opportunities.Inc(name)
	r.log.Info("profitable opportunity",
		zap.Int64("spread_bps", op.SpreadBps),
		zap.String("direction", string(op.Direction)),
		zap.String("flash_amount", units.FormatEther(op.FlashAmount)),
		zap.String("expected_profit", units.FormatEther(op.ExpectedProfit)),
		zap.String("min_out", op.MinOut.String()),
		zap.String("router", op.Route.Router.Hex()),
		zap.Bool("placeholder_route", op.Route.Placeholder()),
	)
	r.notify(fmt.Sprintf("[%s] opportunity: %d bps, flash %s, expected profit %s",
		name, op.SpreadBps, units.FormatEther(op.FlashAmount), units.FormatEther(op.ExpectedProfit)))

	req, err := r.strategy.Encode(op)
	if err != nil {
		r.log.Error("encode execution failed", zap.Error(err))
		r.status.RecordFailure("")
		r.opts.Metrics.ExecutionsFailed.Inc(name)
		r.apply(EventFailed)
		return exec.Outcome{Err: faults.New(faults.KindExecution, "encode", err)}
	}

	r.apply(EventExecute)
	out = r.engine.Execute(ctx, req)
	hash := ""
	if out.Submitted {
		hash = out.Hash.Hex()
	}
	switch {
	case out.Skipped:
		r.status.RecordSkip()
		r.opts.Metrics.ExecutionsSkipped.Inc(name)
		r.log.Info("execution skipped", zap.Error(out.Err))
	case out.Confirmed:
		r.status.RecordSuccess(hash)
		r.opts.Metrics.ExecutionsOK.Inc(name)
		r.apply(EventConfirmed)
		r.notify(fmt.Sprintf("[%s] arbitrage confirmed: %s (gas used %d)", name, hash, out.GasUsed))
	default:
		r.status.RecordFailure(hash)
		r.opts.Metrics.ExecutionsFailed.Inc(name)
		r.apply(EventFailed)
		fields := []zap.Field{zap.String("kind", faults.KindOf(out.Err).String()), zap.Error(out.Err)}
		if hash != "" {
			fields = append(fields, zap.String("tx_hash", hash))
		}
		r.log.Error("execution failed", fields...)
		r.notify(fmt.Sprintf("[%s] arbitrage failed: %v %s", name, out.Err, hash))
	}
	r.recordExecution(op, out)
	return out
}

func (r *Runner) apply(event Event) {
	r.status.SetState(r.machine.Apply(event))
}

func (r *Runner) notify(message string) {
	if r.opts.Notifier != nil {
		r.opts.Notifier.Notify(message)
	}
}

func (r *Runner) recordObservation(at time.Time, op Opportunity) {
	if r.opts.History == nil {
		return
	}
	r.opts.History.EnqueueObservation(timescale.Observation{
		Time:           at.UTC(),
		Strategy:       r.strategy.Name(),
		State:          string(r.machine.Current()),
		SpreadBps:      op.SpreadBps,
		Low:            op.BuyVenue,
		High:           op.SellVenue,
		Profitable:     op.Profitable,
		FlashAmount:    op.FlashAmount.String(),
		ExpectedProfit: op.ExpectedProfit.String(),
	})
}

func (r *Runner) recordExecution(op Opportunity, out exec.Outcome) {
	if r.opts.History == nil || out.Skipped {
		return
	}
	status := "confirmed"
	switch {
	case out.Inconclusive:
		status = "inconclusive"
	case !out.Confirmed:
		status = "failed"
	}
	row := timescale.Execution{
		Time:           r.now().UTC(),
		Strategy:       r.strategy.Name(),
		Status:         status,
		FlashAmount:    op.FlashAmount.String(),
		ExpectedProfit: op.ExpectedProfit.String(),
		GasUsed:        out.GasUsed,
	}
	if out.Submitted {
		row.TxHash = out.Hash.Hex()
	}
	if out.GasPrice != nil {
		row.GasPriceWei = out.GasPrice.String()
	}
	if out.Err != nil {
		row.Error = out.Err.Error()
	}
	r.opts.History.EnqueueExecution(row)
}
