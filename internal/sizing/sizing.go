package sizing

import (
	"errors"
	"fmt"
	"math/big"

	"flashpeg-keeper/internal/config"
	"flashpeg-keeper/internal/units"
)

// Policy scales a base flash amount with the deviation, then clamps it to
// an absolute ceiling.
type Policy struct {
	Base     *big.Int
	PerBps   int64
	MaxScale int64
	// HardCap is the absolute flash-loan ceiling. Nil leaves it uncapped.
	HardCap *big.Int
}

func FromConfig(cfg config.SizingConfig) (Policy, error) {
	base, err := units.Parse(cfg.Base, units.TokenDecimals)
	if err != nil {
		return Policy{}, fmt.Errorf("sizing.base: %w", err)
	}
	p := Policy{Base: base, PerBps: cfg.PerBps, MaxScale: cfg.MaxScale}
	if cfg.HardCap != "" {
		hardCap, err := units.Parse(cfg.HardCap, units.TokenDecimals)
		if err != nil {
			return Policy{}, fmt.Errorf("sizing.hard_cap: %w", err)
		}
		p.HardCap = hardCap
	}
	return p, p.Validate()
}

func (p Policy) Validate() error {
	if p.Base == nil || p.Base.Sign() < 0 {
		return errors.New("base amount must be >= 0")
	}
	if p.PerBps <= 0 {
		return errors.New("per_bps must be > 0")
	}
	if p.MaxScale <= 0 {
		return errors.New("max_scale must be > 0")
	}
	if p.HardCap != nil && p.HardCap.Sign() < 0 {
		return errors.New("hard_cap must be >= 0")
	}
	return nil
}

// Size returns min(base * min(deviationBps/perBps, maxScale), hardCap).
// The multiplier truncates, so deviations below perBps size to zero.
func (p Policy) Size(deviationBps int64) *big.Int {
	if deviationBps <= 0 || p.Base == nil || p.PerBps <= 0 {
		return new(big.Int)
	}
	scale := deviationBps / p.PerBps
	if scale > p.MaxScale {
		scale = p.MaxScale
	}
	amount := new(big.Int).Mul(p.Base, big.NewInt(scale))
	if p.HardCap != nil && amount.Cmp(p.HardCap) > 0 {
		amount.Set(p.HardCap)
	}
	return amount
}
