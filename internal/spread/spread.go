package spread

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"flashpeg-keeper/internal/oracle"
	"flashpeg-keeper/internal/units"
)

var (
	ErrTooFewQuotes = errors.New("at least two quotes are required")
	ErrPairMismatch = errors.New("quotes are for different pairs")
)

// Spread is the best cross-venue price gap. Low is the buy side and High
// the sell side.
type Spread struct {
	Bps  int64
	Low  string
	High string
}

// Best returns the widest spread among quotes. Ties on an extreme resolve to
// the venue listed first. Below minBps it returns a zero Spread and false.
func Best(quotes []oracle.Quote, minBps int64) (Spread, bool, error) {
	if len(quotes) < 2 {
		return Spread{}, false, ErrTooFewQuotes
	}
	low, high := 0, 0
	for i, q := range quotes {
		if q.Value == nil || q.Value.Sign() <= 0 {
			return Spread{}, false, fmt.Errorf("quote %s: %w", q.Venue, oracle.ErrNonPositive)
		}
		if q.Pair != quotes[0].Pair {
			return Spread{}, false, fmt.Errorf("%w: %s and %s", ErrPairMismatch, quotes[0].Pair, q.Pair)
		}
		if q.Value.Cmp(quotes[low].Value) < 0 {
			low = i
		}
		if q.Value.Cmp(quotes[high].Value) > 0 {
			high = i
		}
	}
	bps := Bps(quotes[low].Value, quotes[high].Value)
	if bps < minBps {
		return Spread{}, false, nil
	}
	return Spread{Bps: bps, Low: quotes[low].Venue, High: quotes[high].Venue}, true, nil
}

// Bps computes (high-low)*10000/low with truncation. low must be positive.
func Bps(low, high *big.Int) int64 {
	diff := new(big.Int).Sub(high, low)
	diff.Mul(diff, big.NewInt(units.BpsOne))
	diff.Quo(diff, low)
	return clamp(diff)
}

// Deviation is the gap between two basis-point prices.
type Deviation struct {
	Bps    int64
	AOverB bool
}

// Peg returns |a-b| and whether a is above b. Below minBps it returns a zero
// Deviation and false.
func Peg(a, b *big.Int, minBps int64) (Deviation, bool) {
	if a == nil || b == nil {
		return Deviation{}, false
	}
	diff := new(big.Int).Sub(a, b)
	bps := clamp(diff.Abs(diff))
	if bps < minBps {
		return Deviation{}, false
	}
	return Deviation{Bps: bps, AOverB: a.Cmp(b) > 0}, true
}

func clamp(v *big.Int) int64 {
	if !v.IsInt64() {
		if v.Sign() < 0 {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return v.Int64()
}
