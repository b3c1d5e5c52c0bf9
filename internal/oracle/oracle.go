package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"flashpeg-keeper/internal/faults"

	"golang.org/x/sync/errgroup"
)

var (
	ErrStale        = errors.New("price feed is stale")
	ErrNonPositive  = errors.New("price is not positive")
	ErrUnknownVenue = errors.New("unknown venue")
)

// Quote is one venue's price for an asset pair. Value is a fixed-point
// integer in the venue's declared precision.
type Quote struct {
	Venue string
	Pair  string
	Value *big.Int
	At    time.Time
}

// Source reads the current price from a single venue.
type Source interface {
	Price(ctx context.Context) (*big.Int, error)
}

type Adapter struct {
	sources map[string]Source
	now     func() time.Time
}

func NewAdapter(sources map[string]Source) *Adapter {
	copied := make(map[string]Source, len(sources))
	for id, src := range sources {
		copied[id] = src
	}
	return &Adapter{sources: copied, now: time.Now}
}

func (a *Adapter) Has(venue string) bool {
	_, ok := a.sources[venue]
	return ok
}

// Quote fetches a fresh price. Every failure comes back as a
// faults.KindQuoteFetch error so callers can decide on a fallback.
func (a *Adapter) Quote(ctx context.Context, venue, pair string) (Quote, error) {
	op := "quote " + venue
	src, ok := a.sources[venue]
	if !ok {
		return Quote{}, faults.New(faults.KindQuoteFetch, op, ErrUnknownVenue)
	}
	value, err := src.Price(ctx)
	if err != nil {
		return Quote{}, faults.New(faults.KindQuoteFetch, op, err)
	}
	if value == nil || value.Sign() <= 0 {
		return Quote{}, faults.New(faults.KindQuoteFetch, op, fmt.Errorf("%w: %v", ErrNonPositive, value))
	}
	return Quote{Venue: venue, Pair: pair, Value: value, At: a.now()}, nil
}

// QuoteAll queries venues concurrently. Results keep the order of venues;
// errs[i] is set where quotes[i] could not be fetched.
func (a *Adapter) QuoteAll(ctx context.Context, venues []string, pair string) ([]Quote, []error) {
	quotes := make([]Quote, len(venues))
	errs := make([]error, len(venues))
	var g errgroup.Group
	for i, venue := range venues {
		i, venue := i, venue
		g.Go(func() error {
			quotes[i], errs[i] = a.Quote(ctx, venue, pair)
			return nil
		})
	}
	_ = g.Wait()
	return quotes, errs
}
