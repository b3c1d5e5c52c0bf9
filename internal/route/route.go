package route

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"flashpeg-keeper/internal/config"

	"github.com/ethereum/go-ethereum/common"
)

var ErrUnknownVenue = errors.New("no router for venue")

// Route is the swap leg handed to the arbitrage contract. It is built for
// one flash amount and must not be reused across cycles.
type Route struct {
	Router   common.Address
	Path     []common.Address
	Calldata []byte
}

// Placeholder reports whether no aggregator supplied calldata.
func (r Route) Placeholder() bool {
	return len(r.Calldata) == 0
}

type Builder interface {
	Build(ctx context.Context, amount *big.Int, buyVenue, sellVenue string) (Route, error)
}

// Table maps venue ids to router addresses with a fallback venue.
type Table struct {
	routers      map[string]common.Address
	defaultVenue string
}

func NewTable(venues map[string]config.VenueConfig, defaultVenue string) (*Table, error) {
	routers := make(map[string]common.Address)
	for id, v := range venues {
		raw := strings.TrimSpace(v.Router)
		if raw == "" {
			continue
		}
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("venue %s: invalid router %q", id, raw)
		}
		routers[id] = common.HexToAddress(raw)
	}
	if defaultVenue != "" {
		if _, ok := routers[defaultVenue]; !ok {
			return nil, fmt.Errorf("default venue %s: %w", defaultVenue, ErrUnknownVenue)
		}
	}
	return &Table{routers: routers, defaultVenue: defaultVenue}, nil
}

// Router resolves a venue, falling back to the default venue.
func (t *Table) Router(venue string) (common.Address, error) {
	if addr, ok := t.routers[venue]; ok {
		return addr, nil
	}
	if addr, ok := t.routers[t.defaultVenue]; ok {
		return addr, nil
	}
	return common.Address{}, fmt.Errorf("%s: %w", venue, ErrUnknownVenue)
}

// Validate checks that every venue a strategy routes through has its own
// router. The default only covers venues the config never names.
func (t *Table) Validate(venues []string) error {
	var missing []string
	for _, v := range venues {
		if _, ok := t.routers[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrUnknownVenue, strings.Join(missing, ", "))
}

// StubBuilder routes through the sell venue's router with empty calldata.
// The contract decides whether such a route can execute.
type StubBuilder struct {
	table *Table
}

func NewStubBuilder(table *Table) *StubBuilder {
	return &StubBuilder{table: table}
}

func (b *StubBuilder) Build(_ context.Context, amount *big.Int, buyVenue, sellVenue string) (Route, error) {
	if amount == nil || amount.Sign() <= 0 {
		return Route{}, errors.New("route amount must be positive")
	}
	router, err := b.table.Router(sellVenue)
	if err != nil {
		return Route{}, err
	}
	return Route{Router: router, Path: []common.Address{router}, Calldata: []byte{}}, nil
}
