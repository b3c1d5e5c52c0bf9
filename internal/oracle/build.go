package oracle

import (
	"fmt"
	"sort"

	"flashpeg-keeper/internal/config"
	"flashpeg-keeper/internal/units"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// FromConfig builds one Source per priced venue. Router-only venues are
// skipped.
func FromConfig(venues map[string]config.VenueConfig, caller bind.ContractCaller) (*Adapter, error) {
	ids := make([]string, 0, len(venues))
	for id := range venues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	sources := make(map[string]Source, len(venues))
	for _, id := range ids {
		v := venues[id]
		switch v.Kind {
		case config.VenueCurve:
			if !common.IsHexAddress(v.Address) {
				return nil, fmt.Errorf("venue %s: invalid address %q", id, v.Address)
			}
			sources[id] = NewCurvePool(common.HexToAddress(v.Address), caller)
		case config.VenueChainlink:
			if !common.IsHexAddress(v.Address) {
				return nil, fmt.Errorf("venue %s: invalid address %q", id, v.Address)
			}
			sources[id] = NewChainlinkFeed(common.HexToAddress(v.Address), caller, v.DecimalsValue(), v.MaxAge)
		case config.VenueStatic:
			value, err := units.Parse(v.Value, v.DecimalsValue())
			if err != nil {
				return nil, fmt.Errorf("venue %s: %w", id, err)
			}
			sources[id] = NewStatic(value)
		}
	}
	return NewAdapter(sources), nil
}
