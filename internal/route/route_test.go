package route

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"flashpeg-keeper/internal/config"

	"github.com/ethereum/go-ethereum/common"
)

const (
	curveRouter   = "0x99a58482BD75cbab83b27EC03CA68fF489b5788f"
	balancerVault = "0xBA12222222228d8Ba445958a75a0704d566BF2C8"
	uniswapRouter = "0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45"
)

func testVenues() map[string]config.VenueConfig {
	return map[string]config.VenueConfig{
		"curve":    {Kind: config.VenueCurve, Address: "0x01", Router: curveRouter},
		"balancer": {Kind: config.VenueStatic, Value: "0.995", Router: balancerVault},
		"uniswap":  {Kind: config.VenueStatic, Value: "0.997", Router: uniswapRouter},
		"feed":     {Kind: config.VenueChainlink, Address: "0x02"},
	}
}

func TestTableRouterFallsBackToDefault(t *testing.T) {
	table, err := NewTable(testVenues(), "uniswap")
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	got, err := table.Router("balancer")
	if err != nil || got != common.HexToAddress(balancerVault) {
		t.Fatalf("unexpected router %s err %v", got.Hex(), err)
	}
	got, err = table.Router("sushiswap")
	if err != nil || got != common.HexToAddress(uniswapRouter) {
		t.Fatalf("expected default router, got %s err %v", got.Hex(), err)
	}
}

func TestTableWithoutDefault(t *testing.T) {
	table, err := NewTable(testVenues(), "")
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	if _, err := table.Router("sushiswap"); !errors.Is(err, ErrUnknownVenue) {
		t.Fatalf("expected ErrUnknownVenue, got %v", err)
	}
}

func TestNewTableRejectsBadInput(t *testing.T) {
	if _, err := NewTable(testVenues(), "feed"); !errors.Is(err, ErrUnknownVenue) {
		t.Fatalf("expected default without router to fail, got %v", err)
	}
	bad := map[string]config.VenueConfig{"x": {Router: "not-an-address"}}
	if _, err := NewTable(bad, ""); err == nil {
		t.Fatalf("expected invalid router error")
	}
}

func TestValidateReportsMissingRouters(t *testing.T) {
	table, _ := NewTable(testVenues(), "uniswap")
	if err := table.Validate([]string{"curve", "balancer", "uniswap"}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	err := table.Validate([]string{"curve", "feed", "maverick"})
	if !errors.Is(err, ErrUnknownVenue) {
		t.Fatalf("expected ErrUnknownVenue, got %v", err)
	}
	if want := "no router for venue: feed, maverick"; err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestStubBuilderRoutesThroughSellVenue(t *testing.T) {
	table, _ := NewTable(testVenues(), "uniswap")
	r, err := NewStubBuilder(table).Build(context.Background(), big.NewInt(1), "balancer", "curve")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if r.Router != common.HexToAddress(curveRouter) || len(r.Path) != 1 || r.Path[0] != r.Router {
		t.Fatalf("unexpected route %+v", r)
	}
	if !r.Placeholder() {
		t.Fatalf("stub route should be a placeholder")
	}
	if _, err := NewStubBuilder(table).Build(context.Background(), big.NewInt(0), "a", "b"); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}
