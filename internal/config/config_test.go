package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func validStrategy() StrategyConfig {
	return StrategyConfig{
		Name:   "steth",
		Kind:   StrategySpread,
		Venues: []string{"curve", "balancer"},
		Sizing: SizingConfig{Base: "100", PerBps: 10, MaxScale: 10},
	}
}

func TestKeeperDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	if cfg.Keeper.PollInterval != 5*time.Second {
		t.Fatalf("expected 5s poll interval, got %v", cfg.Keeper.PollInterval)
	}
	if cfg.Keeper.MinSpreadBps != 10 {
		t.Fatalf("expected 10 bps min spread, got %d", cfg.Keeper.MinSpreadBps)
	}
	if cfg.Keeper.SlippageBps != 500 {
		t.Fatalf("expected 500 bps slippage, got %d", cfg.Keeper.SlippageBps)
	}
	if cfg.Keeper.MaxGasPriceGwei != 50 {
		t.Fatalf("expected 50 gwei cap, got %d", cfg.Keeper.MaxGasPriceGwei)
	}
	if cfg.Keeper.ConfirmTimeout <= 0 {
		t.Fatalf("expected confirm timeout default, got %v", cfg.Keeper.ConfirmTimeout)
	}
	if cfg.Chain.ChainID != 1 {
		t.Fatalf("expected mainnet chain id, got %d", cfg.Chain.ChainID)
	}
}

func TestMetricsDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	if !cfg.Metrics.EnabledValue() {
		t.Fatalf("expected metrics enabled default")
	}
	if cfg.Metrics.Address != ":3000" {
		t.Fatalf("expected metrics address default, got %q", cfg.Metrics.Address)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Fatalf("expected metrics path default, got %q", cfg.Metrics.Path)
	}
}

func TestVenueDecimalDefaults(t *testing.T) {
	cfg := &Config{Venues: map[string]VenueConfig{
		"feed":  {Kind: VenueChainlink, Address: "0x1"},
		"fixed": {Kind: VenueStatic, Value: "1"},
	}}
	applyDefaults(cfg)
	if got := cfg.Venues["feed"].DecimalsValue(); got != 8 {
		t.Fatalf("expected chainlink decimals 8, got %d", got)
	}
	if got := cfg.Venues["fixed"].DecimalsValue(); got != 18 {
		t.Fatalf("expected static decimals 18, got %d", got)
	}
}

func TestExplicitZeroDecimalsSurvive(t *testing.T) {
	cfg, err := Parse([]byte(`
venues:
  usdc-fixed:
    kind: static
    value: "10000"
    decimals: 0
  feed:
    kind: chainlink
    address: "0x8fFfFfd4AfB6115b954Bd326cbe7B4BA576818f6"
    decimals: 0
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, id := range []string{"usdc-fixed", "feed"} {
		v := cfg.Venues[id]
		if v.Decimals == nil || *v.Decimals != 0 || v.DecimalsValue() != 0 {
			t.Fatalf("%s: expected explicit 0 decimals kept, got %v", id, v.Decimals)
		}
	}
}

func TestPegDefaultBps(t *testing.T) {
	cfg := &Config{Strategies: []StrategyConfig{{Name: "dai", Kind: StrategyPeg}}}
	applyDefaults(cfg)
	if cfg.Strategies[0].PegDefaultBps != 10000 {
		t.Fatalf("expected peg default 10000, got %d", cfg.Strategies[0].PegDefaultBps)
	}
}

func TestValidateRejectsUnknownStrategyKind(t *testing.T) {
	s := validStrategy()
	s.Kind = "triangle"
	cfg := &Config{Strategies: []StrategyConfig{s}}
	applyDefaults(cfg)
	if err := validate(cfg); err == nil {
		t.Fatalf("expected error for unknown strategy kind")
	}
}

func TestValidateRejectsDuplicateStrategy(t *testing.T) {
	cfg := &Config{Strategies: []StrategyConfig{validStrategy(), validStrategy()}}
	applyDefaults(cfg)
	if err := validate(cfg); err == nil {
		t.Fatalf("expected error for duplicate strategy name")
	}
}

func TestValidateRejectsZeroSizingScale(t *testing.T) {
	s := validStrategy()
	s.Sizing.PerBps = 0
	cfg := &Config{Strategies: []StrategyConfig{s}}
	applyDefaults(cfg)
	if err := validate(cfg); err == nil {
		t.Fatalf("expected error for zero per_bps")
	}
}

func TestValidateRejectsSlippageOutOfRange(t *testing.T) {
	cfg := &Config{Keeper: KeeperConfig{SlippageBps: 10000}}
	applyDefaults(cfg)
	if err := validate(cfg); err == nil {
		t.Fatalf("expected error for slippage >= 100%%")
	}
}

func TestValidateRejectsVenueWithoutAddress(t *testing.T) {
	cfg := &Config{Venues: map[string]VenueConfig{"curve": {Kind: VenueCurve}}}
	applyDefaults(cfg)
	if err := validate(cfg); err == nil {
		t.Fatalf("expected error for curve venue without address")
	}
}

func TestValidateRejectsDefaultVenueWithoutRouter(t *testing.T) {
	cfg := &Config{
		Venues:  map[string]VenueConfig{"curve": {Kind: VenueCurve, Address: "0x1"}},
		Routing: RoutingConfig{DefaultVenue: "curve"},
	}
	applyDefaults(cfg)
	if err := validate(cfg); err == nil {
		t.Fatalf("expected error for default venue without router")
	}
}

func TestValidateRejectsMetricsPathWithoutSlash(t *testing.T) {
	cfg := &Config{Metrics: MetricsConfig{Path: "metrics"}}
	applyDefaults(cfg)
	if err := validate(cfg); err == nil {
		t.Fatalf("expected error for metrics path without leading slash")
	}
}

func TestValidateRejectsTelegramEnabledWithoutConfig(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	cfg := &Config{Telegram: TelegramConfig{Enabled: true}}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	if err := validate(cfg); err == nil {
		t.Fatalf("expected error for missing telegram token/chat_id")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MAINNET_RPC_URL", "https://rpc.example")
	t.Setenv("KEEPER_PRIVATE_KEY", "0xabc")
	t.Setenv("MAX_GAS_PRICE_GWEI", "80")
	t.Setenv("POLL_INTERVAL_MS", "1500")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.example/hook")
	t.Setenv("PORT", "8080")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	cfg := &Config{}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	if cfg.Chain.RPCURL != "https://rpc.example" {
		t.Fatalf("expected rpc override, got %q", cfg.Chain.RPCURL)
	}
	if cfg.Chain.PrivateKey != "0xabc" {
		t.Fatalf("expected key override, got %q", cfg.Chain.PrivateKey)
	}
	if cfg.Keeper.MaxGasPriceGwei != 80 {
		t.Fatalf("expected gas cap override, got %d", cfg.Keeper.MaxGasPriceGwei)
	}
	if cfg.Keeper.PollInterval != 1500*time.Millisecond {
		t.Fatalf("expected poll interval override, got %v", cfg.Keeper.PollInterval)
	}
	if !cfg.Discord.Enabled || cfg.Discord.WebhookURL == "" {
		t.Fatalf("expected discord enabled by webhook env")
	}
	if cfg.Telegram.Enabled {
		t.Fatalf("expected telegram to stay off without env credentials")
	}
	if cfg.Metrics.Address != ":8080" {
		t.Fatalf("expected status address from PORT, got %q", cfg.Metrics.Address)
	}
}

func TestContractAddressPrefersEnv(t *testing.T) {
	t.Setenv("ARB_TEST_CONTRACT", "0xfromenv")
	s := StrategyConfig{Contract: "0xfromfile", ContractEnv: "ARB_TEST_CONTRACT"}
	if got := s.ContractAddress(); got != "0xfromenv" {
		t.Fatalf("expected env contract, got %q", got)
	}
	t.Setenv("ARB_TEST_CONTRACT", "")
	if got := s.ContractAddress(); got != "0xfromfile" {
		t.Fatalf("expected file contract, got %q", got)
	}
}

func TestQueriedVenues(t *testing.T) {
	peg := StrategyConfig{Kind: StrategyPeg, PriceA: "a", PriceB: "b", SwapVenue: "curve"}
	got := peg.QueriedVenues()
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "curve" {
		t.Fatalf("unexpected peg venues %v", got)
	}
}

func TestShippedConfigLoads(t *testing.T) {
	_, file, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(file), "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("config.yaml not found: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load shipped config: %v", err)
	}
	if len(cfg.Strategies) != 2 {
		t.Fatalf("expected 2 strategies, got %d", len(cfg.Strategies))
	}
	if cfg.Venues["chainlink-dai"].MaxAge != 2*time.Hour {
		t.Fatalf("expected dai feed max age 2h, got %v", cfg.Venues["chainlink-dai"].MaxAge)
	}
}

func TestTelegramEnvEnablesChannel(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100")
	cfg, err := Parse([]byte("telegram:\n  enabled: false\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !cfg.Telegram.Enabled || cfg.Telegram.Token != "123:abc" || cfg.Telegram.ChatID != "-100" {
		t.Fatalf("expected telegram enabled from env, got %+v", cfg.Telegram)
	}
}

func TestTelegramEnvWithoutChatIDFailsValidation(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	if _, err := Parse([]byte("log:\n  level: info\n")); err == nil {
		t.Fatalf("expected error when only the telegram token is set")
	}
}
