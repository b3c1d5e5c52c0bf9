package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log        LoggingConfig          `yaml:"log"`
	Chain      ChainConfig            `yaml:"chain"`
	Keeper     KeeperConfig           `yaml:"keeper"`
	Venues     map[string]VenueConfig `yaml:"venues"`
	Routing    RoutingConfig          `yaml:"routing"`
	Strategies []StrategyConfig       `yaml:"strategies"`
	State      StateConfig            `yaml:"state"`
	Timescale  TimescaleConfig        `yaml:"timescale"`
	Metrics    MetricsConfig          `yaml:"metrics"`
	Telegram   TelegramConfig         `yaml:"telegram"`
	Discord    DiscordConfig          `yaml:"discord"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type ChainConfig struct {
	RPCURL       string  `yaml:"rpc_url"`
	ChainID      int64   `yaml:"chain_id"`
	PrivateKey   string  `yaml:"private_key"`
	RPCRateLimit float64 `yaml:"rpc_rate_limit"`
	RPCBurst     int     `yaml:"rpc_burst"`
}

type KeeperConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxGasPriceGwei uint64        `yaml:"max_gas_price_gwei"`
	MinSpreadBps    int64         `yaml:"min_spread_bps"`
	SlippageBps     int64         `yaml:"slippage_bps"`
	ConfirmTimeout  time.Duration `yaml:"confirm_timeout"`
}

const (
	VenueCurve     = "curve"
	VenueChainlink = "chainlink"
	VenueStatic    = "static"
)

type VenueConfig struct {
	Kind     string        `yaml:"kind"`
	Address  string        `yaml:"address"`
	Decimals *int32        `yaml:"decimals"`
	MaxAge   time.Duration `yaml:"max_age"`
	Value    string        `yaml:"value"`
	Router   string        `yaml:"router"`
}

type RoutingConfig struct {
	DefaultVenue string `yaml:"default_venue"`
}

const (
	StrategySpread = "spread"
	StrategyPeg    = "peg"
)

type StrategyConfig struct {
	Name          string       `yaml:"name"`
	Kind          string       `yaml:"kind"`
	Contract      string       `yaml:"contract"`
	ContractEnv   string       `yaml:"contract_env"`
	Pair          string       `yaml:"pair"`
	Venues        []string     `yaml:"venues"`
	PriceA        string       `yaml:"price_a"`
	PriceB        string       `yaml:"price_b"`
	SwapVenue     string       `yaml:"swap_venue"`
	PegDefaultBps int64        `yaml:"peg_default_bps"`
	Sizing        SizingConfig `yaml:"sizing"`
	Disabled      bool         `yaml:"disabled"`
}

type SizingConfig struct {
	Base     string `yaml:"base"`
	PerBps   int64  `yaml:"per_bps"`
	MaxScale int64  `yaml:"max_scale"`
	HardCap  string `yaml:"hard_cap"`
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type TimescaleConfig struct {
	Enabled         bool          `yaml:"enabled"`
	DSN             string        `yaml:"dsn"`
	Schema          string        `yaml:"schema"`
	QueueSize       int           `yaml:"queue_size"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

// DecimalsValue is the configured precision, or the kind's default when
// unset. An explicit 0 is kept.
func (v VenueConfig) DecimalsValue() int32 {
	if v.Decimals != nil {
		return *v.Decimals
	}
	switch v.Kind {
	case VenueChainlink:
		return 8
	case VenueStatic:
		return 18
	}
	return 0
}

func (m MetricsConfig) EnabledValue() bool {
	return m.Enabled == nil || *m.Enabled
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, validate(&cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Encoding == "" {
		cfg.Log.Encoding = "json"
	}
	if cfg.Chain.ChainID == 0 {
		cfg.Chain.ChainID = 1
	}
	if cfg.Chain.RPCBurst == 0 {
		cfg.Chain.RPCBurst = 10
	}
	if cfg.Keeper.PollInterval == 0 {
		cfg.Keeper.PollInterval = 5 * time.Second
	}
	if cfg.Keeper.MaxGasPriceGwei == 0 {
		cfg.Keeper.MaxGasPriceGwei = 50
	}
	if cfg.Keeper.MinSpreadBps == 0 {
		cfg.Keeper.MinSpreadBps = 10
	}
	if cfg.Keeper.SlippageBps == 0 {
		cfg.Keeper.SlippageBps = 500
	}
	if cfg.Keeper.ConfirmTimeout == 0 {
		cfg.Keeper.ConfirmTimeout = 5 * time.Minute
	}
	for id, venue := range cfg.Venues {
		if venue.Decimals == nil && (venue.Kind == VenueChainlink || venue.Kind == VenueStatic) {
			decimals := venue.DecimalsValue()
			venue.Decimals = &decimals
		}
		cfg.Venues[id] = venue
	}
	for i := range cfg.Strategies {
		s := &cfg.Strategies[i]
		if s.Kind == StrategyPeg && s.PegDefaultBps == 0 {
			s.PegDefaultBps = 10000
		}
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = "data/flashpeg-keeper.db"
	}
	if cfg.Timescale.Schema == "" {
		cfg.Timescale.Schema = "public"
	}
	if cfg.Timescale.QueueSize == 0 {
		cfg.Timescale.QueueSize = 256
	}
	if cfg.Metrics.Enabled == nil {
		enabled := true
		cfg.Metrics.Enabled = &enabled
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":3000"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// validate rejects malformed settings. Missing credentials are not rejected
// here: the app reports them per strategy so the status surface stays up.
func validate(cfg *Config) error {
	if cfg.Keeper.PollInterval < 0 {
		return errors.New("keeper.poll_interval must be >= 0")
	}
	if cfg.Keeper.MinSpreadBps < 0 {
		return errors.New("keeper.min_spread_bps must be >= 0")
	}
	if cfg.Keeper.SlippageBps < 0 || cfg.Keeper.SlippageBps >= 10000 {
		return errors.New("keeper.slippage_bps must be in [0, 10000)")
	}
	if cfg.Keeper.ConfirmTimeout < 0 {
		return errors.New("keeper.confirm_timeout must be >= 0")
	}
	if cfg.Chain.RPCRateLimit < 0 {
		return errors.New("chain.rpc_rate_limit must be >= 0")
	}
	for id, venue := range cfg.Venues {
		switch venue.Kind {
		case VenueCurve, VenueChainlink:
			if strings.TrimSpace(venue.Address) == "" {
				return fmt.Errorf("venues.%s.address is required", id)
			}
		case VenueStatic:
			if strings.TrimSpace(venue.Value) == "" {
				return fmt.Errorf("venues.%s.value is required", id)
			}
		case "":
			if venue.Router == "" {
				return fmt.Errorf("venues.%s needs a kind or a router", id)
			}
		default:
			return fmt.Errorf("venues.%s.kind %q is not supported", id, venue.Kind)
		}
		if venue.MaxAge < 0 {
			return fmt.Errorf("venues.%s.max_age must be >= 0", id)
		}
	}
	if cfg.Routing.DefaultVenue != "" {
		if v, ok := cfg.Venues[cfg.Routing.DefaultVenue]; !ok || v.Router == "" {
			return fmt.Errorf("routing.default_venue %q has no router", cfg.Routing.DefaultVenue)
		}
	}
	seen := make(map[string]struct{}, len(cfg.Strategies))
	for _, s := range cfg.Strategies {
		if s.Name == "" {
			return errors.New("strategies[].name is required")
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("strategy %q is defined twice", s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.Kind != StrategySpread && s.Kind != StrategyPeg {
			return fmt.Errorf("strategy %q: kind must be %q or %q", s.Name, StrategySpread, StrategyPeg)
		}
		if s.Sizing.PerBps <= 0 {
			return fmt.Errorf("strategy %q: sizing.per_bps must be > 0", s.Name)
		}
		if s.Sizing.MaxScale <= 0 {
			return fmt.Errorf("strategy %q: sizing.max_scale must be > 0", s.Name)
		}
		if s.Sizing.Base == "" {
			return fmt.Errorf("strategy %q: sizing.base is required", s.Name)
		}
	}
	if cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	if cfg.Timescale.Enabled && strings.TrimSpace(cfg.Timescale.DSN) == "" {
		return errors.New("timescale.dsn is required when timescale is enabled")
	}
	if cfg.Telegram.Enabled && (cfg.Telegram.Token == "" || cfg.Telegram.ChatID == "") {
		return errors.New("telegram.token and telegram.chat_id are required when telegram is enabled")
	}
	if cfg.Discord.Enabled && cfg.Discord.WebhookURL == "" {
		return errors.New("discord.webhook_url is required when discord is enabled")
	}
	return nil
}

// ContractAddress resolves the strategy's contract, preferring the
// environment variable named by ContractEnv.
func (s StrategyConfig) ContractAddress() string {
	if s.ContractEnv != "" {
		if v := strings.TrimSpace(os.Getenv(s.ContractEnv)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(s.Contract)
}

// QueriedVenues lists every venue the strategy reads or routes through.
func (s StrategyConfig) QueriedVenues() []string {
	var out []string
	switch s.Kind {
	case StrategySpread:
		out = append(out, s.Venues...)
	case StrategyPeg:
		out = append(out, s.PriceA, s.PriceB)
	}
	if s.SwapVenue != "" {
		out = append(out, s.SwapVenue)
	}
	return out
}
