package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv reads a .env file into the process environment.
// Missing files are ignored and variables already set are kept.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := env("MAINNET_RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := env("KEEPER_PRIVATE_KEY"); v != "" {
		cfg.Chain.PrivateKey = v
	}
	if v, err := strconv.ParseInt(env("CHAIN_ID"), 10, 64); err == nil && v > 0 {
		cfg.Chain.ChainID = v
	}
	if v, err := strconv.ParseUint(env("MAX_GAS_PRICE_GWEI"), 10, 64); err == nil && v > 0 {
		cfg.Keeper.MaxGasPriceGwei = v
	}
	if v, err := strconv.ParseInt(env("POLL_INTERVAL_MS"), 10, 64); err == nil && v > 0 {
		cfg.Keeper.PollInterval = time.Duration(v) * time.Millisecond
	}
	// A channel credential in the environment turns that channel on.
	if v := env("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
		cfg.Telegram.Enabled = true
	}
	if v := env("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
		cfg.Telegram.Enabled = true
	}
	if v := env("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Discord.WebhookURL = v
		cfg.Discord.Enabled = true
	}
	if v := env("TIMESCALE_DSN"); v != "" {
		cfg.Timescale.DSN = v
	}
	if v := env("PORT"); v != "" {
		cfg.Metrics.Address = ":" + v
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
