package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Polygon Mumbai WMATIC, the wrapped token the vault was deployed against.
const DefaultWrappedToken = "0xf237dE5664D3c2D2545684E76fef02A3A58A364c"

// Config holds all application configuration.
type Config struct {
	Chain struct {
		RPCURL          string `yaml:"rpc_url"`
		WrappedToken    string `yaml:"wrapped_token"`
		Vault           string `yaml:"vault"`
		NativeSymbol    string `yaml:"native_symbol"`
		WrappedSymbol   string `yaml:"wrapped_symbol"`
		VaultSymbol     string `yaml:"vault_symbol"`
		NativeDecimals  int32  `yaml:"native_decimals"`
		TokenDecimals   int32  `yaml:"token_decimals"`
		DisplayDecimals int32  `yaml:"display_decimals"`
	} `yaml:"chain"`
	Accounts []string `yaml:"accounts"`
	Schedule struct {
		RefreshCron string        `yaml:"refresh_cron"`
		SummaryCron string        `yaml:"summary_cron"`
		SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	HTTP struct {
		Listen string `yaml:"listen"`
	} `yaml:"http"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("VAULT_ADDRESS"); v != "" {
		cfg.Chain.Vault = v
	}
	if v := os.Getenv("WRAPPED_TOKEN_ADDRESS"); v != "" {
		cfg.Chain.WrappedToken = v
	}
	if v := os.Getenv("WATCH_ACCOUNTS"); v != "" {
		cfg.Accounts = splitList(v)
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTP_LISTEN"); v != "" {
		cfg.HTTP.Listen = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Chain.WrappedToken == "" {
		cfg.Chain.WrappedToken = DefaultWrappedToken
	}
	if cfg.Chain.NativeSymbol == "" {
		cfg.Chain.NativeSymbol = "MATIC"
	}
	if cfg.Chain.WrappedSymbol == "" {
		cfg.Chain.WrappedSymbol = "WMATIC"
	}
	if cfg.Chain.VaultSymbol == "" {
		cfg.Chain.VaultSymbol = "LVT"
	}
	if cfg.Chain.NativeDecimals == 0 {
		cfg.Chain.NativeDecimals = 18
	}
	if cfg.Chain.TokenDecimals == 0 {
		cfg.Chain.TokenDecimals = 18
	}
	if cfg.Chain.DisplayDecimals == 0 {
		cfg.Chain.DisplayDecimals = 4
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 */5 * * * *"
	}
	if cfg.Schedule.SummaryCron == "" {
		cfg.Schedule.SummaryCron = "0 0 9 * * *"
	}
	if cfg.Schedule.SnapshotTTL == 0 {
		cfg.Schedule.SnapshotTTL = 30 * time.Second
	}
	if cfg.HTTP.Listen == "" {
		cfg.HTTP.Listen = ":8080"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/levered_vault.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and well formed.
func (c *Config) Validate() error {
	if c.Chain.RPCURL != "" && c.Chain.Vault == "" {
		return fmt.Errorf("chain.vault is required when chain.rpc_url is set")
	}
	if c.Chain.Vault != "" && !common.IsHexAddress(c.Chain.Vault) {
		return fmt.Errorf("chain.vault %q is not a hex address", c.Chain.Vault)
	}
	if !common.IsHexAddress(c.Chain.WrappedToken) {
		return fmt.Errorf("chain.wrapped_token %q is not a hex address", c.Chain.WrappedToken)
	}
	for _, a := range c.Accounts {
		if !common.IsHexAddress(a) {
			return fmt.Errorf("accounts: %q is not a hex address", a)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Chain.NativeDecimals < 0 || c.Chain.TokenDecimals < 0 || c.Chain.NativeDecimals > 77 || c.Chain.TokenDecimals > 77 {
		return fmt.Errorf("chain decimals must be between 0 and 77")
	}
	return nil
}

// TelegramEnabled reports whether notifications should be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
