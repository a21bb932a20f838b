package config

import (
	"fmt"
	"math/big"
	"os"
	"regexp"
	"strings"
	"time"

	"fundguard/internal/amount"
	"fundguard/internal/models"

	"github.com/spf13/viper"
)

type Config struct {
	Runtime  RuntimeConfig
	Reserve  ReserveConfig
	Chains   []ChainConfig
	Snapshot SnapshotConfig
	Feed     FeedConfig
}

type RuntimeConfig struct {
	Log          LogConfig
	Interval     time.Duration
	FetchTimeout time.Duration
	Retries      int
	RetryBackoff time.Duration
	Concurrency  int
	MetricsAddr  string
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

type ReserveConfig struct {
	TradeFeeBps int64
}

type ChainConfig struct {
	ID               uint64         `mapstructure:"id"`
	Network          models.Network `mapstructure:"network"`
	RPCURL           string         `mapstructure:"rpc_url"`
	NativeSymbol     string         `mapstructure:"native_symbol"`
	NativeDecimals   int32          `mapstructure:"native_decimals"`
	GasBufferPercent int64          `mapstructure:"gas_buffer_percent"`
	GasLimit         uint64         `mapstructure:"gas_limit"`
	DefaultGasFee    string         `mapstructure:"default_gas_fee"`
	ComputeUnitLimit uint64         `mapstructure:"compute_unit_limit"`
	Signatures       uint64         `mapstructure:"signatures"`
	FeeAccounts      []string       `mapstructure:"fee_accounts"`
	CacheTTL         time.Duration  `mapstructure:"cache_ttl"`
}

type SnapshotConfig struct {
	File  string
	Watch bool
}

type FeedConfig struct {
	WSUrl   string
	ApiKey  string
	Secret  string
	Enabled bool
}

// DefaultFee возвращает запасную цену газа или nil, если она не задана.
func (c ChainConfig) DefaultFee() (*big.Int, error) {
	if strings.TrimSpace(c.DefaultGasFee) == "" {
		return nil, nil
	}
	fee, err := amount.Parse(c.DefaultGasFee)
	if err != nil {
		return nil, fmt.Errorf("сеть %d: default_gas_fee: %w", c.ID, err)
	}
	return fee, nil
}

// Load читает конфиг из path, при пустом path из configs/config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}

	v.SetDefault("runtime.log.level", "info")
	v.SetDefault("runtime.log.format", "text")
	v.SetDefault("runtime.interval", "1m")
	v.SetDefault("runtime.fetch_timeout", "10s")
	v.SetDefault("runtime.retries", 3)
	v.SetDefault("runtime.retry_backoff", "1s")
	v.SetDefault("runtime.concurrency", 8)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("Не удалось прочитать конфиг: %w", err)
	}

	cfg := &Config{}

	cfg.Runtime = RuntimeConfig{
		Log: LogConfig{
			Level:      v.GetString("runtime.log.level"),
			Format:     v.GetString("runtime.log.format"),
			File:       v.GetString("runtime.log.file"),
			MaxSize:    v.GetInt("runtime.log.max_size"),
			MaxBackups: v.GetInt("runtime.log.max_backups"),
			MaxAge:     v.GetInt("runtime.log.max_age"),
			Compress:   v.GetBool("runtime.log.compress"),
		},
		Interval:     v.GetDuration("runtime.interval"),
		FetchTimeout: v.GetDuration("runtime.fetch_timeout"),
		Retries:      v.GetInt("runtime.retries"),
		RetryBackoff: v.GetDuration("runtime.retry_backoff"),
		Concurrency:  v.GetInt("runtime.concurrency"),
		MetricsAddr:  v.GetString("runtime.metrics_addr"),
	}

	cfg.Reserve = ReserveConfig{
		TradeFeeBps: v.GetInt64("reserve.trade_fee_bps"),
	}

	if err := v.UnmarshalKey("chains", &cfg.Chains); err != nil {
		return nil, fmt.Errorf("Некорректный раздел chains: %w", err)
	}
	for i := range cfg.Chains {
		cfg.Chains[i].RPCURL = expandEnv(cfg.Chains[i].RPCURL)
		cfg.Chains[i].Network = models.Network(strings.ToUpper(string(cfg.Chains[i].Network)))
	}

	cfg.Snapshot = SnapshotConfig{
		File:  v.GetString("snapshot.file"),
		Watch: v.GetBool("snapshot.watch"),
	}

	cfg.Feed = FeedConfig{
		WSUrl:   envSub(v, "feed.ws_url"),
		ApiKey:  envSub(v, "feed.api_key"),
		Secret:  envSub(v, "feed.secret"),
		Enabled: v.GetBool("feed.enabled"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Reserve.TradeFeeBps < 0 {
		return fmt.Errorf("reserve.trade_fee_bps не может быть отрицательным")
	}
	seen := map[uint64]bool{}
	for _, ch := range c.Chains {
		if ch.ID == 0 {
			return fmt.Errorf("у сети не задан id")
		}
		if seen[ch.ID] {
			return fmt.Errorf("сеть %d описана дважды", ch.ID)
		}
		seen[ch.ID] = true
		if ch.Network != models.NetworkEVM && ch.Network != models.NetworkSVM {
			return fmt.Errorf("сеть %d: неизвестный тип %q", ch.ID, ch.Network)
		}
		if ch.GasBufferPercent < 0 {
			return fmt.Errorf("сеть %d: gas_buffer_percent не может быть отрицательным", ch.ID)
		}
		if _, err := ch.DefaultFee(); err != nil {
			return err
		}
	}
	if c.Feed.Enabled && c.Feed.WSUrl == "" {
		return fmt.Errorf("feed.enabled без feed.ws_url")
	}
	return nil
}

var envPattern = regexp.MustCompile(`\$\{(\w+)\}`)

func envSub(v *viper.Viper, key string) string {
	return expandEnv(v.GetString(key))
}

func expandEnv(val string) string {
	if val == "" {
		return ""
	}
	return envPattern.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
