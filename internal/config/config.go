package config

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log       LoggingConfig   `yaml:"log"`
	RPC       RPCConfig       `yaml:"rpc"`
	Pool      PoolConfig      `yaml:"pool"`
	Strategy  *StrategyNode   `yaml:"strategy"`
	Executor  ExecutorConfig  `yaml:"executor"`
	State     StateConfig     `yaml:"state"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Timescale TimescaleConfig `yaml:"timescale"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type RPCConfig struct {
	HTTPURL        string        `yaml:"http_url"`
	WSURL          string        `yaml:"ws_url"`
	Timeout        time.Duration `yaml:"timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	RequestsPerSec float64       `yaml:"requests_per_sec"`
	Burst          int           `yaml:"burst"`
}

type PoolConfig struct {
	Address        string `yaml:"address"`
	Token0         string `yaml:"token0"`
	Token1         string `yaml:"token1"`
	Token0Decimals int    `yaml:"token0_decimals"`
	Token1Decimals int    `yaml:"token1_decimals"`
	Fee            uint32 `yaml:"fee"`
	InvertPrice    bool   `yaml:"invert_price"`
	Token0Symbol   string `yaml:"token0_symbol"`
	Token1Symbol   string `yaml:"token1_symbol"`
}

type ExecutorConfig struct {
	DryRun   bool   `yaml:"dry_run"`
	Router   string `yaml:"router"`
	ChainID  int64  `yaml:"chain_id"`
	GasLimit uint64 `yaml:"gas_limit"`
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

type TimescaleConfig struct {
	Enabled      bool          `yaml:"enabled"`
	DSN          string        `yaml:"dsn"`
	Schema       string        `yaml:"schema"`
	QueueSize    int           `yaml:"queue_size"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	FlushTimeout time.Duration `yaml:"flush_timeout"`
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

// Parse decodes a config document. Unknown fields are rejected everywhere,
// which is what keeps a misspelled strategy variant from silently building
// the wrong pipeline.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.RPC.HTTPURL == "" {
		cfg.RPC.HTTPURL = "https://eth-mainnet.public.blastapi.io"
	}
	if cfg.RPC.Timeout == 0 {
		cfg.RPC.Timeout = 10 * time.Second
	}
	if cfg.RPC.PollInterval == 0 {
		cfg.RPC.PollInterval = 12 * time.Second
	}
	if cfg.RPC.ReconnectDelay == 0 {
		cfg.RPC.ReconnectDelay = 3 * time.Second
	}
	if cfg.RPC.RequestsPerSec == 0 {
		cfg.RPC.RequestsPerSec = 10
	}
	if cfg.RPC.Burst == 0 {
		cfg.RPC.Burst = 5
	}
	if cfg.Pool.Token0Decimals == 0 {
		cfg.Pool.Token0Decimals = 18
	}
	if cfg.Pool.Token1Decimals == 0 {
		cfg.Pool.Token1Decimals = 18
	}
	if cfg.Executor.ChainID == 0 {
		cfg.Executor.ChainID = 1
	}
	if cfg.Executor.GasLimit == 0 {
		cfg.Executor.GasLimit = 300000
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = "data/pool-tick-bot.db"
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9123"
	}
	if cfg.Timescale.Schema == "" {
		cfg.Timescale.Schema = "public"
	}
	if cfg.Timescale.QueueSize == 0 {
		cfg.Timescale.QueueSize = 256
	}
	if cfg.Timescale.FlushTimeout == 0 {
		cfg.Timescale.FlushTimeout = 3 * time.Second
	}
	if cfg.Strategy == nil {
		// Explicit do-nothing default: the bot observes without trading
		// until a strategy is configured.
		cfg.Strategy = &StrategyNode{Null: &NullNode{}}
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Pool.Address) == "" {
		return errors.New("pool.address is required")
	}
	if !cfg.Executor.DryRun {
		if strings.TrimSpace(cfg.Executor.Router) == "" {
			return errors.New("executor.router is required unless executor.dry_run is set")
		}
		if strings.TrimSpace(cfg.Pool.Token0) == "" || strings.TrimSpace(cfg.Pool.Token1) == "" {
			return errors.New("pool.token0 and pool.token1 are required unless executor.dry_run is set")
		}
	}
	if cfg.Timescale.Enabled && strings.TrimSpace(cfg.Timescale.DSN) == "" {
		return errors.New("timescale.dsn is required when timescale.enabled is set")
	}
	return nil
}
