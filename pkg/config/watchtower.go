package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// WatchtowerConfig is the root configuration for the operator and canceler
// entrypoints: a server block, a database block, one ChainConfig per chain
// the bridge spans, and the operator/canceler/auth tuning blocks. It follows
// the teacher's Config (YAML + setDefaults + overrideEnv + validate) but
// replaces the hardcoded Ethereum/Canton sections with the chain-agnostic
// ChainConfig map pkg/chainadapter's adapters are built from, and is the
// first config in this codebase to actually use creasty/defaults and
// go-playground/validator, which the teacher imports but never wires.
type WatchtowerConfig struct {
	Server     ServerConfig          `yaml:"server"`
	Database   DatabaseConfig        `yaml:"database"`
	Chains     map[string]ChainConfig `yaml:"chains" validate:"required,min=2,dive"`
	Operator   OperatorConfig        `yaml:"operator"`
	Canceler   CancelerConfig        `yaml:"canceler"`
	Auth       AdminAuthConfig       `yaml:"auth"`
	Monitoring MonitoringConfig      `yaml:"monitoring"`
	Logging    LoggingConfig         `yaml:"logging"`
}

// ChainConfig describes one chain a ChainAdapter will be built for.
type ChainConfig struct {
	// Adapter selects which concrete adapter backs this chain: "evm" or "cosmos".
	Adapter string `yaml:"adapter" validate:"required,oneof=evm cosmos"`
	// ChainID is encoded into a bridgecore.ChainTag via bridgecore.EncodeChainTag; must be non-zero.
	ChainID uint32 `yaml:"chain_id" validate:"required"`

	// EVM-specific fields.
	RPCURL                string `yaml:"rpc_url"`
	RelayerPrivateKeyEnv  string `yaml:"relayer_private_key_env"`

	// Cosmos-specific fields.
	GRPCEndpoint   string `yaml:"grpc_endpoint"`
	RelayerBech32  string `yaml:"relayer_bech32"`
	HRP            string `yaml:"hrp" default:"cosmos"`
	TLSEnabled     bool   `yaml:"tls_enabled"`

	FinalityDepth uint64        `yaml:"finality_depth" default:"12"`
	NonceStart    uint64        `yaml:"nonce_start"`
	PollInterval  time.Duration `yaml:"poll_interval" default:"10s"`
	BatchLimit    int           `yaml:"batch_limit" default:"100"`
}

// OperatorConfig tunes the operator process.
type OperatorConfig struct {
	DestChain         string        `yaml:"dest_chain" validate:"required"`
	PollInterval      time.Duration `yaml:"poll_interval" default:"5s"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval" default:"5m"`
	BatchLimit        int           `yaml:"batch_limit" default:"50"`
	StuckAfter        time.Duration `yaml:"stuck_after" default:"30m"`
	RetryAttempts     int           `yaml:"retry_attempts" default:"5"`
	RetryBackoff      time.Duration `yaml:"retry_backoff" default:"2s"`
}

// CancelerConfig tunes the canceler process.
type CancelerConfig struct {
	DestChain    string        `yaml:"dest_chain" validate:"required"`
	PollInterval time.Duration `yaml:"poll_interval" default:"5s"`
	BatchLimit   int           `yaml:"batch_limit" default:"50"`
}

// AdminAuthConfig configures the HMAC-signed admin bearer tokens that gate
// the registry endpoints.
type AdminAuthConfig struct {
	SigningSecretEnv string        `yaml:"signing_secret_env" default:"WATCHTOWER_ADMIN_SECRET"`
	Issuer           string        `yaml:"issuer" default:"watchtower-bridge"`
	TokenTTL         time.Duration `yaml:"token_ttl" default:"1h"`
}

var validate = validator.New()

// LoadWatchtowerConfig reads, defaults, env-overrides and validates a
// WatchtowerConfig from configPath.
func LoadWatchtowerConfig(configPath string) (*WatchtowerConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg WatchtowerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	setWatchtowerDefaults(&cfg)
	overrideWatchtowerEnv(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setWatchtowerDefaults fills in the handful of fields creasty/defaults
// can't express as a static struct tag (nested map values, cross-field
// fallbacks).
func setWatchtowerDefaults(cfg *WatchtowerConfig) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.OutputPath == "" {
		cfg.Logging.OutputPath = "stdout"
	}
	for name, chain := range cfg.Chains {
		if chain.HRP == "" {
			chain.HRP = "cosmos"
		}
		if chain.FinalityDepth == 0 {
			chain.FinalityDepth = 12
		}
		if chain.PollInterval == 0 {
			chain.PollInterval = 10 * time.Second
		}
		if chain.BatchLimit == 0 {
			chain.BatchLimit = 100
		}
		cfg.Chains[name] = chain
	}
}

func overrideWatchtowerEnv(cfg *WatchtowerConfig) {
	if v := os.Getenv("WATCHTOWER_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("WATCHTOWER_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WATCHTOWER_DATABASE_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("WATCHTOWER_DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("WATCHTOWER_OPERATOR_DEST_CHAIN"); v != "" {
		cfg.Operator.DestChain = v
	}
	if v := os.Getenv("WATCHTOWER_CANCELER_DEST_CHAIN"); v != "" {
		cfg.Canceler.DestChain = v
	}
}
