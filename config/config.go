package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tmConfig "github.com/tendermint/tendermint/config"
)

const (
	// LogFormatPlain is a format for colored text
	LogFormatPlain = "plain"
	// LogFormatJSON is a format for json output
	LogFormatJSON = "json"

	defaultConfigDir = "config"
	defaultDataDir   = "data"

	defaultConfigFileName  = "config.toml"
	defaultGenesisJSONName = "genesis.json"
)

var (
	defaultConfigFilePath  = filepath.Join(defaultConfigDir, defaultConfigFileName)
	defaultGenesisJSONPath = filepath.Join(defaultConfigDir, defaultGenesisJSONName)
)

// DefaultConfig returns configuration of an in-memory network producing a block per transaction batch
func DefaultConfig() *Config {
	cfg := &Config{
		BaseConfig:      DefaultBaseConfig(),
		Network:         DefaultNetworkConfig(),
		Instrumentation: tmConfig.DefaultInstrumentationConfig(),
	}

	cfg.Instrumentation.PrometheusListenAddr = ":26660"
	cfg.Instrumentation.Namespace = "harness"

	return cfg
}

// GetConfig returns default config rooted at home, the directory tree is created when missing
func GetConfig(home string) *Config {
	cfg := DefaultConfig()
	cfg.SetRoot(home)
	EnsureRoot(home)

	return cfg
}

// Config defines the top level configuration of the harness
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	Network         *NetworkConfig                  `mapstructure:"network"`
	Instrumentation *tmConfig.InstrumentationConfig `mapstructure:"instrumentation"`
}

// SetRoot sets the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation and returns an error if any check fails
func (cfg *Config) ValidateBasic() error {
	if cfg.Network == nil {
		return fmt.Errorf("network section is missing")
	}
	if err := cfg.Network.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [network] section: %w", err)
	}
	if cfg.KeepLastStates < 0 {
		return fmt.Errorf("keep_last_states can't be negative")
	}
	if cfg.StateCacheSize < 0 {
		return fmt.Errorf("state_cache_size can't be negative")
	}
	switch cfg.LogFormat {
	case LogFormatPlain, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log_format %q", cfg.LogFormat)
	}

	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration of the harness
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// Path to the JSON file containing accounts and contracts of the first block
	Genesis string `mapstructure:"genesis_file"`

	// A custom human readable name for this node
	Moniker string `mapstructure:"moniker"`

	// Output level for logging
	LogLevel string `mapstructure:"log_level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log_format"`

	LogPath string `mapstructure:"log_path"`

	// Database backend: memdb | goleveldb
	DBBackend string `mapstructure:"db_backend"`

	// Database directory
	DBPath string `mapstructure:"db_dir"`

	// Address to listen for API connections
	APIListenAddress string `mapstructure:"api_listen_addr"`

	KeepLastStates int64 `mapstructure:"keep_last_states"`

	StateCacheSize int `mapstructure:"state_cache_size"`
}

// DefaultBaseConfig returns a default base configuration
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		Genesis:          defaultGenesisJSONPath,
		Moniker:          defaultMoniker,
		LogLevel:         DefaultPackageLogLevels(),
		LogFormat:        LogFormatPlain,
		LogPath:          "stdout",
		DBBackend:        "memdb",
		DBPath:           "data",
		APIListenAddress: "tcp://0.0.0.0:8841",
		KeepLastStates:   120,
		StateCacheSize:   10000,
	}
}

// GenesisFile returns the full path to the genesis.json file
func (cfg BaseConfig) GenesisFile() string {
	return rootify(cfg.Genesis, cfg.RootDir)
}

// DBDir returns the full path to the database directory
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

//-----------------------------------------------------------------------------
// NetworkConfig

// NetworkConfig defines how the local network produces blocks and signs deployments
type NetworkConfig struct {
	// Zero interval mines a block as soon as a transaction gets into the mempool
	BlockInterval time.Duration `mapstructure:"block_interval"`

	// Chain id transactions are signed for: 1 mainnet, 2 testnet
	ChainID byte `mapstructure:"chain_id"`

	// Hex encoded secp256k1 key of the deployer, the well-known development key is used when empty
	DeployerKey string `mapstructure:"deployer_key"`

	// How long a deployment waits for its block
	ConfirmationTimeout time.Duration `mapstructure:"confirmation_timeout"`
}

func DefaultNetworkConfig() *NetworkConfig {
	return &NetworkConfig{
		BlockInterval:       0,
		ChainID:             2,
		ConfirmationTimeout: 30 * time.Second,
	}
}

func (cfg *NetworkConfig) ValidateBasic() error {
	if cfg.BlockInterval < 0 {
		return fmt.Errorf("block_interval can't be negative")
	}
	if cfg.ChainID != 1 && cfg.ChainID != 2 {
		return fmt.Errorf("unknown chain_id %d", cfg.ChainID)
	}
	if cfg.ConfirmationTimeout < 0 {
		return fmt.Errorf("confirmation_timeout can't be negative")
	}
	return nil
}

// DefaultLogLevel returns a default log level of "error"
func DefaultLogLevel() string {
	return "error"
}

// DefaultPackageLogLevels returns a default log level setting so all packages
// log at "error", while the `network` and `main` packages log at "info"
func DefaultPackageLogLevels() string {
	return fmt.Sprintf("network:info,main:info,*:%s", DefaultLogLevel())
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

var defaultMoniker = getDefaultMoniker()

// getDefaultMoniker returns a default moniker, which is the host name. If runtime
// fails to get the host name, "anonymous" will be returned.
func getDefaultMoniker() string {
	moniker, err := os.Hostname()
	if err != nil {
		moniker = "anonymous"
	}
	return moniker
}
