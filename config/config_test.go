package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.ValidateBasic())

	cfg.SetRoot("/foo")
	assert.Equal(t, "/foo/config/genesis.json", cfg.GenesisFile())
	assert.Equal(t, "/foo/data", cfg.DBDir())

	cfg.DBPath = "/var/lib/harness"
	assert.Equal(t, "/var/lib/harness", cfg.DBDir())
}

func TestValidateBasic(t *testing.T) {
	cases := map[string]func(cfg *Config){
		"negative block interval":  func(cfg *Config) { cfg.Network.BlockInterval = -time.Second },
		"unknown chain id":         func(cfg *Config) { cfg.Network.ChainID = 3 },
		"negative timeout":         func(cfg *Config) { cfg.Network.ConfirmationTimeout = -1 },
		"negative keep last state": func(cfg *Config) { cfg.KeepLastStates = -1 },
		"negative cache size":      func(cfg *Config) { cfg.StateCacheSize = -1 },
		"unknown log format":       func(cfg *Config) { cfg.LogFormat = "xml" },
		"missing network":          func(cfg *Config) { cfg.Network = nil },
	}

	for name, mutate := range cases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.ValidateBasic())
		})
	}
}

func TestEnsureRoot(t *testing.T) {
	root := t.TempDir()

	cfg := GetConfig(root)
	assert.Equal(t, root, cfg.RootDir)
	assert.DirExists(t, filepath.Join(root, defaultDataDir))
	require.FileExists(t, filepath.Join(root, defaultConfigFilePath))

	v := viper.New()
	v.SetConfigFile(filepath.Join(root, defaultConfigFilePath))
	require.NoError(t, v.ReadInConfig())

	loaded := DefaultConfig()
	require.NoError(t, v.Unmarshal(loaded))
	require.NoError(t, loaded.ValidateBasic())

	expected := DefaultConfig()
	assert.Equal(t, expected.Network, loaded.Network)
	assert.Equal(t, expected.DBBackend, loaded.DBBackend)
	assert.Equal(t, expected.APIListenAddress, loaded.APIListenAddress)
	assert.Equal(t, expected.KeepLastStates, loaded.KeepLastStates)
	assert.Equal(t, expected.Instrumentation.Namespace, loaded.Instrumentation.Namespace)
}

func TestWriteConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Network.BlockInterval = 5 * time.Second
	cfg.Network.DeployerKey = "ab"
	cfg.DBBackend = "goleveldb"
	WriteConfigFile(path, cfg)

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	assert.Equal(t, 5*time.Second, v.GetDuration("network.block_interval"))
	assert.Equal(t, "ab", v.GetString("network.deployer_key"))
	assert.Equal(t, "goleveldb", v.GetString("db_backend"))
	assert.Equal(t, 2, v.GetInt("network.chain_id"))
}
