package cmd

import (
	"os"

	"github.com/MinterTeam/minter-harness/cmd/utils"
	"github.com/MinterTeam/minter-harness/config"
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/MinterTeam/minter-harness/harness"
	"github.com/MinterTeam/minter-harness/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	tmjson "github.com/tendermint/tendermint/libs/json"
	tmos "github.com/tendermint/tendermint/libs/os"
)

var cfg *config.Config

var RootCmd = &cobra.Command{
	Use:          "harness",
	Short:        "Deploy contract templates to a local Minter-style ledger",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		v.SetConfigFile(utils.GetHarnessConfigPath())
		cfg = config.GetConfig(utils.GetHarnessHome())

		if err := v.ReadInConfig(); err != nil {
			return errors.Wrap(err, "read config")
		}

		if err := v.Unmarshal(cfg); err != nil {
			return errors.Wrap(err, "parse config")
		}

		if err := cfg.ValidateBasic(); err != nil {
			return err
		}

		log.InitLog(cfg)

		return nil
	},
}

// loadGenesis reads the genesis file when it exists, nil means an empty ledger
func loadGenesis() (*types.AppState, error) {
	path := cfg.GenesisFile()
	if !tmos.FileExists(path) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var genesis types.AppState
	if err := tmjson.Unmarshal(data, &genesis); err != nil {
		return nil, errors.Wrapf(err, "parse genesis %s", path)
	}
	if err := genesis.Verify(); err != nil {
		return nil, errors.Wrapf(err, "verify genesis %s", path)
	}

	return &genesis, nil
}

func newHarness(options ...harness.Option) (*harness.Harness, error) {
	genesis, err := loadGenesis()
	if err != nil {
		return nil, err
	}

	options = append([]harness.Option{
		harness.WithGenesis(genesis),
		harness.WithLogger(log.Logger()),
	}, options...)

	return harness.New(cfg, options...)
}
