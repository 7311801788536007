package utils

import (
	"os"
	"path/filepath"
)

var (
	HarnessHome   string
	HarnessConfig string
)

func GetHarnessHome() string {
	if HarnessHome != "" {
		return HarnessHome
	}

	home := os.Getenv("HARNESSHOME")

	if home != "" {
		return home
	}

	return os.ExpandEnv(filepath.Join("$HOME", ".minter-harness"))
}

func GetHarnessConfigPath() string {
	if HarnessConfig != "" {
		return HarnessConfig
	}

	return filepath.Join(GetHarnessHome(), "config", "config.toml")
}
