// Package config provides a viper-backed loader for the node's
// configuration files and environment variables.
//
// The RPC server, transport and DHT overlay are external collaborators;
// this package only loads the handful of settings the node needs at
// startup (storage backend selection, the blockstore root directory, the
// genesis file path and the local query-surface listen address) plus the
// logging level every node process configures regardless of which
// collaborators it wires in.
package config

import (
	"github.com/spf13/viper"

	"github.com/glacieros/lumen/pkg/utils"
)

// Config is the unified node configuration, mirroring the structure of the
// YAML files under cmd/lumen/config.
type Config struct {
	Storage struct {
		Backend string `mapstructure:"backend" json:"backend"` // "memory" or "leveldb"
		DBPath  string `mapstructure:"db_path" json:"db_path"`
	} `mapstructure:"storage" json:"storage"`

	Blockstore struct {
		RootDir string `mapstructure:"root_dir" json:"root_dir"`
	} `mapstructure:"blockstore" json:"blockstore"`

	Genesis struct {
		File string `mapstructure:"file" json:"file"`
	} `mapstructure:"genesis" json:"genesis"`

	Query struct {
		ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
	} `mapstructure:"query" json:"query"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load.
var AppConfig Config

// Load reads the named configuration file from the search paths below and
// merges any environment-variable overrides (LUMEN_* via viper.AutomaticEnv).
// The resulting configuration is stored in AppConfig and returned.
func Load(configName string) (*Config, error) {
	if configName == "" {
		configName = "default"
	}
	viper.SetConfigName(configName)
	viper.AddConfigPath("cmd/lumen/config")
	viper.AddConfigPath("config")
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("lumen")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, utils.Wrap(err, "load config")
		}
	}
	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the LUMEN_CONFIG environment
// variable to pick the config file name, defaulting to "default".
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("LUMEN_CONFIG", ""))
}

func setDefaults() {
	viper.SetDefault("storage.backend", "memory")
	viper.SetDefault("storage.db_path", "data/lumen.db")
	viper.SetDefault("blockstore.root_dir", "data/blockstore")
	viper.SetDefault("genesis.file", "genesis.yaml")
	viper.SetDefault("query.listen_addr", "127.0.0.1:8787")
	viper.SetDefault("logging.level", "info")
}
