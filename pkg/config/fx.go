package config

import (
	"os"

	"go.uber.org/fx"
)

// ConfigFile is the default project configuration filename, searched for
// in the current working directory.
const ConfigFile = "wrench.yaml"

// Module provides the project *Config to the fx graph. Commands that
// don't need a database connection (create, help) must tolerate a nil
// *Config.
var Module = fx.Module("config", fx.Provide(
	func() (*Config, error) {
		if _, err := os.Stat(ConfigFile); os.IsNotExist(err) {
			return nil, nil
		}
		return LoadConfigFile(ConfigFile)
	},
))
