package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	RulesPath       string        `mapstructure:"rulesPath"`
	DryRun          bool          `mapstructure:"dryRun"`
	DockerHost      string        `mapstructure:"dockerHost"`
	EvalConcurrency int           `mapstructure:"evalConcurrency"`
	RemoveTimeout   time.Duration `mapstructure:"removeTimeout"`
}

// LoadConfig reads configuration from file or environment variables. A
// missing config file is not an error for a CLI tool; defaults apply.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("dockersweep")
	viper.SetConfigType("json")

	viper.SetDefault("rulesPath", "cleanup-rules.conf")
	viper.SetDefault("evalConcurrency", 1)
	viper.SetDefault("removeTimeout", 30*time.Second)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
