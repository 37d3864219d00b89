package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ledgerloom/taxfolio/pkg/log"
)

// Settings are the application-level options, distinct from the portfolio
// configuration: how to log and where to write reports.
type Settings struct {
	Logging LoggingSettings `mapstructure:"logging"`
	Report  ReportSettings  `mapstructure:"report"`
}

// LoggingSettings configures the slog setup.
type LoggingSettings struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// ReportSettings configures the report output location.
type ReportSettings struct {
	OutputDir string `mapstructure:"output_dir"`
	Prefix    string `mapstructure:"prefix"`
}

// LoadSettings resolves application settings with priority: environment
// variables (TAXFOLIO_*) > optional taxfolio.yaml in the working directory >
// built-in defaults.
func LoadSettings() (*Settings, error) {
	v := viper.New()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("report.output_dir", "output")
	v.SetDefault("report.prefix", "")

	v.SetConfigName("taxfolio")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// A missing settings file is fine: defaults apply.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	v.SetEnvPrefix("TAXFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return &settings, nil
}

// InitLogging installs the logger described by the settings.
func (s *Settings) InitLogging(verbose bool) {
	level := s.Logging.Level
	if verbose {
		level = "debug"
	}
	log.InitWithConfig(log.Config{
		Level:     level,
		Format:    log.Format(s.Logging.Format),
		AddSource: s.Logging.AddSource,
	})
}
