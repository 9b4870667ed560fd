package commands

import (
	"fmt"
	"strings"

	"github.com/marmos91/nfs4probe/internal/logger"
	"github.com/marmos91/nfs4probe/pkg/config"
)

// loadConfig loads the configuration, applies the --log-level override and
// initializes the logger. Callers may mutate the result from their own flags
// and must call config.Validate again afterwards.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = strings.ToUpper(logLevel)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := InitLogger(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	if err := logger.Init(config.LoggerConfig(cfg)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// displayConfigPath returns the path shown to the user for the active config.
func displayConfigPath() string {
	if p := GetConfigFile(); p != "" {
		return p
	}
	return config.GetDefaultConfigPath()
}
