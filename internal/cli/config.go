package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cpdsstox/internal/config"
	"github.com/JonMunkholm/cpdsstox/internal/logging"
)

// loadConfig reads the environment, lets changed flags override it and
// validates the result. Logging is configured from the final values.
func loadConfig(apply func(*config.Config)) (*config.Config, error) {
	cfg, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	if apply != nil {
		apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func applySinkFlags(cmd *cobra.Command, v sinkFlagValues, cfg *config.Config) {
	if cmd.Flags().Changed("db") {
		cfg.Database.URL = v.db
	}
	if cmd.Flags().Changed("driver") {
		cfg.Database.Driver = v.driver
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
