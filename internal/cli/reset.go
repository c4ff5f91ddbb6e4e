package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cpdsstox/internal/admin"
	"github.com/JonMunkholm/cpdsstox/internal/config"
	"github.com/JonMunkholm/cpdsstox/internal/logging"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every loaded row so the release can be loaded again",
	Long: `Reset deletes all rows from every loader table in one transaction,
fact tables first and dictionaries last. The tables themselves are kept.

Examples:
  cpload reset --db cp.db
  cpload reset --db postgres://loader@db/cp`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var resetFlags sinkFlagValues

func init() {
	rootCmd.AddCommand(resetCmd)
	addSinkFlags(resetCmd, &resetFlags)
}

func runReset(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(func(c *config.Config) { applySinkFlags(cmd, resetFlags, c) })
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	logger := logging.FromContext(ctx)

	snk, err := openSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer snk.Close(context.WithoutCancel(ctx))

	tables, err := admin.ResetAll(ctx, snk)
	if err != nil {
		logger.Error("reset failed", "error", err)
		return err
	}

	logger.Info("tables reset", "tables", tables)
	return nil
}
