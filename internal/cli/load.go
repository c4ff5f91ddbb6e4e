package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cpdsstox/internal/config"
	"github.com/JonMunkholm/cpdsstox/internal/core"
	_ "github.com/JonMunkholm/cpdsstox/internal/core/tables"
	"github.com/JonMunkholm/cpdsstox/internal/logging"
	"github.com/JonMunkholm/cpdsstox/internal/manifest"
	"github.com/JonMunkholm/cpdsstox/internal/metrics"
	"github.com/JonMunkholm/cpdsstox/internal/schema"
	"github.com/JonMunkholm/cpdsstox/internal/sink"
	"github.com/JonMunkholm/cpdsstox/internal/staging"
)

// pushTimeout bounds the Pushgateway call made after the run.
const pushTimeout = 10 * time.Second

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Extract every input file and load it into the database",
	Long: `Load reads every input file first and aborts before touching the database
if any of them is missing or unreadable. It then inserts the tables in
dependency order: dictionaries, DSSTox (with its Identifier rows), then the
fact tables.

Input files follow the release naming convention unless --manifest is given:
  DSSToxDump1.xlsx ... DSSToxDumpN.xlsx
  <table>_<release>.csv
With --sample the names are DSSTox_sample.xlsx and <table>_sample.csv.

The data directory may be an s3://bucket/prefix URL; the files are then
downloaded to a temporary directory first.

Examples:
  # Load the 20201216 release into a new SQLite database
  cpload load --data ./data --db cp.db --schema builtin

  # Load into PostgreSQL from S3
  cpload load --data s3://cpdat/20201216 --db postgres://loader@db/cp

  # Load an explicit file list
  cpload load --manifest inputs.yaml --db cp.db`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

type loadFlagValues struct {
	sinkFlagValues
	data, schema, manifest, release string
	sample                          bool
	dsstoxFiles                     int
	timeout                         time.Duration
}

var loadFlags loadFlagValues

func init() {
	rootCmd.AddCommand(loadCmd)

	addSinkFlags(loadCmd, &loadFlags.sinkFlagValues)
	loadCmd.Flags().StringVar(&loadFlags.data, "data", "",
		"Directory or s3://bucket/prefix holding the input files (overrides $CP_DATA_DIR)")
	loadCmd.Flags().StringVar(&loadFlags.schema, "schema", "",
		"DDL script to run before loading, or \"builtin\" for the bundled schema")
	loadCmd.Flags().StringVar(&loadFlags.manifest, "manifest", "",
		"YAML file listing the input files per table (replaces the naming convention)")
	loadCmd.Flags().StringVar(&loadFlags.release, "release", "",
		"Date stamp of the CSV file names (default: $CP_RELEASE or 20201216)")
	loadCmd.Flags().BoolVar(&loadFlags.sample, "sample", false,
		"Load the *_sample files instead of the full release")
	loadCmd.Flags().IntVar(&loadFlags.dsstoxFiles, "dsstox-files", 0,
		"Number of DSSToxDumpN.xlsx files (default: $CP_DSSTOX_FILES or 13)")
	loadCmd.Flags().DurationVar(&loadFlags.timeout, "timeout", 0,
		"Abort the run after this long; 0 disables the limit\n"+
			"Examples: 30m, 2h")
}

func applyLoadFlags(cmd *cobra.Command, cfg *config.Config) {
	applySinkFlags(cmd, loadFlags.sinkFlagValues, cfg)

	f := cmd.Flags()
	if f.Changed("data") {
		cfg.Load.DataDir = loadFlags.data
	}
	if f.Changed("schema") {
		cfg.Load.Schema = loadFlags.schema
	}
	if f.Changed("manifest") {
		cfg.Load.Manifest = loadFlags.manifest
	}
	if f.Changed("release") {
		cfg.Load.Release = loadFlags.release
	}
	if f.Changed("sample") {
		cfg.Load.Sample = loadFlags.sample
	}
	if f.Changed("dsstox-files") {
		cfg.Load.DSSToxFiles = loadFlags.dsstoxFiles
	}
	if f.Changed("timeout") {
		cfg.Load.RunTimeout = loadFlags.timeout
	}
}

func runLoad(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(func(c *config.Config) { applyLoadFlags(cmd, c) })
	if err != nil {
		return err
	}

	ctx := logging.WithRun(commandContext(cmd), uuid.NewString())
	if cfg.Load.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Load.RunTimeout)
		defer cancel()
	}

	_, err = execLoad(ctx, cfg)
	if err != nil {
		logger := logging.WithFields(ctx, "error", err)
		if core.IsFatal(err) {
			logger.Error("run aborted", "hint", core.FormatUserError(err))
		} else {
			logger.Error("run aborted")
		}
	}
	return err
}

// execLoad performs one load run. Per-table failures are reported in the
// returned RunReport; only fatal conditions produce an error.
func execLoad(ctx context.Context, cfg *config.Config) (core.RunReport, error) {
	logger := logging.FromContext(ctx)
	logger.Info("run started", "config", cfg.String())

	m, err := buildManifest(cfg)
	if err != nil {
		return core.RunReport{}, err
	}

	dir := cfg.Load.DataDir
	if staging.IsRemote(dir) {
		stager, err := staging.NewS3Stager(ctx, staging.Config{
			Region:    cfg.Source.Region,
			Endpoint:  cfg.Source.Endpoint,
			PathStyle: cfg.Source.PathStyle,
		})
		if err != nil {
			return core.RunReport{}, err
		}
		local, cleanup, err := stager.Stage(ctx, dir, m.Files())
		if err != nil {
			return core.RunReport{}, &core.FatalError{Op: "stage", Path: dir, Err: err}
		}
		defer cleanup()
		logger.Info("remote inputs staged", "source", dir, "dir", local)
		dir = local
	}

	inputs, missing, err := m.Resolve(dir)
	for _, path := range missing {
		logger.Warn("File not found", "file", path)
	}
	if err != nil {
		return core.RunReport{}, err
	}

	snk, err := openSink(ctx, cfg)
	if err != nil {
		return core.RunReport{}, err
	}
	defer func() {
		if err := snk.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("close sink", "error", err)
		}
	}()

	if cfg.Load.Schema != "" {
		if err := applySchema(ctx, snk, cfg.Load.Schema, logger); err != nil {
			return core.RunReport{}, err
		}
	}

	rec := metrics.New()
	pipeline := core.NewPipeline(snk, logger)
	pipeline.Recorder = rec

	report, runErr := pipeline.Run(ctx, inputs)
	rec.RunFinished(report.Duration, len(report.Failed()), runErr != nil)
	logSummary(logger, report)

	if cfg.Metrics.PushgatewayURL != "" {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
		defer cancel()
		if err := rec.Push(pctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			logger.Warn("metrics push failed", "error", err)
		}
	}

	return report, runErr
}

func buildManifest(cfg *config.Config) (*manifest.Manifest, error) {
	switch {
	case cfg.Load.Manifest != "":
		return manifest.LoadFile(cfg.Load.Manifest)
	case cfg.Load.Sample:
		return manifest.Sample(), nil
	default:
		return manifest.Convention(cfg.Load.Release, cfg.Load.DSSToxFiles), nil
	}
}

func openSink(ctx context.Context, cfg *config.Config) (sink.Sink, error) {
	octx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()
	return sink.Open(octx, cfg.Database.Driver, cfg.Database.URL)
}

func applySchema(ctx context.Context, snk sink.Sink, source string, logger *slog.Logger) error {
	script, err := schema.Load(source)
	if err != nil {
		return &core.FatalError{Op: "schema", Path: source, Err: err}
	}
	n, err := schema.Apply(ctx, snk, script)
	if err != nil {
		return &core.FatalError{Op: "schema", Path: source, Err: err}
	}
	logger.Info("schema applied", "source", source, "statements", n)
	return nil
}

func logSummary(logger *slog.Logger, report core.RunReport) {
	failed := report.Failed()
	names := make([]string, len(failed))
	for i, t := range failed {
		names[i] = fmt.Sprintf("%s (%s)", t.Table, t.Code)
	}

	logger.Info("run finished",
		"tables_loaded", len(report.Tables)-len(failed),
		"tables_failed", len(failed),
		"failed", names,
		"rows", report.Rows(),
		"duration", report.Duration,
	)
}
