// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/netSkope/gchat-groups/internal/config"
	"github.com/netSkope/gchat-groups/internal/console"
	"github.com/netSkope/gchat-groups/internal/group"
	fislog "github.com/netSkope/gchat-groups/internal/log"
	"github.com/netSkope/gchat-groups/internal/s3"
	"github.com/netSkope/gchat-groups/internal/store"
	"github.com/netSkope/gchat-groups/internal/takeout"
	"github.com/netSkope/gchat-groups/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// exitCode carries a non-zero process exit code out of cobra.
type exitCode int

func (c exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(c))
}

type options struct {
	projectDir  string
	maxParallel int
	logStdout   bool
	debug       bool

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd() *cobra.Command {
	opts := options{stdout: os.Stdout, stderr: os.Stderr}

	root := &cobra.Command{
		Use:           "gchat-groups",
		Short:         "Build group records from a Google Chat Takeout export",
		Long:          "Reads input/config.yml from the project directory and extracts every group under <folderLocation>/Google Chat/Groups.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := run(cmd.Context(), opts); code != takeout.ExitOK {
				return exitCode(code)
			}
			return nil
		},
	}

	root.Flags().StringVar(&opts.projectDir, "project-dir", "", "directory containing input/config.yml (default: working directory)")
	root.Flags().IntVar(&opts.maxParallel, "max-parallel", 0, "max group extractions in flight (default: config value, 0 = unbounded)")
	root.Flags().BoolVar(&opts.logStdout, "log-stdout", false, "write structured logs to stdout instead of the log file")
	root.Flags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	return root
}

// run executes the pipeline once and returns the process exit code.
func run(ctx context.Context, opts options) int {
	cfg, err := config.LoadConfig(opts.projectDir, config.Overrides{
		MaxParallelGroups: opts.maxParallel,
		LogStdout:         opts.logStdout,
		Debug:             opts.debug,
	})
	if err != nil {
		fmt.Fprintf(opts.stderr, "Failed to load configuration: %v\n", err)
		return takeout.ExitStartup
	}

	logger, err := fislog.NewLogger(cfg.Log.Dir, cfg.Log.Name, cfg.Log.Debug, cfg.Log.Stdout)
	if err != nil {
		fmt.Fprintf(opts.stderr, "Failed to initialize logger: %v\n", err)
		return takeout.ExitStartup
	}
	defer func() { _ = logger.Sync() }()

	runID := uuid.New().String()
	logger = logger.With(zap.String("run_id", runID))
	logger.Info("Starting Google Chat groups extraction",
		zap.String("folder_location", cfg.FolderLocation),
		zap.Int("max_parallel", cfg.MaxParallelGroups))

	printer := console.NewPrinter(opts.stdout, opts.stderr)
	aggregator := group.NewAggregator(group.NewFileExtractor(logger), cfg.MaxParallelGroups, printer, logger)
	pipeline := takeout.NewPipeline(aggregator, printer, logger)

	groups, err := pipeline.Run(ctx, cfg.FolderLocation)
	if err != nil {
		return takeout.Classify(err).ExitCode()
	}

	code := takeout.ExitOK
	summary := []string{
		fmt.Sprintf("Run ID: %s", runID),
		fmt.Sprintf("Folder: %s", cfg.FolderLocation),
		fmt.Sprintf("Groups: %d", len(groups)),
		fmt.Sprintf("Messages: %d", groups.MessageCount()),
	}

	if cfg.Database.Enabled() {
		if err := saveToDatabase(ctx, cfg.Database, runID, groups, logger); err != nil {
			logger.Error("Failed to save groups to database", zap.Error(err))
			printer.Failure(takeout.Remediation(err))
			code = takeout.ExitUnknown
		} else {
			summary = append(summary, fmt.Sprintf("Database: %s (table %s)", cfg.Database.Address(), cfg.Database.Table))
		}
	}

	if cfg.S3.Enabled() {
		key, err := uploadSnapshot(ctx, cfg.S3, runID, groups, logger)
		if err != nil {
			logger.Error("Failed to upload snapshot to S3", zap.Error(err))
			printer.Failure(takeout.Remediation(err))
			code = takeout.ExitUnknown
		} else {
			summary = append(summary, fmt.Sprintf("Snapshot: s3://%s/%s", cfg.S3.Bucket, key))
		}
	}

	printer.Summary(summary...)
	logger.Info("Google Chat groups extraction completed",
		zap.Int("groups", len(groups)),
		zap.Int("exit_code", code))
	return code
}

func saveToDatabase(ctx context.Context, dbCfg config.DatabaseConfig, runID string, groups group.Collection, logger *zap.Logger) error {
	pwd, err := util.ResolveDBPassword(ctx, dbCfg.Password, dbCfg.Secret, dbCfg.Region)
	if err != nil {
		return fmt.Errorf("failed to resolve database password: %w", err)
	}

	client, err := store.NewSQLClient(ctx, dbCfg.Address(), dbCfg.User, pwd, dbCfg.Timeout, dbCfg.Name)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer client.Close()

	groupStore, err := store.NewGroupStore(client, dbCfg.Table, logger)
	if err != nil {
		return err
	}
	if err := groupStore.EnsureSchema(ctx); err != nil {
		return err
	}
	return groupStore.SaveGroups(ctx, runID, groups)
}

func uploadSnapshot(ctx context.Context, s3Cfg config.S3Config, runID string, groups group.Collection, logger *zap.Logger) (string, error) {
	uploader, err := s3.NewUploader(ctx, s3Cfg, logger)
	if err != nil {
		return "", fmt.Errorf("failed to create S3 uploader: %w", err)
	}
	return uploader.UploadSnapshot(ctx, runID, groups)
}
