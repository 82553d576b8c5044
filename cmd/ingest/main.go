package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mcbarchive/config"
	"mcbarchive/internal/database"
	"mcbarchive/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/cobra"
)

type ingestFlags struct {
	showsDir   string
	dryRun     bool
	reset      bool
	resetShows bool
}

func newRootCmd() *cobra.Command {
	var flags ingestFlags

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load show descriptor files into the show store",
		Long: "Walks the shows directory for .yml and .yaml descriptors, validates each one " +
			"and upserts it by id. Existing creation times and upvote counts are kept.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.showsDir, "shows-dir", "d", "", "descriptor directory (default: SHOWS_DIR or "+config.DefaultShowsDir+")")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "validate descriptors without writing to the store")
	cmd.Flags().BoolVar(&flags.reset, "reset", false, "delete all shows and reactions before ingesting")
	cmd.Flags().BoolVar(&flags.resetShows, "reset-shows", false, "delete all shows, keep reactions and rebuild upvote counts from them")

	return cmd
}

func runIngest(cmd *cobra.Command, flags ingestFlags) error {
	log := logger.New("ingest").Function("runIngest")

	if flags.reset && flags.resetShows {
		return services.ErrConflictingResetModes
	}

	cfg, err := config.New()
	if err != nil {
		return log.Err("failed to initialize config", err)
	}

	showsDir := strings.TrimSpace(flags.showsDir)
	if showsDir == "" {
		showsDir = cfg.ShowsDir
	}

	db := database.New(cfg)
	defer func() {
		if err := db.Close(); err != nil {
			log.Er("failed to close database", err)
		}
	}()

	svc := services.New(db)
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	report, err := svc.Ingestion.Run(cmd.Context(), services.IngestOptions{
		ShowsDir:   showsDir,
		DryRun:     flags.dryRun,
		Reset:      flags.reset,
		ResetShows: flags.resetShows,
		OnResult: func(result services.FileResult) {
			printResult(out, errOut, result)
		},
	})
	if err != nil {
		return err
	}

	printSummary(out, report, flags.dryRun)

	if !report.OK() {
		return fmt.Errorf("%d of %d descriptor files failed", report.Failed, report.Files)
	}

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
