package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sdingest/internal/config"
	"sdingest/internal/index"
	"sdingest/internal/ingest"
	"sdingest/internal/logging"
	"sdingest/internal/mirror"
	"sdingest/internal/reconcile"
	"sdingest/internal/volume"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	verbosity       int
	configFile      string
	sourceFlag      string
	excludes        []string
	workers         int
	attempts        int
	continueOnError bool
	mirrorCommand   string
	mirrorArgs      []string
	mediaRootFlag   string
	writeManifest   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sdingest",
		Short: "Verified bulk ingest of removable media",
		Long: `sdingest copies a source tree (typically an SD card) to one or more
destinations and verifies every file by SHA-256 before reporting success.
Each destination gets a checksum.txt manifest listing the verified files.`,
		Version: fmt.Sprintf("%s (commit: %s, built at: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(verbosity)
		},
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "sdingest.yaml", "Path to YAML config file")

	ingestCmd := &cobra.Command{
		Use:   "ingest <Destination>...",
		Short: "Copy the source tree to each destination and verify checksums",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngest,
	}
	ingestCmd.Flags().StringVar(&sourceFlag, "source", "", "Source directory (defaults to the platform media root)")
	ingestCmd.Flags().StringSliceVar(&excludes, "exclude", nil, "Exclude patterns (multiple allowed)")
	ingestCmd.Flags().IntVar(&workers, "workers", 0, "Hashing worker pool size")
	ingestCmd.Flags().IntVar(&attempts, "attempts", 0, "Copy retry budget")
	ingestCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Process remaining destinations after one fails")
	ingestCmd.Flags().StringVar(&mirrorCommand, "mirror-command", "", "Copy tool binary (defaults to rsync)")
	ingestCmd.Flags().StringSliceVar(&mirrorArgs, "mirror-arg", nil, "Extra argument for the copy tool (multiple allowed)")

	verifyCmd := &cobra.Command{
		Use:   "verify <Source> <Destination>",
		Short: "Re-verify an existing copy without copying anything",
		Args:  cobra.ExactArgs(2),
		RunE:  runVerify,
	}
	verifyCmd.Flags().StringSliceVar(&excludes, "exclude", nil, "Exclude patterns (multiple allowed)")
	verifyCmd.Flags().IntVar(&workers, "workers", 0, "Hashing worker pool size")
	verifyCmd.Flags().BoolVar(&writeManifest, "write-manifest", false, "Rewrite checksum.txt in the destination")

	volumesCmd := &cobra.Command{
		Use:   "volumes",
		Short: "List volumes mounted under the media root",
		Args:  cobra.NoArgs,
		RunE:  runVolumes,
	}
	volumesCmd.PersistentFlags().StringVar(&mediaRootFlag, "media-root", "", "Media root to scan (defaults to the platform media root)")

	volumesInfoCmd := &cobra.Command{
		Use:   "info <Path>",
		Short: "Show capacity and content counts for one volume",
		Args:  cobra.ExactArgs(1),
		RunE:  runVolumesInfo,
	}
	volumesCmd.AddCommand(volumesInfoCmd)

	rootCmd.AddCommand(ingestCmd, verifyCmd, volumesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	// The media-root fallback is resolved here at the boundary; the
	// engine only ever sees an explicit path.
	source := sourceFlag
	if source == "" {
		source, err = volume.MediaRoot()
		if err != nil {
			return err
		}
	}

	runner := &mirror.RsyncRunner{Command: cfg.MirrorCommand, ExtraArgs: cfg.MirrorArgs}
	orch := ingest.New(ingest.Options{
		Excludes:        cfg.Excludes,
		Workers:         cfg.Workers,
		Attempts:        cfg.Attempts,
		Runner:          runner,
		ContinueOnError: cfg.ContinueOnError,
	})

	result, err := orch.Run(context.Background(), source, args)
	if err != nil {
		return err
	}

	printIngestSummary(result)
	if !result.Success() {
		return fmt.Errorf("ingest failed: %d checksum errors", result.ErrorCount)
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	builderOpts := []index.Option{index.WithExcludes(cfg.Excludes)}
	if cfg.Workers > 0 {
		builderOpts = append(builderOpts, index.WithWorkers(cfg.Workers))
	}
	builder := index.NewBuilder(builderOpts...)

	ctx := context.Background()
	sourceIndex, err := builder.Build(ctx, args[0])
	if err != nil {
		return err
	}

	var report *reconcile.Report
	if writeManifest {
		report, err = reconcile.NewEngine(builder).Reconcile(ctx, sourceIndex, args[1])
		if err != nil {
			return err
		}
	} else {
		destIndex, err := builder.Build(ctx, args[1])
		if err != nil {
			return err
		}
		report = reconcile.Compare(sourceIndex, destIndex, io.Discard)
	}

	fmt.Printf("Verified: %d files\n", report.Matched)
	if !report.Success() {
		return fmt.Errorf("verification failed: %d mismatches", report.ErrorCount())
	}
	return nil
}

func runVolumes(cmd *cobra.Command, args []string) error {
	volumes, err := volume.List(mediaRootFlag)
	if err != nil {
		return err
	}
	for _, v := range volumes {
		fmt.Println(v.Path)
	}
	return nil
}

func runVolumesInfo(cmd *cobra.Command, args []string) error {
	info, err := volume.GetInfo(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Path:  %s\n", info.Path)
	if info.Usage != nil {
		fmt.Printf("Total: %s\n", formatBytes(info.Usage.Total))
		fmt.Printf("Used:  %s\n", formatBytes(info.Usage.Used))
		fmt.Printf("Free:  %s\n", formatBytes(info.Usage.Free))
	}
	fmt.Printf("Files: %d\n", info.NumFiles)
	fmt.Printf("Dirs:  %d\n", info.NumDirs)
	return nil
}

func applyFlagOverrides(cfg *config.Config) {
	if len(excludes) > 0 {
		cfg.Excludes = append(cfg.Excludes, excludes...)
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if attempts > 0 {
		cfg.Attempts = attempts
	}
	if continueOnError {
		cfg.ContinueOnError = true
	}
	if mirrorCommand != "" {
		cfg.MirrorCommand = mirrorCommand
	}
	if len(mirrorArgs) > 0 {
		cfg.MirrorArgs = append(cfg.MirrorArgs, mirrorArgs...)
	}
}

func printIngestSummary(result *ingest.Result) {
	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Printf("Source: %s\n", result.Source)
	for _, destResult := range result.Destinations {
		switch {
		case destResult.Err != nil:
			fmt.Printf("%s: FAILED (%v)\n", destResult.Dest, destResult.Err)
		case destResult.Report.Success():
			fmt.Printf("%s: OK (%d files verified)\n", destResult.Dest, destResult.Report.Matched)
		default:
			fmt.Printf("%s: FAILED (%d mismatches)\n", destResult.Dest, destResult.Report.ErrorCount())
		}
	}
}

// formatBytes formats bytes in human readable form.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
