package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/itsjashshah/flowtag/internal/models"
	"github.com/itsjashshah/flowtag/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "flowtag",
	Short: "flowtag tags AWS VPC Flow Log records by destination port and protocol",
	Long: `flowtag reads AWS VPC Flow Logs (version 2), matches every record's destination
port and protocol against a lookup table, and writes a CSV report with the
number of matches per tag and per port/protocol combination.

Inputs may be local files or s3://bucket/key objects; .gz inputs are
decompressed on the fly. Without arguments the conventional paths
input_files/lookup_table.csv, input_files/flow_logs.txt and out/output.csv
are used.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			ui.PrintBanner(AppVersion)
		}
	},
	RunE: runProcess,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		stop()
		os.Exit(1)
	}
}

func printError(err error) {
	switch {
	case errors.Is(err, context.Canceled):
		pterm.Warning.Println("Interrupted, no report was written")
	case errors.Is(err, models.ErrFileNotFound):
		pterm.Error.Printf("Input file not found: %v\n", err)
	case errors.Is(err, models.ErrFileRead):
		pterm.Error.Printf("Could not read input: %v\n", err)
	case errors.Is(err, models.ErrOutputWrite):
		pterm.Error.Printf("Could not write report: %v\n", err)
	default:
		pterm.Error.Println(err.Error())
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "YAML configuration file (default \"flowtag.yaml\" when present)")
	flags.StringP("lookup", "l", "", "Lookup table CSV (path or s3://bucket/key)")
	flags.StringP("flows", "f", "", "Flow log file (path or s3://bucket/key, .gz supported)")
	flags.Bool("strict", false, "Abort on the first malformed lookup row or flow log line")
	flags.StringP("region", "r", "", "AWS region for s3:// inputs and the flowlogs command")
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", "", "Log format (text, json)")
	flags.BoolP("quiet", "q", false, "Only print logs, no banner, spinner or tables")

	rootCmd.Flags().StringP("output", "o", "", "Report output path")
	rootCmd.Flags().String("format", "", "Report format (csv, json)")
	rootCmd.Flags().String("sort", "", "Row order (key, count)")
	rootCmd.Flags().String("metrics-file", "", "Write run metrics to this node_exporter textfile")
	rootCmd.Flags().String("pushgateway", "", "Push run metrics to this Prometheus Pushgateway URL")
}
