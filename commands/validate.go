package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/itsjashshah/flowtag/internal/flowlog"
	"github.com/itsjashshah/flowtag/internal/logging"
	"github.com/itsjashshah/flowtag/internal/lookup"
	"github.com/itsjashshah/flowtag/internal/models"
	"github.com/itsjashshah/flowtag/internal/processor"
	"github.com/itsjashshah/flowtag/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the lookup table and flow log without writing a report",
	Long: `Loads the lookup table and scans the flow log, reporting every malformed row
and line. With --strict the command fails when any were found. Duplicate
lookup keys only count when lookup.duplicate_policy is "error".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		quiet, _ := cmd.Flags().GetBool("quiet")

		strict := cfg.Strict
		cfg.Strict = false

		opener := newOpener(cfg)
		table, lstats, err := processor.New(cfg, opener, logger).LoadLookup(cmd.Context())
		if err != nil {
			return err
		}

		rc, err := opener.Open(cmd.Context(), cfg.FlowLogs)
		if err != nil {
			return err
		}
		defer rc.Close()

		scanner := flowlog.NewScanner(rc, flowlog.Options{
			Source:    cfg.FlowLogs,
			Protocols: flowlog.NewProtocolTable(cfg.Protocols),
			Logger:    logger,
		})
		for scanner.Scan() {
			if cmd.Context().Err() != nil {
				break
			}
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		fstats := scanner.Stats()

		if !quiet {
			ui.PrintStats("Lookup table "+cfg.LookupTable, lstats)
			ui.PrintStats("Flow logs "+cfg.FlowLogs, fstats)
			pterm.Info.Printf("%d lookup entries, %d distinct tags\n", table.Len(), len(table.Tags()))
		}

		lookupBad := lookupAnomalies(lstats, lookup.DuplicatePolicy(cfg.Lookup.DuplicatePolicy))
		flowBad := fstats.Anomalies.Total()
		if strict {
			if err := strictError(lookupBad, flowBad); err != nil {
				return err
			}
		}
		if !quiet && lookupBad+flowBad == 0 {
			pterm.Success.Println("Inputs are well-formed")
		}
		return nil
	},
}

// lookupAnomalies counts the rows that make a strict load fail. Duplicate
// keys only do so under the error policy.
func lookupAnomalies(stats models.Stats, policy lookup.DuplicatePolicy) uint64 {
	n := stats.Anomalies.Total()
	if policy != lookup.DuplicateError {
		n -= stats.Anomalies[models.ReasonDuplicateKey]
	}
	return n
}

func strictError(lookupBad, flowBad uint64) error {
	n := lookupBad + flowBad
	switch {
	case lookupBad > 0 && flowBad > 0:
		return fmt.Errorf("%w, %w: %d anomalies found", models.ErrMalformedRow, models.ErrMalformedLine, n)
	case lookupBad > 0:
		return fmt.Errorf("%w: %d anomalies found", models.ErrMalformedRow, n)
	case flowBad > 0:
		return fmt.Errorf("%w: %d anomalies found", models.ErrMalformedLine, n)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
