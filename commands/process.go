package commands

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/itsjashshah/flowtag/internal/aws"
	"github.com/itsjashshah/flowtag/internal/config"
	"github.com/itsjashshah/flowtag/internal/logging"
	"github.com/itsjashshah/flowtag/internal/metrics"
	"github.com/itsjashshah/flowtag/internal/notifications"
	"github.com/itsjashshah/flowtag/internal/processor"
	"github.com/itsjashshah/flowtag/internal/report"
	"github.com/itsjashshah/flowtag/internal/source"
	"github.com/itsjashshah/flowtag/internal/ui"
)

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	quiet, _ := cmd.Flags().GetBool("quiet")

	var (
		opts    []processor.Option
		spinner *pterm.SpinnerPrinter
	)
	if !quiet {
		spinner = ui.StartSpinner("Starting...")
		opts = append(opts, processor.WithProgress(func(text string) {
			ui.UpdateSpinner(spinner, text)
		}))
	}

	proc := processor.New(cfg, newOpener(cfg), logger, opts...)
	res, err := proc.Run(cmd.Context())
	ui.StopSpinner(spinner, err == nil)
	if err != nil {
		return err
	}

	exportMetrics(cfg, res, logger)
	notify(cfg, res, logger)

	if quiet {
		return nil
	}
	order, _ := report.ParseSortOrder(cfg.SortBy)
	ui.PrintResult(res, order)
	return nil
}

// resolveConfig layers defaults, the config file and command line flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath
	}

	cfg, err := config.LoadOptional(path, explicit)
	if err != nil {
		return nil, err
	}

	stringFlags := map[string]*string{
		"lookup":       &cfg.LookupTable,
		"flows":        &cfg.FlowLogs,
		"output":       &cfg.Output,
		"format":       &cfg.OutputFormat,
		"sort":         &cfg.SortBy,
		"region":       &cfg.AWS.Region,
		"log-level":    &cfg.LogLevel,
		"log-format":   &cfg.LogFormat,
		"metrics-file": &cfg.Metrics.Textfile,
		"pushgateway":  &cfg.Metrics.Pushgateway,
	}
	for name, dst := range stringFlags {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		*dst = f.Value.String()
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict, _ = cmd.Flags().GetBool("strict")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newOpener(cfg *config.Config) *source.Opener {
	return source.NewOpener(func(ctx context.Context) (source.ObjectGetter, error) {
		client, err := aws.NewClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, err
		}
		return client.S3, nil
	})
}

func exportMetrics(cfg *config.Config, res *processor.Result, logger *logrus.Logger) {
	if cfg.Metrics.Textfile == "" && cfg.Metrics.Pushgateway == "" {
		return
	}

	run := metrics.NewRun()
	run.LookupEntries.Set(float64(res.LookupEntries))
	run.ObserveStats("lookup_table", res.LookupStats)
	run.ObserveStats("flow_logs", res.FlowStats)
	run.ObserveCounts(res.Report.Tags)
	run.Finish(res.Started, res.Finished)

	if cfg.Metrics.Textfile != "" {
		if err := run.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.WithError(err).Warn("metrics export failed")
		}
	}
	if cfg.Metrics.Pushgateway != "" {
		if err := run.Push(cfg.Metrics.Pushgateway); err != nil {
			logger.WithError(err).Warn("metrics push failed")
		}
	}
}

func notify(cfg *config.Config, res *processor.Result, logger *logrus.Logger) {
	if cfg.Slack.WebhookURL == "" {
		return
	}

	notifier := notifications.NewSlackNotifier(cfg.Slack.WebhookURL, cfg.Slack.Channel)
	err := notifier.SendSummary(notifications.RunSummary{
		Report:  res.Report,
		Output:  res.Output,
		Skipped: res.Skipped(),
	})
	if err != nil {
		logger.WithError(err).Warn("slack notification failed")
	}
}
