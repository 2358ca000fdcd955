package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/itsjashshah/flowtag/internal/aws"
	"github.com/itsjashshah/flowtag/internal/inventory"
	"github.com/itsjashshah/flowtag/internal/ui"
)

var flowlogsCmd = &cobra.Command{
	Use:   "flowlogs",
	Short: "List the VPC flow log subscriptions of a region",
	Long: `Lists VPC flow log subscriptions with their destination, so the S3 objects
they produce can be passed to flowtag with --flows s3://bucket/key. Subscriptions
using a custom log format are flagged, as flowtag only reads the default
version 2 format.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		spinner := ui.StartSpinner(fmt.Sprintf("Initializing AWS client for region: %s", cfg.AWS.Region))
		client, err := aws.NewClient(cmd.Context(), cfg.AWS.Region)
		if err != nil {
			ui.StopSpinner(spinner, false)
			return err
		}

		ui.UpdateSpinner(spinner, fmt.Sprintf("Fetching flow logs in %s...", client.Region))
		subs, err := inventory.ListFlowLogs(cmd.Context(), client.EC2)
		ui.StopSpinner(spinner, err == nil)
		if err != nil {
			return err
		}

		if len(subs) == 0 {
			pterm.Warning.Printf("No flow log subscriptions in %s\n", client.Region)
			return nil
		}

		data := [][]string{{"Flow Log ID", "Resource", "Traffic", "Destination", "Status", "Format"}}
		for _, s := range subs {
			format := pterm.FgGreen.Sprint("default")
			if !s.Supported {
				format = pterm.FgYellow.Sprint("custom (unsupported)")
			}
			data = append(data, []string{s.ID, s.ResourceID, s.TrafficType, s.DestType + ": " + s.Destination, s.Status, format})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

func init() {
	rootCmd.AddCommand(flowlogsCmd)
}
