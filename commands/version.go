package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	buildinfos = ""
	AppVersion = "flowtag " + version + " " + buildinfos
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of flowtag",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), AppVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
