package cli

import (
	"github.com/castanaut/castanaut/commands"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <screenplay>",
	Short: "Perform a screenplay",
	Long: `Performs a YAML or Go screenplay. While it runs, deleting the sentinel file
(or running 'castanaut stop') aborts it; cleanup still runs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return respond(commands.RunCommand(commandContext(cmd), commands.RunRequest{
			Path:      args[0],
			NoMonitor: noMonitor,
			DryRun:    dryRun,
		}))
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the screenplay in progress",
	Long:  `Removes the sentinel file, which makes the running screenplay abort and clean up.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return respond(commands.StopCommand())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stopCmd)

	runCmd.Flags().BoolVar(&noMonitor, "no-monitor", false, "perform inline, without a sentinel file")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "record directions instead of performing them")
}
