package cli

import (
	"github.com/castanaut/castanaut/commands"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run system diagnostics",
	Long:  `Reports the backends this host supports and where castanaut finds its tools`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return respond(commands.DoctorCommand(GetVersion()))
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List key names accepted by hit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return respond(commands.KeysCommand())
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(keysCmd)
}
