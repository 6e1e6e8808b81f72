package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/castanaut/castanaut/backends"
	"github.com/castanaut/castanaut/commands"
	"github.com/castanaut/castanaut/config"
	"github.com/castanaut/castanaut/utils"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X .../cli.version=..."
var version = "dev"

// GetVersion reports the build version.
func GetVersion() string {
	return version
}

// rootCmd represents the base command. Given a screenplay it toggles: a run
// in progress is stopped, otherwise the screenplay is performed.
var rootCmd = &cobra.Command{
	Use:   "castanaut [screenplay]",
	Short: "Perform scripted screencast screenplays",
	Long: `Castanaut drives the mouse, keyboard and applications from a screenplay so
that screencasts can be recorded without a human at the controls.

Running castanaut while a screenplay is in progress stops it.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Version:       version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.RunRequest{}
		if len(args) == 1 {
			req.Path = args[0]
		}
		return respond(commands.ToggleCommand(commandContext(cmd), req))
	},
}

func initConfig() {
	utils.SetVerbose(verbose)

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		utils.Warn("%v, using defaults", err)
		cfg = config.Default()
	}
	if dryRun {
		cfg.Run.DryRun = true
	}

	utils.SetLevel(cfg.Log.Level)
	utils.SetLogFile(utils.LogFileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	registry := backends.NewRegistry()
	backends.RegisterDefaults(registry, cfg)
	commands.SetConfig(cfg)
	commands.SetRegistry(registry)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", fmt.Sprintf("config file (default: $%s or ~/.castanaut.ini)", config.EnvConfigPath))
}

// Execute runs the root command. Cancelling ctx aborts the direction or
// screenplay being performed.
func Execute(ctx context.Context) error {
	// enable microseconds in logs
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	return rootCmd.ExecuteContext(ctx)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// respond prints a command response and turns an error response into the
// command's error.
func respond(response *commands.CommandResponse) error {
	printJson(response)
	if response.Status == "error" {
		return fmt.Errorf("%s", response.Error)
	}
	return nil
}

// printJson is a helper function to print JSON responses
func printJson(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(jsonData))
}
