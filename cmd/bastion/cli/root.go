// Package cli implements the bastion command-line interface using Cobra.
package cli

import (
	"os"
	"path/filepath"

	"github.com/bastionhq/bastion/internal/config"
	"github.com/bastionhq/bastion/internal/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "bastion",
	Short: "Bastion - sandboxed execution toolkit for AI agents",
	Long: `Bastion is a sandboxed execution toolkit for AI agents.
It loads a per-project bastion.yaml manifest, detects sandboxed execution,
and hands out configured outbound HTTP clients with the right proxy wiring.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load global config for debug settings
		globalCfg, err := config.LoadGlobal()
		if err != nil {
			globalCfg = config.DefaultGlobalConfig()
			cmd.PrintErrf("Warning: ignoring global config: %v\n", err)
		}
		debugDir := filepath.Join(config.GlobalConfigDir(), "debug")

		if err := log.Init(log.Options{
			Verbose:       verbose,
			JSONFormat:    jsonOut,
			Interactive:   isatty.IsTerminal(os.Stderr.Fd()),
			DebugDir:      debugDir,
			RetentionDays: globalCfg.Debug.RetentionDays,
		}); err != nil {
			// Log init failure is non-fatal - fallback to default logger
			cmd.PrintErrf("Warning: failed to initialize debug logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Close()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
}
