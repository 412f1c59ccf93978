package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rrwm/riverbsp/internal/config"
	"github.com/rrwm/riverbsp/internal/logger"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	configPath string

	rootCmd = &cobra.Command{
		Use:   "riverbsp",
		Short: "riverbsp - BSP window management for river",
		Long: `riverbsp is a window management client for the river Wayland compositor.
It arranges windows in a binary space partitioning tree per output and tag,
resolves keybindings into window commands, and publishes tag status for
waybar over a unix socket.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				config.SetConfigPath(configPath)
			}
			if err := config.Init(); err != nil {
				return err
			}
			if lvl := config.Get().Logging.LogLevel; lvl != "" {
				logger.SetLevel(lvl)
			}
			return nil
		},
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(windowsCmd)
}
