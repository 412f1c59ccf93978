package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rrwm/riverbsp/internal/app"
	"github.com/rrwm/riverbsp/internal/config"
	"github.com/rrwm/riverbsp/internal/logger"
	"github.com/rrwm/riverbsp/internal/transport"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the window management daemon",
	Long: `Connects to the river compositor's window management protocol and
manages windows until the compositor goes away or the process is signalled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		conn, err := transport.DialWayland()
		if err != nil {
			return err
		}
		defer conn.Close()
		logger.Info("connected to compositor", "version", Version)

		return app.New(conn, config.Get()).Run(ctx)
	},
}
