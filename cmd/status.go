package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/rrwm/riverbsp/internal/ipc"
	"github.com/rrwm/riverbsp/internal/wm"
)

var statusOutput string

// statusCmd streams tag status lines for waybar's custom module. Each
// line is a JSON array; waybar consumes them with "exec" + "restart".
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Stream tag status as JSON lines (for waybar)",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(os.Stdout)
		client := ipc.NewClient("")
		return client.Subscribe(statusOutput, func(states []wm.TagState) error {
			return enc.Encode(states)
		})
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "", "output name to report (default: first output)")
}
