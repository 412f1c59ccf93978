package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rrwm/riverbsp/internal/ipc"
	"github.com/rrwm/riverbsp/internal/wm"
)

var windowsJSON bool

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	focusedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List managed windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		windows, err := ipc.NewClient("").Windows()
		if err != nil {
			return err
		}

		if windowsJSON {
			return json.NewEncoder(os.Stdout).Encode(windows)
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("%-10s %-30s %-12s %-10s", "ID", "APP", "OUTPUT", "TAGS")))
		for _, w := range windows {
			line := fmt.Sprintf("%-10d %-30s %-12s %-10s", w.ID, w.AppID, w.Output, tagList(w.Tags))
			if w.Focused {
				fmt.Println(focusedStyle.Render(line + " *"))
			} else {
				fmt.Println(dimStyle.Render(line))
			}
		}
		return nil
	},
}

// tagList renders a tag bitmask as "1,3,5".
func tagList(mask uint32) string {
	var tags []string
	for t := 1; t <= wm.MaxTags; t++ {
		if mask&(1<<(t-1)) != 0 {
			tags = append(tags, fmt.Sprintf("%d", t))
		}
	}
	return strings.Join(tags, ",")
}

func init() {
	windowsCmd.Flags().BoolVar(&windowsJSON, "json", false, "print raw JSON")
}
