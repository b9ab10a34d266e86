package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studzonetools/bunker/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "bunker",
		Short:         "StudZone attendance tracker and bunk planner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "bunker.yaml", "config file path")

	root.AddCommand(newAttendanceCmd(&configPath))
	root.AddCommand(newTimetableCmd(&configPath))
	root.AddCommand(newWhatIfCmd(&configPath))
	root.AddCommand(newExportCmd(&configPath))
	root.AddCommand(newServeCmd(&configPath))
	return root
}

func loadConfig(path *string) (config.Config, error) {
	return config.Load(*path)
}
