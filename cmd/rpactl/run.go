package main

import (
	"context"
	"fmt"

	"github.com/rpaflow/engine/runtime"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var pluginDir string

	cmd := &cobra.Command{
		Use:   "run <graph.json>",
		Short: "Run a workflow graph to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(args[0])
			if err != nil {
				return err
			}

			e, err := buildEngine(pluginDir, false)
			if err != nil {
				return err
			}
			defer e.Close()

			ex, runErr := e.Run(context.Background(), g)
			if ex != nil {
				for _, entry := range ex.Runtime.Snapshot().Logs {
					fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", entry.Level, entry.NodeID, entry.Message)
				}
			}
			if runErr != nil {
				return runErr
			}

			status := runtime.StatusCompleted
			if ex != nil {
				status = ex.Runtime.Status()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "workflow %s: %s\n", g.ID, status)
			return nil
		},
	}
	cmd.Flags().StringVar(&pluginDir, "plugins", "", "Directory of plugin scripts to load before running")
	return cmd
}
