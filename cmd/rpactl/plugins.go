package main

import (
	"fmt"
	"strings"

	"github.com/rpaflow/engine/config"
	"github.com/rpaflow/engine/engine"
	"github.com/spf13/cobra"
)

func newPluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect and load plugin scripts",
	}
	cmd.AddCommand(newPluginsListCmd(), newPluginsLoadCmd())
	return cmd
}

func newPluginsListCmd() *cobra.Command {
	var pluginDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every node type contributed by loaded plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(pluginDir, false)
			if err != nil {
				return err
			}
			defer e.Close()

			for _, rec := range e.Registry().Plugins() {
				var types []string
				for _, def := range rec.Nodes {
					types = append(types, def.Type)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s@%s: %s\n", rec.Name, rec.Version, strings.Join(types, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pluginDir, "dir", "", "Plugin directory to load before listing")
	return cmd
}

func newPluginsLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <plugin.go>",
		Short: "Load a single plugin script and report the node types it registers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engine.New(config.DefaultEngineConfig())
			if err != nil {
				return err
			}
			defer e.Close()

			rec, err := e.Registry().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %s@%s\n", rec.Name, rec.Version)
			for _, def := range rec.Nodes {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s (%s)\n", def.Type, def.Label)
			}
			return nil
		},
	}
}
