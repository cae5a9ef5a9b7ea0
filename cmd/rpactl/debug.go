package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rpaflow/engine/runtime"
	"github.com/spf13/cobra"
)

// newDebugCmd runs a graph under breakpoint debugging with a small stdin
// REPL: "break <nodeId>" arms a breakpoint, "step" advances one node,
// "continue" resumes to the next breakpoint or completion, "quit" stops
// reading commands and lets the run finish on its own.
func newDebugCmd() *cobra.Command {
	var pluginDir string
	var breakpoints []string

	cmd := &cobra.Command{
		Use:   "debug <graph.json>",
		Short: "Run a workflow graph under the step/breakpoint debugger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(args[0])
			if err != nil {
				return err
			}
			if err := g.Validate(); err != nil {
				return err
			}

			e, err := buildEngine(pluginDir, false)
			if err != nil {
				return err
			}
			defer e.Close()

			ex := e.NewExecutor(g)
			for _, nodeID := range breakpoints {
				ex.Runtime.AddBreakpoint(nodeID)
			}

			events := ex.Subscribe()
			done := make(chan error, 1)
			go func() { done <- ex.RunDebug(context.Background(), runtime.DebugBreakpoint) }()

			go func() {
				for ev := range events {
					fmt.Fprintf(cmd.OutOrStdout(), "event: %s node=%s status=%s\n", ev.Kind, ev.NodeID, ev.Status)
				}
			}()

			reader := bufio.NewScanner(cmd.InOrStdin())
			for reader.Scan() {
				line := strings.TrimSpace(reader.Text())
				fields := strings.Fields(line)
				if len(fields) == 0 {
					continue
				}
				switch fields[0] {
				case "break":
					if len(fields) >= 2 {
						ex.Runtime.AddBreakpoint(fields[1])
					}
				case "step":
					ex.Runtime.Step()
				case "continue":
					ex.Runtime.Resume()
				case "quit":
					ex.Runtime.ClearBreakpoints()
					ex.Runtime.Resume()
					goto wait
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "unknown command %q (break <id>|step|continue|quit)\n", fields[0])
				}
				if ex.Runtime.Status().Terminal() {
					break
				}
			}

		wait:
			select {
			case err := <-done:
				if err != nil {
					return err
				}
			case <-time.After(30 * time.Second):
				return fmt.Errorf("debug: workflow did not finish within 30s")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "workflow %s: %s\n", g.ID, ex.Runtime.Status())
			return nil
		},
	}
	cmd.Flags().StringVar(&pluginDir, "plugins", "", "Directory of plugin scripts to load before running")
	cmd.Flags().StringSliceVar(&breakpoints, "break", nil, "Node id to break at before the first step (repeatable)")
	return cmd
}
