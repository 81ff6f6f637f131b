package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"automaton/internal/tasks"
	"automaton/pkg/engine"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the built-in task identifiers",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		registry := engine.NewRegistry()
		tasks.RegisterBuiltins(registry)
		for _, id := range registry.TaskIDs() {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
	},
}
