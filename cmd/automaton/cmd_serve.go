package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"automaton/internal/asset"
	"automaton/internal/config"
	"automaton/internal/logging"
	mcpserver "automaton/internal/mcp"
	"automaton/internal/nav"
	"automaton/internal/sim"
	"automaton/internal/tasks"
	"automaton/pkg/engine"
)

var serveCmd = &cobra.Command{
	Use:   "serve <scenario.yaml>",
	Short: "Start the MCP server over stdio, exposing a steppable world",
	Long: `Starts an MCP server over stdin/stdout. The world is built from the
scenario but not ticked; the connected client advances it with step_world
and inspects entities with get_entity.

The server monitors for parent process death and self-terminates when the
spawning client goes away, so orphaned servers do not accumulate.`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	sc, err := config.Load(args[0])
	if err != nil {
		return err
	}

	registry := engine.NewRegistry()
	tasks.RegisterBuiltins(registry)

	navSvc := nav.NewService(nav.WithLogger(logging.New("nav")))
	defer navSvc.Close()

	cache := asset.NewCache()
	world, err := sim.New(sc, registry,
		sim.WithCache(cache),
		sim.WithPathfinder(navSvc),
		sim.WithLogger(logging.New("sim")))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, 2*time.Second, cancel)

	srv := mcpserver.NewServer(world, registry, cache)
	return srv.Run(ctx)
}
