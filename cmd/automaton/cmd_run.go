package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"automaton/internal/config"
	"automaton/internal/debug"
	"automaton/internal/logging"
	"automaton/internal/nav"
	"automaton/internal/sim"
	"automaton/internal/store"
	"automaton/internal/tasks"
	"automaton/pkg/engine"
)

var (
	runDT       float64
	runMaxTicks int
	runWSAddr   string
	runSaveDB   string
	runRestore  bool
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Run a scenario until every entity finishes its graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Float64Var(&runDT, "dt", 0, "override the scenario tick length in seconds")
	runCmd.Flags().IntVar(&runMaxTicks, "max-ticks", 0, "override the scenario tick limit")
	runCmd.Flags().StringVar(&runWSAddr, "ws-addr", "", "serve live tick events over websocket on this address (e.g. :8089)")
	runCmd.Flags().StringVar(&runSaveDB, "save-db", "", "SQLite file for persisting entity state across runs")
	runCmd.Flags().BoolVar(&runRestore, "restore", false, "restore entity state from --save-db before running")
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logging.New("run")

	sc, err := config.Load(args[0])
	if err != nil {
		return err
	}
	if runDT > 0 {
		sc.Tick.DT = runDT
	}
	if runMaxTicks > 0 {
		sc.Tick.MaxTicks = runMaxTicks
	}

	registry := engine.NewRegistry()
	tasks.RegisterBuiltins(registry)

	navSvc := nav.NewService(nav.WithLogger(logging.New("nav")))
	defer navSvc.Close()

	opts := []sim.Option{
		sim.WithPathfinder(navSvc),
		sim.WithLogger(logging.New("sim")),
	}

	var hub *debug.Hub
	if runWSAddr != "" {
		hub = debug.NewHub(logging.New("debug"))
		defer hub.Close()
		opts = append(opts, sim.WithObserver(hub))

		httpSrv := &http.Server{Addr: runWSAddr, Handler: hub}
		go func() {
			log.Info("debug stream listening", "addr", runWSAddr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("debug stream failed", "error", err)
			}
		}()
		defer httpSrv.Close()
	}

	world, err := sim.New(sc, registry, opts...)
	if err != nil {
		return err
	}

	var db store.Store
	if runSaveDB != "" {
		db, err = store.Open(runSaveDB)
		if err != nil {
			return err
		}
		defer db.Close()
		if runRestore {
			if err := world.RestoreAll(db); err != nil {
				return err
			}
			log.Info("restored entity state", "db", runSaveDB)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticks, runErr := world.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	log.Info("run finished",
		"scenario", sc.Name, "ticks", ticks,
		"finished", world.Finished(), "interrupted", runErr != nil)

	if db != nil {
		if err := world.SaveAll(db); err != nil {
			return err
		}
		log.Info("saved entity state", "db", runSaveDB)
	}
	return nil
}
