package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prasadtara/enginesim/internal/engine"
	"github.com/prasadtara/enginesim/internal/logger"
	"github.com/prasadtara/enginesim/internal/server"
	"github.com/prasadtara/enginesim/internal/tui"
	"github.com/prasadtara/enginesim/web"
)

func main() {
	configPath := flag.String("config", "/etc/enginesim/config.yaml", "Path to config file")
	listenAddr := flag.String("listen", "", "Override listen address (e.g. :8080)")
	useTUI := flag.Bool("tui", false, "Render in the terminal instead of serving the web dashboard")
	seed := flag.Int64("seed", 0, "Random seed (0 = time-seeded)")
	durationS := flag.Int("duration", -1, "Override run duration in seconds (0 = until stopped)")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] enginesim starting")

	// Load config
	cfg := server.LoadConfig(*configPath)

	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if *durationS >= 0 {
		cfg.Simulation.DurationS = *durationS
	}

	// Validate tuning and derive the simulation parameters. Every bad input
	// is rejected here, before anything starts running.
	params, err := cfg.Simulation.Tuning().Derive()
	if err != nil {
		log.Fatalf("[main] invalid tuning config: %v", err)
	}
	log.Printf("[main] atmospheric pressure at %.0fm: %.2f PSI",
		params.ElevationM, params.AtmosphericPSI)

	var rng engine.Source
	if cfg.Simulation.Seed != 0 {
		rng = engine.NewSource(cfg.Simulation.Seed)
	} else {
		rng = engine.NewTimeSource()
	}
	sim := engine.NewSimulation(params, rng)

	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[main] received %v, shutting down", sig)
		cancel()
	}()

	// Producer: one background goroutine advances the state machine.
	go sim.Run(ctx, cfg.Simulation.Duration())

	if *useTUI {
		runTUI(ctx, cancel, cfg, sim)
		return
	}

	// Consumer: web dashboard over WebSocket.
	srv := server.New(cfg, sim, web.FS)
	if err := srv.Run(ctx); err != nil {
		log.Printf("[main] server exited: %v", err)
	}
}

// runTUI renders in the terminal. The CSV logger still records on its own
// cadence, same as when the web server owns it.
func runTUI(ctx context.Context, cancel context.CancelFunc, cfg *server.Config, sim *engine.Simulation) {
	dataLog := logger.New(logger.Config{
		Enabled:    cfg.Logging.Enabled,
		Path:       cfg.Logging.Path,
		IntervalMs: cfg.Logging.Interval,
	})
	defer dataLog.Close()
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				dataLog.Record(sim.Snapshot())
			}
		}
	}()

	ui := tui.New(sim, tui.Options{
		PressureUnit: cfg.Display.PressureUnit,
		RPMGaugeMax:  cfg.Simulation.RedlineRPM + cfg.Display.RPMGaugePad,
		MAPGaugeMax:  cfg.Simulation.MaxBoostPSI + cfg.Display.MAPGaugePad,
	})
	if err := ui.Run(ctx); err != nil {
		log.Printf("[main] tui exited: %v", err)
	}
	cancel()
}
