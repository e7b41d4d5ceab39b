// Command nocsim runs a cycle-driven directory-coherence simulation
// described by a scenario YAML file and writes the resulting packet
// trace.
//
// Grounded on the teacher's cmd/node/main.go wiring: flag-driven
// config path, ApplyEnvOverrides/ValidateConfig, zap-or-nop logger
// selection, optional telemetry init with a deferred shutdown.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	zapfactory "nocsim/internal/logger/zap"

	"nocsim/internal/config"
	"nocsim/internal/logger"
	"nocsim/internal/noc"
	"nocsim/internal/scenario"
	"nocsim/internal/telemetry"
	"nocsim/internal/trace"
)

var defaultScenarioPath = "scenario.yaml"

func main() {
	scenarioPath := flag.String("scenario", defaultScenarioPath, "path to scenario YAML file")
	configPath := flag.String("config", "", "optional path to ambient config YAML (overrides scenario's logger/telemetry/simulation sections)")
	flag.Parse()

	scn, err := scenario.Load(*scenarioPath)
	if err != nil {
		log.Fatalf("failed to load scenario from %q: %v", *scenarioPath, err)
	}

	cfg := &config.Config{Logger: scn.Logger, Telemetry: scn.Telemetry, Simulation: scn.Simulation}
	if *configPath != "" {
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load configuration from %q: %v", *configPath, err)
		}
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	var lgr logger.Logger
	if cfg.Logger.Active {
		zapLog, err := zapfactory.New(cfg.Logger)
		if err != nil {
			log.Fatalf("failed to initialize logger: %v", err)
		}
		defer func() { _ = zapLog.Sync() }()
		lgr = zapfactory.NewZapAdapter(zapLog)
	} else {
		lgr = &logger.NopLogger{}
	}
	cfg.LogConfig(lgr)

	runID := trace.NewRunID("nocsim")
	lgr = lgr.Named("nocsim").With(logger.F("run_id", runID))
	lgr.Info("starting simulation run")

	shutdown := telemetry.InitTracer(cfg.Telemetry, "nocsim", runID)
	defer func() { _ = shutdown(context.Background()) }()

	scn.Telemetry = cfg.Telemetry
	tracer := scn.BuildTracer("nocsim")
	network, err := scn.Build(noc.WithLogger(lgr), noc.WithTracer(tracer), noc.WithMaxCycles(cfg.Simulation.MaxCycles))
	if err != nil {
		lgr.Error("failed to build NoC from scenario", logger.F("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := network.Run(ctx, scn.TracePath()); err != nil {
		lgr.Error("simulation run failed", logger.F("err", err), logger.F("cycles", network.CycleCount()))
		os.Exit(1)
	}

	lgr.Info("simulation run completed", logger.F("cycles", network.CycleCount()))
}
