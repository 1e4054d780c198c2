package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sony/gobreaker"
	"github.com/specialistvlad/sapmd/internal/config"
	"github.com/specialistvlad/sapmd/internal/ctxlog"
	"github.com/specialistvlad/sapmd/internal/metrics"
	"github.com/specialistvlad/sapmd/internal/regbus"
	"github.com/specialistvlad/sapmd/internal/sapm"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *prometheus.Registry
	memory   *regbus.Memory
	graph    *sapm.Graph
	monitor  *sapm.Monitor
}

// NewApp is the constructor for the main application. It loads the card,
// builds the register bus and the power graph, and settles the graph once.
// Configuration and topology errors are fatal and panic; the entrypoint
// recovers them into a clean exit.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	card, err := loader.Load(ctx, cfg.CardPaths...)
	if err != nil {
		panic(fmt.Errorf("failed to load card: %w", err))
	}
	logger.Debug("Card loaded.", "card", card.Name, "components", len(card.Components), "routes", len(card.Routes))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	recorder := metrics.NewRecorder(registry)

	memory := regbus.FromCard(card)
	bus := regbus.NewBreaker(memory, regbus.BreakerSettings{
		Name:        card.Name,
		MaxFailures: cfg.BreakerFailures,
		OnStateChange: func(name string, from, to gobreaker.State) {
			recorder.BreakerStateChanged(name, from, to)
			logger.Warn("Register bus breaker state changed.", "bus", name, "from", from.String(), "to", to.String())
		},
	})

	graph, err := sapm.New(ctx, card, bus,
		sapm.WithObserver(recorder),
		sapm.WithWriteTimeout(cfg.WriteTimeout))
	if err != nil {
		panic(fmt.Errorf("failed to build power graph: %w", err))
	}
	logger.Info("Power graph ready.", "card", graph.Name(), "components", len(card.Components))

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: registry,
		memory:   memory,
		graph:    graph,
		monitor:  sapm.NewMonitor(graph),
	}
}

// Graph returns the application's power graph. This is primarily for testing.
func (a *App) Graph() *sapm.Graph {
	return a.graph
}

// Registers returns the simulated register file behind the bus.
func (a *App) Registers() *regbus.Memory {
	return a.memory
}
