package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/specialistvlad/sapmd/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// Run executes the main application logic. With Once set it prints the power
// table and returns; otherwise it serves the idle monitor and the HTTP API
// until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.Once {
		return a.PrintPowerTable()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Idle monitor started.", "poll_interval", a.graph.IdleStatus().Config.PollInterval)
		return a.monitor.Run(ctx)
	})
	if a.config.HTTPPort > 0 {
		srv := a.newHTTPServer(fmt.Sprintf(":%d", a.config.HTTPPort))
		g.Go(func() error { return a.serveHTTP(ctx, srv) })
	} else {
		a.logger.Warn("HTTP API not started: disabled")
	}

	err := g.Wait()
	a.logger.Debug("App.Run method finished.")
	return err
}

// PrintPowerTable writes the current power state of every component.
func (a *App) PrintPowerTable() error {
	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "COMPONENT\tKIND\tPOWER\n")
	for _, c := range a.graph.Components() {
		power := "off"
		if c.Powered {
			power = "on"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Kind, power)
	}
	return tw.Flush()
}
