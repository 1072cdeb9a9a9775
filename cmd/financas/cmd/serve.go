package cmd

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"financas/internal/amqp"
	"financas/internal/cli"
	apphttp "financas/internal/http"
	applog "financas/internal/log"
)

func newServeCmd(a *app) *cobra.Command {
	var writesPerMinute int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger as a JSON API",
		Long: `Serve the ledger over HTTP until SIGINT or SIGTERM.

When AMQP_URL is set, ledger events are relayed to the broker in the
background so a slow broker never delays a request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(writesPerMinute)
		},
	}
	cmd.Flags().IntVar(&writesPerMinute, "write-rate", 60, "mutating requests allowed per client per minute")
	return cmd
}

func (a *app) serve(writesPerMinute int) error {
	ctx, cancel := cli.GracefulShutdown(a.logger)
	defer cancel()

	l, err := cli.OpenLedger(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Cleanup(); err != nil {
			a.logger.Warn("Failed to release backend", "error", err)
		}
	}()

	var relay *amqp.Relay
	if l.Events != nil {
		relay = amqp.NewRelay(l.Events, a.logger.With(applog.FieldComponent, applog.ComponentAMQP), 0)
		l.Store.Subscribe(relay)
	}

	srv := apphttp.NewServer(":"+a.cfg.Port, l.Store, apphttp.Options{
		Logger:                 applog.New(applog.Config{Handler: a.logger.Handler(), Component: applog.ComponentHTTP}),
		Labels:                 a.labels(),
		DismissAfter:           a.cfg.AlertDismissAfter,
		Now:                    a.now,
		WriteRequestsPerMinute: writesPerMinute,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Starting HTTP server",
			"addr", srv.Addr,
			applog.FieldBackend, l.Backend,
			applog.FieldTransactions, l.Store.Len(),
			"events", l.Events != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Server shutdown error", "error", err)
			return err
		}
		a.logger.Info("Server shutdown completed")
		return nil
	})

	if relay != nil {
		g.Go(func() error {
			err := relay.Run(gctx)
			if n := relay.Dropped(); n > 0 {
				a.logger.Warn("Ledger events dropped", "count", n)
			}
			return err
		})
	}

	return g.Wait()
}
