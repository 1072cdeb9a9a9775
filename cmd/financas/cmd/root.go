// Package cmd provides CLI commands for financas.
package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"financas/internal/cli"
	"financas/internal/config"
	"financas/internal/core"
)

// app carries state resolved once in PersistentPreRunE.
type app struct {
	envFile string
	debug   bool

	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{now: time.Now})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "financas",
		Short: "Personal income and expense ledger",
		Long: `financas tracks income and expense transactions against monthly goals.

It supports:
- Adding, listing and deleting transactions
- Monthly income target and expense limit alerts
- Monthly, yearly and per-category chart data
- JSON export and import
- A JSON API (serve)

Example:
  financas add --desc "Almoço" --amount 32,50 --type expense --category food
  financas dashboard
  financas serve`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "env file to load (default is .env if present)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newAddCmd(a),
		newDeleteCmd(a),
		newGoalCmd(a),
		newClearCmd(a),
		newListCmd(a),
		newDashboardCmd(a),
		newChartCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newServeCmd(a),
	)

	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) init() error {
	var files []string
	if a.envFile != "" {
		files = append(files, a.envFile)
	}
	if err := cli.LoadEnvFile(files...); err != nil {
		return err
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	if a.debug {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg
	a.logger = cli.SetupLogger(cfg.LogLevel)
	return nil
}

// withLedger opens the ledger, publishes its changes when events are
// enabled, runs fn and releases the backend.
func (a *app) withLedger(ctx context.Context, fn func(l *cli.Ledger) error) error {
	l, err := cli.OpenLedger(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Cleanup(); err != nil {
			a.logger.Warn("Failed to release backend", "error", err)
		}
	}()
	l.PublishChanges(a.logger)
	return fn(l)
}

func (a *app) labels() core.Labels {
	labels, err := cli.LoadLabels(a.cfg)
	if err != nil {
		a.logger.Warn("Failed to load category labels, using defaults", "error", err)
		return core.DefaultLabels()
	}
	return labels
}

func (a *app) today() core.Date {
	return core.DateOf(a.now())
}
