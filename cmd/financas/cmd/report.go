package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"financas/internal/chart"
	"financas/internal/cli"
	"financas/internal/core"
	"financas/internal/dashboard"
	"financas/internal/ledger"
)

func newListCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			labels := a.labels()
			return a.withLedger(cmd.Context(), func(l *cli.Ledger) error {
				return writeTransactions(cmd.OutOrStdout(), dashboard.Recent(l.Store.Transactions(), limit), labels)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many (0 means all)")
	return cmd
}

func writeTransactions(out io.Writer, list []core.Transaction, labels core.Labels) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(out, "No transactions")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, tx := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date, tx.Type, labels.Label(tx.Category), core.FormatAmount(tx.Amount), tx.Description)
	}
	return w.Flush()
}

func newDashboardCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show totals, this month's figures and goal alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(l *cli.Ledger) error {
				view := dashboard.New(a.cfg.AlertDismissAfter).Present(l.Store.Transactions(), l.Store.Goals(), a.now())
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), view)
				}
				return writeDashboard(cmd.OutOrStdout(), view)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the view as JSON")
	return cmd
}

func writeDashboard(out io.Writer, v dashboard.View) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tINCOME\tEXPENSE\tBALANCE")
	fmt.Fprintf(w, "All time\t%s\t%s\t%s\n", v.All.IncomeText, v.All.ExpenseText, v.All.BalanceText)
	fmt.Fprintf(w, "This month\t%s\t%s\t%s\n", v.Month.IncomeText, v.Month.ExpenseText, v.Month.BalanceText)
	fmt.Fprintf(w, "Goals\t%s\t%s\t\n", core.FormatAmount(v.Goals.IncomeTarget), core.FormatAmount(v.Goals.ExpenseLimit))
	if err := w.Flush(); err != nil {
		return err
	}
	for _, alert := range v.Alerts {
		if _, err := fmt.Fprintln(out, alert.Message); err != nil {
			return err
		}
	}
	return nil
}

func newChartCmd(a *app) *cobra.Command {
	var view string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Show chart data for the monthly, yearly or category view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := chart.ParseMode(view)
			if err != nil {
				return err
			}
			labels := a.labels()
			return a.withLedger(cmd.Context(), func(l *cli.Ledger) error {
				result := chart.New(labels).ShapeMode(mode, l.Store.Transactions(), a.now())
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				return writeChart(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVar(&view, "view", string(chart.Monthly), "monthly, yearly or category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the chart data as JSON")
	return cmd
}

func writeChart(out io.Writer, r chart.Result) error {
	fmt.Fprintln(out, r.Title)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	switch r.Kind {
	case chart.KindProportions:
		fmt.Fprintln(w, "CATEGORY\tEXPENSE")
		for i, label := range r.Proportions.Labels {
			fmt.Fprintf(w, "%s\t%s\n", label, core.FormatAmount(r.Proportions.Values[i]))
		}
	default:
		fmt.Fprintln(w, "PERIOD\tINCOME\tEXPENSE\tBALANCE")
		for i, label := range r.Series.Labels {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", label,
				core.FormatAmount(r.Series.Income[i]),
				core.FormatAmount(r.Series.Expense[i]),
				core.FormatAmount(r.Series.Balance[i]))
		}
	}
	return w.Flush()
}

func newExportCmd(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the transaction list to financas_YYYYMMDD.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(l *cli.Ledger) error {
				path := filepath.Join(dir, ledger.ExportFilename(a.now()))
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				if err := l.Store.Export(f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("close export file: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to %s\n", l.Store.Len(), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "out", ".", "directory to write the export to")
	return cmd
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
