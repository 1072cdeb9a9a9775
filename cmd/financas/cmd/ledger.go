package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"financas/internal/cli"
	"financas/internal/core"
)

func newAddCmd(a *app) *cobra.Command {
	var desc, amount, kind, category, date string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Long: `Record an income or expense transaction.

The amount accepts a dot or a comma as decimal separator. The date
defaults to today.

Example:
  financas add --desc "Salário" --amount 5000 --type income --category salary
  financas add --desc "Mercado" --amount 123,45 --type expense --category food --date 2024-03-15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.newTransaction(desc, amount, kind, category, date)
			if err != nil {
				return err
			}
			return a.withLedger(cmd.Context(), func(l *cli.Ledger) error {
				tx, err := l.Store.Add(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added transaction %d: %s %s (%s)\n",
					tx.ID, tx.Description, core.FormatAmount(tx.Amount), tx.Type)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&desc, "desc", "", "description (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "positive amount, e.g. 12.34 or 12,34 (required)")
	cmd.Flags().StringVar(&kind, "type", "", "income or expense (required)")
	cmd.Flags().StringVar(&category, "category", "", "category key (default other)")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("desc")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func (a *app) newTransaction(desc, amount, kind, category, date string) (core.NewTransaction, error) {
	value, err := core.ParseAmount(amount)
	if err != nil {
		return core.NewTransaction{}, err
	}
	k, err := core.ParseKind(kind)
	if err != nil {
		return core.NewTransaction{}, err
	}
	d := a.today()
	if date != "" {
		if d, err = core.ParseDate(date); err != nil {
			return core.NewTransaction{}, err
		}
	}
	return core.NewTransaction{
		Description: desc,
		Amount:      value,
		Type:        k,
		Category:    core.NormalizeCategory(category),
		Date:        d,
	}, nil
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			return a.withLedger(cmd.Context(), func(l *cli.Ledger) error {
				found, err := l.Store.Delete(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !found {
					fmt.Fprintf(cmd.OutOrStdout(), "No transaction with id %d\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %d\n", id)
				return nil
			})
		},
	}
}

func newGoalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "goal <income|expense> <value>",
		Short: "Set the monthly income target or expense limit",
		Long: `Set the monthly income target or expense limit. Zero disables the goal.

Example:
  financas goal income 5000
  financas goal expense 3000,50`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := core.ParseGoalKind(args[0])
			if err != nil {
				return err
			}
			value, err := core.ParseGoalValue(args[1])
			if err != nil {
				return err
			}
			return a.withLedger(cmd.Context(), func(l *cli.Ledger) error {
				if err := l.Store.SetGoal(cmd.Context(), kind, value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Goal %s set to %s\n", kind, core.FormatAmount(value))
				return nil
			})
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every transaction and reset goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			return a.withLedger(cmd.Context(), func(l *cli.Ledger) error {
				if err := l.Store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All data cleared")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the clear")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace transactions with an exported snapshot",
		Long: `Replace the transaction list with a file written by export.

Every entry is validated first; if any is invalid nothing changes.
Goals are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()

			return a.withLedger(cmd.Context(), func(l *cli.Ledger) error {
				n, err := l.Store.Import(cmd.Context(), f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions\n", n)
				return nil
			})
		},
	}
}
