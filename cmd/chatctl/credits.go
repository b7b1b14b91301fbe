package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"chatline/ledger"
	"chatline/models"
	"chatline/repositories"
)

// ErrLedgerMismatch 는 verify 결과 카운터와 원장 합계가 다를 때 반환된다.
var ErrLedgerMismatch = errors.New("ledger mismatch")

func newCreditsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Inspect and grant credits",
	}
	cmd.AddCommand(newCreditsGrantCmd(a), newCreditsBalanceCmd(a), newCreditsVerifyCmd(a))
	return cmd
}

func newCreditsGrantCmd(a *app) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "grant <user-id> <amount>",
		Short: "Grant credits to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || amount <= 0 {
				return fmt.Errorf("invalid amount %q: must be a positive integer", args[1])
			}
			ctx := cmd.Context()
			return a.withStore(ctx, func(store repositories.Store) error {
				meta := map[string]any{"granted_by": "chatctl"}
				if reason != "" {
					meta["note"] = reason
				}
				entry, err := ledger.New(store.Ledger).Grant(ctx, args[0], amount, models.LedgerReasonAdminGrant, meta)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Granted %s credits to %s (balance %s, entry %s)\n",
					countStyle.Render(strconv.FormatInt(amount, 10)),
					args[0],
					countStyle.Render(strconv.FormatInt(entry.BalanceAfter, 10)),
					idStyle.Render(entry.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "note", "", "Free-form note stored in the entry meta")
	return cmd
}

func newCreditsBalanceCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "balance <user-id>",
		Short: "Show balance and recent ledger entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(store repositories.Store) error {
				l := ledger.New(store.Ledger)
				balance, err := l.Balance(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Balance:"), countStyle.Render(strconv.FormatInt(balance, 10)))
				if limit <= 0 {
					return nil
				}
				entries, err := l.Entries(ctx, args[0], limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "No ledger entries.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "ENTRY\tDELTA\tBALANCE\tREASON\tAT")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%+d\t%d\t%s\t%s\n",
						e.ID, e.Delta, e.BalanceAfter, e.Reason,
						e.CreatedAt.Local().Format("2006-01-02 15:04"))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of recent entries to show (0 hides them)")
	return cmd
}

func newCreditsVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <user-id>",
		Short: "Check that the balance equals the sum of ledger entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(store repositories.Store) error {
				rec, err := ledger.New(store.Ledger).Verify(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "balance=%d entry_sum=%d\n", rec.Balance, rec.EntrySum)
				if !rec.Consistent {
					fmt.Fprintln(out, warnStyle.Render("MISMATCH"))
					return fmt.Errorf("%w: user %s", ErrLedgerMismatch, rec.UserID)
				}
				fmt.Fprintln(out, okStyle.Render("OK"))
				return nil
			})
		},
	}
}
