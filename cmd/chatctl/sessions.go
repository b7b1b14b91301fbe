package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"chatline/repositories"
)

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect chat sessions",
	}
	cmd.AddCommand(newSessionsListCmd(a))
	return cmd
}

func newSessionsListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list <user-id>",
		Short: "List a user's sessions, most recently updated first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(store repositories.Store) error {
				sessions, err := store.Sessions.ListByOwner(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to list sessions: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No sessions found.")
					return nil
				}
				if limit > 0 && len(sessions) > limit {
					sessions = sessions[:limit]
				}

				fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Sessions (%d)", len(sessions))))
				w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "ID\tTITLE\tMESSAGES\tUPDATED")
				for _, s := range sessions {
					title := s.Title
					if r := []rune(title); len(r) > 50 {
						title = string(r[:47]) + "..."
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						s.ID,
						title,
						strconv.FormatInt(s.MessageCount, 10),
						dateStyle.Render(s.UpdatedAt.Local().Format("2006-01-02 15:04")))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of sessions shown (0 = all)")
	return cmd
}
