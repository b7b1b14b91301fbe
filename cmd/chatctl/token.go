package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"chatline/repositories"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue access tokens",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "issue <user-id>",
		Short: "Issue a signed access token for an existing user",
		Long: `Issue a signed access token for an existing user.

The token carries the user's stored role. JWT_SECRET must be set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := a.newTokens()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withStore(ctx, func(store repositories.Store) error {
				u, err := store.Users.FindByID(ctx, args[0])
				if errors.Is(err, repositories.ErrNotFound) {
					return fmt.Errorf("user %s not found", args[0])
				}
				if err != nil {
					return err
				}
				token, err := tokens.Sign(u.ID, u.Role)
				if err != nil {
					return fmt.Errorf("failed to sign token: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	})
	return cmd
}
