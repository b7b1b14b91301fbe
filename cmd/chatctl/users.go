package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"chatline/ledger"
	"chatline/models"
	"chatline/repositories"
)

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}
	cmd.AddCommand(newUsersCreateCmd(a))
	return cmd
}

func newUsersCreateCmd(a *app) *cobra.Command {
	var (
		email   string
		name    string
		role    string
		credits int64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user, optionally with starting credits",
		Example: `  chatctl users create --email ops@example.com --role admin
  chatctl users create --email alice@example.com --credits 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(email)
			if email == "" {
				return errors.New("--email is required")
			}
			if role != models.RoleUser && role != models.RoleAdmin {
				return fmt.Errorf("invalid role %q (user|admin)", role)
			}
			if credits < 0 {
				return errors.New("--credits must not be negative")
			}
			ctx := cmd.Context()
			return a.withStore(ctx, func(store repositories.Store) error {
				if _, err := store.Users.FindByEmail(ctx, email); err == nil {
					return fmt.Errorf("user with email %s already exists", email)
				} else if !errors.Is(err, repositories.ErrNotFound) {
					return err
				}

				now := time.Now().UTC()
				u := &models.User{
					ID:        uuid.NewString(),
					Email:     email,
					Name:      name,
					Role:      role,
					CreatedAt: now,
					UpdatedAt: now,
				}
				if err := store.Users.Insert(ctx, u); err != nil {
					return fmt.Errorf("failed to insert user: %w", err)
				}
				if credits > 0 {
					meta := map[string]any{"granted_by": "chatctl"}
					if _, err := ledger.New(store.Ledger).Grant(ctx, u.ID, credits, models.LedgerReasonAdminGrant, meta); err != nil {
						return fmt.Errorf("user created but grant failed: %w", err)
					}
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, titleStyle.Render("Created user"))
				fmt.Fprintf(out, "  id:      %s\n", idStyle.Render(u.ID))
				fmt.Fprintf(out, "  email:   %s\n", u.Email)
				fmt.Fprintf(out, "  role:    %s\n", u.Role)
				fmt.Fprintf(out, "  credits: %s\n", countStyle.Render(fmt.Sprintf("%d", credits)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "User email (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&role, "role", models.RoleUser, "Role (user|admin)")
	cmd.Flags().Int64Var(&credits, "credits", 0, "Starting credits granted through the ledger")
	return cmd
}
