package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chatline/authz"
	"chatline/events"
	"chatline/models"
	"chatline/notifications"
	"chatline/repositories"
)

const cliSource = "chatctl"

// cliCaller 는 CLI 가 알림 발송에 사용하는 시스템 관리자 주체이다.
var cliCaller = authz.Caller{ID: "system:chatctl", Role: models.RoleAdmin}

func newNotifyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send notifications",
	}
	cmd.AddCommand(newNotifySendCmd(a))
	return cmd
}

func newNotifySendCmd(a *app) *cobra.Command {
	var (
		userID string
		title  string
		body   string
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Persist a notification and publish it for live delivery",
		Long: `Persist a notification and publish notification.created.

Without --user the notification is a broadcast. Live push only reaches
connected clients when the event bus is shared with the API (kafka).`,
		Example: `  chatctl notify send --title "Maintenance" --body "Tonight 22:00"
  chatctl notify send --user <user-id> --title "Welcome" --body "Hi"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(store repositories.Store) error {
				gate, err := authz.NewGate(ctx, store.Sessions, os.Getenv("AUTHZ_POLICY"))
				if err != nil {
					return err
				}

				var publisher notifications.Publisher
				bus, err := a.openBus()
				if err != nil {
					return fmt.Errorf("failed to open event bus: %w", err)
				}
				if bus != nil {
					defer bus.Close()
					publisher = events.NewDispatcher(bus)
				}

				in := notifications.SendInput{Title: title, Body: body}
				if userID != "" {
					in.UserID = &userID
				}
				n, err := notifications.NewService(store.Notifications, store.Users, gate, publisher, cliSource).Send(ctx, cliCaller, in)
				if err != nil {
					return err
				}

				target := "broadcast"
				if n.UserID != nil {
					target = *n.UserID
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sent notification %s to %s\n", idStyle.Render(n.ID), target)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Target user id (omit for broadcast)")
	cmd.Flags().StringVar(&title, "title", "", "Notification title (required)")
	cmd.Flags().StringVar(&body, "body", "", "Notification body (required)")
	return cmd
}
