package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			sent, message, err := client.TestNotification(cmd.Context())
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			switch {
			case message != "":
				fmt.Fprintln(stdout, message)
			case sent:
				fmt.Fprintln(stdout, "Test notification sent")
			default:
				fmt.Fprintln(stdout, "Notification not sent")
			}
			return nil
		},
	}
}
