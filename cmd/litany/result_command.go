package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResultCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "result <process-id>",
		Short: "Show the compiled result reference for a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			view, err := client.Result(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.ResultRef)
			return nil
		},
	}
}
