package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newTitlesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "titles <process-id>",
		Short: "Show title candidates for a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			view, err := client.Titles(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			if len(view.Titles) == 0 {
				fmt.Fprintln(stdout, "No title candidates yet")
				return nil
			}
			rows := make([][]string, 0, len(view.Titles))
			for i, title := range view.Titles {
				rows = append(rows, []string{strconv.Itoa(i + 1), title})
			}
			columns := []tableColumn{{title: "#", numeric: true}, {title: "Title"}}
			fmt.Fprintln(stdout, renderTable(columns, rows))
			return nil
		},
	}
}

func newSelectTitleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select-title <process-id> <title>",
		Short: "Choose the title for a process awaiting selection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if err := client.SelectTitle(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Title selected for process %s\n", args[0])
			return nil
		},
	}
}
