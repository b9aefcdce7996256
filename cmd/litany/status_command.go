package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"litany/internal/daemon"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [process-id]",
		Short: "Show daemon status or a single process",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				view, err := client.Process(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printProcess(cmd, view)
				return nil
			}

			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			runningKind := statusError
			runningText := "stopped"
			if status.Running {
				runningKind = statusOK
				runningText = fmt.Sprintf("pid %d", status.PID)
			}
			fmt.Fprintln(stdout, renderStatusLine("Daemon", runningKind, runningText, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Store", statusInfo, status.StorePath, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Processes", colorize) {
				fmt.Fprintln(stdout, line)
			}
			rows := [][]string{
				{"Active", strconv.Itoa(status.Active)},
				{"Completed", strconv.Itoa(status.Completed)},
				{"Failed", strconv.Itoa(status.Failed)},
				{"Total", strconv.Itoa(status.Total)},
			}
			columns := []tableColumn{{title: "Status"}, {title: "Count", numeric: true}}
			fmt.Fprintln(stdout, renderTable(columns, rows))
			return nil
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var stages []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pipeline processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			views, err := client.List(cmd.Context(), stages)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(stdout, "No processes")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, view := range views {
				rows = append(rows, []string{
					view.ProcessID,
					stageText(view),
					fmt.Sprintf("%.0f%%", view.Progress),
					view.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
				})
			}
			columns := []tableColumn{
				{title: "Process"},
				{title: "Stage"},
				{title: "Progress", numeric: true},
				{title: "Updated"},
			}
			fmt.Fprintln(stdout, renderTable(columns, rows))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&stages, "stage", nil, "Filter by stage (repeatable)")
	return cmd
}

func printProcess(cmd *cobra.Command, view daemon.ProcessView) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	kind := statusInfo
	switch {
	case view.Completed:
		kind = statusOK
	case view.Stage == "failed":
		kind = statusError
	}

	fmt.Fprintln(stdout, renderStatusLine("Process", statusInfo, view.ProcessID, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Stage", kind, stageText(view), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Progress", statusInfo, fmt.Sprintf("%.0f%%", view.Progress), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Completed", statusInfo, yesNo(view.Completed), colorize))
	if view.ResultRef != "" {
		fmt.Fprintln(stdout, renderStatusLine("Result", statusInfo, view.ResultRef, colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Started", statusInfo, formatTimestamp(view.StartedAt), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Updated", statusInfo, formatTimestamp(view.UpdatedAt), colorize))
}

func formatTimestamp(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04:05")
}
