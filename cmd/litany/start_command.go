package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"litany/internal/daemon"
)

func newStartCommand(ctx *commandContext) *cobra.Command {
	var req daemon.StartProcessRequest
	var noShort bool
	var noAudio bool
	var wait bool

	cmd := &cobra.Command{
		Use:   "start <topic>",
		Short: "Start a new content generation process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			req.Topic = args[0]
			if noShort {
				value := false
				req.GenerateShort = &value
			}
			if noAudio {
				value := false
				req.GenerateAudio = &value
			}

			view, err := client.StartProcess(cmd.Context(), req)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Started process %s\n", view.ProcessID)
			if req.AwaitTitleSelection {
				fmt.Fprintf(stdout, "Title selection pending; run `litany titles %s` once candidates are ready\n", view.ProcessID)
			}
			if !wait {
				return nil
			}
			return waitForProcess(cmd.Context(), client, view.ProcessID, stdout)
		},
	}

	cmd.Flags().StringVar(&req.ProcessID, "id", "", "Explicit process identifier")
	cmd.Flags().StringVar(&req.Style, "style", "", "Content style")
	cmd.Flags().StringVar(&req.Duration, "duration", "", "Target duration")
	cmd.Flags().StringVar(&req.PrayerType, "type", "", "Prayer type")
	cmd.Flags().StringVar(&req.Language, "language", "", "Content language")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "Additional guidance for generation")
	cmd.Flags().StringVar(&req.Title, "title", "", "Use this title instead of generating candidates")
	cmd.Flags().BoolVar(&req.GenerateImage, "image", false, "Generate a cover image")
	cmd.Flags().BoolVar(&noShort, "no-short", false, "Skip the short variant")
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "Skip audio synthesis")
	cmd.Flags().BoolVar(&req.AwaitTitleSelection, "await-title", false, "Pause after title candidates for manual selection")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the process to finish")
	return cmd
}

// waitForProcess polls the daemon until the process reaches a terminal state,
// printing stage transitions as they happen.
func waitForProcess(ctx context.Context, client *apiClient, id string, stdout io.Writer) error {
	lastLabel := ""
	for {
		view, err := client.Process(ctx, id)
		if err != nil {
			return err
		}
		if label := stageText(view); label != lastLabel {
			fmt.Fprintf(stdout, "  %s (%.0f%%)\n", label, view.Progress)
			lastLabel = label
		}
		if view.Completed {
			if view.ResultRef != "" {
				fmt.Fprintf(stdout, "Result: %s\n", view.ResultRef)
			}
			return nil
		}
		if view.Stage == "failed" {
			return fmt.Errorf("process %s failed", id)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func stageText(view daemon.ProcessView) string {
	if view.StageLabel != "" {
		return view.StageLabel
	}
	return view.Stage
}
