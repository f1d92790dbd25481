package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mysticBliss/doc-intelligence/internal/dispatch"
)

type runOptions struct {
	pipeline      string
	filePath      string
	correlationID string
	wait          bool
}

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a pipeline over a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.pipeline, "pipeline", "p", "", "Name of the pipeline to run")
	cmd.Flags().StringVarP(&opts.filePath, "file", "f", "", "Path to the document")
	cmd.Flags().StringVar(&opts.correlationID, "correlation-id", "", "Use this id as the job id")
	cmd.Flags().BoolVarP(&opts.wait, "wait", "w", false, "Follow a deferred run until it finishes")
	cmd.MarkFlagRequired("pipeline") //nolint:errcheck
	cmd.MarkFlagRequired("file")     //nolint:errcheck

	return cmd
}

func runRun(cmd *cobra.Command, root *rootFlags, opts runOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, root)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(opts.filePath)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	sub, err := app.dispatcher.Submit(ctx, dispatch.Request{
		Pipeline:      opts.pipeline,
		FileName:      filepath.Base(opts.filePath),
		Content:       content,
		CorrelationID: opts.correlationID,
	})
	if err != nil {
		return err
	}

	if !sub.Async {
		return writeJSON(cmd, sub.Result)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "job accepted: %s\n", sub.JobID)
	if !opts.wait {
		// One-shot process: the run still has to finish before exit.
		app.broker.Wait()
		job, _ := app.dispatcher.Status(sub.JobID)
		return writeJSON(cmd, job)
	}

	return followJob(ctx, cmd, app, sub.JobID)
}

// followJob streams status transitions until the job settles or the context
// is cancelled. Cancellation is forwarded to the running job.
func followJob(ctx context.Context, cmd *cobra.Command, app *appContext, jobID string) error {
	messages, unsubscribe, err := app.statusBus.Subscribe(ctx, jobID)
	if err != nil {
		return err
	}
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			app.dispatcher.Cancel(jobID)
			app.broker.Wait()
			job, _ := app.dispatcher.Status(jobID)
			return writeJSON(cmd, job)
		case msg, ok := <-messages:
			if !ok {
				app.broker.Wait()
				job, _ := app.dispatcher.Status(jobID)
				return writeJSON(cmd, job)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s: %s\n", msg.JobID, msg.Status)
			if msg.Status == string(dispatch.JobSucceeded) || msg.Status == string(dispatch.JobFailed) {
				app.broker.Wait()
				job, _ := app.dispatcher.Status(jobID)
				return writeJSON(cmd, job)
			}
		}
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
