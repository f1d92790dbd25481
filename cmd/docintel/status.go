package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mysticBliss/doc-intelligence/internal/dispatch"
)

type statusOptions struct {
	timeout time.Duration
}

func newStatusCmd(root *rootFlags) *cobra.Command {
	opts := statusOptions{}

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Watch status transitions for a deferred job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Give up after this duration (0 waits indefinitely)")

	return cmd
}

// runStatus attaches to the job's status channel and prints every transition
// until a terminal state arrives. With a Redis bus configured this observes
// jobs running in another process.
func runStatus(cmd *cobra.Command, root *rootFlags, opts statusOptions, jobID string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	app, err := buildApp(ctx, root)
	if err != nil {
		return err
	}

	messages, unsubscribe, err := app.statusBus.Subscribe(ctx, jobID)
	if err != nil {
		return err
	}
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := writeJSON(cmd, msg); err != nil {
				return err
			}
			if msg.Status == string(dispatch.JobSucceeded) || msg.Status == string(dispatch.JobFailed) {
				return nil
			}
		}
	}
}
