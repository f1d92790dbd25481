package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mysticBliss/doc-intelligence/internal/config"
)

type listOptions struct {
	jsonOutput bool
}

func newListCmd(root *rootFlags) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the loaded pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, root, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

type pipelineSummary struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Mode        config.Mode `json:"execution_mode"`
	Stages      int         `json:"stages"`
}

func runList(cmd *cobra.Command, root *rootFlags, opts *listOptions) error {
	app, err := buildApp(cmd.Context(), root)
	if err != nil {
		return err
	}

	summaries := make([]pipelineSummary, 0)
	for _, pipe := range app.pipelines.All() {
		stages := len(pipe.Steps)
		if pipe.ExecutionMode == config.ModeDAG {
			stages = len(pipe.Nodes)
		}
		summaries = append(summaries, pipelineSummary{
			Name:        pipe.Name,
			Description: pipe.Description,
			Mode:        pipe.ExecutionMode,
			Stages:      stages,
		})
	}

	if opts.jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no pipelines loaded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODE\tSTAGES\tDESCRIPTION")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.Name, s.Mode, s.Stages, s.Description)
	}
	return w.Flush()
}
