package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/mountscan/pkg/task"
)

func newRunCmd(g *globalFlags) *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "run <tasks.yaml>",
		Short: "Run a batch of search tasks from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := task.Load(args[0])
			if err != nil {
				return err
			}
			logger := g.logger
			// The file's level applies unless --log-level was given.
			if !cmd.Flags().Changed("log-level") {
				lvl, err := task.ParseLevel(cfg.LogLevel)
				if err != nil {
					return err
				}
				logger = newLogger(cmd.ErrOrStderr(), lvl)
			}
			if concurrency > 0 {
				cfg.Concurrency = concurrency
			}

			runner := task.NewRunner(task.WithConcurrency(cfg.Concurrency), task.WithLogger(logger))
			results, err := runner.Run(cmd.Context(), cfg.Tasks)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "task\tstatus\tsites\toutput\n")
			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
					fmt.Fprintf(w, "%s\tfailed\t%v\t\n", res.Task.Name, res.Err)
					continue
				}
				fmt.Fprintf(w, "%s\tok\t%s\t%s\n", res.Task.Name, res.Report, res.Task.Output)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d tasks failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "tasks to run at once (default: from the file)")
	return cmd
}
