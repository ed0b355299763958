package main

import (
	"fmt"

	"github.com/spf13/cobra"

	apiv1 "github.com/at-ishikawa/lingochat/internal/api/v1"
	"github.com/at-ishikawa/lingochat/internal/cli"
)

func newMetricsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show the learning metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			res, err := client.GetLearningMetrics(cmd.Context(), &apiv1.GetLearningMetricsRequest{})
			if err != nil {
				return fmt.Errorf("client.GetLearningMetrics() > %w", err)
			}
			return cli.RenderMetrics(cmd.OutOrStdout(), res.Metrics)
		},
	}
}

func newPatternsCommand() *cobra.Command {
	var limit int

	command := &cobra.Command{
		Use:   "patterns",
		Short: "Show learned patterns, most frequent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			res, err := client.GetLearningPatterns(cmd.Context(), &apiv1.GetLearningPatternsRequest{})
			if err != nil {
				return fmt.Errorf("client.GetLearningPatterns() > %w", err)
			}
			patterns := res.Patterns
			if limit > 0 && len(patterns) > limit {
				patterns = patterns[:limit]
			}
			return cli.RenderPatterns(cmd.OutOrStdout(), patterns)
		},
	}
	command.Flags().IntVar(&limit, "limit", 20, "maximum number of patterns to show (0 for all)")
	return command
}
