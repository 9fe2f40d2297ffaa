// Package worker holds the background process commands.
package worker

import "github.com/spf13/cobra"

// NewWorkerCmd returns the parent "worker" command. Workers read the same
// config as "serve" through the root --config flag.
func NewWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run background workers",
		Long:  "Run background workers. \"enricher\" consumes the enrichment topic written by serve when enrichment.mode=kafka.",
	}
	cmd.AddCommand(enricherCmd)

	return cmd
}
