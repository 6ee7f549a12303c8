package main

import (
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Export the tree visualization",
	Long:  `Compiles the project and outputs a Mermaid diagram (graph TD) of the node graph.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Graph(options(cmd, args), os.Stdout, os.Stderr)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
