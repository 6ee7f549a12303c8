package main

import (
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Run the behavior tree once",
	Long: `Compiles the project and ticks its root until it succeeds, fails or
runs out of ticks. Exits non-zero unless the root succeeds.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.RunOptions{Options: options(cmd, args)}
		if cmd.Flags().Changed("tick-limit") {
			limit, _ := cmd.Flags().GetInt64("tick-limit")
			opts.TickLimit = &limit
		}
		opts.Redis, _ = cmd.Flags().GetString("redis")
		opts.Trace, _ = cmd.Flags().GetBool("trace")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")
		return cli.Run(opts, os.Stdout, os.Stderr)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int64("tick-limit", 0, "Stop the run when the tick counter reaches this value (0 = unlimited)")
	runCmd.Flags().Bool("trace", false, "Print every node state as the tree is ticked")
	runCmd.Flags().String("redis", "", "Use a Redis blackboard at this address")
	runCmd.Flags().Bool("json", false, "Print the run report as JSON")
	runCmd.Flags().BoolP("quiet", "q", false, "Only report through the exit code")
}
