package main

import (
	"fmt"
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor compiles and runs behavior trees",
	Long: `Arbor reads behavior tree definitions written as YAML files, compiles
them into a node graph and ticks the graph until its root succeeds or fails.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the Arbor project")
	rootCmd.PersistentFlags().String("main", "", "Entry file of the project (default from arbor.yaml, or main.yaml)")
	rootCmd.PersistentFlags().String("root", "", "Root tree to run (default: first root of the entry file)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

// options collects the persistent flags. A positional argument stands in
// for --dir.
func options(cmd *cobra.Command, args []string) cli.Options {
	flags := cmd.Flags()
	dir, _ := flags.GetString("dir")
	if !flags.Changed("dir") && len(args) > 0 {
		dir = args[0]
	}
	opts := cli.Options{Dir: dir}
	opts.Main, _ = flags.GetString("main")
	opts.Root, _ = flags.GetString("root")
	opts.LogLevel, _ = flags.GetString("log-level")
	opts.LogFormat, _ = flags.GetString("log-format")
	return opts
}
