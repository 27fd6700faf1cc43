package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "ariahtml",
		Short: "Apply ARIA rule sheets to HTML documents",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug information")

	rootCmd.AddCommand(
		applyCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ariahtml %s (%s)\n", version, commit)
		},
	}
}
