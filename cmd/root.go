package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var versionFlag bool

var rootCmd = &cobra.Command{
	Use:   "research-terminal",
	Short: "Research Terminal - AI research assistant in your terminal",
	Long:  `A terminal client for an AI research backend: collect references, browse them by keyword and chat about them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionFlag {
			fmt.Printf("research-terminal version %s\n", Version)
			return nil
		}
		// When no subcommand is specified, launch the TUI
		return runTUI(cmd.Context())
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "v", false, "Print version information")

	rootCmd.AddCommand(proxyCmd)
}
