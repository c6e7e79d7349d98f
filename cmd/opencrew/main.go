package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "opencrew",
		Short: "A local multi-agent crew assistant",
		Long: `opencrew runs a four-agent crew (UX, Planner, Developer, Reviewer)
against a local or remote LLM. Agents call file tools by describing them
in plain text; opencrew extracts and executes those calls safely.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.opencrew/config.json)")

	shellCmd := newShellCmd(&configPath)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(newRunCmd(&configPath))
	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newSessionsCmd(&configPath))

	// Bare invocation opens the shell.
	rootCmd.RunE = shellCmd.RunE

	return rootCmd
}

func setupLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
