package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/charter/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive formation flow",
	Long:  `Walks you through forming a company step by step in the terminal. Pass --session to resume one.`,
	Run: func(cmd *cobra.Command, args []string) {
		sessionID, _ := cmd.Flags().GetString("session")
		debug, _ := cmd.Flags().GetBool("debug")
		plain, _ := cmd.Flags().GetBool("plain")

		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		logger := newLogger(cfg)

		svc, cleanup, err := buildService(cfg, logger)
		if err != nil {
			fmt.Printf("Error building service: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		if err := cli.Run(context.Background(), svc, cli.Options{
			SessionID: sessionID,
			Debug:     debug,
			Plain:     plain,
		}); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("session", "", "Resume an existing session by ID")
	runCmd.Flags().Bool("debug", false, "Enable debug logging")
	runCmd.Flags().Bool("plain", false, "Disable the banner and markdown styling")

	// Running charter with no subcommand starts the interactive flow.
	rootCmd.Run = runCmd.Run
}
