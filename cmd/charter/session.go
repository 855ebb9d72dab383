package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/charter/pkg/formation"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage formation sessions",
	Long:  `List, inspect, remove, and expire formation sessions in the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	Run: func(cmd *cobra.Command, args []string) {
		svc, cleanup := mustService(cmd)
		defer cleanup()

		sessions, err := svc.Store().List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing sessions: %v\n", err)
			os.Exit(1)
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return
		}

		fmt.Println("Sessions:")
		for _, s := range sessions {
			fmt.Printf("- %s  %s  step=%s  expires=%s\n",
				s.SessionID, s.Status, s.CurrentStep, s.ExpiresAt.Format("2006-01-02 15:04"))
		}
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect a session's full state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, cleanup := mustService(cmd)
		defer cleanup()

		sess, err := svc.Store().Get(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading session '%s': %v\n", args[0], err)
			os.Exit(1)
		}

		data, err := json.MarshalIndent(sess, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling session: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, cleanup := mustService(cmd)
		defer cleanup()

		hasError := false
		for _, sessionID := range args {
			deleted, err := svc.Store().Delete(cmd.Context(), sessionID)
			switch {
			case err != nil:
				fmt.Printf("Error removing '%s': %v\n", sessionID, err)
				hasError = true
			case !deleted:
				fmt.Printf("No session '%s'\n", sessionID)
			default:
				fmt.Printf("Removed session '%s'\n", sessionID)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

var sessionCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove all expired sessions",
	Run: func(cmd *cobra.Command, args []string) {
		svc, cleanup := mustService(cmd)
		defer cleanup()

		removed, err := svc.Store().Cleanup(cmd.Context())
		if err != nil {
			fmt.Printf("Error cleaning up: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed %d expired session(s)\n", removed)
	},
}

func mustService(cmd *cobra.Command) (*formation.Service, func()) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	svc, cleanup, err := buildService(cfg, newLogger(cfg))
	if err != nil {
		fmt.Printf("Error building service: %v\n", err)
		os.Exit(1)
	}
	return svc, cleanup
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionCleanupCmd)
}
