package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/charter"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of charter",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("charter version %s\n", strings.TrimSpace(charter.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
