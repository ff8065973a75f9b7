package main

import (
	"fmt"

	"github.com/archonlabs/archon"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of archon",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("archon version %s\n", archon.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
